package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"rscboard/internal/config"
	"rscboard/internal/logger"
	"rscboard/internal/server"
)

var (
	port       = flag.Int("port", 0, "服务端口 (config.toml 优先；仅当未显式配置 port 时生效)")
	devMode    = flag.Bool("dev", false, "开发模式")
	configPath = flag.String("config", "", "配置文件路径 (默认可执行文件同目录 config.toml)")
	initConfig = flag.Bool("init-config", false, "把当前生效的配置写入配置文件后退出 (文件已存在时拒绝覆盖)")
)

func main() {
	flag.Parse()

	fmt.Println("==========================================")
	fmt.Println("  RSC Board - Retail Sales Reporting")
	fmt.Println("==========================================")

	// 加载配置
	cfg, info, err := config.LoadConfigWithInfo(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed, using defaults: %v\n", err)
		cfg = config.DefaultConfig()
		info = config.LoadConfigInfo{}
	}

	// 命令行参数覆盖配置
	if *port > 0 && !info.PortSpecified {
		cfg.Server.Port = *port
	}
	if *devMode {
		cfg.Server.DevMode = true
	}

	if *initConfig {
		if info.FileFound {
			fmt.Fprintf(os.Stderr, "%s already exists, not overwriting\n", info.Path)
			os.Exit(1)
		}
		if err := config.SaveConfig(cfg, info.Path); err != nil {
			fmt.Fprintf(os.Stderr, "write config failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("config written")
		return
	}

	if err := logger.Init(cfg.Log); err != nil {
		fmt.Fprintf(os.Stderr, "init logger failed: %v\n", err)
		os.Exit(1)
	}
	logrus.WithFields(logrus.Fields{
		"config":    info.Path,
		"found":     info.FileFound,
		"port":      cfg.Server.Port,
		"sheet":     cfg.Report.SheetName,
		"yearRange": fmt.Sprintf("%d-%d", cfg.Report.YearFrom, cfg.Report.YearTo),
	}).Info("configuration loaded")

	srv, err := server.NewServer(cfg)
	if err != nil {
		logrus.WithError(err).Fatal("create server failed")
	}
	defer func() { _ = srv.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Printf("listening on http://localhost:%d (Ctrl+C to stop)\n", cfg.Server.Port)
	if err := srv.Run(ctx, fmt.Sprintf(":%d", cfg.Server.Port)); err != nil {
		logrus.WithError(err).Error("server stopped with error")
		os.Exit(1)
	}
	logrus.Info("server stopped")
}
