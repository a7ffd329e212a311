package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"rscboard/internal/api"
	"rscboard/internal/config"
	"rscboard/internal/importer"
	"rscboard/internal/parser"
	"rscboard/internal/report"
	"rscboard/internal/store"
)

// Server HTTP服务器
type Server struct {
	cfg    *config.AppConfig
	router *gin.Engine
	store  *store.Store
	coord  *importer.Coordinator
	api    *api.Handler
}

// NewServer 创建服务器
func NewServer(cfg *config.AppConfig) (*Server, error) {
	if !cfg.Server.DevMode {
		gin.SetMode(gin.ReleaseMode)
	}

	// 初始化 SQLite Store（导入日志）
	sqliteStore, err := store.New(cfg.Data.DBDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	coord := importer.NewCoordinator(sqliteStore, importer.Options{
		Load: parser.LoadOptions{
			SheetName: cfg.Report.SheetName,
			SkipRows:  cfg.Report.SkipRows,
		},
		YearFrom: cfg.Report.YearFrom,
		YearTo:   cfg.Report.YearTo,
		Aliases:  cfg.Schema.Aliases,
	})

	handler := api.NewHandler(coord, sqliteStore, api.Options{
		Settings: report.Settings{
			PassedStatus: cfg.Report.PassedStatus,
			TopN:         cfg.Report.TopN,
		},
		LogoPath:       cfg.Data.LogoPath,
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
	})

	s := &Server{
		cfg:    cfg,
		router: gin.New(),
		store:  sqliteStore,
		coord:  coord,
		api:    handler,
	}
	s.setupRoutes()

	return s, nil
}

// setupRoutes 设置路由
func (s *Server) setupRoutes() {
	s.router.Use(requestID(), accessLog(), recovery(), cors())

	apiGroup := s.router.Group("/api")
	s.api.RegisterRoutes(apiGroup, rateLimit(s.cfg.Server.ImportRPS, s.cfg.Server.ImportBurst))

	s.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, api.Response{
			Code:    api.CodeNotFound,
			Message: "route not found",
			Level:   api.LevelError,
		})
	})
}

// Handler 返回 http.Handler（用于测试）
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run 启动服务器，ctx 取消后优雅退出
func (s *Server) Run(ctx context.Context, addr string) error {
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logrus.WithField("addr", addr).Info("http server listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// Close 释放资源
func (s *Server) Close() error {
	return s.store.Close()
}

// GetStore 获取存储（用于测试）
func (s *Server) GetStore() *store.Store {
	return s.store
}
