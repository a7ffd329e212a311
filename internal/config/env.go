package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// envOverrides 环境变量覆盖项（零值表示未设置）
type envOverrides struct {
	Port         int    `env:"RSC_PORT"`
	DevMode      bool   `env:"RSC_DEV_MODE"`
	DBDSN        string `env:"RSC_DB_DSN"`
	LogoPath     string `env:"RSC_LOGO_PATH"`
	SheetName    string `env:"RSC_SHEET_NAME"`
	PassedStatus string `env:"RSC_PASSED_STATUS"`
	YearFrom     int    `env:"RSC_YEAR_FROM"`
	YearTo       int    `env:"RSC_YEAR_TO"`
	TopN         int    `env:"RSC_TOP_N"`
	LogLevel     string `env:"RSC_LOG_LEVEL"`
	LogFormat    string `env:"RSC_LOG_FORMAT"`
	LogOutput    string `env:"RSC_LOG_OUTPUT"`
}

// loadEnvOverrides 先加载 .env（可选），再解析 RSC_* 变量
func loadEnvOverrides(dir string) (envOverrides, error) {
	var o envOverrides

	envPath := filepath.Join(dir, ".env")
	if _, err := os.Stat(envPath); err == nil {
		if err := godotenv.Load(envPath); err != nil {
			return o, fmt.Errorf("load %s: %w", envPath, err)
		}
	}

	if err := env.Parse(&o); err != nil {
		return o, fmt.Errorf("parse environment: %w", err)
	}
	return o, nil
}

func (o envOverrides) apply(c *AppConfig) {
	if o.Port > 0 {
		c.Server.Port = o.Port
	}
	if o.DevMode {
		c.Server.DevMode = true
	}
	if o.DBDSN != "" {
		c.Data.DBDSN = o.DBDSN
	}
	if o.LogoPath != "" {
		c.Data.LogoPath = o.LogoPath
	}
	if o.SheetName != "" {
		c.Report.SheetName = o.SheetName
	}
	if o.PassedStatus != "" {
		c.Report.PassedStatus = o.PassedStatus
	}
	if o.YearFrom > 0 {
		c.Report.YearFrom = o.YearFrom
	}
	if o.YearTo > 0 {
		c.Report.YearTo = o.YearTo
	}
	if o.TopN > 0 {
		c.Report.TopN = o.TopN
	}
	if o.LogLevel != "" {
		c.Log.Level = strings.ToLower(o.LogLevel)
	}
	if o.LogFormat != "" {
		c.Log.Format = strings.ToLower(o.LogFormat)
	}
	if o.LogOutput != "" {
		c.Log.Output = strings.ToLower(o.LogOutput)
	}
}
