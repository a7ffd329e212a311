package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// AppConfig 应用配置
type AppConfig struct {
	Server ServerConfig `toml:"server"`
	Data   DataConfig   `toml:"data"`
	Report ReportConfig `toml:"report"`
	Schema SchemaConfig `toml:"schema"`
	Log    LogConfig    `toml:"log"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port           int     `toml:"port"`
	DevMode        bool    `toml:"dev_mode"`
	ImportRPS      float64 `toml:"import_rps"`   // 上传接口限流（每秒）
	ImportBurst    int     `toml:"import_burst"` // 上传接口突发上限
	MaxUploadBytes int64   `toml:"max_upload_bytes"`
}

// DataConfig 数据配置
type DataConfig struct {
	DBDSN    string `toml:"db_dsn"`    // 导入日志库，默认内存库
	LogoPath string `toml:"logo_path"` // 可选 logo，缺失时前端使用文字
}

// ReportConfig 报表口径配置
type ReportConfig struct {
	SheetName    string `toml:"sheet_name"`
	SkipRows     int    `toml:"skip_rows"` // 表头之前跳过的行数
	PassedStatus string `toml:"passed_status"`
	YearFrom     int    `toml:"year_from"`
	YearTo       int    `toml:"year_to"`
	TopN         int    `toml:"top_n"`
}

// SchemaConfig 列名别名配置（覆盖内置别名）
type SchemaConfig struct {
	Aliases map[string][]string `toml:"aliases"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level      string `toml:"level"`  // debug/info/warn/error
	Format     string `toml:"format"` // text/json
	Output     string `toml:"output"` // stdout/file/both
	File       string `toml:"file"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
	Compress   bool   `toml:"compress"`
}

// LoadConfigInfo 配置加载元信息
type LoadConfigInfo struct {
	Path          string
	FileFound     bool
	PortSpecified bool
}

// DefaultConfig 默认配置
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:           20262,
			DevMode:        false,
			ImportRPS:      2,
			ImportBurst:    4,
			MaxUploadBytes: 64 << 20,
		},
		Data: DataConfig{
			DBDSN:    "file:rscboard?mode=memory&cache=shared",
			LogoPath: "canon-press-centre-canon-logo.png",
		},
		Report: ReportConfig{
			SheetName:    "RAW data",
			SkipRows:     1,
			PassedStatus: "Passed",
			YearFrom:     2024,
			YearTo:       2025,
			TopN:         10,
		},
		Schema: SchemaConfig{
			Aliases: map[string][]string{},
		},
		Log: LogConfig{
			Level:      "info",
			Format:     "text",
			Output:     "stdout",
			File:       "logs/rscboard.log",
			MaxSizeMB:  50,
			MaxBackups: 5,
			MaxAgeDays: 14,
			Compress:   true,
		},
	}
}

// Validate 校验配置
func (c *AppConfig) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Report.YearFrom > c.Report.YearTo {
		return fmt.Errorf("report year_from (%d) is after year_to (%d)", c.Report.YearFrom, c.Report.YearTo)
	}
	if c.Report.SkipRows < 0 {
		return fmt.Errorf("report skip_rows must not be negative")
	}
	if c.Report.TopN < 1 {
		return fmt.Errorf("report top_n must be positive")
	}
	if c.Report.SheetName == "" {
		return fmt.Errorf("report sheet_name cannot be empty")
	}
	return nil
}

func isPortSpecifiedInToml(data []byte) bool {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return false
	}

	serverAny, ok := raw["server"]
	if !ok {
		return false
	}

	serverMap, ok := serverAny.(map[string]any)
	if !ok {
		return false
	}

	_, ok = serverMap["port"]
	return ok
}

// GetExeDir 获取可执行文件所在目录
func GetExeDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.Dir(exe), nil
}

// DefaultConfigPath 可执行文件同目录下的 config.toml
func DefaultConfigPath() string {
	exeDir, err := GetExeDir()
	if err != nil {
		// 无法获取可执行文件目录，使用当前目录
		exeDir = "."
	}
	return filepath.Join(exeDir, "config.toml")
}

// LoadConfigWithInfo 从指定 toml 文件加载配置并叠加环境变量，返回元信息
func LoadConfigWithInfo(configPath string) (*AppConfig, LoadConfigInfo, error) {
	if configPath == "" {
		configPath = DefaultConfigPath()
	}
	info := LoadConfigInfo{Path: configPath}
	config := DefaultConfig()

	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		info.FileFound = true
		info.PortSpecified = isPortSpecifiedInToml(data)
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, info, fmt.Errorf("parse %s: %w", configPath, err)
		}
	case os.IsNotExist(err):
		// 配置文件不存在，使用默认配置
	default:
		return nil, info, err
	}

	// 环境变量覆盖
	overrides, err := loadEnvOverrides(filepath.Dir(configPath))
	if err != nil {
		return nil, info, err
	}
	if overrides.Port > 0 {
		info.PortSpecified = true
	}
	overrides.apply(config)

	if err := config.Validate(); err != nil {
		return nil, info, fmt.Errorf("invalid configuration: %w", err)
	}
	return config, info, nil
}

// LoadConfig 加载配置
func LoadConfig(configPath string) (*AppConfig, error) {
	config, _, err := LoadConfigWithInfo(configPath)
	return config, err
}

// SaveConfig 保存配置到 toml
func SaveConfig(config *AppConfig, configPath string) error {
	if configPath == "" {
		configPath = DefaultConfigPath()
	}

	data, err := toml.Marshal(config)
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0644)
}
