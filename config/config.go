// Package config 读取 storypress 命令的运行配置。
package config

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/ByLCY/storypress/imageloader"
	"github.com/ByLCY/storypress/logger"
	"gopkg.in/yaml.v3"
)

// render 命令支持的渲染后端。
const (
	BackendCanvas  = "canvas"
	BackendFPDF    = "fpdf"
	BackendPreview = "preview"
)

// Config 是完整的运行配置。
type Config struct {
	// 输出
	Backend string `yaml:"backend"`
	OutDir  string `yaml:"out_dir"`

	// 布局描述文件路径，为空时使用内置布局。
	Profile string `yaml:"profile"`

	// 图片来源
	AssetDir string     `yaml:"asset_dir"`
	HTTP     HTTPConfig `yaml:"http"`

	// 批量渲染
	Workers int `yaml:"workers"`

	LogLevel string `yaml:"log_level"`

	// 调试
	DebugDir string `yaml:"debug_dir"`

	// PreviewScale 为预览后端每毫米的像素数。
	PreviewScale float64 `yaml:"preview_scale"`
}

// HTTPConfig 是远程图片下载设置。
type HTTPConfig struct {
	TimeoutMs     int     `yaml:"timeout_ms"`
	UserAgent     string  `yaml:"user_agent"`
	RatePerSecond float64 `yaml:"rate_per_second"`
	Burst         int     `yaml:"burst"`
	MaxBytes      int64   `yaml:"max_bytes"`
}

// Defaults 返回默认配置。
func Defaults() Config {
	return Config{
		Backend: BackendCanvas,
		OutDir:  ".",

		HTTP: HTTPConfig{
			TimeoutMs: 30000,
			UserAgent: "storypress/1.0",
			Burst:     1,
			MaxBytes:  32 << 20,
		},

		Workers:  2,
		LogLevel: "info",

		PreviewScale: 2,
	}
}

// LoadFromFile 从 YAML 文件加载配置，未写出的项保持默认值。
func LoadFromFile(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("读取配置文件失败: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("解析配置文件失败: %w", err)
	}

	return cfg, cfg.Validate()
}

// Validate 检查无法使用的配置项。
func (c Config) Validate() error {
	switch c.Backend {
	case BackendCanvas, BackendFPDF, BackendPreview:
	default:
		return fmt.Errorf("未知的渲染后端 %q", c.Backend)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers 至少为 1，实际为 %d", c.Workers)
	}
	if c.PreviewScale <= 0 {
		return fmt.Errorf("preview_scale 必须为正数，实际为 %v", c.PreviewScale)
	}
	return nil
}

// Level 返回解析后的日志级别。
func (c Config) Level() logger.Level {
	return logger.ParseLevel(c.LogLevel)
}

// LoaderOptions 把图片相关设置转换为 imageloader.Options。
func (c Config) LoaderOptions() imageloader.Options {
	var client *http.Client
	if c.HTTP.TimeoutMs > 0 {
		client = &http.Client{Timeout: time.Duration(c.HTTP.TimeoutMs) * time.Millisecond}
	}
	return imageloader.Options{
		BaseDir: c.AssetDir,
		HTTP: imageloader.HTTPOptions{
			Client:        client,
			UserAgent:     c.HTTP.UserAgent,
			MaxBytes:      c.HTTP.MaxBytes,
			RatePerSecond: c.HTTP.RatePerSecond,
			Burst:         c.HTTP.Burst,
		},
	}
}
