package config

import (
	"time"
)

// デフォルト値の定義
const (
	DefaultGeminiModel = "gemini-2.5-flash"
	DefaultImageModel  = "gemini-2.5-flash-image"
	DefaultTemperature = float32(0.2)
	// DefaultRateInterval は 0 (制限なし) です。イラスト生成はもともと1ページずつ順番に行います。
	DefaultRateInterval = 0 * time.Second
	DefaultStylePrompt  = "whimsical, beautiful, children's storybook-style illustration"
	DefaultMinPages     = 5
	DefaultMaxPages     = 7
)

// Config は Storybook Kit の各コンポーネントを動作させるための基本設定です。
type Config struct {
	// --- AI Model Settings ---
	GeminiModel string // ストーリー分割用
	ImageModel  string // イラスト生成用
	Temperature float32

	// --- Gemini API Settings ---
	GeminiAPIKey string

	// --- Generation Settings ---
	StylePrompt  string
	MinPages     int
	MaxPages     int
	RateInterval time.Duration

	// --- Timeout ---
	// RequestTimeout は 1 リクエストあたりの HTTP タイムアウトです。0 は無制限です。
	RequestTimeout time.Duration
}

// DefaultConfig は推奨されるデフォルト設定を返すヘルパー関数です。
func DefaultConfig() Config {
	return Config{
		GeminiModel:  DefaultGeminiModel,
		ImageModel:   DefaultImageModel,
		Temperature:  DefaultTemperature,
		StylePrompt:  DefaultStylePrompt,
		MinPages:     DefaultMinPages,
		MaxPages:     DefaultMaxPages,
		RateInterval: DefaultRateInterval,
	}
}

// WithDefaults は空のフィールドをデフォルト値で埋めたコピーを返します。
func (c Config) WithDefaults() Config {
	d := DefaultConfig()
	if c.GeminiModel == "" {
		c.GeminiModel = d.GeminiModel
	}
	if c.ImageModel == "" {
		c.ImageModel = d.ImageModel
	}
	if c.Temperature == 0 {
		c.Temperature = d.Temperature
	}
	if c.StylePrompt == "" {
		c.StylePrompt = d.StylePrompt
	}
	if c.MinPages <= 0 {
		c.MinPages = d.MinPages
	}
	if c.MaxPages < c.MinPages {
		c.MaxPages = c.MinPages + (d.MaxPages - d.MinPages)
	}
	return c
}
