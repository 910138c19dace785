package config

import (
	"time"

	kitcfg "github.com/shouni/go-storybook-kit/pkg/config"

	"github.com/shouni/go-utils/envutil"
)

// デフォルト値の定義なのだ
const (
	DefaultModel        = kitcfg.DefaultGeminiModel
	DefaultImageModel   = kitcfg.DefaultImageModel
	DefaultHTTPTimeout  = 0 * time.Second // 0 は無制限なのだ
	DefaultRateInterval = kitcfg.DefaultRateInterval
	DefaultOutputDir    = "output/book"
	DefaultPagesFile    = "output/pages.json"
	DefaultListenAddr   = ":8080"
	DefaultMaxUploadMB  = 32
)

// Config はアプリケーション全体の環境設定（APIキーやモデル）を保持する構造体なのだ。
type Config struct {
	GeminiAPIKey     string
	GeminiModel      string
	GeminiImageModel string
	StylePrompt      string

	Options GenerateOptions
}

// LoadConfig は環境変数から設定を読み込み、構造体を返すのだ！
func LoadConfig() *Config {
	return &Config{
		GeminiAPIKey:     envutil.GetEnv("GEMINI_API_KEY", ""),
		GeminiModel:      envutil.GetEnv("GEMINI_MODEL", DefaultModel),
		GeminiImageModel: envutil.GetEnv("IMAGE_GEMINI_MODEL", DefaultImageModel),
		StylePrompt:      envutil.GetEnv("STYLE_PROMPT", kitcfg.DefaultStylePrompt),
	}
}

// KitConfig は pkg/config の設定に変換するのだ。
// CLI フラグで指定された値があれば環境変数より優先するのだよ。
func (c *Config) KitConfig() kitcfg.Config {
	kc := kitcfg.DefaultConfig()
	kc.GeminiAPIKey = c.GeminiAPIKey
	kc.GeminiModel = c.GeminiModel
	kc.ImageModel = c.GeminiImageModel
	kc.StylePrompt = c.StylePrompt

	if c.Options.AIModel != "" {
		kc.GeminiModel = c.Options.AIModel
	}
	if c.Options.ImageModel != "" {
		kc.ImageModel = c.Options.ImageModel
	}
	kc.RateInterval = c.Options.RateInterval
	kc.RequestTimeout = c.Options.HTTPTimeout
	return kc.WithDefaults()
}

// GenerateOptions は CLI フラグから渡される実行時のパラメータなのだ。
type GenerateOptions struct {
	// 入力関連
	StoryFile       string   // --story-file ('-' で標準入力)
	StoryText       string   // --sample 指定時など、ファイルを介さず渡す物語
	CharacterImages []string // --char

	// 出力関連
	OutputDir string // --output-dir
	PagesFile string // --pages-file (segment 用)
	Title     string // --title

	// AI挙動設定
	AIModel      string        // --model: ストーリー分割用のGeminiモデル
	ImageModel   string        // --image-model: イラスト生成用のGeminiモデル
	RateInterval time.Duration // --rate-interval

	// 実行制御
	HTTPTimeout time.Duration // --http-timeout
	Verbose     bool          // --verbose

	// serve 用
	ListenAddr  string // --addr
	MaxUploadMB int64  // --max-upload-mb
}
