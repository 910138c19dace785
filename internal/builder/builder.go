package builder

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shouni/go-storybook-kit/internal/config"
	kitcfg "github.com/shouni/go-storybook-kit/pkg/config"
	"github.com/shouni/go-storybook-kit/pkg/gemini"
	"github.com/shouni/go-storybook-kit/pkg/generator"
	"github.com/shouni/go-storybook-kit/pkg/publisher"
	"github.com/shouni/go-storybook-kit/pkg/workflow"
)

// BuildAppContext は設定から AI クライアント、パイプライン、出力先を組み立てます。
func BuildAppContext(ctx context.Context, cfg *config.Config) (*AppContext, error) {
	kc := cfg.KitConfig()

	aiClient, err := InitializeAIClient(ctx, geminiConfig(kc))
	if err != nil {
		return nil, err
	}

	wb, err := workflow.NewBuilder(kc, aiClient, nil)
	if err != nil {
		return nil, fmt.Errorf("ワークフロービルダーの初期化に失敗しました: %w", err)
	}
	pipeline, err := wb.BuildBookPipeline()
	if err != nil {
		return nil, fmt.Errorf("絵本パイプラインの構築に失敗しました: %w", err)
	}

	slog.DebugContext(ctx, "アプリケーションコンテキストを構築したのだ",
		"text_model", kc.GeminiModel,
		"image_model", kc.ImageModel,
		"rate_interval", kc.RateInterval)

	appCtx := NewAppContext(cfg, aiClient, publisher.LocalWriter{}, pipeline)
	return &appCtx, nil
}

// BuildSegmenter はストーリー分割のみを行う部品を構築します。
func BuildSegmenter(ctx context.Context, cfg *config.Config) (generator.Segmenter, error) {
	kc := cfg.KitConfig()
	aiClient, err := InitializeAIClient(ctx, geminiConfig(kc))
	if err != nil {
		return nil, err
	}
	wb, err := workflow.NewBuilder(kc, aiClient, nil)
	if err != nil {
		return nil, fmt.Errorf("ワークフロービルダーの初期化に失敗しました: %w", err)
	}
	return wb.BuildSegmenter()
}

// BuildPublisher はコンテンツ保存を行う Publisher を構築します。
func BuildPublisher(appCtx *AppContext) *publisher.BookPublisher {
	return publisher.NewBookPublisher(appCtx.Writer)
}

// InitializeAIClient は gemini クライアントを初期化します。
// 認証情報が無い場合の domain.ErrMissingCredential はそのまま呼び出し元に返します。
func InitializeAIClient(ctx context.Context, cfg gemini.Config) (gemini.GenerativeModel, error) {
	aiClient, err := gemini.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("AIクライアントの初期化に失敗しました: %w", err)
	}
	return aiClient, nil
}

// geminiConfig はキット設定から Gemini クライアントの接続設定を取り出します。
func geminiConfig(kc kitcfg.Config) gemini.Config {
	return gemini.Config{APIKey: kc.GeminiAPIKey, Timeout: kc.RequestTimeout}
}
