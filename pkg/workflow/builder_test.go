package workflow

import (
	"context"
	"testing"

	"github.com/shouni/go-storybook-kit/pkg/config"

	"google.golang.org/genai"
)

type nopModel struct{}

func (nopModel) GenerateContent(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	return &genai.GenerateContentResponse{}, nil
}

func TestNewBuilder(t *testing.T) {
	if _, err := NewBuilder(config.DefaultConfig(), nil, nil); err == nil {
		t.Error("aiClient 無しでエラーになりませんでした")
	}

	b, err := NewBuilder(config.Config{}, nopModel{}, nil)
	if err != nil {
		t.Fatalf("NewBuilder でエラー: %v", err)
	}
	p, err := b.BuildBookPipeline()
	if err != nil {
		t.Fatalf("BuildBookPipeline でエラー: %v", err)
	}
	if p.encoder == nil || p.segmenter == nil || p.illustrator == nil {
		t.Error("パイプラインの部品が欠けています")
	}
	if b.cfg.GeminiModel != config.DefaultGeminiModel {
		t.Errorf("デフォルト値が適用されていません: %q", b.cfg.GeminiModel)
	}
}
