package gemini

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shouni/go-storybook-kit/pkg/domain"

	"google.golang.org/genai"
)

// GenerativeModel は Gemini の generateContent 呼び出しの契約です。
// *genai.Models がそのまま満たすため、テストでは差し替えが容易です。
type GenerativeModel interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Config は Gemini クライアントの接続設定です。
type Config struct {
	APIKey string
	// Timeout は HTTP リクエスト1回あたりのタイムアウトです。0 は無制限です。
	Timeout time.Duration
}

// NewClient は Gemini API (Google AI バックエンド) のクライアントを初期化します。
// API キーが無い場合は domain.ErrMissingCredential を返し、一切の通信を行いません。
func NewClient(ctx context.Context, cfg Config) (GenerativeModel, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, domain.NewStageError(domain.ErrMissingCredential, "GEMINI_API_KEY environment variable is not set.", nil)
	}

	clientConfig := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: cfg.Timeout},
	}
	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("Geminiクライアントの初期化に失敗しました: %w", err)
	}
	return client.Models, nil
}
