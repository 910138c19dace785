package generator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shouni/go-storybook-kit/pkg/config"
	"github.com/shouni/go-storybook-kit/pkg/domain"
	"github.com/shouni/go-storybook-kit/pkg/gemini"
	"github.com/shouni/go-storybook-kit/pkg/prompts"

	"github.com/shouni/gemini-image-kit/ports"
	"google.golang.org/genai"
)

const (
	illustrationTransportMessage = "Failed to generate an illustration for a page."
	illustrationMissingMessage   = "No image was generated for the page."
	defaultIllustrationMimeType  = "image/png"
	// modalityImage は ResponseModalities に渡す画像出力の指定です。
	modalityImage = "IMAGE"
)

// IllustrationGenerator は1ページ分のイラストを Gemini の画像モデルで生成します。
type IllustrationGenerator struct {
	aiClient      gemini.GenerativeModel
	promptBuilder prompts.PromptBuilder
	model         string
	stylePrompt   string
}

// NewIllustrationGenerator は依存関係を注入して初期化します。
func NewIllustrationGenerator(cfg config.Config, ai gemini.GenerativeModel, pb prompts.PromptBuilder) (*IllustrationGenerator, error) {
	if ai == nil {
		return nil, fmt.Errorf("aiClient は必須です")
	}
	if pb == nil {
		return nil, fmt.Errorf("promptBuilder は必須です")
	}
	cfg = cfg.WithDefaults()
	return &IllustrationGenerator{
		aiClient:      ai,
		promptBuilder: pb,
		model:         cfg.ImageModel,
		stylePrompt:   cfg.StylePrompt,
	}, nil
}

// Illustrate は指示文・場面テキスト・全キャラクター画像を1つのリクエストにまとめて送信し、
// 応答の最初のインライン画像を返します。
func (g *IllustrationGenerator) Illustrate(ctx context.Context, pageText string, characters []domain.EncodedImage) (*ports.ImageResponse, error) {
	userPrompt, err := g.promptBuilder.Build(prompts.ModeIllustration, prompts.TemplateData{
		InputText:      pageText,
		StylePrompt:    g.stylePrompt,
		ReferenceCount: len(characters),
	})
	if err != nil {
		return nil, fmt.Errorf("プロンプト生成に失敗: %w", err)
	}

	parts := make([]*genai.Part, 0, len(characters)+1)
	parts = append(parts, genai.NewPartFromText(userPrompt))
	for _, c := range characters {
		parts = append(parts, &genai.Part{InlineData: &genai.Blob{MIMEType: c.MediaType, Data: c.Data}})
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	logger := slog.With("model", g.model, "reference_count", len(characters))
	logger.InfoContext(ctx, "Starting illustration generation")
	startTime := time.Now()

	resp, err := g.aiClient.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		ResponseModalities: []string{modalityImage},
	})
	if err != nil {
		logger.ErrorContext(ctx, "Image generation failed", "error", err)
		return nil, domain.NewStageError(domain.ErrIllustrationTransportFailed, illustrationTransportMessage, err)
	}

	img, extra := firstInlineImage(resp)
	if img == nil {
		return nil, domain.NewStageError(domain.ErrIllustrationMissing, illustrationMissingMessage,
			fmt.Errorf("response contained no inline image part"))
	}
	if extra > 0 {
		// 先頭以外の画像は使いません。サービス側で複数候補を返す仕様は確認できていません。
		logger.WarnContext(ctx, "Discarding additional image parts", "discarded", extra)
	}

	logger.InfoContext(ctx, "Illustration generation completed",
		"mime_type", img.MimeType,
		"bytes", len(img.Data),
		"duration", time.Since(startTime).Round(time.Millisecond))
	return img, nil
}

// firstInlineImage は最初の候補のパートを走査し、最初のインライン画像と、それ以外に見つかった画像の数を返します。
func firstInlineImage(resp *genai.GenerateContentResponse) (*ports.ImageResponse, int) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil || resp.Candidates[0].Content == nil {
		return nil, 0
	}

	var found *ports.ImageResponse
	extra := 0
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil || part.InlineData == nil || len(part.InlineData.Data) == 0 {
			continue
		}
		if found != nil {
			extra++
			continue
		}
		mimeType := part.InlineData.MIMEType
		if mimeType == "" {
			mimeType = defaultIllustrationMimeType
		}
		found = &ports.ImageResponse{
			Data:     part.InlineData.Data,
			MimeType: mimeType,
		}
	}
	return found, extra
}

// DataURI は生成画像を表示層がそのまま使える data URI に変換します。
func DataURI(img *ports.ImageResponse) string {
	if img == nil {
		return ""
	}
	return domain.DataURI(img.MimeType, img.Data)
}
