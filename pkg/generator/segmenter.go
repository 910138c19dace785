package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shouni/go-storybook-kit/pkg/config"
	"github.com/shouni/go-storybook-kit/pkg/domain"
	"github.com/shouni/go-storybook-kit/pkg/gemini"
	"github.com/shouni/go-storybook-kit/pkg/prompts"

	"github.com/xeipuuv/gojsonschema"
	"google.golang.org/genai"
)

const (
	segmentationTransportMessage = "Failed to split the story into pages."
	segmentationFormatMessage    = "Invalid format for story segmentation."
)

// pagesSchemaJSON は分割結果として受け付ける JSON の形です。
// genai 側の ResponseSchema と同じ形を、受信後にもう一度検証します。
const pagesSchemaJSON = `{
  "type": "object",
  "required": ["pages"],
  "properties": {
    "pages": {
      "type": "array",
      "minItems": 1,
      "items": {"type": "string"}
    }
  }
}`

// pagesResponse は構造化出力のデコード先です。
type pagesResponse struct {
	Pages []string `json:"pages"`
}

// StorySegmenter は Gemini の構造化出力を使って物語をページに分割します。
type StorySegmenter struct {
	aiClient      gemini.GenerativeModel
	promptBuilder prompts.PromptBuilder
	schema        *gojsonschema.Schema
	model         string
	temperature   float32
	minPages      int
	maxPages      int
}

// NewStorySegmenter は依存関係を注入して初期化します。
func NewStorySegmenter(cfg config.Config, ai gemini.GenerativeModel, pb prompts.PromptBuilder) (*StorySegmenter, error) {
	if ai == nil {
		return nil, fmt.Errorf("aiClient は必須です")
	}
	if pb == nil {
		return nil, fmt.Errorf("promptBuilder は必須です")
	}
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(pagesSchemaJSON))
	if err != nil {
		return nil, fmt.Errorf("ページスキーマの読み込みに失敗しました: %w", err)
	}
	cfg = cfg.WithDefaults()
	return &StorySegmenter{
		aiClient:      ai,
		promptBuilder: pb,
		schema:        schema,
		model:         cfg.GeminiModel,
		temperature:   cfg.Temperature,
		minPages:      cfg.MinPages,
		maxPages:      cfg.MaxPages,
	}, nil
}

// Segment は物語を 1 回のリクエストでページ単位のテキスト列に分割します。
// 応答の形が不正なら domain.ErrSegmentationFormatInvalid、
// 通信やサービス側の失敗なら domain.ErrSegmentationTransportFailed を返します。
func (s *StorySegmenter) Segment(ctx context.Context, story string) ([]string, error) {
	finalPrompt, err := s.promptBuilder.Build(prompts.ModeSegment, prompts.TemplateData{
		InputText: story,
		MinPages:  s.minPages,
		MaxPages:  s.maxPages,
	})
	if err != nil {
		return nil, fmt.Errorf("プロンプト生成に失敗: %w", err)
	}

	slog.InfoContext(ctx, "Segmenter: Calling Gemini API", "model", s.model, "story_chars", len(story))
	resp, err := s.aiClient.GenerateContent(ctx, s.model, genai.Text(finalPrompt), s.requestConfig())
	if err != nil {
		slog.ErrorContext(ctx, "Story segmentation failed", "error", err)
		return nil, domain.NewStageError(domain.ErrSegmentationTransportFailed, segmentationTransportMessage, err)
	}

	pages, err := s.parseResponse(resp)
	if err != nil {
		slog.ErrorContext(ctx, "Story segmentation returned an invalid shape", "error", err)
		return nil, domain.NewStageError(domain.ErrSegmentationFormatInvalid, segmentationFormatMessage, err)
	}

	slog.InfoContext(ctx, "Segmenter: Story split into pages", "page_count", len(pages))
	return pages, nil
}

func (s *StorySegmenter) requestConfig() *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(s.temperature),
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"pages": {
					Type:        genai.TypeArray,
					Description: "An array of strings, where each string is the text for one page of the storybook.",
					Items: &genai.Schema{
						Type:        genai.TypeString,
						Description: "The text content for a single page of the book.",
					},
				},
			},
			Required: []string{"pages"},
		},
	}
}

// parseResponse は応答テキストをスキーマで検証してからデコードします。
func (s *StorySegmenter) parseResponse(resp *genai.GenerateContentResponse) ([]string, error) {
	if resp == nil {
		return nil, fmt.Errorf("empty response")
	}
	raw := strings.TrimSpace(resp.Text())
	if raw == "" {
		return nil, fmt.Errorf("response contained no text")
	}

	result, err := s.schema.Validate(gojsonschema.NewStringLoader(raw))
	if err != nil {
		return nil, fmt.Errorf("response is not valid JSON (応答抜粋: %q): %w", truncateString(raw, 200), err)
	}
	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, re := range result.Errors() {
			details = append(details, re.String())
		}
		return nil, fmt.Errorf("response does not match the pages schema: %s", strings.Join(details, "; "))
	}

	var decoded pagesResponse
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return nil, fmt.Errorf("AIからの応答に含まれるJSONの解析に失敗しました: %w", err)
	}
	return decoded.Pages, nil
}

// truncateString は先頭 maxLen 文字 (rune 単位) を残して切り詰めます。
func truncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}
