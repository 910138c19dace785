package generator

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/shouni/go-storybook-kit/pkg/config"
	"github.com/shouni/go-storybook-kit/pkg/domain"
	"github.com/shouni/go-storybook-kit/pkg/prompts"

	"google.golang.org/genai"
)

func newTestSegmenter(t *testing.T, fm *fakeModel) *StorySegmenter {
	t.Helper()
	pb, err := prompts.NewTextPromptBuilder()
	if err != nil {
		t.Fatal(err)
	}
	s, err := NewStorySegmenter(config.DefaultConfig(), fm, pb)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestStorySegmenter_Segment(t *testing.T) {
	ctx := context.Background()

	t.Run("構造化出力からページ列を返すこと", func(t *testing.T) {
		fm := &fakeModel{respond: func(recordedCall) (*genai.GenerateContentResponse, error) {
			return textResponse(`{"pages": ["Page 1 text", "Page 2 text"]}`), nil
		}}
		pages, err := newTestSegmenter(t, fm).Segment(ctx, "A fox finds a mushroom.")
		if err != nil {
			t.Fatalf("Segment でエラー: %v", err)
		}
		if strings.Join(pages, "|") != "Page 1 text|Page 2 text" {
			t.Errorf("想定外のページ: %v", pages)
		}

		if len(fm.calls) != 1 {
			t.Fatalf("呼び出し回数 %d, 期待値 1", len(fm.calls))
		}
		call := fm.calls[0]
		if call.model != config.DefaultGeminiModel {
			t.Errorf("モデル %q, 期待値 %q", call.model, config.DefaultGeminiModel)
		}
		if call.config == nil || call.config.ResponseMIMEType != "application/json" {
			t.Fatal("JSON 出力が指定されていません")
		}
		schema := call.config.ResponseSchema
		if schema == nil || schema.Type != genai.TypeObject || schema.Properties["pages"] == nil ||
			schema.Properties["pages"].Type != genai.TypeArray || len(schema.Required) != 1 || schema.Required[0] != "pages" {
			t.Errorf("想定外のスキーマ: %+v", schema)
		}
		prompt := call.contents[0].Parts[0].Text
		if !strings.Contains(prompt, "A fox finds a mushroom.") || !strings.Contains(prompt, "5-7") {
			t.Errorf("プロンプトに物語またはページ数がありません: %s", prompt)
		}
	})

	formatCases := map[string]string{
		"pages フィールドが無い":   `{"chapters": ["a"]}`,
		"pages が配列ではない":    `{"pages": "a single page"}`,
		"配列要素が文字列ではない":     `{"pages": [1, 2]}`,
		"空の配列":             `{"pages": []}`,
		"JSON ではない":        `Here are your pages: one, two`,
		"空の応答":             ``,
	}
	for name, body := range formatCases {
		t.Run("形式不正: "+name, func(t *testing.T) {
			fm := &fakeModel{respond: func(recordedCall) (*genai.GenerateContentResponse, error) {
				return textResponse(body), nil
			}}
			_, err := newTestSegmenter(t, fm).Segment(ctx, "story")
			if !errors.Is(err, domain.ErrSegmentationFormatInvalid) {
				t.Errorf("SegmentationFormatInvalid を期待しました: %v", err)
			}
		})
	}

	t.Run("通信エラーは SegmentationTransportFailed で原因を保持すること", func(t *testing.T) {
		cause := errors.New("429 quota exceeded")
		fm := &fakeModel{respond: func(recordedCall) (*genai.GenerateContentResponse, error) {
			return nil, cause
		}}
		_, err := newTestSegmenter(t, fm).Segment(ctx, "story")
		if !errors.Is(err, domain.ErrSegmentationTransportFailed) || !errors.Is(err, cause) {
			t.Fatalf("想定外のエラー: %v", err)
		}
		if !strings.HasPrefix(err.Error(), "Failed to split the story into pages.") || !strings.Contains(err.Error(), "429") {
			t.Errorf("想定外のメッセージ: %s", err.Error())
		}
	})
}

func TestNewStorySegmenter_RequiresDependencies(t *testing.T) {
	pb, _ := prompts.NewTextPromptBuilder()
	if _, err := NewStorySegmenter(config.DefaultConfig(), nil, pb); err == nil {
		t.Error("aiClient 無しでエラーになりませんでした")
	}
	if _, err := NewStorySegmenter(config.DefaultConfig(), &fakeModel{}, nil); err == nil {
		t.Error("promptBuilder 無しでエラーになりませんでした")
	}
}

func TestTruncateString(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"abcdef", 3, "abc..."},
		{"きつねのフェリックス", 4, "きつねの..."},
	}
	for _, tt := range tests {
		got := truncateString(tt.in, tt.max)
		if got != tt.want {
			t.Errorf("truncateString(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
		if !utf8.ValidString(got) {
			t.Errorf("truncateString(%q, %d) が不正な UTF-8 を返しました", tt.in, tt.max)
		}
	}
}
