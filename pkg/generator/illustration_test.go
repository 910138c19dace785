package generator

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shouni/go-storybook-kit/pkg/config"
	"github.com/shouni/go-storybook-kit/pkg/domain"
	"github.com/shouni/go-storybook-kit/pkg/prompts"

	"google.golang.org/genai"
)

func newTestIllustrator(t *testing.T, fm *fakeModel) *IllustrationGenerator {
	t.Helper()
	pb, err := prompts.NewTextPromptBuilder()
	if err != nil {
		t.Fatal(err)
	}
	g, err := NewIllustrationGenerator(config.DefaultConfig(), fm, pb)
	if err != nil {
		t.Fatal(err)
	}
	return g
}

var testCharacters = []domain.EncodedImage{
	{Name: "fox.png", MediaType: domain.MediaTypePNG, Data: []byte("fox")},
	{Name: "owl.webp", MediaType: domain.MediaTypeWebP, Data: []byte("owl")},
}

func TestIllustrationGenerator_Illustrate(t *testing.T) {
	ctx := context.Background()

	t.Run("最初のインライン画像を返しリクエストに全画像を含めること", func(t *testing.T) {
		fm := &fakeModel{respond: func(recordedCall) (*genai.GenerateContentResponse, error) {
			return partsResponse(
				&genai.Part{Text: "Here is your picture"},
				&genai.Part{InlineData: &genai.Blob{MIMEType: "image/jpeg", Data: []byte("first")}},
				&genai.Part{InlineData: &genai.Blob{MIMEType: "image/png", Data: []byte("second")}},
			), nil
		}}

		img, err := newTestIllustrator(t, fm).Illustrate(ctx, "The fox smiles.", testCharacters)
		if err != nil {
			t.Fatalf("Illustrate でエラー: %v", err)
		}
		if string(img.Data) != "first" || img.MimeType != "image/jpeg" {
			t.Errorf("最初の画像ではありません: %+v", img)
		}
		if DataURI(img) != "data:image/jpeg;base64,Zmlyc3Q=" {
			t.Errorf("想定外の data URI: %s", DataURI(img))
		}

		call := fm.calls[0]
		if call.model != config.DefaultImageModel {
			t.Errorf("モデル %q, 期待値 %q", call.model, config.DefaultImageModel)
		}
		if call.config == nil || len(call.config.ResponseModalities) != 1 || call.config.ResponseModalities[0] != "IMAGE" {
			t.Errorf("画像出力が指定されていません: %+v", call.config)
		}
		parts := call.contents[0].Parts
		if len(parts) != 3 {
			t.Fatalf("パート数 %d, 期待値 3 (テキスト + 画像2枚)", len(parts))
		}
		if !strings.Contains(parts[0].Text, `Scene: "The fox smiles."`) || !strings.Contains(parts[0].Text, "children's storybook") {
			t.Errorf("想定外のプロンプト: %s", parts[0].Text)
		}
		if parts[1].InlineData.MIMEType != domain.MediaTypePNG || string(parts[2].InlineData.Data) != "owl" {
			t.Errorf("キャラクター画像が正しく添付されていません")
		}
	})

	t.Run("MIMEタイプが無い場合は image/png とみなすこと", func(t *testing.T) {
		fm := &fakeModel{respond: func(recordedCall) (*genai.GenerateContentResponse, error) {
			return partsResponse(&genai.Part{InlineData: &genai.Blob{Data: []byte("x")}}), nil
		}}
		img, err := newTestIllustrator(t, fm).Illustrate(ctx, "scene", testCharacters)
		if err != nil {
			t.Fatal(err)
		}
		if img.MimeType != "image/png" {
			t.Errorf("想定外の MIME タイプ: %s", img.MimeType)
		}
	})

	missingCases := map[string]*genai.GenerateContentResponse{
		"テキストのみ":     textResponse("I cannot draw that."),
		"候補なし":       {},
		"空のインラインデータ": partsResponse(&genai.Part{InlineData: &genai.Blob{MIMEType: "image/png"}}),
		"nil 応答":     nil,
	}
	for name, resp := range missingCases {
		t.Run("画像なし: "+name, func(t *testing.T) {
			fm := &fakeModel{respond: func(recordedCall) (*genai.GenerateContentResponse, error) {
				return resp, nil
			}}
			img, err := newTestIllustrator(t, fm).Illustrate(ctx, "scene", testCharacters)
			if !errors.Is(err, domain.ErrIllustrationMissing) {
				t.Errorf("IllustrationMissing を期待しました: %v", err)
			}
			if img != nil {
				t.Errorf("プレースホルダーが返されました: %+v", img)
			}
		})
	}

	t.Run("通信エラーは IllustrationTransportFailed", func(t *testing.T) {
		cause := errors.New("503 unavailable")
		fm := &fakeModel{respond: func(recordedCall) (*genai.GenerateContentResponse, error) {
			return nil, cause
		}}
		_, err := newTestIllustrator(t, fm).Illustrate(ctx, "scene", testCharacters)
		if !errors.Is(err, domain.ErrIllustrationTransportFailed) || !errors.Is(err, cause) {
			t.Errorf("想定外のエラー: %v", err)
		}
	})
}
