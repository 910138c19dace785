package publisher

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"path"
	"path/filepath"

	"github.com/shouni/go-storybook-kit/pkg/asset"
	"github.com/shouni/go-storybook-kit/pkg/domain"

	"github.com/microcosm-cc/bluemonday"
)

const defaultTitle = "My Storybook"

//go:embed book.html.tmpl
var bookTemplateText string

var bookTemplate = template.Must(template.New("book").Parse(bookTemplateText))

// Options はパブリッシュ動作を制御する設定項目です。
type Options struct {
	OutputDir string
	Title     string
	Lang      string
}

// PublishResult はパブリッシュ処理の結果として生成されたファイルの情報を保持します。
type PublishResult struct {
	ManifestPath string   // 生成された book.json のパス
	HTMLPath     string   // 生成された index.html のパス
	ImagePaths   []string // 保存された全画像のパスリスト
}

// pageView は HTML テンプレートに渡す1ページ分のデータです。
type pageView struct {
	ID        string
	Number    int
	ImagePath string
	Text      template.HTML
}

// manifestPage は book.json に書き出す1ページ分のデータです。画像は data URI ではなく相対パスで持ちます。
type manifestPage struct {
	ID            string `json:"id"`
	Image         string `json:"image"`
	GeneratedText string `json:"generatedText"`
}

type manifest struct {
	ID    string         `json:"id"`
	Title string         `json:"title"`
	Pages []manifestPage `json:"pages"`
}

// BookPublisher は完成した絵本を画像・マニフェスト・フリップブック HTML として書き出します。
type BookPublisher struct {
	writer   OutputWriter
	sanitize *bluemonday.Policy
}

// NewBookPublisher は書き出し先を指定して BookPublisher を生成します。
func NewBookPublisher(writer OutputWriter) *BookPublisher {
	if writer == nil {
		writer = LocalWriter{}
	}
	return &BookPublisher{
		writer:   writer,
		sanitize: bluemonday.StrictPolicy(),
	}
}

// Publish は画像の保存、マニフェストの構築、HTML 生成を一括して実行します。
func (p *BookPublisher) Publish(ctx context.Context, book domain.Book, opts Options) (PublishResult, error) {
	result := PublishResult{}
	if len(book.Pages) == 0 {
		return result, fmt.Errorf("絵本にページがありません")
	}
	title := book.Title
	if opts.Title != "" {
		title = opts.Title
	}
	if title == "" {
		title = defaultTitle
	}
	lang := opts.Lang
	if lang == "" {
		lang = "en"
	}

	// 1. 画像の保存
	views := make([]pageView, 0, len(book.Pages))
	pages := make([]manifestPage, 0, len(book.Pages))
	for i, page := range book.Pages {
		mediaType, data, err := domain.ParseDataURI(page.ImageURL)
		if err != nil {
			return result, fmt.Errorf("第 %d ページの画像を解釈できません: %w", i+1, err)
		}
		imgPath, err := asset.PageImagePath(opts.OutputDir, i+1, asset.ExtensionForMediaType(mediaType))
		if err != nil {
			return result, fmt.Errorf("第 %d ページの出力パス生成に失敗しました: %w", i+1, err)
		}

		slog.InfoContext(ctx, "ページ画像を保存しています", "index", i+1, "path", imgPath)
		if err := p.writer.Write(ctx, imgPath, bytes.NewReader(data), mediaType); err != nil {
			return result, fmt.Errorf("第 %d ページの保存に失敗しました (path: %s): %w", i+1, imgPath, err)
		}
		result.ImagePaths = append(result.ImagePaths, imgPath)

		relPath := path.Join(asset.DefaultImageDir, filepath.Base(imgPath))
		// StrictPolicy はタグをすべて除去しエスケープ済みの文字列を返すため、そのまま埋め込みます。
		text := template.HTML(p.sanitize.Sanitize(page.GeneratedText))
		views = append(views, pageView{ID: page.ID, Number: i + 1, ImagePath: relPath, Text: text})
		pages = append(pages, manifestPage{ID: page.ID, Image: relPath, GeneratedText: page.GeneratedText})
	}

	// 2. マニフェストの書き出し
	manifestPath, err := asset.ResolveOutputPath(opts.OutputDir, asset.DefaultBookJSON)
	if err != nil {
		return result, err
	}
	body, err := json.MarshalIndent(manifest{ID: book.ID, Title: title, Pages: pages}, "", "  ")
	if err != nil {
		return result, fmt.Errorf("マニフェストの生成に失敗しました: %w", err)
	}
	if err := p.writer.Write(ctx, manifestPath, bytes.NewReader(body), "application/json"); err != nil {
		return result, fmt.Errorf("マニフェストの書き込みに失敗しました: %w", err)
	}
	result.ManifestPath = manifestPath

	// 3. HTML の書き出し
	htmlPath, err := asset.ResolveOutputPath(opts.OutputDir, asset.DefaultBookHTML)
	if err != nil {
		return result, err
	}
	var buf bytes.Buffer
	if err := bookTemplate.Execute(&buf, struct {
		Title string
		Lang  string
		Pages []pageView
	}{Title: title, Lang: lang, Pages: views}); err != nil {
		return result, fmt.Errorf("HTMLの生成に失敗しました: %w", err)
	}
	if err := p.writer.Write(ctx, htmlPath, &buf, "text/html; charset=utf-8"); err != nil {
		return result, fmt.Errorf("HTMLの書き込みに失敗しました: %w", err)
	}
	result.HTMLPath = htmlPath

	slog.InfoContext(ctx, "Book published", "html", htmlPath, "pages", len(book.Pages))
	return result, nil
}
