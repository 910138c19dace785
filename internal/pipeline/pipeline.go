package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/shouni/go-storybook-kit/internal/builder"
	"github.com/shouni/go-storybook-kit/internal/config"
	"github.com/shouni/go-storybook-kit/pkg/domain"
	"github.com/shouni/go-storybook-kit/pkg/generator"
	"github.com/shouni/go-storybook-kit/pkg/progress"
	"github.com/shouni/go-storybook-kit/pkg/publisher"

	"github.com/google/uuid"
)

// Execute は、物語の読み込みから絵本の書き出しまでを一括で実行するのだ。
func Execute(ctx context.Context, cfg *config.Config) error {
	appCtx, err := builder.BuildAppContext(ctx, cfg)
	if err != nil {
		return err
	}

	bar := progress.NewBarSink(os.Stderr)
	defer bar.Finish()

	_, err = Generate(ctx, appCtx, os.Stdin, bar)
	return err
}

// Generate は AppContext に組み込まれたパイプラインで絵本を生成し、出力先に書き出すのだ。
// 生成に失敗した場合は何も書き出さないのだよ。
func Generate(ctx context.Context, appCtx *builder.AppContext, stdin io.Reader, sink domain.ProgressSink) (publisher.PublishResult, error) {
	opts := appCtx.Options

	story, err := readStory(opts, stdin)
	if err != nil {
		return publisher.PublishResult{}, err
	}
	characters, err := loadCharacters(opts.CharacterImages)
	if err != nil {
		return publisher.PublishResult{}, err
	}

	slog.InfoContext(ctx, "絵本の生成を開始するのだ！", "characters", len(characters), "story_chars", len([]rune(story)))

	pages, err := appCtx.Generator.Generate(ctx, story, characters, progress.Multi(sink, progress.NewLogSink(nil)))
	if err != nil {
		return publisher.PublishResult{}, fmt.Errorf("絵本の生成に失敗したのだ: %w", err)
	}

	book := domain.Book{
		ID:    uuid.NewString(),
		Title: opts.Title,
		Pages: pages,
	}
	result, err := builder.BuildPublisher(appCtx).Publish(ctx, book, publisher.Options{
		OutputDir: outputDir(opts),
		Title:     opts.Title,
	})
	if err != nil {
		return result, fmt.Errorf("絵本の書き出しに失敗したのだ: %w", err)
	}

	slog.InfoContext(ctx, "絵本が完成したのだ！", "book_id", book.ID, "html", result.HTMLPath, "pages", len(pages))
	return result, nil
}

// ExecuteSegmentOnly は、物語をページ単位に分割した結果だけを JSON で保存するのだ。
// イラスト生成は行わないので、分割結果の確認に使えるのだよ。
func ExecuteSegmentOnly(ctx context.Context, cfg *config.Config) error {
	seg, err := builder.BuildSegmenter(ctx, cfg)
	if err != nil {
		return err
	}
	_, err = Segment(ctx, seg, cfg.Options, os.Stdin, publisher.LocalWriter{})
	return err
}

// Segment は物語を分割して、ページ文字列の配列を opts.PagesFile に書き出すのだ。
func Segment(ctx context.Context, seg generator.Segmenter, opts config.GenerateOptions, stdin io.Reader, writer publisher.OutputWriter) ([]string, error) {
	story, err := readStory(opts, stdin)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(story) == "" {
		return nil, domain.NewStageError(domain.ErrInvalidInput, "story is empty", nil)
	}

	pages, err := seg.Segment(ctx, story)
	if err != nil {
		return nil, fmt.Errorf("物語の分割に失敗したのだ: %w", err)
	}

	body, err := json.MarshalIndent(struct {
		Pages []string `json:"pages"`
	}{Pages: pages}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("分割結果のJSON変換に失敗したのだ: %w", err)
	}

	pagesFile := opts.PagesFile
	if pagesFile == "" {
		pagesFile = config.DefaultPagesFile
	}
	if err := writer.Write(ctx, pagesFile, bytes.NewReader(body), "application/json"); err != nil {
		return nil, fmt.Errorf("分割結果の保存に失敗したのだ: %w", err)
	}

	slog.InfoContext(ctx, "物語の分割が完了したのだ", "pages", len(pages), "path", pagesFile)
	return pages, nil
}

// readStory は物語のテキストを読み込むのだ。StoryText があればそれを優先し、
// '-' または空指定なら標準入力から読むのだよ。
func readStory(opts config.GenerateOptions, stdin io.Reader) (string, error) {
	if opts.StoryText != "" {
		return opts.StoryText, nil
	}
	storyFile := opts.StoryFile
	if storyFile == "" || storyFile == "-" {
		if stdin == nil {
			return "", domain.NewStageError(domain.ErrInvalidInput, "story is empty", nil)
		}
		b, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("標準入力の読み込みに失敗したのだ: %w", err)
		}
		return string(b), nil
	}
	b, err := os.ReadFile(storyFile)
	if err != nil {
		return "", fmt.Errorf("物語ファイルの読み込みに失敗したのだ (path: %s): %w", storyFile, err)
	}
	return string(b), nil
}

// loadCharacters はパスの一覧からキャラクター画像を作るのだ。対応していない形式はここで弾くのだ。
func loadCharacters(paths []string) ([]domain.CharacterImage, error) {
	characters := make([]domain.CharacterImage, 0, len(paths))
	for _, p := range paths {
		img, err := domain.NewFileCharacterImage(p)
		if err != nil {
			return nil, err
		}
		characters = append(characters, img)
	}
	return characters, nil
}

func outputDir(opts config.GenerateOptions) string {
	if opts.OutputDir == "" {
		return config.DefaultOutputDir
	}
	return opts.OutputDir
}
