package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shouni/go-storybook-kit/pkg/domain"
	"github.com/shouni/go-storybook-kit/pkg/generator"

	"golang.org/x/time/rate"
)

// 進捗メッセージ
const (
	progressPreparing  = "Preparing your character art..."
	progressSplitting  = "Splitting your story into pages..."
	progressIllustrate = "Generating illustration for page %d of %d..."
	progressAssembling = "Assembling your book..."
)

// BookPipeline は エンコード → ストーリー分割 → ページごとのイラスト生成 を順に実行します。
// 実行ごとの状態は持たないため、複数のゴルーチンから同時に使えます。
type BookPipeline struct {
	encoder     CharacterEncoder
	segmenter   generator.Segmenter
	illustrator generator.Illustrator
	interval    time.Duration
	now         func() time.Time
}

// Option は BookPipeline の任意設定です。
type Option func(*BookPipeline)

// WithRateInterval はイラスト生成リクエストの最小間隔を設定します。0 なら制限しません。
func WithRateInterval(d time.Duration) Option {
	return func(p *BookPipeline) { p.interval = d }
}

// WithClock はページIDの生成に使う時計を差し替えます。
func WithClock(now func() time.Time) Option {
	return func(p *BookPipeline) { p.now = now }
}

// NewBookPipeline は依存関係を注入して BookPipeline を初期化します。
func NewBookPipeline(enc CharacterEncoder, seg generator.Segmenter, ill generator.Illustrator, opts ...Option) *BookPipeline {
	p := &BookPipeline{
		encoder:     enc,
		segmenter:   seg,
		illustrator: ill,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Generate は絵本を1冊生成します。最初の失敗で全体を中断し、途中までのページは返しません。
func (p *BookPipeline) Generate(ctx context.Context, story string, characters []domain.CharacterImage, progress domain.ProgressSink) ([]domain.BookPage, error) {
	if progress == nil {
		progress = domain.NopProgress
	}

	// 1. キャラクター画像のエンコード (並列)
	progress.Report(progressPreparing)
	encoded, err := p.encoder.EncodeAll(ctx, characters)
	if err != nil {
		return nil, err
	}

	// 2. 入力の検証。分割を呼ぶ前に必ず弾きます。
	if strings.TrimSpace(story) == "" {
		return nil, domain.NewStageError(domain.ErrInvalidInput, "Please write a story before generating the book.", nil)
	}
	if len(encoded) == 0 {
		return nil, domain.NewStageError(domain.ErrInvalidInput, "Please upload at least one character image.", nil)
	}

	// 3. ストーリー分割 (1回のみ)
	progress.Report(progressSplitting)
	pageTexts, err := p.segmenter.Segment(ctx, story)
	if err != nil {
		return nil, err
	}

	// 4. イラスト生成 (ページ順に1枚ずつ)
	var limiter *rate.Limiter
	if p.interval > 0 {
		limiter = rate.NewLimiter(rate.Every(p.interval), 1)
	}

	stamp := p.now()
	pages := make([]domain.BookPage, 0, len(pageTexts))
	for i, text := range pageTexts {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return nil, fmt.Errorf("リミッター待機中にエラーが発生しました: %w", err)
			}
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		progress.Report(fmt.Sprintf(progressIllustrate, i+1, len(pageTexts)))
		img, err := p.illustrator.Illustrate(ctx, text, encoded)
		if err != nil {
			slog.ErrorContext(ctx, "Page illustration failed", "page", i+1, "total", len(pageTexts), "error", err)
			return nil, err
		}

		pages = append(pages, domain.BookPage{
			ID:            domain.NewPageID(stamp, i),
			ImageURL:      generator.DataURI(img),
			GeneratedText: text,
		})
	}

	// 5. 完成
	progress.Report(progressAssembling)
	slog.InfoContext(ctx, "Book assembled", "page_count", len(pages), "character_count", len(encoded))
	return pages, nil
}
