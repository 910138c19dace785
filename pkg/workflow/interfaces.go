package workflow

import (
	"context"

	"github.com/shouni/go-storybook-kit/pkg/domain"
)

// BookGenerator は、物語とキャラクター画像から絵本のページ列を組み立てる責務を持ちます。
type BookGenerator interface {
	Generate(ctx context.Context, story string, characters []domain.CharacterImage, progress domain.ProgressSink) ([]domain.BookPage, error)
}

// CharacterEncoder は、キャラクター画像をまとめてエンコードする責務を持ちます。
type CharacterEncoder interface {
	EncodeAll(ctx context.Context, images []domain.CharacterImage) ([]domain.EncodedImage, error)
}
