package generator

import (
	"context"

	"github.com/shouni/go-storybook-kit/pkg/domain"

	"github.com/shouni/gemini-image-kit/ports"
)

// Segmenter は、物語全体をページ単位のテキストに分割する責務を持ちます。
type Segmenter interface {
	Segment(ctx context.Context, story string) ([]string, error)
}

// Illustrator は、1ページ分のテキストと全キャラクター画像からイラストを1枚生成する責務を持ちます。
type Illustrator interface {
	Illustrate(ctx context.Context, pageText string, characters []domain.EncodedImage) (*ports.ImageResponse, error)
}
