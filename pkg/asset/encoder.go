package asset

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/shouni/go-storybook-kit/pkg/domain"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const (
	defaultCacheExpiration = 30 * time.Minute
	cacheCleanupInterval   = 1 * time.Hour
	encodingFailedMessage  = "Failed to prepare the character art."
)

// Encoder はキャラクター画像を読み込み、リクエストに埋め込める形へ変換します。
// 中身を読まずに識別できる読み出し元 (domain.Fingerprinter) はキャッシュし、
// 同じファイルの再読み込みを省きます。
type Encoder struct {
	cache    *cache.Cache
	inflight singleflight.Group
}

// NewEncoder はキャッシュ付きの Encoder を生成します。c が nil の場合はデフォルトのキャッシュを作成します。
func NewEncoder(c *cache.Cache) *Encoder {
	if c == nil {
		c = cache.New(defaultCacheExpiration, cacheCleanupInterval)
	}
	return &Encoder{cache: c}
}

// Encode は1枚の画像を読み込み EncodedImage を返します。
// 読み込みに失敗した場合は domain.ErrEncodingFailed で失敗します。
func (e *Encoder) Encode(ctx context.Context, img domain.CharacterImage) (domain.EncodedImage, error) {
	if err := ctx.Err(); err != nil {
		return domain.EncodedImage{}, domain.NewStageError(domain.ErrEncodingFailed, encodingFailedMessage, err)
	}
	if img.Source == nil {
		return domain.EncodedImage{}, domain.NewStageError(domain.ErrEncodingFailed, encodingFailedMessage,
			fmt.Errorf("character image %q has no source", img.Name))
	}
	if img.MediaType == "" {
		return domain.EncodedImage{}, domain.NewStageError(domain.ErrEncodingFailed, encodingFailedMessage,
			fmt.Errorf("character image %q has no media type", img.Name))
	}

	key, ok := e.cacheKey(img)
	if !ok {
		return e.load(img)
	}

	if cached, found := e.cache.Get(key); found {
		if enc, ok := cached.(domain.EncodedImage); ok {
			slog.DebugContext(ctx, "Character image cache hit", "name", img.Name)
			enc.Name = img.Name
			return enc, nil
		}
	}

	// 同じファイルが同時に渡された場合も読み込みは1回です。
	v, err, _ := e.inflight.Do(key, func() (any, error) {
		if cached, found := e.cache.Get(key); found {
			return cached, nil
		}
		enc, err := e.load(img)
		if err != nil {
			return nil, err
		}
		e.cache.SetDefault(key, enc)
		return enc, nil
	})
	if err != nil {
		return domain.EncodedImage{}, err
	}
	enc, ok := v.(domain.EncodedImage)
	if !ok {
		return e.load(img)
	}
	enc.Name = img.Name
	return enc, nil
}

// load は読み出し元からデータを読み込みます。キャッシュは見ません。
func (e *Encoder) load(img domain.CharacterImage) (domain.EncodedImage, error) {
	data, err := readAll(img.Source)
	if err != nil {
		return domain.EncodedImage{}, domain.NewStageError(domain.ErrEncodingFailed, encodingFailedMessage,
			fmt.Errorf("%s の読み込みに失敗しました: %w", img.Name, err))
	}
	if len(data) == 0 {
		return domain.EncodedImage{}, domain.NewStageError(domain.ErrEncodingFailed, encodingFailedMessage,
			fmt.Errorf("character image %q is empty", img.Name))
	}
	return domain.EncodedImage{
		Name:      img.Name,
		MediaType: img.MediaType,
		Data:      data,
	}, nil
}

// cacheKey は読み出し元が識別子を持つ場合にキャッシュキーを返します。
// 識別子を取れない場合 (メモリ上のデータ、stat の失敗) はキャッシュしません。
func (e *Encoder) cacheKey(img domain.CharacterImage) (string, bool) {
	fp, ok := img.Source.(domain.Fingerprinter)
	if !ok {
		return "", false
	}
	id, err := fp.Fingerprint()
	if err != nil {
		return "", false
	}
	return img.MediaType + "|" + id, true
}

// EncodeAll はすべての画像を並列にエンコードします。
// 結果の順序は入力と同じで、1枚でも失敗すれば全体が失敗します。
func (e *Encoder) EncodeAll(ctx context.Context, images []domain.CharacterImage) ([]domain.EncodedImage, error) {
	encoded := make([]domain.EncodedImage, len(images))
	// 失敗時も残りの読み込みは最後まで実行させるため、WithContext は使いません。
	var eg errgroup.Group

	for i, img := range images {
		eg.Go(func() error {
			enc, err := e.Encode(ctx, img)
			if err != nil {
				return err
			}
			encoded[i] = enc
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return encoded, nil
}

func readAll(src domain.ImageSource) ([]byte, error) {
	rc, err := src.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
