package workflow

import (
	"fmt"

	"github.com/shouni/go-storybook-kit/pkg/asset"
	"github.com/shouni/go-storybook-kit/pkg/config"
	"github.com/shouni/go-storybook-kit/pkg/gemini"
	"github.com/shouni/go-storybook-kit/pkg/generator"
	"github.com/shouni/go-storybook-kit/pkg/prompts"

	"github.com/patrickmn/go-cache"
)

// Builder はワークフローの各部品を組み立てます。
type Builder struct {
	cfg      config.Config
	aiClient gemini.GenerativeModel
	encoder  *asset.Encoder
	prompts  prompts.PromptBuilder
}

// NewBuilder は Config と Gemini クライアントを基に新しい Builder を作成します。
// imgCache が nil の場合はエンコーダーが既定のキャッシュを作成します。
func NewBuilder(cfg config.Config, aiClient gemini.GenerativeModel, imgCache *cache.Cache) (*Builder, error) {
	if aiClient == nil {
		return nil, fmt.Errorf("aiClient は必須です")
	}
	pb, err := prompts.NewTextPromptBuilder()
	if err != nil {
		return nil, fmt.Errorf("プロンプトビルダーの初期化に失敗しました: %w", err)
	}
	return &Builder{
		cfg:      cfg.WithDefaults(),
		aiClient: aiClient,
		encoder:  asset.NewEncoder(imgCache),
		prompts:  pb,
	}, nil
}

// BuildSegmenter はストーリー分割を担当する部品を作成します。
func (b *Builder) BuildSegmenter() (*generator.StorySegmenter, error) {
	return generator.NewStorySegmenter(b.cfg, b.aiClient, b.prompts)
}

// BuildIllustrator はイラスト生成を担当する部品を作成します。
func (b *Builder) BuildIllustrator() (*generator.IllustrationGenerator, error) {
	return generator.NewIllustrationGenerator(b.cfg, b.aiClient, b.prompts)
}

// BuildBookPipeline は絵本生成パイプライン全体を作成します。
func (b *Builder) BuildBookPipeline() (*BookPipeline, error) {
	seg, err := b.BuildSegmenter()
	if err != nil {
		return nil, fmt.Errorf("Segmenter の構築に失敗しました: %w", err)
	}
	ill, err := b.BuildIllustrator()
	if err != nil {
		return nil, fmt.Errorf("Illustrator の構築に失敗しました: %w", err)
	}
	return NewBookPipeline(b.encoder, seg, ill, WithRateInterval(b.cfg.RateInterval)), nil
}
