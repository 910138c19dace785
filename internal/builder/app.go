package builder

import (
	"github.com/shouni/go-storybook-kit/internal/config"
	"github.com/shouni/go-storybook-kit/pkg/gemini"
	"github.com/shouni/go-storybook-kit/pkg/publisher"
	"github.com/shouni/go-storybook-kit/pkg/workflow"
)

// AppContext は、アプリケーション実行に必要な共通コンテキストを保持する
// これを各Build関数に渡すことで、依存関係の注入を簡素化します。
type AppContext struct {
	Config    *config.Config         // Configは、環境変数から読み込まれたグローバルな設定です（APIキー、モデル名など）。
	Options   config.GenerateOptions // Optionsは、コマンドラインから渡された実行時の設定です（入力、出力先など）。
	Writer    publisher.OutputWriter // Writerは、生成された絵本を保存するための出力先です。
	Generator workflow.BookGenerator // Generatorは、エンコード・分割・イラスト生成をまとめた絵本生成パイプラインです。
	aiClient  gemini.GenerativeModel // aiClient はGeminiの通信に使う共通クライアント
}

// NewAppContext は AppContext の新しいインスタンスを生成する
func NewAppContext(
	cfg *config.Config,
	aiClient gemini.GenerativeModel,
	writer publisher.OutputWriter,
	generator workflow.BookGenerator,
) AppContext {
	return AppContext{
		Config:    cfg,
		Options:   cfg.Options,
		aiClient:  aiClient,
		Writer:    writer,
		Generator: generator,
	}
}

// AIClient は共有している Gemini クライアントを返します。
func (a *AppContext) AIClient() gemini.GenerativeModel {
	return a.aiClient
}
