package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/shouni/go-storybook-kit/internal/config"
	"github.com/shouni/go-storybook-kit/internal/pipeline"

	"github.com/spf13/cobra"
)

// generateCmd は、物語の分割からイラスト生成、絵本の書き出しまでを実行するのだ。
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "物語とキャラクター画像から絵本を生成しますなのだ。",
	Long: `物語を5〜7ページに分割し、ページごとにキャラクターを登場させたイラストを生成するのだ。
出力はページ画像、book.json、めくって読める index.html になるのだよ。`,
	Example: "  storybook-go generate -f story.txt -c fox.png -c owl.jpg -o output/book",
	RunE:    generateCommand,
}

func init() {
	generateCmd.Flags().StringSliceVarP(&opts.CharacterImages, "char", "c", nil, "キャラクターの参照画像（JPEG/PNG/WebP）。複数指定できるのだ。")
	generateCmd.Flags().StringVarP(&opts.OutputDir, "output-dir", "o", config.DefaultOutputDir, "絵本を書き出すディレクトリなのだ。")
	generateCmd.Flags().StringVarP(&opts.Title, "title", "t", "", "絵本のタイトルなのだ。")
}

func generateCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	// 1. 必須チェック
	if opts.StoryFile == "" && opts.StoryText == "" && !isStdin() {
		return fmt.Errorf("物語（--story-file、--sample または標準入力）を指定してほしいのだ")
	}
	if len(opts.CharacterImages) == 0 {
		return fmt.Errorf("キャラクター画像（--char）を1枚以上指定してほしいのだ")
	}

	// 2. 環境変数等から基本設定をロードするのだ
	cfg := loadConfig()
	kc := cfg.KitConfig()

	slog.Info("絵本生成パイプラインを起動するのだ！",
		"text_model", kc.GeminiModel,
		"image_model", kc.ImageModel,
		"characters", len(opts.CharacterImages),
		"output", opts.OutputDir)

	if err := pipeline.Execute(ctx, cfg); err != nil {
		return fmt.Errorf("パイプライン実行中にエラーが発生したのだ: %w", err)
	}

	slog.Info("すべての生成工程が完了したのだ！")
	return nil
}

func isStdin() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}
