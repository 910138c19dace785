package cmd

import (
	"fmt"
	"log/slog"

	"github.com/shouni/go-storybook-kit/internal/config"
	"github.com/shouni/go-storybook-kit/internal/pipeline"

	"github.com/spf13/cobra"
)

// segmentCmd は、イラストを作らずに物語のページ分割だけを試すのだ。
var segmentCmd = &cobra.Command{
	Use:     "segment",
	Short:   "物語をページに分割した結果だけを JSON で保存するのだ。",
	Example: "  storybook-go segment -f story.txt -p output/pages.json",
	RunE:    segmentCommand,
}

func init() {
	segmentCmd.Flags().StringVarP(&opts.PagesFile, "pages-file", "p", config.DefaultPagesFile, "分割結果の保存先なのだ。")
}

func segmentCommand(cmd *cobra.Command, args []string) error {
	if opts.StoryFile == "" && opts.StoryText == "" && !isStdin() {
		return fmt.Errorf("物語（--story-file、--sample または標準入力）を指定してほしいのだ")
	}

	cfg := loadConfig()
	slog.Info("物語の分割だけを実行するのだ", "model", cfg.KitConfig().GeminiModel, "output", opts.PagesFile)

	if err := pipeline.ExecuteSegmentOnly(cmd.Context(), cfg); err != nil {
		return fmt.Errorf("物語の分割中にエラーが発生したのだ: %w", err)
	}
	return nil
}
