package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/shouni/go-storybook-kit/examples"
	"github.com/shouni/go-storybook-kit/internal/config"

	"github.com/spf13/cobra"
)

const appName = "storybook-go"

// opts は各サブコマンドで共有する実行時オプションなのだ。
var opts config.GenerateOptions

// useSample が true なら物語ファイルの代わりに同梱のサンプルを使うのだ。
var useSample bool

var rootCmd = &cobra.Command{
	Use:   appName,
	Short: "物語とキャラクター画像から、挿絵入りの絵本を作るのだ。",
	Long: `物語の文章とキャラクターの参照画像を Gemini に渡して、
5〜7ページに分割された挿絵付きの絵本（画像、book.json、index.html）を生成するのだ。`,
	SilenceUsage:      true,
	PersistentPreRunE: preRunAppE,
}

func init() {
	addAppFlags(rootCmd)
	rootCmd.AddCommand(generateCmd, segmentCmd, serveCmd)
}

// addAppFlags は、アプリケーション全般に適用されるグローバルフラグを定義するのだ。
func addAppFlags(rootCmd *cobra.Command) {
	// --- ソース入力関連 ---
	rootCmd.PersistentFlags().StringVarP(&opts.StoryFile, "story-file", "f", "", "物語ファイルのパス（'-'で標準入力なのだ）。")
	rootCmd.PersistentFlags().BoolVar(&useSample, "sample", false, "同梱のサンプル物語（きつねのフェリックス）を使うのだ。")

	// --- AIモデル・挙動設定 ---
	rootCmd.PersistentFlags().StringVar(&opts.AIModel, "model", "", "ストーリー分割に使う Gemini モデル名なのだ（未指定なら GEMINI_MODEL）。")
	rootCmd.PersistentFlags().StringVar(&opts.ImageModel, "image-model", "", "イラスト生成に使う Gemini モデル名なのだ（未指定なら IMAGE_GEMINI_MODEL）。")
	rootCmd.PersistentFlags().DurationVar(&opts.HTTPTimeout, "http-timeout", config.DefaultHTTPTimeout, "Gemini へのリクエスト1回あたりのタイムアウトなのだ（0で無制限）。")
	rootCmd.PersistentFlags().DurationVar(&opts.RateInterval, "rate-interval", config.DefaultRateInterval, "イラスト生成リクエストの最小間隔なのだ（0で制限なし）。")

	// --- 実行制御 ---
	rootCmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "デバッグログを出力するのだ。")
}

// preRunAppE は、コマンド実行前にロガーの設定と環境変数の必須チェックを行うのだ。
func preRunAppE(cmd *cobra.Command, args []string) error {
	setupLogger(opts.Verbose)
	if useSample {
		opts.StoryText = examples.SampleStory()
	}

	// Gemini APIを利用するため、APIキーの存在チェックは欠かせないのだ！
	if os.Getenv("GEMINI_API_KEY") == "" {
		return fmt.Errorf("エラー: GEMINI_API_KEY environment variable is not set. Gemini APIの利用には必須なのだ")
	}
	return nil
}

func setupLogger(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// loadConfig は環境変数の設定に CLI フラグの値を重ねるのだ。
func loadConfig() *config.Config {
	cfg := config.LoadConfig()
	cfg.Options = opts
	return cfg
}

// Execute は、アプリケーションのメインエントリポイントなのだ。
// main.go から呼び出されて、cobra のコマンドライン解析を開始するのだよ。
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		slog.Error("コマンドの実行に失敗したのだ", "error", err)
		stop()
		os.Exit(1)
	}
}
