package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/shouni/go-storybook-kit/internal/builder"
	"github.com/shouni/go-storybook-kit/internal/config"
	"github.com/shouni/go-storybook-kit/internal/server"

	"github.com/spf13/cobra"
)

const (
	shutdownTimeout = 10 * time.Second
)

// serveCmd は、絵本生成を HTTP API として公開するのだ。
var serveCmd = &cobra.Command{
	Use:     "serve",
	Short:   "絵本生成の HTTP サーバーを起動するのだ。",
	Example: "  storybook-go serve --addr :8080",
	RunE:    serveCommand,
}

func init() {
	serveCmd.Flags().StringVar(&opts.ListenAddr, "addr", config.DefaultListenAddr, "待ち受けるアドレスなのだ。")
	serveCmd.Flags().Int64Var(&opts.MaxUploadMB, "max-upload-mb", config.DefaultMaxUploadMB, "アップロード全体の上限サイズ（MB）なのだ。")
}

func serveCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := loadConfig()

	appCtx, err := builder.BuildAppContext(ctx, cfg)
	if err != nil {
		return err
	}

	srv := server.New(appCtx.Generator, server.WithMaxUploadBytes(opts.MaxUploadMB<<20))
	httpServer := &http.Server{
		Addr:              opts.ListenAddr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("絵本サーバーを起動したのだ", "addr", opts.ListenAddr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("サーバーが停止したのだ: %w", err)
	case <-ctx.Done():
	}

	slog.Info("サーバーを停止するのだ")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
