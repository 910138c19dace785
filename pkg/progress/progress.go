// Package progress は domain.ProgressSink の実装を提供します。
package progress

import (
	"io"
	"log/slog"
	"sync"

	"github.com/shouni/go-storybook-kit/pkg/domain"

	"github.com/schollz/progressbar/v3"
)

// LogSink は進捗メッセージを slog に流します。
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink は LogSink を生成します。logger が nil なら slog.Default() を使います。
func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

// Report はメッセージを Info レベルで記録します。
func (s *LogSink) Report(message string) {
	s.logger.Info("progress", "message", message)
}

// BarSink はターミナルにスピナーを表示し、進捗メッセージを説明文として差し替えます。
type BarSink struct {
	bar *progressbar.ProgressBar
}

// NewBarSink は w に描画する BarSink を生成します。
func NewBarSink(w io.Writer) *BarSink {
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetDescription("Starting..."),
		progressbar.OptionClearOnFinish(),
	)
	return &BarSink{bar: bar}
}

// Report は説明文を更新してスピナーを1つ進めます。
func (s *BarSink) Report(message string) {
	s.bar.Describe(message)
	_ = s.bar.Add(1)
}

// Finish はスピナーを停止します。
func (s *BarSink) Finish() {
	_ = s.bar.Finish()
}

// Recorder は受け取ったメッセージを順に保持します。HTTP 応答への添付に使います。
type Recorder struct {
	mu       sync.Mutex
	messages []string
}

// Report はメッセージを追加します。
func (r *Recorder) Report(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, message)
}

// Messages はこれまでのメッセージのコピーを返します。
func (r *Recorder) Messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.messages))
	copy(out, r.messages)
	return out
}

// Multi は複数の sink に同じメッセージを配ります。nil は無視します。
func Multi(sinks ...domain.ProgressSink) domain.ProgressSink {
	return domain.ProgressFunc(func(message string) {
		for _, s := range sinks {
			if s != nil {
				s.Report(message)
			}
		}
	})
}
