// Package server は絵本生成を HTTP で提供するのだ。
package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/shouni/go-storybook-kit/internal/metrics"
	"github.com/shouni/go-storybook-kit/pkg/domain"
	"github.com/shouni/go-storybook-kit/pkg/progress"
	"github.com/shouni/go-storybook-kit/pkg/workflow"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	defaultMaxUploadBytes = 32 << 20
	formStory             = "story"
	formCharacters        = "characters"
	formTitle             = "title"
)

// Server は絵本生成の HTTP ハンドラーをまとめたものなのだ。
type Server struct {
	generator      workflow.BookGenerator
	maxUploadBytes int64
	logger         *slog.Logger
}

// Option は Server の設定を変更するのだ。
type Option func(*Server)

// WithMaxUploadBytes はアップロード全体の上限サイズを設定するのだ。
func WithMaxUploadBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxUploadBytes = n
		}
	}
}

// WithLogger はログの出力先を設定するのだ。
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New は Server を生成するのだ。
func New(generator workflow.BookGenerator, opts ...Option) *Server {
	s := &Server{
		generator:      generator,
		maxUploadBytes: defaultMaxUploadBytes,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// BookResponse は POST /api/books の成功時の応答なのだ。
type BookResponse struct {
	ID       string            `json:"id"`
	Title    string            `json:"title,omitempty"`
	Pages    []domain.BookPage `json:"pages"`
	Progress []string          `json:"progress"`
}

// ErrorResponse は失敗時の応答なのだ。error は利用者向けの固定文なのだ。
type ErrorResponse struct {
	Error    string   `json:"error"`
	Kind     string   `json:"kind"`
	Progress []string `json:"progress,omitempty"`
}

// Handler はルーティング済みの http.Handler を返すのだ。
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("POST /api/books", s.instrument("/api/books", http.HandlerFunc(s.createBook)))
	mux.Handle("GET /healthz", s.instrument("/healthz", http.HandlerFunc(s.health)))
	mux.Handle("GET /metrics", promhttp.Handler())
	return mux
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) createBook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)

	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		s.logger.WarnContext(ctx, "マルチパートの解析に失敗したのだ", "error", err)
		s.writeError(w, domain.NewStageError(domain.ErrInvalidInput, "Could not read the uploaded form.", err), nil)
		return
	}
	defer r.MultipartForm.RemoveAll()

	story := r.FormValue(formStory)
	title := r.FormValue(formTitle)
	characters, err := readCharacters(r.MultipartForm.File[formCharacters])
	if err != nil {
		s.writeError(w, err, nil)
		return
	}

	rec := &progress.Recorder{}
	sink := progress.Multi(rec, progress.NewLogSink(s.logger))

	start := time.Now()
	pages, err := s.generator.Generate(ctx, story, characters, sink)
	metrics.BookDuration.Observe(time.Since(start).Seconds())
	metrics.BooksTotal.WithLabelValues(domain.KindLabel(err)).Inc()
	if err != nil {
		s.logger.ErrorContext(ctx, "絵本の生成に失敗したのだ", "kind", domain.KindLabel(err), "error", err)
		s.writeError(w, err, rec.Messages())
		return
	}
	metrics.BookPages.Observe(float64(len(pages)))

	writeJSON(w, http.StatusOK, BookResponse{
		ID:       uuid.NewString(),
		Title:    title,
		Pages:    pages,
		Progress: rec.Messages(),
	})
}

// readCharacters はアップロードされた画像を読み込み、形式を確認するのだ。
// Content-Type が無い場合は中身から判定するのだよ。
func readCharacters(headers []*multipart.FileHeader) ([]domain.CharacterImage, error) {
	characters := make([]domain.CharacterImage, 0, len(headers))
	for _, h := range headers {
		data, err := readPart(h)
		if err != nil {
			return nil, domain.NewStageError(domain.ErrInvalidInput, "Could not read the uploaded form.", err)
		}
		mediaType := h.Header.Get("Content-Type")
		if mediaType == "" || mediaType == "application/octet-stream" {
			mediaType = http.DetectContentType(data)
		}
		if mt, _, err := mime.ParseMediaType(mediaType); err == nil {
			mediaType = mt
		}
		if !domain.IsAcceptedMediaType(mediaType) {
			return nil, domain.NewStageError(domain.ErrInvalidInput,
				"Unsupported character image type. Please use JPEG, PNG or WebP.",
				fmt.Errorf("file %s has type %s", h.Filename, mediaType))
		}
		characters = append(characters, domain.CharacterImage{
			Name:      h.Filename,
			MediaType: mediaType,
			Source:    domain.BytesSource(data),
		})
	}
	return characters, nil
}

func readPart(h *multipart.FileHeader) ([]byte, error) {
	f, err := h.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// statusFor はエラーの種別を HTTP ステータスに対応付けるのだ。
func statusFor(err error) int {
	switch domain.KindOf(err) {
	case domain.ErrInvalidInput:
		return http.StatusBadRequest
	case domain.ErrEncodingFailed:
		return http.StatusUnprocessableEntity
	case domain.ErrSegmentationFormatInvalid, domain.ErrSegmentationTransportFailed,
		domain.ErrIllustrationMissing, domain.ErrIllustrationTransportFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error, progressLog []string) {
	message := "Something went wrong while creating your book."
	var se *domain.StageError
	if errors.As(err, &se) {
		message = se.Message
	}
	writeJSON(w, statusFor(err), ErrorResponse{
		Error:    message,
		Kind:     domain.KindLabel(err),
		Progress: progressLog,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// statusRecorder は書き込まれたステータスコードを覚えておくのだ。
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// instrument はリクエスト数と処理時間を記録するのだ。
func (s *Server) instrument(path string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		metrics.HTTPRequestDuration.WithLabelValues(path).Observe(time.Since(start).Seconds())
		metrics.HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(rec.status)).Inc()
		s.logger.DebugContext(r.Context(), "http request", "method", r.Method, "path", path, "status", rec.status)
	})
}
