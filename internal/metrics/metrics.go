// Package metrics は Prometheus のメトリクスを定義するのだ。
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storybook_http_requests_total",
		Help: "Total number of HTTP requests to the storybook server",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "storybook_http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"path"})

	// BooksTotal は絵本生成の結果ごとの件数なのだ。outcome は domain.KindLabel の値なのだ。
	BooksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storybook_books_total",
		Help: "Total number of book generation runs by outcome",
	}, []string{"outcome"})

	BookDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "storybook_book_duration_seconds",
		Help:    "Duration of a full book generation in seconds",
		Buckets: []float64{5, 10, 20, 30, 60, 90, 120, 180, 300},
	})

	BookPages = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "storybook_book_pages",
		Help:    "Number of pages in generated books",
		Buckets: prometheus.LinearBuckets(1, 1, 10),
	})
)
