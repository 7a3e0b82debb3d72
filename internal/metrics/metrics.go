// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// サービス層とミドルウェアから利用する。
type MetricsCollector interface {
	RecordLogin(provider string)
	RecordNoteCreated()
	RecordNoteUpdated()
	RecordNoteDeleted()
	RecordHTTPStatus(statusCode int)
	RecordRequestLatency(duration time.Duration)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	logins         *prometheus.CounterVec
	notesCreated   prometheus.Counter
	notesUpdated   prometheus.Counter
	notesDeleted   prometheus.Counter
	httpStatus     *prometheus.CounterVec
	requestLatency prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notedeck_logins_total",
			Help: "プロバイダー別のログイン成功数",
		}, []string{"provider"}),
		notesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "notedeck_notes_created_total",
			Help: "作成されたノートの合計数",
		}),
		notesUpdated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "notedeck_notes_updated_total",
			Help: "更新されたノートの合計数",
		}),
		notesDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "notedeck_notes_deleted_total",
			Help: "削除されたノートの合計数",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notedeck_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		requestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "notedeck_request_latency_seconds",
			Help:    "HTTPリクエストのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.logins,
		c.notesCreated,
		c.notesUpdated,
		c.notesDeleted,
		c.httpStatus,
		c.requestLatency,
	)

	return c
}

// RecordLogin はログイン成功をプロバイダー別に記録する。
func (c *Collector) RecordLogin(provider string) {
	c.logins.WithLabelValues(provider).Inc()
}

// RecordNoteCreated はノート作成を記録する。
func (c *Collector) RecordNoteCreated() {
	c.notesCreated.Inc()
}

// RecordNoteUpdated はノート更新を記録する。
func (c *Collector) RecordNoteUpdated() {
	c.notesUpdated.Inc()
}

// RecordNoteDeleted はノート削除を記録する。
func (c *Collector) RecordNoteDeleted() {
	c.notesDeleted.Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRequestLatency はリクエストのレイテンシを記録する。
func (c *Collector) RecordRequestLatency(duration time.Duration) {
	c.requestLatency.Observe(duration.Seconds())
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
