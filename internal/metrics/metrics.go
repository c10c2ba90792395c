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
	RecordClassification(label string)
	RecordInferenceLatency(duration time.Duration)
	RecordUploadRejected(reason string)
	RecordHTTPStatus(statusCode int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	classifications  *prometheus.CounterVec
	inferenceLatency prometheus.Histogram
	uploadRejected   *prometheus.CounterVec
	httpStatus       *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		classifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "deepscan_classification_total",
			Help: "判定結果ラベル別の分類実行数",
		}, []string{"label"}),
		inferenceLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "deepscan_inference_latency_seconds",
			Help:    "推論サーバー呼び出しのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		uploadRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "deepscan_upload_rejected_total",
			Help: "バリデーションで拒否されたアップロードの理由別合計数",
		}, []string{"reason"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "deepscan_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.classifications,
		c.inferenceLatency,
		c.uploadRejected,
		c.httpStatus,
	)

	return c
}

// RecordClassification は判定結果をラベル別に記録する。
func (c *Collector) RecordClassification(label string) {
	c.classifications.WithLabelValues(label).Inc()
}

// RecordInferenceLatency は推論呼び出しのレイテンシを記録する。
func (c *Collector) RecordInferenceLatency(duration time.Duration) {
	c.inferenceLatency.Observe(duration.Seconds())
}

// RecordUploadRejected はバリデーション拒否を理由別に記録する。
func (c *Collector) RecordUploadRejected(reason string) {
	c.uploadRejected.WithLabelValues(reason).Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
// Prometheusスクレイプに対応する。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}

// statusWriter はレスポンスのステータスコードを捕捉するResponseWriterラッパー。
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// NewHTTPStatusMiddleware はレスポンスのステータスコードをコレクターに記録する
// ミドルウェアを返す。
func NewHTTPStatusMiddleware(collector MetricsCollector) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)
			collector.RecordHTTPStatus(sw.status)
		})
	}
}
