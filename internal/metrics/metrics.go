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
// ワーカーやサービス層から利用する。
type MetricsCollector interface {
	RecordFetchSuccess(sourceID string)
	RecordFetchFailure(sourceID string, reason string)
	RecordParseFailure(sourceID string)
	RecordHTTPStatus(statusCode int)
	RecordFetchLatency(duration time.Duration)
	RecordNewsUpserted(count int)
	RecordResolutionFailure(dimension string)
	RecordPortraitUpdated()
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	apiRequests    *prometheus.CounterVec
	apiLatency     prometheus.Histogram
	resolutionFail *prometheus.CounterVec

	fetchSuccess prometheus.Counter
	fetchFail    prometheus.Counter
	parseFail    prometheus.Counter
	httpStatus   *prometheus.CounterVec
	fetchLatency prometheus.Histogram
	newsUpserted prometheus.Counter

	portraitsUpdated prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "boussole_api_requests_total",
			Help: "APIリクエストのステータスコード別の合計数",
		}, []string{"status_code"}),
		apiLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "boussole_api_latency_seconds",
			Help:    "APIリクエストのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		resolutionFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "boussole_filter_resolution_fail_total",
			Help: "フィルタ解決失敗のディメンション別の合計数",
		}, []string{"dimension"}),
		fetchSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "boussole_feed_fetch_success_total",
			Help: "プレスフィードフェッチ成功の合計数",
		}),
		fetchFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "boussole_feed_fetch_fail_total",
			Help: "プレスフィードフェッチ失敗の合計数",
		}),
		parseFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "boussole_feed_parse_fail_total",
			Help: "プレスフィードパース失敗の合計数",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "boussole_feed_http_status_total",
			Help: "プレスフィードフェッチのHTTPステータスコード別の合計数",
		}, []string{"status_code"}),
		fetchLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "boussole_feed_fetch_latency_seconds",
			Help:    "プレスフィードフェッチのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		newsUpserted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "boussole_news_upserted_total",
			Help: "アップサートされたニュース記事の合計数",
		}),
		portraitsUpdated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "boussole_portraits_updated_total",
			Help: "Wikipediaから取得した肖像画像の更新合計数",
		}),
	}

	reg.MustRegister(
		c.apiRequests,
		c.apiLatency,
		c.resolutionFail,
		c.fetchSuccess,
		c.fetchFail,
		c.parseFail,
		c.httpStatus,
		c.fetchLatency,
		c.newsUpserted,
		c.portraitsUpdated,
	)

	return c
}

// RecordFetchSuccess はプレスフィードのフェッチ成功を記録する。
func (c *Collector) RecordFetchSuccess(sourceID string) {
	c.fetchSuccess.Inc()
}

// RecordFetchFailure はプレスフィードのフェッチ失敗を記録する。
func (c *Collector) RecordFetchFailure(sourceID string, reason string) {
	c.fetchFail.Inc()
}

// RecordParseFailure はプレスフィードのパース失敗を記録する。
func (c *Collector) RecordParseFailure(sourceID string) {
	c.parseFail.Inc()
}

// RecordHTTPStatus はプレスフィードフェッチのHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordFetchLatency はプレスフィードフェッチのレイテンシを記録する。
func (c *Collector) RecordFetchLatency(duration time.Duration) {
	c.fetchLatency.Observe(duration.Seconds())
}

// RecordNewsUpserted はアップサートされたニュース記事数を記録する。
func (c *Collector) RecordNewsUpserted(count int) {
	c.newsUpserted.Add(float64(count))
}

// RecordResolutionFailure はフィルタ解決失敗をディメンション別に記録する。
func (c *Collector) RecordResolutionFailure(dimension string) {
	c.resolutionFail.WithLabelValues(dimension).Inc()
}

// RecordPortraitUpdated は肖像画像の更新を記録する。
func (c *Collector) RecordPortraitUpdated() {
	c.portraitsUpdated.Inc()
}

// statusRecorder はレスポンスのステータスコードを捕捉する。
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.statusCode = code
	sr.ResponseWriter.WriteHeader(code)
}

// HTTPMiddleware はAPIリクエストの件数とレイテンシを記録するミドルウェアを返す。
func (c *Collector) HTTPMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(rec, r)

			c.apiRequests.WithLabelValues(strconv.Itoa(rec.statusCode)).Inc()
			c.apiLatency.Observe(time.Since(start).Seconds())
		})
	}
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
