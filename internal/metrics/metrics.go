// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
)

// MetricsCollector はメトリクス収集のインターフェース。
// APIクライアントやキャッシュから利用する。
type MetricsCollector interface {
	RecordAPIRequest(endpoint string, statusCode int)
	RecordAPILatency(endpoint string, duration time.Duration)
	RecordCacheHit()
	RecordCacheMiss()
	RecordPageLoaded(feed string)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	registry    *prometheus.Registry
	apiRequests *prometheus.CounterVec
	apiLatency  *prometheus.HistogramVec
	cacheHits   prometheus.Counter
	cacheMisses prometheus.Counter
	pagesLoaded *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、専用レジストリにメトリクスを登録する。
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "memedeck_api_requests_total",
			Help: "エンドポイント・ステータスコード別のAPIリクエスト数",
		}, []string{"endpoint", "status_code"}),
		apiLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "memedeck_api_latency_seconds",
			Help:    "APIリクエストのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "memedeck_user_cache_hits_total",
			Help: "ユーザーキャッシュヒットの合計数",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "memedeck_user_cache_misses_total",
			Help: "ユーザーキャッシュミスの合計数",
		}),
		pagesLoaded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "memedeck_feed_pages_loaded_total",
			Help: "フィード種別ごとの読み込み済みページ数",
		}, []string{"feed"}),
	}

	c.registry.MustRegister(
		c.apiRequests,
		c.apiLatency,
		c.cacheHits,
		c.cacheMisses,
		c.pagesLoaded,
	)

	return c
}

// RecordAPIRequest はAPIリクエストの完了を記録する。
func (c *Collector) RecordAPIRequest(endpoint string, statusCode int) {
	c.apiRequests.WithLabelValues(endpoint, strconv.Itoa(statusCode)).Inc()
}

// RecordAPILatency はAPIリクエストのレイテンシを記録する。
func (c *Collector) RecordAPILatency(endpoint string, duration time.Duration) {
	c.apiLatency.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// RecordCacheHit はユーザーキャッシュヒットを記録する。
func (c *Collector) RecordCacheHit() {
	c.cacheHits.Inc()
}

// RecordCacheMiss はユーザーキャッシュミスを記録する。
func (c *Collector) RecordCacheMiss() {
	c.cacheMisses.Inc()
}

// RecordPageLoaded はフィードページの読み込み完了を記録する。
func (c *Collector) RecordPageLoaded(feed string) {
	c.pagesLoaded.WithLabelValues(feed).Inc()
}

// Handler はメトリクス公開用のHTTPハンドラーを返す。
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Gather はレジストリの現在値を収集する。テスト用。
func (c *Collector) Gather() ([]*dto.MetricFamily, error) {
	return c.registry.Gather()
}
