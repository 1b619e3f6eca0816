// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector はPrometheusメトリクスを収集する。
// サービス層とミドルウェアは、必要なメソッドのみの部分インターフェースを
// 各パッケージ側で定義して利用する。
type Collector struct {
	httpStatus         *prometheus.CounterVec
	logins             *prometheus.CounterVec
	generationSuccess  prometheus.Counter
	generationFail     prometheus.Counter
	generationLatency  prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "blogsmith_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "blogsmith_logins_total",
			Help: "認証方式別のログイン成功数",
		}, []string{"method"}),
		generationSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "blogsmith_generation_success_total",
			Help: "記事生成成功の合計数",
		}),
		generationFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "blogsmith_generation_fail_total",
			Help: "記事生成失敗の合計数",
		}),
		generationLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "blogsmith_generation_latency_seconds",
			Help:    "記事生成のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.httpStatus,
		c.logins,
		c.generationSuccess,
		c.generationFail,
		c.generationLatency,
	)

	return c
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordLogin はログイン成功を認証方式（password, google）別に記録する。
func (c *Collector) RecordLogin(method string) {
	c.logins.WithLabelValues(method).Inc()
}

// RecordGeneration は記事生成の成否を記録する。
func (c *Collector) RecordGeneration(success bool) {
	if success {
		c.generationSuccess.Inc()
	} else {
		c.generationFail.Inc()
	}
}

// RecordGenerationLatency は記事生成のレイテンシを記録する。
func (c *Collector) RecordGenerationLatency(duration time.Duration) {
	c.generationLatency.Observe(duration.Seconds())
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
