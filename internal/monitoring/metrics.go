package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 监控指标
type Metrics struct {
	// HTTP 请求指标
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// 认证管道指标
	AuthOutcomes    *prometheus.CounterVec // 按结果统计: ok / unauthenticated / forbidden / rate_limited / upstream_error
	AuthMethods     *prometheus.CounterVec // 按认证方式统计: token / apikey / anonymous
	RateLimitBlocks prometheus.Counter

	// 用量记录指标
	UsageEventsRecorded prometheus.Counter
	UsageEventsFlushed  prometheus.Counter

	// 错误指标
	PanicsTotal prometheus.Counter
}

// NewMetrics 创建监控指标并注册到默认注册表
func NewMetrics() *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer)
}

// NewMetricsWith 创建监控指标并注册到指定注册表
//
// 测试中传入独立的 Registry，避免重复注册冲突
func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "todoapi_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status_code"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "todoapi_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),
		AuthOutcomes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "todoapi_auth_outcomes_total",
				Help: "Authentication pipeline outcomes",
			},
			[]string{"outcome"},
		),
		AuthMethods: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "todoapi_auth_methods_total",
				Help: "Successful authentications by method",
			},
			[]string{"method"},
		),
		RateLimitBlocks: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "todoapi_rate_limit_blocks_total",
				Help: "Requests rejected by the rate limiter",
			},
		),
		UsageEventsRecorded: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "todoapi_usage_events_recorded_total",
				Help: "Usage events buffered for batch insert",
			},
		),
		UsageEventsFlushed: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "todoapi_usage_events_flushed_total",
				Help: "Usage events written to the sink",
			},
		),
		PanicsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "todoapi_panics_total",
				Help: "Recovered panics",
			},
		),
	}
}

// RecordHTTPRequest 记录一次 HTTP 请求
func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordAuthOutcome 记录一次认证管道结果
func (m *Metrics) RecordAuthOutcome(outcome string) {
	m.AuthOutcomes.WithLabelValues(outcome).Inc()
}

// Handler 返回 Prometheus 指标的 HTTP 处理器
func (m *Metrics) Handler() http.Handler {
	return promhttp.Handler()
}
