package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP 指标，由 middleware.Metrics 记录
var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ditton",
		Name:      "http_requests_total",
		Help:      "HTTP 请求总数",
	}, []string{"method", "route", "status"})

	// RateLimited 被限流拒绝的请求，按路由统计
	RateLimited = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ditton",
		Name:      "rate_limited_total",
		Help:      "被限流拒绝的请求数",
	}, []string{"route"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "ditton",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP 请求耗时",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})
)

// 业务指标
var (
	// PeriodMismatch 按 kind（attendance|phone）统计的教时不一致拒绝次数
	PeriodMismatch = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ditton",
		Name:      "period_mismatch_rejections_total",
		Help:      "教时不一致而被拒绝的批量提交次数",
	}, []string{"kind"})

	// BulkRecords 批量写入的记录条数
	BulkRecords = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ditton",
		Name:      "bulk_records_saved_total",
		Help:      "批量写入的记录条数",
	}, []string{"kind", "forced"})

	PatrolsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "ditton",
		Name:      "patrols_started_total",
		Help:      "新建巡查会话数",
	})

	// PatrolsEnded 按 how（submit|force）统计
	PatrolsEnded = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ditton",
		Name:      "patrols_ended_total",
		Help:      "结束的巡查会话数",
	}, []string{"how"})

	AttitudeChecks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ditton",
		Name:      "attitude_checks_total",
		Help:      "记录的态度检查数",
	}, []string{"category"})

	LateConversions = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "ditton",
		Name:      "late_conversions_total",
		Help:      "迟到 → 自习中 自动转换的记录数",
	})
)
