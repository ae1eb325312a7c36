// Package metrics は Prometheus メトリクスの収集と公開を提供します。
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector はアシスタントのターンとツール実行を記録します。
type Collector struct {
	turns       *prometheus.CounterVec
	turnLatency prometheus.Histogram
	tools       *prometheus.CounterVec
	rejections  *prometheus.CounterVec
	rateLimited prometheus.Counter
}

// NewCollector は Collector を生成し、指定されたレジストリに登録します。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		turns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "planner_assistant_turns_total",
			Help: "結果別のターン数",
		}, []string{"outcome"}),
		turnLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "planner_assistant_turn_duration_seconds",
			Help:    "ターンの処理時間（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		tools: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "planner_assistant_tool_invocations_total",
			Help: "ツール別・エラー種別ごとの実行数",
		}, []string{"tool", "kind"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "planner_assistant_rule_rejections_total",
			Help: "ルール別の拒否数",
		}, []string{"rule"}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "planner_assistant_rate_limited_total",
			Help: "レート制限で拒否したリクエスト数",
		}),
	}

	reg.MustRegister(c.turns, c.turnLatency, c.tools, c.rejections, c.rateLimited)
	return c
}

// ObserveTurn はターンの結果と処理時間を記録します。
func (c *Collector) ObserveTurn(outcome string, elapsed time.Duration) {
	c.turns.WithLabelValues(outcome).Inc()
	c.turnLatency.Observe(elapsed.Seconds())
}

// ObserveTool はツール実行を記録します。成功時の kind は "ok" になります。
func (c *Collector) ObserveTool(name, kind string) {
	if kind == "" {
		kind = "ok"
	}
	c.tools.WithLabelValues(name, kind).Inc()
}

// ObserveRejection はルール違反による拒否を記録します。
func (c *Collector) ObserveRejection(rule string) {
	c.rejections.WithLabelValues(rule).Inc()
}

// ObserveRateLimited はレート制限による拒否を記録します。
func (c *Collector) ObserveRateLimited() {
	c.rateLimited.Inc()
}

// Handler は Prometheus スクレイプ用の HTTP ハンドラーを返します。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
