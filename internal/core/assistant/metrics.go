package assistant

import "time"

// Metrics はターンとツール呼び出しの計測先です。
type Metrics interface {
	ObserveTurn(outcome string, elapsed time.Duration)
	ObserveTool(name, kind string)
	ObserveRejection(rule string)
}

type noopMetrics struct{}

func (noopMetrics) ObserveTurn(string, time.Duration) {}
func (noopMetrics) ObserveTool(string, string)        {}
func (noopMetrics) ObserveRejection(string)           {}
