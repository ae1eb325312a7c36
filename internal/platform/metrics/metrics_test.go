package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func counterValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			matched := true
			for _, lp := range m.GetLabel() {
				if want, ok := labels[lp.GetName()]; ok && want != lp.GetValue() {
					matched = false
				}
			}
			if matched {
				return m.GetCounter().GetValue()
			}
		}
	}
	t.Fatalf("metric %s %v not found", name, labels)
	return 0
}

func TestCollector_ObserveTurn(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.ObserveTurn("executed", 20*time.Millisecond)
	c.ObserveTurn("executed", 10*time.Millisecond)
	c.ObserveTurn("clarification", time.Millisecond)

	if got := counterValue(t, reg, "planner_assistant_turns_total", map[string]string{"outcome": "executed"}); got != 2 {
		t.Errorf("executed turns = %v, want 2", got)
	}
}

func TestCollector_ObserveToolDefaultsKind(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.ObserveTool("create-assignment", "")
	c.ObserveTool("create-assignment", "weekend")

	if got := counterValue(t, reg, "planner_assistant_tool_invocations_total", map[string]string{"tool": "create-assignment", "kind": "ok"}); got != 1 {
		t.Errorf("ok invocations = %v, want 1", got)
	}
	if got := counterValue(t, reg, "planner_assistant_tool_invocations_total", map[string]string{"tool": "create-assignment", "kind": "weekend"}); got != 1 {
		t.Errorf("weekend invocations = %v, want 1", got)
	}
}

func TestCollector_ObserveRejection(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.ObserveRejection("no_double_booking")

	if got := counterValue(t, reg, "planner_assistant_rule_rejections_total", map[string]string{"rule": "no_double_booking"}); got != 1 {
		t.Errorf("rejections = %v, want 1", got)
	}
}

func TestHandler_ExposesMetrics(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.ObserveRateLimited()

	srv := httptest.NewServer(Handler(reg))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}
	if !strings.Contains(string(body), "planner_assistant_rate_limited_total 1") {
		t.Fatalf("expected rate limited counter in output, got:\n%s", body)
	}
}
