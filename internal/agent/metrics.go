package agent

import (
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// metrics holds the Agent Loop's local Prometheus counters. They are
// registered against a private registry (no HTTP exposition server — spec's
// Non-goals exclude a metrics endpoint, but the ambient stack still carries
// structured counters the way the teacher instruments its own agent runtime).
type metrics struct {
	turns       prometheus.Counter
	toolCalls   *prometheus.CounterVec
	cancellations *prometheus.CounterVec
	streamErrors prometheus.Counter
}

func newMetrics(registry *prometheus.Registry) *metrics {
	m := &metrics{
		turns: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ai_loop_turns_total",
			Help: "Number of Agent Loop turns executed.",
		}),
		toolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ai_tool_calls_total",
			Help: "Number of tool calls dispatched, by tool name.",
		}, []string{"tool"}),
		cancellations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ai_cancellations_total",
			Help: "Number of stream cancellations, by hotkey.",
		}, []string{"hotkey"}),
		streamErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ai_stream_errors_total",
			Help: "Number of provider stream errors.",
		}),
	}
	if registry != nil {
		registry.MustRegister(m.turns, m.toolCalls, m.cancellations, m.streamErrors)
	}
	return m
}

// DumpMetrics writes every registered counter's current value to w in
// Prometheus text exposition format. There is no HTTP server in scope
// (spec's no-network-daemon Non-goal), so this is the only consumer of
// registry.Gather(); cmd/ai calls it once on exit when -d/--debug is set.
func DumpMetrics(registry *prometheus.Registry, w io.Writer) error {
	if registry == nil {
		return nil
	}
	families, err := registry.Gather()
	if err != nil {
		return err
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}
