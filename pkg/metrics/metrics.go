package metrics

import "github.com/prometheus/client_golang/prometheus"

// BotMetrics exposes counters and histograms for the qualification dialogue.
// A nil *BotMetrics is valid and records nothing.
type BotMetrics struct {
	turnsTotal       *prometheus.CounterVec
	turnLatency      *prometheus.HistogramVec
	stageTransitions *prometheus.CounterVec
	llmCalls         *prometheus.CounterVec
	leadWrites       *prometheus.CounterVec
	updatesDropped   prometheus.Counter
}

func NewBotMetrics(reg prometheus.Registerer) *BotMetrics {
	m := &BotMetrics{
		turnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chative",
			Subsystem: "dialogue",
			Name:      "turns_total",
			Help:      "Dialogue turns handled, by command and outcome",
		}, []string{"command", "status"}),
		turnLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "chative",
			Subsystem: "dialogue",
			Name:      "turn_latency_seconds",
			Help:      "Latency of a dialogue turn including collaborator calls",
			Buckets:   prometheus.DefBuckets,
		}, []string{"command"}),
		stageTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chative",
			Subsystem: "dialogue",
			Name:      "stage_transitions_total",
			Help:      "Session stage changes",
		}, []string{"from", "to"}),
		llmCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chative",
			Subsystem: "llm",
			Name:      "calls_total",
			Help:      "Completion calls by purpose and outcome",
		}, []string{"purpose", "outcome"}),
		leadWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chative",
			Subsystem: "leads",
			Name:      "writes_total",
			Help:      "Lead append attempts by backend and outcome",
		}, []string{"backend", "outcome"}),
		updatesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chative",
			Subsystem: "transport",
			Name:      "duplicate_updates_total",
			Help:      "Inbound updates dropped because their id was already seen",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.turnsTotal, m.turnLatency, m.stageTransitions, m.llmCalls, m.leadWrites, m.updatesDropped)
	return m
}

func (m *BotMetrics) ObserveTurn(command, status string, seconds float64) {
	if m == nil {
		return
	}
	if command == "" {
		command = "text"
	}
	m.turnsTotal.WithLabelValues(command, status).Inc()
	m.turnLatency.WithLabelValues(command).Observe(seconds)
}

func (m *BotMetrics) ObserveStageTransition(from, to string) {
	if m == nil || from == to {
		return
	}
	if from == "" {
		from = "none"
	}
	m.stageTransitions.WithLabelValues(from, to).Inc()
}

func (m *BotMetrics) ObserveLLMCall(purpose string, fallback bool) {
	if m == nil {
		return
	}
	outcome := "ok"
	if fallback {
		outcome = "fallback"
	}
	m.llmCalls.WithLabelValues(purpose, outcome).Inc()
}

func (m *BotMetrics) ObserveLeadWrite(backend string, ok bool) {
	if m == nil {
		return
	}
	outcome := "ok"
	if !ok {
		outcome = "failed"
	}
	m.leadWrites.WithLabelValues(backend, outcome).Inc()
}

func (m *BotMetrics) ObserveDuplicateUpdate() {
	if m == nil {
		return
	}
	m.updatesDropped.Inc()
}
