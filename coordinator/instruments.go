package coordinator

import (
	"errors"

	"go.opentelemetry.io/otel/metric"
)

type instruments struct {
	requests      metric.Int64Counter
	cacheHits     metric.Int64Counter
	consultations metric.Int64Counter
	failures      metric.Int64Counter
	toolCalls     metric.Int64Counter
	repetitions   metric.Int64Counter
	safetyAlerts  metric.Int64Counter
	actions       metric.Int64Histogram
	consultTime   metric.Float64Histogram
	chatTime      metric.Float64Histogram
}

func newInstruments(meter metric.Meter) (*instruments, error) {
	var ins instruments
	var errs []error
	counter := func(name, desc string) metric.Int64Counter {
		c, err := meter.Int64Counter(name, metric.WithDescription(desc))
		errs = append(errs, err)
		return c
	}

	ins.requests = counter("chat_requests_total", "Total number of chat requests")
	ins.cacheHits = counter("chat_cache_hits_total", "Chat requests answered from the reply cache")
	ins.consultations = counter("specialist_consultations_total", "Specialist consultations started")
	ins.failures = counter("specialist_failures_total", "Specialist consultations that failed")
	ins.toolCalls = counter("tool_calls_total", "Tool calls executed for specialists")
	ins.repetitions = counter("tool_repetition_prevented_total", "Times a repeated tool call was refused")
	ins.safetyAlerts = counter("safety_alerts_total", "Safety alerts sent to the coaching team")

	var err error
	ins.actions, err = meter.Int64Histogram("chat_actions_returned",
		metric.WithDescription("Number of ranked actions returned per chat reply"))
	errs = append(errs, err)
	ins.consultTime, err = meter.Float64Histogram("specialist_consult_duration_seconds",
		metric.WithDescription("Duration of one specialist consultation in seconds"), metric.WithUnit("s"))
	errs = append(errs, err)
	ins.chatTime, err = meter.Float64Histogram("chat_duration_seconds",
		metric.WithDescription("Total duration of a chat request in seconds"), metric.WithUnit("s"))
	errs = append(errs, err)

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return &ins, nil
}
