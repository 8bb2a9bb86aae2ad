package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds all application metrics. It implements the session loop's
// Metrics interface.
type Metrics struct {
	meter metric.Meter

	// Stream metrics
	EventsClassifiedTotal  metric.Int64Counter
	SessionReconnectsTotal metric.Int64Counter
	ConnectionState        metric.Int64UpDownCounter

	// Command metrics
	CommandsDispatchedTotal metric.Int64Counter

	// Outbound metrics
	MessagesSentTotal metric.Int64Counter

	// History metrics
	HistoryPagesFetchedTotal metric.Int64Counter
	TranscriptLinesTotal     metric.Int64Counter
}

// NewMetrics creates and registers all application metrics.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{meter: meter}

	var err error

	m.EventsClassifiedTotal, err = meter.Int64Counter(
		"bot.events.classified.total",
		metric.WithDescription("Total number of stream events classified, by kind"),
		metric.WithUnit("{events}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating events_classified_total: %w", err)
	}

	m.SessionReconnectsTotal, err = meter.Int64Counter(
		"bot.session.reconnects.total",
		metric.WithDescription("Total number of stream reconnections"),
		metric.WithUnit("{reconnects}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating session_reconnects_total: %w", err)
	}

	m.ConnectionState, err = meter.Int64UpDownCounter(
		"bot.session.connected",
		metric.WithDescription("1 while the stream connection is up"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating session_connected: %w", err)
	}

	m.CommandsDispatchedTotal, err = meter.Int64Counter(
		"bot.commands.dispatched.total",
		metric.WithDescription("Total number of commands dispatched, by name and outcome"),
		metric.WithUnit("{commands}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating commands_dispatched_total: %w", err)
	}

	m.MessagesSentTotal, err = meter.Int64Counter(
		"bot.messages.sent.total",
		metric.WithDescription("Total number of outbound messages posted"),
		metric.WithUnit("{messages}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating messages_sent_total: %w", err)
	}

	m.HistoryPagesFetchedTotal, err = meter.Int64Counter(
		"bot.history.pages.fetched.total",
		metric.WithDescription("Total number of history pages fetched"),
		metric.WithUnit("{pages}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating history_pages_fetched_total: %w", err)
	}

	m.TranscriptLinesTotal, err = meter.Int64Counter(
		"bot.history.transcript.lines.total",
		metric.WithDescription("Total number of transcript lines normalized"),
		metric.WithUnit("{lines}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating transcript_lines_total: %w", err)
	}

	return m, nil
}

// EventClassified records one classified event of the given kind.
func (m *Metrics) EventClassified(ctx context.Context, kind string) {
	m.EventsClassifiedTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

// CommandDispatched records one dispatched command.
func (m *Metrics) CommandDispatched(ctx context.Context, name, outcome string) {
	m.CommandsDispatchedTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("command", name),
		attribute.String("outcome", outcome),
	))
}

// SessionReconnected records one stream reconnection.
func (m *Metrics) SessionReconnected(ctx context.Context) {
	m.SessionReconnectsTotal.Add(ctx, 1)
}

// ConnectionStateChanged moves the connection gauge.
func (m *Metrics) ConnectionStateChanged(ctx context.Context, connected bool) {
	if connected {
		m.ConnectionState.Add(ctx, 1)
	} else {
		m.ConnectionState.Add(ctx, -1)
	}
}

// MessageSent records one outbound post.
func (m *Metrics) MessageSent(ctx context.Context) {
	m.MessagesSentTotal.Add(ctx, 1)
}

// HistoryPageFetched records one fetched page and its line count.
func (m *Metrics) HistoryPageFetched(ctx context.Context, lines int) {
	m.HistoryPagesFetchedTotal.Add(ctx, 1)
	m.TranscriptLinesTotal.Add(ctx, int64(lines))
}
