package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/w8kerr/rtmbot/internal/domain/entity"
	domainerrors "github.com/w8kerr/rtmbot/internal/domain/errors"
	"github.com/w8kerr/rtmbot/internal/domain/logger"
	"github.com/w8kerr/rtmbot/internal/usecase/command"
	"github.com/w8kerr/rtmbot/internal/usecase/directory"
	"github.com/w8kerr/rtmbot/internal/usecase/event"
)

// Transport is the session's boundary to the real-time stream. Wire
// mechanics (handshake, frames, sockets) live behind it.
type Transport interface {
	// Connect establishes the stream and returns a connection identifier.
	Connect(ctx context.Context) (string, error)

	// ReadEvent blocks until the next raw event, a transport timeout
	// (ErrTransportTimeout), or a transport error.
	ReadEvent(ctx context.Context) (entity.RawEvent, error)

	// Close tears down the current connection.
	Close() error
}

// Metrics receives session-level counters. Implemented by the
// observability package; Nop is used when telemetry is disabled.
type Metrics interface {
	EventClassified(ctx context.Context, kind string)
	CommandDispatched(ctx context.Context, name, outcome string)
	SessionReconnected(ctx context.Context)
	ConnectionStateChanged(ctx context.Context, connected bool)
}

// NopMetrics discards all session metrics.
type NopMetrics struct{}

func (NopMetrics) EventClassified(context.Context, string)           {}
func (NopMetrics) CommandDispatched(context.Context, string, string) {}
func (NopMetrics) SessionReconnected(context.Context)                {}
func (NopMetrics) ConnectionStateChanged(context.Context, bool)      {}

// DefaultTickInterval is the deliberate rate limit on polling between
// reads; it is not a correctness requirement of the transport.
const DefaultTickInterval = time.Second

// Loop owns the connect, read, classify, dispatch cycle. All work for one
// event completes before the next event is read.
type Loop struct {
	transport  Transport
	dispatcher *command.Dispatcher
	directory  *directory.Directory
	logger     logger.Logger
	metrics    Metrics

	tick         atomic.Int64 // nanoseconds, hot-reloadable
	reconnectCfg ReconnectionConfig
	breaker      *CircuitBreaker
	connected    atomic.Bool
}

// NewLoop creates the session loop. metrics may be nil.
func NewLoop(transport Transport, dispatcher *command.Dispatcher, dir *directory.Directory, log logger.Logger, metrics Metrics, tick time.Duration) *Loop {
	if metrics == nil {
		metrics = NopMetrics{}
	}
	cfg := DefaultReconnectionConfig()
	l := &Loop{
		transport:    transport,
		dispatcher:   dispatcher,
		directory:    dir,
		logger:       log,
		metrics:      metrics,
		reconnectCfg: cfg,
		breaker:      NewCircuitBreaker(cfg.MaxRetries),
	}
	l.SetTickInterval(tick)
	return l
}

// SetTickInterval adjusts the pause between event reads. Safe to call
// while the loop runs; it takes effect from the next tick.
func (l *Loop) SetTickInterval(d time.Duration) {
	if d <= 0 {
		d = DefaultTickInterval
	}
	l.tick.Store(int64(d))
}

// TickInterval returns the current pause between event reads.
func (l *Loop) TickInterval() time.Duration {
	return time.Duration(l.tick.Load())
}

// Run drives the session until the context is cancelled or the connect
// circuit breaker opens. Cancellation halts between ticks, never
// mid-classification.
func (l *Loop) Run(ctx context.Context) error {
	first := true
	for {
		if err := l.connect(ctx); err != nil {
			return err
		}
		if !first {
			l.metrics.SessionReconnected(ctx)
		}
		first = false

		err := l.runConnected(ctx)
		l.connected.Store(false)
		l.metrics.ConnectionStateChanged(ctx, false)
		_ = l.transport.Close()

		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}
		// Transport dropped; go around and reconnect.
		l.logger.Warn("stream disconnected, reconnecting")
	}
}

// IsConnected reports whether the stream connection is currently up.
func (l *Loop) IsConnected() bool {
	return l.connected.Load()
}

// connect retries the handshake with exponential backoff until it
// succeeds, the context is cancelled, or the circuit breaker opens.
func (l *Loop) connect(ctx context.Context) error {
	attempt := 0
	for {
		if l.breaker.IsOpen() {
			return fmt.Errorf("connect circuit open after %d consecutive failures", l.breaker.ConsecutiveFailures())
		}

		connID, err := l.transport.Connect(ctx)
		if err == nil {
			l.breaker.RecordSuccess()
			l.connected.Store(true)
			l.metrics.ConnectionStateChanged(ctx, true)
			l.logger.Info("connected to real-time stream",
				"connection_id", connID,
				"attempt", attempt+1)
			return nil
		}

		l.logger.Warn("failed to connect to real-time stream",
			"error", err,
			"attempt", attempt+1)

		if l.breaker.RecordFailure() {
			return fmt.Errorf("connect circuit opened: %w", err)
		}

		backoff := CalculateBackoff(l.reconnectCfg, attempt)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		attempt++
	}
}

// runConnected reads and processes events until the context is cancelled
// or the transport fails. A nil return means the transport dropped and a
// reconnect should be attempted.
func (l *Loop) runConnected(ctx context.Context) error {
	for {
		raw, err := l.transport.ReadEvent(ctx)
		switch {
		case err == nil:
			l.processEvent(ctx, raw)
		case errors.Is(err, domainerrors.ErrTransportTimeout):
			// A per-read timeout is logged but does not drop the session.
			l.logger.Error("event read timed out", "error", err)
		case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
			return err
		default:
			l.logger.Error("transport read failed", "error", err)
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(l.TickInterval()):
		}
	}
}

// processEvent classifies one raw event and acts on it. Failures are
// contained to this event and logged with the raw payload.
func (l *Loop) processEvent(ctx context.Context, raw entity.RawEvent) {
	evt, err := event.Classify(raw)
	if err != nil {
		var malformed *domainerrors.MalformedEventError
		if errors.As(err, &malformed) {
			l.logger.Error("skipping malformed event",
				"reason", malformed.Reason,
				"payload", malformed.Raw)
			return
		}
		l.logger.Error("failed to classify event", "error", err, "payload", raw)
		return
	}
	if evt == nil {
		return
	}

	l.metrics.EventClassified(ctx, evt.Kind.String())

	switch evt.Kind {
	case entity.KindPlainMessage:
		l.handleMessage(ctx, evt)
	case entity.KindEditedMessage:
		l.logger.Info("message edited", "old", evt.OldText, "new", evt.NewText)
	case entity.KindDeletedMessage:
		l.logger.Info("message deleted", "text", evt.Text)
	case entity.KindTypingNotice:
		l.logger.Debug("user typing", "user", l.softResolve(evt.UserID))
	case entity.KindHandshakeNotice:
		l.logger.Info("stream handshake complete")
	case entity.KindDesktopNotification:
		l.logger.Debug("desktop notification received")
	case entity.KindUnrecognized:
		l.logger.Warn("unrecognized event", "payload", evt.Raw)
	}
}

// handleMessage logs a plain message and dispatches it when it carries
// the command sentinel.
func (l *Loop) handleMessage(ctx context.Context, evt *entity.Event) {
	l.logger.Info("message received",
		"sender", l.softResolve(evt.SenderID),
		"text", evt.Text)

	sentinel := l.dispatcher.Sentinel()
	if !evt.IsCommand(sentinel) {
		return
	}

	name := "none"
	if tokens := strings.Fields(strings.TrimPrefix(evt.Text, sentinel)); len(tokens) > 0 {
		name = tokens[0]
	}

	outcome := "ok"
	if err := l.dispatcher.Dispatch(ctx, evt.Text, evt.SenderID); err != nil {
		outcome = "error"
		l.logger.Error("command dispatch failed",
			"text", evt.Text,
			"issuer", evt.SenderID,
			"error", err)
	}
	l.metrics.CommandDispatched(ctx, name, outcome)
}

// softResolve maps an id to a display name, falling back to the raw id
// when the directory misses. A resolver miss here is a recoverable lookup
// failure, not fatal.
func (l *Loop) softResolve(id string) string {
	name, err := l.directory.Resolve(id)
	if err != nil {
		l.logger.Warn("sender not in directory", "id", id)
		return id
	}
	return name
}
