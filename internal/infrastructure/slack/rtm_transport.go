package slack

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/slack-go/slack"

	"github.com/w8kerr/rtmbot/internal/domain/entity"
	domainerrors "github.com/w8kerr/rtmbot/internal/domain/errors"
)

// RTMTransport connects to the workspace real-time stream and reads one
// raw event per call. It implements session.Transport.
type RTMTransport struct {
	api         *slack.Client
	readTimeout time.Duration
	logger      *slog.Logger

	conn      *websocket.Conn
	sessionID string
}

// NewRTMTransport creates an RTM transport on top of an authenticated
// Slack client.
func NewRTMTransport(api *slack.Client, readTimeout time.Duration, logger *slog.Logger) *RTMTransport {
	return &RTMTransport{
		api:         api,
		readTimeout: readTimeout,
		logger:      logger,
	}
}

// Connect performs the rtm.connect handshake and dials the returned
// websocket URL. It returns a fresh session identifier for log
// correlation.
func (t *RTMTransport) Connect(ctx context.Context) (string, error) {
	info, wsURL, err := t.api.ConnectRTMContext(ctx)
	if err != nil {
		return "", fmt.Errorf("rtm.connect: %w", categorizeSlackError(err, "connecting to stream"))
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return "", fmt.Errorf("dialing stream socket: %w", err)
	}

	t.conn = conn
	t.sessionID = uuid.New().String()

	team := ""
	if info != nil && info.Team != nil {
		team = info.Team.Name
	}
	t.logger.Info("rtm socket established",
		"session_id", t.sessionID,
		"team", team)

	return t.sessionID, nil
}

// ReadEvent blocks until the next frame arrives or the read deadline
// expires. Frames that are not JSON objects are skipped as empty events.
func (t *RTMTransport) ReadEvent(ctx context.Context) (entity.RawEvent, error) {
	if t.conn == nil {
		return nil, errors.New("transport not connected")
	}

	if t.readTimeout > 0 {
		if err := t.conn.SetReadDeadline(time.Now().Add(t.readTimeout)); err != nil {
			return nil, fmt.Errorf("setting read deadline: %w", err)
		}
	}

	_, data, err := t.conn.ReadMessage()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, fmt.Errorf("%w: %v", domainerrors.ErrTransportTimeout, err)
		}
		return nil, fmt.Errorf("reading stream frame: %w", err)
	}

	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		// Unparseable frames are dropped; the stream itself is healthy.
		t.logger.Warn("skipping undecodable stream frame",
			"session_id", t.sessionID,
			"error", err)
		return entity.RawEvent{}, nil
	}

	return entity.RawEvent{payload}, nil
}

// Close tears down the websocket connection.
func (t *RTMTransport) Close() error {
	if t.conn == nil {
		return nil
	}
	err := t.conn.Close()
	t.conn = nil
	return err
}
