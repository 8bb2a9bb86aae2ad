package slack

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/slack-go/slack"

	"github.com/w8kerr/rtmbot/internal/domain/entity"
	domainerrors "github.com/w8kerr/rtmbot/internal/domain/errors"
)

// SendMetrics records successful outbound posts.
type SendMetrics interface {
	MessageSent(ctx context.Context)
}

// Client wraps the Slack Web API with the bot's boundary operations:
// posting messages, listing members, and fetching history pages.
type Client struct {
	api       *slack.Client
	pageLimit int
	metrics   SendMetrics
}

// NewClient creates a new Slack client. An optional apiURL overrides the
// API endpoint for testing against a mock server.
func NewClient(botToken string, pageLimit int, apiURL ...string) *Client {
	var api *slack.Client
	if len(apiURL) > 0 && apiURL[0] != "" {
		api = slack.New(botToken, slack.OptionAPIURL(apiURL[0]))
	} else {
		api = slack.New(botToken)
	}

	return &Client{
		api:       api,
		pageLimit: pageLimit,
	}
}

// PostMessage posts a text message to a channel, group, or direct
// conversation.
func (c *Client) PostMessage(ctx context.Context, destination, text string) error {
	options := []slack.MsgOption{
		slack.MsgOptionText(text, false),
		slack.MsgOptionAsUser(true),
	}

	_, _, err := c.api.PostMessageContext(ctx, destination, options...)
	if err != nil {
		return categorizeSlackError(err, "posting message")
	}
	if c.metrics != nil {
		c.metrics.MessageSent(ctx)
	}
	return nil
}

// SetMetrics attaches a send recorder. Call before the client is shared.
func (c *Client) SetMetrics(m SendMetrics) {
	c.metrics = m
}

// ListMembers fetches the full workspace membership listing.
func (c *Client) ListMembers(ctx context.Context) ([]entity.Member, error) {
	users, err := c.api.GetUsersContext(ctx)
	if err != nil {
		return nil, categorizeSlackError(err, "listing members")
	}

	members := make([]entity.Member, 0, len(users))
	for _, u := range users {
		name := u.RealName
		if name == "" {
			name = u.Name
		}
		members = append(members, entity.Member{ID: u.ID, DisplayName: name})
	}
	return members, nil
}

// FetchHistoryPage fetches one page of conversation history. An empty
// cursor starts at the newest messages.
func (c *Client) FetchHistoryPage(ctx context.Context, conversationID, cursor string) (*entity.HistoryPage, error) {
	params := &slack.GetConversationHistoryParameters{
		ChannelID: conversationID,
		Cursor:    cursor,
		Limit:     c.pageLimit,
	}

	resp, err := c.api.GetConversationHistoryContext(ctx, params)
	if err != nil {
		return nil, categorizeSlackError(err, "fetching history page")
	}
	if !resp.Ok {
		return nil, domainerrors.NewUpstreamError("conversations.history", fmt.Errorf("%s", resp.Error))
	}

	page := &entity.HistoryPage{
		Messages:   make([]entity.HistoryMessage, 0, len(resp.Messages)),
		HasMore:    resp.HasMore,
		NextCursor: resp.ResponseMetaData.NextCursor,
	}
	for _, msg := range resp.Messages {
		seconds, err := timestampSeconds(msg.Timestamp)
		if err != nil {
			return nil, domainerrors.NewMalformedEvent(fmt.Sprintf("bad history timestamp %q", msg.Timestamp), msg)
		}
		page.Messages = append(page.Messages, entity.HistoryMessage{
			TimestampSeconds: seconds,
			SenderID:         msg.User,
			Text:             msg.Text,
		})
	}
	return page, nil
}

// API exposes the underlying Slack client for the RTM transport.
func (c *Client) API() *slack.Client {
	return c.api
}

// timestampSeconds extracts the wall-clock second from a raw stream
// timestamp such as "1503435956.000247"; the sequence suffix is discarded.
func timestampSeconds(ts string) (int64, error) {
	whole, _, _ := strings.Cut(ts, ".")
	return strconv.ParseInt(whole, 10, 64)
}

// categorizeSlackError wraps Slack API errors as transient or permanent domain errors.
func categorizeSlackError(err error, operation string) error {
	if err == nil {
		return nil
	}

	// Network errors are transient
	var netErr net.Error
	if errors.As(err, &netErr) {
		return domainerrors.NewTransientError(
			fmt.Sprintf("%s: network error", operation),
			err,
		)
	}

	var slackErr slack.SlackErrorResponse
	if errors.As(err, &slackErr) {
		switch slackErr.Err {
		// Rate limiting and server errors - transient
		case "rate_limited", "internal_error", "fatal_error", "service_unavailable":
			return domainerrors.NewTransientError(
				fmt.Sprintf("%s: %s", operation, slackErr.Err),
				err,
			)

		// Everything else is a client error - permanent
		default:
			return domainerrors.NewPermanentError(
				fmt.Sprintf("%s: %s", operation, slackErr.Err),
				err,
			)
		}
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return domainerrors.NewTransientError(
			fmt.Sprintf("%s: context timeout", operation),
			err,
		)
	}

	return domainerrors.NewPermanentError(
		fmt.Sprintf("%s: %v", operation, err),
		err,
	)
}
