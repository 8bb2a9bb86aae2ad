package history

import (
	"context"
	"fmt"
	"time"

	"github.com/w8kerr/rtmbot/internal/domain/entity"
	"github.com/w8kerr/rtmbot/internal/domain/logger"
	"github.com/w8kerr/rtmbot/internal/domain/repository"
)

// Source fetches one page of conversation history. An empty cursor starts
// from the newest messages; NextCursor from the previous page continues.
type Source interface {
	FetchHistoryPage(ctx context.Context, conversationID, cursor string) (*entity.HistoryPage, error)
}

// Resolver maps a user identifier to a display name.
type Resolver interface {
	Resolve(id string) (string, error)
}

// Metrics records pagination progress. A nil Metrics disables recording.
type Metrics interface {
	HistoryPageFetched(ctx context.Context, lines int)
}

// DefaultPreDelay paces the first fetch so large backfills do not burst
// the upstream service.
const DefaultPreDelay = 500 * time.Millisecond

// Fetcher retrieves a conversation's complete message history by following
// cursor-based pagination, normalizing each message into a display line.
type Fetcher struct {
	source      Source
	resolver    Resolver
	transcripts repository.TranscriptRepository // optional archive
	logger      logger.Logger
	metrics     Metrics
	preDelay    time.Duration
}

// NewFetcher creates a history fetcher. transcripts and metrics may be
// nil, in which case nothing is archived or recorded.
func NewFetcher(source Source, resolver Resolver, transcripts repository.TranscriptRepository, log logger.Logger, metrics Metrics, preDelay time.Duration) *Fetcher {
	if preDelay < DefaultPreDelay {
		preDelay = DefaultPreDelay
	}
	return &Fetcher{
		source:      source,
		resolver:    resolver,
		transcripts: transcripts,
		logger:      log,
		metrics:     metrics,
		preDelay:    preDelay,
	}
}

// FetchTranscript returns the conversation's history as display lines,
// oldest page last, in upstream arrival order.
//
// Upstream failure mid-pagination terminates the loop and returns whatever
// has been accumulated so far; partial results are acceptable. An
// unresolved sender id aborts the current page's normalization and
// propagates ErrUnknownIdentifier alongside the lines accumulated before
// that page.
func (f *Fetcher) FetchTranscript(ctx context.Context, conversationID string) ([]string, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(f.preDelay):
	}

	var lines []string
	cursor := ""

	for {
		page, err := f.source.FetchHistoryPage(ctx, conversationID, cursor)
		if err != nil {
			f.logger.Warn("history fetch failed mid-pagination, returning partial transcript",
				"conversation", conversationID,
				"cursor", cursor,
				"lines", len(lines),
				"error", err)
			return lines, nil
		}

		if f.metrics != nil {
			f.metrics.HistoryPageFetched(ctx, len(page.Messages))
		}

		entries, err := f.normalizePage(conversationID, page)
		if err != nil {
			return lines, fmt.Errorf("normalizing history page: %w", err)
		}

		for _, e := range entries {
			lines = append(lines, e.Line())
		}

		if f.transcripts != nil && len(entries) > 0 {
			if err := f.transcripts.SaveEntries(ctx, entries); err != nil {
				// Archiving is best-effort; the transcript itself still stands.
				f.logger.Error("failed to archive transcript page",
					"conversation", conversationID,
					"entries", len(entries),
					"error", err)
			}
		}

		if !page.HasMore {
			return lines, nil
		}
		cursor = page.NextCursor
	}
}

// normalizePage resolves senders and converts a page's messages into
// transcript entries. An unresolved sender aborts the whole page.
func (f *Fetcher) normalizePage(conversationID string, page *entity.HistoryPage) ([]*entity.TranscriptEntry, error) {
	entries := make([]*entity.TranscriptEntry, 0, len(page.Messages))
	for _, msg := range page.Messages {
		name, err := f.resolver.Resolve(msg.SenderID)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entity.NewTranscriptEntry(conversationID, msg, name))
	}
	return entries, nil
}
