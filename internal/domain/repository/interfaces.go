package repository

import (
	"context"

	"github.com/w8kerr/rtmbot/internal/domain/entity"
)

// TranscriptRepository stores normalized transcript entries produced by
// conversation backfills.
type TranscriptRepository interface {
	// SaveEntries persists a batch of transcript entries.
	SaveEntries(ctx context.Context, entries []*entity.TranscriptEntry) error

	// FindByConversation returns all stored entries for a conversation,
	// ordered by message timestamp.
	FindByConversation(ctx context.Context, conversationID string) ([]*entity.TranscriptEntry, error)

	// CountByConversation returns the number of stored entries for a
	// conversation.
	CountByConversation(ctx context.Context, conversationID string) (int, error)
}
