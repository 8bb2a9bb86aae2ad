package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/w8kerr/rtmbot/internal/domain/entity"
	"github.com/w8kerr/rtmbot/internal/domain/repository"
)

// TranscriptRepository provides an in-memory implementation of
// repository.TranscriptRepository. Thread-safe for concurrent access.
type TranscriptRepository struct {
	mu             sync.RWMutex
	entries        map[string]*entity.TranscriptEntry // id -> entry
	byConversation map[string][]string                // conversation id -> entry IDs
}

// NewTranscriptRepository creates a new in-memory transcript repository.
func NewTranscriptRepository() *TranscriptRepository {
	return &TranscriptRepository{
		entries:        make(map[string]*entity.TranscriptEntry),
		byConversation: make(map[string][]string),
	}
}

// SaveEntries persists a batch of transcript entries. The batch is
// all-or-nothing: a duplicate id anywhere in it leaves the store untouched.
func (r *TranscriptRepository) SaveEntries(ctx context.Context, entries []*entity.TranscriptEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if _, exists := r.entries[e.ID]; exists {
			return repository.ErrAlreadyExists
		}
		if _, dup := seen[e.ID]; dup {
			return repository.ErrAlreadyExists
		}
		seen[e.ID] = struct{}{}
	}

	for _, e := range entries {
		// Store a copy to prevent external mutations
		entryCopy := *e
		r.entries[e.ID] = &entryCopy
		r.byConversation[e.ConversationID] = append(r.byConversation[e.ConversationID], e.ID)
	}
	return nil
}

// FindByConversation returns all entries for a conversation ordered by
// message timestamp.
func (r *TranscriptRepository) FindByConversation(ctx context.Context, conversationID string) ([]*entity.TranscriptEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := r.byConversation[conversationID]
	entries := make([]*entity.TranscriptEntry, 0, len(ids))
	for _, id := range ids {
		if e, ok := r.entries[id]; ok {
			entryCopy := *e
			entries = append(entries, &entryCopy)
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Timestamp.Before(entries[j].Timestamp)
	})
	return entries, nil
}

// CountByConversation returns the number of stored entries for a conversation.
func (r *TranscriptRepository) CountByConversation(ctx context.Context, conversationID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byConversation[conversationID]), nil
}
