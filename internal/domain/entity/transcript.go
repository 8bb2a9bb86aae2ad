package entity

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// HistoryMessage is one raw message from a conversation history page,
// before sender resolution and formatting.
type HistoryMessage struct {
	// TimestampSeconds is the message's wall-clock second. Fractional or
	// sequence suffixes in the raw stream timestamp are already discarded.
	TimestampSeconds int64
	SenderID         string
	Text             string
}

// HistoryPage is the result of one paginated history fetch.
type HistoryPage struct {
	Messages   []HistoryMessage
	HasMore    bool
	NextCursor string
}

// TranscriptEntry is one normalized line of a backfilled conversation
// transcript, suitable for persistence.
type TranscriptEntry struct {
	ID             string
	ConversationID string
	Timestamp      time.Time
	SenderName     string
	Text           string
	FetchedAt      time.Time
}

// NewTranscriptEntry creates a transcript entry from a history message and
// its resolved sender name.
func NewTranscriptEntry(conversationID string, msg HistoryMessage, senderName string) *TranscriptEntry {
	return &TranscriptEntry{
		ID:             uuid.New().String(),
		ConversationID: conversationID,
		Timestamp:      time.Unix(msg.TimestampSeconds, 0).UTC(),
		SenderName:     senderName,
		Text:           msg.Text,
		FetchedAt:      time.Now().UTC(),
	}
}

// Line renders the entry as a display line: "YYYY-MM-DD HH:MM:SS name: text".
func (e *TranscriptEntry) Line() string {
	return fmt.Sprintf("%s %s: %s", e.Timestamp.UTC().Format("2006-01-02 15:04:05"), e.SenderName, e.Text)
}

// Member is one entry of the workspace membership listing.
type Member struct {
	ID          string
	DisplayName string
}
