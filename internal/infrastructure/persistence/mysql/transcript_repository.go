package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/w8kerr/rtmbot/internal/domain/entity"
)

// TranscriptRepository is the MySQL implementation of
// repository.TranscriptRepository.
type TranscriptRepository struct {
	db *sql.DB
}

// NewTranscriptRepository creates a MySQL transcript repository.
func NewTranscriptRepository(db *DB) *TranscriptRepository {
	return &TranscriptRepository{db: db.DB}
}

// SaveEntries persists a batch of transcript entries in one transaction.
func (r *TranscriptRepository) SaveEntries(ctx context.Context, entries []*entity.TranscriptEntry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO transcript_entries (id, conversation_id, ts, sender_name, text, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		_, err := stmt.ExecContext(ctx,
			e.ID,
			e.ConversationID,
			e.Timestamp.Unix(),
			e.SenderName,
			e.Text,
			e.FetchedAt.Unix(),
		)
		if err != nil {
			return fmt.Errorf("insert entry %s: %w", e.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// FindByConversation returns all entries for a conversation ordered by
// message timestamp.
func (r *TranscriptRepository) FindByConversation(ctx context.Context, conversationID string) ([]*entity.TranscriptEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, conversation_id, ts, sender_name, text, fetched_at
		FROM transcript_entries
		WHERE conversation_id = ?
		ORDER BY ts ASC`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("query transcript: %w", err)
	}
	defer rows.Close()

	var entries []*entity.TranscriptEntry
	for rows.Next() {
		var e entity.TranscriptEntry
		var ts, fetchedAt int64
		if err := rows.Scan(&e.ID, &e.ConversationID, &ts, &e.SenderName, &e.Text, &fetchedAt); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		e.Timestamp = time.Unix(ts, 0).UTC()
		e.FetchedAt = time.Unix(fetchedAt, 0).UTC()
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

// CountByConversation returns the number of stored entries for a conversation.
func (r *TranscriptRepository) CountByConversation(ctx context.Context, conversationID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM transcript_entries WHERE conversation_id = ?",
		conversationID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count transcript: %w", err)
	}
	return count, nil
}
