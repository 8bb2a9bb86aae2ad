package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/w8kerr/rtmbot/internal/domain/entity"
)

func setupTranscriptRepo(t *testing.T) (*DB, *TranscriptRepository) {
	t.Helper()

	db, err := NewDB(":memory:")
	require.NoError(t, err)

	err = db.Migrate(context.Background())
	require.NoError(t, err)

	return db, NewTranscriptRepository(db.DB)
}

func testEntry(id, conversationID string, ts int64, sender, text string) *entity.TranscriptEntry {
	return &entity.TranscriptEntry{
		ID:             id,
		ConversationID: conversationID,
		Timestamp:      time.Unix(ts, 0).UTC(),
		SenderName:     sender,
		Text:           text,
		FetchedAt:      time.Now().UTC(),
	}
}

func TestTranscriptRepository_SaveEntries(t *testing.T) {
	db, repo := setupTranscriptRepo(t)
	defer db.Close()

	ctx := context.Background()
	err := repo.SaveEntries(ctx, []*entity.TranscriptEntry{
		testEntry("e1", "C1", 1700000000, "Alice", "hello"),
		testEntry("e2", "C1", 1700000060, "Bob", "hi back"),
	})
	require.NoError(t, err)

	found, err := repo.FindByConversation(ctx, "C1")
	require.NoError(t, err)
	require.Len(t, found, 2)

	assert.Equal(t, "e1", found[0].ID)
	assert.Equal(t, "Alice", found[0].SenderName)
	assert.Equal(t, "hello", found[0].Text)
	assert.Equal(t, time.Unix(1700000000, 0).UTC(), found[0].Timestamp)
}

func TestTranscriptRepository_SaveEntries_Empty(t *testing.T) {
	db, repo := setupTranscriptRepo(t)
	defer db.Close()

	err := repo.SaveEntries(context.Background(), nil)
	assert.NoError(t, err)
}

func TestTranscriptRepository_SaveEntries_DuplicateRollsBack(t *testing.T) {
	db, repo := setupTranscriptRepo(t)
	defer db.Close()

	ctx := context.Background()
	require.NoError(t, repo.SaveEntries(ctx, []*entity.TranscriptEntry{
		testEntry("e1", "C1", 1700000000, "Alice", "hello"),
	}))

	// The batch fails on the duplicate id and nothing from it is kept.
	err := repo.SaveEntries(ctx, []*entity.TranscriptEntry{
		testEntry("e2", "C1", 1700000060, "Bob", "new"),
		testEntry("e1", "C1", 1700000000, "Alice", "dup"),
	})
	require.Error(t, err)

	count, err := repo.CountByConversation(ctx, "C1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestTranscriptRepository_FindByConversation_Ordering(t *testing.T) {
	db, repo := setupTranscriptRepo(t)
	defer db.Close()

	ctx := context.Background()
	require.NoError(t, repo.SaveEntries(ctx, []*entity.TranscriptEntry{
		testEntry("e2", "C1", 1700000060, "Bob", "later"),
		testEntry("e1", "C1", 1700000000, "Alice", "earlier"),
	}))

	found, err := repo.FindByConversation(ctx, "C1")
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "earlier", found[0].Text)
	assert.Equal(t, "later", found[1].Text)
}

func TestTranscriptRepository_FindByConversation_Isolated(t *testing.T) {
	db, repo := setupTranscriptRepo(t)
	defer db.Close()

	ctx := context.Background()
	require.NoError(t, repo.SaveEntries(ctx, []*entity.TranscriptEntry{
		testEntry("e1", "C1", 1700000000, "Alice", "c1 message"),
		testEntry("e2", "C2", 1700000001, "Bob", "c2 message"),
	}))

	found, err := repo.FindByConversation(ctx, "C2")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "c2 message", found[0].Text)

	found, err = repo.FindByConversation(ctx, "C3")
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestTranscriptRepository_CountByConversation(t *testing.T) {
	db, repo := setupTranscriptRepo(t)
	defer db.Close()

	ctx := context.Background()
	require.NoError(t, repo.SaveEntries(ctx, []*entity.TranscriptEntry{
		testEntry("e1", "C1", 1700000000, "Alice", "a"),
		testEntry("e2", "C1", 1700000060, "Bob", "b"),
	}))

	count, err := repo.CountByConversation(ctx, "C1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
