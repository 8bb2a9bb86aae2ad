package history

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/w8kerr/rtmbot/internal/domain/entity"
	domainerrors "github.com/w8kerr/rtmbot/internal/domain/errors"
	"github.com/w8kerr/rtmbot/internal/domain/logger"
)

// scriptedSource replays a fixed sequence of pages, one per call, and
// fails once the script runs out.
type scriptedSource struct {
	pages   []*entity.HistoryPage
	errs    []error
	calls   int
	cursors []string
}

func (s *scriptedSource) FetchHistoryPage(_ context.Context, _ string, cursor string) (*entity.HistoryPage, error) {
	s.cursors = append(s.cursors, cursor)
	i := s.calls
	s.calls++
	if i >= len(s.pages) {
		return nil, errors.New("fetch past end of script")
	}
	if s.errs != nil && s.errs[i] != nil {
		return nil, s.errs[i]
	}
	return s.pages[i], nil
}

// mapResolver resolves from a fixed map.
type mapResolver map[string]string

func (r mapResolver) Resolve(id string) (string, error) {
	name, ok := r[id]
	if !ok {
		return "", fmt.Errorf("resolving %q: %w", id, domainerrors.ErrUnknownIdentifier)
	}
	return name, nil
}

// captureRepo records saved batches and optionally fails.
type captureRepo struct {
	saved    []*entity.TranscriptEntry
	failWith error
}

func (r *captureRepo) SaveEntries(_ context.Context, entries []*entity.TranscriptEntry) error {
	if r.failWith != nil {
		return r.failWith
	}
	r.saved = append(r.saved, entries...)
	return nil
}

func (r *captureRepo) FindByConversation(context.Context, string) ([]*entity.TranscriptEntry, error) {
	return nil, nil
}

func (r *captureRepo) CountByConversation(context.Context, string) (int, error) {
	return 0, nil
}

func msg(ts int64, sender, text string) entity.HistoryMessage {
	return entity.HistoryMessage{TimestampSeconds: ts, SenderID: sender, Text: text}
}

func TestFetchTranscript_FollowsCursors(t *testing.T) {
	source := &scriptedSource{pages: []*entity.HistoryPage{
		{Messages: []entity.HistoryMessage{msg(1700000000, "U1", "newest")}, HasMore: true, NextCursor: "c1"},
		{Messages: []entity.HistoryMessage{msg(1600000000, "U2", "middle")}, HasMore: true, NextCursor: "c2"},
		{Messages: []entity.HistoryMessage{msg(1500000000, "U1", "oldest")}, HasMore: false},
	}}
	f := NewFetcher(source, mapResolver{"U1": "Alice", "U2": "Bob"}, nil, logger.Nop{}, nil, 0)

	lines, err := f.FetchTranscript(context.Background(), "C1")
	if err != nil {
		t.Fatalf("failed to fetch transcript: %v", err)
	}

	if source.calls != 3 {
		t.Errorf("expected 3 page fetches, got %d", source.calls)
	}
	wantCursors := []string{"", "c1", "c2"}
	for i, want := range wantCursors {
		if source.cursors[i] != want {
			t.Errorf("fetch %d: expected cursor %q, got %q", i, want, source.cursors[i])
		}
	}

	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d: %v", len(lines), lines)
	}
	if lines[0] != "2023-11-14 22:13:20 Alice: newest" {
		t.Errorf("unexpected first line: %q", lines[0])
	}
	if !strings.Contains(lines[1], "Bob: middle") {
		t.Errorf("unexpected second line: %q", lines[1])
	}
}

func TestFetchTranscript_StopsWhenNoMore(t *testing.T) {
	source := &scriptedSource{pages: []*entity.HistoryPage{
		{Messages: []entity.HistoryMessage{msg(1700000000, "U1", "only")}, HasMore: false, NextCursor: "stale"},
	}}
	f := NewFetcher(source, mapResolver{"U1": "Alice"}, nil, logger.Nop{}, nil, 0)

	if _, err := f.FetchTranscript(context.Background(), "C1"); err != nil {
		t.Fatalf("failed to fetch transcript: %v", err)
	}
	if source.calls != 1 {
		t.Errorf("expected no fetch after HasMore=false, got %d calls", source.calls)
	}
}

func TestFetchTranscript_PartialOnUpstreamFailure(t *testing.T) {
	source := &scriptedSource{
		pages: []*entity.HistoryPage{
			{Messages: []entity.HistoryMessage{msg(1700000000, "U1", "first")}, HasMore: true, NextCursor: "c1"},
			nil,
		},
		errs: []error{nil, domainerrors.NewUpstreamError("conversations.history", errors.New("ratelimited"))},
	}
	f := NewFetcher(source, mapResolver{"U1": "Alice"}, nil, logger.Nop{}, nil, 0)

	lines, err := f.FetchTranscript(context.Background(), "C1")
	if err != nil {
		t.Fatalf("expected partial results without error, got %v", err)
	}
	if len(lines) != 1 {
		t.Fatalf("expected the first page's line, got %v", lines)
	}
	if !strings.Contains(lines[0], "Alice: first") {
		t.Errorf("unexpected line: %q", lines[0])
	}
}

func TestFetchTranscript_UnresolvedSenderAborts(t *testing.T) {
	source := &scriptedSource{pages: []*entity.HistoryPage{
		{Messages: []entity.HistoryMessage{msg(1700000000, "U1", "known")}, HasMore: true, NextCursor: "c1"},
		{Messages: []entity.HistoryMessage{msg(1600000000, "U404", "ghost")}, HasMore: false},
	}}
	f := NewFetcher(source, mapResolver{"U1": "Alice"}, nil, logger.Nop{}, nil, 0)

	lines, err := f.FetchTranscript(context.Background(), "C1")
	if !errors.Is(err, domainerrors.ErrUnknownIdentifier) {
		t.Fatalf("expected ErrUnknownIdentifier, got %v", err)
	}
	if len(lines) != 1 {
		t.Errorf("expected lines accumulated before the bad page, got %v", lines)
	}
}

func TestFetchTranscript_ArchivesEntries(t *testing.T) {
	source := &scriptedSource{pages: []*entity.HistoryPage{
		{Messages: []entity.HistoryMessage{
			msg(1700000000, "U1", "a"),
			msg(1700000001, "U1", "b"),
		}, HasMore: false},
	}}
	repo := &captureRepo{}
	f := NewFetcher(source, mapResolver{"U1": "Alice"}, repo, logger.Nop{}, nil, 0)

	if _, err := f.FetchTranscript(context.Background(), "C1"); err != nil {
		t.Fatalf("failed to fetch transcript: %v", err)
	}
	if len(repo.saved) != 2 {
		t.Fatalf("expected 2 archived entries, got %d", len(repo.saved))
	}
	if repo.saved[0].ConversationID != "C1" || repo.saved[0].SenderName != "Alice" {
		t.Errorf("unexpected archived entry: %+v", repo.saved[0])
	}
}

func TestFetchTranscript_ArchiveFailureIsBestEffort(t *testing.T) {
	source := &scriptedSource{pages: []*entity.HistoryPage{
		{Messages: []entity.HistoryMessage{msg(1700000000, "U1", "a")}, HasMore: false},
	}}
	repo := &captureRepo{failWith: errors.New("disk full")}
	f := NewFetcher(source, mapResolver{"U1": "Alice"}, repo, logger.Nop{}, nil, 0)

	lines, err := f.FetchTranscript(context.Background(), "C1")
	if err != nil {
		t.Fatalf("expected archive failure to be swallowed, got %v", err)
	}
	if len(lines) != 1 {
		t.Errorf("expected the transcript line regardless, got %v", lines)
	}
}

func TestFetchTranscript_CancelledBeforeDelay(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	source := &scriptedSource{}
	f := NewFetcher(source, mapResolver{}, nil, logger.Nop{}, nil, 0)

	start := time.Now()
	_, err := f.FetchTranscript(ctx, "C1")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if source.calls != 0 {
		t.Errorf("expected no fetch after cancellation, got %d calls", source.calls)
	}
	if time.Since(start) > DefaultPreDelay {
		t.Error("expected cancellation to preempt the pre-delay")
	}
}
