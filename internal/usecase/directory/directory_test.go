package directory

import (
	"context"
	"errors"
	"testing"

	"github.com/w8kerr/rtmbot/internal/domain/entity"
	domainerrors "github.com/w8kerr/rtmbot/internal/domain/errors"
)

type stubLister struct {
	members []entity.Member
	err     error
}

func (s *stubLister) ListMembers(_ context.Context) ([]entity.Member, error) {
	return s.members, s.err
}

func TestDirectory_LoadAndResolve(t *testing.T) {
	d := New()
	lister := &stubLister{members: []entity.Member{
		{ID: "U1", DisplayName: "Alice"},
		{ID: "U2", DisplayName: "Bob"},
	}}

	n, err := d.Load(context.Background(), lister)
	if err != nil {
		t.Fatalf("failed to load directory: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 entries loaded, got %d", n)
	}
	if d.Len() != 2 {
		t.Errorf("expected Len 2, got %d", d.Len())
	}

	name, err := d.Resolve("U1")
	if err != nil {
		t.Fatalf("failed to resolve U1: %v", err)
	}
	if name != "Alice" {
		t.Errorf("expected Alice, got %s", name)
	}
}

func TestDirectory_ResolveUnknown(t *testing.T) {
	d := New()

	_, err := d.Resolve("U404")
	if !errors.Is(err, domainerrors.ErrUnknownIdentifier) {
		t.Errorf("expected ErrUnknownIdentifier, got %v", err)
	}
}

func TestDirectory_LoadOverwrites(t *testing.T) {
	d := New()
	ctx := context.Background()

	if _, err := d.Load(ctx, &stubLister{members: []entity.Member{{ID: "U1", DisplayName: "Alice"}}}); err != nil {
		t.Fatalf("failed first load: %v", err)
	}
	if _, err := d.Load(ctx, &stubLister{members: []entity.Member{{ID: "U2", DisplayName: "Bob"}}}); err != nil {
		t.Fatalf("failed second load: %v", err)
	}

	if _, err := d.Resolve("U1"); !errors.Is(err, domainerrors.ErrUnknownIdentifier) {
		t.Errorf("expected U1 gone after reload, got %v", err)
	}
	if name, err := d.Resolve("U2"); err != nil || name != "Bob" {
		t.Errorf("expected Bob after reload, got %q, %v", name, err)
	}
}

func TestDirectory_LoadFailureWrapsUpstream(t *testing.T) {
	d := New()
	lister := &stubLister{err: errors.New("invalid_auth")}

	_, err := d.Load(context.Background(), lister)
	if err == nil {
		t.Fatal("expected load to fail")
	}

	var upstream *domainerrors.UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if upstream.Op != "users.list" {
		t.Errorf("expected op users.list, got %s", upstream.Op)
	}
	if d.Len() != 0 {
		t.Errorf("expected directory untouched on failure, got %d entries", d.Len())
	}
}
