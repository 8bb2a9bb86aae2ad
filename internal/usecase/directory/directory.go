package directory

import (
	"context"
	"fmt"

	"github.com/w8kerr/rtmbot/internal/domain/entity"
	domainerrors "github.com/w8kerr/rtmbot/internal/domain/errors"
)

// MemberLister fetches the full workspace membership listing.
type MemberLister interface {
	ListMembers(ctx context.Context) ([]entity.Member, error)
}

// Directory maps opaque user identifiers to display names. It is populated
// once at startup and read-only for the rest of the session, so lookups
// need no synchronization. A future concurrent refresh would have to swap
// the whole map atomically.
type Directory struct {
	names map[string]string
}

// New creates an empty directory.
func New() *Directory {
	return &Directory{names: make(map[string]string)}
}

// Load populates the directory from a full membership listing, overwriting
// any prior contents. It returns the number of entries loaded, for
// diagnostics only.
func (d *Directory) Load(ctx context.Context, lister MemberLister) (int, error) {
	members, err := lister.ListMembers(ctx)
	if err != nil {
		return 0, domainerrors.NewUpstreamError("users.list", err)
	}

	names := make(map[string]string, len(members))
	for _, m := range members {
		names[m.ID] = m.DisplayName
	}
	d.names = names

	return len(names), nil
}

// Resolve returns the display name for a user identifier. It fails with
// ErrUnknownIdentifier for ids absent from the last Load; callers decide
// whether that is a hard or soft failure.
func (d *Directory) Resolve(id string) (string, error) {
	name, ok := d.names[id]
	if !ok {
		return "", fmt.Errorf("resolving %q: %w", id, domainerrors.ErrUnknownIdentifier)
	}
	return name, nil
}

// Len returns the number of known identifiers.
func (d *Directory) Len() int {
	return len(d.names)
}
