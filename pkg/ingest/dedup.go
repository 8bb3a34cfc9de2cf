package ingest

import (
	"context"

	"github.com/turnoutcrew/canvass/pkg/models"
	"github.com/turnoutcrew/canvass/pkg/normalizers"
)

// Identity is the composite natural key deciding whether two records denote
// the same real-world voter. The registrar id compares case-insensitively;
// address fields compare as stored, already normalized.
type Identity struct {
	RegistrarID string
	Street      string
	Country     string
	State       string
}

// NewIdentity builds the dedup identity for a candidate voter.
func NewIdentity(registrarID string, addr models.AddressFields) Identity {
	return Identity{
		RegistrarID: normalizers.Lowercase(registrarID),
		Street:      addr.Street,
		Country:     addr.Country,
		State:       addr.State,
	}
}

// VoterFinder looks up persisted voters by dedup identity. Only active voters
// count; an inactive voter with a matching key does not block a new one.
type VoterFinder interface {
	ActiveVoterExists(ctx context.Context, identity Identity) (bool, error)
}

// Deduper decides NEW versus DUPLICATE for one ingestion run. It keeps an
// explicit run-local set of identities already assigned this run, because a
// voter created mid-run is not reliably visible through the storage layer
// within the same transaction.
type Deduper struct {
	voters VoterFinder
	seen   map[Identity]struct{}
}

// NewDeduper creates a deduper for a single run.
func NewDeduper(voters VoterFinder) *Deduper {
	return &Deduper{
		voters: voters,
		seen:   make(map[Identity]struct{}),
	}
}

// IsDuplicate reports whether the identity was already assigned in this run
// or belongs to an active voter on file.
func (d *Deduper) IsDuplicate(ctx context.Context, identity Identity) (bool, error) {
	if _, ok := d.seen[identity]; ok {
		return true, nil
	}
	return d.voters.ActiveVoterExists(ctx, identity)
}

// MarkSeen records an identity assigned to a newly created voter, so later
// rows in the same file dedup against it. First occurrence wins.
func (d *Deduper) MarkSeen(identity Identity) {
	d.seen[identity] = struct{}{}
}
