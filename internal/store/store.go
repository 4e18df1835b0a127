package store

import (
	"context"
	"errors"

	"orgtrust/internal/domain"
)

// ErrNotFound is returned when a requested profile does not exist.
var ErrNotFound = errors.New("profile not found")

// Filter narrows ListIdentifiers. The updater companion process uses
// FilterInvalid to pick broken entries for triage.
type Filter int

const (
	FilterAll Filter = iota
	FilterInvalid
)

// ProfileStore persists resolved profiles. Upserts for the same identifier
// are serialized by the implementation; last resolved wins.
type ProfileStore interface {
	// Upsert writes the profile, replacing any previous version.
	Upsert(ctx context.Context, profile *domain.Profile) error

	// Get loads one profile, or ErrNotFound.
	Get(ctx context.Context, id domain.OrgID) (*domain.Profile, error)

	// ListIdentifiers returns the identifiers of stored profiles matching
	// the filter.
	ListIdentifiers(ctx context.Context, filter Filter) ([]domain.OrgID, error)
}
