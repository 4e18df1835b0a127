package ledger

import (
	"context"
	"errors"
	"math/big"

	"orgtrust/internal/domain"
)

// ErrNotFound is returned when the registry has no record for an identifier.
var ErrNotFound = errors.New("organization not found")

// OrganizationRecord is the on-chain registry entry for one identifier,
// read-only from this service's point of view.
type OrganizationRecord struct {
	OrgID             domain.OrgID
	JSONURI           string
	JSONHash          string
	ParentEntity      domain.OrgID
	Owner             string
	Director          string
	State             bool
	DirectorConfirmed bool
	Deposit           *big.Int
}

// IsTopLevel reports whether the record's parent field is the no-parent
// sentinel.
func (r OrganizationRecord) IsTopLevel() bool {
	return r.ParentEntity.IsZero()
}

// EventKind tags the registry event variants this service reacts to.
type EventKind string

const (
	EventOrganizationCreated   EventKind = "OrganizationCreated"
	EventOwnershipTransferred  EventKind = "OrganizationOwnershipTransferred"
	EventOrgJSONURIChanged     EventKind = "OrgJsonUriChanged"
	EventOrgJSONHashChanged    EventKind = "OrgJsonHashChanged"
	EventDepositAdded          EventKind = "LifDepositAdded"
	EventWithdrawalRequested   EventKind = "WithdrawalRequested"
	EventDepositWithdrawn      EventKind = "DepositWithdrawn"
	EventSubsidiaryCreated     EventKind = "SubsidiaryCreated"
	EventWithdrawDelayChanged  EventKind = "WithdrawDelayChanged"
)

// Event is one registry log entry. OrgID carries the affected identifier for
// every kind that has one; SubOrgID is set only for SubsidiaryCreated, where
// OrgID then holds the parent. Unknown kinds are passed through with Raw set
// so the reconciler can log them.
type Event struct {
	Kind     EventKind
	OrgID    domain.OrgID
	SubOrgID domain.OrgID
	Block    uint64
	Raw      string
}

// Gateway is the read-only view of the on-chain registry. Implementations
// wrap a blockchain client; the resolver and drivers depend only on this
// interface.
type Gateway interface {
	// GetOrganization loads the registry record for id, or ErrNotFound.
	GetOrganization(ctx context.Context, id domain.OrgID) (OrganizationRecord, error)

	// GetSubsidiaries lists the directly registered subsidiaries of id.
	GetSubsidiaries(ctx context.Context, id domain.OrgID) ([]domain.OrgID, error)

	// GetOrganizations lists all top-level identifiers in the registry.
	GetOrganizations(ctx context.Context) ([]domain.OrgID, error)

	// GetCurrentBlock returns the ledger height.
	GetCurrentBlock(ctx context.Context) (uint64, error)

	// GetEvents returns registry events in ledger order for the half-open
	// block range [from, to].
	GetEvents(ctx context.Context, from, to uint64) ([]Event, error)
}
