package trust

import (
	"context"
	"math/big"
	"time"

	"golang.org/x/sync/errgroup"

	"orgtrust/internal/doccheck"
	"orgtrust/internal/domain"
	"orgtrust/internal/ledger"
	"orgtrust/internal/platform/metrics"
	"orgtrust/internal/proof"
)

// Validator checks an off-chain document against its on-chain commitment.
type Validator interface {
	Validate(ctx context.Context, uri, commitment string) doccheck.Result
}

// LinkChecker is the combined DNS-then-website ownership proof.
type LinkChecker interface {
	Check(ctx context.Context, website string, subject domain.OrgID) proof.Outcome
}

// TLSChecker binds a legal name to an already-verified domain.
type TLSChecker interface {
	Check(ctx context.Context, website, expectedLegalName string) proof.Outcome
}

// SocialChecker verifies a social post proof for one platform.
type SocialChecker interface {
	Check(ctx context.Context, platform, proofURI string, subject domain.OrgID) proof.Outcome
}

// DepositChecker verifies the token deposit threshold.
type DepositChecker interface {
	Check(rawDeposit *big.Int) proof.Outcome
}

// Resolver produces trust-scored profiles for registry identifiers. It is
// the orchestrator: ledger record, document validation, proof gathering,
// scoring, and hierarchy resolution.
type Resolver struct {
	gateway   ledger.Gateway
	validator Validator
	link      LinkChecker
	tlsCheck  TLSChecker
	social    SocialChecker
	deposit   DepositChecker
	metrics   *metrics.Metrics
	now       func() time.Time
}

func NewResolver(
	gateway ledger.Gateway,
	validator Validator,
	link LinkChecker,
	tlsCheck TLSChecker,
	social SocialChecker,
	deposit DepositChecker,
	m *metrics.Metrics,
) *Resolver {
	return &Resolver{
		gateway:   gateway,
		validator: validator,
		link:      link,
		tlsCheck:  tlsCheck,
		social:    social,
		deposit:   deposit,
		metrics:   m,
		now:       time.Now,
	}
}

// Resolve produces the profile for one identifier, resolving its parent
// first when the registry lists one.
func (r *Resolver) Resolve(ctx context.Context, id domain.OrgID) (*domain.Profile, error) {
	return r.resolve(ctx, id, nil, map[domain.OrgID]bool{})
}

// ResolveWithParent produces the profile for a subsidiary using an already
// resolved parent profile, avoiding a redundant parent re-resolution.
func (r *Resolver) ResolveWithParent(ctx context.Context, id domain.OrgID, parent *domain.Profile) (*domain.Profile, error) {
	return r.resolve(ctx, id, parent, map[domain.OrgID]bool{})
}

// resolve is the full state machine for one identifier. path holds every
// identifier on the active call chain; an identifier recurring there means
// the registry contains a parent cycle and recursion must stop.
func (r *Resolver) resolve(ctx context.Context, id domain.OrgID, parent *domain.Profile, path map[domain.OrgID]bool) (*domain.Profile, error) {
	if path[id] {
		return nil, failure(id, "hierarchy", ErrCyclicHierarchy)
	}
	path[id] = true
	defer delete(path, id)

	r.metrics.IncResolutionAttempts()
	checkedAt := r.now()

	record, err := r.gateway.GetOrganization(ctx, id)
	if err != nil {
		r.metrics.IncResolutionFailures("fetch")
		return nil, failure(id, "fetch", err)
	}

	if parent != nil && record.ParentEntity != parent.OrgID {
		r.metrics.IncResolutionFailures("hierarchy")
		return nil, failure(id, "hierarchy", ErrInconsistentParent)
	}

	result := r.validator.Validate(ctx, record.JSONURI, record.JSONHash)
	if result.Document == nil {
		r.metrics.IncResolutionFailures("validate")
		return nil, failure(id, "validate", ErrMissingDocument)
	}
	doc := result.Document

	profile := &domain.Profile{
		OrgID:             id,
		Owner:             record.Owner,
		Director:          record.Director,
		State:             record.State,
		DirectorConfirmed: record.DirectorConfirmed,
		Kind:              doc.Kind(),
		Directory:         doc.Directory(),
		Name:              doc.Name(),
		Logo:              doc.Logo(),
		Country:           doc.Country(),
		IsJSONValid:       result.Valid,
		JSONHash:          record.JSONHash,
		JSONHashComputed:  result.HashComputed,
		JSONURI:           record.JSONURI,
		Document:          doc,
		CheckedAt:         checkedAt,
	}

	profile.Proofs = r.gatherProofs(ctx, id, record, doc)
	profile.Rescore()

	if err := r.resolveHierarchy(ctx, record, parent, profile, path); err != nil {
		r.metrics.IncResolutionFailures("hierarchy")
		return nil, err
	}

	profile.UpdatedAt = r.now()
	r.metrics.IncResolutionsResolved()
	return profile, nil
}

// gatherProofs runs the independent proof channels concurrently. The TLS
// check is sequenced after the link proof inside its goroutine because a
// certificate only means something for a domain whose ownership is already
// established. Channel failures never fail the resolution.
func (r *Resolver) gatherProofs(ctx context.Context, id domain.OrgID, record ledger.OrganizationRecord, doc *domain.OrganizationDocument) domain.Proofs {
	var proofs domain.Proofs
	website := doc.Website()
	legalName := doc.Name()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if website == "" {
			return nil
		}
		linkOutcome := r.link.Check(ctx, website, id)
		proofs.Website = linkOutcome.Bool()
		if proofs.Website {
			proofs.TLS = r.tlsCheck.Check(ctx, website, legalName).Bool()
		}
		return nil
	})
	g.Go(func() error {
		if uri := doc.SocialClue(proof.PlatformFacebook); uri != "" {
			proofs.SocialFacebook = r.social.Check(ctx, proof.PlatformFacebook, uri, id).Bool()
		}
		return nil
	})
	g.Go(func() error {
		if uri := doc.SocialClue(proof.PlatformTwitter); uri != "" {
			proofs.SocialTwitter = r.social.Check(ctx, proof.PlatformTwitter, uri, id).Bool()
		}
		return nil
	})
	g.Go(func() error {
		proofs.Deposit = r.deposit.Check(record.Deposit).Bool()
		return nil
	})

	// The goroutines write disjoint fields and only return nil.
	_ = g.Wait()

	r.metrics.ObserveProofs(proofs.Website, proofs.TLS, proofs.Deposit, proofs.SocialAny())
	return proofs
}

// resolveHierarchy attaches either the subsidiary list (top-level records)
// or the parent summary (subsidiaries). When a subsidiary is resolved on its
// own, its parent is resolved first; the summary always comes from a freshly
// resolved parent profile, never from the raw ledger record.
func (r *Resolver) resolveHierarchy(ctx context.Context, record ledger.OrganizationRecord, parent *domain.Profile, profile *domain.Profile, path map[domain.OrgID]bool) error {
	if record.IsTopLevel() {
		subsidiaries, err := r.gateway.GetSubsidiaries(ctx, record.OrgID)
		if err != nil {
			return failure(record.OrgID, "hierarchy", err)
		}
		profile.Subsidiaries = subsidiaries
		return nil
	}

	if parent == nil {
		resolved, err := r.resolve(ctx, record.ParentEntity, nil, path)
		if err != nil {
			return err
		}
		parent = resolved
	}
	profile.Parent = &domain.ParentSummary{
		OrgID:     parent.OrgID,
		Name:      parent.Name,
		ProofsQty: parent.ProofsQty,
	}
	return nil
}
