package reconcile

import (
	"context"
	"log"
	"time"

	"orgtrust/internal/domain"
	"orgtrust/internal/ledger"
	"orgtrust/internal/platform/metrics"
	"orgtrust/internal/scan"
	"orgtrust/internal/store"
)

// DocumentCache is the slice of the document cache the reconciler drops
// entries from when the on-chain pointer or hash changes. A nil cache means
// documents are fetched straight from the origin.
type DocumentCache interface {
	Invalidate(ctx context.Context, uri string) error
}

// Reconciler maps registry events onto targeted re-resolutions. Events are
// processed strictly in ledger order, one at a time, so a parent
// re-resolution always lands before its dependent subsidiary's.
type Reconciler struct {
	gateway  ledger.Gateway
	resolver scan.Resolver
	profiles store.ProfileStore
	cache    DocumentCache
	log      *log.Logger
	metrics  *metrics.Metrics

	lookback uint64
	interval time.Duration
	cursor   uint64
}

func NewReconciler(gateway ledger.Gateway, resolver scan.Resolver, profiles store.ProfileStore, cache DocumentCache, logger *log.Logger, m *metrics.Metrics, lookback uint64, interval time.Duration) *Reconciler {
	if interval == 0 {
		interval = 15 * time.Second
	}
	return &Reconciler{
		gateway:  gateway,
		resolver: resolver,
		profiles: profiles,
		cache:    cache,
		log:      logger,
		metrics:  m,
		lookback: lookback,
		interval: interval,
	}
}

// Run polls the ledger for registry events until the context ends. The
// cursor starts a fixed lookback behind the current height so events missed
// across a restart are replayed. The cursor lives in memory only, so restart
// recovery relies on the lookback margin rather than a persisted position.
func (r *Reconciler) Run(ctx context.Context) error {
	height, err := r.gateway.GetCurrentBlock(ctx)
	if err != nil {
		return err
	}
	r.cursor = 0
	if height > r.lookback {
		r.cursor = height - r.lookback
	}
	r.log.Printf("event reconciler: starting from block %d (height %d)", r.cursor, height)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		if err := r.poll(ctx); err != nil {
			// Ledger hiccups are retried on the next tick.
			r.log.Printf("event reconciler: poll: %v", err)
		}
	}
}

func (r *Reconciler) poll(ctx context.Context) error {
	height, err := r.gateway.GetCurrentBlock(ctx)
	if err != nil {
		return err
	}
	if height < r.cursor {
		return nil
	}
	events, err := r.gateway.GetEvents(ctx, r.cursor, height)
	if err != nil {
		return err
	}
	for _, event := range events {
		r.Handle(ctx, event)
	}
	r.cursor = height + 1
	return nil
}

// Handle processes one event to completion. Per-event failures are isolated:
// they are logged and the event is skipped, never crashing the loop.
func (r *Reconciler) Handle(ctx context.Context, event ledger.Event) {
	r.metrics.IncEventsProcessed(string(event.Kind))

	switch event.Kind {
	case ledger.EventOrgJSONURIChanged,
		ledger.EventOrgJSONHashChanged:
		// The cached copy of the document predates the change and must not
		// feed the re-resolution.
		r.invalidateDocument(ctx, event)
		r.reresolve(ctx, event)

	case ledger.EventOrganizationCreated,
		ledger.EventOwnershipTransferred,
		ledger.EventDepositAdded,
		ledger.EventWithdrawalRequested,
		ledger.EventDepositWithdrawn:
		r.reresolve(ctx, event)

	case ledger.EventSubsidiaryCreated:
		parent, err := r.resolver.Resolve(ctx, event.OrgID)
		if err != nil {
			r.log.Printf("event %s: %v", event.Kind, err)
			return
		}
		r.upsert(ctx, event, parent)
		sub, err := r.resolver.ResolveWithParent(ctx, event.SubOrgID, parent)
		if err != nil {
			r.log.Printf("event %s: %v", event.Kind, err)
			return
		}
		r.upsert(ctx, event, sub)

	case ledger.EventWithdrawDelayChanged:
		// Deposit delay configuration does not affect any profile.

	default:
		// Forward compatible: future event kinds never crash the loop.
		r.log.Printf("event: no reaction behavior for %q (%s)", event.Kind, event.Raw)
	}
}

// invalidateDocument drops the cached document for the organization's last
// known URI. The URI comes from the stored profile; an organization we have
// never resolved has nothing cached under any key we could name.
func (r *Reconciler) invalidateDocument(ctx context.Context, event ledger.Event) {
	if r.cache == nil {
		return
	}
	profile, err := r.profiles.Get(ctx, event.OrgID)
	if err != nil {
		return
	}
	if err := r.cache.Invalidate(ctx, profile.JSONURI); err != nil {
		r.log.Printf("event %s: invalidate %s: %v", event.Kind, profile.JSONURI, err)
	}
}

func (r *Reconciler) reresolve(ctx context.Context, event ledger.Event) {
	profile, err := r.resolver.Resolve(ctx, event.OrgID)
	if err != nil {
		r.log.Printf("event %s: %v", event.Kind, err)
		return
	}
	r.upsert(ctx, event, profile)
}

func (r *Reconciler) upsert(ctx context.Context, event ledger.Event, profile *domain.Profile) {
	if err := r.profiles.Upsert(ctx, profile); err != nil {
		r.log.Printf("event %s: upsert %s: %v", event.Kind, profile.OrgID, err)
		return
	}
	r.metrics.IncProfilesUpserted()
}
