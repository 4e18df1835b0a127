package scan

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"orgtrust/internal/domain"
	"orgtrust/internal/ledger"
	"orgtrust/internal/platform/metrics"
	"orgtrust/internal/store"
)

// Resolver is the slice of the trust resolver the drivers need.
type Resolver interface {
	Resolve(ctx context.Context, id domain.OrgID) (*domain.Profile, error)
	ResolveWithParent(ctx context.Context, id domain.OrgID, parent *domain.Profile) (*domain.Profile, error)
}

// Driver walks the whole registry: every top-level organization and its
// subsidiaries. One broken entity never aborts the scan; failures are logged
// and the walk continues.
type Driver struct {
	gateway     ledger.Gateway
	resolver    Resolver
	profiles    store.ProfileStore
	log         *log.Logger
	metrics     *metrics.Metrics
	concurrency int
}

func NewDriver(gateway ledger.Gateway, resolver Resolver, profiles store.ProfileStore, logger *log.Logger, m *metrics.Metrics, concurrency int) *Driver {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Driver{
		gateway:     gateway,
		resolver:    resolver,
		profiles:    profiles,
		log:         logger,
		metrics:     m,
		concurrency: concurrency,
	}
}

// Run performs one full registry scan. Top-level chains are independent and
// run concurrently up to the configured limit; within a chain the parent is
// resolved before its subsidiaries so their parent summaries come from a
// fresh profile.
func (d *Driver) Run(ctx context.Context) error {
	runID := uuid.New()
	d.metrics.IncScanRuns()

	ids, err := d.gateway.GetOrganizations(ctx)
	if err != nil {
		return err
	}
	d.log.Printf("scan %s: %d top-level organizations", runID, len(ids))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(d.concurrency)
	for _, id := range ids {
		g.Go(func() error {
			d.resolveChain(ctx, runID, id)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	d.log.Printf("scan %s: done", runID)
	return nil
}

// resolveChain resolves one top-level organization and then each of its
// subsidiaries with the fresh profile as parent context.
func (d *Driver) resolveChain(ctx context.Context, runID uuid.UUID, id domain.OrgID) {
	parent, err := d.resolver.Resolve(ctx, id)
	if err != nil {
		d.log.Printf("scan %s: %v", runID, err)
		return
	}
	d.upsert(ctx, runID, parent)

	for _, subID := range parent.Subsidiaries {
		sub, err := d.resolver.ResolveWithParent(ctx, subID, parent)
		if err != nil {
			d.log.Printf("scan %s: %v", runID, err)
			continue
		}
		d.upsert(ctx, runID, sub)
	}
}

func (d *Driver) upsert(ctx context.Context, runID uuid.UUID, profile *domain.Profile) {
	if err := d.profiles.Upsert(ctx, profile); err != nil {
		d.log.Printf("scan %s: upsert %s: %v", runID, profile.OrgID, err)
		return
	}
	d.metrics.IncProfilesUpserted()
}

// Loop runs full scans on the given interval until the context ends. The
// first scan starts immediately.
func (d *Driver) Loop(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := d.Run(ctx); err != nil {
			d.log.Printf("scan run: %v", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RecheckLoop runs Recheck on the given interval until the context ends.
// Unlike Loop it waits a full interval before the first pass, so a fresh boot
// does not immediately re-resolve the profiles the initial scan just wrote.
func (d *Driver) RecheckLoop(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		if err := d.Recheck(ctx); err != nil {
			d.log.Printf("recheck run: %v", err)
		}
	}
}

// Recheck re-resolves every identifier already known to the profile store.
// It backs the periodic trust updater that refreshes stale proofs without
// waiting for registry events.
func (d *Driver) Recheck(ctx context.Context) error {
	ids, err := d.profiles.ListIdentifiers(ctx, store.FilterAll)
	if err != nil {
		return err
	}
	runID := uuid.New()
	d.log.Printf("recheck %s: %d profiles", runID, len(ids))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(d.concurrency)
	for _, id := range ids {
		g.Go(func() error {
			profile, err := d.resolver.Resolve(ctx, id)
			if err != nil {
				d.log.Printf("recheck %s: %v", runID, err)
				return nil
			}
			d.upsert(ctx, runID, profile)
			return nil
		})
	}
	return g.Wait()
}
