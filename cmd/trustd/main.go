package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"time"

	_ "github.com/lib/pq"

	"orgtrust/internal/doccheck"
	"orgtrust/internal/fetch"
	"orgtrust/internal/ledger/rpc"
	"orgtrust/internal/platform/config"
	"orgtrust/internal/platform/httpserver"
	"orgtrust/internal/platform/logger"
	"orgtrust/internal/platform/metrics"
	platformredis "orgtrust/internal/platform/redis"
	"orgtrust/internal/proof"
	"orgtrust/internal/reconcile"
	"orgtrust/internal/scan"
	"orgtrust/internal/store"
	httpapi "orgtrust/internal/transport/http"
	"orgtrust/internal/trust"
)

// main wires high-level dependencies and keeps the process lifecycle small.
// Business logic lives in the internal packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	m := metrics.New()

	client := rpc.NewClient(cfg.RPCURL, cfg.ProviderTimeout)
	gateway := rpc.NewGateway(client, cfg.RegistryAddress, cfg.DepositAddress)

	var fetcher fetch.Fetcher = fetch.NewHTTPFetcher(cfg.ProviderTimeout)
	var docCache reconcile.DocumentCache
	redisClient, err := platformredis.New(cfg.RedisURL)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	if redisClient != nil {
		cached := fetch.NewCachedFetcher(fetcher, redisClient.Client, cfg.DocumentCacheTTL)
		fetcher = cached
		docCache = cached
		defer redisClient.Close()
	}

	resolver := trust.NewResolver(
		gateway,
		doccheck.NewValidator(fetcher),
		proof.NewLinkChecker(proof.NewDNSChecker(cfg.ProviderTimeout), proof.NewWebsiteChecker(cfg.ProviderTimeout)),
		proof.NewTLSChecker(cfg.ProviderTimeout),
		proof.NewSocialChecker(cfg.ProviderTimeout),
		proof.NewDepositChecker(cfg.TokenDecimals, cfg.MinimumDeposit),
		m,
	)

	var profiles store.ProfileStore
	if cfg.PostgresDSN != "" {
		db, err := sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			log.Fatalf("postgres open: %v", err)
		}
		defer db.Close()
		pg := store.NewPostgresStore(db)
		if err := pg.Migrate(context.Background()); err != nil {
			log.Fatalf("postgres migrate: %v", err)
		}
		profiles = pg
	} else {
		log.Printf("no postgres DSN configured, using in-memory profile store")
		profiles = store.NewInMemoryStore()
	}

	driver := scan.NewDriver(gateway, resolver, profiles, log, m, cfg.ScanConcurrency)
	reconciler := reconcile.NewReconciler(gateway, resolver, profiles, docCache, log, m, cfg.EventLookbackBlocks, cfg.EventPollInterval)

	srv := httpserver.New(cfg.Addr, httpapi.NewRouter(httpapi.NewHandler(profiles)))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()
	go func() {
		if err := driver.Loop(ctx, cfg.ScanInterval); err != nil && err != context.Canceled {
			log.Printf("scan loop stopped: %v", err)
		}
	}()
	go func() {
		if err := driver.RecheckLoop(ctx, cfg.RecheckInterval); err != nil && err != context.Canceled {
			log.Printf("recheck loop stopped: %v", err)
		}
	}()
	go func() {
		if err := reconciler.Run(ctx); err != nil && err != context.Canceled {
			log.Printf("event reconciler stopped: %v", err)
		}
	}()

	log.Printf("starting trustd on %s", cfg.Addr)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("graceful shutdown failed: %v", err)
	}
}
