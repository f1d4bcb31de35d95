package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"mcmarket/config"
	"mcmarket/db"
	"mcmarket/draft"
	"mcmarket/httpapi"
	"mcmarket/listing"
	"mcmarket/metrics"
	"mcmarket/payment"
	"mcmarket/registry"
	"mcmarket/wizard"
)

// main wires the wizard core to its collaborators and keeps the server
// lifecycle small. Business logic lives in the domain packages.
func main() {
	ctx := context.Background()
	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "", log.LstdFlags)

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("bootstrap database pool: %v", err)
	}
	defer pool.Close()

	var bridge draft.Store
	if cfg.RedisURL != "" {
		redisStore, err := draft.NewRedisStore(ctx, cfg.RedisURL, cfg.DraftTTL)
		if err != nil {
			logger.Fatalf("bootstrap draft store: %v", err)
		}
		defer redisStore.Close()
		bridge = redisStore
	} else {
		logger.Printf("REDIS_URL empty, drafts will not survive a restart")
		bridge = draft.NewMemoryStore()
	}

	var registryClient registry.Client
	if cfg.RegistryBaseURL != "" {
		registryClient = registry.NewHTTPClient(cfg.RegistryBaseURL)
	} else {
		logger.Printf("REGISTRY_BASE_URL empty, using deterministic mock registry")
		registryClient = &registry.MockClient{
			Latency: 150 * time.Millisecond,
			ByMC: map[string]registry.CarrierRecord{
				"123456": {
					LegalName:        "Acme Trucking LLC",
					PhysicalAddress:  "100 Main St",
					HQCity:           "Dallas",
					HQState:          "TX",
					TotalPowerUnits:  12,
					TotalDrivers:     14,
					MCS150Date:       "2019-01-01",
					AllowedToOperate: "Y",
					SafetyRating:     "Satisfactory",
					DOTNumber:        "987654",
				},
			},
		}
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	sessions := wizard.NewSessions()
	enricher := registry.NewService(registryClient)
	coordinator := listing.NewCoordinator(pool, nil)
	tokens := payment.NewTokenSigner(cfg.TokenSecret, 2*time.Hour)
	manager := payment.NewManager(
		bridge,
		payment.NewHTTPProvider(cfg.PaymentBaseURL),
		coordinator,
		tokens,
		cfg.PublicBaseURL+"/api/wizard",
		logger,
		m,
	)

	handler := httpapi.NewHandler(sessions, enricher, manager, bridge, logger, m)
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpapi.NewRouter(handler, reg),
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Printf("mcmarket api listening on %s", cfg.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("graceful shutdown failed: %v", err)
	}
}
