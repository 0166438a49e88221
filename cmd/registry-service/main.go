package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/diptomoy-das/vital-docs-share/internal/gateway"
	"github.com/diptomoy-das/vital-docs-share/internal/ledger"
	"github.com/diptomoy-das/vital-docs-share/internal/registry"
	"github.com/diptomoy-das/vital-docs-share/internal/wallet"
	"github.com/diptomoy-das/vital-docs-share/pkg/config"
	"github.com/diptomoy-das/vital-docs-share/pkg/database"
	"github.com/diptomoy-das/vital-docs-share/pkg/logger"
	"github.com/diptomoy-das/vital-docs-share/pkg/repository"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.LogLevel)
	log.Info("Starting Registry Service")

	// Initialize document index when a database is configured
	var index *repository.DocumentIndex
	if cfg.Database.Password != "" {
		db, err := database.NewConnection(&cfg.Database, log)
		if err != nil {
			log.WithError(err).Fatal("Failed to connect to database")
		}
		defer db.Close()

		if err := db.EnsureSchema(); err != nil {
			log.WithError(err).Fatal("Failed to ensure schema")
		}

		index = repository.NewDocumentIndex(db.DB, log)
	} else {
		log.Warn("No database configured; document index disabled")
	}

	// Initialize wallet provider. Server-side deployments use the
	// config-backed provider; browser wallets are injected by embedding
	// applications.
	provider := wallet.NewStaticProvider(cfg.Wallet.DevAccounts, cfg.Wallet.DevChainID)
	guard := wallet.NewNetworkGuard(provider, cfg.Network, log)
	session := wallet.NewSession(provider, guard, log)
	defer session.Close()

	// Select the ledger backend
	var backend ledger.Ledger
	switch cfg.Ledger.Mode {
	case "simulated":
		backend = ledger.NewSimulatedLedger(ledger.SimulatedConfig{
			RegisterLatency: time.Duration(cfg.Ledger.RegisterLatencyMS) * time.Millisecond,
			GrantLatency:    time.Duration(cfg.Ledger.GrantLatencyMS) * time.Millisecond,
			RevokeLatency:   time.Duration(cfg.Ledger.RevokeLatencyMS) * time.Millisecond,
			SubjectIDMax:    cfg.Ledger.SimulatedSubjectMax,
		}, log)
		log.Info("Ledger mode: simulated")
	case "real":
		log.WithField("contract", cfg.Ledger.ContractAddress).
			Fatal("Real ledger mode requires a contract backend adapter; none is wired in this binary")
	default:
		log.WithField("mode", cfg.Ledger.Mode).Fatal("Unknown ledger mode")
	}

	issuer := ledger.NewIssuer(backend, log, time.Duration(cfg.Ledger.ConfirmTimeout)*time.Second)
	registryClient := registry.NewClient(session, issuer, log)

	// Initialize metrics and HTTP handlers
	metrics := gateway.NewMetrics(prometheus.DefaultRegisterer)
	validator := gateway.NewTokenValidator(&cfg.JWT)
	handlers := gateway.NewHandlers(registryClient, session, index, metrics, log)

	// Setup HTTP router
	router := mux.NewRouter()
	router.Use(gateway.LoggingMiddleware(log))
	router.Use(gateway.MetricsMiddleware(metrics))
	router.Use(gateway.CORSMiddleware)

	router.HandleFunc("/health", handlers.HealthCheck).Methods("GET")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	apiRouter := router.PathPrefix("/api/v1").Subrouter()
	apiRouter.Use(gateway.AuthMiddleware(validator, log))
	handlers.RegisterRoutes(apiRouter)

	// Setup HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.WithField("addr", server.Addr).Info("Registry service listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("HTTP server failed")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down registry service")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Error("Forced shutdown")
	}

	log.Info("Registry service stopped")
}
