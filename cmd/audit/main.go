package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"trustguard/internal/compliance"
	"trustguard/internal/config"
	"trustguard/internal/csrf"
	"trustguard/internal/observability"
	"trustguard/internal/secrets"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize metrics and logging
	metrics := observability.New(cfg.Metrics)
	logger, err := observability.NewLogger(cfg.Logging, metrics)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Shutdown()

	// Set up the hardened secret store when one is configured
	var hardened secrets.Store
	if cfg.Secrets.VaultAddr != "" {
		hardened, err = secrets.NewRemoteHardenedStore(secrets.RemoteStoreConfig{
			Addr:           cfg.Secrets.VaultAddr,
			Token:          cfg.Secrets.VaultToken,
			Mount:          cfg.Secrets.VaultMount,
			RequestTimeout: cfg.Secrets.RequestTimeout,
		})
		if err != nil {
			log.Fatalf("Failed to initialize hardened secret store: %v", err)
		}
	}

	secretsEngine, err := secrets.NewEngine(cfg.Environment, hardened, logger,
		secrets.WithMetrics(metrics))
	if err != nil {
		log.Fatalf("Failed to initialize secrets engine: %v", err)
	}

	// Set up CSRF. A missing master secret outside production still lets
	// the audit run; the auditor reports the gap instead of crashing.
	var csrfEngine *csrf.Engine
	if cfg.CSRF.MasterSecret != "" {
		codec, err := csrf.NewCodec(cfg.CSRF.MasterSecret, cfg.CSRF.TokenLifetime)
		if err != nil {
			log.Fatalf("Failed to initialize CSRF codec: %v", err)
		}

		policy := csrf.DefaultPolicy()
		policy.APIPrefixes = cfg.CSRF.APIPrefixes
		policy.SSRPrefixes = cfg.CSRF.SSRPrefixes
		policy.AllowedOrigins = cfg.CSRF.AllowedOrigins
		policy.RequireRefererCheck = len(cfg.CSRF.AllowedOrigins) > 0

		csrfEngine, err = csrf.NewEngine(codec, policy, logger, metrics)
		if err != nil {
			log.Fatalf("Failed to initialize CSRF engine: %v", err)
		}
	}

	posture := compliance.Posture{
		SecurityHeadersEnabled: true,
		RateLimitEnabled:       cfg.RateLimit.Enabled,
		TLSEnforced:            os.Getenv("TLS_ENFORCED") == "true",
		DebugMode:              cfg.Debug,
	}

	auditor := compliance.NewAuditor(cfg.Environment, secretsEngine, csrfEngine,
		posture, nil, logger, metrics)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	report := auditor.Audit(ctx)

	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		log.Fatalf("Failed to encode report: %v", err)
	}
	fmt.Println(string(out))

	if !report.Compliant {
		os.Exit(1)
	}
}
