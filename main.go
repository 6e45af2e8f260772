package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"taprace-server/config"
	"taprace-server/gateway"
	"taprace-server/identity"
	"taprace-server/loghandler"
	"taprace-server/matchmaker"
	"taprace-server/statusapi"
)

func main() {
	logger := slog.New(loghandler.NewCompactHandler(os.Stdout, slog.LevelInfo))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file found; using environment variables")
	}

	cfg := config.Load()
	logger.Info("configuration loaded",
		"matchSize", cfg.MatchSize,
		"matchDurationMs", cfg.MatchDurationMS,
		"startDelayMs", cfg.StartDelayMS,
		"cleanupDelayMs", cfg.CleanupDelayMS,
		"maxTapsPerSecond", cfg.MaxTapsPerSecond,
		"tapClockSkewWindowMs", cfg.TapClockSkewWindowMS,
		"wsPort", cfg.WSPort,
	)

	var verifier *identity.Verifier
	if cfg.IdentityJWKSURL != "" {
		v, err := identity.NewVerifier(cfg.IdentityJWKSURL, cfg.IdentityIssuer)
		if err != nil {
			logger.Error("identity verifier setup failed; continuing without JWT verification", "error", err)
		} else {
			verifier = v
			logger.Info("identity verification configured", "jwksUrl", cfg.IdentityJWKSURL)
		}
	} else {
		logger.Warn("IDENTITY_JWKS_URL not set; accepting client-supplied player ids unverified")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mm := matchmaker.New(cfg, logger)
	go mm.Run(ctx)

	hub := gateway.NewHub(mm, verifier, logger)
	go hub.Run(ctx)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.ServeWS)
	mux.HandleFunc("/api/status", statusapi.Handler(mm))

	addr := fmt.Sprintf(":%d", cfg.WSPort)
	logger.Info("tap-race server listening", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}
