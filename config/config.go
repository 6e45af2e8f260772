// Package config holds the process-wide constants that govern matchmaking,
// match pacing, and anti-cheat tap validation.
package config

import (
	"encoding/json"
	"log"
	"os"
	"strconv"
)

// Config holds all configurable parameters for the matchmaker and match server.
type Config struct {
	MatchSize            int `json:"match_size"`
	MatchDurationMS      int `json:"match_duration_ms"`
	StartDelayMS         int `json:"start_delay_ms"`
	CleanupDelayMS       int `json:"cleanup_delay_ms"`
	MaxTapsPerSecond     int `json:"max_taps_per_second"`
	TapClockSkewWindowMS int `json:"tap_clock_skew_window_ms"`

	WSPort int `json:"ws_port"`

	// IdentityJWKSURL, when set, enables JWT verification of the "auth"
	// handshake message via a JWKS endpoint. Empty disables verification
	// (useful for local dev and tests).
	IdentityJWKSURL string `json:"identity_jwks_url"`
	IdentityIssuer  string `json:"identity_issuer"`
}

// Defaults returns a Config populated with the defaults from spec §6.
func Defaults() *Config {
	return &Config{
		MatchSize:            2,
		MatchDurationMS:      30000,
		StartDelayMS:         2000,
		CleanupDelayMS:       5000,
		MaxTapsPerSecond:     10,
		TapClockSkewWindowMS: 100,
		WSPort:               8080,
	}
}

// Load reads configuration from an optional config.json file, then applies
// environment variable overrides. Fields not set in either source retain
// their default values.
func Load() *Config {
	cfg := Defaults()

	if f, err := os.Open("config.json"); err == nil {
		defer f.Close()
		if err := json.NewDecoder(f).Decode(cfg); err != nil {
			log.Printf("Warning: failed to parse config.json: %v", err)
		}
	}

	overrideInt(&cfg.MatchSize, "MATCH_SIZE")
	overrideInt(&cfg.MatchDurationMS, "MATCH_DURATION_MS")
	overrideInt(&cfg.StartDelayMS, "START_DELAY_MS")
	overrideInt(&cfg.CleanupDelayMS, "CLEANUP_DELAY_MS")
	overrideInt(&cfg.MaxTapsPerSecond, "MAX_TAPS_PER_SECOND")
	overrideInt(&cfg.TapClockSkewWindowMS, "TAP_CLOCK_SKEW_WINDOW_MS")
	overrideInt(&cfg.WSPort, "WS_PORT")
	overrideString(&cfg.IdentityJWKSURL, "IDENTITY_JWKS_URL")
	overrideString(&cfg.IdentityIssuer, "IDENTITY_ISSUER")

	if cfg.MatchSize < 2 {
		log.Printf("Warning: MATCH_SIZE must be >= 2, got %d; using 2", cfg.MatchSize)
		cfg.MatchSize = 2
	}

	return cfg
}

func overrideInt(field *int, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			*field = n
		} else {
			log.Printf("Warning: invalid value for %s: %q", envKey, val)
		}
	}
}

func overrideString(field *string, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = val
	}
}
