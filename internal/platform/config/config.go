package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is centralized process configuration.
// Genesis-style values (minimum deposit, poll cadences, existential deposit)
// are read once at startup and never change while the process runs.
type Config struct {
	ServiceName string
	HTTPPort    string
	PostgresDSN string

	MinTreasuryDeposit uint64
	ExistentialDeposit uint64

	SpendPollCadence      uint64
	MembershipPollCadence uint64
	BlockInterval         time.Duration
}

func Load() (Config, error) {
	service := os.Getenv("SERVICE_NAME")
	if service == "" {
		service = "daobank"
	}

	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080"
	}

	minDeposit, err := envUint("MIN_TREASURY_DEPOSIT", 100)
	if err != nil {
		return Config{}, err
	}
	existential, err := envUint("EXISTENTIAL_DEPOSIT", 1)
	if err != nil {
		return Config{}, err
	}
	spendCadence, err := envUint("SPEND_POLL_CADENCE", 10)
	if err != nil {
		return Config{}, err
	}
	memberCadence, err := envUint("MEMBERSHIP_POLL_CADENCE", 10)
	if err != nil {
		return Config{}, err
	}
	if spendCadence == 0 || memberCadence == 0 {
		return Config{}, fmt.Errorf("poll cadences must be positive, got spend=%d membership=%d", spendCadence, memberCadence)
	}

	blockInterval := 6 * time.Second
	if raw := strings.TrimSpace(os.Getenv("BLOCK_INTERVAL")); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return Config{}, fmt.Errorf("parse BLOCK_INTERVAL: %w", err)
		}
		blockInterval = parsed
	}

	return Config{
		ServiceName: service,
		HTTPPort:    port,
		PostgresDSN: os.Getenv("POSTGRES_DSN"),

		MinTreasuryDeposit: minDeposit,
		ExistentialDeposit: existential,

		SpendPollCadence:      spendCadence,
		MembershipPollCadence: memberCadence,
		BlockInterval:         blockInterval,
	}, nil
}

func envUint(name string, fallback uint64) (uint64, error) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", name, err)
	}
	return value, nil
}
