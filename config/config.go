package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"wagerledger/database"
	"wagerledger/models"
)

// Storage drivers
const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

// Custodian transports
const (
	CustodianNATS = "nats"
	CustodianLog  = "log"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL   string
	DatabaseName  string
	StorageDriver string // "postgres" or "memory"

	// HTTP API
	HTTPAddr string

	// NATS configuration
	NATSServers string // comma-separated; empty disables event streaming

	// Custodian configuration
	Custodian        string // "nats" or "log"
	CustodianSubject string
	CustodianTimeout time.Duration

	// Game parameters, fixed for the life of the process
	Game models.GameParameters

	// Logging
	LogLevel  string
	LogFormat string // "json" or "text"

	// Environment
	Environment string // "development", "production" or "test"
}

var (
	instance *Config
	once     sync.Once
	mu       sync.RWMutex
)

// Get returns the global configuration instance
func Get() *Config {
	mu.RLock()
	if instance != nil {
		defer mu.RUnlock()
		return instance
	}
	mu.RUnlock()

	once.Do(func() {
		cfg, err := load()
		if err != nil {
			panic(fmt.Sprintf("failed to load config: %v", err))
		}
		mu.Lock()
		instance = cfg
		mu.Unlock()
	})

	mu.RLock()
	defer mu.RUnlock()
	return instance
}

// Load reads and validates the configuration without touching the singleton
func Load() (*Config, error) {
	return load()
}

// GetDatabaseURL returns the database URL with the database name applied
func (c *Config) GetDatabaseURL() string {
	return database.ConstructDatabaseURL(c.DatabaseURL, c.DatabaseName)
}

// load loads configuration from environment variables
func load() (*Config, error) {
	config := &Config{
		// Database
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		DatabaseName:  os.Getenv("DATABASE_NAME"),
		StorageDriver: getEnvWithDefault("STORAGE_DRIVER", StorageDriverPostgres),

		// HTTP
		HTTPAddr: getEnvWithDefault("HTTP_ADDR", ":8080"),

		// NATS
		NATSServers: os.Getenv("NATS_SERVERS"),

		// Custodian
		Custodian:        getEnvWithDefault("CUSTODIAN", CustodianNATS),
		CustodianSubject: getEnvWithDefault("CUSTODIAN_SUBJECT", "custodian.payout"),
		CustodianTimeout: 10 * time.Second,

		// Logging
		LogLevel:  getEnvWithDefault("LOG_LEVEL", "info"),
		LogFormat: getEnvWithDefault("LOG_FORMAT", "text"),

		// Environment
		Environment: getEnvWithDefault("ENVIRONMENT", "development"),
	}

	if timeout := os.Getenv("CUSTODIAN_TIMEOUT"); timeout != "" {
		parsed, err := time.ParseDuration(timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid CUSTODIAN_TIMEOUT %q: %w", timeout, err)
		}
		config.CustodianTimeout = parsed
	}

	game, err := loadGameParameters()
	if err != nil {
		return nil, err
	}
	config.Game = game

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// loadGameParameters reads the multiplier, lock window and admin quorum
func loadGameParameters() (models.GameParameters, error) {
	game := models.GameParameters{
		Multiplier: 2,
	}

	if multiplier := os.Getenv("GAME_MULTIPLIER"); multiplier != "" {
		parsed, err := strconv.ParseUint(multiplier, 10, 64)
		if err != nil {
			return game, fmt.Errorf("invalid GAME_MULTIPLIER %q: %w", multiplier, err)
		}
		game.Multiplier = parsed
	}

	if delay := os.Getenv("WITHDRAWAL_DELAY_SECONDS"); delay != "" {
		parsed, err := strconv.ParseInt(delay, 10, 64)
		if err != nil {
			return game, fmt.Errorf("invalid WITHDRAWAL_DELAY_SECONDS %q: %w", delay, err)
		}
		game.WithdrawalDelay = parsed
	}

	// Parse admin identities
	if adminIDs := os.Getenv("ADMIN_IDS"); adminIDs != "" {
		for _, id := range strings.Split(adminIDs, ",") {
			id = strings.TrimSpace(id)
			if id != "" {
				game.Admins = append(game.Admins, id)
			}
		}
	}

	if threshold := os.Getenv("APPROVAL_THRESHOLD"); threshold != "" {
		parsed, err := strconv.Atoi(threshold)
		if err != nil {
			return game, fmt.Errorf("invalid APPROVAL_THRESHOLD %q: %w", threshold, err)
		}
		game.Threshold = parsed
	} else {
		// Simple majority
		game.Threshold = len(game.Admins)/2 + 1
	}

	return game, nil
}

// Validate checks the configuration for required values and known modes
func (c *Config) Validate() error {
	switch c.StorageDriver {
	case StorageDriverPostgres:
		if c.DatabaseURL == "" && c.Environment != "test" {
			return fmt.Errorf("DATABASE_URL is required for the postgres storage driver")
		}
	case StorageDriverMemory:
		if c.Environment == "production" {
			return fmt.Errorf("the memory storage driver cannot be used in production")
		}
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}

	switch c.Custodian {
	case CustodianNATS:
		if c.NATSServers == "" && c.Environment != "test" {
			return fmt.Errorf("NATS_SERVERS is required for the nats custodian")
		}
	case CustodianLog:
		if c.Environment == "production" {
			return fmt.Errorf("the log custodian cannot be used in production")
		}
	default:
		return fmt.Errorf("unknown CUSTODIAN %q", c.Custodian)
	}

	if c.CustodianTimeout <= 0 {
		return fmt.Errorf("CUSTODIAN_TIMEOUT must be positive")
	}

	if c.LogFormat != "json" && c.LogFormat != "text" {
		return fmt.Errorf("unknown LOG_FORMAT %q", c.LogFormat)
	}

	if err := c.Game.Validate(); err != nil {
		return fmt.Errorf("invalid game parameters: %w", err)
	}

	return nil
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnvWithDefault returns the environment variable value or a default if not set
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// Test helpers - only use in tests

// SetTestConfig overrides the global config instance for testing
func SetTestConfig(testConfig *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = testConfig
}

// ResetConfig resets the global config instance and sync.Once for testing
func ResetConfig() {
	mu.Lock()
	defer mu.Unlock()
	instance = nil
	once = sync.Once{}
}

// NewTestConfig creates a minimal config suitable for unit tests
func NewTestConfig() *Config {
	return &Config{
		StorageDriver:    StorageDriverMemory,
		HTTPAddr:         ":0",
		Custodian:        CustodianLog,
		CustodianSubject: "custodian.payout",
		CustodianTimeout: time.Second,
		Game: models.GameParameters{
			Multiplier:      2,
			WithdrawalDelay: 100,
			Admins:          []string{"admin-a", "admin-b", "admin-c"},
			Threshold:       2,
		},
		LogLevel:    "debug",
		LogFormat:   "text",
		Environment: "test",
	}
}
