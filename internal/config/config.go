package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"orbitals/internal/market"
)

// ServerConfig holds the simulation server configuration.
type ServerConfig struct {
	Addr string `yaml:"addr"`

	Market struct {
		CompanyCount  int    `yaml:"company_count"`
		Difficulty    string `yaml:"difficulty"`
		PlayerName    string `yaml:"player_name"`
		PlayerCompany string `yaml:"player_company"`
		Seed          int64  `yaml:"seed"`
	} `yaml:"market"`

	Tick struct {
		Every     string `yaml:"every"`
		FastEvery string `yaml:"fast_every"`
	} `yaml:"tick"`

	DatabaseURL string `yaml:"database_url"`
}

// CLIConfig holds the command-line client configuration.
type CLIConfig struct {
	APIBaseURL string
}

// LoadServer reads the server config from a YAML file (a missing file is
// fine), applies environment overrides, then fills defaults.
func LoadServer(path string) (*ServerConfig, error) {
	cfg := &ServerConfig{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if v := os.Getenv("PORT"); v != "" {
		if !strings.HasPrefix(v, ":") {
			v = ":" + v
		}
		cfg.Addr = v
	}
	if v := strings.TrimSpace(os.Getenv("ORBITALS_ADDR")); v != "" {
		cfg.Addr = v
	}
	if v := strings.TrimSpace(os.Getenv("ORBITALS_PLAYER_NAME")); v != "" {
		cfg.Market.PlayerName = v
	}
	if v := strings.TrimSpace(os.Getenv("ORBITALS_PLAYER_COMPANY")); v != "" {
		cfg.Market.PlayerCompany = v
	}
	if v := strings.TrimSpace(os.Getenv("ORBITALS_DIFFICULTY")); v != "" {
		cfg.Market.Difficulty = v
	}
	if v := strings.TrimSpace(os.Getenv("ORBITALS_COMPANY_COUNT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Market.CompanyCount = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("ORBITALS_SEED")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Market.Seed = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("DATABASE_URL")); v != "" {
		cfg.DatabaseURL = v
	}

	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if cfg.Market.CompanyCount == 0 {
		cfg.Market.CompanyCount = 8
	}
	if cfg.Market.Difficulty == "" {
		cfg.Market.Difficulty = string(market.DifficultyMedium)
	}
	if cfg.Market.PlayerName == "" {
		cfg.Market.PlayerName = "CEO"
	}
	if cfg.Market.PlayerCompany == "" {
		cfg.Market.PlayerCompany = "Orbital Ventures"
	}
	if cfg.Tick.Every == "" {
		cfg.Tick.Every = "1s"
	}
	if cfg.Tick.FastEvery == "" {
		cfg.Tick.FastEvery = "500ms"
	}

	return cfg, nil
}

// Validate checks ranges and duration syntax.
func (c *ServerConfig) Validate() error {
	if c.Market.CompanyCount < 5 || c.Market.CompanyCount > 20 {
		return fmt.Errorf("market.company_count must be 5-20")
	}
	switch market.Difficulty(c.Market.Difficulty) {
	case market.DifficultyEasy, market.DifficultyMedium, market.DifficultyHard:
	default:
		return fmt.Errorf("market.difficulty must be Easy, Medium or Hard")
	}
	if _, err := time.ParseDuration(c.Tick.Every); err != nil {
		return fmt.Errorf("tick.every: %w", err)
	}
	if _, err := time.ParseDuration(c.Tick.FastEvery); err != nil {
		return fmt.Errorf("tick.fast_every: %w", err)
	}
	return nil
}

// TickEvery returns the normal tick interval.
func (c *ServerConfig) TickEvery() time.Duration {
	d, _ := time.ParseDuration(c.Tick.Every)
	return d
}

// FastTickEvery returns the fast-mode tick interval.
func (c *ServerConfig) FastTickEvery() time.Duration {
	d, _ := time.ParseDuration(c.Tick.FastEvery)
	return d
}

// Difficulty returns the parsed difficulty level.
func (c *ServerConfig) Difficulty() market.Difficulty {
	return market.Difficulty(c.Market.Difficulty)
}

// LoadCLI reads the client config from the environment.
func LoadCLI() CLIConfig {
	return CLIConfig{
		APIBaseURL: strings.TrimRight(envDefault("ORB_API_BASE_URL", "http://localhost:8080"), "/"),
	}
}

func envDefault(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}
