package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/shopspring/decimal"

	"github.com/iho/paymaster/internal/domain"
)

// Config holds all application configuration. Amounts are integer
// base-unit strings (6 decimal places of the settlement currency).
type Config struct {
	// Budget
	TotalBudget          string `env:"TOTAL_BUDGET"           envDefault:"100000000"`
	DailyLimit           string `env:"DAILY_LIMIT"            envDefault:"10000000"`
	PerRequestLimit      string `env:"PER_REQUEST_LIMIT"      envDefault:"5000000"`
	AutoApproveThreshold string `env:"AUTO_APPROVE_THRESHOLD" envDefault:"1000000"`
	// Comma-separated "agentID=amount" pairs.
	AgentAllocations string `env:"AGENT_ALLOCATIONS" envDefault:""`

	// Circuit breaker
	BreakerFailureThreshold int           `env:"BREAKER_FAILURE_THRESHOLD" envDefault:"5"`
	BreakerSuccessThreshold int           `env:"BREAKER_SUCCESS_THRESHOLD" envDefault:"2"`
	BreakerCooldown         time.Duration `env:"BREAKER_COOLDOWN"          envDefault:"30s"`

	// Dispatcher
	ToolCallTimeout time.Duration `env:"TOOL_CALL_TIMEOUT" envDefault:"30s"`
	// Comma-separated "serviceID=endpoint" pairs.
	Services string `env:"SERVICES" envDefault:""`

	// Wallet
	WalletURL     string        `env:"WALLET_URL"     envDefault:"http://localhost:9090/instruments"`
	WalletTimeout time.Duration `env:"WALLET_TIMEOUT" envDefault:"30s"`

	// Reconciliation
	ReconcileInterval time.Duration `env:"RECONCILE_INTERVAL" envDefault:"1m"`
	PendingTTL        time.Duration `env:"PENDING_TTL"        envDefault:"15m"`

	// Snapshots (optional - leave both empty to disable)
	SnapshotPath     string        `env:"SNAPSHOT_PATH"     envDefault:""`
	SnapshotInterval time.Duration `env:"SNAPSHOT_INTERVAL" envDefault:"30s"`
	RedisURL         string        `env:"REDIS_URL"         envDefault:""`

	// HTTP Server
	HTTPPort            string        `env:"HTTP_PORT"             envDefault:"8080"`
	HTTPReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT"     envDefault:"30s"`
	HTTPWriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT"    envDefault:"30s"`
	HTTPShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL"  envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	err := env.Parse(cfg)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// Limits parses the configured spend limits.
func (c *Config) Limits() (domain.BudgetLimits, error) {
	var limits domain.BudgetLimits
	var err error

	if limits.TotalBudget, err = domain.ParseAmount(c.TotalBudget); err != nil {
		return limits, fmt.Errorf("TOTAL_BUDGET: %w", err)
	}
	if limits.DailyLimit, err = domain.ParseAmount(c.DailyLimit); err != nil {
		return limits, fmt.Errorf("DAILY_LIMIT: %w", err)
	}
	if limits.PerRequestLimit, err = domain.ParseAmount(c.PerRequestLimit); err != nil {
		return limits, fmt.Errorf("PER_REQUEST_LIMIT: %w", err)
	}
	if limits.AutoApproveThreshold, err = domain.ParseAmount(c.AutoApproveThreshold); err != nil {
		return limits, fmt.Errorf("AUTO_APPROVE_THRESHOLD: %w", err)
	}
	return limits, nil
}

// Allocations parses the per-agent allocation table.
func (c *Config) Allocations() (map[string]decimal.Decimal, error) {
	allocations := make(map[string]decimal.Decimal)
	for _, pair := range splitPairs(c.AgentAllocations) {
		agentID, raw, ok := strings.Cut(pair, "=")
		if !ok || agentID == "" {
			return nil, fmt.Errorf("AGENT_ALLOCATIONS: malformed pair %q", pair)
		}
		amount, err := domain.ParseAmount(raw)
		if err != nil {
			return nil, fmt.Errorf("AGENT_ALLOCATIONS: agent %s: %w", agentID, err)
		}
		allocations[agentID] = amount
	}
	return allocations, nil
}

// ServiceEndpoints parses the configured remote service endpoints.
func (c *Config) ServiceEndpoints() (map[string]string, error) {
	endpoints := make(map[string]string)
	for _, pair := range splitPairs(c.Services) {
		serviceID, endpoint, ok := strings.Cut(pair, "=")
		if !ok || serviceID == "" || endpoint == "" {
			return nil, fmt.Errorf("SERVICES: malformed pair %q", pair)
		}
		endpoints[serviceID] = endpoint
	}
	return endpoints, nil
}

func splitPairs(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	pairs := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			pairs = append(pairs, p)
		}
	}
	return pairs
}
