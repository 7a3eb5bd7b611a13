// Package config loads server and engine settings: defaults, overlaid by an
// optional YAML file, overlaid by environment variables. The loaded Config is
// passed into constructors — no package-level mutable state.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	domainticket "github.com/sanchitsehgal8/SupportPilot/internal/domain/ticket"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Engine   EngineConfig   `yaml:"engine"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

// EngineConfig tunes the assignment engine.
type EngineConfig struct {
	// CapacityCeiling is the maximum concurrent open tickets an agent may hold
	// before becoming ineligible for new assignments.
	CapacityCeiling int `yaml:"capacity_ceiling"`

	// MaxCommitRetries bounds re-selection after commit conflicts.
	MaxCommitRetries int `yaml:"max_commit_retries"`

	// DirectoryRetries bounds retries of a failing directory call.
	DirectoryRetries int `yaml:"directory_retries"`

	// CallTimeout bounds each external directory/oracle call.
	CallTimeout time.Duration `yaml:"call_timeout"`

	// RetryBackoff is the base backoff between retries; doubles each attempt.
	RetryBackoff time.Duration `yaml:"retry_backoff"`

	// PerfWeights maps ticket priority to the performance-score weight w_perf.
	// The load weight is always 1 - w_perf. Escalated tickets weight proven
	// performance over free capacity.
	PerfWeights map[domainticket.Priority]float64 `yaml:"perf_weights"`

	// SweepParallelism bounds concurrent assignments during a queue sweep.
	SweepParallelism int `yaml:"sweep_parallelism"`
}

func Default() Config {
	return Config{
		Server:   ServerConfig{Port: "8080"},
		Database: DatabaseConfig{},
		Engine: EngineConfig{
			CapacityCeiling:  5,
			MaxCommitRetries: 3,
			DirectoryRetries: 3,
			CallTimeout:      2 * time.Second,
			RetryBackoff:     100 * time.Millisecond,
			PerfWeights: map[domainticket.Priority]float64{
				domainticket.PriorityLow:    0.3,
				domainticket.PriorityMedium: 0.5,
				domainticket.PriorityHigh:   0.7,
				domainticket.PriorityUrgent: 0.9,
			},
			SweepParallelism: 4,
		},
	}
}

// Load builds the effective config. path may be empty (defaults + env only).
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Port = v
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Engine.CapacityCeiling < 1 {
		return fmt.Errorf("engine.capacity_ceiling must be >= 1, got %d", c.Engine.CapacityCeiling)
	}
	if c.Engine.MaxCommitRetries < 1 {
		return fmt.Errorf("engine.max_commit_retries must be >= 1, got %d", c.Engine.MaxCommitRetries)
	}
	for p, w := range c.Engine.PerfWeights {
		if !p.Valid() {
			return fmt.Errorf("engine.perf_weights: unknown priority %q", p)
		}
		if w < 0 || w > 1 {
			return fmt.Errorf("engine.perf_weights[%s] must be in [0,1], got %v", p, w)
		}
	}
	return nil
}

// PerfWeight returns w_perf for a priority, falling back to the medium tier
// for unknown values so a malformed ticket never panics the scorer.
func (e EngineConfig) PerfWeight(p domainticket.Priority) float64 {
	if w, ok := e.PerfWeights[p]; ok {
		return w
	}
	return e.PerfWeights[domainticket.PriorityMedium]
}
