// Package config loads and validates the experiment configuration of a
// run: the simulated duration, the seed, and the parameters of every user
// and table.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// The supported table-selection distribution names.
const (
	DistributionUniform   = "uniform"
	DistributionLognormal = "lognormal"
)

// Config is the top-level experiment configuration.
type Config struct {
	Duration float64 `yaml:"duration"`
	Seed     int64   `yaml:"seed"`
	Users    []User  `yaml:"users"`
	Tables   []Table `yaml:"tables"`
}

// User configures one request generator.
type User struct {
	ID                int     `yaml:"id"`
	Lambda            float64 `yaml:"lambda"`
	ReadProbability   float64 `yaml:"readProbability"`
	NumTables         int     `yaml:"numTables"`
	TableDistribution string  `yaml:"tableDistribution"`
	LognormalM        float64 `yaml:"lognormalM"`
	LognormalS        float64 `yaml:"lognormalS"`
	ServiceTime       float64 `yaml:"serviceTime"`
}

// Table configures one table. NumUsers is optional and only used for
// validation.
type Table struct {
	ID       int `yaml:"id"`
	NumUsers int `yaml:"numUsers,omitempty"`
}

// Load reads and parses a configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return cfg, nil
}

// Parse parses a Config from YAML bytes and validates it.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config yaml: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// Validate checks the configuration. A failed validation is a
// configuration fault and aborts the run before any event is processed.
func (c *Config) Validate() error {
	if c.Duration < 0 {
		return fmt.Errorf("duration must not be negative, got %f",
			c.Duration)
	}

	if len(c.Tables) == 0 {
		return fmt.Errorf("at least one table must be defined")
	}

	if err := c.validateTables(); err != nil {
		return err
	}

	return c.validateUsers()
}

func (c *Config) validateTables() error {
	tableIDs := make(map[int]bool)
	for _, t := range c.Tables {
		if tableIDs[t.ID] {
			return fmt.Errorf("duplicate table id: %d", t.ID)
		}
		tableIDs[t.ID] = true

		if t.NumUsers != 0 && t.NumUsers != len(c.Users) {
			return fmt.Errorf(
				"table %d expects %d users, config defines %d",
				t.ID, t.NumUsers, len(c.Users))
		}
	}

	// Table IDs double as dispatch indices.
	for i := range c.Tables {
		if !tableIDs[i] {
			return fmt.Errorf("table ids must cover [0, %d), missing %d",
				len(c.Tables), i)
		}
	}

	return nil
}

func (c *Config) validateUsers() error {
	userIDs := make(map[int]bool)
	for _, u := range c.Users {
		if userIDs[u.ID] {
			return fmt.Errorf("duplicate user id: %d", u.ID)
		}
		userIDs[u.ID] = true

		if u.Lambda <= 0 {
			return fmt.Errorf("user %d: lambda must be positive, got %f",
				u.ID, u.Lambda)
		}

		if u.ReadProbability < 0 || u.ReadProbability > 1 {
			return fmt.Errorf(
				"user %d: readProbability must be in [0, 1], got %f",
				u.ID, u.ReadProbability)
		}

		if u.NumTables != 0 && u.NumTables != len(c.Tables) {
			return fmt.Errorf(
				"user %d: numTables is %d, config defines %d tables",
				u.ID, u.NumTables, len(c.Tables))
		}

		if u.ServiceTime < 0 {
			return fmt.Errorf(
				"user %d: serviceTime must not be negative, got %f",
				u.ID, u.ServiceTime)
		}

		switch u.TableDistribution {
		case DistributionUniform, DistributionLognormal:
		default:
			return fmt.Errorf("user %d: unknown table distribution: %s",
				u.ID, u.TableDistribution)
		}

		if u.TableDistribution == DistributionLognormal && u.LognormalS < 0 {
			return fmt.Errorf(
				"user %d: lognormalS must not be negative, got %f",
				u.ID, u.LognormalS)
		}
	}

	return nil
}
