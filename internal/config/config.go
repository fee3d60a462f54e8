// Package config loads campaign configuration files.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"

	"gopkg.in/yaml.v3"

	"rocket-dispersion/internal/flight"
	"rocket-dispersion/internal/record"
	"rocket-dispersion/internal/sampler"
)

// CampaignConfig is the root configuration structure.
type CampaignConfig struct {
	Campaign   CampaignSection            `yaml:"campaign"`
	Site       flight.Site                `yaml:"site"`
	Parameters map[string]ParameterConfig `yaml:"parameters"`
	Engine     EngineConfig               `yaml:"engine"`
	Sinks      SinksConfig                `yaml:"sinks"`
	Admin      AdminConfig                `yaml:"admin"`
	LogLevel   string                     `yaml:"log_level"`
}

type CampaignSection struct {
	Name   string `yaml:"name"`
	Trials int    `yaml:"trials"`
	Output string `yaml:"output"`
	Seed   uint64 `yaml:"seed"`
}

// ParameterConfig is either a normal distribution (mean, stddev) or a list
// of discrete choices.
type ParameterConfig struct {
	Mean    *float64  `yaml:"mean"`
	StdDev  *float64  `yaml:"stddev"`
	Choices []float64 `yaml:"choices"`
}

// EngineConfig describes the external simulator invoked once per trial.
type EngineConfig struct {
	Command  string         `yaml:"command"`
	Args     []string       `yaml:"args"`
	Workdir  string         `yaml:"workdir"`
	Env      []string       `yaml:"env"`
	Settings map[string]any `yaml:"settings"`
}

type SinksConfig struct {
	Greptime *GreptimeConfig `yaml:"greptime"`
	SQLite   *SQLiteConfig   `yaml:"sqlite"`
}

type GreptimeConfig struct {
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	Database     string `yaml:"database"`
	InputsTable  string `yaml:"inputs_table"`
	OutputsTable string `yaml:"outputs_table"`
	ErrorsTable  string `yaml:"errors_table"`
}

type SQLiteConfig struct {
	Path string `yaml:"path"`
}

type AdminConfig struct {
	Addr string `yaml:"addr"`
}

// Load reads, validates against the CUE schema and decodes a campaign file.
// An empty cueSchemaPath validates against the built-in schema.
func Load(configPath, cueSchemaPath string) (*CampaignConfig, error) {
	if err := ValidateWithCue(configPath, cueSchemaPath); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}
	var cfg CampaignConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("decode %s: %w", configPath, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log.Printf("[Config] loaded campaign %q: %d trials, %d parameters", cfg.Campaign.Name, cfg.Campaign.Trials, len(cfg.Parameters))
	return &cfg, nil
}

// Validate checks the constraints a custom schema may not express.
func (c *CampaignConfig) Validate() error {
	if c.Campaign.Trials < 0 {
		return fmt.Errorf("campaign.trials must be >= 0, got %d", c.Campaign.Trials)
	}
	if c.Campaign.Output == "" {
		return errors.New("campaign.output is required")
	}
	if _, err := c.ToSpec(); err != nil {
		return err
	}
	return nil
}

// ToSpec converts the parameter table into a sampler spec.
func (c *CampaignConfig) ToSpec() (sampler.Spec, error) {
	dists := make(map[string]sampler.Distribution, len(c.Parameters))
	for name, p := range c.Parameters {
		d, err := p.distribution()
		if err != nil {
			return sampler.Spec{}, fmt.Errorf("parameter %q: %w", name, err)
		}
		dists[name] = d
	}
	return sampler.NewSpec(dists)
}

func (p ParameterConfig) distribution() (sampler.Distribution, error) {
	normal := p.Mean != nil || p.StdDev != nil
	switch {
	case normal && p.Choices != nil:
		return sampler.Distribution{}, errors.New("set either mean/stddev or choices, not both")
	case p.Choices != nil:
		return sampler.Choice(p.Choices...), nil
	case p.Mean == nil || p.StdDev == nil:
		return sampler.Distribution{}, errors.New("normal distribution needs mean and stddev")
	default:
		return sampler.Normal(*p.Mean, *p.StdDev), nil
	}
}

// ExecEngine builds the external engine from the engine section.
func (c *CampaignConfig) ExecEngine() (*flight.ExecEngine, error) {
	if c.Engine.Command == "" {
		return nil, errors.New("engine.command is required")
	}
	return &flight.ExecEngine{
		Command: c.Engine.Command,
		Args:    c.Engine.Args,
		Dir:     c.Engine.Workdir,
		Env:     c.Engine.Env,
	}, nil
}

// Record converts the greptime section for the record package.
func (g GreptimeConfig) Record() record.GreptimeConfig {
	return record.GreptimeConfig{
		Host:         g.Host,
		Port:         g.Port,
		Database:     g.Database,
		InputsTable:  g.InputsTable,
		OutputsTable: g.OutputsTable,
		ErrorsTable:  g.ErrorsTable,
	}
}
