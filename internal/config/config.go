package config

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/casim/internal/metrics"
	"github.com/san-kum/casim/internal/optim"
	"github.com/san-kum/casim/internal/sim"
)

const (
	DefaultStoreKind = "file"
	DefaultStoreDir  = "runs"
)

// Config is the on-disk configuration: one episode plus the settings the
// tuner and the run store need.
type Config struct {
	Episode  sim.Config       `yaml:"episode"`
	Recovery metrics.Recovery `yaml:"recovery"`
	Tuner    optim.GAConfig   `yaml:"tuner"`
	Weights  optim.Weights    `yaml:"weights"`
	Storage  StorageConfig    `yaml:"storage"`
}

type StorageConfig struct {
	Kind string `yaml:"kind"`
	Dir  string `yaml:"dir"`
}

func DefaultConfig() *Config {
	return &Config{
		Episode:  sim.DefaultConfig(),
		Recovery: metrics.DefaultRecovery(),
		Tuner:    optim.DefaultGAConfig(),
		Weights:  optim.DefaultWeights(),
		Storage:  StorageConfig{Kind: DefaultStoreKind, Dir: DefaultStoreDir},
	}
}

// Load reads a YAML file over DefaultConfig, so a file only needs the keys
// it changes.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if err := Merge(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Merge overlays the keys present in a YAML file onto cfg.
func Merge(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func Write(w io.Writer, cfg *Config) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return err
	}
	return enc.Close()
}

func (c *Config) Validate() error {
	if err := c.Episode.Validate(); err != nil {
		return err
	}
	if err := c.Recovery.Validate(); err != nil {
		return fmt.Errorf("recovery: %w", err)
	}
	if err := c.Tuner.Validate(); err != nil {
		return fmt.Errorf("tuner: %w", err)
	}
	switch c.Storage.Kind {
	case "file", "sqlite":
	default:
		return fmt.Errorf("storage: unknown kind %q", c.Storage.Kind)
	}
	return nil
}

// Objective assembles the tuning objective around the episode.
func (c *Config) Objective() optim.Objective {
	return optim.Objective{
		Base:     c.Episode,
		Recovery: c.Recovery,
		Weights:  c.Weights,
	}
}

// GetControllerParams exposes the active gains as a flat parameter map,
// the form the experiment registry accepts as overrides.
func (c *Config) GetControllerParams() map[string]float64 {
	g := c.Episode.Controller.Gains
	return map[string]float64{
		"kp": g.Kp,
		"ki": g.Ki,
		"kd": g.Kd,
	}
}
