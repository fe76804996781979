// Package config loads the YAML configuration used by the simulator and the host tools
package config

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/jonoromo/turret/sim"
	"github.com/jonoromo/turret/system"
)

type Config struct {
	Turret system.Config `yaml:"turret"`
	Sim    sim.Config    `yaml:"sim"`
	Record RecordConfig  `yaml:"record"`
}

// RecordConfig controls the step response output of a simulation run
type RecordConfig struct {
	CSV   string `yaml:"csv"`
	Chart string `yaml:"chart"`
}

// Default is the firmware configuration on the default simulated hardware
func Default() Config {
	return Config{
		Turret: system.DefaultConfig(),
		Sim:    sim.DefaultConfig(),
	}
}

// Load reads a YAML file. Keys missing from the file keep their defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("error reading config: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (Config, error) {
	cfg := Default()
	err := yaml.Unmarshal(data, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("error parsing config: %w", err)
	}

	err = cfg.Turret.Validate()
	if err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	if cfg.Sim.Tick <= 0 {
		return Config{}, fmt.Errorf("invalid config: sim tick must be positive")
	}

	cfg.SetRecord(cfg.Record)
	return cfg, nil
}

// defaultRecordSamples is the recorder size when recording is requested without one
const defaultRecordSamples = 1000

// SetRecord sets the outputs and makes sure the pan axis records samples when any is set
func (c *Config) SetRecord(record RecordConfig) {
	c.Record = record
	if (record.CSV != "" || record.Chart != "") && c.Turret.Pan.RecordSamples == 0 {
		c.Turret.Pan.RecordSamples = defaultRecordSamples
	}
}

// Write encodes cfg as YAML
func Write(w io.Writer, cfg Config) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	err := enc.Encode(cfg)
	if err != nil {
		return fmt.Errorf("error encoding config: %w", err)
	}
	return enc.Close()
}
