package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/san-kum/nbodybench/internal/invoke"
	"github.com/san-kum/nbodybench/internal/results"
	"github.com/san-kum/nbodybench/internal/sweep"
	"gopkg.in/yaml.v3"
)

const (
	DefaultBinary       = "./NBodyProblem"
	DefaultProtocol     = "config"
	DefaultStart        = 10
	DefaultStop         = 90
	DefaultStep         = 10
	DefaultIterations   = 1
	DefaultSaveInterval = 10
	DefaultDt           = 0.1
	DefaultOutput       = "output.json"
	DefaultResults      = "symulacja_wyniki.xlsx"
)

type Config struct {
	Binary       string          `yaml:"binary"`
	Args         []string        `yaml:"args,omitempty"`
	Env          []string        `yaml:"env,omitempty"`
	WorkDir      string          `yaml:"work_dir,omitempty"`
	Protocol     invoke.Protocol `yaml:"protocol"`
	ConfigPath   string          `yaml:"config_path"`
	Bodies       sweep.Range     `yaml:"bodies"`
	Iterations   IntList         `yaml:"iterations"`
	SaveInterval int             `yaml:"save_interval"`
	Dt           FloatList       `yaml:"dt"`
	Output       string          `yaml:"output"`
	Results      string          `yaml:"results"`
	Journal      string          `yaml:"journal,omitempty"`
	Timeout      time.Duration   `yaml:"timeout,omitempty"`
	Workers      int             `yaml:"workers,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Binary:       DefaultBinary,
		Protocol:     invoke.ConfigFile,
		ConfigPath:   invoke.DefaultConfigPath,
		Bodies:       sweep.Range{Start: DefaultStart, Stop: DefaultStop, Step: DefaultStep},
		Iterations:   IntList{DefaultIterations},
		SaveInterval: DefaultSaveInterval,
		Dt:           FloatList{DefaultDt},
		Output:       DefaultOutput,
		Results:      DefaultResults,
		Workers:      1,
	}
}

// Load reads a YAML file over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Binary) == "" {
		return fmt.Errorf("binary is required")
	}
	if _, err := c.Protocol.MarshalText(); err != nil {
		return err
	}
	if err := c.Plan().Validate(); err != nil {
		return err
	}
	if _, err := results.FormatOf(c.Results); err != nil {
		return err
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %v", c.Timeout)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	return nil
}

// AdapterConfigPath is where the config document is written. When the
// binary runs in WorkDir a relative path is made absolute, otherwise the
// binary would resolve it against its own directory.
func (c *Config) AdapterConfigPath() (string, error) {
	if c.WorkDir == "" || filepath.IsAbs(c.ConfigPath) {
		return c.ConfigPath, nil
	}
	return filepath.Abs(c.ConfigPath)
}

func (c *Config) Plan() sweep.Plan {
	return sweep.Plan{
		Bodies:         c.Bodies,
		Iterations:     []int(c.Iterations),
		SaveInterval:   c.SaveInterval,
		Dts:            []float64(c.Dt),
		OutputFilename: c.Output,
	}
}

// JournalPath is where rows are flushed during the sweep. Unless set it is
// derived from the results path: results.xlsx -> results.partial.csv.
func (c *Config) JournalPath() string {
	if c.Journal != "" {
		return c.Journal
	}
	ext := filepath.Ext(c.Results)
	return strings.TrimSuffix(c.Results, ext) + ".partial.csv"
}

// IntList decodes from either a scalar or a sequence.
type IntList []int

func (l *IntList) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		var n int
		if err := value.Decode(&n); err != nil {
			return err
		}
		*l = IntList{n}
		return nil
	}
	var list []int
	if err := value.Decode(&list); err != nil {
		return err
	}
	*l = list
	return nil
}

// FloatList decodes from either a scalar or a sequence.
type FloatList []float64

func (l *FloatList) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		var f float64
		if err := value.Decode(&f); err != nil {
			return err
		}
		*l = FloatList{f}
		return nil
	}
	var list []float64
	if err := value.Decode(&list); err != nil {
		return err
	}
	*l = list
	return nil
}
