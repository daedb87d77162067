package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Environment overrides, applied after the YAML file and before CLI flags.
const (
	EnvBinary   = "NBODYBENCH_BINARY"
	EnvProtocol = "NBODYBENCH_PROTOCOL"
	EnvResults  = "NBODYBENCH_RESULTS"
	EnvTimeout  = "NBODYBENCH_TIMEOUT"
)

// LoadEnvFile loads KEY=VALUE pairs from path into the process environment
// without overriding variables that are already set. A missing file is not
// an error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func (c *Config) ApplyEnv() error {
	if v := os.Getenv(EnvBinary); v != "" {
		c.Binary = v
	}
	if v := os.Getenv(EnvProtocol); v != "" {
		if err := c.Protocol.UnmarshalText([]byte(v)); err != nil {
			return fmt.Errorf("%s: %w", EnvProtocol, err)
		}
	}
	if v := os.Getenv(EnvResults); v != "" {
		c.Results = v
	}
	if v := os.Getenv(EnvTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvTimeout, err)
		}
		c.Timeout = d
	}
	return nil
}
