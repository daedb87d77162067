// Package invoke turns a parameter set into the argument list for one
// launch of the simulation binary.
//
// Two protocols exist and no others are expected: positional arguments,
// and a JSON config file referenced by a --config flag. The protocol is
// chosen once per harness run, matching whichever build of the binary is
// being benchmarked.
package invoke

import (
	"fmt"
	"strings"
)

type Protocol uint8

const (
	// Positional passes bodies, iterations, save interval, dt and the output
	// filename as five ordered arguments.
	Positional Protocol = iota
	// ConfigFile writes a JSON document and passes --config <path>.
	ConfigFile
)

func (p Protocol) String() string {
	switch p {
	case Positional:
		return "positional"
	case ConfigFile:
		return "config"
	default:
		return fmt.Sprintf("protocol(%d)", uint8(p))
	}
}

func ParseProtocol(s string) (Protocol, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "positional", "args":
		return Positional, nil
	case "config", "config-file", "json":
		return ConfigFile, nil
	default:
		return 0, fmt.Errorf("unknown protocol: %q (available: positional, config)", s)
	}
}

func (p Protocol) MarshalText() ([]byte, error) {
	if p != Positional && p != ConfigFile {
		return nil, fmt.Errorf("unknown protocol: %d", uint8(p))
	}
	return []byte(p.String()), nil
}

func (p *Protocol) UnmarshalText(text []byte) error {
	parsed, err := ParseProtocol(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
