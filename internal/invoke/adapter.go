package invoke

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/san-kum/nbodybench/internal/bench"
)

// Adapter packages parameter sets for one protocol.
type Adapter struct {
	protocol   Protocol
	configPath string
	logger     *slog.Logger
}

// New creates an Adapter. configPath is only used by ConfigFile and
// defaults to DefaultConfigPath.
func New(protocol Protocol, configPath string, logger *slog.Logger) *Adapter {
	if configPath == "" {
		configPath = DefaultConfigPath
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{
		protocol:   protocol,
		configPath: configPath,
		logger:     logger.With(slog.String("protocol", protocol.String())),
	}
}

func (a *Adapter) Protocol() Protocol { return a.protocol }

func (a *Adapter) ConfigPath() string { return a.configPath }

// WithConfigPath returns a copy of a that writes its document to path.
func (a *Adapter) WithConfigPath(path string) *Adapter {
	cp := *a
	cp.configPath = path
	return &cp
}

// SlotPath derives the config path for parallel worker slot n.
// Slot 0 keeps the configured path.
func (a *Adapter) SlotPath(n int) string {
	if n == 0 {
		return a.configPath
	}
	ext := filepath.Ext(a.configPath)
	base := strings.TrimSuffix(a.configPath, ext)
	return base + "-" + strconv.Itoa(n) + ext
}

// Invoke prepares the arguments for p and hands them to fn. For ConfigFile
// the document exists only for the duration of fn: it is written before the
// call and removed after it returns, whatever fn returned.
//
// A document that cannot be written aborts the step with an error wrapping
// bench.ErrSerialization and fn is never called. A document that cannot be
// removed is logged and otherwise ignored.
func (a *Adapter) Invoke(p bench.Params, fn func(args []string) error) error {
	switch a.protocol {
	case Positional:
		return fn(PositionalArgs(p))

	case ConfigFile:
		if err := WriteDocument(a.configPath, p); err != nil {
			return err
		}
		defer a.release()
		return fn([]string{ConfigFlag, a.configPath})

	default:
		return fmt.Errorf("unknown protocol: %d", uint8(a.protocol))
	}
}

func (a *Adapter) release() {
	if err := os.Remove(a.configPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		a.logger.Warn("failed to remove config file",
			slog.String("path", a.configPath),
			slog.String("error", fmt.Errorf("%w: %v", bench.ErrCleanup, err).Error()),
		)
	}
}

// Recover removes config documents left behind by an interrupted run,
// including those of up to slots parallel workers. It returns the paths
// that were removed.
func (a *Adapter) Recover(slots int) ([]string, error) {
	if a.protocol != ConfigFile {
		return nil, nil
	}
	if slots < 1 {
		slots = 1
	}

	var removed []string
	var errs []error
	for i := 0; i < slots; i++ {
		path := a.SlotPath(i)
		err := os.Remove(path)
		switch {
		case err == nil:
			removed = append(removed, path)
			a.logger.Info("removed stale config file", slog.String("path", path))
		case errors.Is(err, fs.ErrNotExist):
		default:
			errs = append(errs, fmt.Errorf("%w: %v", bench.ErrCleanup, err))
		}
	}
	return removed, errors.Join(errs...)
}
