package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/san-kum/nbodybench/internal/bench"
	"github.com/san-kum/nbodybench/internal/results"
)

const (
	metadataFile = "metadata.json"
	recordsFile  = "results.csv"
)

// Store keeps one directory per sweep under baseDir.
type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type SweepMetadata struct {
	ID          string        `json:"id"`
	Preset      string        `json:"preset,omitempty"`
	Binary      string        `json:"binary"`
	Protocol    string        `json:"protocol"`
	Timestamp   time.Time     `json:"timestamp"`
	Runs        int           `json:"runs"`
	Attempted   int           `json:"attempted"`
	Completed   int           `json:"completed"`
	Failed      int           `json:"failed"`
	Elapsed     time.Duration `json:"elapsed"`
	Interrupted bool          `json:"interrupted"`
	Artifact    string        `json:"artifact,omitempty"`
}

// Save writes the metadata and a CSV copy of the records, returning the
// sweep id.
func (s *Store) Save(meta SweepMetadata, records []bench.Record) (string, error) {
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now()
	}
	name := meta.Preset
	if name == "" {
		name = "sweep"
	}
	meta.ID = fmt.Sprintf("%s_%d", name, meta.Timestamp.UnixNano())
	runDir := filepath.Join(s.baseDir, meta.ID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	metaFile, err := os.Create(filepath.Join(runDir, metadataFile))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	if err := results.Export(filepath.Join(runDir, recordsFile), records); err != nil {
		return "", err
	}
	return meta.ID, nil
}

// List returns stored sweeps, newest first. Unreadable entries are skipped.
func (s *Store) List() ([]SweepMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []SweepMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]SweepMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.After(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(id string) (*SweepMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, id, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta SweepMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *Store) LoadRecords(id string) ([]bench.Record, error) {
	return results.Load(filepath.Join(s.baseDir, id, recordsFile))
}
