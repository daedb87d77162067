// Package results accumulates run records and writes them out as a table.
package results

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/san-kum/nbodybench/internal/bench"
)

// Columns is the header of every tabular export, in order.
var Columns = []string{
	"bodyCount",
	"executionTimeMs",
	"iterations",
	"saveInterval",
	"dt",
	"status",
	"exitCode",
	"error",
}

// Collector holds the records of one sweep. Append is safe for concurrent
// use. When a journal is attached every appended record is written and
// flushed to it immediately.
type Collector struct {
	mu      sync.Mutex
	records []bench.Record
	journal *journal
}

func NewCollector() *Collector {
	return &Collector{}
}

// OpenJournal attaches a CSV journal at path, truncating any previous one.
func (c *Collector) OpenJournal(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("%w: %v", bench.ErrExport, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %v", bench.ErrExport, err)
	}
	j := &journal{file: f, w: csv.NewWriter(f)}
	if err := j.write(Columns); err != nil {
		f.Close()
		return fmt.Errorf("%w: journal header: %v", bench.ErrExport, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.journal = j
	return nil
}

// Append adds r. The record is kept even if writing the journal fails.
func (c *Collector) Append(r bench.Record) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.records = append(c.records, r)
	if c.journal == nil {
		return nil
	}
	if err := c.journal.write(row(r)); err != nil {
		return fmt.Errorf("%w: journal: %v", bench.ErrExport, err)
	}
	return nil
}

// Records returns a copy of the collection ordered by sweep position.
func (c *Collector) Records() []bench.Record {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]bench.Record, len(c.records))
	copy(out, c.records)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out
}

func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.records)
}

// Close closes the journal, if any. It is safe to call more than once.
func (c *Collector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.journal == nil {
		return nil
	}
	err := c.journal.file.Close()
	c.journal = nil
	return err
}

type journal struct {
	file io.WriteCloser
	w    *csv.Writer
}

func (j *journal) write(fields []string) error {
	if err := j.w.Write(fields); err != nil {
		return err
	}
	j.w.Flush()
	return j.w.Error()
}
