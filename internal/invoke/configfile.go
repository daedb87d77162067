package invoke

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/san-kum/nbodybench/internal/bench"
)

// ConfigFlag precedes the config path on the command line.
const ConfigFlag = "--config"

// DefaultConfigPath is the transient document name used by the GPU builds.
const DefaultConfigPath = "config.json"

// Document is the on-disk shape of the config file.
type Document struct {
	NumberOfBodies int       `json:"numberOfBodies"`
	Iterations     int       `json:"iterations"`
	SaveInterval   int       `json:"saveInterval"`
	Dt             jsonFloat `json:"dt"`
	OutputFilename string    `json:"outputFilename"`
}

func NewDocument(p bench.Params) Document {
	return Document{
		NumberOfBodies: p.Bodies,
		Iterations:     p.Iterations,
		SaveInterval:   p.SaveInterval,
		Dt:             jsonFloat(p.Dt),
		OutputFilename: p.OutputFilename,
	}
}

func (d Document) Params() bench.Params {
	return bench.Params{
		Bodies:         d.NumberOfBodies,
		Iterations:     d.Iterations,
		SaveInterval:   d.SaveInterval,
		Dt:             float64(d.Dt),
		OutputFilename: d.OutputFilename,
	}
}

// Marshal encodes d with four-space indentation and a trailing newline.
func (d Document) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "    ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(d); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteDocument writes the config document for p to path.
// Errors wrap bench.ErrSerialization.
func WriteDocument(path string, p bench.Params) error {
	data, err := NewDocument(p).Marshal()
	if err != nil {
		return fmt.Errorf("%w: encode %s: %v", bench.ErrSerialization, path, err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("%w: %v", bench.ErrSerialization, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("%w: write %s: %v", bench.ErrSerialization, path, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return fmt.Errorf("%w: close %s: %v", bench.ErrSerialization, path, err)
	}
	return nil
}

func ReadDocument(path string) (bench.Params, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return bench.Params{}, err
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return bench.Params{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return doc.Params(), nil
}

// jsonFloat always encodes with a decimal point or exponent, so 1 is
// written as 1.0 and readers that distinguish integer literals see a float.
type jsonFloat float64

func (f jsonFloat) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, fmt.Errorf("unsupported float value: %v", v)
	}
	s := FormatFloat(v)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return []byte(s), nil
}
