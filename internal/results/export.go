package results

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/san-kum/nbodybench/internal/bench"
	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet written to .xlsx exports.
const SheetName = "results"

type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatJSON Format = "json"
)

// FormatOf picks the export format from the file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported results format: %q (use .csv, .xlsx or .json)", filepath.Ext(path))
	}
}

// Export writes records to path in the format implied by its extension.
// The file is written beside path and renamed into place, so a reader never
// observes a half-written artifact. Errors wrap bench.ErrExport.
func Export(path string, records []bench.Record) error {
	format, err := FormatOf(path)
	if err != nil {
		return fmt.Errorf("%w: %v", bench.ErrExport, err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("%w: %v", bench.ErrExport, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("%w: %v", bench.ErrExport, err)
	}
	defer os.Remove(tmp.Name())

	switch format {
	case FormatCSV:
		err = writeCSV(tmp, records)
	case FormatXLSX:
		err = writeXLSX(tmp, records)
	case FormatJSON:
		err = writeJSON(tmp, records)
	}
	if err != nil {
		tmp.Close()
		return fmt.Errorf("%w: write %s: %v", bench.ErrExport, path, err)
	}
	// CreateTemp opens 0600; the artifact is shared like any other output.
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: %v", bench.ErrExport, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %v", bench.ErrExport, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("%w: %v", bench.ErrExport, err)
	}
	return nil
}

func row(r bench.Record) []string {
	return []string{
		strconv.Itoa(r.Bodies),
		strconv.FormatInt(r.ExecutionTimeMs, 10),
		strconv.Itoa(r.Iterations),
		strconv.Itoa(r.SaveInterval),
		strconv.FormatFloat(r.Dt, 'g', -1, 64),
		string(r.Status),
		strconv.Itoa(r.ExitCode),
		r.Error,
	}
}

func writeCSV(w io.Writer, records []bench.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return err
	}
	for _, r := range records {
		if err := cw.Write(row(r)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeJSON(w io.Writer, records []bench.Record) error {
	if records == nil {
		records = []bench.Record{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

func writeXLSX(w io.Writer, records []bench.Record) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return err
	}

	header := make([]interface{}, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return err
	}

	for i, r := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := []interface{}{
			r.Bodies,
			r.ExecutionTimeMs,
			r.Iterations,
			r.SaveInterval,
			r.Dt,
			string(r.Status),
			r.ExitCode,
			r.Error,
		}
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return err
		}
	}

	_, err := f.WriteTo(w)
	return err
}
