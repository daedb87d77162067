package results

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/san-kum/nbodybench/internal/bench"
	"github.com/xuri/excelize/v2"
)

// Load reads a results artifact written by Export, or a journal.
func Load(path string) ([]bench.Record, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}

	switch format {
	case FormatJSON:
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		var records []bench.Record
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		return records, nil

	case FormatXLSX:
		f, err := excelize.OpenFile(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		rows, err := f.GetRows(SheetName)
		if err != nil {
			return nil, err
		}
		return parseRows(rows)

	default:
		file, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer file.Close()

		r := csv.NewReader(file)
		r.FieldsPerRecord = -1
		rows, err := r.ReadAll()
		if err != nil {
			return nil, err
		}
		return parseRows(rows)
	}
}

func parseRows(rows [][]string) ([]bench.Record, error) {
	if len(rows) == 0 {
		return []bench.Record{}, nil
	}

	index := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		index[name] = i
	}
	for _, required := range Columns[:2] {
		if _, ok := index[required]; !ok {
			return nil, fmt.Errorf("missing column %q", required)
		}
	}

	get := func(row []string, name string) string {
		i, ok := index[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	records := make([]bench.Record, 0, len(rows)-1)
	for n, row := range rows[1:] {
		if len(row) == 0 {
			continue
		}

		rec := bench.Record{Seq: n, Status: bench.StatusOK, ExitCode: bench.NoExitCode}
		var err error
		if rec.Bodies, err = strconv.Atoi(get(row, "bodyCount")); err != nil {
			return nil, fmt.Errorf("row %d: bodyCount: %w", n+2, err)
		}
		if rec.ExecutionTimeMs, err = strconv.ParseInt(get(row, "executionTimeMs"), 10, 64); err != nil {
			return nil, fmt.Errorf("row %d: executionTimeMs: %w", n+2, err)
		}
		if v := get(row, "iterations"); v != "" {
			if rec.Iterations, err = strconv.Atoi(v); err != nil {
				return nil, fmt.Errorf("row %d: iterations: %w", n+2, err)
			}
		}
		if v := get(row, "saveInterval"); v != "" {
			if rec.SaveInterval, err = strconv.Atoi(v); err != nil {
				return nil, fmt.Errorf("row %d: saveInterval: %w", n+2, err)
			}
		}
		if v := get(row, "dt"); v != "" {
			if rec.Dt, err = strconv.ParseFloat(v, 64); err != nil {
				return nil, fmt.Errorf("row %d: dt: %w", n+2, err)
			}
		}
		if v := get(row, "status"); v != "" {
			rec.Status = bench.Status(v)
		}
		if v := get(row, "exitCode"); v != "" {
			if rec.ExitCode, err = strconv.Atoi(v); err != nil {
				return nil, fmt.Errorf("row %d: exitCode: %w", n+2, err)
			}
		}
		rec.Error = get(row, "error")

		records = append(records, rec)
	}
	return records, nil
}
