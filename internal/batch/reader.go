// Package batch reads estimation requests from CSV or XLSX files and runs
// them through the estimator concurrently.
package batch

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/enviro-impact/internal/model"
)

// Columns is the batch file header, in canonical order.
var Columns = []string{
	"region",
	"facility_type",
	"size",
	"custom_kwh",
	"usage_pattern",
	"custom_emission_factor",
	"custom_price_per_kwh",
}

var requiredColumns = []string{"region", "facility_type", "size"}

// Row is one request read from a batch file. Line is the 1-based line (or
// sheet row) it came from. ParseErr is set when a cell could not be parsed;
// such rows are reported, not estimated.
type Row struct {
	Line     int
	Request  model.Request
	ParseErr error
}

// ReadFile reads rows from path, choosing the format by extension.
func ReadFile(path string) ([]Row, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return ReadXLSX(path, 0)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "batch: open file")
	}
	defer f.Close()
	return ReadCSV(f)
}

// ReadCSV reads rows from CSV. The first record must be a header naming at
// least region, facility_type and size. Lines starting with # are ignored.
func ReadCSV(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.Comment = '#'
	reader.FieldsPerRecord = -1 // allow variable fields
	reader.TrimLeadingSpace = true

	var records [][]string
	var lines []int
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "batch: csv: read row")
		}
		line, _ := reader.FieldPos(0)
		records = append(records, record)
		lines = append(lines, line)
	}
	if len(records) == 0 {
		return nil, eris.New("batch: csv: file is empty")
	}
	return parseRecords(records, lines)
}

// ReadXLSX reads rows from one sheet of an XLSX workbook.
func ReadXLSX(path string, sheetIndex int) ([]Row, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "batch: xlsx: open file")
	}
	if sheetIndex >= len(f.Sheets) {
		return nil, eris.Errorf("batch: xlsx: sheet index %d out of range (file has %d sheets)", sheetIndex, len(f.Sheets))
	}

	var records [][]string
	var lines []int
	for i, row := range f.Sheets[sheetIndex].Rows {
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = cell.String()
		}
		if blank(cells) {
			continue
		}
		records = append(records, cells)
		lines = append(lines, i+1)
	}
	if len(records) == 0 {
		return nil, eris.New("batch: xlsx: sheet is empty")
	}
	return parseRecords(records, lines)
}

func parseRecords(records [][]string, lines []int) ([]Row, error) {
	index := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			return nil, eris.Errorf("batch: header is missing column %q", col)
		}
	}

	rows := make([]Row, 0, len(records)-1)
	for i, record := range records[1:] {
		if blank(record) {
			continue
		}
		get := func(col string) string {
			j, ok := index[col]
			if !ok || j >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[j])
		}

		row := Row{Line: lines[i+1]}
		row.Request = model.Request{
			Region:       get("region"),
			FacilityType: get("facility_type"),
			Size:         model.Size(strings.ToLower(get("size"))),
			UsagePattern: model.UsagePattern(strings.ToLower(get("usage_pattern"))),
		}
		for _, f := range []struct {
			col string
			dst **float64
		}{
			{"custom_kwh", &row.Request.CustomKWh},
			{"custom_emission_factor", &row.Request.CustomEmissionFactor},
			{"custom_price_per_kwh", &row.Request.CustomPricePerKWh},
		} {
			v, err := parseOptionalFloat(f.col, get(f.col))
			if err != nil {
				row.ParseErr = err
				break
			}
			*f.dst = v
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func parseOptionalFloat(field, s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, model.NewInputError(field, s, field+" must be a number")
	}
	return &v, nil
}

func blank(record []string) bool {
	for _, c := range record {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
