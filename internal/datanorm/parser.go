package datanorm

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ignite/shipment-importer/internal/domain"
)

// SampleSize is the number of rows returned as a preview sample.
const SampleSize = 5

var (
	// ErrEmptyFile is returned when a file has no header row.
	ErrEmptyFile = errors.New("file has no header row")
	// ErrUnsupportedFormat is returned for extensions other than csv/txt/xlsx.
	ErrUnsupportedFormat = errors.New("unsupported file format")
)

// Sheet is a decoded spreadsheet. Headers are unique and non-empty.
type Sheet struct {
	Headers []string
	Rows    []domain.RawRow
}

// TotalRows is the number of data rows, excluding the header.
func (s *Sheet) TotalRows() int { return len(s.Rows) }

// Sample returns up to n leading data rows.
func (s *Sheet) Sample(n int) []domain.RawRow {
	if n > len(s.Rows) {
		n = len(s.Rows)
	}
	return s.Rows[:n]
}

// Parse decodes a CSV or XLSX file, choosing the decoder by file extension.
func Parse(r io.Reader, filename string) (*Sheet, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		return parseXLSX(r)
	case ".csv", ".txt", "":
		return parseCSV(r)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(filename))
}

func parseCSV(r io.Reader) (*Sheet, error) {
	br := bufio.NewReader(stripBOM(r))
	peek, _ := br.Peek(4096)

	reader := csv.NewReader(br)
	reader.Comma = sniffDelimiter(peek)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var records [][]string
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		records = append(records, rec)
	}
	return buildSheet(records)
}

func parseXLSX(r io.Reader) (*Sheet, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyFile
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read xlsx rows: %w", err)
	}
	return buildSheet(rows)
}

func buildSheet(records [][]string) (*Sheet, error) {
	// Leading blank lines are common in exported spreadsheets.
	for len(records) > 0 && blankRecord(records[0]) {
		records = records[1:]
	}
	if len(records) == 0 {
		return nil, ErrEmptyFile
	}

	headers := uniqueHeaders(records[0])
	sheet := &Sheet{Headers: headers}
	for _, rec := range records[1:] {
		if blankRecord(rec) {
			continue
		}
		row := make(domain.RawRow, len(headers))
		for i, h := range headers {
			if i < len(rec) {
				row[h] = rec[i]
			}
		}
		sheet.Rows = append(sheet.Rows, row)
	}
	return sheet, nil
}

// uniqueHeaders trims headers, names blank ones by position and suffixes
// repeats so every source header is distinct.
func uniqueHeaders(raw []string) []string {
	out := make([]string, len(raw))
	seen := make(map[string]int, len(raw))
	for i, h := range raw {
		h = strings.TrimSpace(h)
		if h == "" {
			h = fmt.Sprintf("Column %d", i+1)
		}
		seen[h]++
		if n := seen[h]; n > 1 {
			h = fmt.Sprintf("%s (%d)", h, n)
		}
		out[i] = h
	}
	return out
}

func blankRecord(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// sniffDelimiter picks ';', tab or ',' by counting them on the first line.
// Spreadsheets exported with a comma decimal locale use ';'.
func sniffDelimiter(peek []byte) rune {
	line := peek
	if i := bytes.IndexByte(peek, '\n'); i >= 0 {
		line = peek[:i]
	}
	best, bestN := ',', bytes.Count(line, []byte{','})
	if n := bytes.Count(line, []byte{';'}); n > bestN {
		best, bestN = ';', n
	}
	if n := bytes.Count(line, []byte{'\t'}); n > bestN {
		best = '\t'
	}
	return best
}

// stripBOM wraps a reader to strip a UTF-8 BOM if present.
func stripBOM(r io.Reader) io.Reader {
	buf := make([]byte, 3)
	n, err := io.ReadFull(r, buf)
	if err != nil || n < 3 {
		return io.MultiReader(bytes.NewReader(buf[:n]), r)
	}
	if buf[0] == 0xEF && buf[1] == 0xBB && buf[2] == 0xBF {
		return r
	}
	return io.MultiReader(bytes.NewReader(buf[:n]), r)
}
