// Package dataset reads two numeric columns out of delimited text files.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

var (
	ErrDelimiter  = errors.New("unsupported delimiter")
	ErrColumn     = errors.New("column not found")
	ErrNotNumeric = errors.New("non-numeric cell")
	ErrEmpty      = errors.New("no data rows")
)

// Delimiters lists the accepted field separators.
var Delimiters = []rune{',', ';', '\t', '|'}

// ParseDelimiter maps a user-facing name to a separator. It accepts the
// separator itself, "\t", "tab", "comma", "semicolon" and "pipe".
func ParseDelimiter(s string) (rune, error) {
	switch strings.ToLower(s) {
	case ",", "comma", "":
		return ',', nil
	case ";", "semicolon":
		return ';', nil
	case "\t", `\t`, "tab":
		return '\t', nil
	case "|", "pipe":
		return '|', nil
	}
	return 0, fmt.Errorf("%w: %q", ErrDelimiter, s)
}

// Options controls how a table is read. XCol and YCol name a header cell
// when the file has a header, or hold a zero-based column index.
type Options struct {
	Delimiter rune
	Header    bool
	XCol      string
	YCol      string
}

func DefaultOptions() Options {
	return Options{Delimiter: ',', Header: true, XCol: "0", YCol: "1"}
}

// Table is a pair of equal-length columns.
type Table struct {
	XName, YName string
	X, Y         []float64
}

func (t *Table) Len() int { return len(t.X) }

// Load reads the file at path.
func Load(path string, opts Options) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	t, err := Read(f, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Read parses a table from r. Blank lines are skipped and rows may have
// differing widths as long as both chosen columns are present.
func Read(r io.Reader, opts Options) (*Table, error) {
	if opts.Delimiter == 0 {
		opts.Delimiter = ','
	}
	valid := false
	for _, d := range Delimiters {
		valid = valid || d == opts.Delimiter
	}
	if !valid {
		return nil, fmt.Errorf("%w: %q", ErrDelimiter, opts.Delimiter)
	}

	cr := csv.NewReader(r)
	cr.Comma = opts.Delimiter
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}

	var header []string
	if opts.Header && len(rows) > 0 {
		header, rows = rows[0], rows[1:]
	}

	xi, xname, err := column(header, opts.XCol, 0)
	if err != nil {
		return nil, err
	}
	yi, yname, err := column(header, opts.YCol, 1)
	if err != nil {
		return nil, err
	}

	t := &Table{XName: xname, YName: yname}
	for n, row := range rows {
		line := n + 1
		if opts.Header {
			line++
		}
		if xi >= len(row) || yi >= len(row) {
			return nil, fmt.Errorf("line %d: %w: row has %d fields", line, ErrColumn, len(row))
		}
		x, err := number(row[xi])
		if err != nil {
			return nil, fmt.Errorf("line %d, column %s: %w", line, xname, err)
		}
		y, err := number(row[yi])
		if err != nil {
			return nil, fmt.Errorf("line %d, column %s: %w", line, yname, err)
		}
		t.X = append(t.X, x)
		t.Y = append(t.Y, y)
	}
	if len(t.X) == 0 {
		return nil, ErrEmpty
	}
	return t, nil
}

// column resolves sel against header. An empty selector means def.
func column(header []string, sel string, def int) (int, string, error) {
	sel = strings.TrimSpace(sel)
	if sel == "" {
		sel = strconv.Itoa(def)
	}
	for i, h := range header {
		if strings.TrimSpace(h) == sel {
			return i, sel, nil
		}
	}
	i, err := strconv.Atoi(sel)
	if err != nil || i < 0 {
		return 0, "", fmt.Errorf("%w: %q", ErrColumn, sel)
	}
	if header != nil && i >= len(header) {
		return 0, "", fmt.Errorf("%w: index %d of %d", ErrColumn, i, len(header))
	}
	name := sel
	if i < len(header) {
		name = strings.TrimSpace(header[i])
	}
	return i, name, nil
}

func number(cell string) (float64, error) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(cell, " ", ""), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrNotNumeric, cell)
	}
	return v, nil
}
