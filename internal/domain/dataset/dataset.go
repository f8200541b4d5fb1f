package dataset

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// DType is the column type tag, named after the pandas dtypes users see in prompts.
type DType string

const (
	Int64   DType = "int64"
	Float64 DType = "float64"
	Bool    DType = "bool"
	Object  DType = "object"
)

var (
	// ErrEmptyDataset is returned when a dataset has no rows or no columns.
	ErrEmptyDataset = errors.New("dataset is empty")
	// ErrRaggedRows is returned when a record's width differs from the header.
	ErrRaggedRows = errors.New("record width does not match header")
	// ErrFileTooLarge is returned when an upload exceeds the configured size.
	ErrFileTooLarge = errors.New("file exceeds the maximum upload size")
	// ErrUnparseable is returned when no encoding and delimiter combination parses the file.
	ErrUnparseable = errors.New("file could not be decoded or parsed as CSV")
)

// nullTokens are cell values read as missing.
var nullTokens = map[string]struct{}{
	"": {}, "NA": {}, "N/A": {}, "NaN": {}, "nan": {}, "null": {}, "NULL": {},
	"None": {}, "<NA>": {}, "#N/A": {}, "n/a": {},
}

// Column is one named, typed column. Raw keeps the original cell text; Values holds the
// numeric projection for int64, float64 and bool columns (NaN where Null is set).
type Column struct {
	Name   string
	DType  DType
	Raw    []string
	Values []float64
	Null   []bool
}

// IsNumeric reports whether the column takes part in numeric statistics.
func (c *Column) IsNumeric() bool {
	return c.DType == Int64 || c.DType == Float64
}

// Len returns the number of cells.
func (c *Column) Len() int {
	return len(c.Raw)
}

// NullCount returns the number of missing cells.
func (c *Column) NullCount() int {
	n := 0
	for _, null := range c.Null {
		if null {
			n++
		}
	}
	return n
}

// Valid returns the non-missing numeric values in row order.
func (c *Column) Valid() []float64 {
	if c.Values == nil {
		return nil
	}
	out := make([]float64, 0, len(c.Values))
	for i, v := range c.Values {
		if !c.Null[i] {
			out = append(out, v)
		}
	}
	return out
}

// Value returns the typed cell value: int64, float64, bool, string, or nil when missing.
func (c *Column) Value(i int) any {
	if c.Null[i] {
		return nil
	}
	switch c.DType {
	case Int64:
		return int64(c.Values[i])
	case Float64:
		return c.Values[i]
	case Bool:
		return c.Values[i] != 0
	default:
		return c.Raw[i]
	}
}

// Dataset is an immutable in-memory table.
type Dataset struct {
	Name    string
	Hash    string
	columns []*Column
	index   map[string]int
	rows    int
}

// New builds a Dataset from a header and string records, inferring column types.
func New(name string, header []string, records [][]string) (*Dataset, error) {
	if len(header) == 0 {
		return nil, ErrEmptyDataset
	}
	header = uniqueNames(header)

	cols := make([]*Column, len(header))
	for j, h := range header {
		cols[j] = &Column{
			Name: h,
			Raw:  make([]string, len(records)),
			Null: make([]bool, len(records)),
		}
	}
	for i, rec := range records {
		if len(rec) != len(header) {
			return nil, fmt.Errorf("row %d has %d fields, want %d: %w", i+1, len(rec), len(header), ErrRaggedRows)
		}
		for j, cell := range rec {
			cell = strings.TrimSpace(cell)
			cols[j].Raw[i] = cell
			_, null := nullTokens[cell]
			cols[j].Null[i] = null
		}
	}
	for _, c := range cols {
		inferType(c)
	}

	d := &Dataset{Name: name, columns: cols, rows: len(records), index: make(map[string]int, len(cols))}
	for j, c := range cols {
		d.index[c.Name] = j
	}
	return d, nil
}

// uniqueNames renames repeated headers the way pandas does: a, a.1, a.2.
func uniqueNames(header []string) []string {
	used := make(map[string]bool, len(header))
	counts := make(map[string]int, len(header))
	out := make([]string, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if h == "" {
			h = fmt.Sprintf("Unnamed: %d", i)
		}
		name := h
		for used[name] {
			counts[h]++
			name = fmt.Sprintf("%s.%d", h, counts[h])
		}
		used[name] = true
		out[i] = name
	}
	return out
}

func inferType(c *Column) {
	isInt, isFloat, isBool := true, true, true
	nonNull := 0
	for i, cell := range c.Raw {
		if c.Null[i] {
			continue
		}
		nonNull++
		if isInt {
			if _, err := strconv.ParseInt(cell, 10, 64); err != nil {
				isInt = false
			}
		}
		if isFloat {
			if _, err := strconv.ParseFloat(cell, 64); err != nil {
				isFloat = false
			}
		}
		if isBool {
			if _, ok := parseBool(cell); !ok {
				isBool = false
			}
		}
		if !isInt && !isFloat && !isBool {
			break
		}
	}

	switch {
	case nonNull == 0:
		c.DType = Float64
	case isInt && c.NullCount() == 0:
		c.DType = Int64
	case isInt || isFloat:
		c.DType = Float64
	case isBool && c.NullCount() == 0:
		c.DType = Bool
	default:
		c.DType = Object
		return
	}

	c.Values = make([]float64, len(c.Raw))
	for i, cell := range c.Raw {
		if c.Null[i] {
			c.Values[i] = math.NaN()
			continue
		}
		if c.DType == Bool {
			b, _ := parseBool(cell)
			if b {
				c.Values[i] = 1
			}
			continue
		}
		v, _ := strconv.ParseFloat(cell, 64)
		c.Values[i] = v
	}
}

func parseBool(s string) (bool, bool) {
	switch s {
	case "True", "true", "TRUE":
		return true, true
	case "False", "false", "FALSE":
		return false, true
	}
	return false, false
}

// Shape returns (rows, columns).
func (d *Dataset) Shape() (int, int) {
	return d.rows, len(d.columns)
}

// Rows returns the row count.
func (d *Dataset) Rows() int {
	return d.rows
}

// IsEmpty reports whether the dataset has no rows or no columns.
func (d *Dataset) IsEmpty() bool {
	return d == nil || d.rows == 0 || len(d.columns) == 0
}

// Columns returns the columns in header order.
func (d *Dataset) Columns() []*Column {
	return d.columns
}

// ColumnNames returns the column names in header order.
func (d *Dataset) ColumnNames() []string {
	names := make([]string, len(d.columns))
	for i, c := range d.columns {
		names[i] = c.Name
	}
	return names
}

// Column looks up a column by name.
func (d *Dataset) Column(name string) (*Column, bool) {
	j, ok := d.index[name]
	if !ok {
		return nil, false
	}
	return d.columns[j], true
}

// NumericColumns returns int64 and float64 columns in header order.
func (d *Dataset) NumericColumns() []*Column {
	var out []*Column
	for _, c := range d.columns {
		if c.IsNumeric() {
			out = append(out, c)
		}
	}
	return out
}

// TextColumns returns object columns in header order.
func (d *Dataset) TextColumns() []*Column {
	var out []*Column
	for _, c := range d.columns {
		if c.DType == Object {
			out = append(out, c)
		}
	}
	return out
}

// Dtypes returns column name to type tag.
func (d *Dataset) Dtypes() map[string]DType {
	out := make(map[string]DType, len(d.columns))
	for _, c := range d.columns {
		out[c.Name] = c.DType
	}
	return out
}

// Row returns the typed values of row i in header order.
func (d *Dataset) Row(i int) []any {
	row := make([]any, len(d.columns))
	for j, c := range d.columns {
		row[j] = c.Value(i)
	}
	return row
}

// MissingCounts returns the number of missing cells per column.
func (d *Dataset) MissingCounts() map[string]int {
	out := make(map[string]int, len(d.columns))
	for _, c := range d.columns {
		out[c.Name] = c.NullCount()
	}
	return out
}

// DuplicatedRows counts rows identical to an earlier row.
func (d *Dataset) DuplicatedRows() int {
	seen := make(map[string]struct{}, d.rows)
	dups := 0
	var b strings.Builder
	for i := 0; i < d.rows; i++ {
		b.Reset()
		for _, c := range d.columns {
			if c.Null[i] {
				b.WriteString("\x00")
			} else {
				b.WriteString(c.Raw[i])
			}
			b.WriteByte(0x1f)
		}
		key := b.String()
		if _, ok := seen[key]; ok {
			dups++
			continue
		}
		seen[key] = struct{}{}
	}
	return dups
}
