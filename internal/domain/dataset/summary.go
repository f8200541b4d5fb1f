package dataset

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Summary caps shared by every prompt that embeds a dataset preview.
const (
	DefaultMaxColumns = 30
	DefaultSampleRows = 3
)

// TokenCounter estimates the token length of a text.
type TokenCounter func(text string) int

// SummaryOptions bounds a Summary. Zero values fall back to the defaults, larger values
// are clamped to them, and a negative SampleRows omits samples. A zero TokenBudget or nil Counter disables the token check.
type SummaryOptions struct {
	MaxColumns  int
	SampleRows  int
	TokenBudget int
	Counter     TokenCounter
}

// Summary is the bounded textual projection of a Dataset injected into prompts.
type Summary struct {
	Text       string
	Columns    []string
	SampleRows int
	Tokens     int
}

// String returns the summary text.
func (s Summary) String() string {
	return s.Text
}

// Summarize renders the default-capped preview: shape, at most 30 column names, their
// dtypes, and at most 3 sample rows.
func Summarize(d *Dataset) Summary {
	return SummarizeWith(d, SummaryOptions{})
}

// SummarizeWith renders a preview under opts. When the text exceeds the token budget it
// drops sample rows first, then halves the column list, until it fits or a single column
// without samples remains. Output is deterministic for identical input.
func SummarizeWith(d *Dataset, opts SummaryOptions) Summary {
	maxCols := opts.MaxColumns
	if maxCols <= 0 || maxCols > DefaultMaxColumns {
		maxCols = DefaultMaxColumns
	}
	sampleRows := opts.SampleRows
	switch {
	case sampleRows == 0:
		sampleRows = DefaultSampleRows
	case sampleRows < 0:
		sampleRows = 0
	case sampleRows > DefaultSampleRows:
		sampleRows = DefaultSampleRows
	}

	if d == nil {
		return Summary{}
	}

	nCols := min(maxCols, len(d.columns))
	nRows := min(sampleRows, d.rows)

	for {
		text := render(d, nCols, nRows, maxCols)
		s := Summary{Text: text, Columns: d.ColumnNames()[:nCols], SampleRows: nRows}
		if opts.TokenBudget <= 0 || opts.Counter == nil {
			return s
		}
		s.Tokens = opts.Counter(text)
		if s.Tokens <= opts.TokenBudget {
			return s
		}
		switch {
		case nRows > 0:
			nRows--
		case nCols > 1:
			nCols /= 2
		default:
			return s
		}
	}
}

func render(d *Dataset, nCols, nRows, maxCols int) string {
	rows, cols := d.Shape()
	picked := d.columns[:nCols]

	var b strings.Builder
	fmt.Fprintf(&b, "Shape: (%d, %d)\n", rows, cols)

	b.WriteString("Columns (limited to ")
	b.WriteString(strconv.Itoa(maxCols))
	b.WriteString("): [")
	for i, c := range picked {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(PyString(c.Name))
	}
	b.WriteString("]\n")

	b.WriteString("Dtypes: {")
	for i, c := range picked {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(PyString(c.Name))
		b.WriteString(": ")
		b.WriteString(PyString(string(c.DType)))
	}
	b.WriteString("}\n")

	fmt.Fprintf(&b, "Sample first %d rows (dict): [", nRows)
	for i := 0; i < nRows; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('{')
		for j, c := range picked {
			if j > 0 {
				b.WriteString(", ")
			}
			b.WriteString(PyString(c.Name))
			b.WriteString(": ")
			b.WriteString(PyCell(c, i))
		}
		b.WriteByte('}')
	}
	b.WriteString("]\n")
	return b.String()
}

// PyString quotes s the way Python's repr does.
func PyString(s string) string {
	quote := byte('\'')
	if strings.ContainsRune(s, '\'') && !strings.ContainsRune(s, '"') {
		quote = '"'
	}
	var b strings.Builder
	b.WriteByte(quote)
	for _, r := range s {
		switch {
		case r == '\\':
			b.WriteString(`\\`)
		case r == rune(quote):
			b.WriteByte('\\')
			b.WriteRune(r)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\t':
			b.WriteString(`\t`)
		case r == '\r':
			b.WriteString(`\r`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte(quote)
	return b.String()
}

// PyCell renders cell i of c as a Python literal.
func PyCell(c *Column, i int) string {
	if c.Null[i] {
		if c.DType == Object {
			return "None"
		}
		return "nan"
	}
	switch c.DType {
	case Int64:
		return strconv.FormatInt(int64(c.Values[i]), 10)
	case Float64:
		return PyFloat(c.Values[i])
	case Bool:
		if c.Values[i] != 0 {
			return "True"
		}
		return "False"
	default:
		return PyString(c.Raw[i])
	}
}

// PyFloat formats v like Python's float repr.
func PyFloat(v float64) string {
	switch {
	case math.IsNaN(v):
		return "nan"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	abs := math.Abs(v)
	if abs == 0 || (abs >= 1e-4 && abs < 1e16) {
		s := strconv.FormatFloat(v, 'f', -1, 64)
		if !strings.Contains(s, ".") {
			s += ".0"
		}
		return s
	}
	return strconv.FormatFloat(v, 'e', -1, 64)
}
