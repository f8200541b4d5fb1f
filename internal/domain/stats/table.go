package stats

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/edachat/backend/internal/domain/dataset"
)

// Table is a titled grid of pre-formatted cells.
type Table struct {
	Category Category   `json:"category"`
	Title    string     `json:"title"`
	Header   []string   `json:"header"`
	Rows     [][]string `json:"rows"`
}

// Markdown renders the table as a Markdown pipe table under a level-3 heading.
func (t Table) Markdown() string {
	var buf bytes.Buffer
	buf.WriteString("### ")
	buf.WriteString(t.Title)
	buf.WriteString("\n\n")

	w := tablewriter.NewWriter(&buf)
	w.SetHeader(t.Header)
	w.SetBorders(tablewriter.Border{Left: true, Top: false, Right: true, Bottom: false})
	w.SetCenterSeparator("|")
	w.SetAutoFormatHeaders(false)
	w.SetAutoWrapText(false)
	w.AppendBulk(t.Rows)
	w.Render()
	return buf.String()
}

// Report is the outcome of running the engine for a set of categories.
type Report struct {
	Tables []Table  `json:"tables"`
	Notes  []string `json:"notes,omitempty"`
}

// Empty reports whether nothing was computed.
func (r Report) Empty() bool {
	return len(r.Tables) == 0 && len(r.Notes) == 0
}

// Markdown joins every table and note.
func (r Report) Markdown() string {
	parts := make([]string, 0, len(r.Tables)+len(r.Notes))
	for _, t := range r.Tables {
		parts = append(parts, t.Markdown())
	}
	for _, n := range r.Notes {
		parts = append(parts, "> "+n+"\n")
	}
	return strings.Join(parts, "\n")
}

// Compute runs the computations matching cats. Distribution questions get the descriptive
// table. Categories whose preconditions fail yield a note instead of a table.
func Compute(d *dataset.Dataset, cats []Category) Report {
	var r Report
	if Has(cats, Descriptive) || Has(cats, Distribution) {
		if t, ok := DescribeTable(d); ok {
			r.Tables = append(r.Tables, t)
		} else {
			r.Notes = append(r.Notes, "Estatísticas descritivas indisponíveis: o dataset não possui colunas numéricas.")
		}
	}
	if Has(cats, Correlation) {
		if t, err := CorrelationTable(d); err == nil {
			r.Tables = append(r.Tables, t)
		} else {
			r.Notes = append(r.Notes, "Correlação indisponível: são necessárias ao menos duas colunas numéricas.")
		}
	}
	if Has(cats, Outliers) {
		if t, ok := OutliersTable(d); ok {
			r.Tables = append(r.Tables, t)
		} else {
			r.Notes = append(r.Notes, "Detecção de outliers indisponível: o dataset não possui colunas numéricas.")
		}
	}
	if Has(cats, TopValues) {
		tables := TopValuesTables(d)
		if len(tables) > 0 {
			r.Tables = append(r.Tables, tables...)
		} else {
			r.Notes = append(r.Notes, "Valores mais frequentes indisponíveis: o dataset não possui colunas textuais.")
		}
	}
	if Has(cats, Missing) {
		t, total := MissingTable(d)
		r.Tables = append(r.Tables, t)
		if total == 0 {
			r.Notes = append(r.Notes, "Nenhum valor ausente encontrado no dataset.")
		}
	}
	return r
}

// DescribeTable renders Describe. ok is false without numeric columns.
func DescribeTable(d *dataset.Dataset) (Table, bool) {
	desc := Describe(d)
	if len(desc) == 0 {
		return Table{}, false
	}
	t := Table{
		Category: Descriptive,
		Title:    "Estatísticas Descritivas",
		Header:   []string{"coluna", "count", "mean", "std", "min", "25%", "50%", "75%", "max"},
	}
	for _, s := range desc {
		t.Rows = append(t.Rows, []string{
			s.Column, strconv.Itoa(s.Count), Num(s.Mean), Num(s.Std), Num(s.Min),
			Num(s.Q1), Num(s.Median), Num(s.Q3), Num(s.Max),
		})
	}
	return t, true
}

// CorrelationTable renders CorrelationMatrix.
func CorrelationTable(d *dataset.Dataset) (Table, error) {
	m, err := CorrelationMatrix(d)
	if err != nil {
		return Table{}, err
	}
	t := Table{
		Category: Correlation,
		Title:    "Matriz de Correlação (Pearson)",
		Header:   append([]string{""}, m.Labels...),
	}
	for i, label := range m.Labels {
		row := []string{label}
		for _, v := range m.Values[i] {
			row = append(row, Num(v))
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// OutliersTable renders DetectOutliers. ok is false without numeric columns.
func OutliersTable(d *dataset.Dataset) (Table, bool) {
	reports := DetectOutliers(d)
	if len(reports) == 0 {
		return Table{}, false
	}
	t := Table{
		Category: Outliers,
		Title:    "Detecção de Outliers (método IQR)",
		Header:   []string{"coluna", "Q1", "Q3", "IQR", "limite inferior", "limite superior", "outliers", "%"},
	}
	for _, r := range reports {
		t.Rows = append(t.Rows, []string{
			r.Column, Num(r.Q1), Num(r.Q3), Num(r.IQR), Num(r.Lower), Num(r.Upper),
			strconv.Itoa(r.Count), Pct(r.Percent),
		})
	}
	return t, true
}

// TopValuesTables renders TopFrequencies with the default limits, one table per column.
func TopValuesTables(d *dataset.Dataset) []Table {
	var out []Table
	for _, f := range TopFrequencies(d, TopN, TopColumns) {
		t := Table{
			Category: TopValues,
			Title:    fmt.Sprintf("Valores Mais Frequentes: %s", f.Column),
			Header:   []string{"valor", "contagem", "%"},
		}
		for _, vc := range f.Top {
			t.Rows = append(t.Rows, []string{vc.Value, strconv.Itoa(vc.Count), Pct(vc.Percent)})
		}
		out = append(out, t)
	}
	return out
}

// MissingTable renders MissingValues and returns the total missing count.
func MissingTable(d *dataset.Dataset) (Table, int) {
	t := Table{
		Category: Missing,
		Title:    "Valores Ausentes",
		Header:   []string{"coluna", "ausentes", "%"},
	}
	total := 0
	for _, r := range MissingValues(d) {
		total += r.Count
		t.Rows = append(t.Rows, []string{r.Column, strconv.Itoa(r.Count), Pct(r.Percent)})
	}
	return t, total
}

// Num formats a statistic with four decimals.
func Num(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return strconv.FormatFloat(v, 'f', 4, 64)
}

// Pct formats a percentage with two decimals.
func Pct(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64) + "%"
}
