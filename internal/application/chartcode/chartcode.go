// Package chartcode writes chart scripts for statistical questions without asking the
// model. The scripts use the same interpreter API as model-generated code.
package chartcode

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/edachat/backend/internal/domain/dataset"
	"github.com/edachat/backend/internal/domain/stats"
)

// ErrNoMatch means the question matched no chart category.
var ErrNoMatch = errors.New("no deterministic chart for question")

// Column caps of the generated charts.
const (
	MaxBoxColumns  = 6
	MaxGridColumns = 8
	GridPerRow     = 3
)

// priority is the order in which a multi-category question picks its chart.
var priority = []stats.Category{
	stats.Correlation,
	stats.Outliers,
	stats.Distribution,
	stats.Descriptive,
	stats.Missing,
}

// Plan is a generated chart script.
type Plan struct {
	Category stats.Category
	Code     string
}

// Generate picks the highest-priority category of question and writes its script for d.
// It returns ErrNoMatch when no category applies and stats.ErrNotEnoughNumeric when the
// dataset cannot support the chart.
func Generate(d *dataset.Dataset, question string) (Plan, error) {
	cats := stats.Detect(question)
	for _, cat := range priority {
		if stats.Has(cats, cat) {
			code, err := For(d, cat)
			if err != nil {
				return Plan{Category: cat}, err
			}
			return Plan{Category: cat, Code: code}, nil
		}
	}
	return Plan{}, ErrNoMatch
}

// For writes the script of one category.
func For(d *dataset.Dataset, cat stats.Category) (string, error) {
	numeric := numericNames(d)
	switch cat {
	case stats.Correlation:
		if len(numeric) < 2 {
			return "", fmt.Errorf("correlation heatmap: %w", stats.ErrNotEnoughNumeric)
		}
		return correlation(), nil
	case stats.Outliers:
		if len(numeric) == 0 {
			return "", fmt.Errorf("outlier box plot: %w", stats.ErrNotEnoughNumeric)
		}
		return outliers(numeric[:min(MaxBoxColumns, len(numeric))]), nil
	case stats.Distribution:
		if len(numeric) == 0 {
			return "", fmt.Errorf("distribution histogram: %w", stats.ErrNotEnoughNumeric)
		}
		return distribution(numeric[0]), nil
	case stats.Descriptive:
		if len(numeric) == 0 {
			return "", fmt.Errorf("histogram grid: %w", stats.ErrNotEnoughNumeric)
		}
		return descriptive(numeric[:min(MaxGridColumns, len(numeric))]), nil
	case stats.Missing:
		return missing(), nil
	}
	return "", ErrNoMatch
}

func numericNames(d *dataset.Dataset) []string {
	var names []string
	for _, c := range d.NumericColumns() {
		names = append(names, c.Name)
	}
	return names
}

func correlation() string {
	return `corr = df.corr()
fig = px.heatmap(corr, text_auto=True, title="Matriz de Correlação")
fig.update_layout(xaxis_title="", yaxis_title="")
`
}

func outliers(cols []string) string {
	return fmt.Sprintf(`cols = %s
fig = px.box(df, y=cols, title="Box Plot - Detecção de Outliers (IQR)")
fig.update_layout(yaxis_title="valor")
`, list(cols))
}

func distribution(col string) string {
	return fmt.Sprintf(`fig = px.histogram(df, x=%s, marginal="box", title=%s)
fig.update_layout(bargap=0.1)
`, quote(col), quote("Distribuição de "+col))
}

func descriptive(cols []string) string {
	return fmt.Sprintf(`cols = %s
fig = px.histogram_grid(df, columns=cols, cols=%d, title="Distribuição das Variáveis Numéricas")
`, list(cols), GridPerRow)
}

func missing() string {
	return `missing = df.missing()
rows = df.shape[0]
cols = [c for c in df.columns if missing[c] > 0]
if cols:
    pct = [missing[c] * 100.0 / rows for c in cols]
    fig = px.bar(x=cols, y=pct, title="Percentual de Valores Ausentes por Coluna")
    fig.update_layout(xaxis_title="coluna", yaxis_title="% ausente")
else:
    fig = px.placeholder("Nenhum valor ausente encontrado", title="Valores Ausentes")
`
}

func quote(s string) string {
	return strconv.Quote(s)
}

func list(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = quote(n)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
