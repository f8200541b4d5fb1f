package stats

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edachat/backend/internal/domain/dataset"
)

func build(t *testing.T, header []string, rows ...[]string) *dataset.Dataset {
	t.Helper()
	d, err := dataset.New("t.csv", header, rows)
	require.NoError(t, err)
	return d
}

func TestDetect(t *testing.T) {
	tests := []struct {
		question string
		want     []Category
	}{
		{"Qual a correlação entre as colunas X e Y?", []Category{Correlation}},
		{"Mostre a distribuição da idade", []Category{Distribution}},
		{"Existem valores ausentes ou outliers?", []Category{Outliers, Missing}},
		{"Quais são as estatísticas básicas?", []Category{Descriptive}},
		{"Quais as categorias mais comuns?", []Category{TopValues}},
		{"What are the most common values?", []Category{TopValues}},
		{"O que esses dados significam para o meu negócio?", nil},
	}
	for _, tt := range tests {
		t.Run(tt.question, func(t *testing.T) {
			assert.Equal(t, tt.want, Detect(tt.question))
		})
	}
}

func TestFold(t *testing.T) {
	assert.Equal(t, "correlacao e distribuicao", Fold("Correlação e Distribuição"))
}

func TestQuantile_Linear(t *testing.T) {
	sorted := []float64{1, 2, 3, 4}
	assert.InDelta(t, 1.75, Quantile(sorted, 0.25), 1e-12)
	assert.InDelta(t, 2.5, Quantile(sorted, 0.5), 1e-12)
	assert.InDelta(t, 3.25, Quantile(sorted, 0.75), 1e-12)
	assert.True(t, math.IsNaN(Quantile(nil, 0.5)))
}

func TestDescribe(t *testing.T) {
	d := build(t, []string{"x", "label"}, []string{"1", "a"}, []string{"2", "b"}, []string{"3", "c"}, []string{"", "d"})

	desc := Describe(d)

	require.Len(t, desc, 1)
	s := desc[0]
	assert.Equal(t, "x", s.Column)
	assert.Equal(t, 3, s.Count)
	assert.InDelta(t, 2, s.Mean, 1e-12)
	assert.InDelta(t, 1, s.Std, 1e-12)
	assert.Equal(t, 1.0, s.Min)
	assert.Equal(t, 2.0, s.Median)
	assert.Equal(t, 3.0, s.Max)
}

func TestCorrelationMatrix(t *testing.T) {
	d := build(t, []string{"x", "y", "z"},
		[]string{"1", "2", "3"}, []string{"2", "4", "2"}, []string{"3", "6", "1"})

	m, err := CorrelationMatrix(d)

	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y", "z"}, m.Labels)
	assert.InDelta(t, 1, m.Values[0][1], 1e-12)
	assert.InDelta(t, -1, m.Values[0][2], 1e-12)
	assert.Equal(t, m.Values[1][2], m.Values[2][1])
	assert.Equal(t, 1.0, m.Values[2][2])
}

func TestCorrelationMatrix_NeedsTwoNumeric(t *testing.T) {
	d := build(t, []string{"price", "category"}, []string{"1.5", "a"}, []string{"2.5", "b"})

	_, err := CorrelationMatrix(d)

	assert.ErrorIs(t, err, ErrNotEnoughNumeric)
}

func TestOutliers_StrictBounds(t *testing.T) {
	col := func(vals ...string) [][]string {
		rows := make([][]string, len(vals))
		for i, v := range vals {
			rows[i] = []string{v}
		}
		return rows
	}

	atLower, err := dataset.New("a", []string{"v"}, col("-1", "2", "2", "2", "3", "4", "4", "4", "10"))
	require.NoError(t, err)
	r := DetectOutliers(atLower)[0]
	assert.Equal(t, 2.0, r.Q1)
	assert.Equal(t, 4.0, r.Q3)
	assert.Equal(t, -1.0, r.Lower)
	assert.Equal(t, 7.0, r.Upper)
	assert.Equal(t, 1, r.Count, "value equal to the lower bound must not be flagged")
	assert.Equal(t, []int{8}, r.Rows)

	atUpper, err := dataset.New("b", []string{"v"}, col("-5", "2", "2", "2", "3", "4", "4", "4", "7"))
	require.NoError(t, err)
	r = DetectOutliers(atUpper)[0]
	assert.Equal(t, 1, r.Count, "value equal to the upper bound must not be flagged")
	assert.Equal(t, []int{0}, r.Rows)
	assert.InDelta(t, 100.0/9, r.Percent, 1e-9)
}

func TestTopFrequencies(t *testing.T) {
	header := []string{"n", "t1", "t2", "t3", "t4", "t5", "t6"}
	rows := [][]string{
		{"1", "a", "x", "p", "p", "p", "p"},
		{"2", "b", "x", "p", "p", "p", "p"},
		{"3", "b", "y", "p", "p", "p", "p"},
		{"4", "c", "z", "p", "p", "p", "p"},
		{"5", "d", "", "p", "p", "p", "p"},
		{"6", "e", "x", "p", "p", "p", "p"},
		{"7", "f", "x", "p", "p", "p", "p"},
	}
	d := build(t, header, rows...)

	freqs := TopFrequencies(d, TopN, TopColumns)

	require.Len(t, freqs, 5)
	assert.Equal(t, "t1", freqs[0].Column)
	assert.Len(t, freqs[0].Top, 5)
	assert.Equal(t, ValueCount{Value: "b", Count: 2, Percent: 100 * 2.0 / 7}, freqs[0].Top[0])
	assert.Equal(t, "a", freqs[0].Top[1].Value)
	assert.Equal(t, "x", freqs[1].Top[0].Value)
	assert.Equal(t, 4, freqs[1].Top[0].Count)
}

func TestMissingValues(t *testing.T) {
	d := build(t, []string{"a", "b"}, []string{"1", ""}, []string{"", ""}, []string{"3", "x"}, []string{"4", "y"})

	m := MissingValues(d)

	assert.Equal(t, []MissingReport{{Column: "a", Count: 1, Percent: 25}, {Column: "b", Count: 2, Percent: 50}}, m)
}

func TestCompute_GuardsProduceNotes(t *testing.T) {
	d := build(t, []string{"price", "category"}, []string{"1.5", "a"}, []string{"2.5", "b"})

	r := Compute(d, []Category{Correlation})

	assert.Empty(t, r.Tables)
	require.Len(t, r.Notes, 1)
	assert.Contains(t, r.Notes[0], "duas colunas numéricas")
}

func TestCompute_OrderAndMarkdown(t *testing.T) {
	d := build(t, []string{"x", "y", "label"},
		[]string{"1", "2", "a"}, []string{"2", "4", "b"}, []string{"3", "7", ""})

	r := Compute(d, []Category{Missing, Correlation, Descriptive})

	require.Len(t, r.Tables, 3)
	assert.Equal(t, Descriptive, r.Tables[0].Category)
	assert.Equal(t, Correlation, r.Tables[1].Category)
	assert.Equal(t, Missing, r.Tables[2].Category)

	md := r.Markdown()
	assert.Contains(t, md, "### Estatísticas Descritivas")
	assert.Contains(t, md, "### Valores Ausentes")
	for _, line := range strings.Split(strings.TrimSpace(r.Tables[2].Markdown()), "\n")[2:] {
		assert.True(t, strings.HasPrefix(line, "|"), "line %q", line)
	}
}
