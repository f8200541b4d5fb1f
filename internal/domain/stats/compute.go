package stats

import (
	"errors"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/edachat/backend/internal/domain/dataset"
)

// ErrNotEnoughNumeric is returned when a computation needs more numeric columns than exist.
var ErrNotEnoughNumeric = errors.New("not enough numeric columns")

// ColumnStats is the describe() row of one numeric column.
type ColumnStats struct {
	Column string
	Count  int
	Mean   float64
	Std    float64
	Min    float64
	Q1     float64
	Median float64
	Q3     float64
	Max    float64
}

// Describe computes count, mean, sample std, min, quartiles and max per numeric column.
func Describe(d *dataset.Dataset) []ColumnStats {
	var out []ColumnStats
	for _, c := range d.NumericColumns() {
		vals := c.Valid()
		s := ColumnStats{Column: c.Name, Count: len(vals)}
		if len(vals) == 0 {
			s.Mean, s.Std, s.Min, s.Q1, s.Median, s.Q3, s.Max = nan(), nan(), nan(), nan(), nan(), nan(), nan()
			out = append(out, s)
			continue
		}
		sorted := sortedCopy(vals)
		s.Mean = stat.Mean(vals, nil)
		s.Std = nan()
		if len(vals) > 1 {
			s.Std = stat.StdDev(vals, nil)
		}
		s.Min = sorted[0]
		s.Max = sorted[len(sorted)-1]
		s.Q1 = Quantile(sorted, 0.25)
		s.Median = Quantile(sorted, 0.5)
		s.Q3 = Quantile(sorted, 0.75)
		out = append(out, s)
	}
	return out
}

// Quantile returns the p-quantile of sorted values with linear interpolation between
// closest ranks (h = (n-1)p), the default of pandas and NumPy.
func Quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return nan()
	}
	if n == 1 {
		return sorted[0]
	}
	h := float64(n-1) * p
	lo := int(math.Floor(h))
	hi := int(math.Ceil(h))
	if hi >= n {
		hi = n - 1
	}
	return sorted[lo] + (h-float64(lo))*(sorted[hi]-sorted[lo])
}

// Matrix is a labelled square correlation matrix.
type Matrix struct {
	Labels []string
	Values [][]float64
}

// CorrelationMatrix computes pairwise Pearson correlation between numeric columns using
// rows where both values are present. At least two numeric columns are required.
func CorrelationMatrix(d *dataset.Dataset) (Matrix, error) {
	cols := d.NumericColumns()
	if len(cols) < 2 {
		return Matrix{}, ErrNotEnoughNumeric
	}
	m := Matrix{Labels: make([]string, len(cols)), Values: make([][]float64, len(cols))}
	for i, c := range cols {
		m.Labels[i] = c.Name
		m.Values[i] = make([]float64, len(cols))
	}
	for i := range cols {
		for j := i; j < len(cols); j++ {
			var r float64
			if i == j {
				r = 1
				if len(cols[i].Valid()) < 2 {
					r = nan()
				}
			} else {
				r = pairwise(cols[i], cols[j])
			}
			m.Values[i][j] = r
			m.Values[j][i] = r
		}
	}
	return m, nil
}

func pairwise(a, b *dataset.Column) float64 {
	x := make([]float64, 0, a.Len())
	y := make([]float64, 0, a.Len())
	for k := 0; k < a.Len(); k++ {
		if a.Null[k] || b.Null[k] {
			continue
		}
		x = append(x, a.Values[k])
		y = append(y, b.Values[k])
	}
	if len(x) < 2 {
		return nan()
	}
	r := stat.Correlation(x, y, nil)
	if math.IsInf(r, 0) {
		return nan()
	}
	return r
}

// OutlierReport describes IQR outliers of one numeric column.
type OutlierReport struct {
	Column  string
	Q1      float64
	Q3      float64
	IQR     float64
	Lower   float64
	Upper   float64
	Count   int
	Percent float64
	Rows    []int
}

// DetectOutliers flags, per numeric column, values strictly below Q1-1.5*IQR or strictly
// above Q3+1.5*IQR. Values equal to a bound are not outliers.
func DetectOutliers(d *dataset.Dataset) []OutlierReport {
	var out []OutlierReport
	for _, c := range d.NumericColumns() {
		vals := c.Valid()
		if len(vals) == 0 {
			continue
		}
		out = append(out, OutliersOf(c))
	}
	return out
}

// OutliersOf computes the IQR report of a single numeric column.
func OutliersOf(c *dataset.Column) OutlierReport {
	sorted := sortedCopy(c.Valid())
	r := OutlierReport{Column: c.Name}
	if len(sorted) == 0 {
		return r
	}
	r.Q1 = Quantile(sorted, 0.25)
	r.Q3 = Quantile(sorted, 0.75)
	r.IQR = r.Q3 - r.Q1
	r.Lower = r.Q1 - 1.5*r.IQR
	r.Upper = r.Q3 + 1.5*r.IQR
	for k, v := range c.Values {
		if c.Null[k] {
			continue
		}
		if v < r.Lower || v > r.Upper {
			r.Count++
			r.Rows = append(r.Rows, k)
		}
	}
	r.Percent = 100 * float64(r.Count) / float64(len(sorted))
	return r
}

// ValueCount is one entry of a frequency ranking.
type ValueCount struct {
	Value   string
	Count   int
	Percent float64
}

// Frequency is the ranking of one text column.
type Frequency struct {
	Column string
	Top    []ValueCount
}

// Default limits of TopFrequencies.
const (
	TopN       = 5
	TopColumns = 5
)

// TopFrequencies ranks the n most frequent values of the first maxCols text columns.
// Ties keep first-appearance order.
func TopFrequencies(d *dataset.Dataset, n, maxCols int) []Frequency {
	var out []Frequency
	for _, c := range d.TextColumns() {
		if len(out) == maxCols {
			break
		}
		out = append(out, Frequency{Column: c.Name, Top: ValueCounts(c, n)})
	}
	return out
}

// ValueCounts ranks the non-missing values of c. n <= 0 returns every value.
func ValueCounts(c *dataset.Column, n int) []ValueCount {
	counts := make(map[string]int)
	var seen []string
	total := 0
	for k, raw := range c.Raw {
		if c.Null[k] {
			continue
		}
		if _, ok := counts[raw]; !ok {
			seen = append(seen, raw)
		}
		counts[raw]++
		total++
	}
	vcs := make([]ValueCount, len(seen))
	for i, v := range seen {
		vcs[i] = ValueCount{Value: v, Count: counts[v], Percent: 100 * float64(counts[v]) / float64(total)}
	}
	sort.SliceStable(vcs, func(i, j int) bool { return vcs[i].Count > vcs[j].Count })
	if n > 0 && len(vcs) > n {
		vcs = vcs[:n]
	}
	return vcs
}

// MissingReport is the missing-value count of one column.
type MissingReport struct {
	Column  string
	Count   int
	Percent float64
}

// MissingValues reports every column, in header order, with its missing count and percentage.
func MissingValues(d *dataset.Dataset) []MissingReport {
	rows := d.Rows()
	out := make([]MissingReport, 0, len(d.Columns()))
	for _, c := range d.Columns() {
		r := MissingReport{Column: c.Name, Count: c.NullCount()}
		if rows > 0 {
			r.Percent = 100 * float64(r.Count) / float64(rows)
		}
		out = append(out, r)
	}
	return out
}

func sortedCopy(vals []float64) []float64 {
	out := make([]float64, len(vals))
	copy(out, vals)
	sort.Float64s(out)
	return out
}

func nan() float64 {
	return math.NaN()
}
