package sandbox

import (
	"fmt"
	"sort"

	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"

	"github.com/edachat/backend/internal/domain/dataset"
	"github.com/edachat/backend/internal/domain/stats"
)

// frameValue exposes a read-only dataset to scripts as `df`.
type frameValue struct {
	d *dataset.Dataset
}

var (
	_ starlark.HasAttrs = (*frameValue)(nil)
	_ starlark.Mapping  = (*frameValue)(nil)
)

func newFrame(d *dataset.Dataset) *frameValue {
	return &frameValue{d: d}
}

func (f *frameValue) String() string {
	rows, cols := f.d.Shape()
	return fmt.Sprintf("<DataFrame %s %dx%d>", f.d.Name, rows, cols)
}

func (f *frameValue) Type() string          { return "DataFrame" }
func (f *frameValue) Freeze()               {}
func (f *frameValue) Truth() starlark.Bool  { return starlark.Bool(!f.d.IsEmpty()) }
func (f *frameValue) Hash() (uint32, error) { return 0, fmt.Errorf("unhashable type: DataFrame") }

var frameMethods = map[string]*starlark.Builtin{
	"column":          starlark.NewBuiltin("column", frameColumn),
	"numeric_columns": starlark.NewBuiltin("numeric_columns", frameNumericColumns),
	"text_columns":    starlark.NewBuiltin("text_columns", frameTextColumns),
	"corr":            starlark.NewBuiltin("corr", frameCorr),
	"describe":        starlark.NewBuiltin("describe", frameDescribe),
	"missing":         starlark.NewBuiltin("missing", frameMissing),
	"head":            starlark.NewBuiltin("head", frameHead),
	"value_counts":    starlark.NewBuiltin("value_counts", frameValueCounts),
	"outliers":        starlark.NewBuiltin("outliers", frameOutliers),
}

// Attr implements starlark.HasAttrs.
func (f *frameValue) Attr(name string) (starlark.Value, error) {
	switch name {
	case "shape":
		rows, cols := f.d.Shape()
		return starlark.Tuple{starlark.MakeInt(rows), starlark.MakeInt(cols)}, nil
	case "columns":
		return fromGo(f.d.ColumnNames()), nil
	case "dtypes":
		dt := starlark.NewDict(len(f.d.Columns()))
		for _, c := range f.d.Columns() {
			_ = dt.SetKey(starlark.String(c.Name), starlark.String(string(c.DType)))
		}
		return dt, nil
	case "name":
		return starlark.String(f.d.Name), nil
	}
	if b, ok := frameMethods[name]; ok {
		return b.BindReceiver(f), nil
	}
	return nil, nil
}

// AttrNames implements starlark.HasAttrs.
func (f *frameValue) AttrNames() []string {
	names := []string{"columns", "dtypes", "name", "shape"}
	for n := range frameMethods {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Get implements df["col"].
func (f *frameValue) Get(k starlark.Value) (starlark.Value, bool, error) {
	name, ok := starlark.AsString(k)
	if !ok {
		return nil, false, fmt.Errorf("DataFrame index must be a column name, got %s", k.Type())
	}
	c, ok := f.d.Column(name)
	if !ok {
		return nil, false, fmt.Errorf("column %q not found; columns are %v", name, f.d.ColumnNames())
	}
	return columnList(c), true, nil
}

func columnList(c *dataset.Column) *starlark.List {
	vals := make([]starlark.Value, c.Len())
	for i := range vals {
		vals[i] = cellValue(c, i)
	}
	return starlark.NewList(vals)
}

func receiver(b *starlark.Builtin) *frameValue {
	return b.Receiver().(*frameValue)
}

func (f *frameValue) lookup(name string) (*dataset.Column, error) {
	c, ok := f.d.Column(name)
	if !ok {
		return nil, fmt.Errorf("column %q not found; columns are %v", name, f.d.ColumnNames())
	}
	return c, nil
}

func frameColumn(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var name string
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &name); err != nil {
		return nil, err
	}
	c, err := receiver(b).lookup(name)
	if err != nil {
		return nil, err
	}
	return columnList(c), nil
}

func frameNumericColumns(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 0); err != nil {
		return nil, err
	}
	var names []string
	for _, c := range receiver(b).d.NumericColumns() {
		names = append(names, c.Name)
	}
	return fromGo(names), nil
}

func frameTextColumns(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 0); err != nil {
		return nil, err
	}
	var names []string
	for _, c := range receiver(b).d.TextColumns() {
		names = append(names, c.Name)
	}
	return fromGo(names), nil
}

// frameCorr returns struct(columns=[...], values=[[...]]), or None with fewer than two
// numeric columns.
func frameCorr(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 0); err != nil {
		return nil, err
	}
	m, err := stats.CorrelationMatrix(receiver(b).d)
	if err != nil {
		return starlark.None, nil
	}
	rows := make([]starlark.Value, len(m.Values))
	for i, row := range m.Values {
		rows[i] = fromGo(row)
	}
	return starlarkstruct.FromStringDict(starlark.String("matrix"), starlark.StringDict{
		"columns": fromGo(m.Labels),
		"values":  starlark.NewList(rows),
	}), nil
}

func frameDescribe(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 0); err != nil {
		return nil, err
	}
	out := starlark.NewDict(0)
	for _, s := range stats.Describe(receiver(b).d) {
		row := fromGo(map[string]any{
			"count": int64(s.Count),
			"mean":  s.Mean,
			"std":   s.Std,
			"min":   s.Min,
			"25%":   s.Q1,
			"50%":   s.Median,
			"75%":   s.Q3,
			"max":   s.Max,
		})
		_ = out.SetKey(starlark.String(s.Column), row)
	}
	return out, nil
}

func frameMissing(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 0); err != nil {
		return nil, err
	}
	out := starlark.NewDict(0)
	for _, r := range stats.MissingValues(receiver(b).d) {
		_ = out.SetKey(starlark.String(r.Column), starlark.MakeInt(r.Count))
	}
	return out, nil
}

func frameHead(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	n := 5
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "n?", &n); err != nil {
		return nil, err
	}
	d := receiver(b).d
	n = max(0, min(n, d.Rows()))
	rows := make([]starlark.Value, n)
	for i := 0; i < n; i++ {
		row := starlark.NewDict(len(d.Columns()))
		for _, c := range d.Columns() {
			_ = row.SetKey(starlark.String(c.Name), cellValue(c, i))
		}
		rows[i] = row
	}
	return starlark.NewList(rows), nil
}

func frameValueCounts(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var name string
	n := 0
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "name", &name, "n?", &n); err != nil {
		return nil, err
	}
	c, err := receiver(b).lookup(name)
	if err != nil {
		return nil, err
	}
	vcs := stats.ValueCounts(c, n)
	out := make([]starlark.Value, len(vcs))
	for i, vc := range vcs {
		out[i] = starlark.Tuple{starlark.String(vc.Value), starlark.MakeInt(vc.Count)}
	}
	return starlark.NewList(out), nil
}

func frameOutliers(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var name string
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &name); err != nil {
		return nil, err
	}
	c, err := receiver(b).lookup(name)
	if err != nil {
		return nil, err
	}
	if !c.IsNumeric() {
		return nil, fmt.Errorf("outliers: column %q is not numeric", name)
	}
	r := stats.OutliersOf(c)
	return starlarkstruct.FromStringDict(starlark.String("outliers"), starlark.StringDict{
		"q1":    fromGo(r.Q1),
		"q3":    fromGo(r.Q3),
		"iqr":   fromGo(r.IQR),
		"lower": fromGo(r.Lower),
		"upper": fromGo(r.Upper),
		"count": starlark.MakeInt(r.Count),
	}), nil
}
