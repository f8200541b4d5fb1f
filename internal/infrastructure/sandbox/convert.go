package sandbox

import (
	"fmt"
	"math"
	"sort"

	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"

	"github.com/edachat/backend/internal/domain/dataset"
)

// toGo converts a Starlark value into plain Go data suitable for JSON. NaN becomes nil.
func toGo(v starlark.Value) (any, error) {
	switch x := v.(type) {
	case nil, starlark.NoneType:
		return nil, nil
	case starlark.Bool:
		return bool(x), nil
	case starlark.Int:
		if i, ok := x.Int64(); ok {
			return i, nil
		}
		f, _ := starlark.AsFloat(x)
		return f, nil
	case starlark.Float:
		f := float64(x)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, nil
		}
		return f, nil
	case starlark.String:
		return string(x), nil
	case *starlark.List:
		return iterToGo(x)
	case starlark.Tuple:
		return iterToGo(x)
	case *starlark.Dict:
		out := make(map[string]any, x.Len())
		for _, item := range x.Items() {
			key, ok := starlark.AsString(item[0])
			if !ok {
				key = item[0].String()
			}
			val, err := toGo(item[1])
			if err != nil {
				return nil, err
			}
			out[key] = val
		}
		return out, nil
	case *starlarkstruct.Struct:
		out := make(map[string]any)
		for _, name := range x.AttrNames() {
			attr, err := x.Attr(name)
			if err != nil {
				return nil, err
			}
			val, err := toGo(attr)
			if err != nil {
				return nil, err
			}
			out[name] = val
		}
		return out, nil
	case *figureValue:
		return x.fig, nil
	case starlark.Iterable:
		return iterToGo(x)
	default:
		return nil, fmt.Errorf("cannot convert %s to chart data", v.Type())
	}
}

func iterToGo(it starlark.Iterable) ([]any, error) {
	iter := it.Iterate()
	defer iter.Done()
	var out []any
	var elem starlark.Value
	for iter.Next(&elem) {
		v, err := toGo(elem)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if out == nil {
		out = []any{}
	}
	return out, nil
}

// fromGo converts plain Go data into a Starlark value.
func fromGo(v any) starlark.Value {
	switch x := v.(type) {
	case nil:
		return starlark.None
	case bool:
		return starlark.Bool(x)
	case int:
		return starlark.MakeInt(x)
	case int64:
		return starlark.MakeInt64(x)
	case float64:
		if math.IsNaN(x) {
			return starlark.None
		}
		return starlark.Float(x)
	case string:
		return starlark.String(x)
	case []string:
		out := make([]starlark.Value, len(x))
		for i, s := range x {
			out[i] = starlark.String(s)
		}
		return starlark.NewList(out)
	case []float64:
		out := make([]starlark.Value, len(x))
		for i, f := range x {
			out[i] = fromGo(f)
		}
		return starlark.NewList(out)
	case []any:
		out := make([]starlark.Value, len(x))
		for i, e := range x {
			out[i] = fromGo(e)
		}
		return starlark.NewList(out)
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		d := starlark.NewDict(len(x))
		for _, k := range keys {
			_ = d.SetKey(starlark.String(k), fromGo(x[k]))
		}
		return d
	default:
		return starlark.String(fmt.Sprint(x))
	}
}

// cellValue returns cell i of c as a Starlark value; missing cells are None.
func cellValue(c *dataset.Column, i int) starlark.Value {
	return fromGo(c.Value(i))
}

// series returns column c as Go values for chart traces; missing cells are nil.
func series(c *dataset.Column) []any {
	out := make([]any, c.Len())
	for i := range out {
		out[i] = c.Value(i)
	}
	return out
}

// floatsToGo converts a float slice for JSON, NaN becoming nil.
func floatsToGo(vals []float64) []any {
	out := make([]any, len(vals))
	for i, v := range vals {
		if !math.IsNaN(v) {
			out[i] = v
		}
	}
	return out
}
