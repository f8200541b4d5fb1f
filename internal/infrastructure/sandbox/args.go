package sandbox

import (
	"fmt"

	"go.starlark.net/starlark"
)

// callArgs binds positional and keyword arguments by name. Unknown keywords are kept so
// plotting calls tolerate styling options they do not interpret.
type callArgs struct {
	fn   string
	vals map[string]starlark.Value
}

func bindArgs(fn string, args starlark.Tuple, kwargs []starlark.Tuple, positional ...string) (*callArgs, error) {
	if len(args) > len(positional) {
		return nil, fmt.Errorf("%s: got %d positional arguments, want at most %d", fn, len(args), len(positional))
	}
	a := &callArgs{fn: fn, vals: make(map[string]starlark.Value, len(args)+len(kwargs))}
	for i, v := range args {
		a.vals[positional[i]] = v
	}
	for _, kv := range kwargs {
		key, _ := starlark.AsString(kv[0])
		if _, dup := a.vals[key]; dup {
			return nil, fmt.Errorf("%s: got multiple values for argument %q", fn, key)
		}
		a.vals[key] = kv[1]
	}
	return a, nil
}

// get returns the argument unless it is absent or None.
func (a *callArgs) get(name string) (starlark.Value, bool) {
	v, ok := a.vals[name]
	if !ok || v == starlark.None {
		return nil, false
	}
	return v, true
}

func (a *callArgs) str(name string) (string, error) {
	v, ok := a.get(name)
	if !ok {
		return "", nil
	}
	s, ok := starlark.AsString(v)
	if !ok {
		return "", fmt.Errorf("%s: %s must be a string, got %s", a.fn, name, v.Type())
	}
	return s, nil
}

func (a *callArgs) integer(name string, def int) (int, error) {
	v, ok := a.get(name)
	if !ok {
		return def, nil
	}
	var n int
	if err := starlark.AsInt(v, &n); err != nil {
		return 0, fmt.Errorf("%s: %s: %w", a.fn, name, err)
	}
	return n, nil
}

func (a *callArgs) frame() *frameValue {
	v, ok := a.get("data_frame")
	if !ok {
		return nil
	}
	f, _ := v.(*frameValue)
	return f
}

// series resolves a data argument: a column name of the bound frame, or a literal list.
// label is the column name when one was used.
func (a *callArgs) series(name string) (vals []any, label string, ok bool, err error) {
	v, present := a.get(name)
	if !present {
		return nil, "", false, nil
	}
	if s, isStr := starlark.AsString(v); isStr {
		f := a.frame()
		if f == nil {
			return nil, "", false, fmt.Errorf("%s: %s=%q needs a data frame as first argument", a.fn, name, s)
		}
		c, err := f.lookup(s)
		if err != nil {
			return nil, "", false, fmt.Errorf("%s: %w", a.fn, err)
		}
		return series(c), s, true, nil
	}
	g, err := toGo(v)
	if err != nil {
		return nil, "", false, fmt.Errorf("%s: %s: %w", a.fn, name, err)
	}
	list, isList := g.([]any)
	if !isList {
		return nil, "", false, fmt.Errorf("%s: %s must be a column name or a list, got %s", a.fn, name, v.Type())
	}
	return list, "", true, nil
}

// columnNames returns the argument as column names when it is a list of names of the bound frame.
func (a *callArgs) columnNames(name string) ([]string, bool) {
	v, ok := a.get(name)
	if !ok {
		return nil, false
	}
	f := a.frame()
	if f == nil {
		return nil, false
	}
	iterable, ok := v.(starlark.Iterable)
	if !ok {
		return nil, false
	}
	if _, isStr := v.(starlark.String); isStr {
		return nil, false
	}
	var names []string
	iter := iterable.Iterate()
	defer iter.Done()
	var elem starlark.Value
	for iter.Next(&elem) {
		s, isStr := starlark.AsString(elem)
		if !isStr {
			return nil, false
		}
		if _, found := f.d.Column(s); !found {
			return nil, false
		}
		names = append(names, s)
	}
	return names, len(names) > 0
}

// labels returns the labels= mapping of column names to display names.
func (a *callArgs) labels() map[string]string {
	out := map[string]string{}
	v, ok := a.get("labels")
	if !ok {
		return out
	}
	d, ok := v.(*starlark.Dict)
	if !ok {
		return out
	}
	for _, item := range d.Items() {
		k, ok1 := starlark.AsString(item[0])
		val, ok2 := starlark.AsString(item[1])
		if ok1 && ok2 {
			out[k] = val
		}
	}
	return out
}
