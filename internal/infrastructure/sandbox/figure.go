package sandbox

import (
	"fmt"

	"go.starlark.net/starlark"

	"github.com/edachat/backend/internal/domain/chart"
)

// figureValue wraps a chart.Figure built by px or go.
type figureValue struct {
	fig    *chart.Figure
	frozen bool
}

var _ starlark.HasAttrs = (*figureValue)(nil)

func newFigureValue(fig *chart.Figure) *figureValue {
	return &figureValue{fig: fig}
}

func (f *figureValue) String() string        { return fmt.Sprintf("<Figure traces=%d>", len(f.fig.Data)) }
func (f *figureValue) Type() string          { return "Figure" }
func (f *figureValue) Freeze()               { f.frozen = true }
func (f *figureValue) Truth() starlark.Bool  { return starlark.True }
func (f *figureValue) Hash() (uint32, error) { return 0, fmt.Errorf("unhashable type: Figure") }

var figureMethods = map[string]*starlark.Builtin{
	"update_layout": starlark.NewBuiltin("update_layout", figureUpdateLayout),
	"update_traces": starlark.NewBuiltin("update_traces", figureUpdateTraces),
	"update_xaxes":  starlark.NewBuiltin("update_xaxes", figureUpdateAxes("xaxis")),
	"update_yaxes":  starlark.NewBuiltin("update_yaxes", figureUpdateAxes("yaxis")),
	"add_trace":     starlark.NewBuiltin("add_trace", figureAddTrace),
	"to_json":       starlark.NewBuiltin("to_json", figureToJSON),
	"show":          starlark.NewBuiltin("show", figureShow),
}

// Attr implements starlark.HasAttrs.
func (f *figureValue) Attr(name string) (starlark.Value, error) {
	switch name {
	case "data":
		traces := make([]any, len(f.fig.Data))
		for i, t := range f.fig.Data {
			traces[i] = map[string]any(t)
		}
		return fromGo(traces), nil
	case "layout":
		return fromGo(f.fig.Layout), nil
	}
	if b, ok := figureMethods[name]; ok {
		return b.BindReceiver(f), nil
	}
	return nil, nil
}

// AttrNames implements starlark.HasAttrs.
func (f *figureValue) AttrNames() []string {
	return []string{"add_trace", "data", "layout", "show", "to_json", "update_layout", "update_traces", "update_xaxes", "update_yaxes"}
}

func mutableFigure(b *starlark.Builtin) (*figureValue, error) {
	f := b.Receiver().(*figureValue)
	if f.frozen {
		return nil, fmt.Errorf("%s: cannot modify frozen figure", b.Name())
	}
	return f, nil
}

// kwargsToGo converts keyword arguments, plus an optional leading dict, to a Go map.
func kwargsToGo(name string, args starlark.Tuple, kwargs []starlark.Tuple) (map[string]any, error) {
	out := map[string]any{}
	if len(args) > 1 {
		return nil, fmt.Errorf("%s: got %d positional arguments, want at most 1", name, len(args))
	}
	if len(args) == 1 {
		v, err := toGo(args[0])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		m, ok := v.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%s: positional argument must be a dict, got %s", name, args[0].Type())
		}
		for k, val := range m {
			out[k] = val
		}
	}
	for _, kv := range kwargs {
		key, _ := starlark.AsString(kv[0])
		v, err := toGo(kv[1])
		if err != nil {
			return nil, fmt.Errorf("%s: %s: %w", name, key, err)
		}
		out[key] = v
	}
	return out, nil
}

func figureUpdateLayout(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	f, err := mutableFigure(b)
	if err != nil {
		return nil, err
	}
	updates, err := kwargsToGo(b.Name(), args, kwargs)
	if err != nil {
		return nil, err
	}
	f.fig.UpdateLayout(updates)
	return f, nil
}

func figureUpdateTraces(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	f, err := mutableFigure(b)
	if err != nil {
		return nil, err
	}
	updates, err := kwargsToGo(b.Name(), args, kwargs)
	if err != nil {
		return nil, err
	}
	for _, t := range f.fig.Data {
		for k, v := range updates {
			t[k] = v
		}
	}
	return f, nil
}

func figureUpdateAxes(axis string) func(*starlark.Thread, *starlark.Builtin, starlark.Tuple, []starlark.Tuple) (starlark.Value, error) {
	return func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		f, err := mutableFigure(b)
		if err != nil {
			return nil, err
		}
		updates, err := kwargsToGo(b.Name(), args, kwargs)
		if err != nil {
			return nil, err
		}
		sub, _ := f.fig.Layout[axis].(map[string]any)
		if sub == nil {
			sub = map[string]any{}
		}
		for k, v := range updates {
			if k == "title" || k == "title_text" {
				sub["title"] = map[string]any{"text": v}
				continue
			}
			sub[k] = v
		}
		f.fig.Layout[axis] = sub
		return f, nil
	}
}

func figureAddTrace(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	f, err := mutableFigure(b)
	if err != nil {
		return nil, err
	}
	var trace starlark.Value
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &trace); err != nil {
		return nil, err
	}
	t, err := asTrace(b.Name(), trace)
	if err != nil {
		return nil, err
	}
	f.fig.Data = append(f.fig.Data, t)
	return f, nil
}

func figureToJSON(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 0); err != nil {
		return nil, err
	}
	data, err := b.Receiver().(*figureValue).fig.JSON()
	if err != nil {
		return nil, fmt.Errorf("to_json: %w", err)
	}
	return starlark.String(data), nil
}

// figureShow is a no-op; the caller renders the figure.
func figureShow(_ *starlark.Thread, _ *starlark.Builtin, _ starlark.Tuple, _ []starlark.Tuple) (starlark.Value, error) {
	return starlark.None, nil
}

func asTrace(fn string, v starlark.Value) (chart.Trace, error) {
	g, err := toGo(v)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fn, err)
	}
	m, ok := g.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%s: trace must be a dict, got %s", fn, v.Type())
	}
	if _, ok := m["type"]; !ok {
		m["type"] = "scatter"
	}
	return chart.Trace(m), nil
}
