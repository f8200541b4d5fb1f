package sandbox

import (
	"fmt"

	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"

	"github.com/edachat/backend/internal/domain/chart"
)

// graphModule is the plotly.graph_objects-like namespace, exposed to scripts as `go`.
var graphModule = &starlarkstruct.Module{
	Name: "go",
	Members: starlark.StringDict{
		"Figure":    starlark.NewBuiltin("Figure", graphFigure),
		"Bar":       traceBuiltin("Bar", "bar"),
		"Scatter":   traceBuiltin("Scatter", "scatter"),
		"Histogram": traceBuiltin("Histogram", "histogram"),
		"Box":       traceBuiltin("Box", "box"),
		"Heatmap":   traceBuiltin("Heatmap", "heatmap"),
		"Pie":       traceBuiltin("Pie", "pie"),
		"Contour":   traceBuiltin("Contour", "contour"),
	},
}

// traceBuiltin returns a constructor producing a trace dict of the given type.
func traceBuiltin(name, kind string) *starlark.Builtin {
	return starlark.NewBuiltin(name, func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		if len(args) > 0 {
			return nil, fmt.Errorf("%s: unexpected positional arguments", b.Name())
		}
		d := starlark.NewDict(len(kwargs) + 1)
		if err := d.SetKey(starlark.String("type"), starlark.String(kind)); err != nil {
			return nil, err
		}
		for _, kv := range kwargs {
			if err := d.SetKey(kv[0], kv[1]); err != nil {
				return nil, err
			}
		}
		return d, nil
	})
}

func graphFigure(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var data, layout starlark.Value = starlark.None, starlark.None
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "data?", &data, "layout?", &layout); err != nil {
		return nil, err
	}
	fig := chart.New("")
	switch d := data.(type) {
	case starlark.NoneType:
	case *starlark.Dict:
		t, err := asTrace(b.Name(), d)
		if err != nil {
			return nil, err
		}
		fig.Data = append(fig.Data, t)
	case starlark.Iterable:
		iter := d.Iterate()
		defer iter.Done()
		var elem starlark.Value
		for iter.Next(&elem) {
			t, err := asTrace(b.Name(), elem)
			if err != nil {
				return nil, err
			}
			fig.Data = append(fig.Data, t)
		}
	default:
		return nil, fmt.Errorf("%s: data must be a trace or a list of traces, got %s", b.Name(), data.Type())
	}
	if layout != starlark.None {
		g, err := toGo(layout)
		if err != nil {
			return nil, fmt.Errorf("%s: layout: %w", b.Name(), err)
		}
		m, ok := g.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%s: layout must be a dict, got %s", b.Name(), layout.Type())
		}
		fig.UpdateLayout(m)
	}
	return newFigureValue(fig), nil
}
