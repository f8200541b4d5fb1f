package sandbox

import (
	"fmt"
	"sort"
	"strconv"

	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"

	"github.com/edachat/backend/internal/domain/chart"
)

type builtinFn = func(*starlark.Thread, *starlark.Builtin, starlark.Tuple, []starlark.Tuple) (starlark.Value, error)

// maxGroups caps the traces a color= split may create.
const maxGroups = 20

// pxModule is the plotly.express-like constructor namespace.
var pxModule = &starlarkstruct.Module{
	Name: "px",
	Members: starlark.StringDict{
		"histogram":      starlark.NewBuiltin("histogram", pxHistogram),
		"box":            starlark.NewBuiltin("box", pxBox),
		"bar":            starlark.NewBuiltin("bar", pxXY("bar")),
		"scatter":        starlark.NewBuiltin("scatter", pxXY("scatter")),
		"line":           starlark.NewBuiltin("line", pxXY("line")),
		"pie":            starlark.NewBuiltin("pie", pxPie),
		"heatmap":        starlark.NewBuiltin("heatmap", pxHeatmap),
		"imshow":         starlark.NewBuiltin("imshow", pxHeatmap),
		"histogram_grid": starlark.NewBuiltin("histogram_grid", pxHistogramGrid),
		"placeholder":    starlark.NewBuiltin("placeholder", pxPlaceholder),
	},
}

func newFigure(a *callArgs) (*chart.Figure, error) {
	title, err := a.str("title")
	if err != nil {
		return nil, err
	}
	return chart.New(title), nil
}

func axisTitles(fig *chart.Figure, labels map[string]string, x, y string) {
	updates := map[string]any{}
	if x != "" {
		if l, ok := labels[x]; ok {
			x = l
		}
		updates["xaxis_title"] = x
	}
	if y != "" {
		if l, ok := labels[y]; ok {
			y = l
		}
		updates["yaxis_title"] = y
	}
	if len(updates) > 0 {
		fig.UpdateLayout(updates)
	}
}

func pxHistogram(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	a, err := bindArgs(b.Name(), args, kwargs, "data_frame", "x")
	if err != nil {
		return nil, err
	}
	fig, err := newFigure(a)
	if err != nil {
		return nil, err
	}
	x, xl, ok, err := a.series("x")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%s: x is required", b.Name())
	}
	nbins, err := a.integer("nbins", 0)
	if err != nil {
		return nil, err
	}
	groups, _, hasColor, err := a.series("color")
	if err != nil {
		return nil, err
	}

	addHist := func(name string, vals []any) {
		fields := map[string]any{"x": vals}
		if name != "" {
			fields["name"] = name
		}
		if nbins > 0 {
			fields["nbinsx"] = nbins
		}
		fig.AddTrace("histogram", fields)
	}
	if hasColor {
		order, split := splitBy(groups, x)
		for _, g := range order {
			addHist(g, split[g])
		}
		fig.Layout["barmode"] = "overlay"
	} else {
		addHist(xl, x)
	}

	marginal, err := a.str("marginal")
	if err != nil {
		return nil, err
	}
	if marginal != "" {
		kind := "box"
		if marginal == "violin" {
			kind = "violin"
		}
		fig.AddTrace(kind, map[string]any{"x": x, "name": xl, "yaxis": "y2", "showlegend": false})
		fig.Layout["yaxis"] = map[string]any{"domain": []any{0.0, 0.78}}
		fig.Layout["yaxis2"] = map[string]any{"domain": []any{0.8, 1.0}, "showticklabels": false}
	}
	axisTitles(fig, a.labels(), xl, "count")
	return newFigureValue(fig), nil
}

func pxBox(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	a, err := bindArgs(b.Name(), args, kwargs, "data_frame", "x", "y")
	if err != nil {
		return nil, err
	}
	fig, err := newFigure(a)
	if err != nil {
		return nil, err
	}
	labels := a.labels()

	if cols, ok := a.columnNames("y"); ok {
		for _, name := range cols {
			c, _ := a.frame().d.Column(name)
			fig.AddTrace("box", map[string]any{"y": series(c), "name": labelOf(labels, name), "boxpoints": "outliers"})
		}
		return newFigureValue(fig), nil
	}

	y, yl, hasY, err := a.series("y")
	if err != nil {
		return nil, err
	}
	x, xl, hasX, err := a.series("x")
	if err != nil {
		return nil, err
	}
	switch {
	case hasY && hasX:
		fig.AddTrace("box", map[string]any{"x": x, "y": y, "boxpoints": "outliers"})
		axisTitles(fig, labels, xl, yl)
	case hasY:
		fig.AddTrace("box", map[string]any{"y": y, "name": labelOf(labels, yl), "boxpoints": "outliers"})
		axisTitles(fig, labels, "", yl)
	case hasX:
		fig.AddTrace("box", map[string]any{"x": x, "name": labelOf(labels, xl), "boxpoints": "outliers"})
		axisTitles(fig, labels, xl, "")
	default:
		f := a.frame()
		if f == nil {
			return nil, fmt.Errorf("%s: y is required", b.Name())
		}
		for _, c := range f.d.NumericColumns() {
			fig.AddTrace("box", map[string]any{"y": series(c), "name": labelOf(labels, c.Name), "boxpoints": "outliers"})
		}
	}
	return newFigureValue(fig), nil
}

// pxXY builds bar, scatter and line charts.
func pxXY(kind string) builtinFn {
	return func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		a, err := bindArgs(b.Name(), args, kwargs, "data_frame", "x", "y")
		if err != nil {
			return nil, err
		}
		fig, err := newFigure(a)
		if err != nil {
			return nil, err
		}
		labels := a.labels()
		x, xl, hasX, err := a.series("x")
		if err != nil {
			return nil, err
		}

		traceType, mode := kind, ""
		switch kind {
		case "scatter":
			mode = "markers"
		case "line":
			traceType, mode = "scatter", "lines"
		}
		add := func(name string, xs, ys []any) {
			fields := map[string]any{"y": ys}
			if xs != nil {
				fields["x"] = xs
			}
			if mode != "" {
				fields["mode"] = mode
			}
			if name != "" {
				fields["name"] = name
			}
			fig.AddTrace(traceType, fields)
		}

		if cols, ok := a.columnNames("y"); ok {
			for _, name := range cols {
				c, _ := a.frame().d.Column(name)
				add(labelOf(labels, name), x, series(c))
			}
			axisTitles(fig, labels, xl, "")
			return newFigureValue(fig), nil
		}

		y, yl, hasY, err := a.series("y")
		if err != nil {
			return nil, err
		}
		if !hasY {
			if kind != "bar" || !hasX {
				return nil, fmt.Errorf("%s: x and y are required", b.Name())
			}
			xs, counts := countValues(x)
			add("", xs, counts)
			axisTitles(fig, labels, xl, "count")
			return newFigureValue(fig), nil
		}

		groups, _, hasColor, err := a.series("color")
		if err != nil {
			return nil, err
		}
		if hasColor && hasX {
			order, xs := splitBy(groups, x)
			_, ys := splitBy(groups, y)
			for _, g := range order {
				add(g, xs[g], ys[g])
			}
		} else {
			add("", x, y)
		}

		if orientation, _ := a.str("orientation"); orientation == "h" && kind == "bar" {
			for _, t := range fig.Data {
				t["orientation"] = "h"
				t["x"], t["y"] = t["y"], t["x"]
			}
			xl, yl = yl, xl
		}
		axisTitles(fig, labels, xl, yl)
		return newFigureValue(fig), nil
	}
}

func pxPie(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	a, err := bindArgs(b.Name(), args, kwargs, "data_frame", "values", "names")
	if err != nil {
		return nil, err
	}
	fig, err := newFigure(a)
	if err != nil {
		return nil, err
	}
	names, _, hasNames, err := a.series("names")
	if err != nil {
		return nil, err
	}
	values, _, hasValues, err := a.series("values")
	if err != nil {
		return nil, err
	}
	switch {
	case hasNames && hasValues:
		fig.AddTrace("pie", map[string]any{"labels": names, "values": values})
	case hasNames:
		labels, counts := countValues(names)
		fig.AddTrace("pie", map[string]any{"labels": labels, "values": counts})
	default:
		return nil, fmt.Errorf("%s: names is required", b.Name())
	}
	return newFigureValue(fig), nil
}

// pxHeatmap accepts the struct returned by df.corr(), a list of rows, or z=.
func pxHeatmap(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	a, err := bindArgs(b.Name(), args, kwargs, "img")
	if err != nil {
		return nil, err
	}
	fig, err := newFigure(a)
	if err != nil {
		return nil, err
	}
	fields := map[string]any{"colorscale": "RdBu", "reversescale": true}

	src, ok := a.get("img")
	if !ok {
		src, ok = a.get("z")
	}
	if !ok {
		return nil, fmt.Errorf("%s: a matrix or z= is required", b.Name())
	}
	if s, isStruct := src.(*starlarkstruct.Struct); isStruct {
		cols, err := s.Attr("columns")
		if err != nil {
			return nil, fmt.Errorf("%s: %w", b.Name(), err)
		}
		vals, err := s.Attr("values")
		if err != nil {
			return nil, fmt.Errorf("%s: %w", b.Name(), err)
		}
		labels, _ := toGo(cols)
		z, _ := toGo(vals)
		fields["x"], fields["y"], fields["z"] = labels, labels, z
		fields["zmin"], fields["zmax"] = -1.0, 1.0
	} else {
		z, err := toGo(src)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", b.Name(), err)
		}
		fields["z"] = z
	}
	for _, axis := range []string{"x", "y"} {
		if v, ok := a.get(axis); ok {
			g, err := toGo(v)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", b.Name(), err)
			}
			fields[axis] = g
		}
	}
	if v, ok := a.get("text_auto"); ok && bool(v.Truth()) {
		format := "%{z:.2f}"
		if s, isStr := starlark.AsString(v); isStr {
			format = "%{z:" + s + "}"
		}
		fields["texttemplate"] = format
	}
	fig.AddTrace("heatmap", fields)
	return newFigureValue(fig), nil
}

// pxHistogramGrid lays out one histogram per column, cols per row.
func pxHistogramGrid(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	a, err := bindArgs(b.Name(), args, kwargs, "data_frame", "columns")
	if err != nil {
		return nil, err
	}
	f := a.frame()
	if f == nil {
		return nil, fmt.Errorf("%s: a data frame is required", b.Name())
	}
	fig, err := newFigure(a)
	if err != nil {
		return nil, err
	}
	perRow, err := a.integer("cols", 3)
	if err != nil {
		return nil, err
	}
	if perRow < 1 {
		perRow = 1
	}
	nbins, err := a.integer("nbins", 0)
	if err != nil {
		return nil, err
	}

	names, ok := a.columnNames("columns")
	if !ok {
		for _, c := range f.d.NumericColumns() {
			names = append(names, c.Name)
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%s: no numeric columns to plot", b.Name())
	}

	rows := (len(names) + perRow - 1) / perRow
	var annotations []any
	for i, name := range names {
		c, _ := f.d.Column(name)
		suffix := ""
		if i > 0 {
			suffix = strconv.Itoa(i + 1)
		}
		fields := map[string]any{"x": series(c), "name": name, "xaxis": "x" + suffix, "yaxis": "y" + suffix, "showlegend": false}
		if nbins > 0 {
			fields["nbinsx"] = nbins
		}
		fig.AddTrace("histogram", fields)
		annotations = append(annotations, map[string]any{
			"text": name, "showarrow": false,
			"xref": "x" + suffix + " domain", "yref": "y" + suffix + " domain",
			"x": 0.5, "y": 1.12,
		})
	}
	fig.Layout["grid"] = map[string]any{"rows": rows, "columns": min(perRow, len(names)), "pattern": "independent"}
	fig.Layout["annotations"] = annotations
	fig.Layout["height"] = 300 * rows
	return newFigureValue(fig), nil
}

// pxPlaceholder is an empty figure carrying a centered message.
func pxPlaceholder(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	a, err := bindArgs(b.Name(), args, kwargs, "message")
	if err != nil {
		return nil, err
	}
	msg, err := a.str("message")
	if err != nil {
		return nil, err
	}
	fig, err := newFigure(a)
	if err != nil {
		return nil, err
	}
	fig.Data = []chart.Trace{}
	fig.Layout["annotations"] = []any{map[string]any{
		"text": msg, "showarrow": false, "xref": "paper", "yref": "paper", "x": 0.5, "y": 0.5,
		"font": map[string]any{"size": 16},
	}}
	fig.Layout["xaxis"] = map[string]any{"visible": false}
	fig.Layout["yaxis"] = map[string]any{"visible": false}
	return newFigureValue(fig), nil
}

func labelOf(labels map[string]string, name string) string {
	if l, ok := labels[name]; ok {
		return l
	}
	return name
}

// splitBy partitions vals by the group value at the same index, in first-seen order.
func splitBy(groups, vals []any) ([]string, map[string][]any) {
	var order []string
	out := map[string][]any{}
	for i, g := range groups {
		if i >= len(vals) {
			break
		}
		key := fmt.Sprint(g)
		if g == nil {
			key = "None"
		}
		if _, ok := out[key]; !ok {
			if len(order) == maxGroups {
				key = "outros"
				if _, seen := out[key]; !seen {
					order = append(order, key)
				}
			} else {
				order = append(order, key)
			}
		}
		out[key] = append(out[key], vals[i])
	}
	return order, out
}

// countValues counts non-nil values, ordered by descending count then first appearance.
func countValues(vals []any) ([]any, []any) {
	counts := map[string]int{}
	var order []string
	for _, v := range vals {
		if v == nil {
			continue
		}
		k := fmt.Sprint(v)
		if _, ok := counts[k]; !ok {
			order = append(order, k)
		}
		counts[k]++
	}
	sort.SliceStable(order, func(i, j int) bool { return counts[order[i]] > counts[order[j]] })
	xs := make([]any, len(order))
	ys := make([]any, len(order))
	for i, k := range order {
		xs[i], ys[i] = k, counts[k]
	}
	return xs, ys
}
