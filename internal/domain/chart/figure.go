package chart

import (
	"encoding/json"
	"errors"
)

// ErrNoFigure is returned when executed code left no figure behind.
var ErrNoFigure = errors.New("no figure produced")

// Figure is a renderable chart in the Plotly JSON shape: {"data": [...], "layout": {...}}.
type Figure struct {
	Data   []Trace        `json:"data"`
	Layout map[string]any `json:"layout"`
}

// Trace is one Plotly trace. Keys follow the Plotly schema (type, x, y, z, name, ...).
type Trace map[string]any

// New creates an empty figure with a title.
func New(title string) *Figure {
	f := &Figure{Layout: map[string]any{}}
	if title != "" {
		f.SetTitle(title)
	}
	return f
}

// AddTrace appends a trace of the given type.
func (f *Figure) AddTrace(kind string, fields map[string]any) Trace {
	t := Trace{"type": kind}
	for k, v := range fields {
		t[k] = v
	}
	f.Data = append(f.Data, t)
	return t
}

// SetTitle sets layout.title.text.
func (f *Figure) SetTitle(title string) {
	f.Layout["title"] = map[string]any{"text": title}
}

// Title returns layout.title.text.
func (f *Figure) Title() string {
	if t, ok := f.Layout["title"].(map[string]any); ok {
		s, _ := t["text"].(string)
		return s
	}
	return ""
}

// UpdateLayout merges updates into the layout. axis_title style keys expand into the
// nested Plotly form: xaxis_title -> xaxis.title.text.
func (f *Figure) UpdateLayout(updates map[string]any) {
	for k, v := range updates {
		switch k {
		case "title":
			if s, ok := v.(string); ok {
				f.SetTitle(s)
				continue
			}
			f.Layout[k] = v
		case "xaxis_title", "yaxis_title":
			axis := k[:5]
			sub, _ := f.Layout[axis].(map[string]any)
			if sub == nil {
				sub = map[string]any{}
			}
			sub["title"] = map[string]any{"text": v}
			f.Layout[axis] = sub
		default:
			f.Layout[k] = v
		}
	}
}

// JSON encodes the figure.
func (f *Figure) JSON() ([]byte, error) {
	return json.Marshal(f)
}

// Truncated encodes the figure and cuts it to limit bytes, appending a marker when cut.
func (f *Figure) Truncated(limit int) string {
	data, err := f.JSON()
	if err != nil {
		return ""
	}
	if limit <= 0 || len(data) <= limit {
		return string(data)
	}
	return string(data[:limit]) + "\n... (truncado para evitar timeout)"
}

// Parse decodes a figure from JSON.
func Parse(data []byte) (*Figure, error) {
	var f Figure
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	if f.Layout == nil {
		f.Layout = map[string]any{}
	}
	return &f, nil
}
