package chart

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFigure_UpdateLayout(t *testing.T) {
	f := New("Distribuição")
	f.AddTrace("histogram", map[string]any{"x": []float64{1, 2, 3}})

	f.UpdateLayout(map[string]any{"xaxis_title": "idade", "bargap": 0.1, "title": "Idade"})

	assert.Equal(t, "Idade", f.Title())
	assert.Equal(t, map[string]any{"title": map[string]any{"text": "idade"}}, f.Layout["xaxis"])
	assert.Equal(t, 0.1, f.Layout["bargap"])
}

func TestFigure_JSONShape(t *testing.T) {
	f := New("t")
	f.AddTrace("bar", map[string]any{"x": []string{"a"}, "y": []float64{1}})

	data, err := f.JSON()
	require.NoError(t, err)

	parsed, err := Parse(data)
	require.NoError(t, err)
	require.Len(t, parsed.Data, 1)
	assert.Equal(t, "bar", parsed.Data[0]["type"])
	assert.Equal(t, "t", parsed.Title())
}

func TestFigure_Truncated(t *testing.T) {
	f := New(strings.Repeat("x", 200))

	out := f.Truncated(50)

	assert.True(t, strings.HasPrefix(out, `{"data":null`))
	assert.True(t, strings.HasSuffix(out, "(truncado para evitar timeout)"))
	assert.Equal(t, len(mustJSON(t, f)), len(f.Truncated(0)))
}

func mustJSON(t *testing.T, f *Figure) string {
	t.Helper()
	data, err := f.JSON()
	require.NoError(t, err)
	return string(data)
}
