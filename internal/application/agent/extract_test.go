package agent

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanJSON(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"json fence with trailing text", "```json\n{\"a\":1}\n```\nEspero ter ajudado.", `{"a":1}`},
		{"prose before fence", "Aqui está:\n```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"no fence", "  {\"a\":1}\n", `{"a":1}`},
		{"unterminated fence", "```json\n{\"a\":1}", `{"a":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CleanJSON(tt.raw)
			assert.Equal(t, tt.want, got)
			assert.True(t, json.Valid([]byte(got)))
		})
	}
}

func TestExtractCode_FirstBlock(t *testing.T) {
	raw := "Segue o código:\n```python\nfig = px.histogram(df, x=\"idade\")\n```\nObservação final."

	ex := ExtractCode(raw)

	assert.Equal(t, `fig = px.histogram(df, x="idade")`, ex.Code)
	assert.Equal(t, 1, ex.Blocks)
	assert.False(t, ex.DuplicateDropped)
}

func TestExtractCode_DuplicateBlocks(t *testing.T) {
	block := "```python\nx = 1\nfig = None\n```"
	raw := block + "\n\n" + block

	ex := ExtractCode(raw)

	assert.Equal(t, "x = 1\nfig = None", ex.Code)
	assert.Equal(t, 2, ex.Blocks)
	assert.True(t, ex.DuplicateDropped)
}

func TestExtractCode_NearIdenticalBlocks(t *testing.T) {
	raw := "```python\nx = 1\nfig = None\n```\n```python\nx  =  1\n\nfig = None   \n```"

	ex := ExtractCode(raw)

	assert.Equal(t, "x = 1\nfig = None", ex.Code)
	assert.True(t, ex.DuplicateDropped)
}

func TestExtractCode_DifferentBlocksKeepsFirst(t *testing.T) {
	raw := "```python\na = 1\n```\n```python\nb = 2\n```"

	ex := ExtractCode(raw)

	assert.Equal(t, "a = 1", ex.Code)
	assert.False(t, ex.DuplicateDropped)
	assert.Equal(t, 2, ex.Blocks)
}

func TestExtractCode_IgnoresNonCodeBlocks(t *testing.T) {
	raw := "```json\n{}\n```\n```\nfig = None\n```"

	assert.Equal(t, "fig = None", ExtractCode(raw).Code)
}

func TestExtractCode_NoFence(t *testing.T) {
	ex := ExtractCode("  fig = None\n\n\n")

	assert.Equal(t, "fig = None", ex.Code)
	assert.Equal(t, 0, ex.Blocks)
}

func TestExtractCode_CollapsesRepeatedBody(t *testing.T) {
	raw := "```python\na = 1\nb = 2\na = 1\nb = 2\n```"

	ex := ExtractCode(raw)

	assert.Equal(t, "a = 1\nb = 2", ex.Code)
	assert.True(t, ex.HalvesCollapsed)
}

func TestTrimTrailingBlank(t *testing.T) {
	assert.Equal(t, "a\n\nb", TrimTrailingBlank("a\n\nb\n  \n\t\n"))
	assert.Equal(t, "", TrimTrailingBlank("\n\n"))
}

func TestCollapseHalves(t *testing.T) {
	out, ok := CollapseHalves("x\ny\nx\ny")
	require.True(t, ok)
	assert.Equal(t, "x\ny", out)

	out, ok = CollapseHalves("x\ny\nz")
	assert.False(t, ok)
	assert.Equal(t, "x\ny\nz", out)

	_, ok = CollapseHalves("single")
	assert.False(t, ok)
}
