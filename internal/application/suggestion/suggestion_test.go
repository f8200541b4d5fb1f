package suggestion

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edachat/backend/internal/domain/agent/agenttest"
)

func TestExtractContext(t *testing.T) {
	history := "Usuário: qual a correlação?\nAssistente: veja o heatmap gerado\n"

	c := ExtractContext(history)

	assert.True(t, c.HasStatistics)
	assert.True(t, c.HasVisualization)
	assert.False(t, c.HasInsights)
	assert.False(t, c.HasCode)
	assert.Equal(t, []string{"estatística", "visualização"}, c.AnalysisTypes)
	assert.Equal(t, []string{"DataAnalystAgent", "VisualizationAgent"}, c.AgentsUsed)
	assert.Contains(t, c.Topics, "correlation")
}

func TestExtractContext_AccentInsensitive(t *testing.T) {
	c := ExtractContext("RECOMENDACAO de negocio e CODIGO")

	assert.True(t, c.HasInsights)
	assert.True(t, c.HasCode)
}

func TestExtractContext_Empty(t *testing.T) {
	c := ExtractContext("  ")

	assert.Empty(t, c.AnalysisTypes)
	assert.NotNil(t, c.AgentsUsed)
}

func TestEnrich(t *testing.T) {
	out := Enrich("h", Context{AnalysisTypes: []string{"estatística"}, AgentsUsed: []string{"DataAnalystAgent"}})

	assert.Equal(t, "h\n\nTipos de análise realizados: estatística\nAgentes utilizados: DataAnalystAgent", out)
	assert.Equal(t, "h", Enrich("h", Context{}))
}

func TestParse_PadsWithDefaults(t *testing.T) {
	out, err := Parse("```json\n{\"suggestions\":[\"Qual a média?\"]}\n```")

	require.NoError(t, err)
	assert.Equal(t, []string{"Qual a média?", defaults[0], defaults[1]}, out)
}

func TestParse_CapsAtThree(t *testing.T) {
	out, err := Parse(`{"suggestions":["a","b","c","d"]}`)

	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, out)
}

func TestSuggest_EmptyHistoryUsesFallback(t *testing.T) {
	gen := agenttest.NewFakeGenerator()

	out := NewGenerator(gen).Suggest(context.Background(), "s", "")

	assert.Equal(t, Fallback()[:Count], out)
	assert.Zero(t, gen.CallCount())
}

func TestSuggest_EnrichedHistoryReachesModel(t *testing.T) {
	gen := agenttest.NewFakeGenerator().AddResponse("suggestions", `{"suggestions":["x","y","z"]}`)

	out := NewGenerator(gen).Suggest(context.Background(), "Shape: (3, 2)", "Usuário: mostre um histograma\n")

	assert.Equal(t, []string{"x", "y", "z"}, out)
	vars := gen.Calls()[0].Vars
	assert.Contains(t, vars["conversation_history"], "Tipos de análise realizados: visualização")
	assert.Equal(t, "Shape: (3, 2)", vars["dataset_preview"])
}

func TestSuggest_FailuresUseFallback(t *testing.T) {
	bad := agenttest.NewFakeGenerator().AddResponse("suggestions", "não sei")
	assert.Equal(t, Fallback()[:Count], NewGenerator(bad).Suggest(context.Background(), "s", "h"))

	broken := agenttest.NewFakeGenerator().AddError("suggestions", errors.New("down"))
	assert.Equal(t, Fallback()[:Count], NewGenerator(broken).Suggest(context.Background(), "s", "h"))
}
