package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainAgent "github.com/edachat/backend/internal/domain/agent"
	"github.com/edachat/backend/internal/domain/agent/agenttest"
	"github.com/edachat/backend/internal/domain/dataset"
	"github.com/edachat/backend/internal/domain/stats"
)

func salesDataset(t *testing.T) *dataset.Dataset {
	t.Helper()
	d, err := dataset.New("vendas.csv",
		[]string{"preco", "quantidade", "regiao"},
		[][]string{
			{"10", "1", "sul"},
			{"12", "2", "norte"},
			{"11", "3", "sul"},
			{"13", "4", "sul"},
			{"100", "5", "leste"},
		})
	require.NoError(t, err)
	return d
}

func request(t *testing.T, d *dataset.Dataset, question string) Request {
	return Request{Dataset: d, Summary: dataset.Summarize(d).Text, Question: question}
}

func TestAnalyst_EmptyDatasetSkipsModel(t *testing.T) {
	gen := agenttest.NewFakeGenerator()
	empty, err := dataset.New("vazio.csv", []string{"a"}, nil)
	require.NoError(t, err)

	resp := NewAnalyst(gen).Analyze(context.Background(), Request{Dataset: empty, Summary: "s", Question: "média?"})

	assert.Equal(t, MsgEmptyDataset, resp.Text)
	assert.True(t, resp.Failed)
	assert.Zero(t, gen.CallCount())
}

func TestAnalyst_InputValidation(t *testing.T) {
	gen := agenttest.NewFakeGenerator()
	a := NewAnalyst(gen)
	d := salesDataset(t)

	assert.Equal(t, MsgNoQuestion, a.Analyze(context.Background(), Request{Dataset: d, Summary: "s", Question: "  "}).Text)
	assert.Equal(t, MsgNoPreview, a.Analyze(context.Background(), Request{Dataset: d, Question: "q"}).Text)
	assert.Zero(t, gen.CallCount())
}

func TestAnalyst_AppendsTablesAfterNarrative(t *testing.T) {
	gen := agenttest.NewFakeGenerator().AddResponse("data_analyst", "A coluna preco tem um outlier.")
	d := salesDataset(t)

	resp := NewAnalyst(gen).Analyze(context.Background(), request(t, d, "Existem outliers nos dados?"))

	require.Len(t, resp.Tables, 1)
	assert.Equal(t, stats.Outliers, resp.Tables[0].Category)
	assert.True(t, strings.HasPrefix(resp.Text, "A coluna preco tem um outlier.\n\n"))
	narrative := strings.Index(resp.Text, "A coluna preco tem um outlier.")
	table := strings.Index(resp.Text, "### Detecção de Outliers")
	require.GreaterOrEqual(t, table, 0)
	assert.Less(t, narrative, table, "tables follow the narrative")
	assert.Contains(t, resp.Text, resp.Tables[0].Markdown())
	assert.False(t, resp.Failed)

	calls := gen.Calls()
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].Vars["computed_tables"], "Detecção de Outliers")
	assert.Equal(t, "Nenhum contexto de análise anterior fornecido.", calls[0].Vars["analysis_context"])
}

func TestAnalyst_ModelFailureKeepsTables(t *testing.T) {
	gen := agenttest.NewFakeGenerator().AddError("data_analyst", errors.New("timeout"))

	resp := NewAnalyst(gen).Analyze(context.Background(), request(t, salesDataset(t), "estatísticas descritivas"))

	assert.True(t, resp.Failed)
	assert.Contains(t, resp.Text, "Estatísticas Descritivas")
	assert.Contains(t, resp.Text, "Ocorreu um erro ao processar sua solicitação: timeout")
}

func TestAnalyst_UndefinedAnswer(t *testing.T) {
	gen := agenttest.NewFakeGenerator().AddResponse("data_analyst", " undefined ")

	resp := NewAnalyst(gen).Analyze(context.Background(), request(t, salesDataset(t), "fale sobre os dados"))

	assert.Equal(t, MsgNoAnalysis, resp.Text)
	assert.Empty(t, resp.Tables)
}

func TestAnalyst_CorrelationGuard(t *testing.T) {
	d, err := dataset.New("p.csv", []string{"price", "category"}, [][]string{{"1.5", "a"}, {"2.5", "b"}})
	require.NoError(t, err)
	gen := agenttest.NewFakeGenerator().AddResponse("data_analyst", "ok")

	resp := NewAnalyst(gen).Analyze(context.Background(), request(t, d, "Qual a correlação entre as colunas X e Y?"))

	assert.Empty(t, resp.Tables)
	assert.Contains(t, resp.Text, "Correlação indisponível")
}

func TestVisualizer_DeterministicSkipsModel(t *testing.T) {
	gen := agenttest.NewFakeGenerator()

	resp := NewVisualizer(gen).Visualize(context.Background(), request(t, salesDataset(t), "Mostre a correlação"))

	assert.Contains(t, resp.Code, "df.corr()")
	assert.False(t, resp.Failed)
	assert.Zero(t, gen.CallCount())
}

func TestVisualizer_NotEnoughNumeric(t *testing.T) {
	d, err := dataset.New("p.csv", []string{"price", "category"}, [][]string{{"1.5", "a"}, {"2.5", "b"}})
	require.NoError(t, err)
	gen := agenttest.NewFakeGenerator()

	resp := NewVisualizer(gen).Visualize(context.Background(), request(t, d, "Qual a correlação entre as colunas X e Y?"))

	assert.Empty(t, resp.Code)
	assert.True(t, resp.Failed)
	assert.Equal(t, MsgNotEnoughNumeric, resp.Text)
	assert.Zero(t, gen.CallCount())
}

func TestVisualizer_ModelFallback(t *testing.T) {
	block := "```python\nfig = px.pie(df, names=\"regiao\")\n```"
	gen := agenttest.NewFakeGenerator().AddResponse("visualization", block+"\n"+block)
	req := request(t, salesDataset(t), "gráfico de pizza por região")
	req.Context = "Análise Estatística:\n..."

	resp := NewVisualizer(gen).Visualize(context.Background(), req)

	assert.Equal(t, `fig = px.pie(df, names="regiao")`, resp.Code)
	calls := gen.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "Análise Estatística:\n...", calls[0].Vars["analysis_results"])
	assert.Equal(t, "gráfico de pizza por região", calls[0].Vars["user_request"])
}

func TestVisualizer_ModelError(t *testing.T) {
	gen := agenttest.NewFakeGenerator().AddError("visualization", errors.New("503"))

	resp := NewVisualizer(gen).Visualize(context.Background(), request(t, salesDataset(t), "gráfico de pizza"))

	assert.True(t, resp.Failed)
	assert.True(t, strings.HasPrefix(resp.Text, "Erro no agente de visualização: 503"))
}

func TestConsultant(t *testing.T) {
	gen := agenttest.NewFakeGenerator().AddResponse("consultant", "**Validação Inicial**: ...")
	req := request(t, salesDataset(t), "o que isso significa?")
	req.Context = "Análise Estatística:\nmedia = 3\n"

	resp := NewConsultant(gen).Consult(context.Background(), req)

	assert.Equal(t, domainAgent.Consultant, resp.Agent)
	assert.Equal(t, "**Validação Inicial**: ...", resp.Text)
	assert.Equal(t, "Análise Estatística:\nmedia = 3\n", gen.Calls()[0].Vars["all_analyses"])
}

func TestConsultant_Error(t *testing.T) {
	gen := agenttest.NewFakeGenerator().AddError("consultant", errors.New("boom"))

	resp := NewConsultant(gen).Consult(context.Background(), request(t, salesDataset(t), "q"))

	assert.True(t, resp.Failed)
	assert.Equal(t, "Ocorreu um erro ao processar sua solicitação: boom", resp.Text)
}

func TestCodeGenerator(t *testing.T) {
	block := "```python\nfig = px.histogram(df, x=\"preco\")\n\n\n```"
	gen := agenttest.NewFakeGenerator().AddResponse("code_generator", block+"\n"+block)
	req := request(t, salesDataset(t), "me dê o código do histograma")
	req.Context = "Visualização Gerada: histograma\n"

	resp := NewCodeGenerator(gen).Generate(context.Background(), req)

	assert.Equal(t, `fig = px.histogram(df, x="preco")`, resp.Code)
	assert.Equal(t, MsgCodeGenerated, resp.Text)
	assert.Equal(t,
		"Pergunta do usuário: me dê o código do histograma\n\nContexto da conversa:\nVisualização Gerada: histograma\n",
		gen.Calls()[0].Vars["analysis_to_convert"])
}

func TestCodeGenerator_Error(t *testing.T) {
	gen := agenttest.NewFakeGenerator().AddError("code_generator", errors.New("quota"))

	resp := NewCodeGenerator(gen).Generate(context.Background(), request(t, salesDataset(t), "q"))

	assert.True(t, resp.Failed)
	assert.Empty(t, resp.Code)
}
