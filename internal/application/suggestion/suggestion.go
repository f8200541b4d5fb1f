// Package suggestion proposes follow-up questions from the conversation so far.
package suggestion

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/edachat/backend/internal/application/agent"
	domainAgent "github.com/edachat/backend/internal/domain/agent"
	"github.com/edachat/backend/internal/domain/stats"
	"github.com/edachat/backend/internal/infrastructure/log"
)

// Count is the number of suggestions returned.
const Count = 3

// defaults pad a short model answer.
var defaults = []string{
	"Quais são os tipos de dados e estatísticas básicas deste dataset?",
	"Mostre a distribuição das variáveis numéricas em histogramas.",
	"Existe correlação entre as variáveis? Mostre um heatmap.",
}

var fallback = []string{
	"Quais são os tipos de dados e estatísticas básicas?",
	"Mostre a distribuição dos dados em gráficos.",
	"Existe correlação entre as principais variáveis?",
	"Há valores atípicos que merecem atenção?",
	"Quais são as principais descobertas neste conjunto de dados?",
	"Como as variáveis se relacionam entre si?",
	"Quais são os próximos passos recomendados para análise?",
}

// Fallback returns the static suggestion list.
func Fallback() []string {
	out := make([]string, len(fallback))
	copy(out, fallback)
	return out
}

// Keyword families detecting what a conversation already covered.
var (
	statKeywords    = []string{"estatística", "correlação", "média", "mediana", "desvio", "outlier", "distribuição"}
	vizKeywords     = []string{"gráfico", "plot", "visualização", "histograma", "scatter", "heatmap", "box plot"}
	insightKeywords = []string{"insight", "recomendação", "conclusão", "negócio", "estratégia", "otimizar"}
	codeKeywords    = []string{"código", "python", "notebook", "script", "função"}
)

// Context is what a conversation has covered so far.
type Context struct {
	Topics           []string `json:"topics_discussed"`
	AgentsUsed       []string `json:"agents_used"`
	AnalysisTypes    []string `json:"analysis_types"`
	HasVisualization bool     `json:"has_visualization"`
	HasStatistics    bool     `json:"has_statistics"`
	HasInsights      bool     `json:"has_insights"`
	HasCode          bool     `json:"has_code"`
}

// ExtractContext scans history for keyword families and agent names. Matching ignores
// case and accents.
func ExtractContext(history string) Context {
	ctx := Context{
		Topics:        []string{},
		AgentsUsed:    []string{},
		AnalysisTypes: []string{},
	}
	if strings.TrimSpace(history) == "" {
		return ctx
	}
	text := stats.Fold(history)

	if containsAny(text, statKeywords) {
		ctx.HasStatistics = true
		ctx.AnalysisTypes = append(ctx.AnalysisTypes, "estatística")
	}
	if containsAny(text, vizKeywords) {
		ctx.HasVisualization = true
		ctx.AnalysisTypes = append(ctx.AnalysisTypes, "visualização")
	}
	if containsAny(text, insightKeywords) {
		ctx.HasInsights = true
		ctx.AnalysisTypes = append(ctx.AnalysisTypes, "insights")
	}
	if containsAny(text, codeKeywords) {
		ctx.HasCode = true
		ctx.AnalysisTypes = append(ctx.AnalysisTypes, "código")
	}

	agents := []struct {
		kind domainAgent.Kind
		flag bool
	}{
		{domainAgent.DataAnalyst, ctx.HasStatistics},
		{domainAgent.Visualization, ctx.HasVisualization},
		{domainAgent.Consultant, ctx.HasInsights},
		{domainAgent.CodeGenerator, ctx.HasCode},
	}
	for _, a := range agents {
		if a.flag || strings.Contains(text, strings.ToLower(string(a.kind))) {
			ctx.AgentsUsed = append(ctx.AgentsUsed, string(a.kind))
		}
	}

	for _, cat := range stats.Detect(history) {
		ctx.Topics = append(ctx.Topics, string(cat))
	}
	return ctx
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, stats.Fold(kw)) {
			return true
		}
	}
	return false
}

// Enrich appends the covered analysis types and agents to history.
func Enrich(history string, c Context) string {
	var b strings.Builder
	b.WriteString(history)
	if len(c.AnalysisTypes) > 0 {
		b.WriteString("\n\nTipos de análise realizados: ")
		b.WriteString(strings.Join(c.AnalysisTypes, ", "))
	}
	if len(c.AgentsUsed) > 0 {
		b.WriteString("\nAgentes utilizados: ")
		b.WriteString(strings.Join(c.AgentsUsed, ", "))
	}
	return b.String()
}

// Generator asks the model for follow-up questions.
type Generator struct {
	gen    domainAgent.Generator
	logger *slog.Logger
}

// NewGenerator creates a suggestion generator.
func NewGenerator(gen domainAgent.Generator) *Generator {
	return &Generator{
		gen:    gen,
		logger: log.NewModuleLogger("suggestion", "generator"),
	}
}

// Suggest returns exactly Count suggestions. An empty history, a model failure or an
// unparseable answer yield the fallback list; a short answer is padded with defaults.
func (g *Generator) Suggest(ctx context.Context, summary, history string) []string {
	if strings.TrimSpace(history) == "" {
		return Fallback()[:Count]
	}

	p := agent.SuggestionTemplate()
	p.Vars = map[string]string{
		"dataset_preview":      summary,
		"conversation_history": Enrich(history, ExtractContext(history)),
	}
	raw, err := g.gen.Generate(ctx, p)
	if err != nil {
		g.logger.Warn("Suggestion generation failed", "error", err)
		return Fallback()[:Count]
	}

	out, err := Parse(raw)
	if err != nil {
		g.logger.Warn("Suggestion answer is not valid JSON", "error", err, "raw", raw)
		return Fallback()[:Count]
	}
	return out
}

// Parse decodes {"suggestions": [...]} and normalizes it to Count entries.
func Parse(raw string) ([]string, error) {
	var payload struct {
		Suggestions []string `json:"suggestions"`
	}
	if err := json.Unmarshal([]byte(agent.CleanJSON(raw)), &payload); err != nil {
		return nil, err
	}
	var out []string
	for _, s := range payload.Suggestions {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	for i := 0; len(out) < Count; i++ {
		out = append(out, defaults[i%len(defaults)])
	}
	return out[:Count], nil
}
