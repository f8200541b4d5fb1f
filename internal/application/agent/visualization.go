package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/edachat/backend/internal/application/chartcode"
	domainAgent "github.com/edachat/backend/internal/domain/agent"
	"github.com/edachat/backend/internal/domain/stats"
	"github.com/edachat/backend/internal/infrastructure/log"
)

// Visualization answers that carry no code.
const (
	MsgNotEnoughNumeric = "Não há colunas numéricas suficientes no dataset para gerar este gráfico."
	MsgNoChartCode      = "O modelo não retornou código para a visualização."
)

// Visualizer writes chart code. Statistical questions get a deterministic script; other
// requests are sent to the model.
type Visualizer struct {
	gen    domainAgent.Generator
	logger *slog.Logger
}

// NewVisualizer creates the visualizer.
func NewVisualizer(gen domainAgent.Generator) *Visualizer {
	return &Visualizer{
		gen:    gen,
		logger: log.NewModuleLogger("agent", "visualization"),
	}
}

// Visualize returns a response whose Code builds the chart. Without code the response is
// Failed and Text explains why.
func (v *Visualizer) Visualize(ctx context.Context, req Request) domainAgent.Response {
	resp := domainAgent.Response{Agent: domainAgent.Visualization}
	if req.Dataset.IsEmpty() {
		return fail(resp, MsgEmptyDataset)
	}

	plan, err := chartcode.Generate(req.Dataset, req.Question)
	switch {
	case err == nil:
		v.logger.Debug("Deterministic chart selected", "category", plan.Category)
		resp.Code = plan.Code
		return resp
	case errors.Is(err, stats.ErrNotEnoughNumeric):
		v.logger.Info("Chart skipped", "category", plan.Category, "reason", err)
		return fail(resp, MsgNotEnoughNumeric)
	}

	raw, err := v.gen.Generate(ctx, domainAgent.Prompt{
		Name:     "visualization",
		Template: visualizationTemplate,
		Vars: map[string]string{
			"dataset_preview":  req.Summary,
			"analysis_results": orDefault(req.Context, "Nenhuma análise anterior."),
			"user_request":     req.Question,
		},
	})
	if err != nil {
		v.logger.Warn("Visualization generation failed", "error", err)
		return fail(resp, fmt.Sprintf("Erro no agente de visualização: %v\n\nTente reformular sua pergunta ou verifique se a chave da API está configurada corretamente.", err))
	}

	ex := ExtractCode(raw)
	if ex.DuplicateDropped || ex.HalvesCollapsed {
		v.logger.Debug("Duplicate chart code discarded", "blocks", ex.Blocks)
	}
	if ex.Code == "" {
		return fail(resp, MsgNoChartCode)
	}
	resp.Code = ex.Code
	return resp
}
