package agent

import (
	"context"
	"log/slog"
	"strings"

	domainAgent "github.com/edachat/backend/internal/domain/agent"
	"github.com/edachat/backend/internal/domain/stats"
	"github.com/edachat/backend/internal/infrastructure/log"
)

// Static answers of the analyst.
const (
	MsgEmptyDataset = "Erro: O DataFrame está vazio. Não é possível realizar a análise."
	MsgNoQuestion   = "Erro: Nenhuma pergunta específica foi fornecida para análise."
	MsgNoPreview    = "Erro: Não foi possível gerar o preview do dataset."
	MsgNoAnalysis   = "Desculpe, não foi possível gerar uma análise para esta pergunta. Por favor, tente reformular sua pergunta."
)

// Analyst answers statistical questions. It computes the tables matching the question
// before asking the model, so the numbers never depend on the model.
type Analyst struct {
	gen    domainAgent.Generator
	logger *slog.Logger
}

// NewAnalyst creates the analyst.
func NewAnalyst(gen domainAgent.Generator) *Analyst {
	return &Analyst{
		gen:    gen,
		logger: log.NewModuleLogger("agent", "data_analyst"),
	}
}

// Analyze validates the input, runs the statistics engine and asks the model for the
// narrative. Computed tables are kept in the answer even when the model fails.
func (a *Analyst) Analyze(ctx context.Context, req Request) domainAgent.Response {
	resp := domainAgent.Response{Agent: domainAgent.DataAnalyst}
	switch {
	case req.Dataset.IsEmpty():
		return fail(resp, MsgEmptyDataset)
	case strings.TrimSpace(req.Question) == "":
		return fail(resp, MsgNoQuestion)
	case strings.TrimSpace(req.Summary) == "":
		return fail(resp, MsgNoPreview)
	}

	cats := stats.Detect(req.Question)
	report := stats.Compute(req.Dataset, cats)
	resp.Tables = report.Tables
	computed := "Nenhum cálculo determinístico se aplica a esta pergunta."
	if !report.Empty() {
		computed = report.Markdown()
	}
	a.logger.Debug("Statistics computed", "categories", cats, "tables", len(report.Tables))

	narrative, err := a.gen.Generate(ctx, domainAgent.Prompt{
		Name:     "data_analyst",
		Template: analystTemplate,
		Vars: map[string]string{
			"dataset_preview":   req.Summary,
			"computed_tables":   computed,
			"analysis_context":  orDefault(req.Context, "Nenhum contexto de análise anterior fornecido."),
			"specific_question": req.Question,
		},
	})
	switch {
	case err != nil:
		a.logger.Warn("Analyst generation failed", "error", err)
		narrative = failureText(err)
		resp.Failed = true
	case strings.TrimSpace(narrative) == "" || strings.TrimSpace(narrative) == "undefined":
		narrative = MsgNoAnalysis
		resp.Failed = true
	}

	if report.Empty() {
		resp.Text = narrative
	} else {
		resp.Text = narrative + "\n\n" + report.Markdown()
	}
	return resp
}

func fail(resp domainAgent.Response, msg string) domainAgent.Response {
	resp.Text = msg
	resp.Failed = true
	return resp
}
