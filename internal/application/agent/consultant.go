package agent

import (
	"context"
	"log/slog"

	domainAgent "github.com/edachat/backend/internal/domain/agent"
	"github.com/edachat/backend/internal/infrastructure/log"
)

// Consultant interprets the analyses of the session. Its answers are bounded by the
// evidence in the prompt, which the model is instructed to respect.
type Consultant struct {
	gen    domainAgent.Generator
	logger *slog.Logger
}

// NewConsultant creates the consultant.
func NewConsultant(gen domainAgent.Generator) *Consultant {
	return &Consultant{
		gen:    gen,
		logger: log.NewModuleLogger("agent", "consultant"),
	}
}

// Consult answers from the dataset summary and the accumulated analysis memory.
func (c *Consultant) Consult(ctx context.Context, req Request) domainAgent.Response {
	resp := domainAgent.Response{Agent: domainAgent.Consultant}
	text, err := c.gen.Generate(ctx, domainAgent.Prompt{
		Name:     "consultant",
		Template: consultantTemplate,
		Vars: map[string]string{
			"dataset_preview": req.Summary,
			"all_analyses":    orDefault(req.Context, "Nenhuma análise realizada ainda."),
			"user_question":   req.Question,
		},
	})
	if err != nil {
		c.logger.Warn("Consultant generation failed", "error", err)
		return fail(resp, failureText(err))
	}
	resp.Text = text
	return resp
}
