// Package agent implements the coordinator and the four specialists on top of the text
// generation capability.
package agent

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	domainAgent "github.com/edachat/backend/internal/domain/agent"
	"github.com/edachat/backend/internal/infrastructure/log"
)

// Coordinator routes a question to a specialist.
type Coordinator struct {
	gen    domainAgent.Generator
	logger *slog.Logger
}

// Texts of the Error decision.
const (
	MsgCoordinatorUnavailable = "Não foi possível consultar o coordenador."
	MsgInvalidDecision        = "A resposta do coordenador não foi um JSON válido."
)

// NewCoordinator creates a coordinator.
func NewCoordinator(gen domainAgent.Generator) *Coordinator {
	return &Coordinator{
		gen:    gen,
		logger: log.NewModuleLogger("agent", "coordinator"),
	}
}

// Classify asks the model for a routing decision. Model failures and unparseable answers
// yield an Error decision carrying the cause as rationale. An empty reformulated question
// falls back to the user's question.
func (c *Coordinator) Classify(ctx context.Context, question, summary, conversation string) domainAgent.RoutingDecision {
	raw, err := c.gen.Generate(ctx, domainAgent.Prompt{
		Name:     "coordinator",
		Template: coordinatorTemplate,
		Vars: map[string]string{
			"dataset_preview":      summary,
			"conversation_history": conversation,
			"user_question":        question,
		},
	})
	if err != nil {
		c.logger.Warn("Coordinator generation failed", "error", err)
		return domainAgent.RoutingDecision{
			Agent:            domainAgent.Error,
			QuestionForAgent: MsgCoordinatorUnavailable,
			Rationale:        "Falha ao consultar o modelo: " + err.Error(),
		}
	}

	decision, err := ParseDecision(raw)
	if err != nil {
		c.logger.Warn("Coordinator answer is not valid JSON", "error", err, "raw", raw)
		return domainAgent.RoutingDecision{
			Agent:            domainAgent.Error,
			QuestionForAgent: MsgInvalidDecision,
			Rationale:        "Erro de parsing. Resposta recebida:\n" + raw,
		}
	}
	if strings.TrimSpace(decision.QuestionForAgent) == "" {
		decision.QuestionForAgent = question
	}
	c.logger.Debug("Question routed", "agent", decision.Agent, "rationale", decision.Rationale)
	return decision
}

// ParseDecision cleans a fenced answer and decodes it.
func ParseDecision(raw string) (domainAgent.RoutingDecision, error) {
	var d domainAgent.RoutingDecision
	if err := json.Unmarshal([]byte(CleanJSON(raw)), &d); err != nil {
		return domainAgent.RoutingDecision{}, err
	}
	d.Agent = domainAgent.Kind(strings.TrimSpace(string(d.Agent)))
	return d, nil
}
