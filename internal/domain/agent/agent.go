package agent

import (
	"bytes"
	"context"
	"fmt"
	"text/template"

	"github.com/edachat/backend/internal/domain/stats"
)

// Kind names a specialist, using the literal values the coordinator emits.
type Kind string

const (
	DataAnalyst   Kind = "DataAnalystAgent"
	Visualization Kind = "VisualizationAgent"
	Consultant    Kind = "ConsultantAgent"
	CodeGenerator Kind = "CodeGeneratorAgent"
	// Both runs DataAnalyst then Visualization, threading the analysis into the chart request.
	Both Kind = "BOTH"
	// Error marks a routing response that could not be parsed.
	Error Kind = "ErrorAgent"
)

// Known reports whether k is one of the dispatchable kinds.
func (k Kind) Known() bool {
	switch k {
	case DataAnalyst, Visualization, Consultant, CodeGenerator, Both:
		return true
	}
	return false
}

// RoutingDecision is the coordinator's JSON answer.
type RoutingDecision struct {
	Agent            Kind   `json:"agent_to_call"`
	QuestionForAgent string `json:"question_for_agent"`
	Rationale        string `json:"rationale"`
}

// Prompt is a named text/template plus the variables it is executed with.
type Prompt struct {
	Name     string
	Template *template.Template
	Vars     map[string]string
}

// NewPrompt parses text as a template named name. It panics on a malformed template,
// so prompts are declared as package variables.
func NewPrompt(name, text string) *template.Template {
	return template.Must(template.New(name).Option("missingkey=error").Parse(text))
}

// Render executes the template with Vars.
func (p Prompt) Render() (string, error) {
	if p.Template == nil {
		return "", fmt.Errorf("prompt %s: nil template", p.Name)
	}
	var buf bytes.Buffer
	if err := p.Template.Execute(&buf, p.Vars); err != nil {
		return "", fmt.Errorf("render prompt %s: %w", p.Name, err)
	}
	return buf.String(), nil
}

// Generator is the text generation capability: one prompt in, one completion out.
type Generator interface {
	Generate(ctx context.Context, prompt Prompt) (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, prompt Prompt) (string, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, prompt Prompt) (string, error) {
	return f(ctx, prompt)
}

// Response is what a specialist hands back to the turn: always text, optionally code.
// Tables holds deterministic results computed without the model. Failed marks text that
// is an error message rather than an answer.
type Response struct {
	Agent  Kind          `json:"agent"`
	Text   string        `json:"text"`
	Code   string        `json:"code,omitempty"`
	Tables []stats.Table `json:"tables,omitempty"`
	Failed bool          `json:"failed,omitempty"`
}
