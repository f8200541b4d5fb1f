package agent

import (
	"context"
	"fmt"
	"log/slog"

	domainAgent "github.com/edachat/backend/internal/domain/agent"
	"github.com/edachat/backend/internal/infrastructure/log"
)

// MsgCodeGenerated is the answer text of a successful code generation.
const MsgCodeGenerated = "CÓDIGO GERADO: o script foi gerado e executado automaticamente sobre o dataset."

// CodeGenerator writes standalone scripts reproducing an analysis.
type CodeGenerator struct {
	gen    domainAgent.Generator
	logger *slog.Logger
}

// NewCodeGenerator creates the code generator.
func NewCodeGenerator(gen domainAgent.Generator) *CodeGenerator {
	return &CodeGenerator{
		gen:    gen,
		logger: log.NewModuleLogger("agent", "code_generator"),
	}
}

// AnalysisToConvert is the request text of the code generator: the user's question
// followed by the analysis memory.
func AnalysisToConvert(question, analyses string) string {
	return fmt.Sprintf("Pergunta do usuário: %s\n\nContexto da conversa:\n%s", question, analyses)
}

// Generate returns a response whose Code is the script. req.Question is the user's own
// question and req.Context the analysis memory.
func (g *CodeGenerator) Generate(ctx context.Context, req Request) domainAgent.Response {
	resp := domainAgent.Response{Agent: domainAgent.CodeGenerator}
	raw, err := g.gen.Generate(ctx, domainAgent.Prompt{
		Name:     "code_generator",
		Template: codeGeneratorTemplate,
		Vars: map[string]string{
			"dataset_info":        req.Summary,
			"analysis_to_convert": AnalysisToConvert(req.Question, req.Context),
		},
	})
	if err != nil {
		g.logger.Warn("Code generation failed", "error", err)
		return fail(resp, failureText(err))
	}

	ex := ExtractCode(raw)
	switch {
	case ex.Blocks == 0:
		g.logger.Warn("No code block in answer, using raw text")
	case ex.DuplicateDropped:
		g.logger.Debug("Duplicate code block discarded", "blocks", ex.Blocks)
	case ex.Blocks > 1:
		g.logger.Debug("Different code blocks in answer, using the first", "blocks", ex.Blocks)
	}
	if ex.HalvesCollapsed {
		g.logger.Debug("Repeated code collapsed after parsing")
	}
	if ex.Code == "" {
		return fail(resp, "O modelo não retornou código.")
	}
	resp.Code = ex.Code
	resp.Text = MsgCodeGenerated
	return resp
}
