package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	appAgent "github.com/edachat/backend/internal/application/agent"
	domainAgent "github.com/edachat/backend/internal/domain/agent"
	"github.com/edachat/backend/internal/domain/chart"
	"github.com/edachat/backend/internal/domain/conversation"
	"github.com/edachat/backend/internal/domain/events"
	"github.com/edachat/backend/internal/domain/stats"
	"github.com/edachat/backend/internal/infrastructure/sandbox"
)

// State is a step of the turn lifecycle.
type State string

const (
	StateIdle        State = "Idle"
	StateRouting     State = "Routing"
	StateDispatching State = "Dispatching"
	StateExecuting   State = "Executing"
	StatePersisting  State = "Persisting"
)

// Answers written by the turn itself.
const (
	MsgUnknownAgent     = "Desculpe, não entendi qual agente usar. Poderia reformular sua pergunta?"
	MsgChartReady       = "Aqui está a visualização que você pediu."
	MsgNoFigure         = "O código foi gerado, mas não criou uma figura válida. Verifique se o código define uma variável 'fig'."
	MsgChartAttached    = "\n\n---\n\n**VISUALIZAÇÃO GERADA:**\n\n(Gráfico abaixo)"
	MsgChartUnavailable = "\n\nAVISO: Não foi possível gerar visualização."
	MsgCodeFigure       = "\n\n**Resultados:** visualização gerada automaticamente."
	MsgCodeNoFigure     = "\n\n**Resultados:** código executado sem gerar visualização."
)

// ExecutionReport describes the run of the turn's code.
type ExecutionReport struct {
	Cached   bool          `json:"cached"`
	Output   string        `json:"output,omitempty"`
	Result   string        `json:"result,omitempty"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
}

// MemoryDeltas are the memory entries appended during a turn.
type MemoryDeltas struct {
	Conversation []conversation.Entry `json:"conversation"`
	Analysis     []conversation.Entry `json:"analysis"`
}

// TurnResult is what one question produced.
type TurnResult struct {
	TurnID       string                      `json:"turn_id"`
	SessionID    string                      `json:"session_id"`
	Decision     domainAgent.RoutingDecision `json:"decision"`
	Messages     []conversation.Message      `json:"messages"`
	MemoryDeltas MemoryDeltas                `json:"memory_deltas"`
	Tables       []stats.Table               `json:"tables,omitempty"`
	Execution    *ExecutionReport            `json:"execution,omitempty"`
	Suggestions  []string                    `json:"suggestions"`
}

// Ask runs one turn: route the question, dispatch it, execute any code, persist, and
// suggest follow-ups. Only a missing session, an empty question or a session without data
// return an error; every other failure becomes answer text.
func (s *Service) Ask(ctx context.Context, sessionID, question string) (*TurnResult, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, conversation.ErrEmptyQuestion
	}
	e, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.session.Ready(); err != nil {
		return nil, err
	}

	t := &turn{
		svc:      s,
		sess:     e.session,
		id:       uuid.New().String(),
		question: question,
		convMark: e.session.Conversation.Len(),
		anaMark:  e.session.Analysis.Len(),
		msgMark:  len(e.session.Messages),
	}
	return t.run(ctx), nil
}

// turn carries the state of one question through the lifecycle.
type turn struct {
	svc      *Service
	sess     *conversation.Session
	id       string
	question string
	summary  string
	convID   string
	decision domainAgent.RoutingDecision

	text   string
	code   string
	figure *chart.Figure
	tables []stats.Table
	exec   *ExecutionReport

	convMark, anaMark, msgMark int
}

func (t *turn) run(ctx context.Context) *TurnResult {
	s := t.svc
	t.summary = s.summarize(t.sess.Dataset).Text

	t.sess.AddMessage(conversation.Message{
		ID:      uuid.New().String(),
		Role:    conversation.RoleUser,
		Content: t.question,
	})
	t.sess.Conversation.Append(conversation.LabelUser, t.question)
	t.logQuestion()

	t.setState(StateRouting, "", "")
	t.decision = s.team.Coordinator.Classify(ctx, t.question, t.summary, s.project(&t.sess.Conversation))
	s.logger.Info("Question routed",
		"session_id", t.sess.ID,
		"turn_id", t.id,
		"agent", t.decision.Agent,
		"rationale", t.decision.Rationale,
	)

	t.setState(StateDispatching, t.decision.Agent, "")
	t.dispatch(ctx)

	t.sess.AddMessage(conversation.Message{
		ID:      uuid.New().String(),
		Role:    conversation.RoleAssistant,
		Content: t.text,
		Agent:   t.decision.Agent,
		Code:    t.code,
		Chart:   t.figure,
		Output:  t.output(),
	})
	t.sess.Conversation.Append(conversation.LabelAssistant, t.text)

	t.setState(StatePersisting, t.decision.Agent, "")
	t.persist()

	t.setState(StateIdle, t.decision.Agent, "")
	s.publish(&events.TurnEvent{
		EventType: events.TurnCompleted,
		SessionID: t.sess.ID,
		TurnID:    t.id,
		State:     string(StateIdle),
		Agent:     string(t.decision.Agent),
		EventTime: time.Now(),
	})

	return &TurnResult{
		TurnID:    t.id,
		SessionID: t.sess.ID,
		Decision:  t.decision,
		Messages:  append([]conversation.Message(nil), t.sess.Messages[t.msgMark:]...),
		MemoryDeltas: MemoryDeltas{
			Conversation: t.sess.Conversation.Since(t.convMark),
			Analysis:     t.sess.Analysis.Since(t.anaMark),
		},
		Tables:      t.tables,
		Execution:   t.exec,
		Suggestions: s.suggester.Suggest(ctx, t.summary, s.project(&t.sess.Conversation)),
	}
}

func (t *turn) dispatch(ctx context.Context) {
	switch t.decision.Agent {
	case domainAgent.Both:
		t.runBoth(ctx)
	case domainAgent.DataAnalyst:
		resp := t.analyze(ctx)
		t.text = resp.Text
	case domainAgent.Visualization:
		t.runVisualization(ctx)
	case domainAgent.Consultant:
		t.runConsultant(ctx)
	case domainAgent.CodeGenerator:
		t.runCodeGenerator(ctx)
	case domainAgent.Error:
		t.text = t.decision.QuestionForAgent
		if t.decision.Rationale != "" {
			t.text += "\n\n" + t.decision.Rationale
		}
	default:
		t.text = MsgUnknownAgent
	}
}

func (t *turn) request(memory string) appAgent.Request {
	return appAgent.Request{
		Dataset:  t.sess.Dataset,
		Summary:  t.summary,
		Context:  memory,
		Question: t.decision.QuestionForAgent,
	}
}

// analyze runs the analyst and records its output in the analysis memory and the store.
func (t *turn) analyze(ctx context.Context) domainAgent.Response {
	resp := t.svc.team.Analyst.Analyze(ctx, t.request(t.svc.project(&t.sess.Analysis)))
	t.tables = resp.Tables
	switch {
	case !resp.Failed:
		t.recordAnalysis(resp.Text)
	case len(resp.Tables) > 0:
		// The narrative failed but the computed tables still hold.
		t.recordAnalysis(stats.Report{Tables: resp.Tables}.Markdown())
	}
	return resp
}

func (t *turn) recordAnalysis(text string) {
	t.sess.Analysis.AppendBlock(conversation.LabelStatistical, text)
	t.store("store analysis", func(st conversation.Store) error {
		return st.StoreAnalysis(t.sess.ID, t.convID, conversation.AnalysisTypeData, map[string]any{
			"analysis": text,
			"question": t.decision.QuestionForAgent,
		})
	})
}

// runBoth runs the analyst, then charts with the analyst's text as context.
func (t *turn) runBoth(ctx context.Context) {
	analysis := t.analyze(ctx)
	t.text = analysis.Text

	viz := t.svc.team.Visualizer.Visualize(ctx, t.request(analysis.Text))
	if viz.Failed {
		t.text += MsgChartUnavailable + " " + viz.Text
		return
	}
	t.code = viz.Code
	res, err := t.execute(ctx)
	switch {
	case err != nil:
		t.text += "\n\nAVISO: " + FormatExecError(err, t.code)
	case res.Figure != nil:
		t.text += MsgChartAttached
		t.sess.Analysis.Append(conversation.LabelVisualization, t.decision.QuestionForAgent)
	default:
		t.text += MsgChartUnavailable
	}
}

func (t *turn) runVisualization(ctx context.Context) {
	viz := t.svc.team.Visualizer.Visualize(ctx, t.request(t.svc.project(&t.sess.Analysis)))
	if viz.Failed {
		t.text = viz.Text
		return
	}
	t.code = viz.Code
	res, err := t.execute(ctx)
	switch {
	case err != nil:
		t.text = FormatExecError(err, t.code)
	case res.Figure != nil:
		t.text = MsgChartReady
		t.sess.Analysis.Append(conversation.LabelVisualization, t.decision.QuestionForAgent)
	default:
		t.text = MsgNoFigure
	}
}

func (t *turn) runConsultant(ctx context.Context) {
	resp := t.svc.team.Consultant.Consult(ctx, t.request(t.svc.project(&t.sess.Analysis)))
	t.text = resp.Text
	if resp.Failed {
		return
	}
	confidence := conversation.DefaultConfidence
	t.store("store conclusion", func(st conversation.Store) error {
		return st.StoreConclusion(t.sess.ID, t.convID, resp.Text, &confidence)
	})
}

// runCodeGenerator sends the user's own wording, not the reformulated one.
func (t *turn) runCodeGenerator(ctx context.Context) {
	req := t.request(t.svc.project(&t.sess.Analysis))
	req.Question = t.question
	resp := t.svc.team.CodeGenerator.Generate(ctx, req)
	t.text = resp.Text
	if resp.Failed {
		return
	}
	t.code = resp.Code
	res, err := t.execute(ctx)
	switch {
	case err != nil:
		t.text += "\n\n" + FormatExecError(err, t.code)
		return
	case res.Figure != nil:
		t.text += MsgCodeFigure
	default:
		t.text += MsgCodeNoFigure
	}
	if res.Result != "" {
		t.text += "\n\n**Valor de retorno:** " + res.Result
	}
}

// execute runs t.code through the session's cache namespace.
func (t *turn) execute(ctx context.Context) (*sandbox.Execution, error) {
	t.setState(StateExecuting, t.decision.Agent, "")
	res, err := t.svc.cache.Exec(ctx, t.sess.ID, t.code, t.sess.Dataset)
	if err != nil {
		t.svc.logger.Warn("Generated code failed",
			"session_id", t.sess.ID,
			"turn_id", t.id,
			"error", err,
		)
		t.exec = &ExecutionReport{Error: err.Error()}
		return nil, err
	}
	t.figure = res.Figure
	t.exec = &ExecutionReport{
		Cached:   res.Cached,
		Output:   res.Output,
		Result:   res.Result,
		Duration: res.Duration,
	}
	return res.Execution, nil
}

func (t *turn) output() string {
	if t.exec == nil {
		return ""
	}
	return t.exec.Output
}

// logQuestion stores the question with an empty answer before routing, so analyses and
// conclusions of this turn attach to it.
func (t *turn) logQuestion() {
	t.store("log conversation", func(st conversation.Store) error {
		id, err := st.LogConversation(t.sess.ID, t.question, "", "")
		t.convID = id
		return err
	})
}

// persist mirrors the answer, chart and code. Each call fails independently.
func (t *turn) persist() {
	chartJSON := ""
	if t.figure != nil {
		chartJSON = t.figure.Truncated(conversation.MaxStoredChartBytes)
	}
	if t.convID != "" {
		t.store("update conversation", func(st conversation.Store) error {
			return st.UpdateConversation(t.convID, t.text, chartJSON)
		})
	} else {
		t.store("log conversation", func(st conversation.Store) error {
			id, err := st.LogConversation(t.sess.ID, t.question, t.text, chartJSON)
			t.convID = id
			return err
		})
	}
	if t.code != "" {
		t.store("store generated code", func(st conversation.Store) error {
			return st.StoreGeneratedCode(t.sess.ID, t.convID, codeTypeOf(t.decision.Agent),
				conversation.TruncateCode(t.code), t.decision.QuestionForAgent)
		})
	}
}

// store runs op against the durable store of a durable session, downgrading failures to
// warnings.
func (t *turn) store(op string, fn func(conversation.Store) error) {
	st := t.svc.store
	if st == nil || !t.sess.Durable {
		return
	}
	if err := fn(st); err != nil {
		t.svc.logger.Warn("Persistence failed",
			"op", op,
			"session_id", t.sess.ID,
			"turn_id", t.id,
			"error", err,
		)
	}
}

func (t *turn) setState(state State, agent domainAgent.Kind, detail string) {
	t.svc.logger.Debug("Turn state", "session_id", t.sess.ID, "turn_id", t.id, "state", state)
	t.svc.publish(&events.TurnEvent{
		EventType: events.TurnStateChanged,
		SessionID: t.sess.ID,
		TurnID:    t.id,
		State:     string(state),
		Agent:     string(agent),
		Detail:    detail,
		EventTime: time.Now(),
	})
}

func codeTypeOf(kind domainAgent.Kind) string {
	if kind == domainAgent.Visualization {
		return conversation.CodeTypeVisual
	}
	return conversation.CodeTypeAnalysis
}

// FormatExecError renders an execution failure with the code that caused it.
func FormatExecError(err error, code string) string {
	var (
		syntaxErr  *sandbox.SyntaxError
		nameErr    *sandbox.NameError
		timeoutErr *sandbox.TimeoutError
	)
	switch {
	case errors.As(err, &syntaxErr):
		return fmt.Sprintf("Erro de sintaxe no código gerado: %v\n\nCódigo com erro:\n```python\n%s\n```", err, code)
	case errors.As(err, &nameErr):
		return fmt.Sprintf("Erro: variável não definida no código: %v\n\nCódigo com erro:\n```python\n%s\n```", err, code)
	case errors.As(err, &timeoutErr):
		return fmt.Sprintf("Execução do código interrompida: %v\n\nCódigo que falhou:\n```python\n%s\n```", err, code)
	default:
		return fmt.Sprintf("Erro ao executar código do gráfico: %v\n\nCódigo que falhou:\n```python\n%s\n```", err, code)
	}
}
