package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainAgent "github.com/edachat/backend/internal/domain/agent"
	"github.com/edachat/backend/internal/domain/agent/agenttest"
)

func TestCoordinator_ParsesFencedDecision(t *testing.T) {
	gen := agenttest.NewFakeGenerator().AddResponse("coordinator",
		"```json\n{\"agent_to_call\":\"ConsultantAgent\",\"question_for_agent\":\"O que isso significa?\",\"rationale\":\"interpretação\"}\n```")
	c := NewCoordinator(gen)

	d := c.Classify(context.Background(), "e daí?", "Shape: (2, 1)", "Usuário: oi\n")

	assert.Equal(t, domainAgent.Consultant, d.Agent)
	assert.Equal(t, "O que isso significa?", d.QuestionForAgent)

	calls := gen.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "e daí?", calls[0].Vars["user_question"])
	assert.Equal(t, "Shape: (2, 1)", calls[0].Vars["dataset_preview"])
	assert.Contains(t, calls[0].Text, "Usuário: oi")
}

func TestCoordinator_Both(t *testing.T) {
	gen := agenttest.NewFakeGenerator().AddResponse("coordinator",
		`{"agent_to_call":"BOTH","question_for_agent":"","rationale":"estatística"}`)

	d := NewCoordinator(gen).Classify(context.Background(), "Qual a correlação entre X e Y?", "s", "")

	assert.Equal(t, domainAgent.Both, d.Agent)
	assert.Equal(t, "Qual a correlação entre X e Y?", d.QuestionForAgent, "empty reformulation falls back to the question")
}

func TestCoordinator_InvalidJSON(t *testing.T) {
	gen := agenttest.NewFakeGenerator().AddResponse("coordinator", "Eu acho que é o analista.")

	d := NewCoordinator(gen).Classify(context.Background(), "q", "s", "")

	assert.Equal(t, domainAgent.Error, d.Agent)
	assert.Contains(t, d.Rationale, "Eu acho que é o analista.")
	assert.False(t, d.Agent.Known())
}

func TestCoordinator_GenerationError(t *testing.T) {
	gen := agenttest.NewFakeGenerator().AddError("coordinator", errors.New("deadline exceeded"))

	d := NewCoordinator(gen).Classify(context.Background(), "q", "s", "")

	assert.Equal(t, domainAgent.Error, d.Agent)
	assert.Contains(t, d.Rationale, "deadline exceeded")
}

func TestParseDecision_TrimsAgent(t *testing.T) {
	d, err := ParseDecision(`{"agent_to_call":" VisualizationAgent ","question_for_agent":"q"}`)

	require.NoError(t, err)
	assert.Equal(t, domainAgent.Visualization, d.Agent)
}
