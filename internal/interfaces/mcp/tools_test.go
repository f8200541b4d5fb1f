package mcp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edachat/backend/internal/application/conversation/conversationtest"
	domainAgent "github.com/edachat/backend/internal/domain/agent"
)

func TestTools(t *testing.T) {
	svc, gen := conversationtest.New(t, nil)
	view := conversationtest.Open(t, svc)
	s := NewServer(svc)
	require.NotNil(t, s.GetHandler())
	ctx := context.Background()

	_, sessions, err := s.listSessionsTool(ctx, nil, ListSessionsInput{})
	require.NoError(t, err)
	require.Len(t, sessions.Sessions, 1)
	assert.Equal(t, 5, sessions.Sessions[0].Rows)

	_, summary, err := s.getDatasetSummaryTool(ctx, nil, SessionInput{SessionID: view.ID})
	require.NoError(t, err)
	assert.Contains(t, summary.Summary, "quantidade")
	assert.Equal(t, 3, summary.Info.Cols)

	gen.
		AddResponse("coordinator", conversationtest.Route(domainAgent.Consultant, "conclua")).
		AddResponse("consultant", "O preço 100 é atípico.")
	_, answer, err := s.askQuestionTool(ctx, nil, AskQuestionInput{SessionID: view.ID, Question: "O que concluir?"})
	require.NoError(t, err)
	assert.Equal(t, string(domainAgent.Consultant), answer.Agent)
	assert.Equal(t, "O preço 100 é atípico.", answer.Answer)
	assert.False(t, answer.HasChart)
	assert.Len(t, answer.Suggestions, 3)

	_, msgs, err := s.listMessagesTool(ctx, nil, ListMessagesInput{SessionID: view.ID, Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, msgs.Total)
	require.Len(t, msgs.Messages, 1)
	assert.Equal(t, "assistant", msgs.Messages[0].Role)

	_, sugg, err := s.getSuggestionsTool(ctx, nil, SessionInput{SessionID: view.ID})
	require.NoError(t, err)
	assert.Len(t, sugg.Suggestions, 3)
}

func TestTools_UnknownSession(t *testing.T) {
	svc, _ := conversationtest.New(t, nil)
	s := NewServer(svc)
	ctx := context.Background()

	_, _, err := s.askQuestionTool(ctx, nil, AskQuestionInput{SessionID: "nope", Question: "oi"})
	assert.Error(t, err)
	_, _, err = s.listMessagesTool(ctx, nil, ListMessagesInput{SessionID: "nope"})
	assert.Error(t, err)
}
