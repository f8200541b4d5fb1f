// Package conversationtest builds a conversation service on a scripted generator.
package conversationtest

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	appAgent "github.com/edachat/backend/internal/application/agent"
	"github.com/edachat/backend/internal/application/conversation"
	"github.com/edachat/backend/internal/application/execution"
	"github.com/edachat/backend/internal/application/suggestion"
	domainAgent "github.com/edachat/backend/internal/domain/agent"
	"github.com/edachat/backend/internal/domain/agent/agenttest"
	domainConversation "github.com/edachat/backend/internal/domain/conversation"
	"github.com/edachat/backend/internal/infrastructure/config"
	"github.com/edachat/backend/internal/infrastructure/sandbox"
	"github.com/edachat/backend/internal/infrastructure/tabular"
)

// SalesCSV is a small semicolon separated dataset with an outlier in preco.
const SalesCSV = "preco;quantidade;regiao\n10;1;sul\n12;2;norte\n11;3;sul\n13;4;sul\n100;5;leste\n"

// SuggestionsJSON is a valid suggestion answer.
const SuggestionsJSON = `{"suggestions": ["Quais são os outliers?", "Mostre a distribuição do preço", "Qual região vende mais?"]}`

// New returns a memory-only service and its generator. The generator already answers
// suggestion prompts.
func New(t *testing.T, store domainConversation.Store) (*conversation.Service, *agenttest.FakeGenerator) {
	t.Helper()
	gen := agenttest.NewFakeGenerator().AddResponse("suggestions", SuggestionsJSON)
	execCfg := &config.ExecutionConfig{Timeout: 5 * time.Second, MaxSteps: 10_000_000, CacheSize: 16}
	cache, err := execution.NewCache(execCfg, sandbox.NewRunner(execCfg))
	require.NoError(t, err)
	svc := conversation.NewService(
		store,
		appAgent.NewTeam(gen),
		cache,
		suggestion.NewGenerator(gen),
		tabular.NewLoader(&config.UploadConfig{MaxBytes: 1 << 20}),
		nil,
		nil,
		&config.SummaryConfig{MaxColumns: 30, SampleRows: 3},
		&config.InboxConfig{UserID: "inbox"},
	)
	return svc, gen
}

// Open opens a session on SalesCSV for user ana.
func Open(t *testing.T, svc *conversation.Service) *conversation.SessionView {
	t.Helper()
	view, err := svc.OpenSession(context.Background(), conversation.OpenRequest{
		UserID:   "ana",
		FileName: "vendas.csv",
		Data:     strings.NewReader(SalesCSV),
	})
	require.NoError(t, err)
	return view
}

// Route is a coordinator answer choosing agent.
func Route(agent domainAgent.Kind, question string) string {
	return `{"agent_to_call": "` + string(agent) + `", "question_for_agent": "` + question + `", "rationale": "teste"}`
}
