package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	appConversation "github.com/edachat/backend/internal/application/conversation"
	"github.com/edachat/backend/internal/domain/agent"
	"github.com/edachat/backend/internal/domain/chart"
	"github.com/edachat/backend/internal/domain/conversation"
	"github.com/edachat/backend/internal/infrastructure/config"
)

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	require.NoError(t, cmd.Execute())
	return out.String()
}

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv(config.EnvDataDir, dir)
	config.ResetDataDir()
	t.Cleanup(config.ResetDataDir)
	return dir
}

func TestConfigPath(t *testing.T) {
	dir := isolate(t)
	out := run(t, "config", "path")
	assert.Equal(t, filepath.Join(dir, config.ConfigFileName)+"\n", out)
}

func TestConfigShow_MasksKey(t *testing.T) {
	isolate(t)
	t.Setenv(config.EnvLLMAPIKey, "sk-secret-1234")

	out := run(t, "config", "show")
	assert.NotContains(t, out, "sk-secret")

	var cfg config.Config
	require.NoError(t, yaml.Unmarshal([]byte(out), &cfg))
	assert.Equal(t, "**********1234", cfg.LLM.APIKey)
	assert.Equal(t, config.Default().Server.HTTPPort, cfg.Server.HTTPPort)
}

func TestAsk_RequiresFile(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"ask", "qual a média?"})
	assert.Error(t, cmd.Execute())
}

func TestPrintTurn(t *testing.T) {
	fig := chart.New("Distribuição de vendas")
	res := &appConversation.TurnResult{
		Messages: []conversation.Message{
			{Role: conversation.RoleUser, Content: "mostre as vendas"},
			{Role: conversation.RoleAssistant, Agent: agent.Visualization, Content: "Aqui está.", Code: "fig = px.histogram(df, x='vendas')", Chart: fig},
		},
		Suggestions: []string{"a", "b", "c"},
	}

	var buf bytes.Buffer
	require.NoError(t, printTurn(&buf, res, true))
	out := buf.String()
	assert.NotContains(t, out, "mostre as vendas")
	assert.Contains(t, out, "Aqui está.")
	assert.Contains(t, out, "px.histogram")
	assert.Contains(t, out, `"layout"`)
	assert.Contains(t, out, "  - c")

	buf.Reset()
	require.NoError(t, printTurn(&buf, res, false))
	assert.NotContains(t, buf.String(), `"layout"`)
}

func TestWriteCharts(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "charts")
	msgs := []conversation.Message{{Role: conversation.RoleAssistant, Chart: chart.New("x")}}

	require.NoError(t, writeCharts(dir, 1, msgs))
	assert.FileExists(t, filepath.Join(dir, "turn-02.json"))
}
