package storage

import (
	"database/sql"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edachat/backend/internal/domain/conversation"
	"github.com/edachat/backend/internal/infrastructure/config"
)

// setupTestDB opens a temporary database.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := OpenDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func setupStore(t *testing.T) conversation.Store {
	t.Helper()
	store, err := NewSessionStore(setupTestDB(t))
	require.NoError(t, err)
	return store
}

func TestSessionStore_CreateAndGetSession(t *testing.T) {
	store := setupStore(t)

	id, err := store.CreateSession("vendas.csv", "abc123", "ana")
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	rec, err := store.GetSession(id)
	require.NoError(t, err)
	assert.Equal(t, "vendas.csv", rec.DatasetName)
	assert.Equal(t, "abc123", rec.DatasetHash)
	assert.Equal(t, "ana", rec.UserID)

	_, err = store.GetSession("missing")
	assert.ErrorIs(t, err, conversation.ErrSessionNotFound)
}

func TestSessionStore_ConversationLifecycle(t *testing.T) {
	store := setupStore(t)
	sid, err := store.CreateSession("vendas.csv", "h", "ana")
	require.NoError(t, err)

	cid, err := store.LogConversation(sid, "Qual a média?", "", "")
	require.NoError(t, err)
	require.NoError(t, store.UpdateConversation(cid, "A média é 10.", `{"data":[]}`))

	h, err := store.GetSessionHistory(sid)
	require.NoError(t, err)
	require.Len(t, h.Conversations, 1)
	assert.Equal(t, "Qual a média?", h.Conversations[0].Question)
	assert.Equal(t, "A média é 10.", h.Conversations[0].Answer)
	assert.Equal(t, `{"data":[]}`, h.Conversations[0].ChartJSON)

	assert.Error(t, store.UpdateConversation("missing", "x", ""))
}

func TestSessionStore_AnalysisAttachesToLatestConversation(t *testing.T) {
	store := setupStore(t)
	sid, err := store.CreateSession("vendas.csv", "h", "ana")
	require.NoError(t, err)

	first, err := store.LogConversation(sid, "q1", "a1", "")
	require.NoError(t, err)
	second, err := store.LogConversation(sid, "q2", "a2", "")
	require.NoError(t, err)

	require.NoError(t, store.StoreAnalysis(sid, "", conversation.AnalysisTypeData, map[string]any{"analysis": "texto"}))
	require.NoError(t, store.StoreAnalysis(sid, first, "custom", map[string]any{"n": 3}))

	h, err := store.GetSessionHistory(sid)
	require.NoError(t, err)
	require.Len(t, h.Analyses, 2)
	assert.Equal(t, second, h.Analyses[0].ConversationID)
	assert.Equal(t, "texto", h.Analyses[0].Results["analysis"])
	assert.Equal(t, first, h.Analyses[1].ConversationID)
	assert.Equal(t, float64(3), h.Analyses[1].Results["n"])
}

func TestSessionStore_PlaceholderConversations(t *testing.T) {
	store := setupStore(t)
	sid, err := store.CreateSession("vendas.csv", "h", "ana")
	require.NoError(t, err)

	confidence := conversation.DefaultConfidence
	require.NoError(t, store.StoreConclusion(sid, "", "Conclusão", &confidence))

	h, err := store.GetSessionHistory(sid)
	require.NoError(t, err)
	require.Len(t, h.Conversations, 1)
	assert.Equal(t, "Conclusão automática", h.Conversations[0].Question)
	assert.Equal(t, "Conclusão gerada pelo sistema", h.Conversations[0].Answer)
	require.Len(t, h.Conclusions, 1)
	require.NotNil(t, h.Conclusions[0].ConfidenceScore)
	assert.InDelta(t, 0.9, *h.Conclusions[0].ConfidenceScore, 1e-9)
	assert.Equal(t, h.Conversations[0].ID, h.Conclusions[0].ConversationID)

	sid2, err := store.CreateSession("outro.csv", "h2", "ana")
	require.NoError(t, err)
	require.NoError(t, store.StoreAnalysis(sid2, "", conversation.AnalysisTypeData, map[string]any{}))
	h2, err := store.GetSessionHistory(sid2)
	require.NoError(t, err)
	assert.Equal(t, "Análise automática", h2.Conversations[0].Question)
}

func TestSessionStore_GeneratedCodes(t *testing.T) {
	store := setupStore(t)
	sid, err := store.CreateSession("vendas.csv", "h", "ana")
	require.NoError(t, err)

	require.NoError(t, store.StoreGeneratedCode(sid, "", conversation.CodeTypeAnalysis, "x = 1", ""))
	long := strings.Repeat("a", conversation.MaxStoredCodeChars+10)
	require.NoError(t, store.StoreGeneratedCode(sid, "c1", conversation.CodeTypeVisual, long, "Visualização"))

	codes, err := store.GetGeneratedCodes(sid)
	require.NoError(t, err)
	require.Len(t, codes, 2)
	assert.Equal(t, conversation.CodeTypeVisual, codes[0].CodeType)
	assert.Equal(t, "c1", codes[0].ConversationID)
	assert.True(t, strings.HasSuffix(codes[0].PythonCode, "# ... (código truncado para evitar timeout no banco de dados)"))
	assert.Equal(t, "x = 1", codes[1].PythonCode)
	assert.Empty(t, codes[1].Description)
}

func TestSessionStore_GetUserSessions(t *testing.T) {
	store := setupStore(t)
	first, err := store.CreateSession("a.csv", "h1", "ana")
	require.NoError(t, err)
	second, err := store.CreateSession("b.csv", "h2", "ana")
	require.NoError(t, err)
	_, err = store.CreateSession("c.csv", "h3", "bia")
	require.NoError(t, err)

	sessions, err := store.GetUserSessions("ana")
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, second, sessions[0].ID)
	assert.Equal(t, first, sessions[1].ID)

	none, err := store.GetUserSessions("nobody")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestProvideSessionStore_Disabled(t *testing.T) {
	db, cleanup, err := ProvideDB(&config.DatabaseConfig{Enabled: false})
	require.NoError(t, err)
	defer cleanup()
	assert.Nil(t, db)

	store, err := ProvideSessionStore(db)
	require.NoError(t, err)
	assert.Nil(t, store)
}
