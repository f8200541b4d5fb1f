package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/edachat/backend/internal/domain/conversation"
	"github.com/edachat/backend/internal/infrastructure/log"
)

// sessionStore is the SQLite implementation of conversation.Store.
type sessionStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSessionStore creates the store and its tables.
func NewSessionStore(db *sql.DB) (conversation.Store, error) {
	if err := initSessionTables(db); err != nil {
		return nil, err
	}
	return &sessionStore{db: db, logger: log.NewModuleLogger("storage", "sessions")}, nil
}

// ProvideSessionStore returns a nil Store when db is nil.
func ProvideSessionStore(db *sql.DB) (conversation.Store, error) {
	if db == nil {
		return nil, nil
	}
	return NewSessionStore(db)
}

func initSessionTables(db *sql.DB) error {
	createTablesSQL := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		dataset_name TEXT NOT NULL,
		dataset_hash TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS conversations (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		question TEXT NOT NULL,
		answer TEXT NOT NULL,
		chart_json TEXT,
		created_at INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS analyses (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		conversation_id TEXT NOT NULL,
		analysis_type TEXT NOT NULL,
		results TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS conclusions (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		conversation_id TEXT NOT NULL,
		conclusion_text TEXT NOT NULL,
		confidence_score REAL,
		created_at INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS generated_codes (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		conversation_id TEXT,
		code_type TEXT NOT NULL,
		python_code TEXT NOT NULL,
		description TEXT,
		created_at INTEGER NOT NULL
	);`
	if _, err := db.Exec(createTablesSQL); err != nil {
		return fmt.Errorf("failed to create session tables: %w", err)
	}

	createIndexSQL := `
	CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_conversations_session ON conversations(session_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_analyses_session ON analyses(session_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_conclusions_session ON conclusions(session_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_generated_codes_session ON generated_codes(session_id, created_at);`
	if _, err := db.Exec(createIndexSQL); err != nil {
		return fmt.Errorf("failed to create session indexes: %w", err)
	}
	return nil
}

// CreateSession inserts a session and returns its ID.
func (s *sessionStore) CreateSession(datasetName, datasetHash, userID string) (string, error) {
	id := uuid.New().String()
	_, err := s.db.Exec(`INSERT INTO sessions (id, user_id, dataset_name, dataset_hash, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, userID, datasetName, datasetHash, time.Now().UnixMilli())
	if err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}
	s.logger.Debug("Session created", "session_id", id, "user_id", userID, "dataset", datasetName)
	return id, nil
}

// LogConversation inserts a question and answer and returns the conversation ID.
func (s *sessionStore) LogConversation(sessionID, question, answer, chartJSON string) (string, error) {
	id := uuid.New().String()
	_, err := s.db.Exec(`INSERT INTO conversations (id, session_id, question, answer, chart_json, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, sessionID, question, answer, nullString(chartJSON), time.Now().UnixMilli())
	if err != nil {
		return "", fmt.Errorf("failed to log conversation: %w", err)
	}
	return id, nil
}

// UpdateConversation sets the answer and chart of a logged conversation.
func (s *sessionStore) UpdateConversation(conversationID, answer, chartJSON string) error {
	res, err := s.db.Exec(`UPDATE conversations SET answer = ?, chart_json = ? WHERE id = ?`,
		answer, nullString(chartJSON), conversationID)
	if err != nil {
		return fmt.Errorf("failed to update conversation: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("conversation %s not found", conversationID)
	}
	return nil
}

// StoreAnalysis stores a specialist result as JSON.
func (s *sessionStore) StoreAnalysis(sessionID, conversationID, analysisType string, results map[string]any) error {
	conversationID, err := s.resolveConversation(sessionID, conversationID, "Análise automática", "Análise gerada pelo sistema")
	if err != nil {
		return err
	}
	data, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("failed to marshal analysis results: %w", err)
	}
	_, err = s.db.Exec(`INSERT INTO analyses (id, session_id, conversation_id, analysis_type, results, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		uuid.New().String(), sessionID, conversationID, analysisType, string(data), time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to store analysis: %w", err)
	}
	return nil
}

// StoreConclusion stores a consultant conclusion.
func (s *sessionStore) StoreConclusion(sessionID, conversationID, text string, confidence *float64) error {
	conversationID, err := s.resolveConversation(sessionID, conversationID, "Conclusão automática", "Conclusão gerada pelo sistema")
	if err != nil {
		return err
	}
	var score sql.NullFloat64
	if confidence != nil {
		score = sql.NullFloat64{Float64: *confidence, Valid: true}
	}
	_, err = s.db.Exec(`INSERT INTO conclusions (id, session_id, conversation_id, conclusion_text, confidence_score, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		uuid.New().String(), sessionID, conversationID, text, score, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to store conclusion: %w", err)
	}
	return nil
}

// StoreGeneratedCode stores a script, truncated to conversation.MaxStoredCodeChars.
func (s *sessionStore) StoreGeneratedCode(sessionID, conversationID, codeType, code, description string) error {
	_, err := s.db.Exec(`INSERT INTO generated_codes (id, session_id, conversation_id, code_type, python_code, description, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		uuid.New().String(), sessionID, nullString(conversationID), codeType, conversation.TruncateCode(code), nullString(description), time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to store generated code: %w", err)
	}
	return nil
}

// resolveConversation returns conversationID, or the latest conversation of the session,
// or a new placeholder conversation.
func (s *sessionStore) resolveConversation(sessionID, conversationID, question, answer string) (string, error) {
	if conversationID != "" {
		return conversationID, nil
	}
	var latest string
	err := s.db.QueryRow(`SELECT id FROM conversations WHERE session_id = ? ORDER BY created_at DESC, rowid DESC LIMIT 1`, sessionID).Scan(&latest)
	if err == nil {
		return latest, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("failed to query latest conversation: %w", err)
	}
	return s.LogConversation(sessionID, question, answer, "")
}

// GetSession returns a stored session.
func (s *sessionStore) GetSession(sessionID string) (*conversation.SessionRecord, error) {
	var rec conversation.SessionRecord
	var createdAt int64
	err := s.db.QueryRow(`SELECT id, user_id, dataset_name, dataset_hash, created_at FROM sessions WHERE id = ?`, sessionID).
		Scan(&rec.ID, &rec.UserID, &rec.DatasetName, &rec.DatasetHash, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, conversation.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to query session: %w", err)
	}
	rec.CreatedAt = time.UnixMilli(createdAt)
	return &rec, nil
}

// GetSessionHistory returns conversations, analyses and conclusions, oldest first.
func (s *sessionStore) GetSessionHistory(sessionID string) (*conversation.History, error) {
	h := &conversation.History{
		Conversations: []conversation.ConversationRecord{},
		Analyses:      []conversation.AnalysisRecord{},
		Conclusions:   []conversation.ConclusionRecord{},
	}

	rows, err := s.db.Query(`SELECT id, session_id, question, answer, chart_json, created_at FROM conversations WHERE session_id = ? ORDER BY created_at, rowid`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversations: %w", err)
	}
	for rows.Next() {
		var rec conversation.ConversationRecord
		var chart sql.NullString
		var createdAt int64
		if err := rows.Scan(&rec.ID, &rec.SessionID, &rec.Question, &rec.Answer, &chart, &createdAt); err != nil {
			s.logger.Warn("Skipping unreadable conversation row", "error", err)
			continue
		}
		rec.ChartJSON = chart.String
		rec.CreatedAt = time.UnixMilli(createdAt)
		h.Conversations = append(h.Conversations, rec)
	}
	rows.Close()

	rows, err = s.db.Query(`SELECT id, session_id, conversation_id, analysis_type, results, created_at FROM analyses WHERE session_id = ? ORDER BY created_at, rowid`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query analyses: %w", err)
	}
	for rows.Next() {
		var rec conversation.AnalysisRecord
		var results string
		var createdAt int64
		if err := rows.Scan(&rec.ID, &rec.SessionID, &rec.ConversationID, &rec.AnalysisType, &results, &createdAt); err != nil {
			s.logger.Warn("Skipping unreadable analysis row", "error", err)
			continue
		}
		if err := json.Unmarshal([]byte(results), &rec.Results); err != nil {
			s.logger.Warn("Analysis results are not valid JSON", "analysis_id", rec.ID, "error", err)
		}
		rec.CreatedAt = time.UnixMilli(createdAt)
		h.Analyses = append(h.Analyses, rec)
	}
	rows.Close()

	rows, err = s.db.Query(`SELECT id, session_id, conversation_id, conclusion_text, confidence_score, created_at FROM conclusions WHERE session_id = ? ORDER BY created_at, rowid`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query conclusions: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var rec conversation.ConclusionRecord
		var score sql.NullFloat64
		var createdAt int64
		if err := rows.Scan(&rec.ID, &rec.SessionID, &rec.ConversationID, &rec.ConclusionText, &score, &createdAt); err != nil {
			s.logger.Warn("Skipping unreadable conclusion row", "error", err)
			continue
		}
		if score.Valid {
			v := score.Float64
			rec.ConfidenceScore = &v
		}
		rec.CreatedAt = time.UnixMilli(createdAt)
		h.Conclusions = append(h.Conclusions, rec)
	}
	return h, nil
}

// GetUserSessions returns the sessions of a user, newest first.
func (s *sessionStore) GetUserSessions(userID string) ([]conversation.SessionRecord, error) {
	rows, err := s.db.Query(`SELECT id, user_id, dataset_name, dataset_hash, created_at FROM sessions WHERE user_id = ? ORDER BY created_at DESC, rowid DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	out := []conversation.SessionRecord{}
	for rows.Next() {
		var rec conversation.SessionRecord
		var createdAt int64
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.DatasetName, &rec.DatasetHash, &createdAt); err != nil {
			continue
		}
		rec.CreatedAt = time.UnixMilli(createdAt)
		out = append(out, rec)
	}
	return out, nil
}

// GetGeneratedCodes returns the stored scripts of a session, newest first.
func (s *sessionStore) GetGeneratedCodes(sessionID string) ([]conversation.CodeRecord, error) {
	rows, err := s.db.Query(`SELECT id, session_id, conversation_id, code_type, python_code, description, created_at FROM generated_codes WHERE session_id = ? ORDER BY created_at DESC, rowid DESC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query generated codes: %w", err)
	}
	defer rows.Close()

	out := []conversation.CodeRecord{}
	for rows.Next() {
		var rec conversation.CodeRecord
		var conversationID, description sql.NullString
		var createdAt int64
		if err := rows.Scan(&rec.ID, &rec.SessionID, &conversationID, &rec.CodeType, &rec.PythonCode, &description, &createdAt); err != nil {
			continue
		}
		rec.ConversationID = conversationID.String
		rec.Description = description.String
		rec.CreatedAt = time.UnixMilli(createdAt)
		out = append(out, rec)
	}
	return out, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
