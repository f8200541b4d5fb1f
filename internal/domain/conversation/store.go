package conversation

import "time"

// Persisted analysis types and code types.
const (
	AnalysisTypeData    = "data_analysis"
	CodeTypeVisual      = "visualization"
	CodeTypeAnalysis    = "analysis"
	DefaultConfidence   = 0.9
	MaxStoredChartBytes = 10000
	MaxStoredCodeChars  = 5000
)

// SessionRecord is a stored session.
type SessionRecord struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	DatasetName string    `json:"dataset_name"`
	DatasetHash string    `json:"dataset_hash"`
	CreatedAt   time.Time `json:"created_at"`
}

// ConversationRecord is one stored question and answer.
type ConversationRecord struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	ChartJSON string    `json:"chart_json,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// AnalysisRecord is a stored specialist analysis.
type AnalysisRecord struct {
	ID             string         `json:"id"`
	SessionID      string         `json:"session_id"`
	ConversationID string         `json:"conversation_id"`
	AnalysisType   string         `json:"analysis_type"`
	Results        map[string]any `json:"results"`
	CreatedAt      time.Time      `json:"created_at"`
}

// ConclusionRecord is a stored consultant conclusion.
type ConclusionRecord struct {
	ID              string    `json:"id"`
	SessionID       string    `json:"session_id"`
	ConversationID  string    `json:"conversation_id"`
	ConclusionText  string    `json:"conclusion_text"`
	ConfidenceScore *float64  `json:"confidence_score,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// CodeRecord is a stored generated script.
type CodeRecord struct {
	ID             string    `json:"id"`
	SessionID      string    `json:"session_id"`
	ConversationID string    `json:"conversation_id,omitempty"`
	CodeType       string    `json:"code_type"`
	PythonCode     string    `json:"python_code"`
	Description    string    `json:"description"`
	CreatedAt      time.Time `json:"created_at"`
}

// History is everything stored for a session, oldest first.
type History struct {
	Conversations []ConversationRecord `json:"conversations"`
	Analyses      []AnalysisRecord     `json:"analyses"`
	Conclusions   []ConclusionRecord   `json:"conclusions"`
}

// Store is the durable session store. Every call is independent; callers treat failures
// as warnings. An empty conversationID on StoreAnalysis or StoreConclusion attaches the
// record to the latest conversation of the session, creating a placeholder when none exists.
type Store interface {
	CreateSession(datasetName, datasetHash, userID string) (string, error)
	LogConversation(sessionID, question, answer, chartJSON string) (string, error)
	UpdateConversation(conversationID, answer, chartJSON string) error
	StoreAnalysis(sessionID, conversationID, analysisType string, results map[string]any) error
	StoreConclusion(sessionID, conversationID, text string, confidence *float64) error
	StoreGeneratedCode(sessionID, conversationID, codeType, code, description string) error
	GetSessionHistory(sessionID string) (*History, error)
	GetUserSessions(userID string) ([]SessionRecord, error)
	GetGeneratedCodes(sessionID string) ([]CodeRecord, error)
	GetSession(sessionID string) (*SessionRecord, error)
}

// TruncateCode cuts code to MaxStoredCodeChars characters with a trailing marker comment.
func TruncateCode(code string) string {
	r := []rune(code)
	if len(r) <= MaxStoredCodeChars {
		return code
	}
	return string(r[:MaxStoredCodeChars]) + "\n\n# ... (código truncado para evitar timeout no banco de dados)"
}
