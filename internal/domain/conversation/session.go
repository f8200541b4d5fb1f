package conversation

import (
	"errors"
	"fmt"
	"time"

	"github.com/edachat/backend/internal/domain/dataset"
)

var (
	// ErrSessionNotFound is returned for an unknown session ID.
	ErrSessionNotFound = errors.New("session not found")
	// ErrNoDataset is returned when a turn starts without a loaded, non-empty dataset.
	ErrNoDataset = errors.New("no dataset loaded")
	// ErrEmptyQuestion is returned for a blank question.
	ErrEmptyQuestion = errors.New("question is empty")
)

// Session is one user's analysis of one dataset: the dataset, the transcript, and the two
// memories injected into prompts.
type Session struct {
	ID           string
	UserID       string
	Dataset      *dataset.Dataset
	Conversation Memory
	Analysis     Memory
	Messages     []Message
	// Durable is true when the session row exists in the session store.
	Durable   bool
	CreatedAt time.Time
}

// NewSession starts a session on d with a seeded analysis memory.
func NewSession(id, userID string, d *dataset.Dataset) *Session {
	s := &Session{ID: id, UserID: userID, CreatedAt: time.Now()}
	s.LoadDataset(d)
	return s
}

// LoadDataset replaces the dataset and resets every memory and the transcript.
func (s *Session) LoadDataset(d *dataset.Dataset) {
	s.Dataset = d
	s.Clear()
	if d != nil {
		s.Analysis.Append("", SeedText(d.Name))
	}
}

// Clear drops memories and transcript but keeps the dataset.
func (s *Session) Clear() {
	s.Conversation.Reset()
	s.Analysis.Reset()
	s.Messages = nil
}

// Ready returns ErrNoDataset unless the session holds a non-empty dataset.
func (s *Session) Ready() error {
	if s.Dataset.IsEmpty() {
		return ErrNoDataset
	}
	return nil
}

// AddMessage appends to the transcript.
func (s *Session) AddMessage(m Message) {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	s.Messages = append(s.Messages, m)
}

// Restore rebuilds both memories from stored history. Conversations become user and
// assistant lines; analyses become "Análise: ..." lines. An empty history keeps the seed.
func (s *Session) Restore(h *History) {
	if h == nil || (len(h.Conversations) == 0 && len(h.Analyses) == 0) {
		return
	}
	s.Conversation.Reset()
	for _, c := range h.Conversations {
		s.Conversation.Append(LabelUser, c.Question)
		if c.Answer != "" {
			s.Conversation.Append(LabelAssistant, c.Answer)
		}
		s.Messages = append(s.Messages,
			Message{ID: c.ID + ":q", Role: RoleUser, Content: c.Question, CreatedAt: c.CreatedAt})
		if c.Answer != "" {
			s.Messages = append(s.Messages,
				Message{ID: c.ID + ":a", Role: RoleAssistant, Content: c.Answer, CreatedAt: c.CreatedAt})
		}
	}
	if len(h.Analyses) > 0 {
		s.Analysis.Reset()
		for _, a := range h.Analyses {
			text, _ := a.Results["analysis"].(string)
			s.Analysis.Append(LabelRestored, text)
		}
	}
}

// SeedText is the first analysis memory line of a fresh session.
func SeedText(datasetName string) string {
	return fmt.Sprintf("Análise iniciada para o dataset: %s", datasetName)
}
