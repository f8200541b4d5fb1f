package conversation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	appAgent "github.com/edachat/backend/internal/application/agent"
	"github.com/edachat/backend/internal/application/execution"
	"github.com/edachat/backend/internal/application/suggestion"
	"github.com/edachat/backend/internal/domain/conversation"
	"github.com/edachat/backend/internal/domain/dataset"
	"github.com/edachat/backend/internal/domain/events"
	"github.com/edachat/backend/internal/infrastructure/config"
	"github.com/edachat/backend/internal/infrastructure/log"
	"github.com/edachat/backend/internal/infrastructure/tabular"
	"github.com/edachat/backend/internal/infrastructure/tokenizer"
)

// SessionView is the public state of a live session.
type SessionView struct {
	ID        string       `json:"id"`
	UserID    string       `json:"user_id"`
	Durable   bool         `json:"durable"`
	Messages  int          `json:"messages"`
	CreatedAt time.Time    `json:"created_at"`
	Dataset   dataset.Info `json:"dataset"`
}

// OpenRequest opens a session on an uploaded file. ResumeID reattaches a stored session
// and restores its memories from history.
type OpenRequest struct {
	UserID   string
	FileName string
	Data     io.Reader
	ResumeID string
}

// entry serializes the turns of one session.
type entry struct {
	mu      sync.Mutex
	session *conversation.Session
}

// Service owns the live sessions and runs their turns.
type Service struct {
	store     conversation.Store
	team      *appAgent.Team
	cache     *execution.Cache
	suggester *suggestion.Generator
	loader    *tabular.Loader
	tokens    *tokenizer.Estimator
	bus       events.EventBus
	summary   *config.SummaryConfig
	inbox     *config.InboxConfig
	logger    *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*entry
}

// NewService creates the conversation service. store, tokens and bus may be nil: without a
// store the service runs memory-only.
func NewService(
	store conversation.Store,
	team *appAgent.Team,
	cache *execution.Cache,
	suggester *suggestion.Generator,
	loader *tabular.Loader,
	tokens *tokenizer.Estimator,
	bus events.EventBus,
	summary *config.SummaryConfig,
	inbox *config.InboxConfig,
) *Service {
	if summary == nil {
		summary = &config.SummaryConfig{}
	}
	if inbox == nil {
		inbox = &config.InboxConfig{}
	}
	return &Service{
		store:     store,
		team:      team,
		cache:     cache,
		suggester: suggester,
		loader:    loader,
		tokens:    tokens,
		bus:       bus,
		summary:   summary,
		inbox:     inbox,
		logger:    log.NewModuleLogger("conversation", "service"),
		sessions:  make(map[string]*entry),
	}
}

// OpenSession loads the uploaded file and opens a session on it.
func (s *Service) OpenSession(ctx context.Context, req OpenRequest) (*SessionView, error) {
	d, err := s.loader.LoadReader(req.FileName, req.Data)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", req.FileName, err)
	}
	return s.OpenDataset(ctx, req.UserID, req.ResumeID, d)
}

// OpenDataset opens a session on an already loaded dataset. The session is durable when
// the store accepts it; otherwise it gets a local ID and lives in memory only.
func (s *Service) OpenDataset(ctx context.Context, userID, resumeID string, d *dataset.Dataset) (*SessionView, error) {
	if d.IsEmpty() {
		return nil, dataset.ErrEmptyDataset
	}

	id, durable, err := s.sessionID(userID, resumeID, d)
	if err != nil {
		return nil, err
	}

	sess := conversation.NewSession(id, userID, d)
	sess.Durable = durable
	if durable {
		h, err := s.store.GetSessionHistory(id)
		if err != nil {
			s.logger.Warn("Session history unavailable, starting fresh", "session_id", id, "error", err)
		} else {
			sess.Restore(h)
		}
	}

	s.mu.Lock()
	s.sessions[id] = &entry{session: sess}
	s.mu.Unlock()
	if s.cache != nil {
		s.cache.Purge(id)
	}

	s.logger.Info("Session opened",
		"session_id", id,
		"user_id", userID,
		"dataset", d.Name,
		"durable", durable,
	)
	s.publish(&events.SessionEvent{
		EventType:   events.SessionOpened,
		SessionID:   id,
		UserID:      userID,
		DatasetName: d.Name,
		EventTime:   time.Now(),
	})
	return viewOf(sess), nil
}

func (s *Service) sessionID(userID, resumeID string, d *dataset.Dataset) (string, bool, error) {
	if resumeID != "" {
		if s.store == nil {
			return "", false, conversation.ErrSessionNotFound
		}
		rec, err := s.store.GetSession(resumeID)
		if err != nil {
			return "", false, fmt.Errorf("resume %s: %w", resumeID, err)
		}
		return rec.ID, true, nil
	}
	if s.store != nil {
		id, err := s.store.CreateSession(d.Name, d.Hash, userID)
		if err == nil {
			return id, true, nil
		}
		s.logger.Warn("Durable session unavailable, running memory-only", "error", err)
	}
	return uuid.New().String(), false, nil
}

func (s *Service) lookup(id string) (*entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.sessions[id]
	if !ok {
		return nil, conversation.ErrSessionNotFound
	}
	return e, nil
}

// with runs fn while holding the session lock.
func (s *Service) with(id string, fn func(*conversation.Session) error) error {
	e, err := s.lookup(id)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e.session)
}

// Get returns the session view.
func (s *Service) Get(id string) (*SessionView, error) {
	var view *SessionView
	err := s.with(id, func(sess *conversation.Session) error {
		view = viewOf(sess)
		return nil
	})
	return view, err
}

// Sessions lists the live sessions, newest first.
func (s *Service) Sessions() []*SessionView {
	s.mu.RLock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	s.mu.RUnlock()

	out := make([]*SessionView, 0, len(ids))
	for _, id := range ids {
		if v, err := s.Get(id); err == nil {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// Clear resets memories and transcript, keeps the dataset, and drops the session's
// cached executions.
func (s *Service) Clear(id string) error {
	var userID string
	err := s.with(id, func(sess *conversation.Session) error {
		sess.LoadDataset(sess.Dataset)
		userID = sess.UserID
		return nil
	})
	if err != nil {
		return err
	}
	purged := 0
	if s.cache != nil {
		purged = s.cache.Purge(id)
	}
	s.logger.Info("Session cleared", "session_id", id, "cache_entries", purged)
	s.publish(&events.SessionEvent{
		EventType: events.SessionCleared,
		SessionID: id,
		UserID:    userID,
		EventTime: time.Now(),
	})
	return nil
}

// Messages returns a copy of the transcript.
func (s *Service) Messages(id string) ([]conversation.Message, error) {
	var out []conversation.Message
	err := s.with(id, func(sess *conversation.Session) error {
		out = append([]conversation.Message(nil), sess.Messages...)
		return nil
	})
	return out, err
}

// DatasetSummary returns the prompt preview and the dataset info of a session.
func (s *Service) DatasetSummary(id string) (dataset.Summary, dataset.Info, error) {
	var (
		sum  dataset.Summary
		info dataset.Info
	)
	err := s.with(id, func(sess *conversation.Session) error {
		if err := sess.Ready(); err != nil {
			return err
		}
		sum = s.summarize(sess.Dataset)
		info = dataset.GetInfo(sess.Dataset)
		return nil
	})
	return sum, info, err
}

// Suggestions proposes follow-up questions from the conversation so far.
func (s *Service) Suggestions(ctx context.Context, id string) ([]string, error) {
	var summary, history string
	err := s.with(id, func(sess *conversation.Session) error {
		if sess.Ready() == nil {
			summary = s.summarize(sess.Dataset).Text
		}
		history = s.project(&sess.Conversation)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.suggester.Suggest(ctx, summary, history), nil
}

// History returns the stored history of a session. Memory-only sessions return an empty
// history.
func (s *Service) History(id string) (*conversation.History, error) {
	e, err := s.lookup(id)
	if err != nil && s.store == nil {
		return nil, err
	}
	if s.store == nil || (e != nil && !s.isDurable(e)) {
		return &conversation.History{}, nil
	}
	return s.store.GetSessionHistory(id)
}

// Codes returns the generated code of a session. Memory-only sessions are answered from
// the transcript.
func (s *Service) Codes(id string) ([]conversation.CodeRecord, error) {
	e, err := s.lookup(id)
	if err != nil && s.store == nil {
		return nil, err
	}
	if s.store != nil && (e == nil || s.isDurable(e)) {
		return s.store.GetGeneratedCodes(id)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	var out []conversation.CodeRecord
	for _, m := range e.session.Messages {
		if m.Code == "" {
			continue
		}
		out = append(out, conversation.CodeRecord{
			ID:          m.ID,
			SessionID:   id,
			CodeType:    codeTypeOf(m.Agent),
			PythonCode:  conversation.TruncateCode(m.Code),
			Description: m.Content,
			CreatedAt:   m.CreatedAt,
		})
	}
	return out, nil
}

// UserSessions lists a user's sessions from the store, or the live ones without a store.
func (s *Service) UserSessions(userID string) ([]conversation.SessionRecord, error) {
	if s.store != nil {
		return s.store.GetUserSessions(userID)
	}
	var out []conversation.SessionRecord
	for _, v := range s.Sessions() {
		if v.UserID != userID {
			continue
		}
		out = append(out, conversation.SessionRecord{
			ID:          v.ID,
			UserID:      v.UserID,
			DatasetName: v.Dataset.Name,
			DatasetHash: v.Dataset.Hash,
			CreatedAt:   v.CreatedAt,
		})
	}
	return out, nil
}

func (s *Service) isDurable(e *entry) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session.Durable
}

// HandleEvent opens a session for every data file dropped in the inbox.
func (s *Service) HandleEvent(event events.Event) error {
	fe, ok := event.(*events.DatasetFileEvent)
	if !ok {
		return nil
	}
	d, err := s.loader.LoadFile(fe.FilePath)
	if err != nil {
		if errors.Is(err, dataset.ErrEmptyDataset) {
			s.logger.Info("Inbox file has no rows, skipped", "path", fe.FilePath)
			return nil
		}
		return fmt.Errorf("inbox %s: %w", fe.FilePath, err)
	}
	_, err = s.OpenDataset(context.Background(), s.inbox.UserID, "", d)
	return err
}

// Subscribe attaches the inbox handler to bus.
func (s *Service) Subscribe(bus events.EventBus) func() {
	return bus.Subscribe(events.DatasetFileDropped, s)
}

func (s *Service) summarize(d *dataset.Dataset) dataset.Summary {
	opts := dataset.SummaryOptions{
		MaxColumns:  s.summary.MaxColumns,
		SampleRows:  s.summary.SampleRows,
		TokenBudget: s.summary.TokenBudget,
	}
	if s.tokens != nil {
		opts.Counter = s.tokens.Count
	}
	return dataset.SummarizeWith(d, opts)
}

// project renders m for a prompt, keeping the newest entries that fit the memory budget.
func (s *Service) project(m *conversation.Memory) string {
	if s.tokens == nil {
		return m.Render()
	}
	return m.RenderWithin(s.summary.MemoryTokenBudget, s.tokens.Count)
}

func (s *Service) publish(e events.Event) {
	if s.bus != nil {
		s.bus.Publish(e)
	}
}

func viewOf(sess *conversation.Session) *SessionView {
	v := &SessionView{
		ID:        sess.ID,
		UserID:    sess.UserID,
		Durable:   sess.Durable,
		Messages:  len(sess.Messages),
		CreatedAt: sess.CreatedAt,
	}
	if sess.Dataset != nil {
		v.Dataset = dataset.GetInfo(sess.Dataset)
	}
	return v
}
