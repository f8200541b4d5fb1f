package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	appConversation "github.com/edachat/backend/internal/application/conversation"
	"github.com/edachat/backend/internal/domain/conversation"
	"github.com/edachat/backend/internal/domain/dataset"
	"github.com/edachat/backend/internal/infrastructure/config"
	"github.com/edachat/backend/internal/infrastructure/log"
	"github.com/edachat/backend/internal/interfaces/http/response"
)

// Error codes of the response envelope.
const (
	CodeInvalidRequest = 400
	CodeNotFound       = 404
	CodeTooLarge       = 413
	CodeUnprocessable  = 422
	CodeInternal       = 500
)

// SessionHandler serves the session and turn routes.
type SessionHandler struct {
	svc      *appConversation.Service
	maxBytes int64
	logger   *slog.Logger
}

// NewSessionHandler creates the session handler.
func NewSessionHandler(svc *appConversation.Service, upload *config.UploadConfig) *SessionHandler {
	return &SessionHandler{
		svc:      svc,
		maxBytes: upload.MaxBytes,
		logger:   log.NewModuleLogger("http", "session"),
	}
}

// AskRequest is the body of an ask call.
type AskRequest struct {
	Question string `json:"question" binding:"required"`
}

// Open creates a session from an uploaded CSV file.
// @Summary Open a session
// @Description Uploads a CSV file and opens an analysis session on it. resume_id reattaches a stored session.
// @Tags sessions
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "CSV file"
// @Param user_id formData string false "User ID"
// @Param resume_id formData string false "Stored session to resume"
// @Success 200 {object} response.Response{data=appConversation.SessionView}
// @Failure 400 {object} response.ErrorResponse
// @Failure 413 {object} response.ErrorResponse
// @Failure 422 {object} response.ErrorResponse
// @Router /sessions [post]
func (h *SessionHandler) Open(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes+1<<20)
	fh, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, CodeInvalidRequest, "missing file: "+err.Error())
		return
	}
	if fh.Size > h.maxBytes {
		h.fail(c, dataset.ErrFileTooLarge)
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.Error(c, http.StatusBadRequest, CodeInvalidRequest, "unreadable file: "+err.Error())
		return
	}
	defer f.Close()

	userID := strings.TrimSpace(c.PostForm("user_id"))
	if userID == "" {
		userID = "anonymous"
	}
	view, err := h.svc.OpenSession(c.Request.Context(), appConversation.OpenRequest{
		UserID:   userID,
		FileName: fh.Filename,
		Data:     f,
		ResumeID: c.PostForm("resume_id"),
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, view)
}

// Get returns a session with its dataset info.
// @Summary Get a session
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Response{data=appConversation.SessionView}
// @Failure 404 {object} response.ErrorResponse
// @Router /sessions/{id} [get]
func (h *SessionHandler) Get(c *gin.Context) {
	view, err := h.svc.Get(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, view)
}

// Clear resets the memories, transcript and cached charts of a session.
// @Summary Clear a session
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse
// @Router /sessions/{id} [delete]
func (h *SessionHandler) Clear(c *gin.Context) {
	if err := h.svc.Clear(c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, gin.H{"cleared": true})
}

// Ask runs one question through the agents.
// @Summary Ask a question
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param request body AskRequest true "Question"
// @Success 200 {object} response.Response{data=appConversation.TurnResult}
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /sessions/{id}/ask [post]
func (h *SessionHandler) Ask(c *gin.Context) {
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, CodeInvalidRequest, "invalid request: "+err.Error())
		return
	}
	id := c.Param("id")
	ctx := log.WithSessionID(c.Request.Context(), id)
	res, err := h.svc.Ask(ctx, id, req.Question)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, res)
}

// Messages returns the transcript.
// @Summary List messages
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Response{data=[]conversation.Message}
// @Failure 404 {object} response.ErrorResponse
// @Router /sessions/{id}/messages [get]
func (h *SessionHandler) Messages(c *gin.Context) {
	msgs, err := h.svc.Messages(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if msgs == nil {
		msgs = []conversation.Message{}
	}
	response.Success(c, msgs)
}

// Suggestions proposes three follow-up questions.
// @Summary Suggest questions
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Response{data=[]string}
// @Failure 404 {object} response.ErrorResponse
// @Router /sessions/{id}/suggestions [get]
func (h *SessionHandler) Suggestions(c *gin.Context) {
	out, err := h.svc.Suggestions(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, out)
}

// History returns the stored conversations, analyses and conclusions.
// @Summary Stored history
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Response{data=conversation.History}
// @Router /sessions/{id}/history [get]
func (h *SessionHandler) History(c *gin.Context) {
	hist, err := h.svc.History(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, hist)
}

// Codes returns the stored generated code.
// @Summary Generated code
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Response{data=[]conversation.CodeRecord}
// @Router /sessions/{id}/codes [get]
func (h *SessionHandler) Codes(c *gin.Context) {
	codes, err := h.svc.Codes(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if codes == nil {
		codes = []conversation.CodeRecord{}
	}
	response.Success(c, codes)
}

// UserSessions lists the sessions of a user.
// @Summary Sessions of a user
// @Tags users
// @Produce json
// @Param user_id path string true "User ID"
// @Success 200 {object} response.Response{data=[]conversation.SessionRecord}
// @Router /users/{user_id}/sessions [get]
func (h *SessionHandler) UserSessions(c *gin.Context) {
	out, err := h.svc.UserSessions(c.Param("user_id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if out == nil {
		out = []conversation.SessionRecord{}
	}
	response.Success(c, out)
}

// fail maps service errors onto the envelope.
func (h *SessionHandler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, conversation.ErrSessionNotFound):
		response.Error(c, http.StatusNotFound, CodeNotFound, err.Error())
	case errors.Is(err, conversation.ErrEmptyQuestion),
		errors.Is(err, conversation.ErrNoDataset):
		response.Error(c, http.StatusBadRequest, CodeInvalidRequest, err.Error())
	case errors.Is(err, dataset.ErrFileTooLarge):
		response.Error(c, http.StatusRequestEntityTooLarge, CodeTooLarge, err.Error())
	case errors.Is(err, dataset.ErrEmptyDataset),
		errors.Is(err, dataset.ErrUnparseable):
		response.Error(c, http.StatusUnprocessableEntity, CodeUnprocessable, err.Error())
	default:
		h.logger.Error("Request failed", "path", c.FullPath(), "error", err)
		response.ErrorWithDetail(c, http.StatusInternalServerError, CodeInternal, "internal error", err.Error())
	}
}
