package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/edachat/backend/internal/domain/dataset"
)

// SessionInput selects a session.
type SessionInput struct {
	SessionID string `json:"session_id" jsonschema:"Session ID"`
}

// ListSessionsInput is empty.
type ListSessionsInput struct{}

// SessionItem is one open session.
type SessionItem struct {
	ID          string `json:"id" jsonschema:"Session ID"`
	UserID      string `json:"user_id" jsonschema:"User ID"`
	DatasetName string `json:"dataset_name" jsonschema:"Dataset file name"`
	Rows        int    `json:"rows" jsonschema:"Row count"`
	Cols        int    `json:"cols" jsonschema:"Column count"`
	Messages    int    `json:"messages" jsonschema:"Transcript length"`
}

// ListSessionsOutput lists open sessions.
type ListSessionsOutput struct {
	Sessions []SessionItem `json:"sessions" jsonschema:"Open sessions, newest first"`
}

// AskQuestionInput is a question for a session.
type AskQuestionInput struct {
	SessionID string `json:"session_id" jsonschema:"Session ID"`
	Question  string `json:"question" jsonschema:"Question in natural language"`
}

// AskQuestionOutput is the outcome of a turn.
type AskQuestionOutput struct {
	Agent       string   `json:"agent" jsonschema:"Agent chosen by the coordinator"`
	Answer      string   `json:"answer" jsonschema:"Answer text"`
	Code        string   `json:"code,omitempty" jsonschema:"Generated code, if any"`
	HasChart    bool     `json:"has_chart" jsonschema:"Whether a chart was produced"`
	Suggestions []string `json:"suggestions" jsonschema:"Follow-up questions"`
}

// DatasetSummaryOutput is the dataset preview and info.
type DatasetSummaryOutput struct {
	Summary string       `json:"summary" jsonschema:"Preview text sent to the agents"`
	Info    dataset.Info `json:"info" jsonschema:"Dataset info"`
}

// ListMessagesInput selects a transcript.
type ListMessagesInput struct {
	SessionID string `json:"session_id" jsonschema:"Session ID"`
	Limit     int    `json:"limit,omitempty" jsonschema:"Only the last N messages"`
}

// MessageItem is one transcript item.
type MessageItem struct {
	Role     string `json:"role" jsonschema:"user or assistant"`
	Content  string `json:"content" jsonschema:"Message text"`
	Agent    string `json:"agent,omitempty" jsonschema:"Agent that answered"`
	Code     string `json:"code,omitempty" jsonschema:"Generated code"`
	HasChart bool   `json:"has_chart" jsonschema:"Whether a chart is attached"`
}

// ListMessagesOutput is a transcript.
type ListMessagesOutput struct {
	Messages []MessageItem `json:"messages" jsonschema:"Messages, oldest first"`
	Total    int           `json:"total" jsonschema:"Transcript length"`
}

// SuggestionsOutput holds follow-up questions.
type SuggestionsOutput struct {
	Suggestions []string `json:"suggestions" jsonschema:"Follow-up questions"`
}

func (s *MCPServer) listSessionsTool(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input ListSessionsInput,
) (*mcp.CallToolResult, ListSessionsOutput, error) {
	out := ListSessionsOutput{Sessions: []SessionItem{}}
	for _, v := range s.svc.Sessions() {
		out.Sessions = append(out.Sessions, SessionItem{
			ID:          v.ID,
			UserID:      v.UserID,
			DatasetName: v.Dataset.Name,
			Rows:        v.Dataset.Rows,
			Cols:        v.Dataset.Cols,
			Messages:    v.Messages,
		})
	}
	return nil, out, nil
}

func (s *MCPServer) askQuestionTool(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input AskQuestionInput,
) (*mcp.CallToolResult, AskQuestionOutput, error) {
	res, err := s.svc.Ask(ctx, input.SessionID, input.Question)
	if err != nil {
		return nil, AskQuestionOutput{}, fmt.Errorf("ask: %w", err)
	}
	out := AskQuestionOutput{
		Agent:       string(res.Decision.Agent),
		Suggestions: res.Suggestions,
	}
	if n := len(res.Messages); n > 0 {
		answer := res.Messages[n-1]
		out.Answer = answer.Content
		out.Code = answer.Code
		out.HasChart = answer.Chart != nil
	}
	return nil, out, nil
}

func (s *MCPServer) getDatasetSummaryTool(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input SessionInput,
) (*mcp.CallToolResult, DatasetSummaryOutput, error) {
	sum, info, err := s.svc.DatasetSummary(input.SessionID)
	if err != nil {
		return nil, DatasetSummaryOutput{}, fmt.Errorf("dataset summary: %w", err)
	}
	return nil, DatasetSummaryOutput{Summary: sum.Text, Info: info}, nil
}

func (s *MCPServer) listMessagesTool(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input ListMessagesInput,
) (*mcp.CallToolResult, ListMessagesOutput, error) {
	msgs, err := s.svc.Messages(input.SessionID)
	if err != nil {
		return nil, ListMessagesOutput{}, fmt.Errorf("list messages: %w", err)
	}
	out := ListMessagesOutput{Messages: []MessageItem{}, Total: len(msgs)}
	if input.Limit > 0 && input.Limit < len(msgs) {
		msgs = msgs[len(msgs)-input.Limit:]
	}
	for _, m := range msgs {
		out.Messages = append(out.Messages, MessageItem{
			Role:     string(m.Role),
			Content:  m.Content,
			Agent:    string(m.Agent),
			Code:     m.Code,
			HasChart: m.Chart != nil,
		})
	}
	return nil, out, nil
}

func (s *MCPServer) getSuggestionsTool(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input SessionInput,
) (*mcp.CallToolResult, SuggestionsOutput, error) {
	out, err := s.svc.Suggestions(ctx, input.SessionID)
	if err != nil {
		return nil, SuggestionsOutput{}, fmt.Errorf("suggestions: %w", err)
	}
	return nil, SuggestionsOutput{Suggestions: out}, nil
}
