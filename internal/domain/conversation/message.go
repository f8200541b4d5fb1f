package conversation

import (
	"time"

	"github.com/edachat/backend/internal/domain/agent"
	"github.com/edachat/backend/internal/domain/chart"
)

// Role is the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one transcript item. Chart is set only after generated code produced a figure.
type Message struct {
	ID        string        `json:"id"`
	Role      Role          `json:"role"`
	Content   string        `json:"content"`
	Agent     agent.Kind    `json:"agent,omitempty"`
	Code      string        `json:"code,omitempty"`
	Chart     *chart.Figure `json:"chart,omitempty"`
	Output    string        `json:"output,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}
