package agent

import (
	"fmt"

	"github.com/edachat/backend/internal/domain/dataset"
)

// Request is the input shared by the specialists.
type Request struct {
	Dataset *dataset.Dataset
	// Summary is the bounded dataset preview.
	Summary string
	// Context is the accumulated analysis text, or the analyst output in a paired turn.
	Context  string
	Question string
}

// failureText is the user-visible rendering of a generation error.
func failureText(err error) string {
	return fmt.Sprintf("Ocorreu um erro ao processar sua solicitação: %v", err)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
