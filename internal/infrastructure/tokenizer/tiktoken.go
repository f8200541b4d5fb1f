package tokenizer

import (
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"
)

// Offline BPE ranks; the daemon never downloads encodings.
func init() {
	tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
}

// Encoding is the BPE used for every estimate.
const Encoding = "cl100k_base"

// Estimator counts tokens with tiktoken. It bounds prompt context: dataset summaries
// and memory projections.
type Estimator struct {
	encoding *tiktoken.Tiktoken
	mu       sync.RWMutex
}

var (
	instance    *Estimator
	instanceErr error
	once        sync.Once
)

// NewEstimator returns the shared estimator, loading the encoding on first use.
func NewEstimator() (*Estimator, error) {
	once.Do(func() {
		enc, err := tiktoken.GetEncoding(Encoding)
		if err != nil {
			instanceErr = err
			return
		}
		instance = &Estimator{encoding: enc}
	})
	if instanceErr != nil {
		return nil, instanceErr
	}
	return instance, nil
}

// Count returns the token length of text.
func (e *Estimator) Count(text string) int {
	if text == "" {
		return 0
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.encoding.Encode(text, nil, nil))
}

// CountAll sums Count over texts.
func (e *Estimator) CountAll(texts ...string) int {
	total := 0
	for _, t := range texts {
		total += e.Count(t)
	}
	return total
}

// Truncate cuts text to at most limit tokens, dropping a trailing partial rune.
func (e *Estimator) Truncate(text string, limit int) string {
	if limit <= 0 || text == "" {
		return ""
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	tokens := e.encoding.Encode(text, nil, nil)
	if len(tokens) <= limit {
		return text
	}
	return strings.ToValidUTF8(e.encoding.Decode(tokens[:limit]), "")
}
