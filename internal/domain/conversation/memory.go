package conversation

import (
	"strings"
	"time"
)

// Labels used in memory projections. They are Portuguese because the projected text is
// read by the model alongside Portuguese prompts.
const (
	LabelUser          = "Usuário"
	LabelAssistant     = "Assistente"
	LabelStatistical   = "Análise Estatística"
	LabelVisualization = "Visualização Gerada"
	LabelRestored      = "Análise"
)

// Entry is one immutable memory record. Block entries render their text on the line after
// the label; an empty label renders the text alone.
type Entry struct {
	Label string    `json:"label,omitempty"`
	Text  string    `json:"text"`
	Block bool      `json:"block,omitempty"`
	At    time.Time `json:"at"`
}

// String renders the entry as one memory line (or block), newline terminated.
func (e Entry) String() string {
	switch {
	case e.Label == "":
		return e.Text + "\n"
	case e.Block:
		return e.Label + ":\n" + e.Text + "\n"
	default:
		return e.Label + ": " + e.Text + "\n"
	}
}

// Memory is an append-only sequence of entries. Text is produced only on projection.
type Memory struct {
	entries []Entry
}

// Append adds an inline entry.
func (m *Memory) Append(label, text string) Entry {
	return m.add(Entry{Label: label, Text: text, At: time.Now()})
}

// AppendBlock adds an entry whose text starts on its own line.
func (m *Memory) AppendBlock(label, text string) Entry {
	return m.add(Entry{Label: label, Text: text, Block: true, At: time.Now()})
}

func (m *Memory) add(e Entry) Entry {
	m.entries = append(m.entries, e)
	return e
}

// Len returns the number of entries.
func (m *Memory) Len() int {
	return len(m.entries)
}

// Entries returns a copy of all entries.
func (m *Memory) Entries() []Entry {
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

// Since returns a copy of the entries appended after the first n.
func (m *Memory) Since(n int) []Entry {
	if n >= len(m.entries) {
		return nil
	}
	if n < 0 {
		n = 0
	}
	out := make([]Entry, len(m.entries)-n)
	copy(out, m.entries[n:])
	return out
}

// Reset drops every entry.
func (m *Memory) Reset() {
	m.entries = nil
}

// Render concatenates every entry in order.
func (m *Memory) Render() string {
	return Render(m.entries)
}

// RenderWithin renders the newest entries whose projection fits budget tokens, keeping
// at least the most recent one. A non-positive budget or nil counter renders everything.
func (m *Memory) RenderWithin(budget int, count func(string) int) string {
	if budget <= 0 || count == nil || len(m.entries) == 0 {
		return m.Render()
	}
	start := len(m.entries) - 1
	used := count(m.entries[start].String())
	for start > 0 {
		next := count(m.entries[start-1].String())
		if used+next > budget {
			break
		}
		used += next
		start--
	}
	return Render(m.entries[start:])
}

// Render concatenates entries.
func Render(entries []Entry) string {
	var b strings.Builder
	for _, e := range entries {
		b.WriteString(e.String())
	}
	return b.String()
}
