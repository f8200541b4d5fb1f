// Package agenttest provides a scripted Generator for tests.
package agenttest

import (
	"context"
	"fmt"
	"sync"

	"github.com/edachat/backend/internal/domain/agent"
)

// Call is one recorded Generate invocation.
type Call struct {
	Name string
	Vars map[string]string
	Text string
}

// FakeGenerator answers prompts by name with queued responses or errors and records
// every call in order.
type FakeGenerator struct {
	mu        sync.Mutex
	responses map[string][]string
	errors    map[string]error
	calls     []Call
}

// NewFakeGenerator creates an empty fake.
func NewFakeGenerator() *FakeGenerator {
	return &FakeGenerator{
		responses: make(map[string][]string),
		errors:    make(map[string]error),
	}
}

// AddResponse queues a response for the prompt called name. The last queued response is
// repeated once the queue is drained.
func (f *FakeGenerator) AddResponse(name, text string) *FakeGenerator {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[name] = append(f.responses[name], text)
	return f
}

// AddError makes every call of the prompt called name fail with err.
func (f *FakeGenerator) AddError(name string, err error) *FakeGenerator {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errors[name] = err
	return f
}

// Generate implements agent.Generator. The prompt is rendered so template errors surface.
func (f *FakeGenerator) Generate(_ context.Context, p agent.Prompt) (string, error) {
	text, err := p.Render()
	if err != nil {
		return "", err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	vars := make(map[string]string, len(p.Vars))
	for k, v := range p.Vars {
		vars[k] = v
	}
	f.calls = append(f.calls, Call{Name: p.Name, Vars: vars, Text: text})

	if err := f.errors[p.Name]; err != nil {
		return "", err
	}
	queue := f.responses[p.Name]
	if len(queue) == 0 {
		return "", fmt.Errorf("fake generator: no response for prompt %q", p.Name)
	}
	out := queue[0]
	if len(queue) > 1 {
		f.responses[p.Name] = queue[1:]
	}
	return out, nil
}

// Calls returns the recorded calls.
func (f *FakeGenerator) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Call, len(f.calls))
	copy(out, f.calls)
	return out
}

// Names returns the prompt names called, in order.
func (f *FakeGenerator) Names() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = c.Name
	}
	return out
}

// CallCount returns the number of calls.
func (f *FakeGenerator) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}
