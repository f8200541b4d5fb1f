// Package execution memoizes sandboxed runs of generated code per session.
package execution

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/edachat/backend/internal/domain/dataset"
	"github.com/edachat/backend/internal/infrastructure/config"
	"github.com/edachat/backend/internal/infrastructure/log"
	"github.com/edachat/backend/internal/infrastructure/sandbox"
)

// Executor runs code against a dataset.
type Executor interface {
	Execute(ctx context.Context, code string, d *dataset.Dataset) (*sandbox.Execution, error)
}

// Result is a run, possibly served from the cache.
type Result struct {
	*sandbox.Execution
	Cached bool
	Key    string
}

// Cache is a bounded LRU of successful runs that produced a figure. Keys are namespaced by
// session and hash the code with the dataset shape and column names; cell values are not
// part of the key.
type Cache struct {
	entries *lru.Cache[string, *sandbox.Execution]
	exec    Executor
	logger  *slog.Logger
}

// NewCache creates a cache holding at most cfg.CacheSize runs.
func NewCache(cfg *config.ExecutionConfig, exec Executor) (*Cache, error) {
	entries, err := lru.New[string, *sandbox.Execution](cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("create execution cache: %w", err)
	}
	return &Cache{
		entries: entries,
		exec:    exec,
		logger:  log.NewModuleLogger("execution", "cache"),
	}, nil
}

// Key returns the cache key of code run on d within sessionID.
func Key(sessionID, code string, d *dataset.Dataset) string {
	rows, cols := d.Shape()
	h := sha256.New()
	fmt.Fprintf(h, "%s_(%d, %d)_%q", code, rows, cols, d.ColumnNames())
	return sessionID + ":" + hex.EncodeToString(h.Sum(nil))
}

// Exec returns the cached run for the key or executes code. Only runs that left a figure
// are stored. Execution errors are returned unchanged and never cached.
func (c *Cache) Exec(ctx context.Context, sessionID, code string, d *dataset.Dataset) (*Result, error) {
	if d == nil {
		return nil, dataset.ErrEmptyDataset
	}
	key := Key(sessionID, code, d)
	if hit, ok := c.entries.Get(key); ok {
		c.logger.Debug("Execution cache hit", "session_id", sessionID)
		return &Result{Execution: hit, Cached: true, Key: key}, nil
	}

	run, err := c.exec.Execute(ctx, code, d)
	if err != nil {
		return nil, err
	}
	if run.Figure != nil {
		c.entries.Add(key, run)
	}
	return &Result{Execution: run, Key: key}, nil
}

// Purge drops every entry of sessionID and returns how many were removed.
func (c *Cache) Purge(sessionID string) int {
	prefix := sessionID + ":"
	n := 0
	for _, k := range c.entries.Keys() {
		if strings.HasPrefix(k, prefix) && c.entries.Remove(k) {
			n++
		}
	}
	if n > 0 {
		c.logger.Debug("Execution cache purged", "session_id", sessionID, "entries", n)
	}
	return n
}

// Len returns the number of cached runs.
func (c *Cache) Len() int {
	return c.entries.Len()
}
