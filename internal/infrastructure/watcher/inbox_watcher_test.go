package watcher

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edachat/backend/internal/domain/events"
)

type recorder struct {
	mu    sync.Mutex
	paths []string
}

func (r *recorder) HandleEvent(event events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, event.(*events.DatasetFileEvent).FilePath)
	return nil
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...)
}

func TestIsDataFile(t *testing.T) {
	tests := []struct {
		path     string
		expected bool
	}{
		{"/inbox/vendas.csv", true},
		{"/inbox/VENDAS.CSV", true},
		{"/inbox/dados.tsv", true},
		{"/inbox/notas.txt", true},
		{"/inbox/.vendas.csv", false},
		{"/inbox/planilha.xlsx", false},
		{"/inbox/vendas.csv.swp", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsDataFile(tt.path))
		})
	}
}

func TestInboxWatcher_PublishesDroppedFiles(t *testing.T) {
	dir := t.TempDir()
	bus := NewEventBus()
	defer bus.Close()
	rec := &recorder{}
	bus.Subscribe(events.DatasetFileDropped, rec)

	iw, err := NewInboxWatcher(InboxConfig{Dir: dir, DebounceDelay: 50 * time.Millisecond}, bus)
	require.NoError(t, err)
	require.NoError(t, iw.Start())
	defer iw.Stop()

	path := filepath.Join(dir, "vendas.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,b\n"), 0o644))
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, _ = f.WriteString("1,2\n")
	require.NoError(t, f.Close())
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignorar.xlsx"), []byte("x"), 0o644))

	require.Eventually(t, func() bool { return len(rec.snapshot()) > 0 }, 2*time.Second, 20*time.Millisecond)
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, []string{path}, rec.snapshot(), "writes are debounced into a single event")
}

func TestInboxWatcher_StartupScan(t *testing.T) {
	dir := t.TempDir()
	meta := filepath.Join(t.TempDir(), "inbox_metadata.json")
	old := filepath.Join(dir, "antigo.csv")
	require.NoError(t, os.WriteFile(old, []byte("a,b\n1,2\n"), 0o644))

	bus := NewEventBus()
	defer bus.Close()
	rec := &recorder{}
	bus.Subscribe(events.DatasetFileDropped, rec)

	iw, err := NewInboxWatcher(InboxConfig{Dir: dir, DebounceDelay: 20 * time.Millisecond, MetadataPath: meta}, bus)
	require.NoError(t, err)
	require.NoError(t, iw.Start())
	iw.Stop()

	require.Eventually(t, func() bool { return len(rec.snapshot()) == 1 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, old, rec.snapshot()[0])
	assert.False(t, NewScanMetadata(meta).GetLastScanTime().IsZero())

	// A second start sees no new files.
	rec2 := &recorder{}
	bus.Subscribe(events.DatasetFileDropped, rec2)
	iw2, err := NewInboxWatcher(InboxConfig{Dir: dir, DebounceDelay: 20 * time.Millisecond, MetadataPath: meta}, bus)
	require.NoError(t, err)
	require.NoError(t, iw2.Start())
	iw2.Stop()
	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, rec2.snapshot())
}

func TestScanMetadata_Persists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meta.json")
	now := time.Now().Truncate(time.Second)

	NewScanMetadata(path).SetLastScanTime(now)
	assert.True(t, NewScanMetadata(path).GetLastScanTime().Equal(now))
}
