package watcher

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/edachat/backend/internal/domain/events"
	"github.com/edachat/backend/internal/infrastructure/log"
)

// DataFileExts are the extensions the inbox accepts.
var DataFileExts = []string{".csv", ".tsv", ".txt"}

// InboxConfig configures an InboxWatcher.
type InboxConfig struct {
	Dir           string
	DebounceDelay time.Duration
	// MetadataPath stores the last scan time; empty disables the startup scan.
	MetadataPath string
}

// InboxWatcher publishes a DatasetFileDropped event for every data file written into
// a directory, once writes to it have settled.
type InboxWatcher struct {
	config   InboxConfig
	eventBus events.EventBus
	watcher  *fsnotify.Watcher
	logger   *slog.Logger

	debounceTimers map[string]*time.Timer
	debounceMu     sync.Mutex

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	metadata *ScanMetadata
}

// NewInboxWatcher creates a watcher over cfg.Dir.
func NewInboxWatcher(cfg InboxConfig, eventBus events.EventBus) (*InboxWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	iw := &InboxWatcher{
		config:         cfg,
		eventBus:       eventBus,
		watcher:        w,
		logger:         log.NewModuleLogger("watcher", "inbox"),
		debounceTimers: make(map[string]*time.Timer),
		stopCh:         make(chan struct{}),
	}
	if cfg.MetadataPath != "" {
		iw.metadata = NewScanMetadata(cfg.MetadataPath)
	}
	return iw, nil
}

// Start creates the directory if needed, publishes files that arrived since the last
// scan and begins watching.
func (iw *InboxWatcher) Start() error {
	iw.logger.Info("Starting inbox watcher", "dir", iw.config.Dir)

	if err := os.MkdirAll(iw.config.Dir, 0755); err != nil {
		return err
	}
	if err := iw.watcher.Add(iw.config.Dir); err != nil {
		return err
	}

	if iw.metadata != nil {
		iw.scan(iw.metadata.GetLastScanTime())
		iw.metadata.SetLastScanTime(time.Now())
	}

	iw.wg.Add(1)
	go iw.watchLoop()
	return nil
}

// Stop stops watching and cancels pending debounce timers.
func (iw *InboxWatcher) Stop() {
	iw.stopOnce.Do(func() {
		iw.logger.Info("Stopping inbox watcher")
		close(iw.stopCh)
		iw.watcher.Close()
		iw.wg.Wait()

		iw.debounceMu.Lock()
		for _, timer := range iw.debounceTimers {
			timer.Stop()
		}
		iw.debounceMu.Unlock()
	})
}

// scan publishes data files modified after since.
func (iw *InboxWatcher) scan(since time.Time) int {
	entries, err := os.ReadDir(iw.config.Dir)
	if err != nil {
		iw.logger.Error("Failed to read inbox directory", "error", err)
		return 0
	}
	count := 0
	for _, entry := range entries {
		if entry.IsDir() || !IsDataFile(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil || !info.ModTime().After(since) {
			continue
		}
		iw.publish(filepath.Join(iw.config.Dir, entry.Name()), info)
		count++
	}
	if count > 0 {
		iw.logger.Info("Inbox scan found new files", "count", count)
	}
	return count
}

func (iw *InboxWatcher) watchLoop() {
	defer iw.wg.Done()

	for {
		select {
		case <-iw.stopCh:
			return

		case event, ok := <-iw.watcher.Events:
			if !ok {
				return
			}
			iw.handleFsEvent(event)

		case err, ok := <-iw.watcher.Errors:
			if !ok {
				return
			}
			iw.logger.Error("Watcher error", "error", err)
		}
	}
}

func (iw *InboxWatcher) handleFsEvent(event fsnotify.Event) {
	if !IsDataFile(event.Name) {
		return
	}
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}

	iw.debounceMu.Lock()
	defer iw.debounceMu.Unlock()

	if timer, exists := iw.debounceTimers[event.Name]; exists {
		timer.Stop()
	}
	path := event.Name
	iw.debounceTimers[path] = time.AfterFunc(iw.config.DebounceDelay, func() {
		iw.debounceMu.Lock()
		delete(iw.debounceTimers, path)
		iw.debounceMu.Unlock()

		info, err := os.Stat(path)
		if err != nil || info.Size() == 0 {
			return
		}
		iw.publish(path, info)
		if iw.metadata != nil {
			iw.metadata.SetLastScanTime(time.Now())
		}
	})
}

func (iw *InboxWatcher) publish(path string, info os.FileInfo) {
	iw.eventBus.Publish(&events.DatasetFileEvent{
		FilePath:  path,
		FileSize:  info.Size(),
		ModTime:   info.ModTime(),
		EventTime: time.Now(),
	})
	iw.logger.Debug("Dataset file event emitted", "path", path, "size", info.Size())
}

// IsDataFile reports whether name has an accepted extension and is not hidden.
func IsDataFile(name string) bool {
	base := filepath.Base(name)
	if strings.HasPrefix(base, ".") {
		return false
	}
	ext := strings.ToLower(filepath.Ext(base))
	for _, e := range DataFileExts {
		if ext == e {
			return true
		}
	}
	return false
}
