package watcher

import (
	"path/filepath"

	"github.com/google/wire"

	"github.com/edachat/backend/internal/domain/events"
	"github.com/edachat/backend/internal/infrastructure/config"
)

// ProvideEventBus provides the event bus.
func ProvideEventBus() events.EventBus {
	return NewEventBus()
}

// ProvideInboxWatcher provides the inbox watcher, or nil when the inbox is disabled.
func ProvideInboxWatcher(cfg *config.InboxConfig, eventBus events.EventBus) (*InboxWatcher, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	return NewInboxWatcher(InboxConfig{
		Dir:           cfg.Dir,
		DebounceDelay: cfg.Debounce,
		MetadataPath:  filepath.Join(config.GetDataDir(), "inbox_metadata.json"),
	}, eventBus)
}

// ProviderSet is the watcher provider set.
var ProviderSet = wire.NewSet(
	ProvideEventBus,
	ProvideInboxWatcher,
)
