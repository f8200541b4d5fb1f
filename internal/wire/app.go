package wire

import (
	"log/slog"

	appConversation "github.com/edachat/backend/internal/application/conversation"
	"github.com/edachat/backend/internal/domain/events"
	applog "github.com/edachat/backend/internal/infrastructure/log"
	"github.com/edachat/backend/internal/infrastructure/watcher"
	"github.com/edachat/backend/internal/infrastructure/websocket"
	"github.com/edachat/backend/internal/interfaces"
)

// App composes every long-running service.
type App struct {
	HTTPServer   *interfaces.HTTPServer
	MCPServer    *interfaces.MCPServer
	Conversation *appConversation.Service

	wsHub        *websocket.Hub
	eventBus     events.EventBus
	inboxWatcher *watcher.InboxWatcher
	logger       *slog.Logger

	unsubscribe []func()
}

// NewApp creates the application. inboxWatcher is nil when the inbox is disabled.
func NewApp(
	httpServer *interfaces.HTTPServer,
	mcpServer *interfaces.MCPServer,
	svc *appConversation.Service,
	wsHub *websocket.Hub,
	eventBus events.EventBus,
	inboxWatcher *watcher.InboxWatcher,
) *App {
	return &App{
		HTTPServer:   httpServer,
		MCPServer:    mcpServer,
		Conversation: svc,
		wsHub:        wsHub,
		eventBus:     eventBus,
		inboxWatcher: inboxWatcher,
		logger:       applog.NewModuleLogger("app", "main"),
	}
}

// Start subscribes the event consumers, starts the inbox watcher and serves HTTP in the
// background.
func (a *App) Start() error {
	a.logger.Info("Starting edachat backend")

	a.setupEventSubscribers()

	if a.inboxWatcher != nil {
		if err := a.inboxWatcher.Start(); err != nil {
			a.logger.Error("Failed to start inbox watcher",
				"error", err,
			)
		} else {
			a.logger.Info("Inbox watcher started")
		}
	}

	go func() {
		if err := a.HTTPServer.Start(); err != nil {
			a.logger.Error("HTTP server stopped with error",
				"error", err,
			)
		}
	}()

	a.logger.Info("edachat backend started")
	return nil
}

// setupEventSubscribers wires the websocket hub and the inbox handler to the event bus.
func (a *App) setupEventSubscribers() {
	if a.eventBus == nil {
		return
	}
	if a.wsHub != nil {
		a.unsubscribe = append(a.unsubscribe, a.wsHub.Subscribe(a.eventBus))
	}
	if a.inboxWatcher != nil && a.Conversation != nil {
		a.unsubscribe = append(a.unsubscribe, a.Conversation.Subscribe(a.eventBus))
		a.logger.Info("Conversation service subscribed to inbox events")
	}
}

// Stop shuts every service down. Database cleanup is returned separately by InitializeAll.
func (a *App) Stop() error {
	a.logger.Info("Stopping edachat backend")

	if a.inboxWatcher != nil {
		a.inboxWatcher.Stop()
		a.logger.Info("Inbox watcher stopped")
	}

	for _, unsub := range a.unsubscribe {
		unsub()
	}
	a.unsubscribe = nil

	if a.eventBus != nil {
		a.eventBus.Close()
		a.logger.Info("Event bus closed")
	}

	if err := a.HTTPServer.Stop(); err != nil {
		a.logger.Error("Failed to stop HTTP server",
			"error", err,
		)
		return err
	}
	if err := a.MCPServer.Stop(); err != nil {
		a.logger.Error("Failed to stop MCP server",
			"error", err,
		)
		return err
	}

	a.logger.Info("edachat backend stopped")
	return nil
}
