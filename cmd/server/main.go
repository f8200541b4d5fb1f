// @title edachat API
// @version 1.0
// @description Conversational exploratory data analysis over uploaded CSV datasets.
// @host localhost:19970
// @BasePath /api/v1
// @schemes http
package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/edachat/backend/internal/infrastructure/config"
	applog "github.com/edachat/backend/internal/infrastructure/log"
	"github.com/edachat/backend/internal/infrastructure/singleton"
	"github.com/edachat/backend/internal/wire"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	applog.Init(nil)

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	listener, err := singleton.CheckAndLock(cfg.Server.HTTPPort)
	if err != nil {
		log.Fatalf("singleton check: %v", err)
	}
	if listener == nil {
		log.Println("edachat is already running on", cfg.Server.HTTPPort)
		os.Exit(0)
	}
	// The HTTP server binds the port itself.
	_ = listener.Close()

	app, cleanup, err := wire.InitializeAll()
	if err != nil {
		applog.GetLogger().Error("Failed to initialize application",
			"error", err,
		)
		os.Exit(1)
	}
	defer cleanup()

	if err := app.Start(); err != nil {
		applog.GetLogger().Error("Failed to start application",
			"error", err,
		)
		os.Exit(1)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	applog.GetLogger().Info("Shutting down application...")
	if err := app.Stop(); err != nil {
		applog.GetLogger().Error("Error during application shutdown",
			"error", err,
		)
	}
	applog.GetLogger().Info("Application stopped")
}
