// Command edachat runs the analysis daemon or asks questions about a CSV from the terminal.
package main

import (
	"os"

	"github.com/joho/godotenv"

	applog "github.com/edachat/backend/internal/infrastructure/log"
)

func main() {
	_ = godotenv.Load()
	applog.Init(nil)

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
