// migrate applies the embedded schema to DATABASE_URL.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/passkeep/authsvc/internal/config"
	"github.com/passkeep/authsvc/internal/db/migrate"
	"github.com/passkeep/authsvc/internal/logging"
)

func main() {
	direction := flag.String("direction", migrate.Up, "Migration direction: up or down")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.AppName+"-migrate", cfg.LogLevel)

	if cfg.DatabaseURL == "" {
		logger.Error("DATABASE_URL is not set; nothing to migrate")
		os.Exit(1)
	}

	if err := migrate.Run(cfg.DatabaseURL, *direction); err != nil {
		logger.Error("migrate", "direction", *direction, "error", err)
		os.Exit(1)
	}
	logger.Info("migrations applied", "direction", *direction)
}
