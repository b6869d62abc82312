package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"invisiblewallet/internal/client/cli"
	"invisiblewallet/internal/client/config"
	"invisiblewallet/internal/logging"
)

func main() {

	cfg := config.LoadConfig()
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	app, err := cli.NewApp(cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
		return
	}

	app.Run(context.Background())

}
