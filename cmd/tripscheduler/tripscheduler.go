package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/travigo/tripscheduler/pkg/api"
	schedulercli "github.com/travigo/tripscheduler/pkg/scheduler/cli"
	"github.com/travigo/tripscheduler/pkg/sink"
	"github.com/urfave/cli/v2"

	_ "time/tzdata"
)

func main() {
	if os.Getenv("TRIPSCHEDULER_LOG_FORMAT") != "JSON" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}

	if os.Getenv("TRIPSCHEDULER_DEBUG") == "YES" {
		log.Logger = log.Logger.Level(zerolog.DebugLevel)
	} else {
		log.Logger = log.Logger.Level(zerolog.InfoLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &cli.App{
		Name:        "tripscheduler",
		Description: "Bulk trip scheduling for the fleet - generates, reports on and cleans up trips",

		Commands: []*cli.Command{
			api.RegisterCLI(),
			schedulercli.RegisterCLI(),
			sink.RegisterCLI(),
		},
	}

	if err := app.RunContext(ctx, os.Args); err != nil {
		log.Fatal().Err(err).Send()
	}
}
