package cli

import (
	"fmt"
	"os"

	"github.com/kr/pretty"
	"github.com/rs/zerolog/log"
	"github.com/travigo/tripscheduler/pkg/bootstrap"
	"github.com/travigo/tripscheduler/pkg/fleet"
	"github.com/travigo/tripscheduler/pkg/scheduler"
	"github.com/urfave/cli/v2"
)

func RegisterCLI() *cli.Command {
	return &cli.Command{
		Name:  "scheduler",
		Usage: "Bulk trip scheduling",
		Subcommands: []*cli.Command{
			generateCommand(),
			{
				Name:  "status",
				Usage: "show trip counts against the scheduling target",
				Action: func(c *cli.Context) error {
					services, err := bootstrap.Setup(c.Context)
					if err != nil {
						return err
					}
					defer services.Close(c.Context)

					status, err := services.Engine.Reporter().Status(c.Context, scheduler.StatusTargets{
						TripsPerDepotPerDay: services.Config.TargetTripsPerDepotPerDay,
						DaysToSchedule:      services.Config.TargetDaysToSchedule,
					})
					if err != nil {
						return err
					}

					pretty.Println(status)

					return nil
				},
			},
			{
				Name:  "analyse",
				Usage: "report per-depot scheduling readiness",
				Action: func(c *cli.Context) error {
					services, err := bootstrap.Setup(c.Context)
					if err != nil {
						return err
					}
					defer services.Close(c.Context)

					analysis, err := services.Engine.Reporter().DepotAnalysis(c.Context)
					if err != nil {
						return err
					}

					for _, depot := range analysis {
						log.Info().
							Str("depot", depot.DepotName).
							Str("code", depot.DepotCode).
							Int("buses", depot.Buses).
							Int("routes", depot.Routes).
							Int("drivers", depot.Drivers).
							Int("conductors", depot.Conductors).
							Int("readiness", depot.ReadinessScore).
							Bool("canSchedule", depot.CanSchedule).
							Int("maxTripsPerDay", depot.MaxTripsPerDay).
							Msg("Depot readiness")
					}

					return nil
				},
			},
			cleanupCommand(),
		},
	}
}

func generateCommand() *cli.Command {
	return &cli.Command{
		Name:  "generate",
		Usage: "generate trips for every schedulable depot",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "days", Value: scheduler.DefaultDaysToSchedule, Usage: "number of service days to schedule"},
			&cli.IntFlag{Name: "trips-per-depot", Value: scheduler.DefaultTripsPerDepotPerDay, Usage: "trips per depot per day"},
			&cli.StringFlag{Name: "start-date", Usage: "first service date (YYYY-MM-DD), defaults to today"},
			&cli.StringFlag{Name: "dedup-policy", Usage: "clear-range or skip-existing"},
			&cli.Int64Flag{Name: "seed", Usage: "seed for reproducible assignment"},
			&cli.StringSliceFlag{Name: "depot", Usage: "restrict to depot id (repeatable)"},
			&cli.StringSliceFlag{Name: "route", Usage: "restrict to route id (repeatable)"},
			&cli.StringSliceFlag{Name: "bus", Usage: "restrict to bus id (repeatable)"},
			&cli.StringFlag{Name: "bus-filter", Usage: "expression buses must satisfy, e.g. Capacity.Total >= 40"},
			&cli.BoolFlag{Name: "no-crew", Usage: "leave driver and conductor unassigned"},
			&cli.BoolFlag{Name: "dry-run", Usage: "plan without writing"},
			&cli.StringFlag{Name: "csv-out", Usage: "write the planned trips to this CSV file (implies --dry-run)"},
		},
		Action: func(c *cli.Context) error {
			request := generateRequest(c)

			services, err := bootstrap.Setup(c.Context)
			if err != nil {
				return err
			}
			defer services.Close(c.Context)

			if request.DryRun || c.String("csv-out") != "" {
				plan, summary, err := services.Engine.Preview(c.Context, request)
				if err != nil {
					return err
				}

				if path := c.String("csv-out"); path != "" {
					if err := writeCSV(path, plan); err != nil {
						return err
					}
					log.Info().Str("file", path).Int("trips", len(plan.Drafts)).Msg("Exported planned trips")
				}

				pretty.Println(summary)

				return nil
			}

			summary, err := services.Engine.Generate(c.Context, request)
			if err != nil {
				return err
			}

			for _, warning := range summary.Warnings {
				log.Warn().Msg(warning)
			}
			for _, batchError := range summary.Errors {
				log.Error().Msg(batchError)
			}

			log.Info().
				Str("run", summary.RunID).
				Int("generated", summary.TotalGenerated).
				Int("inserted", summary.TotalInserted).
				Int("successRate", summary.SuccessRate).
				Int64("deleted", summary.Deleted).
				Int("skipped", summary.Skipped).
				Msgf("Successfully generated %d trips across %d depots", summary.TotalGenerated, summary.DepotsProcessed)

			return nil
		},
	}
}

func generateRequest(c *cli.Context) scheduler.GenerateRequest {
	autoAssignCrew := !c.Bool("no-crew")

	request := scheduler.GenerateRequest{
		DaysToSchedule:      c.Int("days"),
		TripsPerDepotPerDay: c.Int("trips-per-depot"),
		StartDate:           c.String("start-date"),
		AutoAssignCrew:      &autoAssignCrew,
		DepotIDs:            c.StringSlice("depot"),
		RouteIDs:            c.StringSlice("route"),
		BusIDs:              c.StringSlice("bus"),
		DedupPolicy:         c.String("dedup-policy"),
		BusFilter:           c.String("bus-filter"),
		DryRun:              c.Bool("dry-run"),
	}

	if c.IsSet("seed") {
		seed := c.Int64("seed")
		request.Seed = &seed
	}

	return request
}

func writeCSV(path string, plan *scheduler.Plan) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := scheduler.ExportCSV(file, plan.Drafts); err != nil {
		file.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}

	return file.Close()
}

func cleanupCommand() *cli.Command {
	return &cli.Command{
		Name:  "cleanup",
		Usage: "delete generated trips",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "all", Usage: "delete every trip regardless of date"},
			&cli.BoolFlag{Name: "include-past", Usage: "do not restrict deletion to future service dates"},
			&cli.StringFlag{Name: "from", Usage: "delete trips on or after this date (YYYY-MM-DD), with --include-past"},
			&cli.StringFlag{Name: "status", Usage: "only delete trips with this status"},
			&cli.BoolFlag{Name: "confirm", Usage: "required, confirms the deletion"},
		},
		Action: func(c *cli.Context) error {
			futureOnly := !c.Bool("include-past")

			request := scheduler.CleanupRequest{
				DeleteAll:        c.Bool("all"),
				DeleteFutureOnly: &futureOnly,
				DeleteFromDate:   c.String("from"),
				Status:           fleet.TripStatus(c.String("status")),
				ConfirmCleanup:   c.Bool("confirm"),
			}

			services, err := bootstrap.Setup(c.Context)
			if err != nil {
				return err
			}
			defer services.Close(c.Context)

			deleted, err := services.Engine.Cleanup(c.Context, request)
			if err != nil {
				return err
			}

			log.Info().Int64("deleted", deleted).Msgf("Deleted %d trips", deleted)

			return nil
		},
	}
}
