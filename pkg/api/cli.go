package api

import (
	"github.com/rs/zerolog/log"
	"github.com/travigo/tripscheduler/pkg/api/routes"
	"github.com/travigo/tripscheduler/pkg/bootstrap"
	"github.com/travigo/tripscheduler/pkg/consumer"
	"github.com/travigo/tripscheduler/pkg/util"
	"github.com/urfave/cli/v2"
)

func RegisterCLI() *cli.Command {
	return &cli.Command{
		Name:  "web-api",
		Usage: "Provides the bulk scheduler web API",
		Subcommands: []*cli.Command{
			{
				Name:  "run",
				Usage: "run web api server",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "listen",
						Value: ":8080",
						Usage: "listen target for the web server",
					},
				},
				Action: func(c *cli.Context) error {
					services, err := bootstrap.Setup(c.Context)
					if err != nil {
						return err
					}
					defer services.Close(c.Context)

					server := &Server{
						BulkScheduler: &routes.BulkScheduler{
							Engine: services.Engine,
							Cache:  services.ReportCache(),
						},
						Gatherer: services.Registry,
						Health:   consumer.NewHealthHandler(services.HealthChecks()),
					}

					if services.Redis != nil {
						server.QueueStats = consumer.NewStatsHandler(services.Redis.QueueConnection)
					}

					env := util.GetEnvironmentVariables()
					if env["AUTH0_DOMAIN"] != "" {
						jwtValidator, err := NewAuth0Validator(env["AUTH0_DOMAIN"], env["AUTH0_AUDIENCE"])
						if err != nil {
							return err
						}
						server.Auth = EnsureValidToken(jwtValidator)
					} else {
						log.Warn().Msg("AUTH0_DOMAIN not set, bulk scheduler routes are unauthenticated")
					}

					app := server.App()

					go func() {
						<-c.Context.Done()
						if err := app.Shutdown(); err != nil {
							log.Error().Err(err).Msg("Failed to shut down web server")
						}
					}()

					log.Info().Str("listen", c.String("listen")).Msg("Starting web API")

					return app.Listen(c.String("listen"))
				},
			},
		},
	}
}
