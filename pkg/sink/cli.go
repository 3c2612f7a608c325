package sink

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/travigo/tripscheduler/pkg/consumer"
	"github.com/travigo/tripscheduler/pkg/redis_client"
	"github.com/urfave/cli/v2"
)

func RegisterCLI() *cli.Command {
	return &cli.Command{
		Name:  "sink",
		Usage: "Trip broadcast queue",
		Subcommands: []*cli.Command{
			{
				Name:  "clean",
				Usage: "return unacknowledged broadcasts of dead consumers to the queue",
				Flags: []cli.Flag{
					&cli.DurationFlag{Name: "interval", Value: 10 * time.Second, Usage: "time between clean passes"},
				},
				Action: func(c *cli.Context) error {
					connection, err := redis_client.Connect(c.Context)
					if err != nil {
						return err
					}

					StartCleaner(c.Context, connection.QueueConnection, c.Duration("interval"))

					return nil
				},
			},
			{
				Name:  "consume",
				Usage: "log every broadcast trip",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "listen", Value: ":3333", Usage: "listen target for queue stats"},
					&cli.IntFlag{Name: "consumers", Value: 1, Usage: "number of batch consumers"},
					&cli.IntFlag{Name: "batch-size", Value: 100, Usage: "deliveries per batch"},
				},
				Action: func(c *cli.Context) error {
					connection, err := redis_client.Connect(c.Context)
					if err != nil {
						return err
					}

					mux := http.NewServeMux()
					mux.Handle("/"+TripBroadcastQueue+"/stats", consumer.NewStatsHandler(connection.QueueConnection))
					mux.Handle("/health", consumer.NewHealthHandler(map[string]consumer.HealthCheck{
						"redis": func(ctx context.Context) error { return connection.Client.Ping(ctx).Err() },
					}))
					statsServer := &http.Server{Addr: c.String("listen"), Handler: mux}

					go func() {
						log.Info().Msgf("Stats server listening on http://localhost%s/%s/stats", c.String("listen"), TripBroadcastQueue)
						if err := statsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
							log.Error().Err(err).Msg("Stats server stopped")
						}
					}()
					defer statsServer.Close()

					redisConsumer := &consumer.RedisConsumer{
						Connection:      connection.QueueConnection,
						QueueName:       TripBroadcastQueue,
						NumberConsumers: c.Int("consumers"),
						BatchSize:       c.Int("batch-size"),
						Timeout:         time.Second,
						Consumer:        NewLoggingConsumer(),
					}

					return redisConsumer.Run(c.Context)
				},
			},
		},
	}
}
