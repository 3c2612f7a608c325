package redis_client

import (
	"context"
	"errors"
	"strconv"

	"github.com/adjust/rmq/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/travigo/tripscheduler/pkg/util"
)

var ErrNotConfigured = errors.New("redis address not configured")

type Connection struct {
	Client          *redis.Client
	QueueConnection rmq.Connection
}

const defaultConnectionPassword = ""
const defaultDatabase = 0

// Connect returns ErrNotConfigured when TRIPSCHEDULER_REDIS_ADDRESS is unset so callers
// can fall back to in-process alternatives
func Connect(ctx context.Context) (*Connection, error) {
	password := defaultConnectionPassword
	database := defaultDatabase

	env := util.GetEnvironmentVariables()

	address := env["TRIPSCHEDULER_REDIS_ADDRESS"]
	if address == "" {
		return nil, ErrNotConfigured
	}

	if env["TRIPSCHEDULER_REDIS_PASSWORD"] != "" {
		password = env["TRIPSCHEDULER_REDIS_PASSWORD"]
	}

	if env["TRIPSCHEDULER_REDIS_DATABASE"] != "" {
		if n, err := strconv.Atoi(env["TRIPSCHEDULER_REDIS_DATABASE"]); err == nil {
			database = n
		} else {
			return nil, err
		}
	}

	return ConnectWith(ctx, &redis.Options{
		Addr:     address,
		Password: password,
		DB:       database,
	})
}

func ConnectWith(ctx context.Context, opts *redis.Options) (*Connection, error) {
	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	errChan := make(chan error, 10)
	go logQueueErrors(errChan)

	queueConnection, err := rmq.OpenConnectionWithRedisClient("tripscheduler", client, errChan)
	if err != nil {
		return nil, err
	}

	return &Connection{
		Client:          client,
		QueueConnection: queueConnection,
	}, nil
}

func logQueueErrors(errChan <-chan error) {
	for err := range errChan {
		switch err := err.(type) {
		case *rmq.HeartbeatError:
			if err.Count == rmq.HeartbeatErrorLimit {
				log.Error().Err(err).Msg("Queue heartbeat error limit reached")
			}
		default:
			log.Error().Err(err).Msg("Queue error")
		}
	}
}
