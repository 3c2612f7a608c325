package bootstrap

import (
	"context"
	"errors"

	"github.com/eko/gocache/lib/v4/cache"
	redisstore "github.com/eko/gocache/store/redis/v4"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	"github.com/travigo/tripscheduler/pkg/consumer"
	"github.com/travigo/tripscheduler/pkg/database"
	"github.com/travigo/tripscheduler/pkg/elastic_client"
	"github.com/travigo/tripscheduler/pkg/redis_client"
	"github.com/travigo/tripscheduler/pkg/scheduler"
	"github.com/travigo/tripscheduler/pkg/sink"
)

// Services holds every backend a command may need. Redis and Elastic are nil when not configured.
type Services struct {
	Config scheduler.Config

	Mongo   *database.MongoInstance
	Redis   *redis_client.Connection
	Elastic *elasticsearch.Client

	Registry *prometheus.Registry
	Engine   *scheduler.Engine
}

func Setup(ctx context.Context) (*Services, error) {
	config, err := scheduler.ConfigFromEnvironment()
	if err != nil {
		return nil, err
	}

	mongo, err := database.Connect(ctx)
	if err != nil {
		return nil, err
	}

	services := &Services{
		Config:   config,
		Mongo:    mongo,
		Registry: prometheus.NewRegistry(),
	}

	services.Redis, err = redis_client.Connect(ctx)
	if errors.Is(err, redis_client.ErrNotConfigured) {
		log.Info().Msg("Skipping Redis setup, using in-process range lock")
	} else if err != nil {
		services.Close(ctx)
		return nil, err
	}

	services.Elastic, err = elastic_client.Connect()
	if errors.Is(err, elastic_client.ErrNotConfigured) {
		log.Info().Msg("Skipping Elasticsearch setup")
	} else if err != nil {
		log.Warn().Err(err).Msg("Elasticsearch unavailable, run summaries will not be indexed")
		services.Elastic = nil
	}

	services.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	metrics, err := scheduler.NewMetrics(services.Registry)
	if err != nil {
		services.Close(ctx)
		return nil, err
	}

	engine := scheduler.NewEngine(config, scheduler.NewMongoStore(mongo))
	engine.Metrics = metrics

	if services.Redis != nil {
		engine.Lock = &scheduler.RedisRangeLock{Client: services.Redis.Client, TTL: config.LockTTL}

		queueSink, err := sink.NewQueueSink(services.Redis.QueueConnection)
		if err != nil {
			services.Close(ctx)
			return nil, err
		}
		engine.Sink = queueSink
	}

	if services.Elastic != nil {
		engine.Recorder = elastic_client.NewRunIndexer(services.Elastic)
	}

	services.Engine = engine

	return services, nil
}

// ReportCache returns nil without Redis
func (s *Services) ReportCache() *cache.Cache[string] {
	if s.Redis == nil {
		return nil
	}

	redisStore := redisstore.NewRedis(s.Redis.Client)
	return cache.New[string](redisStore)
}

func (s *Services) HealthChecks() map[string]consumer.HealthCheck {
	checks := map[string]consumer.HealthCheck{
		"mongo": func(ctx context.Context) error {
			return s.Mongo.Client.Ping(ctx, nil)
		},
	}

	if s.Redis != nil {
		checks["redis"] = func(ctx context.Context) error {
			return s.Redis.Client.Ping(ctx).Err()
		}
	}

	return checks
}

func (s *Services) Close(ctx context.Context) {
	if s.Redis != nil {
		<-s.Redis.QueueConnection.StopAllConsuming()
		if err := s.Redis.Client.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close Redis client")
		}
	}

	if s.Mongo != nil {
		if err := s.Mongo.Disconnect(ctx); err != nil {
			log.Error().Err(err).Msg("Failed to disconnect from MongoDB")
		}
	}
}
