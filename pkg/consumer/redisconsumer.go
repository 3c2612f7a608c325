package consumer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/adjust/rmq/v5"
	"github.com/rs/zerolog/log"
)

var ErrNoConsumers = errors.New("at least one consumer is required")

// RedisConsumer attaches a set of batch consumers to one rmq queue
type RedisConsumer struct {
	Connection rmq.Connection
	QueueName  string

	NumberConsumers int
	BatchSize       int

	Timeout time.Duration

	Consumer rmq.BatchConsumer
}

// Run consumes until ctx is cancelled then waits for in-flight batches to finish
func (c *RedisConsumer) Run(ctx context.Context) error {
	queue, err := c.Start()
	if err != nil {
		return err
	}

	<-ctx.Done()

	log.Info().Str("queue", c.QueueName).Msg("Stopping consumers")
	<-queue.StopConsuming()

	return nil
}

func (c *RedisConsumer) Start() (rmq.Queue, error) {
	if c.NumberConsumers < 1 {
		return nil, ErrNoConsumers
	}

	log.Info().Str("queue", c.QueueName).Msg("Starting consumers")

	queue, err := c.Connection.OpenQueue(c.QueueName)
	if err != nil {
		return nil, err
	}
	if err := queue.StartConsuming(int64(c.NumberConsumers*c.BatchSize), 1*time.Second); err != nil {
		return nil, err
	}

	for i := 0; i < c.NumberConsumers; i++ {
		log.Info().Msgf("Starting %s consumer %d", c.QueueName, i)

		if _, err := queue.AddBatchConsumer(fmt.Sprintf("%s-consumer-%d", c.QueueName, i), int64(c.BatchSize), c.Timeout, c.Consumer); err != nil {
			return nil, err
		}
	}

	return queue, nil
}
