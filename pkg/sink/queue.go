package sink

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/adjust/rmq/v5"
	"github.com/rs/zerolog/log"
	"github.com/travigo/tripscheduler/pkg/fleet"
)

const TripBroadcastQueue = "trip-broadcast"

const publishChunkSize = 500

type QueueSink struct {
	Queue rmq.Queue
}

func NewQueueSink(connection rmq.Connection) (*QueueSink, error) {
	queue, err := connection.OpenQueue(TripBroadcastQueue)
	if err != nil {
		return nil, err
	}

	return &QueueSink{Queue: queue}, nil
}

// Publish pushes one JSON message per trip
func (s *QueueSink) Publish(ctx context.Context, trips []fleet.Trip) error {
	payloads := make([][]byte, 0, min(len(trips), publishChunkSize))
	published := 0

	flush := func() error {
		if len(payloads) == 0 {
			return nil
		}
		if err := s.Queue.PublishBytes(payloads...); err != nil {
			return fmt.Errorf("publishing to %s after %d trips: %w", TripBroadcastQueue, published, err)
		}
		published += len(payloads)
		payloads = payloads[:0]
		return nil
	}

	for _, trip := range trips {
		if err := ctx.Err(); err != nil {
			return err
		}

		record, err := NewTripRecord(trip)
		if err != nil {
			return err
		}

		payload, err := json.Marshal(record)
		if err != nil {
			return err
		}
		payloads = append(payloads, payload)

		if len(payloads) == publishChunkSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}

	if err := flush(); err != nil {
		return err
	}

	log.Debug().Int("trips", published).Str("queue", TripBroadcastQueue).Msg("Published trips")

	return nil
}
