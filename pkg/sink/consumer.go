package sink

import (
	"encoding/json"

	"github.com/adjust/rmq/v5"
	"github.com/rs/zerolog/log"
)

// LoggingConsumer drains the broadcast queue and logs each trip, for checking
// what downstream listeners receive
type LoggingConsumer struct {
	Received func(TripRecord)
}

func NewLoggingConsumer() *LoggingConsumer {
	return &LoggingConsumer{}
}

func (c *LoggingConsumer) Consume(batch rmq.Deliveries) {
	payloads := batch.Payloads()

	for _, payload := range payloads {
		var record TripRecord
		if err := json.Unmarshal([]byte(payload), &record); err != nil {
			log.Error().Err(err).Msg("Failed to decode trip record")
			continue
		}

		log.Info().
			Str("trip", record.ID).
			Str("depot", record.DepotName).
			Str("date", record.ServiceDate).
			Str("start", record.StartTime).
			Str("run", record.RunID).
			Msg("Trip broadcast")

		if c.Received != nil {
			c.Received(record)
		}
	}

	if ackErrors := batch.Ack(); len(ackErrors) > 0 {
		for _, err := range ackErrors {
			log.Error().Err(err).Msg("Failed to acknowledge trip broadcast")
		}
	}
}
