package scheduler

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"
	"github.com/travigo/tripscheduler/pkg/fleet"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/exp/slices"
)

type BatchError struct {
	Batch   int    `json:"batch"`
	DepotID string `json:"depotId,omitempty"`
	RouteID string `json:"routeId,omitempty"`
	Date    string `json:"date,omitempty"`
	Start   string `json:"startTime,omitempty"`
	Message string `json:"error"`
}

func (e BatchError) String() string {
	if e.RouteID == "" {
		return fmt.Sprintf("Batch %d: %s", e.Batch, e.Message)
	}

	return fmt.Sprintf("Batch %d: route %s on %s at %s: %s", e.Batch, e.RouteID, e.Date, e.Start, e.Message)
}

type WriteResult struct {
	Attempted int
	Inserted  int
	Batches   int
	Errors    []BatchError
	Persisted []fleet.Trip
	Cancelled bool
}

type BatchWriter struct {
	Store       TripStore
	ChunkSize   int
	Parallelism int
	Metrics     *Metrics
}

type chunkResult struct {
	batch     int
	attempted int
	inserted  int
	errors    []BatchError
	persisted []fleet.Trip
}

// Write inserts drafts chunk by chunk. Failures are collected, never returned.
// Once ctx is done no further chunk is started.
func (w *BatchWriter) Write(ctx context.Context, drafts []fleet.Trip) WriteResult {
	result := WriteResult{
		Errors:    []BatchError{},
		Persisted: []fleet.Trip{},
	}

	chunkSize := w.ChunkSize
	if chunkSize <= 0 {
		chunkSize = DefaultBatchSize
	}
	parallelism := max(w.Parallelism, 1)

	trips := make([]fleet.Trip, len(drafts))
	copy(trips, drafts)
	for i := range trips {
		if trips[i].ID.IsZero() {
			trips[i].ID = primitive.NewObjectID()
		}
	}

	p := pool.NewWithResults[chunkResult]()
	p.WithMaxGoroutines(parallelism)

	for start, batch := 0, 1; start < len(trips); start, batch = start+chunkSize, batch+1 {
		if ctx.Err() != nil {
			result.Cancelled = true
			break
		}

		chunk := trips[start:min(start+chunkSize, len(trips))]
		batchNumber := batch

		p.Go(func() chunkResult {
			return w.writeChunk(ctx, batchNumber, chunk)
		})
	}

	chunks := p.Wait()
	slices.SortFunc(chunks, func(a, b chunkResult) int {
		return a.batch - b.batch
	})
	for _, chunk := range chunks {
		if chunk.attempted == 0 {
			result.Cancelled = true
			continue
		}

		result.Batches++
		result.Attempted += chunk.attempted
		result.Inserted += chunk.inserted
		result.Errors = append(result.Errors, chunk.errors...)
		result.Persisted = append(result.Persisted, chunk.persisted...)
	}

	w.Metrics.TripsInserted(result.Inserted)
	w.Metrics.BatchErrors(len(result.Errors))

	log.Info().
		Int("attempted", result.Attempted).
		Int("inserted", result.Inserted).
		Int("batches", result.Batches).
		Int("errors", len(result.Errors)).
		Bool("cancelled", result.Cancelled).
		Msg("Batch write finished")

	return result
}

func (w *BatchWriter) writeChunk(ctx context.Context, batch int, chunk []fleet.Trip) chunkResult {
	if ctx.Err() != nil {
		return chunkResult{batch: batch}
	}

	outcome := chunkResult{batch: batch, attempted: len(chunk)}

	inserted, recordErrors, err := w.Store.InsertTrips(ctx, chunk)
	if err != nil {
		log.Error().Err(err).Int("batch", batch).Msg("Batch insert failed")

		outcome.errors = append(outcome.errors, BatchError{Batch: batch, Message: err.Error()})
		return outcome
	}

	outcome.inserted = inserted

	failed := map[int]bool{}
	for _, recordErr := range recordErrors {
		failed[recordErr.Index] = true

		batchErr := BatchError{Batch: batch, Message: recordErr.Message}
		if recordErr.Index >= 0 && recordErr.Index < len(chunk) {
			trip := chunk[recordErr.Index]
			batchErr.DepotID = trip.DepotID.Hex()
			batchErr.RouteID = trip.RouteID.Hex()
			batchErr.Date = trip.ServiceDate.Format("2006-01-02")
			batchErr.Start = trip.StartTime
		}
		outcome.errors = append(outcome.errors, batchErr)
	}

	for i, trip := range chunk {
		if !failed[i] {
			outcome.persisted = append(outcome.persisted, trip)
		}
	}

	if len(recordErrors) > 0 {
		log.Warn().Int("batch", batch).Int("failed", len(recordErrors)).Int("inserted", inserted).Msg("Batch had record errors")
	} else {
		log.Debug().Int("batch", batch).Int("inserted", inserted).Msg("Batch inserted")
	}

	return outcome
}
