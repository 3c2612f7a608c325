package scheduler

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/travigo/tripscheduler/pkg/fleet"
	"github.com/travigo/tripscheduler/pkg/util"
)

type DedupOutcome struct {
	Policy  DedupPolicy
	Deleted int64
	Skipped int
}

// ApplyDedup runs exactly one policy over the target range and returns the drafts to write.
// The input slice is never modified.
func ApplyDedup(ctx context.Context, store TripStore, policy DedupPolicy, target TripQuery, drafts []fleet.Trip) ([]fleet.Trip, DedupOutcome, error) {
	outcome := DedupOutcome{Policy: policy}

	switch policy {
	case DedupClearRange:
		target.Status = fleet.TripStatusScheduled

		deleted, err := store.DeleteTrips(ctx, target)
		if err != nil {
			return nil, outcome, resourceUnavailable("existing trips", err)
		}
		outcome.Deleted = deleted

		log.Info().Int64("deleted", deleted).Msg("Cleared scheduled trips in target range")

		return drafts, outcome, nil
	case DedupSkipExisting:
		// Existing keys ignore the bus, so a bus scope would hide clashing trips
		target.BusIDs = nil

		existing, err := store.ExistingTripKeys(ctx, target)
		if err != nil {
			return nil, outcome, resourceUnavailable("existing trips", err)
		}

		remaining := make([]fleet.Trip, len(drafts))
		copy(remaining, drafts)
		util.InPlaceFilter(&remaining, func(trip fleet.Trip) bool {
			_, exists := existing[trip.DedupKey()]
			return !exists
		})
		outcome.Skipped = len(drafts) - len(remaining)

		log.Info().Int("skipped", outcome.Skipped).Msg("Skipped drafts matching existing trips")

		return remaining, outcome, nil
	}

	return nil, outcome, configErrorf("Unknown dedup policy %q", policy)
}
