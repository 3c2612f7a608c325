package scheduler

import (
	"math/rand"
	"time"
)

const StrategyBulkRoundRobin = "bulk-round-robin"

// SchedulerContext carries everything one run needs. It is created per run and never shared.
type SchedulerContext struct {
	RunID    string
	Strategy string

	Location *time.Location
	Random   *rand.Rand
	Now      func() time.Time

	Slots SlotTable

	TripsPerDepotPerDay int
	AutoAssignCrew      bool
}

func NewSchedulerContext(runID string, seed int64, config Config) *SchedulerContext {
	return &SchedulerContext{
		RunID:               runID,
		Strategy:            StrategyBulkRoundRobin,
		Location:            config.Location,
		Random:              rand.New(rand.NewSource(seed)),
		Now:                 time.Now,
		Slots:               config.Slots,
		TripsPerDepotPerDay: DefaultTripsPerDepotPerDay,
		AutoAssignCrew:      true,
	}
}
