package scheduler

import (
	"context"
	"math"
	"time"

	"github.com/travigo/tripscheduler/pkg/fleet"
	"github.com/travigo/tripscheduler/pkg/util"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/exp/slices"
)

type StatusReport struct {
	Current   CurrentStatus   `json:"current"`
	Target    TargetStatus    `json:"target"`
	Readiness ReadinessStatus `json:"readiness"`
}

type CurrentStatus struct {
	TotalTrips      int64 `json:"totalTrips"`
	TodayTrips      int64 `json:"todayTrips"`
	TotalDepots     int   `json:"totalDepots"`
	DepotsWithBuses int   `json:"depotsWithBuses"`
	TotalRoutes     int   `json:"totalRoutes"`
	RoutesWithStops int   `json:"routesWithStops"`
	TotalBuses      int   `json:"totalBuses"`
	ActiveBuses     int   `json:"activeBuses"`
	AssignedBuses   int   `json:"assignedBuses"`
}

type TargetStatus struct {
	TripsPerDepotPerDay  int `json:"tripsPerDepotPerDay"`
	DaysToSchedule       int `json:"daysToSchedule"`
	TotalTrips           int `json:"totalTrips"`
	CompletionPercentage int `json:"completionPercentage"`
}

type ReadinessStatus struct {
	HasDepots     bool `json:"hasDepots"`
	HasRoutes     bool `json:"hasRoutes"`
	HasBuses      bool `json:"hasBuses"`
	HasDrivers    bool `json:"hasDrivers"`
	HasConductors bool `json:"hasConductors"`
}

type DepotReadiness struct {
	DepotID        primitive.ObjectID `json:"depotId"`
	DepotName      string             `json:"depotName"`
	DepotCode      string             `json:"depotCode"`
	Buses          int                `json:"buses"`
	Routes         int                `json:"routes"`
	Drivers        int                `json:"drivers"`
	Conductors     int                `json:"conductors"`
	ReadinessScore int                `json:"readinessScore"`
	CanSchedule    bool               `json:"canSchedule"`
	MaxTripsPerDay int                `json:"maxTripsPerDay"`
}

type DepotBreakdown struct {
	DepotID        string `json:"depotId"`
	DepotName      string `json:"depotName"`
	TotalGenerated int    `json:"totalGenerated"`
	TotalInserted  int    `json:"totalInserted"`
	Errors         int    `json:"errors"`
}

type GenerateSummary struct {
	RunID           string           `json:"runId"`
	StartDate       string           `json:"startDate"`
	TotalGenerated  int              `json:"totalGenerated"`
	TotalInserted   int              `json:"totalInserted"`
	DaysScheduled   int              `json:"daysScheduled"`
	DepotsProcessed int              `json:"depotsProcessed"`
	SuccessRate     int              `json:"successRate"`
	DepotBreakdown  []DepotBreakdown `json:"depotBreakdown"`
	Errors          []string         `json:"errors"`
	Warnings        []string         `json:"warnings"`
	DedupPolicy     DedupPolicy      `json:"dedupPolicy"`
	Deleted         int64            `json:"deleted"`
	Skipped         int              `json:"skipped"`
	Cancelled       bool             `json:"cancelled"`
	DryRun          bool             `json:"dryRun"`
	DurationSeconds float64          `json:"durationSeconds"`
}

// Percentage rounds 100*part/whole, returning 0 for an empty whole
func Percentage(part int64, whole int64) int {
	if whole <= 0 {
		return 0
	}

	return int(math.Round(float64(part) / float64(whole) * 100))
}

type StatusTargets struct {
	TripsPerDepotPerDay int
	DaysToSchedule      int
}

// BuildStatus aggregates an inventory snapshot, in which buses carry every status, with trip counts
func BuildStatus(inventory *Snapshot, totalTrips int64, todayTrips int64, targets StatusTargets) *StatusReport {
	report := &StatusReport{}

	depotsWithBuses := map[primitive.ObjectID]bool{}
	for _, bus := range inventory.Buses {
		depotsWithBuses[bus.DepotID] = true

		switch bus.Status {
		case fleet.BusStatusActive:
			report.Current.ActiveBuses++
		case fleet.BusStatusAssigned:
			report.Current.AssignedBuses++
		}
	}

	for _, depot := range inventory.Depots {
		if depotsWithBuses[depot.ID] {
			report.Current.DepotsWithBuses++
		}
	}

	for _, route := range inventory.Routes {
		if len(route.IntermediateStops) > 0 {
			report.Current.RoutesWithStops++
		}
	}

	report.Current.TotalTrips = totalTrips
	report.Current.TodayTrips = todayTrips
	report.Current.TotalDepots = len(inventory.Depots)
	report.Current.TotalRoutes = len(inventory.Routes)
	report.Current.TotalBuses = len(inventory.Buses)

	targetTotal := len(inventory.Depots) * targets.TripsPerDepotPerDay * targets.DaysToSchedule
	report.Target = TargetStatus{
		TripsPerDepotPerDay:  targets.TripsPerDepotPerDay,
		DaysToSchedule:       targets.DaysToSchedule,
		TotalTrips:           targetTotal,
		CompletionPercentage: Percentage(totalTrips, int64(targetTotal)),
	}

	report.Readiness = ReadinessStatus{
		HasDepots:     len(inventory.Depots) > 0,
		HasRoutes:     len(inventory.Routes) > 0,
		HasBuses:      len(inventory.Buses) > 0,
		HasDrivers:    len(inventory.Drivers) > 0,
		HasConductors: len(inventory.Conductors) > 0,
	}

	return report
}

// AnalyseDepots counts operable buses, routes and depot-bound crew per depot, most ready first
func AnalyseDepots(inventory *Snapshot, operable []fleet.BusStatus) []DepotReadiness {
	analysis := []DepotReadiness{}
	index := map[primitive.ObjectID]int{}

	for _, depot := range inventory.Depots {
		index[depot.ID] = len(analysis)
		analysis = append(analysis, DepotReadiness{
			DepotID:   depot.ID,
			DepotName: depot.DepotName,
			DepotCode: depot.DepotCode,
		})
	}

	for _, bus := range inventory.Buses {
		if i, exists := index[bus.DepotID]; exists && (len(operable) == 0 || slices.Contains(operable, bus.Status)) {
			analysis[i].Buses++
		}
	}
	for i := range inventory.Routes {
		depotID, ok := inventory.Routes[i].ResolveDepot().DepotID()
		if j, exists := index[depotID]; ok && exists {
			analysis[j].Routes++
		}
	}
	for _, driver := range inventory.Drivers {
		if i, exists := index[driver.DepotID]; exists {
			analysis[i].Drivers++
		}
	}
	for _, conductor := range inventory.Conductors {
		if i, exists := index[conductor.DepotID]; exists {
			analysis[i].Conductors++
		}
	}

	for i := range analysis {
		depot := &analysis[i]
		depot.ReadinessScore = min(depot.Buses, depot.Routes, depot.Drivers, depot.Conductors)
		depot.CanSchedule = depot.ReadinessScore > 0
		depot.MaxTripsPerDay = min(depot.Buses*2, depot.Routes*3, depot.Drivers*2, depot.Conductors*2)
	}

	slices.SortStableFunc(analysis, func(a, b DepotReadiness) int {
		return b.ReadinessScore - a.ReadinessScore
	})

	return analysis
}

type Reporter struct {
	Loader   *Loader
	Trips    TripStore
	Location *time.Location
	Now      func() time.Time
}

func (r *Reporter) Status(ctx context.Context, targets StatusTargets) (*StatusReport, error) {
	inventory, err := r.Loader.Inventory(ctx)
	if err != nil {
		return nil, err
	}

	totalTrips, err := r.Trips.CountTrips(ctx, TripQuery{})
	if err != nil {
		return nil, resourceUnavailable("trip count", err)
	}

	today := util.StartOfDay(r.now(), r.Location)
	tomorrow := util.AddDays(today, 1)
	todayTrips, err := r.Trips.CountTrips(ctx, TripQuery{From: &today, To: &tomorrow})
	if err != nil {
		return nil, resourceUnavailable("trip count", err)
	}

	return BuildStatus(inventory, totalTrips, todayTrips, targets), nil
}

func (r *Reporter) DepotAnalysis(ctx context.Context) ([]DepotReadiness, error) {
	inventory, err := r.Loader.Inventory(ctx)
	if err != nil {
		return nil, err
	}

	return AnalyseDepots(inventory, r.Loader.OperableBusStatuses), nil
}

func (r *Reporter) now() time.Time {
	if r.Now == nil {
		return time.Now()
	}
	return r.Now()
}

type summaryInput struct {
	RunID      string
	StartDate  time.Time
	Days       int
	TripsPer   int
	Depots     int
	Bind       *BindResult
	Drafts     []fleet.Trip
	Dedup      DedupOutcome
	Write      WriteResult
	Warnings   []string
	DryRun     bool
	StartedAt  time.Time
	FinishedAt time.Time
}

// Summarise never returns nil slices so callers always see errors and warnings arrays
func Summarise(input summaryInput) *GenerateSummary {
	summary := &GenerateSummary{
		RunID:           input.RunID,
		StartDate:       input.StartDate.Format("2006-01-02"),
		TotalGenerated:  len(input.Drafts),
		TotalInserted:   input.Write.Inserted,
		DaysScheduled:   input.Days,
		DepotsProcessed: input.Depots,
		SuccessRate:     Percentage(int64(len(input.Drafts)), int64(input.Depots*input.Days*input.TripsPer)),
		DepotBreakdown:  []DepotBreakdown{},
		Errors:          []string{},
		Warnings:        []string{},
		DedupPolicy:     input.Dedup.Policy,
		Deleted:         input.Dedup.Deleted,
		Skipped:         input.Dedup.Skipped,
		Cancelled:       input.Write.Cancelled,
		DryRun:          input.DryRun,
		DurationSeconds: input.FinishedAt.Sub(input.StartedAt).Seconds(),
	}

	breakdownIndex := map[primitive.ObjectID]int{}
	if input.Bind != nil {
		for _, binding := range input.Bind.Bindings {
			if !binding.Schedulable {
				continue
			}
			breakdownIndex[binding.Depot.ID] = len(summary.DepotBreakdown)
			summary.DepotBreakdown = append(summary.DepotBreakdown, DepotBreakdown{
				DepotID:   binding.Depot.ID.Hex(),
				DepotName: binding.Depot.Label(),
			})
		}
		summary.Warnings = append(summary.Warnings, input.Bind.Warnings...)
	}

	for _, trip := range input.Drafts {
		if i, exists := breakdownIndex[trip.DepotID]; exists {
			summary.DepotBreakdown[i].TotalGenerated++
		}
	}
	for _, trip := range input.Write.Persisted {
		if i, exists := breakdownIndex[trip.DepotID]; exists {
			summary.DepotBreakdown[i].TotalInserted++
		}
	}
	for _, batchErr := range input.Write.Errors {
		summary.Errors = append(summary.Errors, batchErr.String())

		if depotID, err := primitive.ObjectIDFromHex(batchErr.DepotID); err == nil {
			if i, exists := breakdownIndex[depotID]; exists {
				summary.DepotBreakdown[i].Errors++
			}
		}
	}

	summary.Warnings = append(summary.Warnings, input.Warnings...)
	if input.Write.Cancelled {
		summary.Warnings = append(summary.Warnings, "Run cancelled before all batches were written")
	}

	return summary
}
