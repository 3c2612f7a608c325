package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc"
	"github.com/travigo/tripscheduler/pkg/fleet"
	"github.com/travigo/tripscheduler/pkg/util"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TripSink receives trips once they are persisted
type TripSink interface {
	Publish(ctx context.Context, trips []fleet.Trip) error
}

// RunRecorder keeps a history of completed run summaries
type RunRecorder interface {
	RecordRun(ctx context.Context, summary *GenerateSummary) error
}

type Engine struct {
	Config Config
	Store  Store

	Lock     RangeLock
	Sink     TripSink
	Recorder RunRecorder
	Metrics  *Metrics

	Now func() time.Time
}

func NewEngine(config Config, store Store) *Engine {
	return &Engine{
		Config: config,
		Store:  store,
		Lock:   &LocalRangeLock{TTL: config.LockTTL},
		Now:    time.Now,
	}
}

func (e *Engine) Loader() *Loader {
	return &Loader{Store: e.Store, OperableBusStatuses: e.Config.OperableBusStatuses}
}

func (e *Engine) Reporter() *Reporter {
	return &Reporter{Loader: e.Loader(), Trips: e.Store, Location: e.Config.Location, Now: e.Now}
}

// Plan is the in-memory result of loading, binding and building, before anything is written
type Plan struct {
	RunID     string
	Seed      int64
	Request   GenerateRequest
	Policy    DedupPolicy
	StartDate time.Time
	Dates     []time.Time
	Depots    []fleet.Depot
	Bind      *BindResult
	Drafts    []fleet.Trip
}

// rangeQuery selects the stored trips this run regenerates. Route and bus filters narrow
// it to the routes and buses of the ready depots so out-of-filter trips survive a clear.
func (p *Plan) rangeQuery() TripQuery {
	from := p.StartDate
	to := util.AddDays(p.StartDate, len(p.Dates))

	query := TripQuery{From: &from, To: &to}
	if len(p.Request.DepotIDs) > 0 {
		query.DepotIDs = []primitive.ObjectID{}
		for _, depot := range p.Depots {
			query.DepotIDs = append(query.DepotIDs, depot.ID)
		}
	}

	busFiltered := p.Request.BusFilter != "" && p.Request.AutoAssignBuses != nil && *p.Request.AutoAssignBuses
	if len(p.Request.RouteIDs) > 0 {
		query.RouteIDs = []primitive.ObjectID{}
	}
	if len(p.Request.BusIDs) > 0 || busFiltered {
		query.BusIDs = []primitive.ObjectID{}
	}

	for _, binding := range p.Bind.Schedulable() {
		if query.RouteIDs != nil {
			for _, route := range binding.Routes {
				query.RouteIDs = append(query.RouteIDs, route.ID)
			}
		}
		if query.BusIDs != nil {
			for _, bus := range binding.Buses {
				query.BusIDs = append(query.BusIDs, bus.ID)
			}
		}
	}

	return query
}

func (p *Plan) summaryInput(startedAt time.Time) summaryInput {
	return summaryInput{
		RunID:     p.RunID,
		StartDate: p.StartDate,
		Days:      len(p.Dates),
		TripsPer:  p.Request.TripsPerDepotPerDay,
		Depots:    len(p.Depots),
		Bind:      p.Bind,
		Drafts:    p.Drafts,
		Dedup:     DedupOutcome{Policy: p.Policy},
		DryRun:    p.Request.DryRun,
		StartedAt: startedAt,
		Write:     WriteResult{Errors: []BatchError{}, Persisted: []fleet.Trip{}},
	}
}

// Plan validates the request and drafts every trip of the run
func (e *Engine) Plan(ctx context.Context, request GenerateRequest) (*Plan, error) {
	if err := request.Validate(e.Config); err != nil {
		return nil, err
	}

	policy, err := ParseDedupPolicy(request.DedupPolicy)
	if err != nil {
		return nil, err
	}

	busFilter, err := CompileBusFilter(request.BusFilter)
	if err != nil {
		return nil, err
	}

	startDate := util.StartOfDay(e.Now(), e.Config.Location)
	if request.StartDate != "" {
		parsed, err := ParseDate(request.StartDate, e.Config.Location)
		if err != nil {
			return nil, err
		}
		startDate = util.StartOfDay(parsed, e.Config.Location)
	}

	seed := time.Now().UnixNano()
	if request.Seed != nil {
		seed = *request.Seed
	}

	plan := &Plan{
		RunID:     uuid.NewString(),
		Seed:      seed,
		Request:   request,
		Policy:    policy,
		StartDate: startDate,
	}
	for day := 0; day < request.DaysToSchedule; day++ {
		plan.Dates = append(plan.Dates, util.AddDays(startDate, day))
	}

	snapshot, err := e.Loader().Load(ctx, request.filter())
	if err != nil {
		return nil, err
	}
	if len(snapshot.Depots) == 0 {
		return nil, ErrNoActiveDepots
	}
	plan.Depots = snapshot.Depots

	if *request.AutoAssignBuses {
		if snapshot.Buses, err = FilterBuses(busFilter, snapshot.Buses); err != nil {
			return nil, err
		}
	}

	plan.Bind = Bind(snapshot)

	schedulerContext := NewSchedulerContext(plan.RunID, seed, e.Config)
	schedulerContext.Now = e.Now
	schedulerContext.TripsPerDepotPerDay = request.TripsPerDepotPerDay
	schedulerContext.AutoAssignCrew = *request.AutoAssignCrew

	builder := &Builder{Context: schedulerContext}
	ready := plan.Bind.Schedulable()

	plan.Drafts = []fleet.Trip{}
	for _, date := range plan.Dates {
		slots := schedulerContext.Slots.SlotsFor(date)

		for _, binding := range ready {
			trips, err := builder.BuildDepotDay(binding, date, slots, plan.Bind.Drivers, plan.Bind.Conductors)
			if err != nil {
				return nil, err
			}
			plan.Drafts = append(plan.Drafts, trips...)

			e.Metrics.TripsGenerated(binding.Depot.Label(), len(trips))
		}
	}

	log.Info().
		Str("run", plan.RunID).
		Int64("seed", seed).
		Str("start", startDate.Format("2006-01-02")).
		Int("days", len(plan.Dates)).
		Int("depots", len(ready)).
		Int("drafts", len(plan.Drafts)).
		Msg("Planned trip generation")

	return plan, nil
}

// Generate runs one full scheduling pass. Only configuration, resource and lock errors
// are returned; everything else ends up in the summary.
func (e *Engine) Generate(ctx context.Context, request GenerateRequest) (*GenerateSummary, error) {
	startedAt := e.Now()
	defer e.Metrics.RunFinished(startedAt)

	plan, err := e.Plan(ctx, request)
	if err != nil {
		return nil, err
	}

	input := plan.summaryInput(startedAt)

	if !plan.Request.DryRun {
		lease, err := e.Lock.Acquire(ctx, plan.Dates)
		if err != nil {
			return nil, err
		}
		defer func() {
			if err := lease.Release(context.WithoutCancel(ctx)); err != nil {
				log.Error().Err(err).Str("run", plan.RunID).Msg("Failed to release range lock")
			}
		}()
		stopRenewing := e.renewLease(ctx, lease, plan.RunID)
		defer stopRenewing()

		toWrite, outcome, err := ApplyDedup(ctx, e.Store, plan.Policy, plan.rangeQuery(), plan.Drafts)
		if err != nil {
			return nil, err
		}
		input.Dedup = outcome

		writer := &BatchWriter{
			Store:       e.Store,
			ChunkSize:   e.Config.BatchSize,
			Parallelism: e.Config.WriteParallelism,
			Metrics:     e.Metrics,
		}
		input.Write = writer.Write(ctx, toWrite)

		if e.Sink != nil && len(input.Write.Persisted) > 0 {
			if err := e.Sink.Publish(ctx, input.Write.Persisted); err != nil {
				log.Warn().Err(err).Str("run", plan.RunID).Msg("Trip broadcast failed")
				input.Warnings = append(input.Warnings, fmt.Sprintf("Trip broadcast failed: %v", err))
			}
		}
	}

	input.FinishedAt = e.Now()
	summary := Summarise(input)

	if e.Recorder != nil && !summary.DryRun {
		if err := e.Recorder.RecordRun(context.WithoutCancel(ctx), summary); err != nil {
			log.Warn().Err(err).Str("run", plan.RunID).Msg("Failed to record run summary")
		}
	}

	log.Info().
		Str("run", summary.RunID).
		Int("generated", summary.TotalGenerated).
		Int("inserted", summary.TotalInserted).
		Int("errors", len(summary.Errors)).
		Int("warnings", len(summary.Warnings)).
		Msg("Trip generation finished")

	return summary, nil
}

// renewLease extends the lease every third of the lock TTL until the returned stop func is called
func (e *Engine) renewLease(ctx context.Context, lease *Lease, runID string) func() {
	interval := e.Config.LockTTL / 3
	if interval <= 0 {
		return func() {}
	}

	renewCtx, cancel := context.WithCancel(ctx)
	var wg conc.WaitGroup
	wg.Go(func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-renewCtx.Done():
				return
			case <-ticker.C:
				if err := lease.Extend(renewCtx); err != nil && !errors.Is(err, context.Canceled) {
					log.Error().Err(err).Str("run", runID).Msg("Failed to extend range lock")
				}
			}
		}
	})

	return func() {
		cancel()
		wg.Wait()
	}
}

// Preview plans a run and summarises it as a dry run, returning the drafts alongside
func (e *Engine) Preview(ctx context.Context, request GenerateRequest) (*Plan, *GenerateSummary, error) {
	startedAt := e.Now()
	request.DryRun = true

	plan, err := e.Plan(ctx, request)
	if err != nil {
		return nil, nil, err
	}

	input := plan.summaryInput(startedAt)
	input.FinishedAt = e.Now()

	return plan, Summarise(input), nil
}

// Cleanup deletes trips by service date and status. It fails with ErrRunInProgress
// while a generation holds a lease.
func (e *Engine) Cleanup(ctx context.Context, request CleanupRequest) (int64, error) {
	if err := request.Validate(); err != nil {
		return 0, err
	}

	lease, err := e.Lock.AcquireCleanup(ctx)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err := lease.Release(context.WithoutCancel(ctx)); err != nil {
			log.Error().Err(err).Msg("Failed to release cleanup lock")
		}
	}()

	query := TripQuery{Status: request.Status}

	switch {
	case request.DeleteAll:
	case *request.DeleteFutureOnly:
		now := e.Now()
		query.From = &now
	case request.DeleteFromDate != "":
		from, err := ParseDate(request.DeleteFromDate, e.Config.Location)
		if err != nil {
			return 0, err
		}
		query.From = &from
	}

	deleted, err := e.Store.DeleteTrips(ctx, query)
	if err != nil {
		return 0, resourceUnavailable("trips", err)
	}

	log.Info().Int64("deleted", deleted).Bool("all", request.DeleteAll).Msg("Cleaned up trips")

	return deleted, nil
}

// TripsForDate lists the trips of one service date, optionally for one depot
func (e *Engine) TripsForDate(ctx context.Context, date time.Time, depotID *primitive.ObjectID) ([]fleet.Trip, error) {
	from := util.StartOfDay(date, e.Config.Location)
	to := util.AddDays(from, 1)

	query := TripQuery{From: &from, To: &to}
	if depotID != nil {
		query.DepotIDs = []primitive.ObjectID{*depotID}
	}

	trips, err := e.Store.FindTrips(ctx, query)
	if err != nil {
		return nil, resourceUnavailable("trips", err)
	}

	return trips, nil
}
