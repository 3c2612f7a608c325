package scheduler

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/travigo/tripscheduler/pkg/fleet"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Snapshot is the read-only resource universe for one run
type Snapshot struct {
	Depots     []fleet.Depot
	Routes     []fleet.Route
	Buses      []fleet.Bus
	Drivers    []fleet.CrewMember
	Conductors []fleet.CrewMember
}

type Filter struct {
	DepotIDs []primitive.ObjectID
	RouteIDs []primitive.ObjectID
	BusIDs   []primitive.ObjectID
}

type Loader struct {
	Store               ResourceStore
	OperableBusStatuses []fleet.BusStatus
}

func (l *Loader) Load(ctx context.Context, filter Filter) (*Snapshot, error) {
	return l.load(ctx, filter, l.OperableBusStatuses)
}

// Inventory loads every bus regardless of status, for reporting
func (l *Loader) Inventory(ctx context.Context) (*Snapshot, error) {
	return l.load(ctx, Filter{}, nil)
}

func (l *Loader) load(ctx context.Context, filter Filter, busStatuses []fleet.BusStatus) (*Snapshot, error) {
	var err error
	snapshot := &Snapshot{}

	if snapshot.Depots, err = l.Store.FindDepots(ctx, filter.DepotIDs); err != nil {
		return nil, resourceUnavailable("depots", err)
	}
	if snapshot.Routes, err = l.Store.FindRoutes(ctx, filter.RouteIDs); err != nil {
		return nil, resourceUnavailable("routes", err)
	}
	if snapshot.Buses, err = l.Store.FindBuses(ctx, busStatuses, filter.BusIDs); err != nil {
		return nil, resourceUnavailable("buses", err)
	}
	if snapshot.Drivers, err = l.Store.FindCrew(ctx, fleet.CrewRoleDriver); err != nil {
		return nil, resourceUnavailable("drivers", err)
	}
	if snapshot.Conductors, err = l.Store.FindCrew(ctx, fleet.CrewRoleConductor); err != nil {
		return nil, resourceUnavailable("conductors", err)
	}

	for i := range snapshot.Routes {
		snapshot.Routes[i].ResolveDepot()
	}

	log.Info().
		Int("depots", len(snapshot.Depots)).
		Int("routes", len(snapshot.Routes)).
		Int("buses", len(snapshot.Buses)).
		Int("drivers", len(snapshot.Drivers)).
		Int("conductors", len(snapshot.Conductors)).
		Msg("Loaded scheduling resources")

	return snapshot, nil
}
