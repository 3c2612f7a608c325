package routes

import (
	"context"
	"sync"

	"github.com/travigo/tripscheduler/pkg/fleet"
	"github.com/travigo/tripscheduler/pkg/scheduler"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/exp/slices"
)

// fleetStore is a minimal in-memory scheduler.Store
type fleetStore struct {
	mutex sync.Mutex

	depots []fleet.Depot
	routes []fleet.Route
	buses  []fleet.Bus
	crew   []fleet.CrewMember
	trips  []fleet.Trip

	unavailable error
}

func inScope(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	return ids == nil || slices.Contains(ids, id)
}

func matchIDs(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	return len(ids) == 0 || slices.Contains(ids, id)
}

func (s *fleetStore) FindDepots(ctx context.Context, ids []primitive.ObjectID) ([]fleet.Depot, error) {
	if s.unavailable != nil {
		return nil, s.unavailable
	}
	depots := []fleet.Depot{}
	for _, depot := range s.depots {
		if matchIDs(ids, depot.ID) {
			depots = append(depots, depot)
		}
	}
	return depots, nil
}

func (s *fleetStore) FindRoutes(ctx context.Context, ids []primitive.ObjectID) ([]fleet.Route, error) {
	return s.routes, nil
}

func (s *fleetStore) FindBuses(ctx context.Context, statuses []fleet.BusStatus, ids []primitive.ObjectID) ([]fleet.Bus, error) {
	return s.buses, nil
}

func (s *fleetStore) FindCrew(ctx context.Context, role fleet.CrewRole) ([]fleet.CrewMember, error) {
	crew := []fleet.CrewMember{}
	for _, member := range s.crew {
		if member.Role == role {
			crew = append(crew, member)
		}
	}
	return crew, nil
}

func (s *fleetStore) InsertTrips(ctx context.Context, trips []fleet.Trip) (int, []scheduler.RecordError, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.trips = append(s.trips, trips...)
	return len(trips), nil, nil
}

func (s *fleetStore) matching(query scheduler.TripQuery) []fleet.Trip {
	trips := []fleet.Trip{}
	for _, trip := range s.trips {
		if query.From != nil && trip.ServiceDate.Before(*query.From) {
			continue
		}
		if query.To != nil && !trip.ServiceDate.Before(*query.To) {
			continue
		}
		if query.Status != "" && trip.Status != query.Status {
			continue
		}
		if !inScope(query.DepotIDs, trip.DepotID) || !inScope(query.RouteIDs, trip.RouteID) || !inScope(query.BusIDs, trip.BusID) {
			continue
		}
		trips = append(trips, trip)
	}
	return trips
}

func (s *fleetStore) DeleteTrips(ctx context.Context, query scheduler.TripQuery) (int64, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	doomed := s.matching(query)
	kept := []fleet.Trip{}
	for _, trip := range s.trips {
		if !slices.ContainsFunc(doomed, func(d fleet.Trip) bool { return d.ID == trip.ID }) {
			kept = append(kept, trip)
		}
	}
	s.trips = kept

	return int64(len(doomed)), nil
}

func (s *fleetStore) CountTrips(ctx context.Context, query scheduler.TripQuery) (int64, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	return int64(len(s.matching(query))), nil
}

func (s *fleetStore) FindTrips(ctx context.Context, query scheduler.TripQuery) ([]fleet.Trip, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	return s.matching(query), nil
}

func (s *fleetStore) ExistingTripKeys(ctx context.Context, query scheduler.TripQuery) (map[string]struct{}, error) {
	keys := map[string]struct{}{}
	trips, _ := s.FindTrips(ctx, query)
	for _, trip := range trips {
		keys[trip.DedupKey()] = struct{}{}
	}
	return keys, nil
}

// oneDepotStore holds a depot with two buses, one route and one crew member of each role
func oneDepotStore() (*fleetStore, primitive.ObjectID) {
	depotID := primitive.NewObjectID()

	store := &fleetStore{
		depots: []fleet.Depot{{ID: depotID, DepotName: "Aluva", DepotCode: "ALV", IsActive: true}},
		routes: []fleet.Route{{
			ID:                primitive.NewObjectID(),
			RouteNumber:       "KL-101",
			BaseFare:          200,
			EstimatedDuration: 180,
			Depot:             fleet.EmbeddedDepot{ID: depotID},
			Status:            "active",
		}},
		crew: []fleet.CrewMember{
			{ID: primitive.NewObjectID(), Role: fleet.CrewRoleDriver, DepotID: depotID, IsActive: true},
			{ID: primitive.NewObjectID(), Role: fleet.CrewRoleConductor, DepotID: depotID, IsActive: true},
		},
	}
	for i := 0; i < 2; i++ {
		store.buses = append(store.buses, fleet.Bus{
			ID:       primitive.NewObjectID(),
			DepotID:  depotID,
			Capacity: fleet.BusCapacity{Total: 42},
			Status:   fleet.BusStatusActive,
		})
	}

	return store, depotID
}
