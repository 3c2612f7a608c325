package scheduler

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"github.com/travigo/tripscheduler/pkg/fleet"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/exp/slices"
)

// memoryStore mirrors the Mongo store: unordered inserts with a unique
// (route, bus, date, start) index and the same active-record filters
type memoryStore struct {
	mutex sync.Mutex

	depots      []fleet.Depot
	routes      []fleet.Route
	buses       []fleet.Bus
	crew        []fleet.CrewMember
	trips       []fleet.Trip
	unavailable error

	insertCalls int
}

func uniqueTripKey(trip fleet.Trip) string {
	return trip.RouteID.Hex() + trip.BusID.Hex() + strconv.FormatInt(trip.ServiceDate.Unix(), 10) + trip.StartTime
}

func matchIDs(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	return len(ids) == 0 || slices.Contains(ids, id)
}

func (m *memoryStore) FindDepots(ctx context.Context, ids []primitive.ObjectID) ([]fleet.Depot, error) {
	if m.unavailable != nil {
		return nil, m.unavailable
	}
	depots := []fleet.Depot{}
	for _, depot := range m.depots {
		if depot.IsActive && matchIDs(ids, depot.ID) {
			depots = append(depots, depot)
		}
	}
	return depots, nil
}

func (m *memoryStore) FindRoutes(ctx context.Context, ids []primitive.ObjectID) ([]fleet.Route, error) {
	routes := []fleet.Route{}
	for _, route := range m.routes {
		if route.Status == "active" && matchIDs(ids, route.ID) {
			routes = append(routes, route)
		}
	}
	return routes, nil
}

func (m *memoryStore) FindBuses(ctx context.Context, statuses []fleet.BusStatus, ids []primitive.ObjectID) ([]fleet.Bus, error) {
	buses := []fleet.Bus{}
	for _, bus := range m.buses {
		if (len(statuses) == 0 || slices.Contains(statuses, bus.Status)) && matchIDs(ids, bus.ID) {
			buses = append(buses, bus)
		}
	}
	return buses, nil
}

func (m *memoryStore) FindCrew(ctx context.Context, role fleet.CrewRole) ([]fleet.CrewMember, error) {
	crew := []fleet.CrewMember{}
	for _, member := range m.crew {
		if member.Role == role && (member.IsActive || member.Status == "active") {
			crew = append(crew, member)
		}
	}
	return crew, nil
}

func (m *memoryStore) InsertTrips(ctx context.Context, trips []fleet.Trip) (int, []RecordError, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.insertCalls++
	if m.unavailable != nil {
		return 0, nil, m.unavailable
	}

	existing := map[string]bool{}
	for _, trip := range m.trips {
		existing[uniqueTripKey(trip)] = true
	}

	inserted := 0
	var recordErrors []RecordError
	for i, trip := range trips {
		key := uniqueTripKey(trip)
		if existing[key] {
			recordErrors = append(recordErrors, RecordError{Index: i, Code: 11000, Message: "E11000 duplicate key error"})
			continue
		}
		existing[key] = true
		m.trips = append(m.trips, trip)
		inserted++
	}

	return inserted, recordErrors, nil
}

func (m *memoryStore) matches(trip fleet.Trip, query TripQuery) bool {
	if query.From != nil && trip.ServiceDate.Before(*query.From) {
		return false
	}
	if query.To != nil && !trip.ServiceDate.Before(*query.To) {
		return false
	}
	if query.Status != "" && trip.Status != query.Status {
		return false
	}
	return matchScope(query.DepotIDs, trip.DepotID) &&
		matchScope(query.RouteIDs, trip.RouteID) &&
		matchScope(query.BusIDs, trip.BusID)
}

func matchScope(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	return ids == nil || slices.Contains(ids, id)
}

func (m *memoryStore) DeleteTrips(ctx context.Context, query TripQuery) (int64, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	var kept []fleet.Trip
	var deleted int64
	for _, trip := range m.trips {
		if m.matches(trip, query) {
			deleted++
			continue
		}
		kept = append(kept, trip)
	}
	m.trips = kept

	return deleted, nil
}

func (m *memoryStore) CountTrips(ctx context.Context, query TripQuery) (int64, error) {
	trips, err := m.FindTrips(ctx, query)
	return int64(len(trips)), err
}

func (m *memoryStore) FindTrips(ctx context.Context, query TripQuery) ([]fleet.Trip, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.unavailable != nil {
		return nil, m.unavailable
	}

	trips := []fleet.Trip{}
	for _, trip := range m.trips {
		if m.matches(trip, query) {
			trips = append(trips, trip)
		}
	}
	return trips, nil
}

func (m *memoryStore) ExistingTripKeys(ctx context.Context, query TripQuery) (map[string]struct{}, error) {
	trips, err := m.FindTrips(ctx, query)
	if err != nil {
		return nil, err
	}

	keys := map[string]struct{}{}
	for _, trip := range trips {
		keys[trip.DedupKey()] = struct{}{}
	}
	return keys, nil
}

var errStoreDown = errors.New("connection refused")

type fleetBuilder struct {
	store *memoryStore
}

func newFleet() *fleetBuilder {
	return &fleetBuilder{store: &memoryStore{}}
}

func (f *fleetBuilder) depot(name string) primitive.ObjectID {
	id := primitive.NewObjectID()
	f.store.depots = append(f.store.depots, fleet.Depot{ID: id, DepotName: name, DepotCode: name, IsActive: true})
	return id
}

func (f *fleetBuilder) bus(depotID primitive.ObjectID, seats int, busType string) primitive.ObjectID {
	id := primitive.NewObjectID()
	f.store.buses = append(f.store.buses, fleet.Bus{
		ID:        id,
		BusNumber: "BUS-" + id.Hex()[18:],
		DepotID:   depotID,
		Capacity:  fleet.BusCapacity{Total: seats},
		BusType:   busType,
		Status:    fleet.BusStatusActive,
	})
	return id
}

func (f *fleetBuilder) route(depotID primitive.ObjectID, baseFare float64, minutes int) primitive.ObjectID {
	id := primitive.NewObjectID()
	f.store.routes = append(f.store.routes, fleet.Route{
		ID:                id,
		RouteNumber:       "R-" + id.Hex()[18:],
		BaseFare:          baseFare,
		EstimatedDuration: minutes,
		Depot:             fleet.EmbeddedDepot{ID: depotID},
		Status:            "active",
	})
	return id
}

func (f *fleetBuilder) crew(role fleet.CrewRole, depotID primitive.ObjectID) primitive.ObjectID {
	id := primitive.NewObjectID()
	f.store.crew = append(f.store.crew, fleet.CrewMember{ID: id, Role: role, DepotID: depotID, IsActive: true})
	return id
}
