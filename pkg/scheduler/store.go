package scheduler

import (
	"context"
	"time"

	"github.com/travigo/tripscheduler/pkg/fleet"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ResourceStore is the read side used by the Loader. Every method only returns
// active records; an empty ids slice means no restriction.
type ResourceStore interface {
	FindDepots(ctx context.Context, ids []primitive.ObjectID) ([]fleet.Depot, error)
	FindRoutes(ctx context.Context, ids []primitive.ObjectID) ([]fleet.Route, error)
	// FindBuses returns buses in any of statuses, or every bus when statuses is empty
	FindBuses(ctx context.Context, statuses []fleet.BusStatus, ids []primitive.ObjectID) ([]fleet.Bus, error)
	FindCrew(ctx context.Context, role fleet.CrewRole) ([]fleet.CrewMember, error)
}

// TripQuery selects trips by service date range and status. A nil ids slice means
// no restriction; a non-nil empty slice matches nothing.
type TripQuery struct {
	From     *time.Time
	To       *time.Time
	Status   fleet.TripStatus
	DepotIDs []primitive.ObjectID
	RouteIDs []primitive.ObjectID
	BusIDs   []primitive.ObjectID
}

// RecordError is a failure on one record of an unordered insert
type RecordError struct {
	Index   int
	Code    int
	Message string
}

type TripStore interface {
	// InsertTrips performs one unordered insert. Record-level failures are
	// returned in the slice and do not stop the other records. A non-nil error
	// means the whole call failed.
	InsertTrips(ctx context.Context, trips []fleet.Trip) (int, []RecordError, error)
	DeleteTrips(ctx context.Context, query TripQuery) (int64, error)
	CountTrips(ctx context.Context, query TripQuery) (int64, error)
	FindTrips(ctx context.Context, query TripQuery) ([]fleet.Trip, error)
	ExistingTripKeys(ctx context.Context, query TripQuery) (map[string]struct{}, error)
}

// Store is what the Engine needs from persistence
type Store interface {
	ResourceStore
	TripStore
}
