package fleet

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const DefaultRouteDurationMinutes = 180

type Route struct {
	ID primitive.ObjectID `bson:"_id,omitempty" json:"id" groups:"basic"`

	RouteNumber string `bson:"routeNumber" json:"routeNumber" groups:"basic"`
	RouteName   string `bson:"routeName" json:"routeName" groups:"basic"`

	StartingPoint     RoutePoint  `bson:"startingPoint,omitempty" json:"startingPoint" groups:"basic"`
	EndingPoint       RoutePoint  `bson:"endingPoint,omitempty" json:"endingPoint" groups:"basic"`
	IntermediateStops []RouteStop `bson:"intermediateStops,omitempty" json:"intermediateStops" groups:"detailed"`

	TotalDistance     float64 `bson:"totalDistance,omitempty" json:"totalDistance" groups:"detailed"`
	EstimatedDuration int     `bson:"estimatedDuration,omitempty" json:"estimatedDuration" groups:"detailed"`
	Duration          int     `bson:"duration,omitempty" json:"duration,omitempty" groups:"internal"`

	BaseFare  float64 `bson:"baseFare,omitempty" json:"baseFare" groups:"detailed"`
	FarePerKm float64 `bson:"farePerKm,omitempty" json:"farePerKm" groups:"detailed"`

	RawDepot   bson.Raw      `bson:"depot,omitempty" json:"-"`
	RawDepotID bson.RawValue `bson:"depotId,omitempty" json:"-"`
	Depot      DepotRef      `bson:"-" json:"-"`

	Status   string `bson:"status" json:"status" groups:"basic"`
	IsActive bool   `bson:"isActive" json:"isActive" groups:"basic"`

	CreationDateTime time.Time `bson:"createdAt,omitempty" json:"createdAt" groups:"detailed"`
}

type RoutePoint struct {
	City     string `bson:"city,omitempty" json:"city"`
	Location string `bson:"location,omitempty" json:"location"`
}

type RouteStop struct {
	Name      string  `bson:"name" json:"name"`
	StopOrder int     `bson:"stopOrder" json:"stopOrder"`
	Distance  float64 `bson:"distanceFromStart,omitempty" json:"distanceFromStart"`
}

// ResolveDepot fills Depot from the raw document fields when it has not been set directly
func (r *Route) ResolveDepot() DepotRef {
	if r.Depot == nil {
		r.Depot = ResolveDepotRef(r.RawDepot, r.RawDepotID)
	}

	return r.Depot
}

// DurationMinutes prefers estimatedDuration, then the legacy duration field
func (r *Route) DurationMinutes() int {
	if r.EstimatedDuration > 0 {
		return r.EstimatedDuration
	}
	if r.Duration > 0 {
		return r.Duration
	}

	return DefaultRouteDurationMinutes
}

func (r *Route) Label() string {
	if r.RouteNumber != "" {
		return r.RouteNumber
	}

	return r.ID.Hex()
}
