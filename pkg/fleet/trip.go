package fleet

import (
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TripStatus string

const (
	TripStatusScheduled TripStatus = "scheduled"
	TripStatusRunning   TripStatus = "running"
	TripStatusCompleted TripStatus = "completed"
	TripStatusCancelled TripStatus = "cancelled"
)

type Trip struct {
	ID primitive.ObjectID `bson:"_id,omitempty" json:"id" groups:"basic"`

	RouteID     primitive.ObjectID  `bson:"routeId" json:"routeId" groups:"basic"`
	BusID       primitive.ObjectID  `bson:"busId" json:"busId" groups:"basic"`
	DepotID     primitive.ObjectID  `bson:"depotId" json:"depotId" groups:"basic"`
	DriverID    *primitive.ObjectID `bson:"driverId,omitempty" json:"driverId,omitempty" groups:"detailed"`
	ConductorID *primitive.ObjectID `bson:"conductorId,omitempty" json:"conductorId,omitempty" groups:"detailed"`

	ServiceDate time.Time `bson:"serviceDate" json:"serviceDate" groups:"basic"`
	StartTime   string    `bson:"startTime" json:"startTime" groups:"basic"`
	EndTime     string    `bson:"endTime" json:"endTime" groups:"basic"`

	Fare float64 `bson:"fare" json:"fare" groups:"basic"`

	Capacity       int `bson:"capacity" json:"capacity" groups:"basic"`
	AvailableSeats int `bson:"availableSeats" json:"availableSeats" groups:"basic"`
	BookedSeats    int `bson:"bookedSeats" json:"bookedSeats" groups:"basic"`

	Status      TripStatus `bson:"status" json:"status" groups:"basic"`
	BookingOpen bool       `bson:"bookingOpen" json:"bookingOpen" groups:"basic"`

	CancellationPolicy CancellationPolicy `bson:"cancellationPolicy" json:"cancellationPolicy" groups:"detailed"`

	Notes      string         `bson:"notes,omitempty" json:"notes,omitempty" groups:"detailed"`
	Scheduling TripScheduling `bson:"scheduling" json:"scheduling" groups:"detailed"`

	CreationDateTime     time.Time `bson:"createdAt" json:"createdAt" groups:"detailed"`
	ModificationDateTime time.Time `bson:"updatedAt" json:"updatedAt" groups:"detailed"`
}

type CancellationPolicy struct {
	Allowed              bool `bson:"allowed" json:"allowed" groups:"detailed"`
	HoursBeforeDeparture int  `bson:"hoursBeforeDeparture" json:"hoursBeforeDeparture" groups:"detailed"`
	RefundPercentage     int  `bson:"refundPercentage" json:"refundPercentage" groups:"detailed"`
}

var DefaultCancellationPolicy = CancellationPolicy{
	Allowed:              true,
	HoursBeforeDeparture: 2,
	RefundPercentage:     80,
}

// TripScheduling records how the trip came to exist
type TripScheduling struct {
	DepotName string `bson:"depotName" json:"depotName" groups:"detailed"`
	DayOfWeek string `bson:"dayOfWeek" json:"dayOfWeek" groups:"detailed"`
	Strategy  string `bson:"strategy" json:"strategy" groups:"detailed"`
	RunID     string `bson:"runId" json:"runId" groups:"detailed"`
	Slot      int    `bson:"slot" json:"slot" groups:"detailed"`
}

// SeatsConsistent reports whether 0 <= booked <= available <= capacity
func (t *Trip) SeatsConsistent() bool {
	return t.BookedSeats >= 0 && t.BookedSeats <= t.AvailableSeats && t.AvailableSeats <= t.Capacity
}

// DedupKey identifies a trip for the skip-existing policy. The service date is
// compared as an instant so stored UTC values match local-midnight drafts.
func (t *Trip) DedupKey() string {
	return t.RouteID.Hex() + "|" + strconv.FormatInt(t.ServiceDate.Unix(), 10) + "|" + t.StartTime
}
