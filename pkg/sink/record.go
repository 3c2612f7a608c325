package sink

import (
	"time"

	"github.com/jinzhu/copier"
	"github.com/travigo/tripscheduler/pkg/fleet"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TripRecord is the broadcast shape of a persisted trip. Identifiers are hex strings
// so consumers need no BSON awareness.
type TripRecord struct {
	ID          string `json:"id"`
	RouteID     string `json:"routeId"`
	BusID       string `json:"busId"`
	DepotID     string `json:"depotId"`
	DriverID    string `json:"driverId,omitempty"`
	ConductorID string `json:"conductorId,omitempty"`

	ServiceDate string `json:"serviceDate"`
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime"`

	Fare           float64 `json:"fare"`
	Capacity       int     `json:"capacity"`
	AvailableSeats int     `json:"availableSeats"`
	BookedSeats    int     `json:"bookedSeats"`

	Status      string `json:"status"`
	BookingOpen bool   `json:"bookingOpen"`

	DepotName string `json:"depotName"`
	RunID     string `json:"runId"`
}

var recordConverters = []copier.TypeConverter{
	{
		SrcType: primitive.ObjectID{},
		DstType: copier.String,
		Fn: func(src interface{}) (interface{}, error) {
			return src.(primitive.ObjectID).Hex(), nil
		},
	},
	{
		SrcType: &primitive.ObjectID{},
		DstType: copier.String,
		Fn: func(src interface{}) (interface{}, error) {
			id := src.(*primitive.ObjectID)
			if id == nil {
				return "", nil
			}
			return id.Hex(), nil
		},
	},
	{
		SrcType: time.Time{},
		DstType: copier.String,
		Fn: func(src interface{}) (interface{}, error) {
			return src.(time.Time).Format("2006-01-02"), nil
		},
	},
	{
		SrcType: fleet.TripStatus(""),
		DstType: copier.String,
		Fn: func(src interface{}) (interface{}, error) {
			return string(src.(fleet.TripStatus)), nil
		},
	},
}

func NewTripRecord(trip fleet.Trip) (TripRecord, error) {
	var record TripRecord
	if err := copier.CopyWithOption(&record, &trip, copier.Option{Converters: recordConverters}); err != nil {
		return record, err
	}

	record.DepotName = trip.Scheduling.DepotName
	record.RunID = trip.Scheduling.RunID

	return record, nil
}
