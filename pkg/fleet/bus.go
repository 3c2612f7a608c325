package fleet

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const DefaultBusCapacity = 50

type BusStatus string

const (
	BusStatusActive      BusStatus = "active"
	BusStatusIdle        BusStatus = "idle"
	BusStatusAssigned    BusStatus = "assigned"
	BusStatusMaintenance BusStatus = "maintenance"
	BusStatusRetired     BusStatus = "retired"
)

type Bus struct {
	ID primitive.ObjectID `bson:"_id,omitempty" json:"id"`

	BusNumber          string `bson:"busNumber" json:"busNumber"`
	RegistrationNumber string `bson:"registrationNumber,omitempty" json:"registrationNumber"`

	DepotID primitive.ObjectID `bson:"depotId" json:"depotId"`

	Capacity BusCapacity `bson:"capacity,omitempty" json:"capacity"`
	BusType  string      `bson:"busType,omitempty" json:"busType"`
	Status   BusStatus   `bson:"status" json:"status"`

	CreationDateTime time.Time `bson:"createdAt,omitempty" json:"createdAt"`
}

type BusCapacity struct {
	Total   int `bson:"total" json:"total"`
	Sleeper int `bson:"sleeper,omitempty" json:"sleeper"`
	Seater  int `bson:"seater,omitempty" json:"seater"`
}

func (b *Bus) SeatCapacity() int {
	if b.Capacity.Total > 0 {
		return b.Capacity.Total
	}

	return DefaultBusCapacity
}
