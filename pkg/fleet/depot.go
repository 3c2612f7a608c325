package fleet

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Depot struct {
	ID primitive.ObjectID `bson:"_id,omitempty" json:"id" groups:"basic"`

	DepotName string `bson:"depotName" json:"depotName" groups:"basic"`
	DepotCode string `bson:"depotCode" json:"depotCode" groups:"basic"`

	OperatingHours DepotOperatingHours `bson:"operatingHours,omitempty" json:"operatingHours" groups:"detailed"`
	Capacity       DepotCapacity       `bson:"capacity,omitempty" json:"capacity" groups:"detailed"`

	Status   string `bson:"status,omitempty" json:"status" groups:"basic"`
	IsActive bool   `bson:"isActive" json:"isActive" groups:"basic"`

	CreationDateTime     time.Time `bson:"createdAt,omitempty" json:"createdAt" groups:"detailed"`
	ModificationDateTime time.Time `bson:"updatedAt,omitempty" json:"updatedAt" groups:"detailed"`
}

type DepotOperatingHours struct {
	OpenTime  string `bson:"openTime,omitempty" json:"openTime"`
	CloseTime string `bson:"closeTime,omitempty" json:"closeTime"`
}

type DepotCapacity struct {
	TotalBuses       int `bson:"totalBuses" json:"totalBuses"`
	AvailableBuses   int `bson:"availableBuses" json:"availableBuses"`
	MaintenanceBuses int `bson:"maintenanceBuses" json:"maintenanceBuses"`
}

// Label is used in warnings and trip notes
func (d *Depot) Label() string {
	if d.DepotName != "" {
		return d.DepotName
	}
	if d.DepotCode != "" {
		return d.DepotCode
	}

	return d.ID.Hex()
}
