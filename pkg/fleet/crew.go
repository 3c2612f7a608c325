package fleet

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CrewRole string

const (
	CrewRoleDriver    CrewRole = "driver"
	CrewRoleConductor CrewRole = "conductor"
)

// CrewMember is a driver or conductor user record
type CrewMember struct {
	ID primitive.ObjectID `bson:"_id,omitempty" json:"id"`

	Name string   `bson:"name" json:"name"`
	Role CrewRole `bson:"role" json:"role"`

	DepotID primitive.ObjectID `bson:"depotId,omitempty" json:"depotId,omitempty"`

	Status   string `bson:"status,omitempty" json:"status"`
	IsActive bool   `bson:"isActive" json:"isActive"`
}
