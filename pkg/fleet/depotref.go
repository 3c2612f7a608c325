package fleet

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DepotRef is how a Route points at its owning Depot. Historic route documents
// carry either an embedded depot object, a bare depot id, or nothing at all.
type DepotRef interface {
	DepotID() (primitive.ObjectID, bool)
	Kind() DepotRefKind
}

type DepotRefKind string

const (
	DepotRefEmbedded DepotRefKind = "embedded"
	DepotRefBareID   DepotRefKind = "bare-id"
	DepotRefNone     DepotRefKind = "none"
)

type EmbeddedDepot struct {
	ID   primitive.ObjectID `bson:"depotId,omitempty" json:"depotId"`
	Name string             `bson:"depotName,omitempty" json:"depotName"`
	Code string             `bson:"depotCode,omitempty" json:"depotCode"`
}

func (e EmbeddedDepot) DepotID() (primitive.ObjectID, bool) {
	return e.ID, !e.ID.IsZero()
}
func (e EmbeddedDepot) Kind() DepotRefKind { return DepotRefEmbedded }

type BareDepotID primitive.ObjectID

func (b BareDepotID) DepotID() (primitive.ObjectID, bool) {
	id := primitive.ObjectID(b)
	return id, !id.IsZero()
}
func (b BareDepotID) Kind() DepotRefKind { return DepotRefBareID }

type NoDepot struct{}

func (NoDepot) DepotID() (primitive.ObjectID, bool) { return primitive.NilObjectID, false }
func (NoDepot) Kind() DepotRefKind                  { return DepotRefNone }

// ResolveDepotRef tries the embedded depot document first (its depotId, then its own _id),
// then the bare depotId field, and falls back to NoDepot when none yields an id
func ResolveDepotRef(embedded bson.Raw, bareID bson.RawValue) DepotRef {
	if len(embedded) > 0 {
		for _, field := range []string{"depotId", "_id"} {
			value, err := embedded.LookupErr(field)
			if err != nil {
				continue
			}
			if id, ok := objectIDFromRawValue(value); ok {
				return EmbeddedDepot{
					ID:   id,
					Name: rawString(embedded, "depotName"),
					Code: rawString(embedded, "depotCode"),
				}
			}
		}
	}

	if id, ok := objectIDFromRawValue(bareID); ok {
		return BareDepotID(id)
	}

	return NoDepot{}
}

func rawString(document bson.Raw, key string) string {
	value, err := document.LookupErr(key)
	if err != nil {
		return ""
	}
	s, _ := value.StringValueOK()
	return s
}

func objectIDFromRawValue(value bson.RawValue) (primitive.ObjectID, bool) {
	switch value.Type {
	case bsontype.ObjectID:
		id, ok := value.ObjectIDOK()
		return id, ok && !id.IsZero()
	case bsontype.String:
		id, err := primitive.ObjectIDFromHex(value.StringValue())
		return id, err == nil
	case bsontype.EmbeddedDocument:
		// Populated references store the whole depot document
		idValue, err := value.Document().LookupErr("_id")
		if err != nil {
			return primitive.NilObjectID, false
		}
		return objectIDFromRawValue(idValue)
	}

	return primitive.NilObjectID, false
}
