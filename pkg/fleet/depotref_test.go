package fleet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func decodeRoute(t *testing.T, document bson.M) Route {
	t.Helper()

	raw, err := bson.Marshal(document)
	require.NoError(t, err)

	var route Route
	require.NoError(t, bson.Unmarshal(raw, &route))

	return route
}

func TestResolveDepotEmbeddedObject(t *testing.T) {
	depotID := primitive.NewObjectID()
	otherID := primitive.NewObjectID()

	route := decodeRoute(t, bson.M{
		"routeNumber": "KL-01",
		"depot":       bson.M{"depotId": depotID, "depotName": "Kottayam"},
		"depotId":     otherID,
	})

	ref := route.ResolveDepot()
	id, ok := ref.DepotID()

	assert.True(t, ok)
	assert.Equal(t, depotID, id)
	assert.Equal(t, DepotRefEmbedded, ref.Kind())
}

func TestResolveDepotBareID(t *testing.T) {
	depotID := primitive.NewObjectID()

	route := decodeRoute(t, bson.M{"routeNumber": "KL-02", "depotId": depotID})

	ref := route.ResolveDepot()
	id, ok := ref.DepotID()

	assert.True(t, ok)
	assert.Equal(t, depotID, id)
	assert.Equal(t, DepotRefBareID, ref.Kind())
}

func TestResolveDepotBareHexString(t *testing.T) {
	depotID := primitive.NewObjectID()

	route := decodeRoute(t, bson.M{"routeNumber": "KL-03", "depotId": depotID.Hex()})

	id, ok := route.ResolveDepot().DepotID()

	assert.True(t, ok)
	assert.Equal(t, depotID, id)
}

func TestResolveDepotEmbeddedWithoutIDFallsBackToBare(t *testing.T) {
	depotID := primitive.NewObjectID()

	route := decodeRoute(t, bson.M{
		"routeNumber": "KL-04",
		"depot":       bson.M{"depotName": "Aluva"},
		"depotId":     depotID,
	})

	ref := route.ResolveDepot()

	assert.Equal(t, DepotRefBareID, ref.Kind())
}

func TestResolveDepotPopulatedReference(t *testing.T) {
	depotID := primitive.NewObjectID()

	route := decodeRoute(t, bson.M{
		"routeNumber": "KL-05",
		"depot":       bson.M{"depotId": bson.M{"_id": depotID, "depotName": "Ernakulam"}},
	})

	id, ok := route.ResolveDepot().DepotID()

	assert.True(t, ok)
	assert.Equal(t, depotID, id)
}

func TestResolveDepotEmbeddedObjectID(t *testing.T) {
	depotID := primitive.NewObjectID()
	otherID := primitive.NewObjectID()

	route := decodeRoute(t, bson.M{
		"routeNumber": "KL-07",
		"depot":       bson.M{"_id": depotID, "depotName": "Muvattupuzha", "depotCode": "MVP"},
		"depotId":     otherID,
	})

	ref := route.ResolveDepot()
	id, ok := ref.DepotID()

	assert.True(t, ok)
	assert.Equal(t, depotID, id)
	assert.Equal(t, DepotRefEmbedded, ref.Kind())
	assert.Equal(t, EmbeddedDepot{ID: depotID, Name: "Muvattupuzha", Code: "MVP"}, ref)
}

func TestResolveDepotNone(t *testing.T) {
	route := decodeRoute(t, bson.M{"routeNumber": "KL-06"})

	ref := route.ResolveDepot()
	_, ok := ref.DepotID()

	assert.False(t, ok)
	assert.Equal(t, DepotRefNone, ref.Kind())
}

func TestRouteDurationFallbacks(t *testing.T) {
	assert.Equal(t, 90, (&Route{EstimatedDuration: 90, Duration: 120}).DurationMinutes())
	assert.Equal(t, 120, (&Route{Duration: 120}).DurationMinutes())
	assert.Equal(t, DefaultRouteDurationMinutes, (&Route{}).DurationMinutes())
}

func TestTripSeatsConsistent(t *testing.T) {
	assert.True(t, (&Trip{Capacity: 40, AvailableSeats: 40}).SeatsConsistent())
	assert.False(t, (&Trip{Capacity: 40, AvailableSeats: 41}).SeatsConsistent())
	assert.False(t, (&Trip{Capacity: 40, AvailableSeats: 10, BookedSeats: 11}).SeatsConsistent())
}
