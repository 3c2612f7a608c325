package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travigo/tripscheduler/pkg/fleet"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestBindGroupsResourcesByDepot(t *testing.T) {
	f := newFleet()
	ready := f.depot("Kozhikode")
	noBuses := f.depot("Kannur")
	noRoutes := f.depot("Palakkad")

	f.bus(ready, 40, "")
	f.bus(ready, 40, "")
	f.bus(noRoutes, 40, "")
	f.route(ready, 100, 60)
	f.route(noBuses, 100, 60)
	f.crew(fleet.CrewRoleDriver, ready)

	result := Bind(&Snapshot{
		Depots:  f.store.depots,
		Routes:  f.store.routes,
		Buses:   f.store.buses,
		Drivers: f.store.crew,
	})

	require.Len(t, result.Bindings, 3)

	assert.Len(t, result.Bindings[0].Buses, 2)
	assert.Len(t, result.Bindings[0].Routes, 1)
	assert.True(t, result.Bindings[0].Schedulable)
	assert.Equal(t, 0, result.Bindings[0].ReadinessScore, "no conductors anywhere")

	assert.False(t, result.Bindings[1].Schedulable)
	assert.Equal(t, "no buses", result.Bindings[1].Reason)
	assert.False(t, result.Bindings[2].Schedulable)
	assert.Equal(t, "no routes", result.Bindings[2].Reason)

	schedulable := result.Schedulable()
	require.Len(t, schedulable, 1)
	assert.Equal(t, ready, schedulable[0].Depot.ID)

	assert.Contains(t, result.Warnings, "Depot Kannur skipped: no buses")
	assert.Contains(t, result.Warnings, "Depot Palakkad skipped: no routes")
	assert.Contains(t, result.Warnings, "No active conductors found, trips will have no conductor assigned")
}

func TestBindReadinessScoreUsesGlobalCrew(t *testing.T) {
	f := newFleet()
	depot := f.depot("Kollam")
	other := f.depot("Alappuzha")
	for i := 0; i < 3; i++ {
		f.bus(depot, 40, "")
		f.route(depot, 100, 60)
	}

	result := Bind(&Snapshot{
		Depots:     f.store.depots,
		Routes:     f.store.routes,
		Buses:      f.store.buses,
		Drivers:    testCrew(fleet.CrewRoleDriver, 2),
		Conductors: []fleet.CrewMember{{ID: primitive.NewObjectID(), DepotID: other}, {ID: primitive.NewObjectID()}, {ID: primitive.NewObjectID()}, {ID: primitive.NewObjectID()}},
	})

	assert.Equal(t, 2, result.Bindings[0].ReadinessScore)
}

func TestBindWarnsOnUnboundRoutes(t *testing.T) {
	f := newFleet()
	depot := f.depot("Kasaragod")
	f.bus(depot, 40, "")

	result := Bind(&Snapshot{
		Depots: f.store.depots,
		Buses:  f.store.buses,
		Routes: []fleet.Route{
			{ID: primitive.NewObjectID(), RouteNumber: "ORPHAN", Depot: fleet.NoDepot{}},
			{ID: primitive.NewObjectID(), RouteNumber: "ELSEWHERE", Depot: fleet.BareDepotID(primitive.NewObjectID())},
		},
	})

	assert.False(t, result.Bindings[0].Schedulable)
	assert.Contains(t, result.Warnings, "Route ORPHAN has no depot binding")
	assert.Len(t, result.Warnings, 5)
}

func TestBindResolvesBareDepotID(t *testing.T) {
	f := newFleet()
	depot := f.depot("Idukki")
	f.bus(depot, 40, "")

	result := Bind(&Snapshot{
		Depots: f.store.depots,
		Buses:  f.store.buses,
		Routes: []fleet.Route{{ID: primitive.NewObjectID(), Depot: fleet.BareDepotID(depot)}},
	})

	assert.True(t, result.Bindings[0].Schedulable)
}
