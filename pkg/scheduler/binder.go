package scheduler

import (
	"fmt"

	"github.com/travigo/tripscheduler/pkg/fleet"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type DepotBinding struct {
	Depot  fleet.Depot
	Buses  []fleet.Bus
	Routes []fleet.Route

	ReadinessScore int
	Schedulable    bool
	Reason         string
}

type BindResult struct {
	Bindings []DepotBinding
	Warnings []string

	Drivers    []fleet.CrewMember
	Conductors []fleet.CrewMember
}

// Schedulable returns the bindings that may host trips, in depot order
func (b *BindResult) Schedulable() []DepotBinding {
	var ready []DepotBinding
	for _, binding := range b.Bindings {
		if binding.Schedulable {
			ready = append(ready, binding)
		}
	}
	return ready
}

// Bind groups buses and routes under their depots. Crew counts are global.
func Bind(snapshot *Snapshot) *BindResult {
	result := &BindResult{
		Warnings:   []string{},
		Drivers:    snapshot.Drivers,
		Conductors: snapshot.Conductors,
	}

	depotIndex := map[primitive.ObjectID]int{}
	for i, depot := range snapshot.Depots {
		depotIndex[depot.ID] = i
		result.Bindings = append(result.Bindings, DepotBinding{Depot: depot})
	}

	for _, bus := range snapshot.Buses {
		if i, exists := depotIndex[bus.DepotID]; exists {
			result.Bindings[i].Buses = append(result.Bindings[i].Buses, bus)
		}
	}

	for _, route := range snapshot.Routes {
		depotID, ok := route.ResolveDepot().DepotID()
		if !ok {
			result.Warnings = append(result.Warnings, fmt.Sprintf("Route %s has no depot binding", route.Label()))
			continue
		}

		i, exists := depotIndex[depotID]
		if !exists {
			result.Warnings = append(result.Warnings, fmt.Sprintf("Route %s references unknown or inactive depot %s", route.Label(), depotID.Hex()))
			continue
		}
		result.Bindings[i].Routes = append(result.Bindings[i].Routes, route)
	}

	if len(snapshot.Drivers) == 0 {
		result.Warnings = append(result.Warnings, "No active drivers found, trips will have no driver assigned")
	}
	if len(snapshot.Conductors) == 0 {
		result.Warnings = append(result.Warnings, "No active conductors found, trips will have no conductor assigned")
	}

	for i := range result.Bindings {
		binding := &result.Bindings[i]

		binding.ReadinessScore = min(len(binding.Buses), len(binding.Routes), len(snapshot.Drivers), len(snapshot.Conductors))
		binding.Schedulable = len(binding.Buses) > 0 && len(binding.Routes) > 0

		switch {
		case len(binding.Buses) == 0 && len(binding.Routes) == 0:
			binding.Reason = "no buses or routes"
		case len(binding.Buses) == 0:
			binding.Reason = "no buses"
		case len(binding.Routes) == 0:
			binding.Reason = "no routes"
		}

		if !binding.Schedulable {
			result.Warnings = append(result.Warnings, fmt.Sprintf("Depot %s skipped: %s", binding.Depot.Label(), binding.Reason))
		}
	}

	return result
}
