package scheduler

import (
	"fmt"
	"math"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/travigo/tripscheduler/pkg/fleet"
	"github.com/travigo/tripscheduler/pkg/util"
)

const DefaultBusTypeFare = 250

var BusTypeFares = map[string]float64{
	"ac_sleeper":     500,
	"ac_seater":      300,
	"non_ac_sleeper": 400,
	"non_ac_seater":  200,
	"volvo":          600,
	"mini":           150,
}

// ComputeEndTime adds minutes to an HH:MM clock, wrapping past midnight
func ComputeEndTime(start string, minutes int) (string, error) {
	startMinutes, err := ParseClock(start)
	if err != nil {
		return "", err
	}

	return FormatClock(startMinutes + minutes), nil
}

// ComputeFare applies the base fare, then the distance fare, then the bus type table
func ComputeFare(route *fleet.Route, bus *fleet.Bus) float64 {
	if route.BaseFare > 0 {
		return route.BaseFare
	}

	if route.TotalDistance > 0 && route.FarePerKm > 0 {
		return math.Round(route.TotalDistance * route.FarePerKm)
	}

	if fare, exists := BusTypeFares[bus.BusType]; exists {
		return fare
	}

	return DefaultBusTypeFare
}

// CompileBusFilter compiles a boolean expression evaluated against each fleet.Bus,
// e.g. `BusType == "volvo" && Capacity.Total >= 40`
func CompileBusFilter(source string) (*vm.Program, error) {
	if source == "" {
		return nil, nil
	}

	program, err := expr.Compile(source, expr.Env(fleet.Bus{}), expr.AsBool())
	if err != nil {
		return nil, configErrorf("Invalid bus filter: %v", err)
	}

	return program, nil
}

func FilterBuses(program *vm.Program, buses []fleet.Bus) ([]fleet.Bus, error) {
	if program == nil {
		return buses, nil
	}

	filtered := []fleet.Bus{}
	for _, bus := range buses {
		output, err := expr.Run(program, bus)
		if err != nil {
			return nil, configErrorf("Evaluating bus filter on %s: %v", bus.BusNumber, err)
		}
		if output.(bool) {
			filtered = append(filtered, bus)
		}
	}

	return filtered, nil
}

type Builder struct {
	Context *SchedulerContext
}

// BuildDepotDay drafts the trips of one ready depot on one service date.
// Every resource pool is shuffled once and walked with its own cursor.
func (b *Builder) BuildDepotDay(binding DepotBinding, date time.Time, slots []string, drivers []fleet.CrewMember, conductors []fleet.CrewMember) ([]fleet.Trip, error) {
	if !binding.Schedulable {
		return nil, nil
	}

	n := min(b.Context.TripsPerDepotPerDay, len(binding.Buses), len(slots))
	if n <= 0 {
		return nil, nil
	}

	random := b.Context.Random
	buses := util.Shuffled(binding.Buses, random)
	routes := util.Shuffled(binding.Routes, random)
	shuffledDrivers := util.Shuffled(drivers, random)
	shuffledConductors := util.Shuffled(conductors, random)

	now := b.Context.Now()
	depotLabel := binding.Depot.Label()

	trips := make([]fleet.Trip, 0, n)
	for slot := 0; slot < n; slot++ {
		route := routes[slot%len(routes)]
		bus := buses[slot%len(buses)]

		endTime, err := ComputeEndTime(slots[slot], route.DurationMinutes())
		if err != nil {
			return nil, configErrorf("Time slot %d for %s on %s: %v", slot, depotLabel, date.Format("2006-01-02"), err)
		}

		capacity := bus.SeatCapacity()

		trip := fleet.Trip{
			RouteID:     route.ID,
			BusID:       bus.ID,
			DepotID:     binding.Depot.ID,
			ServiceDate: date,
			StartTime:   slots[slot],
			EndTime:     endTime,

			Fare: ComputeFare(&route, &bus),

			Capacity:       capacity,
			AvailableSeats: capacity,
			BookedSeats:    0,

			Status:             fleet.TripStatusScheduled,
			BookingOpen:        true,
			CancellationPolicy: fleet.DefaultCancellationPolicy,

			Notes: fmt.Sprintf("Auto-generated trip for %s", depotLabel),
			Scheduling: fleet.TripScheduling{
				DepotName: depotLabel,
				DayOfWeek: date.Weekday().String(),
				Strategy:  b.Context.Strategy,
				RunID:     b.Context.RunID,
				Slot:      slot,
			},

			CreationDateTime:     now,
			ModificationDateTime: now,
		}

		if b.Context.AutoAssignCrew {
			if len(shuffledDrivers) > 0 {
				id := shuffledDrivers[slot%len(shuffledDrivers)].ID
				trip.DriverID = &id
			}
			if len(shuffledConductors) > 0 {
				id := shuffledConductors[slot%len(shuffledConductors)].ID
				trip.ConductorID = &id
			}
		}

		trips = append(trips, trip)
	}

	return trips, nil
}
