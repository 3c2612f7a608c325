package scheduler

import (
	"io"

	"github.com/gocarina/gocsv"
	"github.com/travigo/tripscheduler/pkg/fleet"
)

type tripCSVRow struct {
	ServiceDate    string  `csv:"service_date"`
	DayOfWeek      string  `csv:"day_of_week"`
	Depot          string  `csv:"depot"`
	DepotID        string  `csv:"depot_id"`
	RouteID        string  `csv:"route_id"`
	BusID          string  `csv:"bus_id"`
	DriverID       string  `csv:"driver_id"`
	ConductorID    string  `csv:"conductor_id"`
	StartTime      string  `csv:"start_time"`
	EndTime        string  `csv:"end_time"`
	Fare           float64 `csv:"fare"`
	Capacity       int     `csv:"capacity"`
	AvailableSeats int     `csv:"available_seats"`
	Status         string  `csv:"status"`
}

// ExportCSV writes one row per trip with a header line
func ExportCSV(writer io.Writer, trips []fleet.Trip) error {
	rows := make([]*tripCSVRow, 0, len(trips))

	for _, trip := range trips {
		row := &tripCSVRow{
			ServiceDate:    trip.ServiceDate.Format("2006-01-02"),
			DayOfWeek:      trip.Scheduling.DayOfWeek,
			Depot:          trip.Scheduling.DepotName,
			DepotID:        trip.DepotID.Hex(),
			RouteID:        trip.RouteID.Hex(),
			BusID:          trip.BusID.Hex(),
			StartTime:      trip.StartTime,
			EndTime:        trip.EndTime,
			Fare:           trip.Fare,
			Capacity:       trip.Capacity,
			AvailableSeats: trip.AvailableSeats,
			Status:         string(trip.Status),
		}
		if trip.DriverID != nil {
			row.DriverID = trip.DriverID.Hex()
		}
		if trip.ConductorID != nil {
			row.ConductorID = trip.ConductorID.Hex()
		}

		rows = append(rows, row)
	}

	return gocsv.Marshal(rows, writer)
}
