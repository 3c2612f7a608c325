package scheduler

import (
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/travigo/tripscheduler/pkg/fleet"
	"github.com/travigo/tripscheduler/pkg/util"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var validate = validator.New()

type GenerateRequest struct {
	DaysToSchedule      int    `json:"daysToSchedule" validate:"gte=0"`
	TripsPerDepotPerDay int    `json:"tripsPerDepotPerDay" validate:"gte=0"`
	StartDate           string `json:"startDate,omitempty"`

	AutoAssignCrew  *bool `json:"autoAssignCrew,omitempty"`
	AutoAssignBuses *bool `json:"autoAssignBuses,omitempty"`

	DepotIDs []string `json:"depotIds,omitempty" validate:"dive,mongodb"`
	RouteIDs []string `json:"routeIds,omitempty" validate:"dive,mongodb"`
	BusIDs   []string `json:"busIds,omitempty" validate:"dive,mongodb"`

	DedupPolicy string `json:"dedupPolicy,omitempty" validate:"omitempty,oneof=clear-range skip-existing"`
	Seed        *int64 `json:"seed,omitempty"`
	BusFilter   string `json:"busFilter,omitempty"`
	DryRun      bool   `json:"dryRun,omitempty"`
}

// Validate fills defaults and rejects requests that must not start a run
func (r *GenerateRequest) Validate(config Config) error {
	if r.DaysToSchedule > MaxDaysToSchedule {
		return configErrorf("Cannot schedule more than %d days in advance", MaxDaysToSchedule)
	}

	if err := validate.Struct(r); err != nil {
		return validationError(err)
	}

	if r.DaysToSchedule == 0 {
		r.DaysToSchedule = DefaultDaysToSchedule
	}
	if r.TripsPerDepotPerDay == 0 {
		r.TripsPerDepotPerDay = DefaultTripsPerDepotPerDay
	}
	if r.DedupPolicy == "" {
		r.DedupPolicy = string(config.DedupPolicy)
	}
	if r.AutoAssignCrew == nil {
		assign := true
		r.AutoAssignCrew = &assign
	}
	if r.AutoAssignBuses == nil {
		assign := true
		r.AutoAssignBuses = &assign
	}

	return nil
}

func (r *GenerateRequest) filter() Filter {
	return Filter{
		DepotIDs: objectIDs(r.DepotIDs),
		RouteIDs: objectIDs(r.RouteIDs),
		BusIDs:   objectIDs(r.BusIDs),
	}
}

type CleanupRequest struct {
	DeleteAll        bool             `json:"deleteAll"`
	DeleteFutureOnly *bool            `json:"deleteFutureOnly,omitempty"`
	DeleteFromDate   string           `json:"deleteFromDate,omitempty"`
	Status           fleet.TripStatus `json:"status,omitempty" validate:"omitempty,oneof=scheduled running completed cancelled"`
	ConfirmCleanup   bool             `json:"confirmCleanup"`
}

func (r *CleanupRequest) Validate() error {
	if !r.ConfirmCleanup {
		return configErrorf("Cleanup requires confirmation. Set confirmCleanup: true")
	}

	if err := validate.Struct(r); err != nil {
		return validationError(err)
	}

	if r.DeleteFutureOnly == nil {
		futureOnly := true
		r.DeleteFutureOnly = &futureOnly
	}

	return nil
}

// ParseDate accepts a calendar date or an RFC 3339 timestamp
func ParseDate(value string, location *time.Location) (time.Time, error) {
	if date, err := time.ParseInLocation("2006-01-02", value, location); err == nil {
		return date, nil
	}

	date, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, configErrorf("Invalid date %q, expected YYYY-MM-DD", value)
	}

	return date.In(location), nil
}

func objectIDs(hexes []string) []primitive.ObjectID {
	var ids []primitive.ObjectID
	for _, hex := range util.RemoveDuplicateStrings(hexes, nil) {
		if id, err := primitive.ObjectIDFromHex(hex); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}

func validationError(err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return configErrorf("%v", err)
	}

	var messages []string
	for _, fieldErr := range validationErrors {
		messages = append(messages, fieldErr.Field()+" failed "+fieldErr.Tag()+" validation")
	}

	return configErrorf("Invalid request: %s", strings.Join(messages, ", "))
}
