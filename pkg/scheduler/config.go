package scheduler

import (
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/travigo/tripscheduler/pkg/fleet"
	"github.com/travigo/tripscheduler/pkg/util"
)

type DedupPolicy string

const (
	// DedupClearRange deletes scheduled trips in the target range before inserting
	DedupClearRange DedupPolicy = "clear-range"
	// DedupSkipExisting drops drafts whose route, date and start time already exist
	DedupSkipExisting DedupPolicy = "skip-existing"
)

func ParseDedupPolicy(value string) (DedupPolicy, error) {
	switch DedupPolicy(strings.ToLower(strings.TrimSpace(value))) {
	case DedupClearRange, "clear", "clearrange":
		return DedupClearRange, nil
	case DedupSkipExisting, "skip", "skipexisting":
		return DedupSkipExisting, nil
	}

	return "", configErrorf("Unknown dedup policy %q, expected %s or %s", value, DedupClearRange, DedupSkipExisting)
}

const (
	DefaultDaysToSchedule      = 30
	DefaultTripsPerDepotPerDay = 20
	MaxDaysToSchedule          = 365
	DefaultBatchSize           = 100
	DefaultLockTTL             = 30 * time.Minute
	DefaultTimezone            = "Asia/Kolkata"
)

var DefaultOperableBusStatuses = []fleet.BusStatus{fleet.BusStatusActive, fleet.BusStatusAssigned}

type Config struct {
	Location *time.Location
	Slots    SlotTable

	BatchSize        int
	WriteParallelism int

	DedupPolicy         DedupPolicy
	OperableBusStatuses []fleet.BusStatus

	TargetTripsPerDepotPerDay int
	TargetDaysToSchedule      int

	LockTTL time.Duration
}

func DefaultConfig() Config {
	location, err := time.LoadLocation(DefaultTimezone)
	if err != nil {
		location = time.UTC
	}

	return Config{
		Location:                  location,
		Slots:                     DefaultSlotTable(),
		BatchSize:                 DefaultBatchSize,
		WriteParallelism:          1,
		DedupPolicy:               DedupClearRange,
		OperableBusStatuses:       DefaultOperableBusStatuses,
		TargetTripsPerDepotPerDay: DefaultTripsPerDepotPerDay,
		TargetDaysToSchedule:      DefaultDaysToSchedule,
		LockTTL:                   DefaultLockTTL,
	}
}

func ConfigFromEnvironment() (Config, error) {
	config := DefaultConfig()
	env := util.GetEnvironmentVariables()

	if env["TRIPSCHEDULER_TIMEZONE"] != "" {
		location, err := time.LoadLocation(env["TRIPSCHEDULER_TIMEZONE"])
		if err != nil {
			return config, configErrorf("Invalid TRIPSCHEDULER_TIMEZONE: %v", err)
		}
		config.Location = location
	}

	if env["TRIPSCHEDULER_TIMESLOTS_FILE"] != "" {
		slots, err := LoadSlotTable(env["TRIPSCHEDULER_TIMESLOTS_FILE"])
		if err != nil {
			return config, err
		}
		config.Slots = slots
	}

	if env["TRIPSCHEDULER_DEDUP_POLICY"] != "" {
		policy, err := ParseDedupPolicy(env["TRIPSCHEDULER_DEDUP_POLICY"])
		if err != nil {
			return config, err
		}
		config.DedupPolicy = policy
	}

	if env["TRIPSCHEDULER_BUS_STATUSES"] != "" {
		config.OperableBusStatuses = nil
		for _, status := range strings.Split(env["TRIPSCHEDULER_BUS_STATUSES"], ",") {
			config.OperableBusStatuses = append(config.OperableBusStatuses, fleet.BusStatus(strings.TrimSpace(status)))
		}
	}

	config.BatchSize = util.EnvInt(env, "TRIPSCHEDULER_BATCH_SIZE", config.BatchSize)
	config.WriteParallelism = util.EnvInt(env, "TRIPSCHEDULER_WRITE_PARALLELISM", config.WriteParallelism)
	config.TargetTripsPerDepotPerDay = util.EnvInt(env, "TRIPSCHEDULER_TARGET_TRIPS_PER_DEPOT", config.TargetTripsPerDepotPerDay)
	config.TargetDaysToSchedule = util.EnvInt(env, "TRIPSCHEDULER_TARGET_DAYS", config.TargetDaysToSchedule)
	config.LockTTL = util.EnvDuration(env, "TRIPSCHEDULER_LOCK_TTL", config.LockTTL)

	if config.BatchSize <= 0 {
		return config, configErrorf("TRIPSCHEDULER_BATCH_SIZE must be positive")
	}
	if config.WriteParallelism <= 0 {
		config.WriteParallelism = 1
	}

	log.Debug().
		Str("timezone", config.Location.String()).
		Str("dedupPolicy", string(config.DedupPolicy)).
		Int("batchSize", config.BatchSize).
		Int("writeParallelism", config.WriteParallelism).
		Msg("Loaded scheduler configuration")

	return config, nil
}
