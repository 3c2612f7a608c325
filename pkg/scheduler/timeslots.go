package scheduler

import (
	"fmt"
	"os"
	"strconv"
	"time"

	iso8601 "github.com/senseyeio/duration"
	"github.com/travigo/tripscheduler/pkg/util"
	"gopkg.in/yaml.v3"
)

const minutesPerDay = 24 * 60

// SlotTable is the ordered set of candidate departure times for a day
type SlotTable struct {
	DayOfWeekSensitive bool

	Default []string
	Weekday []string
	Weekend []string
}

// SlotsFor returns the departure slots for date. The returned slice must not be modified.
func (s SlotTable) SlotsFor(date time.Time) []string {
	if !s.DayOfWeekSensitive {
		return s.Default
	}

	if util.IsWeekend(date) {
		return s.Weekend
	}

	return s.Weekday
}

func (s SlotTable) Validate() error {
	tables := map[string][]string{"default": s.Default}
	if s.DayOfWeekSensitive {
		tables = map[string][]string{"weekday": s.Weekday, "weekend": s.Weekend}
	}

	for name, slots := range tables {
		if len(slots) == 0 {
			return configErrorf("Time slot table %s is empty", name)
		}

		for _, slot := range slots {
			if _, err := ParseClock(slot); err != nil {
				return configErrorf("Time slot table %s: %v", name, err)
			}
		}
	}

	return nil
}

func DefaultSlotTable() SlotTable {
	return SlotTable{
		Default: mustSlotRange("06:00", "22:00", 30),
		Weekday: mustSlotRange("06:00", "20:00", 30),
		Weekend: mustSlotRange("07:00", "19:00", 60),
	}
}

// SlotRange lists every clock time from start to end inclusive, stepping by stepMinutes
func SlotRange(start string, end string, stepMinutes int) ([]string, error) {
	if stepMinutes <= 0 {
		return nil, configErrorf("Slot interval must be positive")
	}

	startMinutes, err := ParseClock(start)
	if err != nil {
		return nil, err
	}
	endMinutes, err := ParseClock(end)
	if err != nil {
		return nil, err
	}
	if endMinutes < startMinutes {
		return nil, configErrorf("Slot range end %s is before start %s", end, start)
	}

	var slots []string
	for minute := startMinutes; minute <= endMinutes; minute += stepMinutes {
		slots = append(slots, FormatClock(minute))
	}

	return slots, nil
}

func mustSlotRange(start string, end string, stepMinutes int) []string {
	slots, err := SlotRange(start, end, stepMinutes)
	if err != nil {
		panic(err)
	}

	return slots
}

type slotTableFile struct {
	DayOfWeekSensitive bool               `yaml:"dayOfWeekSensitive"`
	Default            *slotTableFileList `yaml:"default"`
	Weekday            *slotTableFileList `yaml:"weekday"`
	Weekend            *slotTableFileList `yaml:"weekend"`
}

type slotTableFileList struct {
	Slots []string `yaml:"slots"`
	Start string   `yaml:"start"`
	End   string   `yaml:"end"`
	Every string   `yaml:"every"`
}

func (l *slotTableFileList) resolve(fallback []string) ([]string, error) {
	if l == nil {
		return fallback, nil
	}

	if len(l.Slots) > 0 {
		return l.Slots, nil
	}

	every, err := iso8601.ParseISO8601(l.Every)
	if err != nil {
		return nil, configErrorf("Invalid slot interval %q: %v", l.Every, err)
	}

	base := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	step := every.Shift(base).Sub(base)

	return SlotRange(l.Start, l.End, int(step.Minutes()))
}

// LoadSlotTable reads a YAML slot table. Lists missing from the file keep their defaults.
func LoadSlotTable(path string) (SlotTable, error) {
	table := DefaultSlotTable()

	contents, err := os.ReadFile(path)
	if err != nil {
		return table, configErrorf("Reading time slot file %s: %v", path, err)
	}

	var file slotTableFile
	if err := yaml.Unmarshal(contents, &file); err != nil {
		return table, configErrorf("Parsing time slot file %s: %v", path, err)
	}

	table.DayOfWeekSensitive = file.DayOfWeekSensitive

	if table.Default, err = file.Default.resolve(table.Default); err != nil {
		return table, err
	}
	if table.Weekday, err = file.Weekday.resolve(table.Weekday); err != nil {
		return table, err
	}
	if table.Weekend, err = file.Weekend.resolve(table.Weekend); err != nil {
		return table, err
	}

	return table, table.Validate()
}

// ParseClock parses HH:MM into minutes since midnight
func ParseClock(clock string) (int, error) {
	if len(clock) != 5 || clock[2] != ':' {
		return 0, fmt.Errorf("invalid clock time %q", clock)
	}
	for _, position := range []int{0, 1, 3, 4} {
		if clock[position] < '0' || clock[position] > '9' {
			return 0, fmt.Errorf("invalid clock time %q", clock)
		}
	}

	hours, _ := strconv.Atoi(clock[:2])
	minutes, _ := strconv.Atoi(clock[3:])

	if hours > 23 || minutes > 59 {
		return 0, fmt.Errorf("invalid clock time %q", clock)
	}

	return hours*60 + minutes, nil
}

// FormatClock renders minutes since midnight as HH:MM, wrapping at 24 hours
func FormatClock(minutes int) string {
	minutes = ((minutes % minutesPerDay) + minutesPerDay) % minutesPerDay

	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
