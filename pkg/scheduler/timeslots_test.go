package scheduler

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSlotTable(t *testing.T) {
	table := DefaultSlotTable()

	require.Len(t, table.Default, 33)
	assert.Equal(t, "06:00", table.Default[0])
	assert.Equal(t, "06:30", table.Default[1])
	assert.Equal(t, "22:00", table.Default[32])

	assert.NoError(t, table.Validate())
}

func TestSlotsForDayOfWeek(t *testing.T) {
	table := DefaultSlotTable()
	saturday := time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC)
	monday := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, table.Default, table.SlotsFor(saturday))

	table.DayOfWeekSensitive = true
	weekend := table.SlotsFor(saturday)
	weekday := table.SlotsFor(monday)

	assert.Len(t, weekend, 13)
	assert.Equal(t, "08:00", weekend[1])
	assert.Len(t, weekday, 29)
	assert.Equal(t, "06:30", weekday[1])
}

func TestSlotRange(t *testing.T) {
	slots, err := SlotRange("23:00", "23:45", 15)
	require.NoError(t, err)
	assert.Equal(t, []string{"23:00", "23:15", "23:30", "23:45"}, slots)

	_, err = SlotRange("10:00", "09:00", 15)
	assert.ErrorIs(t, err, ErrInvalidConfiguration)

	_, err = SlotRange("10:00", "11:00", 0)
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}

func TestParseAndFormatClock(t *testing.T) {
	minutes, err := ParseClock("07:45")
	require.NoError(t, err)
	assert.Equal(t, 465, minutes)

	for _, bad := range []string{"", "7:45", "07-45", "24:00", "12:60", "ab:cd"} {
		_, err := ParseClock(bad)
		assert.Error(t, err, bad)
	}

	assert.Equal(t, "00:00", FormatClock(1440))
	assert.Equal(t, "23:59", FormatClock(-1))
}

func writeSlotFile(t *testing.T, contents string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "slots.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	return path
}

func TestLoadSlotTable(t *testing.T) {
	path := writeSlotFile(t, `
dayOfWeekSensitive: true
weekday:
  start: "05:00"
  end: "07:00"
  every: PT1H
weekend:
  slots: ["09:00", "15:00"]
`)

	table, err := LoadSlotTable(path)
	require.NoError(t, err)

	assert.True(t, table.DayOfWeekSensitive)
	assert.Equal(t, []string{"05:00", "06:00", "07:00"}, table.Weekday)
	assert.Equal(t, []string{"09:00", "15:00"}, table.Weekend)
	assert.Equal(t, DefaultSlotTable().Default, table.Default)
}

func TestLoadSlotTableRejectsBadInput(t *testing.T) {
	_, err := LoadSlotTable(writeSlotFile(t, "default:\n  slots: [\"6am\"]\n"))
	assert.ErrorIs(t, err, ErrInvalidConfiguration)

	_, err = LoadSlotTable(writeSlotFile(t, "default:\n  start: \"06:00\"\n  end: \"07:00\"\n  every: thirty\n"))
	assert.ErrorIs(t, err, ErrInvalidConfiguration)

	_, err = LoadSlotTable(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}
