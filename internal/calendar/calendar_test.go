package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDay0IsThe21stOfThePriorMonth(t *testing.T) {
	cal := New(2025, time.August, 31)
	d := cal.Day(0)
	assert.Equal(t, 2025, d.Date.Year())
	assert.Equal(t, time.July, d.Date.Month())
	assert.Equal(t, 21, d.Date.Day())
}

func TestProgramAssignment(t *testing.T) {
	cal := New(2025, time.August, 31)
	for _, d := range cal.Days() {
		switch {
		case d.IsHoliday, d.Weekday == time.Thursday, d.Weekday == time.Sunday:
			assert.Equalf(t, ProgramB, d.Program, "day %d (%s)", d.Index, d.Weekday)
		case d.Weekday == time.Saturday:
			assert.Equalf(t, ProgramC, d.Program, "day %d (%s)", d.Index, d.Weekday)
		default:
			assert.Equalf(t, ProgramA, d.Program, "day %d (%s)", d.Index, d.Weekday)
		}
	}
}

func TestFixedDateHolidays2025(t *testing.T) {
	cal := New(2025, time.August, 31)
	cases := map[string]bool{
		"2025-01-01": true,
		"2025-02-11": true,
		"2025-05-03": true,
		"2025-05-05": true,
	}
	// None of these dates fall inside the Jul 21 - Aug 20 window, so check
	// the precomputed holiday table (which covers 2024-2026) directly.
	for date, want := range cases {
		d, err := time.Parse("2006-01-02", date)
		require.NoError(t, err)
		_, isHoliday := cal.holidays[keyOf(d)]
		assert.Equal(t, want, isHoliday, date)
	}
}

func TestHappyMondayComingOfAgeDay(t *testing.T) {
	// Coming of age day is the 2nd Monday of January.
	got := nthWeekday(2025, time.January, time.Monday, 2)
	require.Equal(t, time.January, got.Month())
	assert.Equal(t, time.Monday, got.Weekday())
	assert.True(t, got.Day() > 7 && got.Day() <= 14)
}

func TestSubstituteHolidayFollowsSundayHoliday(t *testing.T) {
	// Children's Day 2025-05-05 is a Monday; exercise a year where a fixed
	// holiday actually lands on Sunday instead: 2023-05-03 (Constitution
	// Memorial Day) was a Wednesday, so instead check 2021 where 2021-02-11
	// (National Foundation Day) was a Thursday -- use a known Sunday
	// collision: 2023-01-01 was a Sunday.
	cal := New(2023, time.September, 31)
	jan1 := time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC)
	require.Equal(t, time.Sunday, jan1.Weekday())
	jan2 := jan1.AddDate(0, 0, 1)
	_, isHoliday := cal.holidays[keyOf(jan2)]
	assert.True(t, isHoliday, "expected 2023-01-02 substitute holiday")
}

func TestSecondThursdayIndex(t *testing.T) {
	cal := New(2025, time.August, 31)
	idx := cal.SecondThursdayIndex()
	require.GreaterOrEqual(t, idx, 0)
	assert.Equal(t, time.Thursday, cal.Day(idx).Weekday)

	thursdays := 0
	for i := 0; i <= idx; i++ {
		if cal.Day(i).Weekday == time.Thursday {
			thursdays++
		}
	}
	assert.Equal(t, 2, thursdays)
}

func TestDayIndexOutOfRangePanics(t *testing.T) {
	cal := New(2025, time.August, 31)
	assert.Panics(t, func() { cal.Day(31) })
	assert.Panics(t, func() { cal.Day(-1) })
}
