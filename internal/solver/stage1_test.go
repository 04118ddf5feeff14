package solver

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kt-git-1/nurse-scheduling/internal/calendar"
	"github.com/kt-git-1/nurse-scheduling/internal/nurse"
	"github.com/kt-git-1/nurse-scheduling/internal/requests"
	"github.com/kt-git-1/nurse-scheduling/internal/shiftcode"
)

// fixtureRoster mirrors the reference clinic's role mix: four
// mandatory-holiday nurses (one of them 久保) and the seven-nurse night
// rotation pool.
func fixtureRoster() nurse.Set {
	return nurse.Set{
		{Name: "久保", HolidayWorker: true},
		{Name: "小嶋", HolidayWorker: true},
		{Name: "久保（千）", HolidayWorker: true},
		{Name: "田浦", HolidayWorker: true},
		{Name: "樋渡", NightEligible: true},
		{Name: "中山", NightEligible: true},
		{Name: "川原田", NightEligible: true},
		{Name: "友枝", NightEligible: true},
		{Name: "奥平", NightEligible: true},
		{Name: "前野", NightEligible: true},
		{Name: "森園", NightEligible: true},
	}
}

func TestNightRotationBaseline(t *testing.T) {
	cal := calendar.New(2025, time.February, 31)
	r, err := Solve(cal, fixtureRoster(), nil, zerolog.Nop())
	require.NoError(t, err)

	counts := make(map[string]int)
	for _, d := range cal.Days() {
		found := false
		for _, n := range fixtureRoster().Night() {
			if r.Get(n.Name, d.Index).Code == shiftcode.Night {
				counts[n.Name]++
				found = true
			}
		}
		assert.True(t, found, "day %d has no night nurse assigned", d.Index)
	}

	for _, n := range fixtureRoster().Night() {
		assert.GreaterOrEqual(t, counts[n.Name], 31/7)
		assert.LessOrEqual(t, counts[n.Name], (31+6)/7)
	}
}

func TestPostNightFollowsEveryNight(t *testing.T) {
	cal := calendar.New(2025, time.February, 31)
	r, err := Solve(cal, fixtureRoster(), nil, zerolog.Nop())
	require.NoError(t, err)

	days := cal.Days()
	for i, d := range days {
		for _, n := range fixtureRoster().Night() {
			if r.Get(n.Name, d.Index).Code != shiftcode.Night {
				continue
			}
			if i+1 < len(days) {
				assert.Equal(t, shiftcode.PostNight, r.Get(n.Name, days[i+1].Index).Code)
			}
		}
	}
}

func TestPreferredOffHonored(t *testing.T) {
	cal := calendar.New(2025, time.February, 31)
	reqs := []requests.Request{{Nurse: "三好", Day: requests.DayIndex(25), Code: requests.PrefFullOff}}
	roster := append(fixtureRoster(), nurse.Nurse{Name: "三好"})

	r, err := Solve(cal, roster, reqs, zerolog.Nop())
	require.NoError(t, err)

	day := requests.DayIndex(25)
	assert.Equal(t, shiftcode.Off, r.Get("三好", day).Code)
	assert.True(t, r.IsLocked("三好", day))
}

func TestSecondThursdayVisitingDuty(t *testing.T) {
	cal := calendar.New(2025, time.February, 31)
	r, err := Solve(cal, fixtureRoster(), nil, zerolog.Nop())
	require.NoError(t, err)

	t2 := cal.SecondThursdayIndex()
	require.GreaterOrEqual(t, t2, 0)
	assert.Equal(t, shiftcode.HolidayVisiting, r.Get("久保", t2).Code)

	for _, d := range cal.Days() {
		if d.Index == t2 {
			continue
		}
		if d.Weekday != time.Thursday && d.Weekday != time.Sunday {
			continue
		}
		assert.Equal(t, shiftcode.Off, r.Get("久保", d.Index).Code)
	}
}

func TestNoNightEligibleNursesIsInfeasible(t *testing.T) {
	cal := calendar.New(2025, time.February, 31)
	roster := nurse.Set{{Name: "久保", HolidayWorker: true}}

	_, err := Solve(cal, roster, nil, zerolog.Nop())
	require.Error(t, err)
	var infeasible *ErrInfeasible
	assert.ErrorAs(t, err, &infeasible)
}
