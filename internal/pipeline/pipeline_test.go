package pipeline

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kt-git-1/nurse-scheduling/internal/config"
	"github.com/kt-git-1/nurse-scheduling/internal/shiftcode"
)

func runDefault(t *testing.T) *Result {
	t.Helper()
	cfg := config.Default()
	cfg.Seed = 7
	result, err := Run(context.Background(), cfg, nil, zerolog.Nop())
	require.NoError(t, err)
	return result
}

func TestRunProducesValidCodesEveryCell(t *testing.T) {
	result := runDefault(t)
	for _, n := range result.Roster.Nurses() {
		for d := 0; d < result.Roster.Days(); d++ {
			code := result.Roster.Get(n.Name, d).Code
			assert.True(t, shiftcode.IsValid(code), "nurse %s day %d has invalid code %q", n.Name, d, code)
		}
	}
}

func TestRunExactlyOneNightPerDay(t *testing.T) {
	result := runDefault(t)
	for d := 0; d < result.Roster.Days(); d++ {
		count := 0
		for _, n := range result.Roster.Nurses() {
			if result.Roster.Get(n.Name, d).Code == shiftcode.Night {
				count++
			}
		}
		assert.Equal(t, 1, count, "day %d", d)
	}
}

func TestRunNightFollowedByPostNight(t *testing.T) {
	result := runDefault(t)
	days := result.Roster.Days()
	for _, n := range result.Roster.Nurses() {
		for d := 0; d < days-1; d++ {
			if result.Roster.Get(n.Name, d).Code == shiftcode.Night {
				assert.Equal(t, shiftcode.PostNight, result.Roster.Get(n.Name, d+1).Code)
			}
		}
	}
}

func TestRunGoshoNeverNightOrOutpatientOrDayDuty(t *testing.T) {
	result := runDefault(t)
	forbidden := map[shiftcode.Code]bool{
		shiftcode.Night: true, shiftcode.Outpatient1: true, shiftcode.Outpatient2: true,
		shiftcode.Outpatient3: true, shiftcode.Outpatient4: true, shiftcode.CT: true,
		shiftcode.CTShared: true, shiftcode.SatOutpatient1: true, shiftcode.SatOutpatient2: true,
		shiftcode.SatOutpatient3: true, shiftcode.SatOutpatient4: true,
		shiftcode.DayDutyEarly: true, shiftcode.DayDutyLate: true,
	}
	for d := 0; d < result.Roster.Days(); d++ {
		code := result.Roster.Get("御書", d).Code
		assert.False(t, forbidden[code], "day %d: 御書 got forbidden code %s", d, code)
	}
}

func TestRunItabaMiyoshiNeverNight(t *testing.T) {
	result := runDefault(t)
	for _, name := range []string{"板川", "三好"} {
		for d := 0; d < result.Roster.Days(); d++ {
			assert.NotEqual(t, shiftcode.Night, result.Roster.Get(name, d).Code)
		}
	}
}

func TestRunOffScoreApproachesTarget(t *testing.T) {
	result := runDefault(t)
	for _, n := range result.Roster.Nurses() {
		f, _ := result.Roster.OffScore(n.Name).Float64()
		assert.GreaterOrEqual(t, f, 10.0, "nurse %s off-score too far below target", n.Name)
	}
}

func TestRunIsDeterministicForFixedSeed(t *testing.T) {
	cfg := config.Default()
	cfg.Seed = 99

	a, err := Run(context.Background(), cfg, nil, zerolog.Nop())
	require.NoError(t, err)
	b, err := Run(context.Background(), cfg, nil, zerolog.Nop())
	require.NoError(t, err)

	assert.True(t, a.Roster.Equal(b.Roster))
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Nurses = nil

	_, err := Run(context.Background(), cfg, nil, zerolog.Nop())
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "configuration error"))
}

func TestRunRespectsCancelledContext(t *testing.T) {
	cfg := config.Default()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, cfg, nil, zerolog.Nop())
	require.Error(t, err)
}

func TestRunLoadsRequestCSV(t *testing.T) {
	cfg := config.Default()
	csv := "日付,25\n三好,①\n" // 三好 is already in the default roster

	result, err := Run(context.Background(), cfg, strings.NewReader(csv), zerolog.Nop())
	require.NoError(t, err)
	assert.NotNil(t, result)
}
