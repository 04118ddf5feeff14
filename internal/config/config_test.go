package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, time.August, cfg.Month)
	assert.Equal(t, 31, cfg.DaysInMonth)
	assert.Equal(t, 13.0, cfg.TargetRestScore)
}

func TestLoadWithNoPathReturnsDefault(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 2025, cfg.Year)
	assert.Len(t, cfg.Nurses, len(Default().Nurses))
}

func TestLoadMissingFileIsConfigError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.Error(t, err)
	var cfgErr *ErrConfig
	require.ErrorAs(t, err, &cfgErr)
}

func TestLoadOverridesRoster(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "roster.yaml")
	doc := `
year: 2025
month: 8
days_in_month: 31
target_rest_score: 13
nurses:
  - name: 久保
    night_eligible: false
    outpatient_eligible: true
    holiday_worker: true
  - name: 小嶋
    holiday_worker: true
  - name: 久保（千）
    holiday_worker: true
  - name: 田浦
    holiday_worker: true
  - name: 樋渡
    night_eligible: true
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, cfg.Nurses, 5)
	assert.Equal(t, time.August, cfg.Month)
}

func TestValidateRejectsMissingMandatoryNurse(t *testing.T) {
	cfg := Default()
	cfg.Nurses = cfg.Nurses[1:]
	err := cfg.Validate()
	require.Error(t, err)
	var cfgErr *ErrConfig
	require.ErrorAs(t, err, &cfgErr)
}

func TestValidateRejectsNoNightEligible(t *testing.T) {
	cfg := Default()
	for i := range cfg.Nurses {
		cfg.Nurses[i].NightEligible = false
	}
	err := cfg.Validate()
	require.Error(t, err)
}

func TestValidateRejectsDuplicateName(t *testing.T) {
	cfg := Default()
	cfg.Nurses = append(cfg.Nurses, cfg.Nurses[0])
	err := cfg.Validate()
	require.Error(t, err)
}

func TestEnvOverridesOperationalKnobs(t *testing.T) {
	t.Setenv("ROSTER_LOG_LEVEL", "debug")
	t.Setenv("ROSTER_SEED", "42")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, int64(42), cfg.Seed)
}

func TestValidateShiftCodeRejectsUnknown(t *testing.T) {
	err := ValidateShiftCode("???")
	require.Error(t, err)
	var cfgErr *ErrConfig
	require.ErrorAs(t, err, &cfgErr)
}
