// Package config loads the pipeline's run configuration: the target month,
// the nurse roster and role flags, the PRNG seed, and operational knobs
// (log level, log file, CSV paths). A YAML file overrides the default
// roster; environment variables override operational knobs on top of that.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kt-git-1/nurse-scheduling/internal/nurse"
	"github.com/kt-git-1/nurse-scheduling/internal/shiftcode"
)

// ErrConfig reports a configuration-time defect: a missing required nurse, an
// unknown shift code, or an otherwise malformed YAML document. It is always
// caught at load, before Stage-1 ever runs.
type ErrConfig struct {
	Reason string
}

func (e *ErrConfig) Error() string {
	return "config: " + e.Reason
}

// Config holds everything a pipeline run needs beyond the request matrix
// itself.
type Config struct {
	Year            int       `yaml:"year"`
	Month           time.Month `yaml:"-"`
	MonthNumber     int       `yaml:"month"`
	DaysInMonth     int       `yaml:"days_in_month"`
	TargetRestScore float64   `yaml:"target_rest_score"`
	Seed            int64     `yaml:"seed"`

	Nurses nurse.Set `yaml:"nurses"`

	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file"`
	InputCSV string `yaml:"input_csv"`
	OutputCSV string `yaml:"output_csv"`
}

// Default returns the reference clinic's configuration: August 2025, 31
// days, a target rest score of 13, the literal default roster, and a
// time-derived seed.
func Default() *Config {
	return &Config{
		Year:            2025,
		Month:           time.August,
		MonthNumber:     int(time.August),
		DaysInMonth:     31,
		TargetRestScore: 13,
		Seed:            0,
		Nurses:          nurse.DefaultRoster(),
		LogLevel:        "info",
	}
}

// Load reads a YAML configuration file, falling back to Default() for any
// field the document omits, applies environment-variable overrides for the
// operational knobs, and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, &ErrConfig{Reason: fmt.Sprintf("cannot read %s: %v", path, err)}
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, &ErrConfig{Reason: fmt.Sprintf("cannot parse %s: %v", path, err)}
		}
		cfg.Month = time.Month(cfg.MonthNumber)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides layers environment variables on top of whatever Load has
// assembled so far, following the getEnv-with-default pattern used
// throughout the corpus's service configs.
func applyEnvOverrides(cfg *Config) {
	cfg.LogLevel = getEnv("ROSTER_LOG_LEVEL", cfg.LogLevel)
	cfg.LogFile = getEnv("ROSTER_LOG_FILE", cfg.LogFile)
	cfg.InputCSV = getEnv("ROSTER_INPUT_CSV", cfg.InputCSV)
	cfg.OutputCSV = getEnv("ROSTER_OUTPUT_CSV", cfg.OutputCSV)

	if v := os.Getenv("ROSTER_SEED"); v != "" {
		if seed, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Seed = seed
		}
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Validate fails fast on a missing required nurse or a configuration that
// would produce an unschedulable month, before Stage-1 ever runs.
func (c *Config) Validate() error {
	if c.DaysInMonth < 1 || c.DaysInMonth > 31 {
		return &ErrConfig{Reason: fmt.Sprintf("days_in_month %d out of range", c.DaysInMonth)}
	}
	if len(c.Nurses.Night()) == 0 {
		return &ErrConfig{Reason: "no night-eligible nurse in roster"}
	}

	required := []string{"久保", "小嶋", "久保（千）", "田浦"}
	for _, name := range required {
		if _, ok := c.Nurses.ByName(name); !ok {
			return &ErrConfig{Reason: "missing required nurse: " + name}
		}
	}

	seen := make(map[string]bool)
	for _, n := range c.Nurses {
		if n.Name == "" {
			return &ErrConfig{Reason: "nurse entry with empty name"}
		}
		if seen[n.Name] {
			return &ErrConfig{Reason: "duplicate nurse name: " + n.Name}
		}
		seen[n.Name] = true
	}

	return nil
}

// ValidateShiftCode reports an error wrapping ErrConfig if c is not part of
// the closed shift alphabet; used by loaders that accept raw codes from
// external input (a YAML override, a pre-seeded lock file).
func ValidateShiftCode(c shiftcode.Code) error {
	if !shiftcode.IsValid(c) {
		return &ErrConfig{Reason: "unknown shift code: " + string(c)}
	}
	return nil
}
