// Package requests loads per-nurse preferred-off markers from the request
// matrix and maps them to day indices and forced shift codes.
package requests

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/kt-git-1/nurse-scheduling/internal/nurse"
	"github.com/kt-git-1/nurse-scheduling/internal/shiftcode"
)

// PreferenceCode is one of the five preferred-off markers a nurse can write
// into the request matrix.
type PreferenceCode string

const (
	PrefFullOff               PreferenceCode = "①"
	PrefFullOffNightCompatible PreferenceCode = "②"
	PrefMorningHalfOff        PreferenceCode = "③"
	PrefAfternoonHalfOff      PreferenceCode = "④"
	PrefAfternoonHalfOffNight PreferenceCode = "⑤"
)

// ForcedCode is the table from §3: the ShiftCode a preference code forces.
var ForcedCode = map[PreferenceCode]shiftcode.Code{
	PrefFullOff:                shiftcode.Off,
	PrefFullOffNightCompatible: shiftcode.Off,
	PrefMorningHalfOff:         shiftcode.OffMorning,
	PrefAfternoonHalfOff:       shiftcode.OffAfternoon,
	PrefAfternoonHalfOffNight:  shiftcode.OffAfternoon,
}

// nightCompatible marks the preference codes that may still be paired with
// a night shift the same evening (② and ⑤ in the reference HOLIDAY_MAP),
// a distinction Stage-1 consults when reconciling preferred-off with the
// night rotation.
var nightCompatible = map[PreferenceCode]bool{
	PrefFullOffNightCompatible: true,
	PrefAfternoonHalfOffNight:  true,
}

// IsNightCompatible reports whether code may coexist with a night shift
// assignment on the same evening.
func IsNightCompatible(code PreferenceCode) bool {
	return nightCompatible[code]
}

// Request is one (nurse, day-index, preference-code) triple.
type Request struct {
	Nurse string
	Day   int
	Code  PreferenceCode
}

// headerMarker is the literal header-row label the reference CSV uses in
// column 0.
const headerMarker = "日付"

// ConfigError reports a request row naming a nurse outside the configured
// roster: per §7, a missing/unknown nurse in the input is a configuration
// error caught at load, not silently skipped.
type ConfigError struct {
	Nurse string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("requests: nurse %q in request matrix is not in the configured roster", e.Nurse)
}

// Load reads the request matrix (header row: 日付, day-of-month integers;
// subsequent rows: nurse name, then one preference cell per day) and
// returns every non-blank preferred-off request. roster validates that
// every row's nurse name is a known nurse.
func Load(r io.Reader, roster nurse.Set) ([]Request, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("requests: reading csv: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("requests: empty request matrix")
	}

	header := rows[0]
	if len(header) == 0 || strings.TrimSpace(header[0]) != headerMarker {
		return nil, fmt.Errorf("requests: expected header marker %q in column 0, got %q", headerMarker, header[0])
	}

	dayOfMonth := make([]int, len(header))
	for col := 1; col < len(header); col++ {
		d, err := strconv.Atoi(strings.TrimSpace(header[col]))
		if err != nil {
			continue // non-numeric header cell, e.g. a 曜日 row marker; ignored
		}
		dayOfMonth[col] = d
	}

	var out []Request
	for _, row := range rows[1:] {
		if len(row) == 0 {
			continue
		}
		name := strings.TrimSpace(row[0])
		if name == "" || name == "曜日" {
			continue
		}
		if _, ok := roster.ByName(name); !ok {
			return nil, &ConfigError{Nurse: name}
		}

		for col := 1; col < len(row) && col < len(header); col++ {
			cell := strings.TrimSpace(row[col])
			if cell == "" {
				continue
			}
			code := PreferenceCode(cell)
			if _, known := ForcedCode[code]; !known {
				continue // unknown code, ignored per §4.2
			}
			if dayOfMonth[col] == 0 {
				continue
			}
			out = append(out, Request{
				Nurse: name,
				Day:   DayIndex(dayOfMonth[col]),
				Code:  code,
			})
		}
	}
	return out, nil
}

// DayIndex converts a day-of-month (1-31) to a DayIndex (0-30): d-21 when
// d>=21, else d+10.
func DayIndex(dayOfMonth int) int {
	if dayOfMonth >= 21 {
		return dayOfMonth - 21
	}
	return dayOfMonth + 10
}

// DayOfMonth is the inverse of DayIndex, used by the round-trip test and by
// Format when re-emitting a request row.
func DayOfMonth(dayIndex int) int {
	if dayIndex <= 10 {
		return dayIndex + 21
	}
	return dayIndex - 10
}

// Format renders requests back into a sparse nurse -> {dayOfMonth: code} view,
// the inverse of Load's flattening, used by the round-trip test.
func Format(reqs []Request) map[string]map[int]PreferenceCode {
	out := make(map[string]map[int]PreferenceCode)
	for _, r := range reqs {
		if out[r.Nurse] == nil {
			out[r.Nurse] = make(map[int]PreferenceCode)
		}
		out[r.Nurse][DayOfMonth(r.Day)] = r.Code
	}
	return out
}
