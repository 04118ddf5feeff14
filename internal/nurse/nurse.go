// Package nurse describes the clinic's staff and their static role flags.
package nurse

// Nurse is one staff member and the role flags that gate which Stage-1/
// Stage-2 slots they are eligible for. Role flags are plain data loaded
// from configuration rather than switch arms over a name, so a reviewer can
// audit or change the roster without touching Go source.
type Nurse struct {
	Name string `yaml:"name"`

	// NightEligible permits assignment to the night shift (夜) and its
	// following post-night rest (×).
	NightEligible bool `yaml:"night_eligible"`

	// OutpatientEligible permits assignment to the numbered outpatient slots
	// (weekday 1..4, Saturday 1/..4/) and to the 早日/残日 day duties. The CT
	// slots are gated by CTPrimary/CTBackup instead.
	OutpatientEligible bool `yaml:"outpatient_eligible"`

	// FourEligible permits assignment to the "4" outpatient slot
	// specifically; a strict subset of OutpatientEligible.
	FourEligible bool `yaml:"four_eligible"`

	// CTPrimary is the nurse preferred for the CT slot whenever available.
	CTPrimary bool `yaml:"ct_primary"`

	// CTBackup is a nurse eligible for the CT slot when the primary is
	// unavailable, chosen by lowest running CT count.
	CTBackup bool `yaml:"ct_backup"`

	// SaturdayPrimary is preferred for Saturday outpatient slots.
	SaturdayPrimary bool `yaml:"saturday_primary"`

	// HolidayWorker may be asked to take 訪問 (holiday visiting duty, /訪)
	// rather than 休 on a mandatory holiday.
	HolidayWorker bool `yaml:"holiday_worker"`
}

// Set is an ordered collection of nurses, kept in configuration order rather
// than re-sorted; that order is the order rows and candidate lists are
// walked in. Stage-2's lowest-count-wins selection breaks ties by sorting
// candidate names lexicographically, not by Set order.
type Set []Nurse

// Names returns the nurse names in Set order.
func (s Set) Names() []string {
	out := make([]string, len(s))
	for i, n := range s {
		out[i] = n.Name
	}
	return out
}

// ByName looks up a nurse by name. The second return value is false if no
// nurse with that name exists in the set.
func (s Set) ByName(name string) (Nurse, bool) {
	for _, n := range s {
		if n.Name == name {
			return n, true
		}
	}
	return Nurse{}, false
}

// Night returns the subset of s eligible for the night shift, in Set order.
func (s Set) Night() Set {
	return s.filter(func(n Nurse) bool { return n.NightEligible })
}

// SaturdayPrimaries returns the subset of s preferred for Saturday
// outpatient slots, in Set order.
func (s Set) SaturdayPrimaries() Set {
	return s.filter(func(n Nurse) bool { return n.SaturdayPrimary })
}

func (s Set) filter(keep func(Nurse) bool) Set {
	var out Set
	for _, n := range s {
		if keep(n) {
			out = append(out, n)
		}
	}
	return out
}

// DefaultRoster is the clinic's literal nurse roster and role-flag
// assignment from the reference configuration, used whenever no
// configuration override is supplied.
func DefaultRoster() Set {
	return Set{
		{Name: "久保", NightEligible: false, OutpatientEligible: true, FourEligible: true, CTPrimary: true, CTBackup: false, SaturdayPrimary: false, HolidayWorker: true},
		{Name: "小嶋", NightEligible: false, OutpatientEligible: true, FourEligible: true, CTPrimary: false, CTBackup: false, SaturdayPrimary: true, HolidayWorker: false},
		{Name: "久保（千）", NightEligible: false, OutpatientEligible: true, FourEligible: true, CTPrimary: false, CTBackup: false, SaturdayPrimary: true, HolidayWorker: false},
		{Name: "田浦", NightEligible: false, OutpatientEligible: true, FourEligible: true, CTPrimary: false, CTBackup: false, SaturdayPrimary: true, HolidayWorker: false},
		{Name: "樋渡", NightEligible: true, OutpatientEligible: true, FourEligible: true, CTPrimary: false, CTBackup: false, SaturdayPrimary: false, HolidayWorker: true},
		{Name: "中山", NightEligible: true, OutpatientEligible: true, FourEligible: true, CTPrimary: false, CTBackup: false, SaturdayPrimary: false, HolidayWorker: true},
		{Name: "川原田", NightEligible: true, OutpatientEligible: true, FourEligible: true, CTPrimary: false, CTBackup: false, SaturdayPrimary: false, HolidayWorker: true},
		{Name: "友枝", NightEligible: true, OutpatientEligible: true, FourEligible: true, CTPrimary: false, CTBackup: false, SaturdayPrimary: false, HolidayWorker: true},
		{Name: "奥平", NightEligible: true, OutpatientEligible: true, FourEligible: true, CTPrimary: false, CTBackup: false, SaturdayPrimary: false, HolidayWorker: true},
		{Name: "前野", NightEligible: true, OutpatientEligible: true, FourEligible: true, CTPrimary: false, CTBackup: true, SaturdayPrimary: false, HolidayWorker: true},
		{Name: "森園", NightEligible: true, OutpatientEligible: true, FourEligible: true, CTPrimary: false, CTBackup: false, SaturdayPrimary: false, HolidayWorker: true},
		{Name: "御書", NightEligible: false, OutpatientEligible: false, FourEligible: false, CTPrimary: false, CTBackup: false, SaturdayPrimary: false, HolidayWorker: true},
		{Name: "板川", NightEligible: false, OutpatientEligible: true, FourEligible: true, CTPrimary: false, CTBackup: false, SaturdayPrimary: false, HolidayWorker: true},
		{Name: "三好", NightEligible: false, OutpatientEligible: true, FourEligible: false, CTPrimary: false, CTBackup: true, SaturdayPrimary: false, HolidayWorker: true},
	}
}

// MandatoryHolidayNurses returns the nurses who must take a full-off (or, in
// 久保's second-Thursday case, the holiday-visiting) code on every
// mandatory-holiday day, in the order fixed by the reference configuration.
func MandatoryHolidayNurses(roster Set) Set {
	mandatory := map[string]bool{"久保": true, "小嶋": true, "久保（千）": true, "田浦": true}
	return roster.filter(func(n Nurse) bool { return mandatory[n.Name] })
}
