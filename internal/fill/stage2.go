// Package fill implements the Stage-2 greedy filler: per-weekday duty
// templates applied over whatever Stage-1 left empty, with running counts
// driving fairness and a final rest-score leveling pass.
package fill

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/kt-git-1/nurse-scheduling/internal/calendar"
	"github.com/kt-git-1/nurse-scheduling/internal/nurse"
	"github.com/kt-git-1/nurse-scheduling/internal/roster"
	"github.com/kt-git-1/nurse-scheduling/internal/shiftcode"
)

var wardSlots = []shiftcode.Code{shiftcode.WardEarly, shiftcode.WardLate, shiftcode.WardMaru}

// countTable is a per-nurse, per-shift running tally. Reading a name/code
// pair that has never been incremented returns zero.
type countTable map[string]map[shiftcode.Code]int

func newCountTable(names []string) countTable {
	t := make(countTable, len(names))
	for _, n := range names {
		t[n] = make(map[shiftcode.Code]int)
	}
	return t
}

func (t countTable) get(name string, code shiftcode.Code) int { return t[name][code] }
func (t countTable) inc(name string, code shiftcode.Code)     { t[name][code]++ }

type state struct {
	cal               *calendar.Calendar
	nurses            nurse.Set
	roster            *roster.Roster
	target            decimal.Decimal
	rng               *rand.Rand
	weekdayCounts     countTable
	saturdayCounts    countTable
	saturdayPrimaries []string
	log               zerolog.Logger
	warnings          []string
}

// Solve fills every still-empty cell left by Stage-1, mutating r in place,
// and returns any template-underflow warnings encountered (a required slot
// had no eligible, available nurse to fill it). Filled cells are left
// unlocked: the repair pass is free to revisit them.
func Solve(cal *calendar.Calendar, nurses nurse.Set, r *roster.Roster, target decimal.Decimal, rng *rand.Rand, log zerolog.Logger) []string {
	names := nurses.Names()
	s := &state{
		cal:               cal,
		nurses:            nurses,
		roster:            r,
		target:            target,
		rng:               rng,
		weekdayCounts:     newCountTable(names),
		saturdayCounts:    newCountTable(names),
		saturdayPrimaries: nurses.SaturdayPrimaries().Names(),
		log:               log,
	}

	for _, d := range cal.Days() {
		switch d.Program {
		case calendar.ProgramA:
			s.programA(d)
		case calendar.ProgramB:
			s.programB(d)
		case calendar.ProgramC:
			s.programC(d)
		}
	}

	s.fillRemainingEmpty()
	s.levelOffRests()

	for _, w := range s.warnings {
		log.Warn().Msg(w)
	}
	return s.warnings
}

func (s *state) warnf(format string, args ...interface{}) {
	s.warnings = append(s.warnings, fmt.Sprintf(format, args...))
}

// available returns the nurses, in roster order, whose cell on day is still
// empty. A cell fixed by Stage-1 is never empty, so this also excludes every
// locked cell without a separate check.
func (s *state) available(day int) []string {
	var out []string
	for _, n := range s.nurses {
		if s.roster.IsEmpty(n.Name, day) {
			out = append(out, n.Name)
		}
	}
	return out
}

func (s *state) assign(name string, day int, code shiftcode.Code, counts countTable, assigned map[string]bool) {
	s.roster.Set(name, day, code, roster.OriginStage2)
	if counts != nil {
		counts.inc(name, code)
	}
	assigned[name] = true
}

func contains(names []string, target string) bool {
	for _, n := range names {
		if n == target {
			return true
		}
	}
	return false
}

func subtract(names []string, assigned map[string]bool) []string {
	var out []string
	for _, n := range names {
		if !assigned[n] {
			out = append(out, n)
		}
	}
	return out
}

func removeName(names []string, target string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n != target {
			out = append(out, n)
		}
	}
	return out
}

func (s *state) fourEligible(name string) bool {
	n, ok := s.nurses.ByName(name)
	return ok && n.FourEligible
}

// lowestCount returns the candidate with the lowest running count for code,
// breaking ties lexicographically by name.
func lowestCount(candidates []string, counts countTable, code shiftcode.Code) string {
	sorted := append([]string(nil), candidates...)
	sort.Strings(sorted)
	best := sorted[0]
	for _, n := range sorted[1:] {
		if counts.get(n, code) < counts.get(best, code) {
			best = n
		}
	}
	return best
}

// assignCT picks the CT (or shared 2・CT, when only seven nurses remain to
// staff the day) slot: the CT-primary nurse if available, else the
// lowest-count CT-backup nurse.
func (s *state) assignCT(day int, available []string, assigned map[string]bool, counts countTable, code shiftcode.Code) {
	for _, name := range available {
		n, _ := s.nurses.ByName(name)
		if n.CTPrimary {
			s.assign(name, day, code, counts, assigned)
			return
		}
	}
	var candidates []string
	for _, name := range available {
		n, _ := s.nurses.ByName(name)
		if n.CTBackup {
			candidates = append(candidates, name)
		}
	}
	if len(candidates) == 0 {
		s.warnf("day %d: no CT-eligible nurse available for %s", day, code)
		return
	}
	pick := lowestCount(candidates, counts, code)
	s.assign(pick, day, code, counts, assigned)
}

// assignOutpatient walks slots in permutation order, preferring an
// unassigned nurse from primaries (the saturday-outpatient-primary set,
// reused for weekday outpatient assignment per the reference convention);
// any slot no primary can take falls through to the remaining
// outpatient-eligible nurses. fourCode names which slot in this set is
// gated by the four-eligible role flag.
func (s *state) assignOutpatient(day int, available []string, assigned map[string]bool, slots []shiftcode.Code, primaries []string, counts countTable, fourCode shiftcode.Code) {
	assignedPrimary := make(map[string]bool, len(primaries))
	var remainingSlots []shiftcode.Code
	for _, code := range slots {
		var candidates []string
		for _, name := range primaries {
			if assigned[name] || assignedPrimary[name] || !contains(available, name) {
				continue
			}
			if code == fourCode && !s.fourEligible(name) {
				continue
			}
			candidates = append(candidates, name)
		}
		if len(candidates) == 0 {
			remainingSlots = append(remainingSlots, code)
			continue
		}
		pick := lowestCount(candidates, counts, code)
		s.assign(pick, day, code, counts, assigned)
		assignedPrimary[pick] = true
	}
	if len(remainingSlots) == 0 {
		return
	}

	var others []string
	for _, name := range available {
		n, _ := s.nurses.ByName(name)
		if assigned[name] || !n.OutpatientEligible {
			continue
		}
		others = append(others, name)
	}
	for _, code := range remainingSlots {
		var candidates []string
		for _, name := range others {
			if assigned[name] {
				continue
			}
			if code == fourCode && !s.fourEligible(name) {
				continue
			}
			candidates = append(candidates, name)
		}
		if len(candidates) == 0 {
			s.warnf("day %d: no eligible nurse for outpatient slot %s", day, code)
			continue
		}
		pick := lowestCount(candidates, counts, code)
		s.assign(pick, day, code, counts, assigned)
	}
}

// assignWard fills the ward slots (早, 残, 〇) from whatever is left
// available, lowest running count wins.
func (s *state) assignWard(day int, available []string, assigned map[string]bool, counts countTable) {
	remaining := subtract(available, assigned)
	for _, code := range wardSlots {
		if len(remaining) == 0 {
			return
		}
		pick := lowestCount(remaining, counts, code)
		s.assign(pick, day, code, counts, assigned)
		remaining = removeName(remaining, pick)
	}
}

// offAllocate assigns 休/休/ to candidates ordered by descending off-score
// need, per the off-allocation policy: a nurse at or above one full point
// short of target gets 休, one at or above half a point short gets 休/,
// anyone already on or ahead of target is left for a later pass to fill.
func (s *state) offAllocate(candidates []string, day int) {
	type ranked struct {
		name string
		need decimal.Decimal
	}
	ranks := make([]ranked, 0, len(candidates))
	for _, name := range candidates {
		ranks = append(ranks, ranked{name, s.target.Sub(s.roster.OffScore(name))})
	}
	sort.SliceStable(ranks, func(i, j int) bool { return ranks[i].need.GreaterThan(ranks[j].need) })

	one := decimal.NewFromInt(1)
	half := decimal.NewFromFloat(0.5)
	for _, r := range ranks {
		if s.roster.IsLocked(r.name, day) {
			continue
		}
		switch {
		case r.need.GreaterThanOrEqual(one):
			s.roster.Set(r.name, day, shiftcode.Off, roster.OriginStage2)
		case r.need.GreaterThanOrEqual(half):
			s.roster.Set(r.name, day, shiftcode.OffMorning, roster.OriginStage2)
		}
	}
}

func (s *state) programA(d calendar.Day) {
	available := s.available(d.Index)
	assigned := make(map[string]bool, len(available))

	k := 7
	if len(available) >= 8 {
		k = 8
	}

	ctCode := shiftcode.CTShared
	outpatientSlots := []shiftcode.Code{shiftcode.Outpatient1, shiftcode.Outpatient3, shiftcode.Outpatient4}
	if k == 8 {
		ctCode = shiftcode.CT
		outpatientSlots = []shiftcode.Code{shiftcode.Outpatient1, shiftcode.Outpatient2, shiftcode.Outpatient3, shiftcode.Outpatient4}
	}
	s.assignCT(d.Index, available, assigned, s.weekdayCounts, ctCode)

	s.rng.Shuffle(len(outpatientSlots), func(i, j int) { outpatientSlots[i], outpatientSlots[j] = outpatientSlots[j], outpatientSlots[i] })
	s.assignOutpatient(d.Index, available, assigned, outpatientSlots, s.saturdayPrimaries, s.weekdayCounts, shiftcode.Outpatient4)

	s.assignWard(d.Index, available, assigned, s.weekdayCounts)

	s.offAllocate(subtract(available, assigned), d.Index)
}

func (s *state) programB(d calendar.Day) {
	candidates := s.available(d.Index)
	assigned := make(map[string]bool, len(candidates))

	var duty []string
	for _, name := range candidates {
		if n, _ := s.nurses.ByName(name); n.OutpatientEligible {
			duty = append(duty, name)
		}
	}
	if len(duty) > 0 {
		early := lowestCount(duty, s.weekdayCounts, shiftcode.DayDutyEarly)
		s.assign(early, d.Index, shiftcode.DayDutyEarly, s.weekdayCounts, assigned)
	}
	remaining := subtract(duty, assigned)
	if len(remaining) > 0 {
		late := lowestCount(remaining, s.weekdayCounts, shiftcode.DayDutyLate)
		s.assign(late, d.Index, shiftcode.DayDutyLate, s.weekdayCounts, assigned)
	}

	s.offAllocate(subtract(candidates, assigned), d.Index)
}

func (s *state) programC(d calendar.Day) {
	available := s.available(d.Index)
	assigned := make(map[string]bool, len(available))

	var outpatientSlots []shiftcode.Code
	if contains(available, "久保") {
		s.assign("久保", d.Index, shiftcode.SatOutpatient2, s.saturdayCounts, assigned)
		outpatientSlots = []shiftcode.Code{shiftcode.SatOutpatient1, shiftcode.SatOutpatient3, shiftcode.SatOutpatient4}
	} else {
		outpatientSlots = []shiftcode.Code{shiftcode.SatOutpatient1, shiftcode.SatOutpatient2, shiftcode.SatOutpatient3, shiftcode.SatOutpatient4}
	}
	s.rng.Shuffle(len(outpatientSlots), func(i, j int) { outpatientSlots[i], outpatientSlots[j] = outpatientSlots[j], outpatientSlots[i] })
	s.assignOutpatient(d.Index, available, assigned, outpatientSlots, s.saturdayPrimaries, s.saturdayCounts, shiftcode.SatOutpatient4)

	s.assignWard(d.Index, available, assigned, s.saturdayCounts)

	s.offAllocate(subtract(available, assigned), d.Index)
}

// fillRemainingEmpty converts any cell still empty after every program has
// run into 休, matching the reference pipeline's final blank/NaN sweep.
func (s *state) fillRemainingEmpty() {
	for _, d := range s.cal.Days() {
		for _, n := range s.nurses {
			if s.roster.IsEmpty(n.Name, d.Index) {
				s.roster.Set(n.Name, d.Index, shiftcode.Off, roster.OriginStage2)
			}
		}
	}
}

// levelOffRests nudges the gross full-off/half-off imbalance down to at
// most two points between the most- and least-rested nurse, swapping a
// full-off cell for an on-duty cell elsewhere. A swap that would hand a
// nurse a code their role flags exclude is skipped. It runs once, directly
// after Stage-2's own fill, before the dedicated 7-on/4-off/top-up repair
// passes.
func (s *state) levelOffRests() {
	days := s.cal.Days()
	names := s.nurses.Names()
	if len(names) == 0 {
		return
	}
	threshold := decimal.NewFromInt(2)

	for {
		totals := make(map[string]decimal.Decimal, len(names))
		for _, n := range names {
			totals[n] = s.roster.OffScore(n)
		}
		high, low := names[0], names[0]
		for _, n := range names {
			if totals[n].GreaterThan(totals[high]) {
				high = n
			}
			if totals[n].LessThan(totals[low]) {
				low = n
			}
		}
		if totals[high].Sub(totals[low]).LessThanOrEqual(threshold) {
			return
		}

		moved := false
		for i, d := range days {
			if s.roster.IsLocked(high, d.Index) || s.roster.IsLocked(low, d.Index) {
				continue
			}
			highCell := s.roster.Get(high, d.Index).Code
			lowCell := s.roster.Get(low, d.Index).Code
			if highCell == shiftcode.PostNight && i > 0 && s.roster.Get(high, days[i-1].Index).Code == shiftcode.Night {
				continue
			}
			if lowCell == shiftcode.Night {
				continue
			}
			hn, _ := s.nurses.ByName(high)
			switch lowCell {
			case shiftcode.CT, shiftcode.CTShared:
				if !hn.CTPrimary && !hn.CTBackup {
					continue
				}
			case shiftcode.Outpatient4:
				if !hn.FourEligible {
					continue
				}
			case shiftcode.Outpatient1, shiftcode.Outpatient2, shiftcode.Outpatient3, shiftcode.DayDutyEarly, shiftcode.DayDutyLate:
				if !hn.OutpatientEligible {
					continue
				}
			}
			if shiftcode.IsFullOff(highCell) && !shiftcode.IsOff(lowCell) {
				s.roster.Overwrite(high, d.Index, lowCell, roster.OriginStage2)
				s.roster.Overwrite(low, d.Index, shiftcode.Off, roster.OriginStage2)
				moved = true
				break
			}
		}
		if !moved {
			return
		}
	}
}
