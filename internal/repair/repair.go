// Package repair runs the fixed-point passes that clean up Stage-2's greedy
// output: breaking long on-duty and off-duty streaks, then topping up
// nurses short of their rest-score target. Every pass honors the Stage-1
// lock mask and never touches a 夜 or the × immediately following one.
package repair

import (
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/kt-git-1/nurse-scheduling/internal/calendar"
	"github.com/kt-git-1/nurse-scheduling/internal/nurse"
	"github.com/kt-git-1/nurse-scheduling/internal/roster"
	"github.com/kt-git-1/nurse-scheduling/internal/shiftcode"
)

// Run applies the seven-on-streak breaker, the four-off-streak breaker, and
// the balancer/top-up pass, in that order, and returns a warning for any
// nurse still short of target once every mutable cell has been exhausted.
func Run(cal *calendar.Calendar, nurses nurse.Set, r *roster.Roster, target decimal.Decimal, log zerolog.Logger) []string {
	days := cal.Days()
	breakSevenOnStreaks(days, nurses, r)
	breakFourOffStreaks(days, nurses, r)
	warnings := topUpRestScore(days, nurses, r, target)
	for _, w := range warnings {
		log.Warn().Msg(w)
	}
	return warnings
}

// isProtected reports whether (name, day) is a 夜 cell or the × immediately
// following one -- the two cells no repair pass may ever touch, locked or
// not.
func isProtected(days []calendar.Day, idx int, name string, r *roster.Roster) bool {
	code := r.Get(name, days[idx].Index).Code
	if code == shiftcode.Night {
		return true
	}
	if code == shiftcode.PostNight && idx > 0 && r.Get(name, days[idx-1].Index).Code == shiftcode.Night {
		return true
	}
	return false
}

func mutable(days []calendar.Day, idx int, name string, r *roster.Roster) bool {
	return !r.IsLocked(name, days[idx].Index) && !isProtected(days, idx, name, r)
}

// breakSevenOnStreaks scans each nurse's timeline for seven consecutive
// non-off days; at the seventh, it looks back across that run for a mutable
// cell to convert to 休. A run with no mutable cell is left in place.
func breakSevenOnStreaks(days []calendar.Day, nurses nurse.Set, r *roster.Roster) {
	for _, n := range nurses {
		streak := 0
		for i, d := range days {
			code := r.Get(n.Name, d.Index).Code
			if shiftcode.IsOff(code) {
				streak = 0
				continue
			}
			streak++
			if streak < 7 {
				continue
			}
			changed := false
			for j := i; j > i-7 && j >= 0; j-- {
				if !mutable(days, j, n.Name, r) {
					continue
				}
				r.Overwrite(n.Name, days[j].Index, shiftcode.Off, roster.OriginRepair)
				changed = true
				streak = 0
				break
			}
			if !changed {
				// No mutable cell in the run; leave the streak and keep
				// scanning forward rather than looping on the same day.
				streak = 6
			}
		}
	}
}

// breakFourOffStreaks scans each nurse's timeline for four consecutive off
// days; at the fourth, it swaps one mutable off cell in the run with a
// mutable on-duty cell outside it. If no swap is possible the streak count
// resets without modifying the roster.
func breakFourOffStreaks(days []calendar.Day, nurses nurse.Set, r *roster.Roster) {
	for _, n := range nurses {
		streak := 0
		for i, d := range days {
			code := r.Get(n.Name, d.Index).Code
			if !shiftcode.IsOff(code) {
				streak = 0
				continue
			}
			streak++
			if streak < 4 {
				continue
			}

			swapped := false
			for j := i; j > i-4 && j >= 0; j-- {
				if !mutable(days, j, n.Name, r) {
					continue
				}
				offCode := r.Get(n.Name, days[j].Index).Code
				if !shiftcode.IsOff(offCode) {
					continue
				}
				for k, dk := range days {
					if k >= i-3 && k <= i {
						continue
					}
					if !mutable(days, k, n.Name, r) {
						continue
					}
					workCode := r.Get(n.Name, dk.Index).Code
					if shiftcode.IsOff(workCode) {
						continue
					}
					r.Overwrite(n.Name, days[j].Index, workCode, roster.OriginRepair)
					r.Overwrite(n.Name, dk.Index, offCode, roster.OriginRepair)
					swapped = true
					break
				}
				if swapped {
					break
				}
			}
			streak = 0
		}
	}
}

// topUpRestScore assigns 休 (or 休/ when only half a point is needed) to
// mutable on-duty cells, preferring days with the most slack headroom
// (work-count > 7), until every nurse reaches target or no eligible cell
// remains. A cell whose conversion would join a run of four or more off
// days is skipped, so top-up never undoes the four-off breaker. A nurse who
// cannot reach target because every remaining cell is locked, protected, on
// a day without slack, or next to such a run is reported as a warning.
func topUpRestScore(days []calendar.Day, nurses nurse.Set, r *roster.Roster, target decimal.Decimal) []string {
	var warnings []string
	one := decimal.NewFromInt(1)
	half := decimal.NewFromFloat(0.5)

	for _, n := range nurses {
		for {
			remaining := target.Sub(r.OffScore(n.Name))
			if remaining.LessThanOrEqual(decimal.Zero) {
				break
			}
			inserted := false
			for _, d := range sortedBySlack(days, r) {
				idx := indexOf(days, d)
				if !mutable(days, idx, n.Name, r) {
					continue
				}
				code := r.Get(n.Name, d.Index).Code
				if shiftcode.IsOff(code) {
					continue
				}
				if r.WorkCount(d.Index) <= 7 {
					continue
				}
				run := 1
				for j := idx - 1; j >= 0 && shiftcode.IsOff(r.Get(n.Name, days[j].Index).Code); j-- {
					run++
				}
				for j := idx + 1; j < len(days) && shiftcode.IsOff(r.Get(n.Name, days[j].Index).Code); j++ {
					run++
				}
				if run >= 4 {
					continue
				}
				if remaining.GreaterThanOrEqual(one) {
					r.Overwrite(n.Name, d.Index, shiftcode.Off, roster.OriginRepair)
				} else if remaining.GreaterThanOrEqual(half) {
					r.Overwrite(n.Name, d.Index, shiftcode.OffMorning, roster.OriginRepair)
				} else {
					break
				}
				inserted = true
				break
			}
			if !inserted {
				warnings = append(warnings, "repair: "+n.Name+" could not reach off-score target, no eligible slack cell remains")
				break
			}
		}
	}
	return warnings
}

// sortedBySlack returns days ordered by descending work-count, the order
// topUpRestScore consumes candidate days in.
func sortedBySlack(days []calendar.Day, r *roster.Roster) []calendar.Day {
	out := append([]calendar.Day(nil), days...)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && r.WorkCount(out[j].Index) > r.WorkCount(out[j-1].Index); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

func indexOf(days []calendar.Day, d calendar.Day) int {
	for i, dd := range days {
		if dd.Index == d.Index {
			return i
		}
	}
	return -1
}
