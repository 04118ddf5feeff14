// Package solver implements the Stage-1 constraint-satisfaction pass: a
// CP-SAT model, built with Google OR-Tools' Go bindings, that locks the
// structurally-hardest decisions -- mandatory holidays, preferred-off
// honoring, and night-shift rotation with its next-day ("post-night")
// pairing -- before Stage-2's greedy filler ever runs.
package solver

import (
	"fmt"
	"time"

	"github.com/google/or-tools/ortools/sat/go/cpmodel"
	"github.com/rs/zerolog"

	"github.com/kt-git-1/nurse-scheduling/internal/calendar"
	"github.com/kt-git-1/nurse-scheduling/internal/nurse"
	"github.com/kt-git-1/nurse-scheduling/internal/requests"
	"github.com/kt-git-1/nurse-scheduling/internal/roster"
	"github.com/kt-git-1/nurse-scheduling/internal/shiftcode"
)

// ErrInfeasible is returned when the CP-SAT model has no feasible solution.
// Per §4.3 and §7, Stage-1 never relaxes constraints to recover -- the
// pipeline reports and aborts.
type ErrInfeasible struct {
	Reason string
}

func (e *ErrInfeasible) Error() string {
	return fmt.Sprintf("solver: stage-1 model is infeasible: %s", e.Reason)
}

// Solve runs Stage-1 over the given calendar, nurse roster, and preferred-off
// requests, returning a partial roster with every night/post-night cell,
// every mandatory-holiday cell, and every preferred-off cell locked. All
// other cells are left empty for Stage-2 to fill.
func Solve(cal *calendar.Calendar, roster_ nurse.Set, reqs []requests.Request, log zerolog.Logger) (*roster.Roster, error) {
	days := cal.Days()
	r := roster.New(roster_, len(days))

	nightEligible := roster_.Night()
	if len(nightEligible) == 0 {
		return nil, &ErrInfeasible{Reason: "no night-eligible nurses configured"}
	}

	reqByNurseDay := make(map[string]map[int]requests.Request)
	for _, req := range reqs {
		if reqByNurseDay[req.Nurse] == nil {
			reqByNurseDay[req.Nurse] = make(map[int]requests.Request)
		}
		reqByNurseDay[req.Nurse][req.Day] = req
	}

	mandatory := nurse.MandatoryHolidayNurses(roster_)
	secondThursday := cal.SecondThursdayIndex()

	model := cpmodel.NewCpModelBuilder()

	// nightVar[n][d]: does nurse n (night-eligible) work the night shift on
	// day d? Exactly one per day; per-nurse totals bounded by the
	// [floor(days/k), ceil(days/k)] band for k night-eligible nurses;
	// forbidden on any day the nurse already has a fixed, non-night-
	// compatible obligation (mandatory holiday, or a preferred-off request
	// that is not night/post-night compatible), and on the day before any
	// such obligation (since that would force an incompatible × the next
	// day).
	nightVar := make(map[string][]cpmodel.BoolVar, len(nightEligible))
	for _, n := range nightEligible {
		vars := make([]cpmodel.BoolVar, len(days))
		for d := range days {
			vars[d] = model.NewBoolVar().WithName(fmt.Sprintf("night_%s_%d", n.Name, d))
		}
		nightVar[n.Name] = vars
	}

	forbidNight := func(name string, day int) {
		if day < 0 || day >= len(days) {
			return
		}
		vars, ok := nightVar[name]
		if !ok {
			return
		}
		model.AddEquality(vars[day], cpmodel.NewConstant(0))
	}

	for _, n := range nightEligible {
		for _, d := range days {
			if mandatoryDay(n.Name, d, mandatory, secondThursday) {
				forbidNight(n.Name, d.Index)
				forbidNight(n.Name, d.Index-1)
				continue
			}
			req, hasReq := reqByNurseDay[n.Name][d.Index]
			if !hasReq {
				continue
			}
			forbidNight(n.Name, d.Index)
			if !requests.IsNightCompatible(req.Code) {
				forbidNight(n.Name, d.Index-1)
			}
		}
	}

	// Exactly one night nurse per day.
	for d := range days {
		var candidates []cpmodel.BoolVar
		for _, n := range nightEligible {
			candidates = append(candidates, nightVar[n.Name][d])
		}
		model.AddExactlyOne(candidates...)
	}

	// A night on day d forces × on d+1, so no nurse works two nights in a row.
	for _, n := range nightEligible {
		vars := nightVar[n.Name]
		for d := 0; d+1 < len(vars); d++ {
			pair := cpmodel.NewLinearExpr()
			pair.Add(vars[d])
			pair.Add(vars[d+1])
			model.AddLessOrEqual(pair, cpmodel.NewConstant(1))
		}
	}

	// Per-nurse totals within [floor(31/k), ceil(31/k)], k = number of
	// night-eligible nurses.
	k := len(nightEligible)
	lower := len(days) / k
	upper := (len(days) + k - 1) / k
	for _, n := range nightEligible {
		expr := cpmodel.NewLinearExpr()
		for _, v := range nightVar[n.Name] {
			expr.Add(v)
		}
		model.AddLessOrEqual(cpmodel.NewConstant(int64(lower)), expr)
		model.AddLessOrEqual(expr, cpmodel.NewConstant(int64(upper)))
	}

	m, err := model.Model()
	if err != nil {
		return nil, fmt.Errorf("solver: building stage-1 model: %w", err)
	}
	response, err := cpmodel.SolveCpModel(m)
	if err != nil {
		return nil, fmt.Errorf("solver: solving stage-1 model: %w", err)
	}
	switch status := response.GetStatus().String(); status {
	case "OPTIMAL", "FEASIBLE":
		// Stage-1 has no objective (§4.3 rule 4: "Objective is constant"),
		// so CP-SAT reports OPTIMAL as soon as it finds any feasible
		// assignment; FEASIBLE is accepted too in case a future revision
		// adds a time limit.
	default:
		return nil, &ErrInfeasible{Reason: fmt.Sprintf("cp-sat status %s", status)}
	}

	log.Info().Str("status", response.GetStatus().String()).Msg("stage-1 cp-sat solve complete")

	// Derive night / post-night cells from the solution.
	for d := range days {
		var chosen string
		for _, n := range nightEligible {
			if cpmodel.SolutionBooleanValue(response, nightVar[n.Name][d]) {
				chosen = n.Name
				break
			}
		}
		if chosen == "" {
			return nil, &ErrInfeasible{Reason: fmt.Sprintf("day %d has no night assignment in the solution", d)}
		}
		r.SetLocked(chosen, d, shiftcode.Night, roster.OriginRule)
		if d+1 < len(days) {
			r.SetLocked(chosen, d+1, shiftcode.PostNight, roster.OriginRule)
		}
	}

	// Mandatory holiday offs (§4.3 rule 1).
	for _, n := range mandatory {
		for _, d := range days {
			if !mandatoryDay(n.Name, d, mandatory, secondThursday) {
				continue
			}
			if r.IsLocked(n.Name, d.Index) {
				continue // already fixed by night/post-night (should not occur for this disjoint set, guarded defensively)
			}
			if d.Index == secondThursday && n.Name == "久保" {
				r.SetLocked(n.Name, d.Index, shiftcode.HolidayVisiting, roster.OriginRule)
			} else {
				r.SetLocked(n.Name, d.Index, shiftcode.Off, roster.OriginRule)
			}
		}
	}

	// Preferred-off honoring (§4.3 rule 2).
	for _, req := range reqs {
		if r.IsLocked(req.Nurse, req.Day) {
			// Already satisfied by the post-night cell the night-compatible
			// preference allowed for.
			continue
		}
		r.SetLocked(req.Nurse, req.Day, requests.ForcedCode[req.Code], roster.OriginRequest)
	}

	return r, nil
}

// mandatoryDay reports whether day d is a mandatory-holiday day for nurse n:
// a full-off weekday (Thursday or Sunday) and n is in the mandatory set.
func mandatoryDay(name string, d calendar.Day, mandatory nurse.Set, secondThursday int) bool {
	if d.Weekday != time.Thursday && d.Weekday != time.Sunday {
		return false
	}
	for _, n := range mandatory {
		if n.Name == name {
			return true
		}
	}
	return false
}

