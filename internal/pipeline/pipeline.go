// Package pipeline wires the four stages -- request loading, Stage-1 CP-SAT
// solving, Stage-2 greedy filling, and repair -- into one end-to-end run,
// and defines the error taxonomy callers use to tell a configuration defect
// from a hard infeasibility from a non-fatal warning.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/kt-git-1/nurse-scheduling/internal/calendar"
	"github.com/kt-git-1/nurse-scheduling/internal/config"
	"github.com/kt-git-1/nurse-scheduling/internal/fill"
	"github.com/kt-git-1/nurse-scheduling/internal/repair"
	"github.com/kt-git-1/nurse-scheduling/internal/requests"
	"github.com/kt-git-1/nurse-scheduling/internal/roster"
	"github.com/kt-git-1/nurse-scheduling/internal/solver"
)

// ErrConfig wraps a configuration-time defect surfaced by internal/config.
var ErrConfig = errors.New("pipeline: configuration error")

// ErrInfeasible wraps a Stage-1 infeasibility: the hard constraints could
// not be satisfied by any assignment.
var ErrInfeasible = errors.New("pipeline: stage-1 infeasible")

// Warning identifies which non-fatal pass produced a warning line.
type Warning struct {
	// Stage is "stage2" for a template-underflow warning or "repair" for a
	// repair-fixpoint residual.
	Stage   string
	Message string
}

// Result is a completed run: the final roster plus any non-fatal warnings
// accumulated along the way.
type Result struct {
	Roster   *roster.Roster
	Warnings []Warning
}

// Run executes request loading through repair for a single month and
// returns the final roster. ctx is checked once, just before the Stage-1
// solve; the solve and the rest of the pipeline run synchronously to
// completion without consulting ctx again, per §5 of the design.
func Run(ctx context.Context, cfg *config.Config, requestCSV io.Reader, log zerolog.Logger) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfig, err)
	}

	cal := calendar.New(cfg.Year, cfg.Month, cfg.DaysInMonth)

	var reqs []requests.Request
	if requestCSV != nil {
		loaded, err := requests.Load(requestCSV, cfg.Nurses)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrConfig, err)
		}
		reqs = loaded
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	stage1Roster, err := solver.Solve(cal, cfg.Nurses, reqs, log)
	if err != nil {
		var infeasible *solver.ErrInfeasible
		if errors.As(err, &infeasible) {
			return nil, fmt.Errorf("%w: %v", ErrInfeasible, err)
		}
		return nil, err
	}

	target := decimal.NewFromFloat(cfg.TargetRestScore)
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	log.Info().Msg("stage-1 complete, starting stage-2 fill")
	fillWarnings := fill.Solve(cal, cfg.Nurses, stage1Roster, target, rng, log)

	log.Info().Msg("stage-2 complete, starting repair")
	repairWarnings := repair.Run(cal, cfg.Nurses, stage1Roster, target, log)

	result := &Result{Roster: stage1Roster}
	for _, w := range fillWarnings {
		result.Warnings = append(result.Warnings, Warning{Stage: "stage2", Message: w})
	}
	for _, w := range repairWarnings {
		result.Warnings = append(result.Warnings, Warning{Stage: "repair", Message: w})
	}
	return result, nil
}
