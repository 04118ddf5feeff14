// Package roster holds the dense (nurse x day) shift table produced by the
// scheduling pipeline, its lock mask, and off-score accounting.
package roster

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/kt-git-1/nurse-scheduling/internal/nurse"
	"github.com/kt-git-1/nurse-scheduling/internal/shiftcode"
)

// Origin records which pipeline stage produced a cell's value, so repair
// passes can tell a Stage-1 lock from a Stage-2 fill it is free to revisit.
type Origin int

const (
	OriginEmpty Origin = iota
	OriginRequest
	OriginRule
	OriginStage2
	OriginRepair
)

// Cell is one (nurse, day) slot.
type Cell struct {
	Code   shiftcode.Code
	Origin Origin
	Locked bool
}

func (c Cell) isEmpty() bool { return c.Origin == OriginEmpty }

// Roster is the dense nurse x day grid. The nurse dimension is fixed at
// construction time from a nurse.Set, preserving configuration order.
type Roster struct {
	nurses nurse.Set
	days   int
	cells  [][]Cell // [nurseIndex][dayIndex]
	index  map[string]int
}

// New builds an empty Roster for the given nurses over the given number of
// days.
func New(nurses nurse.Set, days int) *Roster {
	r := &Roster{
		nurses: nurses,
		days:   days,
		cells:  make([][]Cell, len(nurses)),
		index:  make(map[string]int, len(nurses)),
	}
	for i, n := range nurses {
		r.cells[i] = make([]Cell, days)
		r.index[n.Name] = i
	}
	return r
}

// Nurses returns the roster's nurse set, in configuration order.
func (r *Roster) Nurses() nurse.Set { return r.nurses }

// Days returns the number of day columns.
func (r *Roster) Days() int { return r.days }

func (r *Roster) mustIndex(name string) int {
	i, ok := r.index[name]
	if !ok {
		panic(fmt.Sprintf("roster: unknown nurse %q", name))
	}
	return i
}

// Get returns the cell at (name, day).
func (r *Roster) Get(name string, day int) Cell {
	return r.cells[r.mustIndex(name)][day]
}

// IsEmpty reports whether (name, day) has not yet been assigned.
func (r *Roster) IsEmpty(name string, day int) bool {
	return r.Get(name, day).isEmpty()
}

// IsLocked reports whether (name, day) is immutable.
func (r *Roster) IsLocked(name string, day int) bool {
	return r.Get(name, day).Locked
}

// Set assigns code to (name, day) with the given origin. Locking is left to
// the caller via Lock, since Stage-2 fills a cell without locking it while
// Stage-1 locks every cell it touches.
func (r *Roster) Set(name string, day int, code shiftcode.Code, origin Origin) {
	i := r.mustIndex(name)
	r.cells[i][day].Code = code
	r.cells[i][day].Origin = origin
}

// Lock marks (name, day) immutable. A later Lock, SetLocked or Overwrite on
// a locked cell panics, since every caller in this pipeline is expected to
// check IsLocked first -- a lock violation is a programming error, not
// recoverable input. Set itself does not check the lock.
func (r *Roster) Lock(name string, day int) {
	i := r.mustIndex(name)
	if r.cells[i][day].Locked {
		panic(fmt.Sprintf("roster: (%s, %d) already locked", name, day))
	}
	r.cells[i][day].Locked = true
}

// SetLocked assigns code to (name, day) with the given origin and locks it
// in one step -- the common case for Stage-1 fixes.
func (r *Roster) SetLocked(name string, day int, code shiftcode.Code, origin Origin) {
	r.Set(name, day, code, origin)
	r.Lock(name, day)
}

// Overwrite replaces the code at a mutable (non-locked) cell, used by repair
// passes. Panics if the cell is locked.
func (r *Roster) Overwrite(name string, day int, code shiftcode.Code, origin Origin) {
	if r.IsLocked(name, day) {
		panic(fmt.Sprintf("roster: cannot overwrite locked cell (%s, %d)", name, day))
	}
	r.Set(name, day, code, origin)
}

// OffScore returns the nurse's total weighted off-score across every day
// (full-off = 1, half-off = 0.5, × treated as full-off), computed with exact
// decimal arithmetic so repeated half-point increments never drift.
func (r *Roster) OffScore(name string) decimal.Decimal {
	i := r.mustIndex(name)
	total := decimal.Zero
	for _, c := range r.cells[i] {
		if c.isEmpty() {
			continue
		}
		total = total.Add(decimal.NewFromFloat(shiftcode.OffWeight(c.Code)))
	}
	return total
}

// WorkCount returns, for a single day, the number of nurses whose cell on
// that day is neither empty nor an off code (i.e. "on duty").
func (r *Roster) WorkCount(day int) int {
	count := 0
	for _, n := range r.nurses {
		c := r.Get(n.Name, day)
		if c.isEmpty() {
			continue
		}
		if !shiftcode.IsOff(c.Code) {
			count++
		}
	}
	return count
}

// Clone returns a deep copy of the roster, used by idempotence tests that
// run a pass twice and compare the result against a saved snapshot.
func (r *Roster) Clone() *Roster {
	out := &Roster{
		nurses: r.nurses,
		days:   r.days,
		cells:  make([][]Cell, len(r.cells)),
		index:  r.index,
	}
	for i, row := range r.cells {
		out.cells[i] = append([]Cell(nil), row...)
	}
	return out
}

// Equal reports whether two rosters over the same nurse set hold identical
// cell values, used by idempotence tests.
func (r *Roster) Equal(other *Roster) bool {
	if r.days != other.days || len(r.cells) != len(other.cells) {
		return false
	}
	for i := range r.cells {
		for d := 0; d < r.days; d++ {
			if r.cells[i][d] != other.cells[i][d] {
				return false
			}
		}
	}
	return true
}
