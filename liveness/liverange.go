// Copyright (c) 2024 The Falcon Contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

// Package liveness turns a single basic block's instruction sequence into a
// sorted list of per-register LiveRanges (spec §4.1), grounded on falcon's
// computeGenKillMap/buildIntervals and the original Rust analyze_block_liveness.
package liveness

import (
	"fmt"

	"github.com/overminder/grinder/instr"
	"github.com/overminder/grinder/internal/assertlib"
	"github.com/overminder/grinder/lifetime"
)

// UseKind distinguishes a register read from a register write at a position.
type UseKind uint8

const (
	Input UseKind = iota
	Output
)

func (k UseKind) String() string {
	if k == Output {
		return "output"
	}
	return "input"
}

// UsePosition is (position, context): the register, whether it's read or
// written, and the stable operand reference needed to rewrite it later.
type UsePosition struct {
	Position lifetime.Position
	Reg      instr.Reg
	Kind     UseKind
	Loc      instr.OperandLocation
}

func (p UsePosition) IsInput() bool  { return p.Kind == Input }
func (p UsePosition) IsOutput() bool { return p.Kind == Output }

// Less sorts by (position, register) — spec §3's sort key for UsePosition.
func (p UsePosition) Less(o UsePosition) bool {
	if !p.Position.Equal(o.Position) {
		return p.Position.Less(o.Position)
	}
	return p.Reg.Less(o.Reg)
}

func (p UsePosition) String() string {
	return fmt.Sprintf("%s@%s(%s)", p.Reg, p.Position, p.Kind)
}

// LiveRange is a single register's lifetime: a sorted list of non-overlapping
// intervals plus the use positions within them (spec §3).
type LiveRange struct {
	Intervals []lifetime.UseInterval
	Positions []UsePosition

	Assigned *instr.Reg // the machine register chosen for this range, if any

	// SplitTo holds the index (into the owning allocator's range slice) of
	// the splinter produced when this range was split. nil until split.
	SplitTo *int
	// IsSplinter is true for ranges produced by a split.
	IsSplinter bool

	// SpillAt, if set, is the gap position (always a GAP_START) where this
	// range's assigned register must be stored to its spill slot: set on the
	// parent half of a split whose splinter needs its value reloaded from
	// memory rather than handed off register-to-register.
	SpillAt *lifetime.Position
	// ReloadAt, if set, is the gap position (always a GAP_END) where this
	// range's assigned register must be loaded back from its spill slot:
	// set on the splinter half of such a split.
	ReloadAt *lifetime.Position
}

func NewLiveRange() *LiveRange { return &LiveRange{} }

// Reg returns the register this range is for: its first use position's
// register (invariant: all positions in a range share one register).
func (r *LiveRange) Reg() instr.Reg { return r.Positions[0].Reg }

func (r *LiveRange) IsFor(reg instr.Reg) bool {
	return len(r.Positions) > 0 && r.Reg() == reg
}

func (r *LiveRange) HasRegAssigned() bool { return r.Assigned != nil }

func (r *LiveRange) SetAssignedReg(m instr.Reg) {
	assertAssignable(r)
	r.Assigned = &m
}

func (r *LiveRange) AssignedReg() instr.Reg {
	if r.Assigned == nil {
		assertlib.Fatalf("range for %s has no assigned register", r.Reg())
	}
	return *r.Assigned
}

func (r *LiveRange) AddInterval(iv lifetime.UseInterval) {
	r.Intervals = append(r.Intervals, iv)
}

func (r *LiveRange) AddPosition(p UsePosition) {
	r.Positions = append(r.Positions, p)
}

func (r *LiveRange) FirstInterval() lifetime.UseInterval { return r.Intervals[0] }
func (r *LiveRange) LastInterval() lifetime.UseInterval  { return r.Intervals[len(r.Intervals)-1] }
func (r *LiveRange) FirstPos() UsePosition                { return r.Positions[0] }
func (r *LiveRange) LastPos() UsePosition                 { return r.Positions[len(r.Positions)-1] }

// Contains reports whether pos lies within any of this range's intervals.
func (r *LiveRange) Contains(pos lifetime.Position) bool {
	for _, iv := range r.Intervals {
		if iv.Contains(pos) {
			return true
		}
	}
	return false
}

// FirstIntersection returns the earliest position at which r and other's
// intervals overlap, scanning both interval lists as the Rust prototype does.
func (r *LiveRange) FirstIntersection(other *LiveRange) (lifetime.Position, bool) {
	for _, a := range r.Intervals {
		for _, b := range other.Intervals {
			if p, ok := a.FirstIntersection(b); ok {
				return p, true
			}
		}
	}
	return lifetime.Position{}, false
}

// NextUseAfter returns the earliest use position strictly after pos, or
// (zero, false) if none exists (treated as lifetime.Max by callers).
func (r *LiveRange) NextUseAfter(pos lifetime.Position) (lifetime.Position, bool) {
	for _, u := range r.Positions {
		if pos.Less(u.Position) {
			return u.Position, true
		}
	}
	return lifetime.Position{}, false
}

// sortInterior sorts intervals by start and positions by (position, reg),
// per spec §4.1's final step.
func (r *LiveRange) sortInterior() {
	sortIntervalsByStart(r.Intervals)
	sortPositions(r.Positions)
}

// CmpByFirstStart orders ranges by first-interval start, register as
// tiebreak, for deterministic output (spec §4.1).
func (r *LiveRange) CmpByFirstStart(o *LiveRange) int {
	rs, os := r.FirstInterval().Start, o.FirstInterval().Start
	if !rs.Equal(os) {
		if rs.Less(os) {
			return -1
		}
		return 1
	}
	if r.Reg() == o.Reg() {
		return 0
	}
	if r.Reg().Less(o.Reg()) {
		return -1
	}
	return 1
}

func (r *LiveRange) String() string {
	return fmt.Sprintf("LiveRange{%s %v %v}", r.Reg(), r.Intervals, r.Positions)
}

func assertAssignable(r *LiveRange) {
	if r.Assigned != nil {
		assertlib.Fatalf("range for %s already has a register assigned (%s)", r.Reg(), *r.Assigned)
	}
}
