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

// Package regalloc is the linear-scan allocator proper (spec §4): the
// unhandled/active/inactive/handled worklist, free-register selection,
// range splitting, and the two commit phases that rewrite operands and
// materialize spill/reload moves. Grounded on falcon's LSRA
// (compile/codegen/lsra.go) and the original Rust prototype's LinearScan.
package regalloc

import (
	"sort"

	"github.com/overminder/grinder/lifetime"
	"github.com/overminder/grinder/liveness"
)

// Allocator owns every LiveRange by index. Active/inactive/unhandled/handled
// are index sets, not pointers, so that splitting (which appends new ranges)
// never invalidates a reference held by another set — exactly the ownership
// model the original prototype's LinearScan and falcon's LSRA both use.
type Allocator struct {
	Ranges           []*liveness.LiveRange
	NumRegsAvailable int

	Unhandled []int // sorted descending by first-start; pop() yields smallest
	Active    []int
	Inactive  []int
	Handled   []int

	Diagnostics []liveness.Diagnostic
}

// New builds an allocator from a completed liveness analysis. Ranges with no
// use positions (dead on arrival) are dropped — nothing depends on them.
func New(ranges []*liveness.LiveRange, numRegsAvailable int) *Allocator {
	a := &Allocator{
		Ranges:           append([]*liveness.LiveRange(nil), ranges...),
		NumRegsAvailable: numRegsAvailable,
	}
	for i, r := range a.Ranges {
		if len(r.Positions) == 0 {
			continue
		}
		if r.Reg().IsMachine() {
			// Fixed ranges reserve their register for their exact lifetime
			// (spec §9 OQ3) but never compete in the free-register scan:
			// give them the assigned register up front and drop them
			// straight into active/inactive bookkeeping via the worklist
			// like any other range — findFreeUntilRegs treats any active
			// or inactive range's AssignedReg as blocking regardless of how
			// it came to be assigned.
			m := r.Reg()
			r.SetAssignedReg(m)
		}
		a.addUnhandled(i)
	}
	a.checkFixedRangesDisjoint()
	a.sortUnhandled()
	return a
}

func (a *Allocator) addUnhandled(ix int) {
	a.Unhandled = append(a.Unhandled, ix)
}

// sortUnhandled orders Unhandled descending by first-interval start so that
// popping the tail yields the range starting earliest, same as the original
// prototype's sort_unhandled/pop pairing.
func (a *Allocator) sortUnhandled() {
	sort.Slice(a.Unhandled, func(i, j int) bool {
		return a.Ranges[a.Unhandled[i]].CmpByFirstStart(a.Ranges[a.Unhandled[j]]) > 0
	})
}

func (a *Allocator) popUnhandled() int {
	n := len(a.Unhandled)
	ix := a.Unhandled[n-1]
	a.Unhandled = a.Unhandled[:n-1]
	return ix
}

func (a *Allocator) rangeAt(ix int) *liveness.LiveRange { return a.Ranges[ix] }

// addRange appends a freshly split range and returns its index.
func (a *Allocator) addRange(r *liveness.LiveRange) int {
	a.Ranges = append(a.Ranges, r)
	return len(a.Ranges) - 1
}

// Run executes the allocator's main loop (spec §4.2): repeatedly pop the
// range with the earliest start, retire/transition active and inactive sets
// for its position, then assign it a register (splitting as needed).
func (a *Allocator) Run() {
	for len(a.Unhandled) > 0 {
		curIx := a.popUnhandled()
		current := a.Ranges[curIx]
		pos := current.FirstInterval().Start

		a.shuffleActiveInactive(pos)
		a.processCurrentIx(curIx, pos)

		a.sortUnhandled()
	}
}

// shuffleActiveInactive moves active ranges whose last interval has ended
// to handled, active ranges that no longer cover pos to inactive,
// inactive ranges that now cover pos to active, and inactive ranges whose
// last interval has ended to handled. Retirement is checked before
// transition for both sets, matching spec §4.2/§9: a range that both stops
// covering pos and has no further interval retires rather than transitions.
func (a *Allocator) shuffleActiveInactive(pos lifetime.Position) {
	var stillActive, newInactive, newHandledFromActive []int
	for _, ix := range a.Active {
		r := a.Ranges[ix]
		if r.LastInterval().End.LessEq(pos) {
			newHandledFromActive = append(newHandledFromActive, ix)
		} else if !r.Contains(pos) {
			newInactive = append(newInactive, ix)
		} else {
			stillActive = append(stillActive, ix)
		}
	}

	var stillInactive, newActiveFromInactive, newHandledFromInactive []int
	for _, ix := range a.Inactive {
		r := a.Ranges[ix]
		if r.LastInterval().End.LessEq(pos) {
			newHandledFromInactive = append(newHandledFromInactive, ix)
		} else if r.Contains(pos) {
			newActiveFromInactive = append(newActiveFromInactive, ix)
		} else {
			stillInactive = append(stillInactive, ix)
		}
	}

	a.Active = append(stillActive, newActiveFromInactive...)
	a.Inactive = append(stillInactive, newInactive...)
	a.Handled = append(a.Handled, newHandledFromActive...)
	a.Handled = append(a.Handled, newHandledFromInactive...)
}
