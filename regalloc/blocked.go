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

package regalloc

import (
	"github.com/overminder/grinder/instr"
	"github.com/overminder/grinder/internal/assertlib"
	"github.com/overminder/grinder/lifetime"
	"github.com/overminder/grinder/liveness"
)

// splitAndRequeue splits the range at curIx at at, keeping the prefix (still
// holding its just-assigned register) at curIx and pushing the unassigned
// suffix back onto Unhandled as a fresh splinter.
func (a *Allocator) splitAndRequeue(curIx int, at lifetime.Position) int {
	tail := a.Ranges[curIx].SplitAt(at)
	tailIx := a.addRange(tail)
	splitTo := tailIx
	a.Ranges[curIx].SplitTo = &splitTo
	a.addUnhandled(tailIx)
	return tailIx
}

// allocateBlockedReg handles the case where every machine register is
// already occupied at current's first interval start (spec §4.2's blocked
// branch). It picks the register whose occupant has the furthest next use,
// then compares that next use against current's own first use:
//   - earlier than current's first use: every candidate is more urgently
//     needed by its occupant than current would even use it, so evicting
//     anyone helps no one — current is itself split at its own first use
//     (§9 OQ1) and the unusable prefix retires with no register at all.
//   - exactly at current's first use: both ranges need a register at the
//     very same position, which no split can resolve — fatal.
//   - later than current's first use (whether or not it reaches all the
//     way past current's own last use): the occupant is evicted, split
//     right where current starts needing the register, and current takes
//     its place. evictActiveReg is a no-op when the winning register has no
//     active occupant at all (its contributor was merely inactive), so this
//     single branch also covers the "register is entirely free" case
//     without needing to special-case it.
//
// current's first use always coincides with pos here (both equal
// current.FirstInterval().Start, for every range this package ever builds —
// see DESIGN.md's Open Question notes), and every candidate's next-use is
// always strictly later than pos. So in this single-block allocator the
// first case below is dead: DESIGN.md keeps it recorded as the resolution
// of §9 OQ1 rather than deleted, since a multi-block allocator with
// fixed-use positions not aligned to interval starts could reach it.
func (a *Allocator) allocateBlockedReg(curIx int, current *liveness.LiveRange, pos lifetime.Position) {
	nextUse := a.findNextUseRegs(current, pos)
	bestReg, bestNextUse := largestPosReg(nextUse)
	firstPos := current.FirstPos().Position

	switch {
	case bestNextUse.Less(firstPos):
		tail := current.SplitAt(firstPos)
		tailIx := a.addRange(tail)
		splitTo := tailIx
		current.SplitTo = &splitTo
		a.Handled = append(a.Handled, curIx)
		a.addUnhandled(tailIx)

	case bestNextUse.Equal(firstPos):
		assertlib.Fatalf("too many register uses at one position: %s", firstPos)

	default:
		a.evictActiveReg(bestReg, firstPos)
		current.SetAssignedReg(instr.MachineReg(uint32(bestReg)))
		a.Active = append(a.Active, curIx)
	}
}

// findNextUseRegs returns, per machine register, the position of the next
// use (strictly after pos) of whichever range currently holds it: active
// ranges contribute their own NextUseAfter, inactive ranges instead
// contribute the first point at which they'd collide with current at all
// (first_intersection), since an inactive range has no use of its own
// between its gaps but still reserves the register once it resumes
// covering current's lifetime. A register held by nothing live, or whose
// holder has no further use, is maximally free.
func (a *Allocator) findNextUseRegs(current *liveness.LiveRange, pos lifetime.Position) []lifetime.Position {
	nextUse := make([]lifetime.Position, a.NumRegsAvailable)
	for i := range nextUse {
		nextUse[i] = lifetime.Max()
	}
	for _, ix := range a.Active {
		r := a.Ranges[ix]
		idx, ok := regIndex(r, a.NumRegsAvailable)
		if !ok {
			continue
		}
		if u, ok := r.NextUseAfter(pos); ok {
			nextUse[idx] = u
		}
	}
	for _, ix := range a.Inactive {
		r := a.Ranges[ix]
		idx, ok := regIndex(r, a.NumRegsAvailable)
		if !ok {
			continue
		}
		if p, ok := current.FirstIntersection(r); ok && p.Less(nextUse[idx]) {
			nextUse[idx] = p
		}
	}
	return nextUse
}

// evictActiveReg removes the active range holding reg and splits it at pos:
// the (already-handled) prefix keeps its register assignment, the
// unassigned suffix is requeued to compete for a register again.
func (a *Allocator) evictActiveReg(reg int, pos lifetime.Position) {
	for i, ix := range a.Active {
		r := a.Ranges[ix]
		idx, ok := regIndex(r, a.NumRegsAvailable)
		if !ok || idx != reg {
			continue
		}
		a.Active = append(a.Active[:i], a.Active[i+1:]...)

		if pos.LessEq(r.LastPos().Position) {
			tail := r.SplitAt(pos)
			tailIx := a.addRange(tail)
			splitTo := tailIx
			r.SplitTo = &splitTo
			a.addUnhandled(tailIx)
		}
		a.Handled = append(a.Handled, ix)
		return
	}
}
