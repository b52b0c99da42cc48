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
	"github.com/overminder/grinder/lifetime"
	"github.com/overminder/grinder/liveness"
)

// processCurrentIx assigns curIx a register, splitting it (or a conflicting
// range) as needed (spec §4.2).
func (a *Allocator) processCurrentIx(curIx int, pos lifetime.Position) {
	current := a.Ranges[curIx]
	if current.HasRegAssigned() {
		// Fixed (Machine) ranges are pre-colored in New(); just place them
		// in active so the free-register scan below sees them as blocking
		// for exactly their own lifetime (spec §9 OQ3).
		a.Active = append(a.Active, curIx)
		return
	}

	if a.tryAllocateFreeReg(curIx, current) {
		a.Active = append(a.Active, curIx)
		return
	}
	a.allocateBlockedReg(curIx, current, pos)
}

// findFreeUntilRegs returns, per machine register, the earliest position at
// which it stops being free for current: the zero position if an active
// range already holds it, the first intersection point if an inactive range
// holds it and will later collide with current, or lifetime.Max if nothing
// ever conflicts (spec §4.2's free-until-register probe).
func (a *Allocator) findFreeUntilRegs(current *liveness.LiveRange) []lifetime.Position {
	freeUntil := make([]lifetime.Position, a.NumRegsAvailable)
	for i := range freeUntil {
		freeUntil[i] = lifetime.Max()
	}

	for _, ix := range a.Active {
		r := a.Ranges[ix]
		if idx, ok := regIndex(r, a.NumRegsAvailable); ok {
			freeUntil[idx] = lifetime.Position{}
		}
	}
	for _, ix := range a.Inactive {
		r := a.Ranges[ix]
		idx, ok := regIndex(r, a.NumRegsAvailable)
		if !ok {
			continue
		}
		if p, ok := current.FirstIntersection(r); ok && p.Less(freeUntil[idx]) {
			freeUntil[idx] = p
		}
	}
	return freeUntil
}

// regIndex returns r's assigned machine register as a slot index, if it has
// one within the allocatable range (the ABI stack pointer lives just past
// NumRegsAvailable and is never a candidate here).
func regIndex(r *liveness.LiveRange, numRegsAvailable int) (int, bool) {
	if !r.HasRegAssigned() {
		return 0, false
	}
	reg := r.AssignedReg()
	if !reg.IsMachine() || int(reg.Index) >= numRegsAvailable {
		return 0, false
	}
	return int(reg.Index), true
}

func largestPosReg(pos []lifetime.Position) (int, lifetime.Position) {
	best := 0
	for i := 1; i < len(pos); i++ {
		if pos[best].Less(pos[i]) {
			best = i
		}
	}
	return best, pos[best]
}

// tryAllocateFreeReg implements spec §4.2's first branch: find the register
// free for the longest stretch; if that stretch covers current's whole
// remaining lifetime, assign outright, otherwise split current at the
// conflict point and requeue the tail. Returns false if every register is
// blocked from the very start of current's first interval, signalling the
// caller must instead evict or split someone.
func (a *Allocator) tryAllocateFreeReg(curIx int, current *liveness.LiveRange) bool {
	freeUntil := a.findFreeUntilRegs(current)
	reg, until := largestPosReg(freeUntil)

	if !current.FirstInterval().Start.Less(until) {
		return false
	}

	current.SetAssignedReg(instr.MachineReg(uint32(reg)))
	if current.LastInterval().End.LessEq(until) {
		return true
	}
	a.splitAndRequeue(curIx, until)
	return true
}
