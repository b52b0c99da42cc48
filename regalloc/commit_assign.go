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

import "github.com/overminder/grinder/instr"

// CommitAssign rewrites every Virtual-register use position to the machine
// register its owning range was assigned (spec §4.4, phase 1). Ranges
// already pinned to a Machine register are skipped entirely: their operands
// already name the right register, and re-running SetRegAt on them would be
// a no-op at best — skipping them outright is what makes running the
// allocator twice over an already-allocated block idempotent (spec §8).
func (a *Allocator) CommitAssign(block *instr.Block) {
	for _, r := range a.Ranges {
		if len(r.Positions) == 0 {
			continue
		}
		if !r.Reg().IsVirtual() {
			continue
		}
		assigned := r.AssignedReg()
		for _, p := range r.Positions {
			instr.SetRegAt(block.Instructions[p.Loc.InstrIndex], p.Loc, assigned)
		}
	}
}
