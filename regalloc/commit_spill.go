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
)

// slotWidth is the size in bytes of one spill slot; every virtual register
// gets a word-sized slot regardless of its real width, same simplification
// the instruction model already makes for operand widths.
const slotWidth = 8

// SpillSlotAllocator lazily assigns one stack slot per original virtual
// register, reused across every split of that register's live range, and
// synthesizes the Mov into/out of memory at each split boundary (spec §4.4,
// phase 2). Grounded on falcon's move resolver
// (compile/codegen/lsra_moveResolver.go), which performs the analogous job
// of materializing parallel moves into a block's gap.
type SpillSlotAllocator struct {
	numRegsAvailable int
	slots            map[instr.Reg]uint32
	next             uint32
}

// NewSpillSlotAllocator starts the slot counter at 1: slot index 0 is
// reserved (spec §4.5) rather than handed to the first spilled register, so
// that a zero slot index can never be mistaken for "no slot assigned yet"
// by anything inspecting the allocation after the fact.
func NewSpillSlotAllocator(numRegsAvailable int) *SpillSlotAllocator {
	return &SpillSlotAllocator{numRegsAvailable: numRegsAvailable, slots: map[instr.Reg]uint32{}, next: 1}
}

func (s *SpillSlotAllocator) slotIndexFor(reg instr.Reg) uint32 {
	if ix, ok := s.slots[reg]; ok {
		return ix
	}
	ix := s.next
	s.next++
	s.slots[reg] = ix
	return ix
}

// NumSlotsUsed reports how big the spill area of the stack frame must be.
// Zero means no register was ever spilled, so no frame space is needed at
// all — the reserved slot 0 only costs frame space once something has
// actually been assigned alongside it.
func (s *SpillSlotAllocator) NumSlotsUsed() int {
	if len(s.slots) == 0 {
		return 0
	}
	return int(s.next)
}

func (s *SpillSlotAllocator) memFor(reg instr.Reg) instr.MemOperand {
	return instr.MemOperand{
		Base:         instr.StackPointerReg(s.numRegsAvailable),
		Displacement: s.slotIndexFor(reg) * slotWidth,
	}
}

// CommitSpill walks every range's SpillAt/ReloadAt (set during splitting,
// spec §4.3 step 4) and materializes the corresponding move at the gap each
// position names (spec §4.5). A range whose split landed cleanly on an
// Output boundary carries neither field and contributes nothing — which is
// also what keeps running allocation twice over an already-allocated block
// a no-op (spec §8): on the second pass no splits happen at all, so neither
// field is ever set.
func (a *Allocator) CommitSpill(block *instr.Block, slots *SpillSlotAllocator) {
	for _, r := range a.Ranges {
		if r.SpillAt == nil && r.ReloadAt == nil {
			continue
		}

		original := r.Reg()
		slotMem := instr.MemOperand{}
		haveSlot := false
		slot := func() instr.MemOperand {
			if !haveSlot {
				slotMem = slots.memFor(original)
				haveSlot = true
			}
			return slotMem
		}

		if r.SpillAt != nil {
			// spill_at is a GAP_START, i.e. the gap before r.SpillAt's
			// instruction; spec §4.5 places the store in the gap after the
			// range's last use, which is the *previous* instruction's
			// end-of-gap list.
			gap := block.Instructions[r.SpillAt.InstrIndex-1]
			gap.ParallelMoves.AppendEnd(instr.Move{
				Dst: slot(),
				Src: instr.RegOperand{Reg: r.AssignedReg()},
			})
		}
		if r.ReloadAt != nil {
			gap := block.Instructions[r.ReloadAt.InstrIndex]
			gap.ParallelMoves.PrependStart(instr.Move{
				Dst: instr.RegOperand{Reg: r.AssignedReg()},
				Src: slot(),
			})
		}
	}
}
