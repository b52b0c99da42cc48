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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/overminder/grinder/instr"
)

// i0: v0 <- 1
// i1: v1 <- 2
// i2: v0 <- v0 + v1
// i3: ret v0
//
// v0 and v1 are simultaneously live across i1/i2, so with only one machine
// register available one of them must be spilled and reloaded.
func buildTwoLiveBlock() *instr.Block {
	v0 := instr.VirtualReg(0)
	v1 := instr.VirtualReg(1)
	return instr.NewBlock(
		instr.NewInstruction(instr.OpMov, instr.RegOperand{Reg: v0}, instr.ImmOperand{Value: 1}),
		instr.NewInstruction(instr.OpMov, instr.RegOperand{Reg: v1}, instr.ImmOperand{Value: 2}),
		instr.NewInstruction(instr.OpAdd, instr.RegOperand{Reg: v0}, instr.RegOperand{Reg: v1}),
		instr.NewInstruction(instr.OpRet, instr.RegOperand{Reg: v0}),
	)
}

func TestAllocateWithAmpleRegistersNeedsNoSpill(t *testing.T) {
	block := buildTwoLiveBlock()
	result := Allocate(block, 2)

	assert.Equal(t, 0, result.NumSpillSlots)
	assert.Empty(t, result.Diagnostics)

	for _, in := range block.Instructions {
		assert.Empty(t, in.ParallelMoves.StartOfGap)
		assert.Empty(t, in.ParallelMoves.EndOfGap)
		for _, op := range in.Operands {
			if r, ok := op.(instr.RegOperand); ok {
				assert.True(t, r.Reg.IsMachine(), "operand %v was not rewritten to a machine register", op)
			}
		}
	}
}

func TestAllocateWithOneRegisterForcesSpillAndReload(t *testing.T) {
	block := buildTwoLiveBlock()
	result := Allocate(block, 1)

	// One real slot is used, plus the reserved slot 0, so the frame needs
	// room for two.
	require.Equal(t, 2, result.NumSpillSlots)
	assert.Empty(t, result.Diagnostics)

	var spills, reloads int
	for _, in := range block.Instructions {
		spills += len(in.ParallelMoves.EndOfGap)
		reloads += len(in.ParallelMoves.StartOfGap)
	}
	assert.Equal(t, 1, spills)
	assert.Equal(t, 1, reloads)

	// Every surviving register operand was rewritten to the single machine
	// register available.
	for _, in := range block.Instructions {
		for _, op := range in.Operands {
			if r, ok := op.(instr.RegOperand); ok {
				require.True(t, r.Reg.IsMachine())
				assert.Equal(t, instr.MachineReg(0), r.Reg)
			}
		}
	}
}

func TestAllocateIsIdempotentOnAnAlreadyAllocatedBlock(t *testing.T) {
	block := buildTwoLiveBlock()
	first := Allocate(block, 1)

	// Re-running over the now fully machine-register-resident block must do
	// nothing: no further splits happen, so the second pass needs no slots
	// of its own and inserts no further moves.
	second := Allocate(block, 1)

	assert.Equal(t, 2, first.NumSpillSlots)
	assert.Equal(t, 0, second.NumSpillSlots)

	var spills, reloads int
	for _, in := range block.Instructions {
		spills += len(in.ParallelMoves.EndOfGap)
		reloads += len(in.ParallelMoves.StartOfGap)
	}
	assert.Equal(t, 1, spills)
	assert.Equal(t, 1, reloads)
}
