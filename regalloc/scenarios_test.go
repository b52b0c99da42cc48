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
	"github.com/overminder/grinder/liveness"
)

// The five literal scenarios from spec.md §8, named the same way (S1..S4;
// S5 lives in sealgraph_test.go since it exercises the graph sibling).

// buildS1S2Block is the instruction sequence shared by S1 and S2:
//
//	0: mov v0, #42
//	1: mov v1, #0
//	2: add v1, v0
//	3: add v1, v0
//	4: mov m0, v1
//	5: ret m0
func buildS1S2Block() *instr.Block {
	v0 := instr.VirtualReg(0)
	v1 := instr.VirtualReg(1)
	m0 := instr.MachineReg(0)
	return instr.NewBlock(
		instr.NewInstruction(instr.OpMov, instr.RegOperand{Reg: v0}, instr.ImmOperand{Value: 42}),
		instr.NewInstruction(instr.OpMov, instr.RegOperand{Reg: v1}, instr.ImmOperand{Value: 0}),
		instr.NewInstruction(instr.OpAdd, instr.RegOperand{Reg: v1}, instr.RegOperand{Reg: v0}),
		instr.NewInstruction(instr.OpAdd, instr.RegOperand{Reg: v1}, instr.RegOperand{Reg: v0}),
		instr.NewInstruction(instr.OpMov, instr.RegOperand{Reg: m0}, instr.RegOperand{Reg: v1}),
		instr.NewInstruction(instr.OpRet, instr.RegOperand{Reg: m0}),
	)
}

// S1 — no-spill, 4 registers: v0 and v1 each get their own machine
// register and no spill/reload moves are emitted.
func TestScenarioS1NoSpillWithFourRegisters(t *testing.T) {
	block := buildS1S2Block()
	ranges, diags := liveness.Analyze(block)
	require.Empty(t, diags)
	require.Len(t, ranges, 3) // v0, v1, and the fixed m0

	result := Allocate(block, 4)
	assert.Equal(t, 0, result.NumSpillSlots)

	for _, in := range block.Instructions {
		assert.Empty(t, in.ParallelMoves.StartOfGap)
		assert.Empty(t, in.ParallelMoves.EndOfGap)
		for _, op := range in.Operands {
			if r, ok := op.(instr.RegOperand); ok {
				assert.True(t, r.Reg.IsMachine())
			}
		}
	}
}

// S2 — partial fit triggers a split without a spill: with only 2 registers,
// v0 and v1's overlapping lifetimes force one range to split at an interval
// boundary, but since the cut lands on an Output no move is needed.
func TestScenarioS2PartialFitSplitsWithoutSpill(t *testing.T) {
	block := buildS1S2Block()
	result := Allocate(block, 2)

	assert.Equal(t, 0, result.NumSpillSlots)
	for _, in := range block.Instructions {
		assert.Empty(t, in.ParallelMoves.StartOfGap)
		assert.Empty(t, in.ParallelMoves.EndOfGap)
	}
	for _, in := range block.Instructions {
		for _, op := range in.Operands {
			if r, ok := op.(instr.RegOperand); ok {
				require.True(t, r.Reg.IsMachine())
			}
		}
	}
}

// S3 — spill path with 2 registers and 4 virtuals:
//
//	0: mov v0, #0
//	1: mov v1, #1
//	2: mov v2, #2
//	3: mov v3, #3
//	4: add v0, v1
//	5: add v0, v2
//	6: add v0, v3
//	7: ret v0
//
// must split at least one range mid-interval, producing exactly one
// spill/reload pair.
func TestScenarioS3SpillPathWithFourVirtualsTwoRegisters(t *testing.T) {
	v0 := instr.VirtualReg(0)
	v1 := instr.VirtualReg(1)
	v2 := instr.VirtualReg(2)
	v3 := instr.VirtualReg(3)
	block := instr.NewBlock(
		instr.NewInstruction(instr.OpMov, instr.RegOperand{Reg: v0}, instr.ImmOperand{Value: 0}),
		instr.NewInstruction(instr.OpMov, instr.RegOperand{Reg: v1}, instr.ImmOperand{Value: 1}),
		instr.NewInstruction(instr.OpMov, instr.RegOperand{Reg: v2}, instr.ImmOperand{Value: 2}),
		instr.NewInstruction(instr.OpMov, instr.RegOperand{Reg: v3}, instr.ImmOperand{Value: 3}),
		instr.NewInstruction(instr.OpAdd, instr.RegOperand{Reg: v0}, instr.RegOperand{Reg: v1}),
		instr.NewInstruction(instr.OpAdd, instr.RegOperand{Reg: v0}, instr.RegOperand{Reg: v2}),
		instr.NewInstruction(instr.OpAdd, instr.RegOperand{Reg: v0}, instr.RegOperand{Reg: v3}),
		instr.NewInstruction(instr.OpRet, instr.RegOperand{Reg: v0}),
	)

	result := Allocate(block, 2)

	var spills, reloads int
	for _, in := range block.Instructions {
		spills += len(in.ParallelMoves.EndOfGap)
		reloads += len(in.ParallelMoves.StartOfGap)
	}
	assert.Equal(t, 1, spills)
	assert.Equal(t, 1, reloads)
	assert.Equal(t, 2, result.NumSpillSlots) // one real slot plus the reserved slot 0

	for _, in := range block.Instructions {
		for _, op := range in.Operands {
			if r, ok := op.(instr.RegOperand); ok {
				require.True(t, r.Reg.IsMachine())
			}
		}
	}
}

// S4 — dead define: an output with no subsequent input produces a
// diagnostic and no live range, and allocation completes without touching
// it.
func TestScenarioS4DeadDefineWarnsAndCompletes(t *testing.T) {
	v0 := instr.VirtualReg(0)
	v1 := instr.VirtualReg(1)
	block := instr.NewBlock(
		instr.NewInstruction(instr.OpMov, instr.RegOperand{Reg: v0}, instr.ImmOperand{Value: 1}),
		instr.NewInstruction(instr.OpMov, instr.RegOperand{Reg: v1}, instr.ImmOperand{Value: 2}),
		instr.NewInstruction(instr.OpRet, instr.RegOperand{Reg: v1}),
	)

	result := Allocate(block, 2)

	require.Len(t, result.Diagnostics, 1)
	assert.Contains(t, result.Diagnostics[0].String(), "v0")

	// v0's dead mov is left with its virtual register untouched — nothing
	// ever claimed it.
	dst := block.Instructions[0].Operands[0].(instr.RegOperand).Reg
	assert.True(t, dst.IsVirtual())

	ret := block.Instructions[2].Operands[0].(instr.RegOperand).Reg
	assert.True(t, ret.IsMachine())
}
