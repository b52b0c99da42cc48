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

// Command lsrademo builds a tiny instruction block by hand, runs the linear
// scan allocator over it with a deliberately small register file, and prints
// the result: rewritten operands, any spill/reload moves inserted into the
// gaps, and the number of stack slots the allocation needed.
package main

import (
	"flag"
	"fmt"

	"github.com/overminder/grinder/instr"
	"github.com/overminder/grinder/regalloc"
)

func buildBlock() *instr.Block {
	v0 := instr.VirtualReg(0)
	v1 := instr.VirtualReg(1)

	return instr.NewBlock(
		instr.NewInstruction(instr.OpMov, instr.RegOperand{Reg: v0}, instr.ImmOperand{Value: 1}),
		instr.NewInstruction(instr.OpMov, instr.RegOperand{Reg: v1}, instr.ImmOperand{Value: 2}),
		instr.NewInstruction(instr.OpAdd, instr.RegOperand{Reg: v0}, instr.RegOperand{Reg: v1}),
		instr.NewInstruction(instr.OpRet, instr.RegOperand{Reg: v0}),
	)
}

func printBlock(block *instr.Block) {
	for i, in := range block.Instructions {
		for _, m := range in.ParallelMoves.StartOfGap {
			fmt.Printf("      %s\n", m)
		}
		for _, m := range in.ParallelMoves.EndOfGap {
			fmt.Printf("      %s\n", m)
		}
		fmt.Printf("  i%d: %s\n", i, in)
	}
}

func main() {
	numRegs := flag.Int("regs", 1, "number of machine registers available to the allocator")
	flag.Parse()

	block := buildBlock()
	result := regalloc.Allocate(block, *numRegs)

	fmt.Printf("allocated with %d machine register(s), %d spill slot(s):\n", *numRegs, result.NumSpillSlots)
	printBlock(block)

	for _, d := range result.Diagnostics {
		fmt.Println("diagnostic:", d)
	}
}
