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

package instr

import (
	"fmt"
	"strings"

	"github.com/overminder/grinder/internal/assertlib"
)

// Opcode is deliberately tiny: just enough to exercise has-destination /
// reads-destination classification (spec §3). A real backend's opcode table
// is out of this module's scope.
type Opcode uint8

const (
	OpMov Opcode = iota
	OpAdd
	OpRet
)

// HasDestination reports whether operand 0 is a register destination.
func (op Opcode) HasDestination() bool {
	switch op {
	case OpMov, OpAdd:
		return true
	case OpRet:
		return false
	}
	assertlib.Fatalf("unknown opcode %d", op)
	return false
}

// ReadsDestination is true for read-modify-write ops like Add, false for
// pure writes like Mov.
func (op Opcode) ReadsDestination() bool {
	switch op {
	case OpAdd:
		return true
	case OpMov, OpRet:
		return false
	}
	assertlib.Fatalf("unknown opcode %d", op)
	return false
}

func (op Opcode) String() string {
	switch op {
	case OpMov:
		return "mov"
	case OpAdd:
		return "add"
	case OpRet:
		return "ret"
	}
	return "<unknown opcode>"
}

// Move is a single dst <- src parallel move, materialized into a gap by the
// spilling commit phase (spec §4.5).
type Move struct {
	Dst Operand
	Src Operand
}

func (m Move) String() string { return fmt.Sprintf("%s <- %s", m.Dst, m.Src) }

// ParallelMoves holds the two ordered move lists attached to an
// instruction's two gap positions (spec §3).
type ParallelMoves struct {
	StartOfGap []Move
	EndOfGap   []Move
}

// PrependStart inserts a move at the front of the start-of-gap list. Reloads
// are prepended (spec §5): each new reload goes in front of every move
// already recorded in that gap, so within one gap the reloads appear in the
// reverse of the order they were emitted.
func (pm *ParallelMoves) PrependStart(m Move) {
	pm.StartOfGap = append([]Move{m}, pm.StartOfGap...)
}

// AppendEnd appends a move to the end-of-gap list. Spills are appended.
func (pm *ParallelMoves) AppendEnd(m Move) {
	pm.EndOfGap = append(pm.EndOfGap, m)
}

// Instruction is (opcode, operands, parallel_moves). Operand 0 is the
// destination when HasDestination is true; sources follow.
type Instruction struct {
	Op            Opcode
	Operands      []Operand
	ParallelMoves ParallelMoves
}

func NewInstruction(op Opcode, operands ...Operand) *Instruction {
	return &Instruction{Op: op, Operands: operands}
}

func (in *Instruction) dst() (Operand, bool) {
	if !in.Op.HasDestination() {
		return nil, false
	}
	return in.Operands[0], true
}

func (in *Instruction) src() Operand {
	ix := 0
	if in.Op.HasDestination() {
		ix = 1
	}
	return in.Operands[ix]
}

// RegUse pairs a stable operand location with the register found there.
type RegUse struct {
	Loc OperandLocation
	Reg Reg
}

// Outputs returns the destination register at instrIx, if the opcode has a
// destination and it is a register (not memory or immediate) — spec §6.
func Outputs(instrIx int, in *Instruction) (RegUse, bool) {
	dst, ok := in.dst()
	if !ok {
		return RegUse{}, false
	}
	if r, ok := dst.(RegOperand); ok {
		return RegUse{Loc: OperandLocation{InstrIndex: instrIx, Side: Dst, Slot: SlotReg}, Reg: r.Reg}, true
	}
	return RegUse{}, false
}

// Inputs returns every register read by the instruction at instrIx: the
// source operand's register(s), a destination read when ReadsDestination
// holds, and the base/index of any memory operand (spec §6). The order
// matches the original prototype: source registers first, then destination
// registers, so liveness use-position ordering is deterministic.
func Inputs(instrIx int, in *Instruction) []RegUse {
	var uses []RegUse

	appendOperand := func(side Side, op Operand, includeRegRead bool) {
		switch o := op.(type) {
		case RegOperand:
			if includeRegRead {
				uses = append(uses, RegUse{Loc: OperandLocation{InstrIndex: instrIx, Side: side, Slot: SlotReg}, Reg: o.Reg})
			}
		case MemOperand:
			uses = append(uses, RegUse{Loc: OperandLocation{InstrIndex: instrIx, Side: side, Slot: SlotMemBase}, Reg: o.Base})
			if o.Index != nil {
				uses = append(uses, RegUse{Loc: OperandLocation{InstrIndex: instrIx, Side: side, Slot: SlotMemIndex}, Reg: *o.Index})
			}
		case ImmOperand:
			// no register
		}
	}

	appendOperand(Src, in.src(), true)
	if dst, ok := in.dst(); ok {
		appendOperand(Dst, dst, in.Op.ReadsDestination())
	}
	return uses
}

// SetRegAt overwrites the register found at loc with reg, in place. It is a
// fatal invariant violation for loc to not match the operand's actual shape
// (spec §7: "commit-phase operand rewrite where the located operand does
// not match the expected shape").
func SetRegAt(in *Instruction, loc OperandLocation, reg Reg) {
	var op Operand
	switch loc.Side {
	case Dst:
		d, ok := in.dst()
		assertlib.Assert(ok, "SetRegAt: instruction %v has no destination for %v", in, loc)
		op = d
	case Src:
		op = in.src()
	}

	switch loc.Slot {
	case SlotReg:
		r, ok := op.(RegOperand)
		assertlib.Assert(ok, "SetRegAt: operand at %v is not a register operand: %v", loc, op)
		r.Reg = reg
		in.setOperandAt(loc.Side, r)
	case SlotMemBase:
		m, ok := op.(MemOperand)
		assertlib.Assert(ok, "SetRegAt: operand at %v is not a memory operand: %v", loc, op)
		m.Base = reg
		in.setOperandAt(loc.Side, m)
	case SlotMemIndex:
		m, ok := op.(MemOperand)
		assertlib.Assert(ok, "SetRegAt: operand at %v is not a memory operand: %v", loc, op)
		assertlib.Assert(m.Index != nil, "SetRegAt: memory operand at %v has no index: %v", loc, op)
		idx := reg
		m.Index = &idx
		in.setOperandAt(loc.Side, m)
	default:
		assertlib.Fatalf("SetRegAt: unknown slot %v", loc.Slot)
	}
}

func (in *Instruction) setOperandAt(side Side, op Operand) {
	ix := 0
	if side == Src {
		if in.Op.HasDestination() {
			ix = 1
		}
	}
	in.Operands[ix] = op
}

func (in *Instruction) String() string {
	parts := make([]string, len(in.Operands))
	for i, op := range in.Operands {
		parts[i] = op.String()
	}
	return fmt.Sprintf("%s %s", in.Op, strings.Join(parts, ", "))
}

// Block is a single basic block's straight-line instruction sequence. Multi-
// block control flow is out of this module's scope (spec §1).
type Block struct {
	Instructions []*Instruction
}

func NewBlock(instructions ...*Instruction) *Block {
	return &Block{Instructions: instructions}
}
