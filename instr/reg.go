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

// Package instr is the instruction-model collaborator the allocator runs
// against (spec §6): opcodes, operands, and the Outputs/Inputs/SetRegAt
// contract. It intentionally knows nothing about addressing modes beyond
// register/memory/immediate, multi-block control flow, or a real ISA —
// those are out of this module's scope (spec §1).
package instr

import "fmt"

// RegKind distinguishes the unbounded virtual register space from the
// bounded set of physical machine registers.
type RegKind uint8

const (
	Virtual RegKind = iota
	Machine
)

// Reg is a tagged union of Virtual(u32) and Machine(u32), compared and
// ordered by value (Kind, then Index).
type Reg struct {
	Kind  RegKind
	Index uint32
}

// VirtualReg constructs an unbounded virtual register.
func VirtualReg(index uint32) Reg { return Reg{Kind: Virtual, Index: index} }

// MachineReg constructs a physical register; callers are responsible for
// keeping Index < num_regs_available.
func MachineReg(index uint32) Reg { return Reg{Kind: Machine, Index: index} }

func (r Reg) IsVirtual() bool { return r.Kind == Virtual }
func (r Reg) IsMachine() bool { return r.Kind == Machine }

// Less gives Reg a total order: Virtual before Machine, then by index. Used
// to break ties deterministically when sorting use positions and ranges.
func (r Reg) Less(o Reg) bool {
	if r.Kind != o.Kind {
		return r.Kind < o.Kind
	}
	return r.Index < o.Index
}

// StackPointerReg names the ABI stack pointer used as the base of every
// spill slot. It intentionally sits one past the allocatable machine
// register indices (0..numRegsAvailable-1) so it can never be handed out by
// the allocator and never needs a reserved LiveRange of its own — unlike the
// original prototype, which hard-coded Reg::new_mach(100) as a placeholder,
// this ties the index to the register file actually in use.
func StackPointerReg(numRegsAvailable int) Reg {
	return MachineReg(uint32(numRegsAvailable))
}

func (r Reg) String() string {
	if r.Kind == Virtual {
		return fmt.Sprintf("v%d", r.Index)
	}
	return fmt.Sprintf("m%d", r.Index)
}
