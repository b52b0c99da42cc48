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
	"github.com/overminder/grinder/liveness"
)

// Result is what allocation reports besides the block it rewrites in place:
// how many spill slots the frame needs (counting the reserved slot 0 once
// any slot is used), and any non-fatal diagnostics surfaced during liveness
// analysis.
type Result struct {
	NumSpillSlots int
	Diagnostics   []liveness.Diagnostic
}

// Options is the allocator's only external configuration beyond
// numRegsAvailable: an optional sink for the dead-define diagnostics spec
// §7 describes, grounded on falcon's printGenKill/printIntervals trace dump
// (lsra.go allocate()). A nil Trace discards diagnostics; they are still
// returned in Result.Diagnostics either way.
type Options struct {
	Trace *assertlib.Trace
}

// Allocate runs the full pipeline over block: liveness analysis, linear
// scan, and both commit phases (spec §1's top-level entry point). block is
// mutated in place — operands are rewritten to machine registers and gap
// move lists gain any spill/reload traffic the allocation required.
func Allocate(block *instr.Block, numRegsAvailable int) Result {
	return AllocateWithOptions(block, numRegsAvailable, Options{})
}

// AllocateWithOptions is Allocate with the trace sink exposed.
func AllocateWithOptions(block *instr.Block, numRegsAvailable int, opts Options) Result {
	ranges, diags := liveness.Analyze(block)
	for _, d := range diags {
		opts.Trace.Warnf("%s", d)
	}

	alloc := New(ranges, numRegsAvailable)
	alloc.Run()

	alloc.CommitAssign(block)
	slots := NewSpillSlotAllocator(numRegsAvailable)
	alloc.CommitSpill(block, slots)

	return Result{
		NumSpillSlots: slots.NumSlotsUsed(),
		Diagnostics:   diags,
	}
}
