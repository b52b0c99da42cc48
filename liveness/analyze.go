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

package liveness

import (
	"fmt"
	"sort"

	"github.com/overminder/grinder/instr"
	"github.com/overminder/grinder/internal/assertlib"
	"github.com/overminder/grinder/lifetime"
)

// Diagnostic is a non-fatal observation surfaced during analysis, e.g. an
// output that is never read. Ported from the original prototype's
// "[WARN] Unused output: {output} @ {instr_ix}" println, turned into a
// returned value instead of an ad hoc stderr write so callers decide what
// to do with it.
type Diagnostic struct {
	Message string
}

func (d Diagnostic) String() string { return d.Message }

// Analyze walks block backward from its last instruction to its first,
// producing one LiveRange per register defined somewhere in the block (spec
// §4.1). A register defines its destination at the *end* of the defining
// instruction and reads its sources at the *start* of the reading
// instruction; every def closes an interval running from that def up to the
// last already-seen use, then the two halves merge into whichever LiveRange
// already exists for that register, or a new one. A register read but never
// defined anywhere in the block is a malformed input, not a pure live-in —
// this module's single-block scope (spec §1) has no notion of cross-block
// liveness, so every use must be dominated by a define within the same
// block; the sweep fatally rejects anything left over (spec §4.1, §7).
// Ported directly from the original prototype's analyze_block_liveness.
func Analyze(block *instr.Block) ([]*LiveRange, []Diagnostic) {
	pending := map[instr.Reg][]UsePosition{} // uses seen so far, ascending by position
	byReg := map[instr.Reg]*LiveRange{}
	var ranges []*LiveRange
	var diags []Diagnostic

	rangeFor := func(reg instr.Reg) *LiveRange {
		if lr, ok := byReg[reg]; ok {
			return lr
		}
		lr := NewLiveRange()
		byReg[reg] = lr
		ranges = append(ranges, lr)
		return lr
	}

	instrs := block.Instructions
	for ix := len(instrs) - 1; ix >= 0; ix-- {
		in := instrs[ix]
		posEnd := lifetime.NewInstrEnd(ix)
		posStart := lifetime.NewInstrStart(ix)

		if out, ok := instr.Outputs(ix, in); ok {
			uses, ok := pending[out.Reg]
			if !ok {
				diags = append(diags, Diagnostic{
					Message: fmt.Sprintf("unused output %s @ instruction %d", out.Reg, ix),
				})
			} else {
				delete(pending, out.Reg)
				lr := rangeFor(out.Reg)
				lr.AddInterval(lifetime.NewInterval(posEnd, uses[len(uses)-1].Position))
				lr.AddPosition(UsePosition{Position: posEnd, Reg: out.Reg, Kind: Output, Loc: out.Loc})
				for _, u := range uses {
					lr.AddPosition(u)
				}
			}
		}

		for _, in2 := range instr.Inputs(ix, in) {
			entry := UsePosition{Position: posStart, Reg: in2.Reg, Kind: Input, Loc: in2.Loc}
			pending[in2.Reg] = append([]UsePosition{entry}, pending[in2.Reg]...)
		}
	}

	if len(pending) > 0 {
		regs := make([]instr.Reg, 0, len(pending))
		for reg := range pending {
			regs = append(regs, reg)
		}
		assertlib.Fatalf("input use of register(s) %v with no preceding define in block", regs)
	}

	for _, lr := range ranges {
		lr.sortInterior()
	}
	sort.Slice(ranges, func(i, j int) bool { return ranges[i].CmpByFirstStart(ranges[j]) < 0 })

	return ranges, diags
}

func sortIntervalsByStart(ivs []lifetime.UseInterval) {
	sort.Slice(ivs, func(i, j int) bool { return ivs[i].Start.Less(ivs[j].Start) })
}

func sortPositions(ps []UsePosition) {
	sort.Slice(ps, func(i, j int) bool { return ps[i].Less(ps[j]) })
}
