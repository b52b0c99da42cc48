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
	"github.com/overminder/grinder/internal/assertlib"
	"github.com/overminder/grinder/lifetime"
)

// SplitAt divides r at pos: r keeps every interval/position strictly before
// pos, and the returned splinter gets pos onward. pos must not fall before
// r's first position or after its last (it may equal either; splitting
// exactly at a range's own first use leaves a prefix with no use positions,
// which needs no register at all, while the splinter always keeps at least
// the last position). Any interval straddling pos is cut in two so both
// halves remain half-open and non-overlapping. When a reload is inserted,
// the splinter's first interval is then made to start exactly at its first
// use, since the value sits in memory until that reload.
//
// Whether the split needs a spill/reload move at all is decided by the kind
// of the splinter's first position: an Input falls in the middle of a use
// interval, so the value must round-trip through memory; an Output sits
// exactly on an interval boundary the split already landed on, so the two
// halves simply continue independently with no move at all. When a move is
// needed, the parent's spill and the splinter's reload are recorded at the
// gaps flanking the cut (spec §4.3 step 4), not a single shared gap — the
// parent may stop needing the register well before the splinter picks it up
// again.
func (r *LiveRange) SplitAt(pos lifetime.Position) *LiveRange {
	if pos.Less(r.FirstPos().Position) || r.LastPos().Position.Less(pos) {
		assertlib.Fatalf("SplitAt: %s is out of bounds for %s", pos, r)
	}

	splinter := NewLiveRange()

	var keptIntervals, movedIntervals []lifetime.UseInterval
	for _, iv := range r.Intervals {
		switch {
		case iv.End.LessEq(pos):
			keptIntervals = append(keptIntervals, iv)
		case pos.LessEq(iv.Start):
			movedIntervals = append(movedIntervals, iv)
		default:
			// pos falls strictly inside iv: cut it in two.
			keptIntervals = append(keptIntervals, lifetime.NewInterval(iv.Start, pos))
			movedIntervals = append(movedIntervals, lifetime.NewInterval(pos, iv.End))
		}
	}

	var keptPositions, movedPositions []UsePosition
	for _, p := range r.Positions {
		if p.Position.Less(pos) {
			keptPositions = append(keptPositions, p)
		} else {
			movedPositions = append(movedPositions, p)
		}
	}

	r.Intervals = keptIntervals
	r.Positions = keptPositions
	splinter.Intervals = movedIntervals
	splinter.Positions = movedPositions
	splinter.IsSplinter = true

	if len(keptPositions) > 0 && movedPositions[0].IsInput() {
		before := keptPositions[len(keptPositions)-1].Position
		after := movedPositions[0].Position
		spillAt := lifetime.GapAfter(before)
		reloadAt := lifetime.GapBefore(after)
		r.SpillAt = &spillAt
		splinter.ReloadAt = &reloadAt
		for len(splinter.Intervals) > 0 && splinter.Intervals[0].End.LessEq(after) {
			splinter.Intervals = splinter.Intervals[1:]
		}
		if len(splinter.Intervals) > 0 {
			splinter.Intervals[0].Start = after
		} else {
			splinter.Intervals = []lifetime.UseInterval{lifetime.NewInterval(after, lifetime.NewInstrEnd(after.InstrIndex))}
		}
	}
	// If keptPositions is empty, the parent fragment never held a live
	// value (splitting exactly at the range's own first use) — nothing to
	// spill. If the splinter's first position is an Output, the cut lands
	// cleanly on that def and no move is needed either.

	return splinter
}
