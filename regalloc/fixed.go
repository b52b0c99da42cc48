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

import "github.com/overminder/grinder/internal/assertlib"

// checkFixedRangesDisjoint enforces spec §9 OQ3 / invariant 4: two
// pre-colored ranges pinned to the same machine register must never
// overlap in time, since neither can be split or evicted to make room for
// the other. A conflict here means the instruction stream itself asked for
// the impossible, so it's a fatal invariant violation rather than something
// the allocator can route around.
func (a *Allocator) checkFixedRangesDisjoint() {
	for i, ri := range a.Ranges {
		if !ri.Reg().IsMachine() {
			continue
		}
		for j := i + 1; j < len(a.Ranges); j++ {
			rj := a.Ranges[j]
			if !rj.Reg().IsMachine() || ri.Reg() != rj.Reg() {
				continue
			}
			_, overlaps := ri.FirstIntersection(rj)
			assertlib.Assert(!overlaps, "fixed ranges for %s overlap: %s and %s", ri.Reg(), ri, rj)
		}
	}
}
