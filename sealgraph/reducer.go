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

package sealgraph

// Reduction is a reducer's verdict on one node: either it found a
// replacement, or it left the node alone. Ported from the original Rust
// prototype's gred-rs Reduction enum (Replaced(Node) / Unchanged).
type Reduction struct {
	ReplacedWith *Node
}

func Unchanged() Reduction            { return Reduction{} }
func ReplacedWith(m *Node) Reduction  { return Reduction{ReplacedWith: m} }
func (r Reduction) Changed() bool     { return r.ReplacedWith != nil }

// Reducer inspects one node and optionally proposes a replacement for it.
type Reducer interface {
	Reduce(n *Node) Reduction
}

// RunToFixpoint repeatedly reduces every node in a worklist, rewiring
// replaced nodes via ReplaceNode and pushing their former users back onto
// the worklist so a replacement can cascade, until nothing changes. Mirrors
// the fixpoint loop implicit in gred-rs's reducer + worklist pairing.
func RunToFixpoint(nodes []*Node, r Reducer) []*Node {
	worklist := append([]*Node(nil), nodes...)
	live := map[*Node]bool{}
	for _, n := range nodes {
		live[n] = true
	}

	for len(worklist) > 0 {
		n := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]
		if !live[n] {
			continue
		}

		red := r.Reduce(n)
		if !red.Changed() {
			continue
		}

		users := append([]*Node(nil), n.Uses...)
		n.ReplaceNode(red.ReplacedWith)
		live[n] = false
		for _, u := range users {
			if u != n && live[u] {
				worklist = append(worklist, u)
			}
		}
	}

	var out []*Node
	for _, n := range nodes {
		if live[n] {
			out = append(out, n)
		}
	}
	return out
}
