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

// Package sealgraph is a shallow sea-of-nodes sibling kept alongside the
// instruction-level allocator: just enough use-def graph to exercise
// ReplaceNode and its self-use edge case (spec §8 S5), the step that would
// precede lowering into the instr.Block the rest of this module allocates
// registers for. Grounded on falcon's ssa.Value (compile/ssa/hir.go) and the
// original Rust prototype's gred-rs Node/Use.
package sealgraph

import "fmt"

// Node is one value in the graph: an operator plus its operand edges. Uses
// is the reverse edge set — every node that names this one as an argument.
type Node struct {
	Id   int
	Op   string
	Args []*Node
	Uses []*Node
}

func NewNode(id int, op string, args ...*Node) *Node {
	n := &Node{Id: id, Op: op}
	n.AddArg(args...)
	return n
}

// AddArg records args as this node's operands and registers the reverse use
// edge on each, same as falcon's Value.AddArg.
func (n *Node) AddArg(args ...*Node) {
	for _, arg := range args {
		n.Args = append(n.Args, arg)
		arg.Uses = append(arg.Uses, n)
	}
}

func (n *Node) NumUses() int { return len(n.Uses) }

// ReplaceNode rewires every user of n to use m instead, then clears n's use
// list. A self-use — n appearing in its own Args, which makes n a member of
// its own Uses — is dropped rather than transferred: m should never end up
// using itself on n's behalf, and n's use count must still reach zero (spec
// §8 S5). Ported from falcon's Value.ReplaceUses, adapted to skip that case.
func (n *Node) ReplaceNode(m *Node) {
	for _, use := range n.Uses {
		if use == n {
			// Self-use: n referenced itself as an argument. Once n is
			// replaced there is nothing left to rewire — the edge simply
			// disappears along with n.
			continue
		}
		for i, arg := range use.Args {
			if arg == n {
				use.Args[i] = m
				m.Uses = append(m.Uses, use)
			}
		}
	}
	n.Uses = nil
}

func (n *Node) String() string {
	return fmt.Sprintf("n%d = %s%v", n.Id, n.Op, argIds(n.Args))
}

func argIds(args []*Node) []int {
	ids := make([]int, len(args))
	for i, a := range args {
		ids[i] = a.Id
	}
	return ids
}
