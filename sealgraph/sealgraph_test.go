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

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplaceNodeRewiresOrdinaryUses(t *testing.T) {
	a := NewNode(0, "const")
	b := NewNode(1, "add", a)
	c := NewNode(2, "add", a)
	m := NewNode(3, "const")

	a.ReplaceNode(m)

	assert.Equal(t, 0, a.NumUses())
	assert.Equal(t, 2, m.NumUses())
	assert.Same(t, m, b.Args[0])
	assert.Same(t, m, c.Args[0])
}

// S5: a node whose input is itself must not transfer the self-use to its
// replacement, and its own use count must still reach zero (spec §8 S5).
func TestReplaceNodeDropsSelfUse(t *testing.T) {
	n := NewNode(0, "phi")
	n.AddArg(n) // n reads itself
	other := NewNode(1, "add", n)
	m := NewNode(2, "const")

	require.Equal(t, 2, n.NumUses()) // itself, plus other

	n.ReplaceNode(m)

	assert.Equal(t, 0, n.NumUses())
	assert.Equal(t, 1, m.NumUses())
	assert.Same(t, m, other.Args[0])
}

func TestRunToFixpointDropsReducedNodes(t *testing.T) {
	a := NewNode(0, "const")
	b := NewNode(1, "identity", a)
	c := NewNode(2, "identity", b)

	out := RunToFixpoint([]*Node{a, b, c}, dropIdentities{})

	// b and c each get folded away into a fresh node outside the original
	// list, so only a (never reduced) survives as "live" in the original set.
	require.Len(t, out, 1)
	assert.Same(t, a, out[0])
	assert.Equal(t, 0, b.NumUses())
	assert.Equal(t, 0, c.NumUses())
}

// dropIdentities replaces every "identity" node with a fresh node,
// simulating the kind of cascading reduction a worklist-based reducer is
// for: folding b forces its user c back onto the worklist too.
type dropIdentities struct{}

func (dropIdentities) Reduce(n *Node) Reduction {
	if n.Op != "identity" {
		return Unchanged()
	}
	return ReplacedWith(NewNode(n.Id+100, "const"))
}
