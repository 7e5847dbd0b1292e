// Copyright 2023 Ross Light
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//		 https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

package flexiblocks

// Node is a reference to either a [Block] or an [Inline].
// The zero Node references nothing.
// Nodes are comparable with ==,
// so they can be used as map keys during a [Walk].
type Node struct {
	block  *Block
	inline *Inline
}

// AsNode converts the block to a [Node].
func (b *Block) AsNode() Node {
	return Node{block: b}
}

// AsNode converts the inline to a [Node].
func (inline *Inline) AsNode() Node {
	return Node{inline: inline}
}

// Block returns the referenced block
// or nil if the node does not reference a block.
func (n Node) Block() *Block {
	return n.block
}

// Inline returns the referenced inline
// or nil if the node does not reference an inline.
func (n Node) Inline() *Inline {
	return n.inline
}

// IsZero reports whether the node references nothing.
func (n Node) IsZero() bool {
	return n.block == nil && n.inline == nil
}

// Start returns the position of the first character of a block node.
// Inline nodes do not track positions and report the zero Position.
func (n Node) Start() Position {
	return n.block.Start()
}

// End returns the position of the last character of a block node.
// Inline nodes do not track positions and report the zero Position.
func (n Node) End() Position {
	return n.block.End()
}

// ChildCount returns the number of children the node has.
// Calling ChildCount on the zero Node returns 0.
func (n Node) ChildCount() int {
	if n.block != nil {
		return n.block.ChildCount()
	}
	return n.inline.ChildCount()
}

// Child returns the i'th child of the node.
// A block's children are either all blocks or all inlines.
// An inline's children are always inlines.
func (n Node) Child(i int) Node {
	switch {
	case n.block != nil:
		return n.block.Child(i)
	case n.inline != nil:
		return n.inline.Child(i).AsNode()
	default:
		panic("Child on zero Node")
	}
}
