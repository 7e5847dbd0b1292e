// Copyright 2024 Ross Light
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

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func nodeLabel(n Node) string {
	if b := n.Block(); b != nil {
		return b.Kind().String()
	}
	return n.Inline().Kind().String()
}

func TestWalk(t *testing.T) {
	doc := Parse("> a\n\n*b*\n")

	var got []string
	Walk(doc.Root.AsNode(), &WalkOptions{
		Pre: func(c *Cursor) bool {
			parent := "-"
			if !c.Parent().IsZero() {
				parent = nodeLabel(c.Parent())
			}
			got = append(got, fmt.Sprintf("pre %s depth=%d index=%d parent=%s", nodeLabel(c.Node()), c.Depth(), c.Index(), parent))
			return true
		},
		Post: func(c *Cursor) bool {
			got = append(got, "post "+nodeLabel(c.Node()))
			return true
		},
	})
	want := []string{
		"pre DocumentKind depth=0 index=-1 parent=-",
		"pre BlockQuoteKind depth=1 index=0 parent=DocumentKind",
		"pre ParagraphKind depth=2 index=0 parent=BlockQuoteKind",
		"pre TextKind depth=3 index=0 parent=ParagraphKind",
		"post TextKind",
		"post ParagraphKind",
		"post BlockQuoteKind",
		"pre ParagraphKind depth=1 index=1 parent=DocumentKind",
		"pre EmphasisKind depth=2 index=0 parent=ParagraphKind",
		"pre TextKind depth=3 index=0 parent=EmphasisKind",
		"post TextKind",
		"post EmphasisKind",
		"post ParagraphKind",
		"post DocumentKind",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("visits (-want +got):\n%s", diff)
	}
}

func TestWalkSkipAndStop(t *testing.T) {
	doc := Parse("# *x*\n\npara\n\n- item\n")

	var visited []string
	Walk(doc.Root.AsNode(), &WalkOptions{
		Pre: func(c *Cursor) bool {
			visited = append(visited, nodeLabel(c.Node()))
			// Skip the heading's inline content.
			return c.Node().Block().Kind() != ATXHeadingKind
		},
		Post: func(c *Cursor) bool {
			return c.Node().Block().Kind() != ParagraphKind
		},
	})
	want := []string{"DocumentKind", "ATXHeadingKind", "ParagraphKind", "TextKind"}
	if diff := cmp.Diff(want, visited); diff != "" {
		t.Errorf("visits (-want +got):\n%s", diff)
	}
}

func TestNode(t *testing.T) {
	doc := Parse("# Hi\n")
	heading := doc.Root.Blocks()[0]
	n := heading.AsNode()
	if n.IsZero() {
		t.Error("heading.AsNode().IsZero() = true")
	}
	if got, want := n.Start(), (Position{1, 1}); got != want {
		t.Errorf("heading.AsNode().Start() = %v; want %v", got, want)
	}
	text := n.Child(0)
	if text.Inline() == nil || text.Block() != nil {
		t.Fatalf("heading.AsNode().Child(0) = %+v; want inline node", text)
	}
	if got := text.Start(); got != (Position{}) {
		t.Errorf("inline Start() = %v; want zero", got)
	}
	if text != heading.Inlines()[0].AsNode() {
		t.Error("nodes for the same inline are not equal")
	}
	if !(Node{}).IsZero() || (Node{}).ChildCount() != 0 {
		t.Error("zero Node is not empty")
	}
}
