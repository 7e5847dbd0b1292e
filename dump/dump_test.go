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

package dump

import (
	"strings"
	"testing"

	"github.com/flexiblocks/flexiblocks"
	"github.com/google/go-cmp/cmp"
)

func TestDocument(t *testing.T) {
	doc := flexiblocks.Parse("# Hi *x*\n\n[a]: /u \"t\"\n")
	sb := new(strings.Builder)
	if err := Document(sb, doc); err != nil {
		t.Fatal(err)
	}
	want := "Document 1:1-3:11\n" +
		"  ATXHeading 1:1-1:8 level=1\n" +
		"    Text \"Hi \"\n" +
		"    Emphasis\n" +
		"      Text \"x\"\n" +
		"[a]: \"/u\" \"t\"\n"
	if diff := cmp.Diff(want, sb.String()); diff != "" {
		t.Errorf("Document (-want +got):\n%s", diff)
	}
}

func TestBlock(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"3) a\n4) b\n", "List 1:1-2:4 ordered start=3 delim=')' tight"},
		{"~~~ go\nx\n~~~\n", `FencedCodeBlock 1:1-3:3 fence="~~~" info="go" "x\n"`},
		{"<div>\n", `HTMLBlock 1:1-1:5 type=6 "<div>"`},
	}
	for _, test := range tests {
		doc := flexiblocks.Parse(test.input)
		if got := Block(doc.Root.Blocks()[0]); got != test.want {
			t.Errorf("Block(Parse(%q).Root.Blocks()[0]) = %q; want %q", test.input, got, test.want)
		}
	}
}

func TestInline(t *testing.T) {
	doc := flexiblocks.Parse("[l](/u \"t\") <http://x.y> `c`\n")
	var got []string
	for _, in := range doc.Root.Blocks()[0].Inlines() {
		got = append(got, Inline(in))
	}
	want := []string{
		`Link dest="/u" title="t"`,
		`Text " "`,
		`Autolink dest="http://x.y" "http://x.y"`,
		`Text " "`,
		`CodeSpan "c"`,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("inlines (-want +got):\n%s", diff)
	}
}
