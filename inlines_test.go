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

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDelimiterFlags(t *testing.T) {
	tests := []struct {
		prefix string
		run    string
		suffix string
		want   uint8
	}{
		// Official examples for left-flanking and right-flanking:
		{"", "***", "abc", openerFlag},
		{"  ", "_", "abc", openerFlag},
		{"", "**", `"abc"`, openerFlag},
		{" ", "_", `"abc"`, openerFlag},
		{" abc", "***", "", closerFlag},
		{" abc", "_", "", closerFlag},
		{`"abc"`, "**", "", closerFlag},
		{`"abc"`, "_", "", closerFlag},
		{" abc", "***", "def", openerFlag | closerFlag},
		{`"abc"`, "_", `"def"`, openerFlag | closerFlag},
		{"abc ", "***", " def", 0},
		{"a ", "_", " b", 0},

		// Extra examples to demonstrate
		// https://spec.commonmark.org/0.30/#can-open-emphasis
		// and
		// https://spec.commonmark.org/0.30/#can-close-emphasis.
		{"aa", "_", `"bb"`, closerFlag},
		{`"bb"`, "_", "cc", openerFlag},
		{"foo-", "_", "(bar)", openerFlag | closerFlag},
		{"(bar)", "_", "", closerFlag},
		{"abc", "_", "def", 0},
	}
	for _, test := range tests {
		source := test.prefix + test.run + test.suffix
		start := len(test.prefix)
		end := start + len(test.run)
		got := emphasisFlags(source, start, end)
		if got != test.want {
			t.Errorf("emphasisFlags(%q, %d, %d) = %#03b; want %#03b", source, start, end, got, test.want)
		}
	}
}

func TestNormalizeLabel(t *testing.T) {
	tests := []struct {
		label string
		want  string
	}{
		{"foo", "foo"},
		{"[foo]", "foo"},
		{"  Foo \t\n Bar  ", "foo bar"},
		{"[FOO BAR]", "foo bar"},
		{"ΑΓΩ", "αγω"},
		{"ẞ", "ss"},
		{"[]", ""},
	}
	for _, test := range tests {
		if got := NormalizeLabel(test.label); got != test.want {
			t.Errorf("NormalizeLabel(%q) = %q; want %q", test.label, got, test.want)
		}
	}
}

func TestInlineParserReferenceMap(t *testing.T) {
	doc := new(BlockParser).Parse("[known] and [unknown]\n")
	p := &InlineParser{
		ReferenceMap: ReferenceMap{
			"known": {Destination: "/k", Title: "K", TitlePresent: true},
		},
	}
	p.Rewrite(doc.Root)
	got := string(new(HTMLRenderer).AppendDocument(nil, doc))
	const want = `<p><a href="/k" title="K">known</a> and [unknown]</p>` + "\n"
	if got != want {
		t.Errorf("output = %q; want %q", got, want)
	}
}

func TestForwardReference(t *testing.T) {
	got, err := Convert("[later]\n\n> [later]: /dest\n\n[LATER]: /ignored\n", nil)
	if err != nil {
		t.Fatal(err)
	}
	const want = "<p><a href=\"/dest\">later</a></p>\n<blockquote>\n</blockquote>\n"
	if got != want {
		t.Errorf("Convert(...) = %q; want %q", got, want)
	}
}

func TestLongBacktickRun(t *testing.T) {
	ticks := strings.Repeat("`", maxBackticks+1)
	input := "x" + ticks + "y" + ticks + "\n"
	got, err := Convert(input, nil)
	if err != nil {
		t.Fatal(err)
	}
	if want := "<p>" + input[:len(input)-1] + "</p>\n"; got != want {
		t.Errorf("Convert(%d backticks) produced a code span", len(ticks))
	}

	ticks = strings.Repeat("`", maxBackticks)
	input = "x" + ticks + "y" + ticks + "\n"
	got, err = Convert(input, nil)
	if err != nil {
		t.Fatal(err)
	}
	if want := "<p>x<code>y</code></p>\n"; got != want {
		t.Errorf("Convert(%d backticks) = %q; want %q", len(ticks), got, want)
	}
}

func TestInlineTree(t *testing.T) {
	doc := Parse("*a* `b` [c](/d)\n")
	para := doc.Root.Blocks()[0]
	var kinds []InlineKind
	for _, in := range para.Inlines() {
		kinds = append(kinds, in.Kind())
	}
	want := []InlineKind{EmphasisKind, TextKind, CodeSpanKind, TextKind, LinkKind}
	if diff := cmp.Diff(want, kinds); diff != "" {
		t.Errorf("inline kinds (-want +got):\n%s", diff)
	}
	link := para.Inlines()[4]
	if got := link.Destination(); got != "/d" {
		t.Errorf("link.Destination() = %q; want %q", got, "/d")
	}
	if got := strings.TrimSuffix(para.RawContent(), "\n"); got != "*a* `b` [c](/d)" {
		t.Errorf("para.RawContent() = %q; want %q", got, "*a* `b` [c](/d)")
	}
}
