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
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/flexiblocks/flexiblocks/internal/normhtml"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestSoftBreakBehavior(t *testing.T) {
	tests := []struct {
		name     string
		behavior SoftBreakBehavior
		input    string
		want     string
	}{
		{
			name:     "PreserveLF",
			behavior: SoftBreakPreserve,
			input:    "Hello\nWorld!",
			want:     "<p>Hello\nWorld!</p>\n",
		},
		{
			name:     "PreserveCRLF",
			behavior: SoftBreakPreserve,
			input:    "Hello\r\nWorld!",
			want:     "<p>Hello\nWorld!</p>\n",
		},
		{
			name:     "Space",
			behavior: SoftBreakSpace,
			input:    "Hello\r\nWorld!",
			want:     "<p>Hello World!</p>\n",
		},
		{
			name:     "Harden",
			behavior: SoftBreakHarden,
			input:    "Hello\r\nWorld!",
			want:     "<p>Hello<br />\nWorld!</p>\n",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			doc := Parse(test.input)
			r := &HTMLRenderer{
				SoftBreakBehavior: test.behavior,
			}
			buf := new(bytes.Buffer)
			if err := r.Render(buf, doc); err != nil {
				t.Error("Render:", err)
			}
			if got := buf.String(); got != test.want {
				t.Errorf("output = %q; want %q", got, test.want)
			}
		})
	}
}

func TestHTMLRendererIgnoreRaw(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "NoRaw",
			input: "Hello World!",
			want:  "<p>Hello World!</p>\n",
		},
		{
			name:  "MarkdownStrong",
			input: "Hello **World**!",
			want:  "<p>Hello <strong>World</strong>!</p>\n",
		},
		{
			name:  "HTMLStrong",
			input: "Hello <strong>World</strong>!",
			want:  "<p>Hello World!</p>\n",
		},
		{
			name:  "HTMLBlock",
			input: "<table>\n<tr><td>Hello</td></tr>\n</table>",
			want:  "",
		},
		{
			name:  "HTMLBlockBetweenParagraphs",
			input: "before\n\n<div>\nhidden\n</div>\n\nafter\n",
			want:  "<p>before</p>\n<p>after</p>\n",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			doc := Parse(test.input)
			r := &HTMLRenderer{IgnoreRaw: true}
			buf := new(bytes.Buffer)
			if err := r.Render(buf, doc); err != nil {
				t.Error("Render:", err)
			}
			if got := buf.String(); got != test.want {
				t.Errorf("output = %q; want %q", got, test.want)
			}
		})
	}
}

func TestHTMLRendererFilter(t *testing.T) {
	const gfmExample = "<strong> <title> <style> <em>\n\n" +
		"<blockquote>\n" +
		"  <xmp> is disallowed.  <XMP> is also disallowed.\n" +
		"</blockquote>\n"

	tests := []struct {
		name      string
		input     string
		filterTag func(tag []byte) bool
		want      string
	}{
		{
			name:      "GFMExample/Default",
			input:     gfmExample,
			filterTag: FilterTagGFM,
			want: "<p><strong> &lt;title> &lt;style> <em></p>\n" +
				"<blockquote>\n" +
				"  &lt;xmp> is disallowed.  &lt;XMP> is also disallowed.\n" +
				"</blockquote>\n",
		},
		{
			name:  "GFMExample/NoFilter",
			input: gfmExample,
			want: "<p><strong> <title> <style> <em></p>\n" +
				"<blockquote>\n" +
				"  <xmp> is disallowed.  <XMP> is also disallowed.\n" +
				"</blockquote>\n",
		},
		{
			name:      "GFMExample/AllowAll",
			input:     gfmExample,
			filterTag: func(tag []byte) bool { return false },
			want: "<p><strong> <title> <style> <em></p>\n" +
				"<blockquote>\n" +
				"  <xmp> is disallowed.  <XMP> is also disallowed.\n" +
				"</blockquote>\n",
		},
		{
			name:      "GFMExample/BlockAll",
			input:     gfmExample,
			filterTag: func(tag []byte) bool { return true },
			want: "&lt;p>&lt;strong> &lt;title> &lt;style> &lt;em>&lt;/p>\n" +
				"&lt;blockquote>\n" +
				"  &lt;xmp> is disallowed.  &lt;XMP> is also disallowed.\n" +
				"&lt;/blockquote>\n",
		},
		{
			name:      "ClosingTag",
			input:     "a <script>x</script> b\n",
			filterTag: FilterTagGFM,
			want:      "<p>a &lt;script>x&lt;/script> b</p>\n",
		},
		{
			name:      "Comment",
			input:     "a <!-- <script> --> b\n",
			filterTag: FilterTagGFM,
			want:      "<p>a <!-- <script> --> b</p>\n",
		},
		{
			name:      "ProcessingInstruction",
			input:     "a <? <script> ?> b\n",
			filterTag: FilterTagGFM,
			want:      "<p>a <? <script> ?> b</p>\n",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			doc := Parse(test.input)
			r := &HTMLRenderer{
				FilterTag: test.filterTag,
			}
			buf := new(bytes.Buffer)
			if err := r.Render(buf, doc); err != nil {
				t.Error("Render:", err)
			}
			if got := buf.String(); got != test.want {
				t.Errorf("output = %q; want %q", got, test.want)
			}
			got := normhtml.NormalizeHTML(buf.Bytes())
			want := normhtml.NormalizeHTML([]byte(test.want))
			if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("normalized -want +got:\n%s", diff)
			}
		})
	}
}

func TestNormalizeURI(t *testing.T) {
	tests := []struct {
		s    string
		want string
	}{
		{"", ""},
		{"/url", "/url"},
		{"http://example.com/?a=1&b=2#frag", "http://example.com/?a=1&b=2#frag"},
		{"/my uri", "/my%20uri"},
		{"foo%20bar", "foo%20bar"},
		{"%zz", "%25zz"},
		{"/föö", "/f%C3%B6%C3%B6"},
		{"a\\b", "a%5Cb"},
		{"[x]", "%5Bx%5D"},
	}
	for _, test := range tests {
		if got := NormalizeURI(test.s); got != test.want {
			t.Errorf("NormalizeURI(%q) = %q; want %q", test.s, got, test.want)
		}
	}
}

func TestCodeBlockLanguage(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"Word", "```go\nx\n```\n", `<pre><code class="language-go">x` + "\n</code></pre>\n"},
		{"Space", "``` go run\nx\n```\n", `<pre><code class="language-go">x` + "\n</code></pre>\n"},
		{"Tab", "```go\trun\nx\n```\n", `<pre><code class="language-go">x` + "\n</code></pre>\n"},
		{"NonBreakingSpace", "``` foo\u00a0bar\nx\n```\n", "<pre><code class=\"language-foo\u00a0bar\">x\n</code></pre>\n"},
		{"Empty", "```\nx\n```\n", "<pre><code>x\n</code></pre>\n"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := Convert(test.input, nil)
			if err != nil {
				t.Fatal(err)
			}
			if got != test.want {
				t.Errorf("Convert(%q) = %q; want %q", test.input, got, test.want)
			}
		})
	}
}

func TestAppendDocumentPreservesPrefix(t *testing.T) {
	doc := Parse("# Title\n\ntext\n")
	got := string(new(HTMLRenderer).AppendDocument([]byte("<!-- prefix -->"), doc))
	const want = "<!-- prefix --><h1>Title</h1>\n<p>text</p>\n"
	if got != want {
		t.Errorf("AppendDocument(...) = %q; want %q", got, want)
	}
}

type errorWriter struct{}

func (errorWriter) Write(p []byte) (int, error) {
	return 0, errors.New("bork")
}

func TestRenderWriteError(t *testing.T) {
	err := RenderHTML(errorWriter{}, Parse("x"))
	if err == nil {
		t.Fatal("RenderHTML did not return an error")
	}
}

func BenchmarkRenderHTML(b *testing.B) {
	input := new(bytes.Buffer)
	examples := loadExamples(b)
	for i, ex := range examples {
		if i > 0 {
			input.WriteString("\n\n")
		}
		input.WriteString(ex.Markdown)
	}
	doc := Parse(input.String())
	b.ResetTimer()
	b.SetBytes(int64(input.Len()))
	b.ReportMetric(float64(len(examples)), "examples/op")

	for i := 0; i < b.N; i++ {
		RenderHTML(io.Discard, doc)
	}
}
