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
	"errors"
	"html"
	"strings"
	"testing"
)

// admonition is a block extension for fenced ":::kind" sections.
type admonition struct {
	name     string
	triggers string
}

func newAdmonition() *admonition {
	return &admonition{name: "admonition", triggers: ":"}
}

func (a *admonition) Name() string     { return a.name }
func (a *admonition) Triggers() string { return a.triggers }

func (a *admonition) Start(line string, interrupting bool) bool {
	return strings.HasPrefix(line, ":::")
}

func (a *admonition) Continue(b *Block, line string) (ok, last bool) {
	return true, strings.TrimSpace(line) == ":::"
}

func (a *admonition) RenderHTML(dst []byte, b *Block) []byte {
	lines := b.Lines()
	kind := strings.TrimSpace(strings.TrimPrefix(lines[0], ":::"))
	body := lines[1:]
	if len(body) > 0 && strings.TrimSpace(body[len(body)-1]) == ":::" {
		body = body[:len(body)-1]
	}
	dst = append(dst, `<div class="`...)
	dst = append(dst, html.EscapeString(kind)...)
	dst = append(dst, "\">\n"...)
	for _, line := range body {
		dst = append(dst, html.EscapeString(line)...)
		dst = append(dst, '\n')
	}
	return append(dst, "</div>"...)
}

// math is an inline extension for "$...$" spans.
type math struct {
	name     string
	triggers string
}

func newMath() *math {
	return &math{name: "math", triggers: "$"}
}

func (m *math) Name() string     { return m.name }
func (m *math) Triggers() string { return m.triggers }

func (m *math) ParseInline(text string) (n int, literal string) {
	end := strings.IndexByte(text[1:], text[0])
	if end <= 0 {
		return 0, ""
	}
	return end + 2, text[1 : end+1]
}

func (m *math) RenderHTML(dst []byte, in *Inline) []byte {
	dst = append(dst, `<span class="math">`...)
	dst = append(dst, html.EscapeString(in.Text())...)
	return append(dst, "</span>"...)
}

// nameOnly implements Extension but neither of the specific interfaces.
type nameOnly string

func (n nameOnly) Name() string     { return string(n) }
func (n nameOnly) Triggers() string { return "%" }

func TestBlockExtension(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "Closed",
			input: ":::note\nhello <b>\n:::\n\nafter\n",
			want:  "<div class=\"note\">\nhello &lt;b&gt;\n</div>\n<p>after</p>\n",
		},
		{
			name:  "Unclosed",
			input: ":::warn\ntext",
			want:  "<div class=\"warn\">\ntext\n</div>\n",
		},
		{
			name:  "InterruptsParagraph",
			input: "para\n:::note\nx\n:::\n",
			want:  "<p>para</p>\n<div class=\"note\">\nx\n</div>\n",
		},
		{
			name:  "InBlockQuote",
			input: "> :::tip\n> x\n> :::\n",
			want:  "<blockquote>\n<div class=\"tip\">\nx\n</div>\n</blockquote>\n",
		},
		{
			name:  "Indented",
			input: "    :::note\n",
			want:  "<pre><code>:::note\n</code></pre>\n",
		},
		{
			name:  "NotMatched",
			input: ":: note\n",
			want:  "<p>:: note</p>\n",
		},
		{
			name:  "LaterStandardBlock",
			input: "# Heading\n:::note\n# inside\n:::\n",
			want:  "<h1>Heading</h1>\n<div class=\"note\">\n# inside\n</div>\n",
		},
	}
	cfg := &Config{Extensions: []Extension{newAdmonition()}}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := Convert(test.input, cfg)
			if err != nil {
				t.Fatal(err)
			}
			if got != test.want {
				t.Errorf("Convert(%q) = %q; want %q", test.input, got, test.want)
			}
		})
	}
}

func TestBlockExtensionLines(t *testing.T) {
	c, err := NewConverter(&Config{Extensions: []Extension{newAdmonition()}})
	if err != nil {
		t.Fatal(err)
	}
	doc := c.Parse(":::note\n  one\ntwo\n:::\n")
	b := doc.Root.Blocks()[0]
	if b.Kind() != ExtensionBlockKind {
		t.Fatalf("Kind() = %v; want %v", b.Kind(), ExtensionBlockKind)
	}
	if got := b.Extension().Name(); got != "admonition" {
		t.Errorf("Extension().Name() = %q; want %q", got, "admonition")
	}
	want := []string{":::note", "  one", "two", ":::"}
	got := b.Lines()
	if strings.Join(got, "\n") != strings.Join(want, "\n") {
		t.Errorf("Lines() = %q; want %q", got, want)
	}
}

func TestInlineExtension(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Sum $a<b$ and $ alone\n", "<p>Sum <span class=\"math\">a&lt;b</span> and $ alone</p>\n"},
		{"$$\n", "<p>$$</p>\n"},
		{"*$x$*\n", "<p><em><span class=\"math\">x</span></em></p>\n"},
		{"`$x$`\n", "<p><code>$x$</code></p>\n"},
		{"\\$x$\n", "<p>$x$</p>\n"},
		{"# $h$\n", "<h1><span class=\"math\">h</span></h1>\n"},
	}
	cfg := &Config{Extensions: []Extension{newMath()}}
	for _, test := range tests {
		got, err := Convert(test.input, cfg)
		if err != nil {
			t.Fatal(err)
		}
		if got != test.want {
			t.Errorf("Convert(%q) = %q; want %q", test.input, got, test.want)
		}
	}

	// Without the extension, dollar signs are plain text.
	got, err := Convert("$x$\n", nil)
	if err != nil {
		t.Fatal(err)
	}
	if want := "<p>$x$</p>\n"; got != want {
		t.Errorf("Convert without extension = %q; want %q", got, want)
	}
}

func TestBlockAndInlineExtensionsTogether(t *testing.T) {
	blockExt := newAdmonition()
	blockExt.triggers = ":$"
	cfg := &Config{Extensions: []Extension{blockExt, newMath()}}
	got, err := Convert(":::note\n$x$\n:::\n\n$y$\n", cfg)
	if err != nil {
		t.Fatal(err)
	}
	const want = "<div class=\"note\">\n$x$\n</div>\n<p><span class=\"math\">y</span></p>\n"
	if got != want {
		t.Errorf("Convert(...) = %q; want %q", got, want)
	}
}

func TestConfigErrors(t *testing.T) {
	renamed := func(name string) *math {
		m := newMath()
		m.name = name
		return m
	}
	retriggered := func(triggers string) *math {
		m := newMath()
		m.triggers = triggers
		return m
	}
	blockTriggered := func(triggers string) *admonition {
		a := newAdmonition()
		a.triggers = triggers
		return a
	}

	tests := []struct {
		name   string
		cfg    *Config
		option string
		err    error
	}{
		{
			name:   "TabWidthTooLarge",
			cfg:    &Config{TabWidth: 17},
			option: "TabWidth",
			err:    ErrInvalidTabWidth,
		},
		{
			name:   "NegativeTabWidth",
			cfg:    &Config{TabWidth: -1},
			option: "TabWidth",
			err:    ErrInvalidTabWidth,
		},
		{
			name:   "TagStartsWithDigit",
			cfg:    &Config{HTMLBlockTags: []string{"div", "1div"}},
			option: "HTMLBlockTags",
			err:    ErrInvalidTag,
		},
		{
			name:   "EmptyTag",
			cfg:    &Config{HTMLBlockTags: []string{""}},
			option: "HTMLBlockTags",
			err:    ErrInvalidTag,
		},
		{
			name:   "TagWithHyphen",
			cfg:    &Config{HTMLBlockTags: []string{"my-tag"}},
			option: "HTMLBlockTags",
			err:    ErrInvalidTag,
		},
		{
			name:   "SoftBreakOutOfRange",
			cfg:    &Config{SoftBreak: SoftBreakHarden + 1},
			option: "SoftBreak",
			err:    ErrInvalidOption,
		},
		{
			name:   "NegativeWorkers",
			cfg:    &Config{InlineWorkers: -1},
			option: "InlineWorkers",
			err:    ErrInvalidOption,
		},
		{
			name:   "EmptyName",
			cfg:    &Config{Extensions: []Extension{renamed("")}},
			option: "Extensions",
			err:    ErrExtensionConflict,
		},
		{
			name:   "DuplicateName",
			cfg:    &Config{Extensions: []Extension{newMath(), retriggered("%")}},
			option: "Extensions",
			err:    ErrDuplicateExtension,
		},
		{
			name:   "DuplicateNameAcrossKinds",
			cfg:    &Config{Extensions: []Extension{newAdmonition(), renamed("admonition")}},
			option: "Extensions",
			err:    ErrDuplicateExtension,
		},
		{
			name:   "InlineStandardTrigger",
			cfg:    &Config{Extensions: []Extension{retriggered("*")}},
			option: "Extensions",
			err:    ErrExtensionConflict,
		},
		{
			name:   "BlockStandardTrigger",
			cfg:    &Config{Extensions: []Extension{blockTriggered("#")}},
			option: "Extensions",
			err:    ErrExtensionConflict,
		},
		{
			name:   "BlockDigitTrigger",
			cfg:    &Config{Extensions: []Extension{blockTriggered("1")}},
			option: "Extensions",
			err:    ErrExtensionConflict,
		},
		{
			name: "OverlappingInlineTriggers",
			cfg: &Config{Extensions: []Extension{
				newMath(),
				&math{name: "money", triggers: "%$"},
			}},
			option: "Extensions",
			err:    ErrExtensionConflict,
		},
		{
			name:   "NonPunctuationTrigger",
			cfg:    &Config{Extensions: []Extension{retriggered("x")}},
			option: "Extensions",
			err:    ErrExtensionConflict,
		},
		{
			name:   "NoTriggers",
			cfg:    &Config{Extensions: []Extension{retriggered("")}},
			option: "Extensions",
			err:    ErrExtensionConflict,
		},
		{
			name:   "NeitherKind",
			cfg:    &Config{Extensions: []Extension{nameOnly("plain")}},
			option: "Extensions",
			err:    ErrExtensionConflict,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := NewConverter(test.cfg)
			if !errors.Is(err, test.err) {
				t.Fatalf("NewConverter(...) = _, %v; want %v", err, test.err)
			}
			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("NewConverter(...) error is %T; want *ConfigError", err)
			}
			if cfgErr.Option != test.option {
				t.Errorf("ConfigError.Option = %q; want %q", cfgErr.Option, test.option)
			}
			if !strings.HasPrefix(err.Error(), "flexiblocks: "+test.option+": ") {
				t.Errorf("err.Error() = %q; want prefix %q", err.Error(), "flexiblocks: "+test.option+": ")
			}
			if validateErr := test.cfg.Validate(); validateErr == nil {
				t.Error("Validate() = <nil>; want error")
			}
			if _, convertErr := Convert("x", test.cfg); convertErr == nil {
				t.Error("Convert(...) = _, <nil>; want error")
			}
		})
	}
}

func TestValidConfigs(t *testing.T) {
	tests := []struct {
		name string
		cfg  *Config
	}{
		{"Nil", nil},
		{"Zero", new(Config)},
		{"TabWidthBounds", &Config{TabWidth: 16}},
		{"TabWidthOne", &Config{TabWidth: 1}},
		{"EmptyTagSet", &Config{HTMLBlockTags: []string{}}},
		{"MixedCaseTag", &Config{HTMLBlockTags: []string{"Widget2"}}},
		{"Workers", &Config{InlineWorkers: 4}},
		{"BothKinds", &Config{Extensions: []Extension{newMath(), newAdmonition()}}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if err := test.cfg.Validate(); err != nil {
				t.Error("Validate:", err)
			}
		})
	}
}

func TestConverterConcurrentUse(t *testing.T) {
	c, err := NewConverter(&Config{
		Extensions:    []Extension{newAdmonition(), newMath()},
		InlineWorkers: 2,
	})
	if err != nil {
		t.Fatal(err)
	}
	const input = "# $t$\n\n:::note\nbody\n:::\n\n- *a*\n- [b]\n\n[b]: /b\n"
	want := c.Convert(input)
	done := make(chan string)
	for i := 0; i < 8; i++ {
		go func() {
			done <- c.Convert(input)
		}()
	}
	for i := 0; i < 8; i++ {
		if got := <-done; got != want {
			t.Errorf("concurrent Convert = %q; want %q", got, want)
		}
	}
}
