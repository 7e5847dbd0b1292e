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

// Package dump writes a human-readable outline of a parsed document,
// one node per line, for debugging parsers and extensions.
package dump

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/flexiblocks/flexiblocks"
)

// Document writes the tree of doc to w
// followed by the document's link reference definitions in label order.
func Document(w io.Writer, doc *flexiblocks.Document) error {
	ww := &errWriter{w: w}
	flexiblocks.Walk(doc.Root.AsNode(), &flexiblocks.WalkOptions{
		Pre: func(c *flexiblocks.Cursor) bool {
			ww.WriteString(strings.Repeat("  ", c.Depth()))
			if b := c.Node().Block(); b != nil {
				ww.WriteString(Block(b))
			} else {
				ww.WriteString(Inline(c.Node().Inline()))
			}
			ww.WriteString("\n")
			return ww.err == nil
		},
	})
	for _, label := range doc.References.Labels() {
		def := doc.References[label]
		fmt.Fprintf(ww, "[%s]: %q", label, def.Destination)
		if def.TitlePresent {
			fmt.Fprintf(ww, " %q", def.Title)
		}
		ww.WriteString("\n")
	}
	return ww.err
}

// Block returns a single-line description of b
// (without its children).
func Block(b *flexiblocks.Block) string {
	sb := new(strings.Builder)
	sb.WriteString(strings.TrimSuffix(b.Kind().String(), "Kind"))
	sb.WriteString(" ")
	sb.WriteString(b.Start().String())
	sb.WriteString("-")
	sb.WriteString(b.End().String())
	switch b.Kind() {
	case flexiblocks.ATXHeadingKind, flexiblocks.SetextHeadingKind:
		sb.WriteString(" level=")
		sb.WriteString(strconv.Itoa(b.HeadingLevel()))
	case flexiblocks.FencedCodeBlockKind:
		c, n := b.Fence()
		fmt.Fprintf(sb, " fence=%q", strings.Repeat(string(c), n))
		if info := b.InfoString(); info != "" {
			fmt.Fprintf(sb, " info=%q", info)
		}
		fmt.Fprintf(sb, " %q", b.Literal())
	case flexiblocks.IndentedCodeBlockKind:
		fmt.Fprintf(sb, " %q", b.Literal())
	case flexiblocks.HTMLBlockKind:
		fmt.Fprintf(sb, " type=%d %q", b.HTMLBlockType(), b.Literal())
	case flexiblocks.ListKind, flexiblocks.ListItemKind:
		d := b.ListData()
		if d.Ordered {
			fmt.Fprintf(sb, " ordered start=%d delim=%q", d.Start, d.Delimiter)
		} else {
			fmt.Fprintf(sb, " bullet=%q", d.Bullet)
		}
		if d.Tight {
			sb.WriteString(" tight")
		} else {
			sb.WriteString(" loose")
		}
	case flexiblocks.ExtensionBlockKind:
		fmt.Fprintf(sb, " %s %q", b.Extension().Name(), b.Lines())
	}
	return sb.String()
}

// Inline returns a single-line description of in
// (without its children).
func Inline(in *flexiblocks.Inline) string {
	kind := strings.TrimSuffix(in.Kind().String(), "Kind")
	switch in.Kind() {
	case flexiblocks.TextKind, flexiblocks.CodeSpanKind, flexiblocks.RawHTMLKind:
		return fmt.Sprintf("%s %q", kind, in.Text())
	case flexiblocks.LinkKind, flexiblocks.ImageKind:
		s := fmt.Sprintf("%s dest=%q", kind, in.Destination())
		if in.Title() != "" {
			s += fmt.Sprintf(" title=%q", in.Title())
		}
		return s
	case flexiblocks.AutolinkKind:
		return fmt.Sprintf("%s dest=%q %q", kind, in.Destination(), in.Text())
	case flexiblocks.ExtensionInlineKind:
		return fmt.Sprintf("%s %s %q", kind, in.Extension().Name(), in.Text())
	default:
		return kind
	}
}

type errWriter struct {
	w   io.Writer
	err error
}

func (w *errWriter) Write(p []byte) (n int, err error) {
	if w.err != nil {
		return 0, w.err
	}
	n, w.err = w.w.Write(p)
	return n, w.err
}

func (w *errWriter) WriteString(s string) (n int, err error) {
	if w.err != nil {
		return 0, w.err
	}
	n, w.err = io.WriteString(w.w, s)
	return n, w.err
}
