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
	"strings"
	"unicode/utf8"
)

// codeIndent is the number of columns of indentation
// that starts an indented code block.
const codeIndent = 4

// splitLines splits source into logical lines.
// Line endings ("\n", "\r\n", or "\r") are not included in the lines.
// A trailing line ending does not produce an extra empty line,
// so a missing final line ending is equivalent to a present one.
// [Insecure characters] and bytes that are not part of valid UTF-8
// are replaced with U+FFFD.
//
// [Insecure characters]: https://spec.commonmark.org/0.30/#insecure-characters
func splitLines(source string) []string {
	if source == "" {
		return nil
	}
	source = sanitizeSource(source)
	var lines []string
	for len(source) > 0 {
		i := strings.IndexAny(source, "\r\n")
		if i < 0 {
			lines = append(lines, source)
			break
		}
		lines = append(lines, source[:i])
		if source[i] == '\r' && i+1 < len(source) && source[i+1] == '\n' {
			i++
		}
		source = source[i+1:]
	}
	return lines
}

// sanitizeSource replaces each NUL byte and each invalid UTF-8 byte
// in source with U+FFFD.
func sanitizeSource(source string) string {
	if strings.IndexByte(source, 0) < 0 && utf8.ValidString(source) {
		return source
	}
	sb := new(strings.Builder)
	sb.Grow(len(source))
	for len(source) > 0 {
		r, size := utf8.DecodeRuneInString(source)
		if r == 0 || r == utf8.RuneError && size == 1 {
			sb.WriteRune(utf8.RuneError)
		} else {
			sb.WriteString(source[:size])
		}
		source = source[size:]
	}
	return sb.String()
}

// lineCursor tracks a position inside a single line,
// in terms of both byte offset and tab-expanded column.
type lineCursor struct {
	tabWidth int

	line   string
	offset int
	column int
	// partiallyConsumedTab is true when the cursor
	// sits inside the columns spanned by the tab at offset.
	partiallyConsumedTab bool

	nextNonspace       int
	nextNonspaceColumn int
	indent             int
	indented           bool
	blank              bool
}

// reset positions the cursor at the start of a new line.
func (c *lineCursor) reset(line string) {
	c.line = line
	c.offset = 0
	c.column = 0
	c.partiallyConsumedTab = false
	c.blank = false
}

func (c *lineCursor) charsToTab(column int) int {
	return c.tabWidth - column%c.tabWidth
}

// findNextNonspace scans forward from the cursor over spaces and tabs
// without moving the cursor,
// recording the indentation in columns and whether the rest of the line is blank.
func (c *lineCursor) findNextNonspace() {
	i := c.offset
	cols := c.column
	for ; i < len(c.line); i++ {
		if ch := c.line[i]; ch == ' ' {
			cols++
		} else if ch == '\t' {
			cols += c.charsToTab(cols)
		} else {
			break
		}
	}
	c.blank = i >= len(c.line)
	c.nextNonspace = i
	c.nextNonspaceColumn = cols
	c.indent = cols - c.column
	c.indented = c.indent >= codeIndent
}

// advanceNextNonspace moves the cursor
// to the position found by the last call to findNextNonspace.
func (c *lineCursor) advanceNextNonspace() {
	c.offset = c.nextNonspace
	c.column = c.nextNonspaceColumn
	c.partiallyConsumedTab = false
}

// advance moves the cursor forward by count bytes,
// or by count columns if columns is true.
// Advancing by columns can stop partway through a tab.
func (c *lineCursor) advance(count int, columns bool) {
	for count > 0 && c.offset < len(c.line) {
		if c.line[c.offset] != '\t' {
			c.partiallyConsumedTab = false
			c.offset++
			c.column++
			count--
			continue
		}
		toTab := c.charsToTab(c.column)
		if !columns {
			c.partiallyConsumedTab = false
			c.column += toTab
			c.offset++
			count--
			continue
		}
		c.partiallyConsumedTab = toTab > count
		n := min(toTab, count)
		c.column += n
		if !c.partiallyConsumedTab {
			c.offset++
		}
		count -= n
	}
}

// rest returns the text of the line after the cursor.
func (c *lineCursor) rest() string {
	return c.line[c.offset:]
}

// peekAt returns the byte at offset i of the line
// or 0 if i is out of range.
func (c *lineCursor) peekAt(i int) byte {
	if i < 0 || i >= len(c.line) {
		return 0
	}
	return c.line[i]
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func isSpaceOrTab(c byte) bool {
	return c == ' ' || c == '\t'
}

func isBlank(s string) bool {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case ' ', '\t', '\n', '\r', '\f', '\v':
		default:
			return false
		}
	}
	return true
}
