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

	"golang.org/x/net/html/atom"
)

const (
	htmlCommentPrefix           = "<!--"
	htmlCommentSuffix           = "-->"
	processingInstructionPrefix = "<?"
	processingInstructionSuffix = "?>"
	cdataPrefix                 = "<![CDATA["
	cdataSuffix                 = "]]>"
)

// rawHTMLScanner recognizes [raw HTML] at successive positions of one subject.
// Each flag records that a search for a terminator failed,
// so no later position in the subject can have one either.
//
// [raw HTML]: https://spec.commonmark.org/0.30/#raw-html
type rawHTMLScanner struct {
	noCommentEnd  bool
	noProcInstEnd bool
	noCDATAEnd    bool
	noDeclEnd     bool
}

// scan returns the length of the raw HTML at the start of s,
// or 0 if s does not start with raw HTML.
// Successive calls must pass suffixes of the same subject
// that start at increasing offsets.
func (sc *rawHTMLScanner) scan(s string) int {
	if len(s) < 2 || s[0] != '<' {
		return 0
	}
	switch s[1] {
	case '?':
		return scanUntil(s, len(processingInstructionPrefix), processingInstructionSuffix, &sc.noProcInstEnd)
	case '!':
		switch {
		case strings.HasPrefix(s, htmlCommentPrefix):
			return sc.scanComment(s)
		case strings.HasPrefix(s, cdataPrefix):
			return scanUntil(s, len(cdataPrefix), cdataSuffix, &sc.noCDATAEnd)
		case hasHTMLDeclarationPrefix(s):
			return scanUntil(s, len("<!x"), ">", &sc.noDeclEnd)
		default:
			return 0
		}
	case '/':
		return scanHTMLClosingTag(s)
	default:
		return scanHTMLOpenTag(s)
	}
}

// scanUntil returns the index just past the first occurrence of suffix
// in s[start:], or 0 if suffix does not occur.
// A failed search sets *none, and no search is made while it is set.
func scanUntil(s string, start int, suffix string, none *bool) int {
	if *none {
		return 0
	}
	i := strings.Index(s[start:], suffix)
	if i < 0 {
		*none = true
		return 0
	}
	return start + i + len(suffix)
}

// scanComment scans an [HTML comment]:
// text after "<!--" must not start with ">" or "->",
// must not contain "--", and must not end with "-".
//
// [HTML comment]: https://spec.commonmark.org/0.30/#html-comment
func (sc *rawHTMLScanner) scanComment(s string) int {
	rest := s[len(htmlCommentPrefix):]
	if strings.HasPrefix(rest, ">") || strings.HasPrefix(rest, "->") {
		return 0
	}
	if sc.noCommentEnd {
		return 0
	}
	i := strings.Index(rest, "--")
	if i < 0 {
		sc.noCommentEnd = true
		return 0
	}
	if !strings.HasPrefix(rest[i:], htmlCommentSuffix) {
		return 0
	}
	return len(htmlCommentPrefix) + i + len(htmlCommentSuffix)
}

func hasHTMLDeclarationPrefix(s string) bool {
	return len(s) >= 3 && s[0] == '<' && s[1] == '!' && isASCIILetter(s[2])
}

// scanHTMLOpenTag returns the length of the [open tag] at the start of s.
//
// [open tag]: https://spec.commonmark.org/0.30/#open-tag
func scanHTMLOpenTag(s string) int {
	i := 1
	n := scanHTMLTagName(s[i:])
	if n == 0 {
		return 0
	}
	i += n
	for {
		spaceEnd := skipHTMLSpace(s, i)
		if spaceEnd == i {
			break
		}
		n := scanHTMLAttribute(s[spaceEnd:])
		if n == 0 {
			break
		}
		i = spaceEnd + n
	}
	i = skipHTMLSpace(s, i)
	if strings.HasPrefix(s[i:], "/>") {
		return i + 2
	}
	if i < len(s) && s[i] == '>' {
		return i + 1
	}
	return 0
}

// scanHTMLClosingTag returns the length of the [closing tag] at the start of s.
//
// [closing tag]: https://spec.commonmark.org/0.30/#closing-tag
func scanHTMLClosingTag(s string) int {
	if !strings.HasPrefix(s, "</") {
		return 0
	}
	i := 2
	n := scanHTMLTagName(s[i:])
	if n == 0 {
		return 0
	}
	i = skipHTMLSpace(s, i+n)
	if i >= len(s) || s[i] != '>' {
		return 0
	}
	return i + 1
}

func scanHTMLTagName(s string) int {
	if len(s) == 0 || !isASCIILetter(s[0]) {
		return 0
	}
	i := 1
	for i < len(s) && (isASCIILetter(s[i]) || isASCIIDigit(s[i]) || s[i] == '-') {
		i++
	}
	return i
}

// scanHTMLAttribute scans an attribute name
// and an optional attribute value specification.
func scanHTMLAttribute(s string) int {
	if len(s) == 0 {
		return 0
	}
	if c := s[0]; !isASCIILetter(c) && c != '_' && c != ':' {
		return 0
	}
	i := 1
	for i < len(s) && (isASCIILetter(s[i]) || isASCIIDigit(s[i]) || strings.IndexByte("_.:-", s[i]) >= 0) {
		i++
	}
	nameEnd := i

	// Attribute value specification.
	i = skipHTMLSpace(s, i)
	if i >= len(s) || s[i] != '=' {
		return nameEnd
	}
	i = skipHTMLSpace(s, i+1)
	if i >= len(s) {
		return nameEnd
	}
	switch c := s[i]; {
	case c == '\'' || c == '"':
		end := strings.IndexByte(s[i+1:], c)
		if end < 0 {
			return nameEnd
		}
		return i + 1 + end + 1
	case isUnquotedAttributeValueChar(c):
		for i < len(s) && isUnquotedAttributeValueChar(s[i]) {
			i++
		}
		return i
	default:
		return nameEnd
	}
}

func skipHTMLSpace(s string, i int) int {
	for i < len(s) && isSpaceTabOrLineEnding(s[i]) {
		i++
	}
	return i
}

func isSpaceTabOrLineEnding(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}

func isUnquotedAttributeValueChar(c byte) bool {
	return c > ' ' && strings.IndexByte("\"'=<>`", c) < 0
}

// htmlBlockStart returns the [HTML block] start condition (1-7)
// that line satisfies, or 0 if none match.
// line starts at the first non-space character.
// tags is the set of lowercased tag names for condition 6.
//
// [HTML block]: https://spec.commonmark.org/0.30/#html-blocks
func htmlBlockStart(line string, tags map[string]struct{}) int {
	if len(line) < 2 || line[0] != '<' {
		return 0
	}
	if name, rest := cutTagName(line[1:]); name != "" {
		for _, starter := range htmlBlockStarters1 {
			if strings.EqualFold(name, starter) && (rest == "" || rest[0] == '>' || isSpaceTabOrLineEnding(rest[0])) {
				return 1
			}
		}
	}
	switch {
	case strings.HasPrefix(line, htmlCommentPrefix):
		return 2
	case strings.HasPrefix(line, processingInstructionPrefix):
		return 3
	case hasHTMLDeclarationPrefix(line):
		return 4
	case strings.HasPrefix(line, cdataPrefix):
		return 5
	}
	tagStart := line[1:]
	if tagStart[0] == '/' {
		tagStart = tagStart[1:]
	}
	if name, rest := cutTagName(tagStart); name != "" {
		if _, ok := tags[strings.ToLower(name)]; ok {
			if rest == "" || rest[0] == '>' || strings.HasPrefix(rest, "/>") || isSpaceTabOrLineEnding(rest[0]) {
				return 6
			}
		}
	}
	var n int
	if line[1] == '/' {
		n = scanHTMLClosingTag(line)
	} else {
		n = scanHTMLOpenTag(line)
	}
	if n > 0 && isBlank(line[n:]) {
		return 7
	}
	return 0
}

// cutTagName splits s after its leading run of ASCII letters and digits.
func cutTagName(s string) (name, rest string) {
	i := 0
	for i < len(s) && (isASCIILetter(s[i]) || isASCIIDigit(s[i])) {
		i++
	}
	return s[:i], s[i:]
}

// htmlBlockEnds reports whether line satisfies the end condition
// of an HTML block with the given start condition.
// Blocks with start conditions 6 and 7 end at a blank line instead.
func htmlBlockEnds(blockType int, line string) bool {
	switch blockType {
	case 1:
		for _, ender := range htmlBlockEnders1 {
			if caseInsensitiveContains(line, ender) {
				return true
			}
		}
		return false
	case 2:
		return strings.Contains(line, htmlCommentSuffix)
	case 3:
		return strings.Contains(line, processingInstructionSuffix)
	case 4:
		return strings.Contains(line, ">")
	case 5:
		return strings.Contains(line, cdataSuffix)
	default:
		return false
	}
}

func caseInsensitiveContains(s string, search string) bool {
	for i := 0; i+len(search) <= len(s); i++ {
		if strings.EqualFold(s[i:i+len(search)], search) {
			return true
		}
	}
	return false
}

var (
	htmlBlockStarters1 = []string{
		atom.Pre.String(),
		atom.Script.String(),
		atom.Style.String(),
		atom.Textarea.String(),
	}
	htmlBlockEnders1 = []string{
		"</pre>",
		"</script>",
		"</style>",
		"</textarea>",
	}
)

// DefaultHTMLBlockTags returns the tag names that start
// an HTML block of type 6 unless configured otherwise.
func DefaultHTMLBlockTags() []string {
	tags := make([]string, len(htmlBlockStarters6))
	for i, a := range htmlBlockStarters6 {
		tags[i] = a.String()
	}
	return tags
}

var htmlBlockStarters6 = []atom.Atom{
	atom.Address,
	atom.Article,
	atom.Aside,
	atom.Base,
	atom.Basefont,
	atom.Blockquote,
	atom.Body,
	atom.Caption,
	atom.Center,
	atom.Col,
	atom.Colgroup,
	atom.Dd,
	atom.Details,
	atom.Dialog,
	atom.Dir,
	atom.Div,
	atom.Dl,
	atom.Dt,
	atom.Fieldset,
	atom.Figcaption,
	atom.Figure,
	atom.Footer,
	atom.Form,
	atom.Frame,
	atom.Frameset,
	atom.H1,
	atom.H2,
	atom.H3,
	atom.H4,
	atom.H5,
	atom.H6,
	atom.Head,
	atom.Header,
	atom.Hr,
	atom.Html,
	atom.Iframe,
	atom.Legend,
	atom.Li,
	atom.Link,
	atom.Main,
	atom.Menu,
	atom.Menuitem,
	atom.Nav,
	atom.Noframes,
	atom.Ol,
	atom.Optgroup,
	atom.Option,
	atom.P,
	atom.Param,
	atom.Section,
	atom.Source,
	atom.Summary,
	atom.Table,
	atom.Tbody,
	atom.Td,
	atom.Tfoot,
	atom.Th,
	atom.Thead,
	atom.Title,
	atom.Tr,
	atom.Track,
	atom.Ul,
}
