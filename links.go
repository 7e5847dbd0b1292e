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
	"regexp"
	"unicode/utf8"
)

// maxLinkLabelLength is the maximum number of characters
// permitted between the brackets of a link label.
const maxLinkLabelLength = 999

// maxLinkDestinationParens is the deepest nesting of unescaped parentheses
// permitted in a link destination without pointy brackets.
// Bounding the depth keeps unclosed destinations like "[a](b[a](b..."
// from being rescanned to the end of the subject.
const maxLinkDestinationParens = 32

// The functions in this file are pure: each examines the start of its argument
// and reports how many bytes it would consume,
// so callers only commit their position after a successful match.

// scanLinkLabel returns the length of the [link label] at the start of s
// (including brackets) or 0 if there is none.
//
// [link label]: https://spec.commonmark.org/0.30/#link-label
func scanLinkLabel(s string) int {
	if len(s) == 0 || s[0] != '[' {
		return 0
	}
	chars := 0
	for i := 1; i < len(s); {
		switch c := s[i]; c {
		case '[':
			return 0
		case ']':
			return i + 1
		case '\\':
			i++
			if i < len(s) && isASCIIPunctuation(s[i]) {
				i++
			}
			chars++
		default:
			_, size := utf8.DecodeRuneInString(s[i:])
			i += size
			chars++
		}
		if chars > maxLinkLabelLength {
			return 0
		}
	}
	return 0
}

// skipSpaceNewline returns the length of the run of spaces and tabs
// at the start of s, optionally containing a single line ending.
func skipSpaceNewline(s string) int {
	i := 0
	for i < len(s) && isSpaceOrTab(s[i]) {
		i++
	}
	if i < len(s) && s[i] == '\n' {
		i++
		for i < len(s) && isSpaceOrTab(s[i]) {
			i++
		}
	}
	return i
}

// parseLinkDestination parses the [link destination] at the start of s.
// The returned destination has backslash escapes and entities resolved.
// ok is false if s does not start with a destination.
// An empty destination is only permitted in pointy brackets
// or if followed by a closing parenthesis.
//
// [link destination]: https://spec.commonmark.org/0.30/#link-destination
func parseLinkDestination(s string) (dest string, n int, ok bool) {
	if len(s) > 0 && s[0] == '<' {
		for i := 1; i < len(s); i++ {
			switch s[i] {
			case '>':
				return unescapeString(s[1:i]), i + 1, true
			case '<', '\n':
				return "", 0, false
			case '\\':
				if i+1 < len(s) && s[i+1] != '\n' {
					i++
				}
			}
		}
		return "", 0, false
	}

	openParens := 0
	i := 0
loop:
	for i < len(s) {
		switch c := s[i]; {
		case c == '\\' && i+1 < len(s) && isASCIIPunctuation(s[i+1]):
			i += 2
		case c == '(':
			openParens++
			if openParens > maxLinkDestinationParens {
				return "", 0, false
			}
			i++
		case c == ')':
			if openParens < 1 {
				break loop
			}
			openParens--
			i++
		case c <= ' ' || c == 0x7f:
			break loop
		default:
			i++
		}
	}
	if i == 0 && (i >= len(s) || s[i] != ')') {
		return "", 0, false
	}
	if openParens != 0 {
		return "", 0, false
	}
	return unescapeString(s[:i]), i, true
}

// parseLinkTitle parses the [link title] at the start of s.
//
// [link title]: https://spec.commonmark.org/0.30/#link-title
func parseLinkTitle(s string) (title string, n int, ok bool) {
	if len(s) == 0 {
		return "", 0, false
	}
	closer := s[0]
	switch closer {
	case '"', '\'':
	case '(':
		closer = ')'
	default:
		return "", 0, false
	}
	for i := 1; i < len(s); i++ {
		switch c := s[i]; {
		case c == '\\':
			if i+1 < len(s) {
				i++
			}
		case c == closer:
			return unescapeString(s[1:i]), i + 1, true
		case c == '(' && closer == ')':
			return "", 0, false
		}
	}
	return "", 0, false
}

// skipToLineEnd returns the length of the spaces and tabs at the start of s
// followed by a line ending or the end of s,
// or -1 if other text follows.
func skipToLineEnd(s string) int {
	i := 0
	for i < len(s) && isSpaceOrTab(s[i]) {
		i++
	}
	switch {
	case i == len(s):
		return i
	case s[i] == '\n':
		return i + 1
	default:
		return -1
	}
}

// parseReferenceDefinition parses a [link reference definition]
// at the start of s, which must be paragraph content.
// n is 0 if s does not start with a definition.
//
// [link reference definition]: https://spec.commonmark.org/0.30/#link-reference-definition
func parseReferenceDefinition(s string) (label string, def LinkDefinition, n int) {
	labelEnd := scanLinkLabel(s)
	if labelEnd == 0 || labelEnd >= len(s) || s[labelEnd] != ':' {
		return "", LinkDefinition{}, 0
	}
	label = NormalizeLabel(s[:labelEnd])
	if label == "" {
		return "", LinkDefinition{}, 0
	}
	pos := labelEnd + 1
	pos += skipSpaceNewline(s[pos:])
	dest, destLen, ok := parseLinkDestination(s[pos:])
	if !ok {
		return "", LinkDefinition{}, 0
	}
	pos += destLen
	def.Destination = dest

	beforeTitle := pos
	pos += skipSpaceNewline(s[pos:])
	if pos != beforeTitle {
		if title, titleLen, ok := parseLinkTitle(s[pos:]); ok {
			if end := skipToLineEnd(s[pos+titleLen:]); end >= 0 {
				def.Title = title
				def.TitlePresent = true
				return label, def, pos + titleLen + end
			}
		}
	}
	// A title that is not followed by the end of the line
	// might still leave a definition without a title.
	end := skipToLineEnd(s[beforeTitle:])
	if end < 0 {
		return "", LinkDefinition{}, 0
	}
	return label, def, beforeTitle + end
}

var (
	emailAutolinkPattern = regexp.MustCompile(`^<([a-zA-Z0-9.!#$%&'*+/=?^_` + "`" + `{|}~-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*)>`)
	uriAutolinkPattern   = regexp.MustCompile(`^<([A-Za-z][A-Za-z0-9.+-]{1,31}:[^<>\x00-\x20]*)>`)
)

// parseAutolink parses an [autolink] at the start of s.
// The returned destination includes a "mailto:" scheme for email autolinks.
//
// [autolink]: https://spec.commonmark.org/0.30/#autolinks
func parseAutolink(s string) (text, dest string, n int) {
	if len(s) == 0 || s[0] != '<' {
		return "", "", 0
	}
	if m := emailAutolinkPattern.FindStringSubmatch(s); m != nil {
		return m[1], "mailto:" + m[1], len(m[0])
	}
	if m := uriAutolinkPattern.FindStringSubmatch(s); m != nil {
		return m[1], m[1], len(m[0])
	}
	return "", "", 0
}

// IsEmailAddress reports whether s is an [email address]
// as recognized in autolinks.
//
// [email address]: https://spec.commonmark.org/0.30/#email-address
func IsEmailAddress(s string) bool {
	m := emailAutolinkPattern.FindStringSubmatch("<" + s + ">")
	return m != nil && len(m[0]) == len(s)+2
}
