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
	"html"
	"strings"
	"unicode/utf8"
)

const (
	maxEntityNameLength     = 32
	maxDecimalReference     = 7
	maxHexadecimalReference = 6
)

// scanCharacterReference returns the length of the [entity]
// or [numeric character reference] at the start of s,
// or 0 if s does not start with one.
//
// [entity]: https://spec.commonmark.org/0.30/#entity-references
// [numeric character reference]: https://spec.commonmark.org/0.30/#decimal-numeric-character-references
func scanCharacterReference(s string) int {
	if len(s) < 3 || s[0] != '&' {
		return 0
	}
	i := 1
	var digitsStart, maxDigits int
	isDigit := isASCIIDigit
	switch {
	case s[1] == '#' && (s[2] == 'x' || s[2] == 'X'):
		i = 3
		digitsStart = i
		maxDigits = maxHexadecimalReference
		isDigit = isHex
	case s[1] == '#':
		i = 2
		digitsStart = i
		maxDigits = maxDecimalReference
	case isASCIILetter(s[1]):
		i = 2
		for i < len(s) && (isASCIILetter(s[i]) || isASCIIDigit(s[i])) {
			i++
		}
		if n := i - 1; n < 2 || n > maxEntityNameLength {
			return 0
		}
		if i >= len(s) || s[i] != ';' {
			return 0
		}
		return i + 1
	default:
		return 0
	}
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	if n := i - digitsStart; n < 1 || n > maxDigits {
		return 0
	}
	if i >= len(s) || s[i] != ';' {
		return 0
	}
	return i + 1
}

// decodeCharacterReference decodes a reference found by [scanCharacterReference].
// ok is false if ref names an unknown entity,
// in which case the reference should be treated as literal text.
func decodeCharacterReference(ref string) (_ string, ok bool) {
	if strings.HasPrefix(ref, "&#") {
		digits := ref[2 : len(ref)-1]
		base := rune(10)
		if digits[0] == 'x' || digits[0] == 'X' {
			digits = digits[1:]
			base = 16
		}
		var n rune
		for i := 0; i < len(digits); i++ {
			n = n*base + hexValue(digits[i])
		}
		if n == 0 || !utf8.ValidRune(n) {
			n = utf8.RuneError
		}
		return string(n), true
	}
	// The standard library's table also matches legacy names
	// without semicolons as prefixes (e.g. "&notit;" decodes to "¬it;").
	// Every full match decodes to at most two code points,
	// while a prefix match leaves at least one name byte and a semicolon behind.
	decoded := html.UnescapeString(ref)
	if decoded == ref || utf8.RuneCountInString(decoded) > 2 {
		return "", false
	}
	return decoded, true
}

// unescapeString resolves backslash escapes and character references in s.
// It is used for link destinations, link titles, and info strings.
func unescapeString(s string) string {
	i := strings.IndexAny(s, `\&`)
	if i < 0 {
		return s
	}
	sb := new(strings.Builder)
	sb.Grow(len(s))
	sb.WriteString(s[:i])
	for i < len(s) {
		switch c := s[i]; {
		case c == '\\' && i+1 < len(s) && isASCIIPunctuation(s[i+1]):
			sb.WriteByte(s[i+1])
			i += 2
		case c == '&':
			if n := scanCharacterReference(s[i:]); n > 0 {
				if decoded, ok := decodeCharacterReference(s[i : i+n]); ok {
					sb.WriteString(decoded)
					i += n
					continue
				}
			}
			sb.WriteByte(c)
			i++
		default:
			sb.WriteByte(c)
			i++
		}
	}
	return sb.String()
}

func hexValue(c byte) rune {
	switch {
	case '0' <= c && c <= '9':
		return rune(c - '0')
	case 'a' <= c && c <= 'f':
		return rune(c - 'a' + 10)
	case 'A' <= c && c <= 'F':
		return rune(c - 'A' + 10)
	default:
		return 0
	}
}

func isASCIILetter(c byte) bool {
	return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z'
}

func isASCIIDigit(c byte) bool {
	return '0' <= c && c <= '9'
}

func isHex(c byte) bool {
	return 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F' || isASCIIDigit(c)
}

// isASCIIPunctuation reports whether c is an [ASCII punctuation character].
//
// [ASCII punctuation character]: https://spec.commonmark.org/0.30/#ascii-punctuation-character
func isASCIIPunctuation(c byte) bool {
	return '!' <= c && c <= '/' ||
		':' <= c && c <= '@' ||
		'[' <= c && c <= '`' ||
		'{' <= c && c <= '~'
}
