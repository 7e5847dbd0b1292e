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
	"fmt"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"
)

// An InlineParser parses the raw content of paragraphs and headings
// into inline trees.
type InlineParser struct {
	// ReferenceMap is used to resolve reference links.
	ReferenceMap ReferenceMap
	// Extensions are consulted when the parser encounters
	// one of their trigger bytes.
	Extensions []InlineExtension
	// Workers is the maximum number of blocks parsed concurrently.
	// Values less than 2 parse blocks one at a time.
	// The result does not depend on Workers.
	Workers int
}

// Rewrite parses the inline content of every paragraph and heading
// in the tree rooted at root.
// Rewrite reads p.ReferenceMap but never modifies it.
func (p *InlineParser) Rewrite(root *Block) {
	var leaves []*Block
	stack := []*Block{root}
	for len(stack) > 0 {
		curr := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if curr.Kind().HasInlines() {
			leaves = append(leaves, curr)
			continue
		}
		for i := len(curr.blockChildren) - 1; i >= 0; i-- {
			stack = append(stack, curr.blockChildren[i])
		}
	}

	triggers := p.extensionTriggers()
	workers := p.Workers
	if workers > len(leaves) {
		workers = len(leaves)
	}
	if workers < 2 {
		for _, b := range leaves {
			b.inlineChildren = p.parse(b.raw, triggers)
		}
		return
	}

	// Each block's inline tree only depends on its own content
	// and the (read-only) reference map.
	work := make(chan *Block)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for b := range work {
				b.inlineChildren = p.parse(b.raw, triggers)
			}
		}()
	}
	for _, b := range leaves {
		work <- b
	}
	close(work)
	wg.Wait()
}

// extensionTriggers maps trigger bytes to extensions.
func (p *InlineParser) extensionTriggers() map[byte]InlineExtension {
	if len(p.Extensions) == 0 {
		return nil
	}
	m := make(map[byte]InlineExtension)
	for _, ext := range p.Extensions {
		triggers := ext.Triggers()
		for i := 0; i < len(triggers); i++ {
			if _, dup := m[triggers[i]]; !dup {
				m[triggers[i]] = ext
			}
		}
	}
	return m
}

// inlineItem is a node in the list of inlines
// being assembled for a block.
type inlineItem struct {
	inline     *Inline
	prev, next *inlineItem
}

type inlineState struct {
	subject    string
	pos        int
	refMap     ReferenceMap
	extensions map[byte]InlineExtension

	head, tail *inlineItem
	// delimiters is the top of the delimiter stack.
	delimiters *delimiter
	brackets   []bracketStackElement
	// inactiveLinks is the number of brackets at the bottom of the stack
	// whose link openers have already been deactivated.
	inactiveLinks int

	html rawHTMLScanner

	// backticks[n] is the position of the last run of exactly n backticks
	// seen while scanning for the end of a code span.
	backticks           []int
	scannedForBackticks bool
}

// parse parses a block's raw inline content.
func (p *InlineParser) parse(raw string, extensions map[byte]InlineExtension) []*Inline {
	state := &inlineState{
		subject:    strings.Trim(raw, " \t\n\r\f\v"),
		refMap:     p.ReferenceMap,
		extensions: extensions,
	}
	for state.pos < len(state.subject) {
		state.parseInline()
	}
	state.processEmphasis(-1)

	var result []*Inline
	for item := state.head; item != nil; item = item.next {
		result = append(result, item.inline)
	}
	return normalizeInlines(result)
}

// parseInline parses the next inline at state.pos.
func (state *inlineState) parseInline() {
	switch c := state.subject[state.pos]; c {
	case '\n':
		state.parseNewline()
	case '\\':
		state.parseBackslash()
	case '`':
		state.parseBackticks()
	case '*', '_':
		state.parseDelimiterRun()
	case '[':
		state.pos++
		state.pushBracket(state.add(&Inline{kind: TextKind, text: "["}), state.pos-1, inlineDelimiterLink)
	case '!':
		if strings.HasPrefix(state.subject[state.pos:], "![") {
			state.pos += 2
			state.pushBracket(state.add(&Inline{kind: TextKind, text: "!["}), state.pos-1, inlineDelimiterImage)
		} else {
			state.addText("!")
			state.pos++
		}
	case ']':
		state.parseCloseBracket()
	case '<':
		state.parseAngleBracket()
	case '&':
		state.parseCharacterReference()
	default:
		if ext := state.extensions[c]; ext != nil {
			if n, literal := ext.ParseInline(state.subject[state.pos:]); n > 0 {
				state.add(&Inline{
					kind:      ExtensionInlineKind,
					text:      literal,
					extension: ext,
				})
				state.pos += n
				return
			}
			state.addText(state.subject[state.pos : state.pos+1])
			state.pos++
			return
		}
		state.parseText()
	}
}

// isSpecial reports whether c can start an inline other than text.
func (state *inlineState) isSpecial(c byte) bool {
	switch c {
	case '\n', '\\', '`', '*', '_', '[', '!', ']', '<', '&':
		return true
	default:
		return state.extensions[c] != nil
	}
}

func (state *inlineState) parseText() {
	start := state.pos
	state.pos++
	for state.pos < len(state.subject) && !state.isSpecial(state.subject[state.pos]) {
		state.pos++
	}
	state.addText(state.subject[start:state.pos])
}

func (state *inlineState) parseNewline() {
	state.pos++
	kind := SoftLineBreakKind
	if last := state.tail; last != nil && last.inline.kind == TextKind && strings.HasSuffix(last.inline.text, " ") {
		if strings.HasSuffix(last.inline.text, "  ") {
			kind = HardLineBreakKind
		}
		last.inline.text = strings.TrimRight(last.inline.text, " ")
	}
	state.add(&Inline{kind: kind})
	// Leading spaces on the next line are not part of the content.
	for state.pos < len(state.subject) && state.subject[state.pos] == ' ' {
		state.pos++
	}
}

func (state *inlineState) parseBackslash() {
	state.pos++
	switch {
	case state.pos < len(state.subject) && state.subject[state.pos] == '\n':
		state.pos++
		state.add(&Inline{kind: HardLineBreakKind})
	case state.pos < len(state.subject) && isASCIIPunctuation(state.subject[state.pos]):
		state.addText(state.subject[state.pos : state.pos+1])
		state.pos++
	default:
		state.addText(`\`)
	}
}

// maxBackticks is the longest backtick string that can open a code span.
const maxBackticks = 1000

// parseBackticks parses a [code span] or a literal backtick string.
//
// [code span]: https://spec.commonmark.org/0.30/#code-spans
func (state *inlineState) parseBackticks() {
	start := state.pos
	n := countLeading(state.subject[start:], '`')
	state.pos += n
	contentStart := state.pos
	end := state.scanToClosingBackticks(n)
	if end < 0 {
		state.pos = contentStart
		state.addText(state.subject[start:contentStart])
		return
	}
	content := strings.ReplaceAll(state.subject[contentStart:end-n], "\n", " ")
	if len(content) >= 2 && content[0] == ' ' && content[len(content)-1] == ' ' && strings.Trim(content, " ") != "" {
		content = content[1 : len(content)-1]
	}
	state.pos = end
	state.add(&Inline{kind: CodeSpanKind, text: content})
}

// scanToClosingBackticks advances past the next backtick string of length n
// and returns the position after it, or -1 if there is none.
// Positions of other backtick strings are remembered
// so that unclosed code spans do not make parsing quadratic.
func (state *inlineState) scanToClosingBackticks(n int) int {
	if n > maxBackticks {
		return -1
	}
	if state.backticks == nil {
		state.backticks = make([]int, maxBackticks+1)
	}
	if state.scannedForBackticks && state.backticks[n] <= state.pos {
		return -1
	}
	for {
		for state.pos < len(state.subject) && state.subject[state.pos] != '`' {
			state.pos++
		}
		if state.pos >= len(state.subject) {
			break
		}
		runStart := state.pos
		numTicks := countLeading(state.subject[runStart:], '`')
		state.pos += numTicks
		if numTicks <= maxBackticks {
			state.backticks[numTicks] = runStart
		}
		if numTicks == n {
			return state.pos
		}
	}
	state.scannedForBackticks = true
	return -1
}

func (state *inlineState) parseDelimiterRun() {
	start := state.pos
	c := state.subject[start]
	n := countLeading(state.subject[start:], c)
	state.pos += n

	d := &delimiter{
		flags: emphasisFlags(state.subject, start, state.pos),
		n:     n,
		origN: n,
		pos:   start,
		item:  state.add(&Inline{kind: TextKind, text: state.subject[start:state.pos]}),
		prev:  state.delimiters,
	}
	if c == '*' {
		d.typ = inlineDelimiterStar
	} else {
		d.typ = inlineDelimiterUnderscore
	}
	if state.delimiters != nil {
		state.delimiters.next = d
	}
	state.delimiters = d
}

// emphasisFlags determines whether the given [delimiter run]
// [can open emphasis] and/or [can close emphasis].
//
// [delimiter run]: https://spec.commonmark.org/0.30/#delimiter-run
// [can open emphasis]: https://spec.commonmark.org/0.30/#can-open-emphasis
// [can close emphasis]: https://spec.commonmark.org/0.30/#can-close-emphasis
func emphasisFlags(source string, start, end int) uint8 {
	var flags uint8
	prevChar := '\n'
	if start > 0 {
		prevChar, _ = utf8.DecodeLastRuneInString(source[:start])
	}
	nextChar := '\n'
	if end < len(source) {
		nextChar, _ = utf8.DecodeRuneInString(source[end:])
	}
	leftFlanking := !isUnicodeWhitespace(nextChar) &&
		(!isUnicodePunctuation(nextChar) || isUnicodeWhitespace(prevChar) || isUnicodePunctuation(prevChar))
	rightFlanking := !isUnicodeWhitespace(prevChar) &&
		(!isUnicodePunctuation(prevChar) || isUnicodeWhitespace(nextChar) || isUnicodePunctuation(nextChar))
	if leftFlanking && (source[start] == '*' || !rightFlanking || isUnicodePunctuation(prevChar)) {
		flags |= openerFlag
	}
	if rightFlanking && (source[start] == '*' || !leftFlanking || isUnicodePunctuation(nextChar)) {
		flags |= closerFlag
	}
	return flags
}

// isUnicodeWhitespace reports whether c is a [Unicode whitespace character].
//
// [Unicode whitespace character]: https://spec.commonmark.org/0.30/#unicode-whitespace-character
func isUnicodeWhitespace(c rune) bool {
	return c == '\t' || c == '\n' || c == '\f' || c == '\r' || unicode.Is(unicode.Zs, c)
}

// isUnicodePunctuation reports whether c is a [Unicode punctuation character].
//
// [Unicode punctuation character]: https://spec.commonmark.org/0.30/#unicode-punctuation-character
func isUnicodePunctuation(c rune) bool {
	if c < utf8.RuneSelf {
		return isASCIIPunctuation(byte(c))
	}
	return unicode.IsPunct(c)
}

func (state *inlineState) pushBracket(item *inlineItem, index int, typ inlineDelimiter) {
	if len(state.brackets) > 0 {
		state.brackets[len(state.brackets)-1].bracketAfter = true
	}
	state.brackets = append(state.brackets, bracketStackElement{
		typ:    typ,
		item:   item,
		index:  index,
		active: true,
	})
}

func (state *inlineState) popBracket() {
	state.brackets[len(state.brackets)-1] = bracketStackElement{}
	state.brackets = state.brackets[:len(state.brackets)-1]
	if state.inactiveLinks > len(state.brackets) {
		state.inactiveLinks = len(state.brackets)
	}
}

// parseCloseBracket handles a "]",
// which might close a link or image.
func (state *inlineState) parseCloseBracket() {
	state.pos++
	afterBracket := state.pos
	if len(state.brackets) == 0 {
		state.addText("]")
		return
	}
	opener := state.brackets[len(state.brackets)-1]
	if !opener.active {
		state.popBracket()
		state.addText("]")
		return
	}

	dest, title, matched := state.parseInlineLinkTail()
	if !matched {
		var label string
		n := scanLinkLabel(state.subject[state.pos:])
		switch {
		case n > 2:
			label = state.subject[state.pos : state.pos+n]
		case !opener.bracketAfter:
			// Collapsed or shortcut reference: the link text is the label.
			label = state.subject[opener.index:afterBracket]
		}
		if n > 0 {
			state.pos += n
		}
		if label != "" && len(label) <= maxLinkLabelLength*utf8.UTFMax+2 {
			if def, ok := state.refMap.Lookup(label); ok {
				dest = def.Destination
				title = def.Title
				matched = true
			}
		}
		if !matched {
			state.pos = afterBracket
		}
	}

	if !matched {
		state.popBracket()
		state.addText("]")
		return
	}

	kind := LinkKind
	if opener.typ == inlineDelimiterImage {
		kind = ImageKind
	}
	state.processEmphasis(opener.index)
	link := &Inline{
		kind:     kind,
		dest:     dest,
		title:    title,
		children: state.collect(opener.item, nil),
	}
	state.add(link)
	state.popBracket()
	state.unlink(opener.item)
	if kind == LinkKind {
		// Links may not contain other links.
		for i := state.inactiveLinks; i < len(state.brackets); i++ {
			if state.brackets[i].typ == inlineDelimiterLink {
				state.brackets[i].active = false
			}
		}
		state.inactiveLinks = len(state.brackets)
	}
}

// parseInlineLinkTail attempts to parse the parenthesized destination and title
// of an [inline link] at state.pos.
// state.pos is only advanced on success.
//
// [inline link]: https://spec.commonmark.org/0.30/#inline-link
func (state *inlineState) parseInlineLinkTail() (dest, title string, ok bool) {
	s := state.subject[state.pos:]
	if !strings.HasPrefix(s, "(") {
		return "", "", false
	}
	i := 1
	i += skipSpaceNewline(s[i:])
	dest, n, ok := parseLinkDestination(s[i:])
	if !ok {
		return "", "", false
	}
	i += n
	beforeTitle := i
	i += skipSpaceNewline(s[i:])
	if i > beforeTitle {
		if t, n, ok := parseLinkTitle(s[i:]); ok {
			title = t
			i += n
			i += skipSpaceNewline(s[i:])
		}
	}
	if i >= len(s) || s[i] != ')' {
		return "", "", false
	}
	state.pos += i + 1
	return dest, title, true
}

// parseAngleBracket handles a "<",
// which might start an autolink or raw HTML.
func (state *inlineState) parseAngleBracket() {
	s := state.subject[state.pos:]
	if text, dest, n := parseAutolink(s); n > 0 {
		state.add(&Inline{
			kind: AutolinkKind,
			text: text,
			dest: dest,
		})
		state.pos += n
		return
	}
	if n := state.html.scan(s); n > 0 {
		state.add(&Inline{kind: RawHTMLKind, text: s[:n]})
		state.pos += n
		return
	}
	state.addText("<")
	state.pos++
}

func (state *inlineState) parseCharacterReference() {
	s := state.subject[state.pos:]
	if n := scanCharacterReference(s); n > 0 {
		if decoded, ok := decodeCharacterReference(s[:n]); ok {
			state.addText(decoded)
			state.pos += n
			return
		}
	}
	state.addText("&")
	state.pos++
}

// processEmphasis implements the [process emphasis procedure]
// to convert delimiters to emphasis spans.
// Only delimiters that start after the subject offset stackBottom are processed,
// and they are all removed from the stack afterward.
//
// [process emphasis procedure]: https://spec.commonmark.org/0.30/#process-emphasis
func (state *inlineState) processEmphasis(stackBottom int) {
	// openersBottom holds subject offsets:
	// an opener must start after the offset for its closer's class.
	var openersBottom [openersBottomCount]int
	for i := range openersBottom {
		openersBottom[i] = stackBottom
	}
	var closer *delimiter
	for d := state.delimiters; d != nil && d.pos > stackBottom; d = d.prev {
		closer = d
	}
	for closer != nil {
		// Move current_position forward in the delimiter stack
		// until we find the first potential closer.
		if closer.flags&closerFlag == 0 {
			closer = closer.next
			continue
		}

		// Now, look back in the stack
		// (staying above stack_bottom and the openers_bottom for this delimiter type)
		// for the first matching potential opener.
		bottomIndex := closer.openersBottomIndex()
		opener := closer.prev
		for opener != nil && opener.pos > openersBottom[bottomIndex] && !isEmphasisDelimiterMatch(opener, closer) {
			opener = opener.prev
		}
		if opener == nil || opener.pos <= openersBottom[bottomIndex] {
			// We know that there are no openers for this kind of closer up to and including this point,
			// so put a lower bound on future searches.
			openersBottom[bottomIndex] = closer.pos - 1
			next := closer.next
			if closer.flags&openerFlag == 0 {
				// Remove delimiter from the stack
				// since we know it can't be an opener either.
				state.removeDelimiter(closer)
			}
			closer = next
			continue
		}

		kind := EmphasisKind
		used := 1
		if opener.n >= 2 && closer.n >= 2 {
			kind = StrongKind
			used = 2
		}
		opener.n -= used
		closer.n -= used
		openerText := opener.item.inline
		openerText.text = openerText.text[:len(openerText.text)-used]
		closerText := closer.item.inline
		closerText.text = closerText.text[used:]
		state.wrap(kind, opener.item, closer.item)

		// Remove any delimiters between the opener and closer from the delimiter stack.
		opener.next = closer
		closer.prev = opener

		// If either the opening or the closing text nodes became empty,
		// remove them from the tree.
		if opener.n == 0 {
			state.unlink(opener.item)
			state.removeDelimiter(opener)
		}
		if closer.n == 0 {
			next := closer.next
			state.unlink(closer.item)
			state.removeDelimiter(closer)
			closer = next
		}
	}

	// After we're done, we remove all delimiters above stack_bottom from the delimiter stack.
	for state.delimiters != nil && state.delimiters.pos > stackBottom {
		state.removeDelimiter(state.delimiters)
	}
}

// removeDelimiter unlinks d from the delimiter stack.
func (state *inlineState) removeDelimiter(d *delimiter) {
	if d.prev != nil {
		d.prev.next = d.next
	}
	if d.next != nil {
		d.next.prev = d.prev
	} else {
		state.delimiters = d.prev
	}
	d.prev, d.next = nil, nil
}

// add appends a new node to the end of the list.
func (state *inlineState) add(node *Inline) *inlineItem {
	item := &inlineItem{inline: node, prev: state.tail}
	if state.tail == nil {
		state.head = item
	} else {
		state.tail.next = item
	}
	state.tail = item
	return item
}

func (state *inlineState) addText(text string) {
	state.add(&Inline{kind: TextKind, text: text})
}

func (state *inlineState) unlink(item *inlineItem) {
	if item.prev == nil {
		state.head = item.next
	} else {
		item.prev.next = item.next
	}
	if item.next == nil {
		state.tail = item.prev
	} else {
		item.next.prev = item.prev
	}
	item.prev, item.next = nil, nil
}

// collect removes the items strictly between start and end
// (or the end of the list if end is nil)
// and returns their nodes.
func (state *inlineState) collect(start, end *inlineItem) []*Inline {
	var nodes []*Inline
	for item := start.next; item != end; {
		next := item.next
		nodes = append(nodes, item.inline)
		state.unlink(item)
		item = next
	}
	return nodes
}

// wrap moves the nodes between start and end
// into a new node of the given kind placed after start.
func (state *inlineState) wrap(kind InlineKind, start, end *inlineItem) {
	item := &inlineItem{
		inline: &Inline{
			kind:     kind,
			children: state.collect(start, end),
		},
		prev: start,
		next: end,
	}
	start.next = item
	end.prev = item
}

// normalizeInlines merges adjacent text nodes and drops empty ones
// throughout the given nodes.
// Each run of adjacent text is joined in a single pass.
func normalizeInlines(nodes []*Inline) []*Inline {
	result := nodes[:0]
	for i := 0; i < len(nodes); {
		node := nodes[i]
		if node.kind != TextKind {
			if len(node.children) > 0 {
				node.children = normalizeInlines(node.children)
			}
			result = append(result, node)
			i++
			continue
		}

		j := i + 1
		for j < len(nodes) && nodes[j].kind == TextKind {
			j++
		}
		switch run := nodes[i:j]; len(run) {
		case 1:
			if node.text != "" {
				result = append(result, node)
			}
		default:
			sb := new(strings.Builder)
			for _, t := range run {
				sb.WriteString(t.text)
			}
			if sb.Len() > 0 {
				result = append(result, &Inline{kind: TextKind, text: sb.String()})
			}
		}
		i = j
	}
	if len(result) == 0 {
		return nil
	}
	return result
}

// delimiter is an entry in the delimiter stack,
// a doubly linked list so that removals take constant time.
type delimiter struct {
	typ   inlineDelimiter
	flags uint8
	// n is the number of delimiters remaining in the run.
	n int
	// origN is the length of the run as originally parsed.
	origN int
	// pos is the offset of the run in the subject.
	pos  int
	item *inlineItem

	prev, next *delimiter
}

// openersBottomCount is the number of distinct openers_bottom sets:
// one for each delimiter character, closer "can open" state,
// and original run length modulo 3.
const openersBottomCount = 12

func (elem *delimiter) openersBottomIndex() int {
	i := elem.origN % 3
	if elem.flags&openerFlag != 0 {
		i += 3
	}
	if elem.typ == inlineDelimiterStar {
		i += 6
	}
	return i
}

func isEmphasisDelimiterMatch(open, close *delimiter) bool {
	return open.typ == close.typ &&
		open.flags&openerFlag != 0 &&
		// Rule 9 & 10 of https://spec.commonmark.org/0.30/#emphasis-and-strong-emphasis
		(open.flags&closerFlag == 0 && close.flags&openerFlag == 0 ||
			(open.origN+close.origN)%3 != 0 ||
			open.origN%3 == 0 && close.origN%3 == 0)
}

type bracketStackElement struct {
	typ  inlineDelimiter
	item *inlineItem
	// index is the position of the "[" in the subject.
	index  int
	active bool
	// bracketAfter is set if another bracket was pushed after this one,
	// meaning the link text cannot double as a reference label.
	bracketAfter bool
}

const (
	openerFlag = 1 << iota
	closerFlag
)

type inlineDelimiter int8

const (
	inlineDelimiterStar inlineDelimiter = 1 + iota
	inlineDelimiterUnderscore
	inlineDelimiterLink
	inlineDelimiterImage
)

func (d inlineDelimiter) String() string {
	switch d {
	case inlineDelimiterStar:
		return "*"
	case inlineDelimiterUnderscore:
		return "_"
	case inlineDelimiterLink:
		return "["
	case inlineDelimiterImage:
		return "!["
	default:
		return fmt.Sprintf("inlineDelimiter(%d)", int8(d))
	}
}
