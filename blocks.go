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
)

// A BlockParser splits Markdown source into a tree of blocks
// and collects the document's link reference definitions.
// The zero value parses standard CommonMark.
//
// Inline content is left unparsed:
// use an [InlineParser] to finish parsing the returned [Document].
type BlockParser struct {
	// TabWidth is the number of columns between tab stops.
	// If TabWidth is zero, 4 is used.
	TabWidth int
	// HTMLBlockTags is the set of tag names
	// that start an HTML block (condition 6).
	// If HTMLBlockTags is nil, [DefaultHTMLBlockTags] is used.
	HTMLBlockTags []string
	// Extensions are tried, in order,
	// after all the standard block start rules.
	Extensions []BlockExtension
}

// Parse parses the block structure of source.
// Parse never fails: every input produces a document.
func (bp *BlockParser) Parse(source string) *Document {
	p := newBlockParser(bp)
	for _, line := range splitLines(source) {
		p.incorporateLine(line)
	}
	for p.tip >= 0 {
		p.finalize(p.tip, p.lineNumber)
	}
	return &Document{
		Root:       p.build(0),
		References: p.refs,
	}
}

// blockNode is an entry in the parser's block arena.
// Blocks refer to their parents and children by arena index
// until parsing completes.
type blockNode struct {
	block    *Block
	parent   int
	children []int
	open     bool
	content  []byte
}

type continueResult int

const (
	// continueMatched indicates the block continues on the current line.
	continueMatched continueResult = iota
	// continueFailed indicates the block does not continue.
	continueFailed
	// continueConsumed indicates that the block consumed the entire line.
	continueConsumed
)

type startResult int

const (
	noStart startResult = iota
	// containerStart indicates a container block was opened
	// and more blocks may start on the rest of the line.
	containerStart
	// leafStart indicates a leaf block was opened.
	leafStart
)

// A blockStart attempts to open a new block at the cursor.
type blockStart func(p *blockParser, container int) startResult

type blockParser struct {
	lineCursor

	htmlTags map[string]struct{}
	starts   []blockStart
	// special marks the bytes that can begin a block start
	// at the first non-space position of a line.
	special [256]bool

	arena                []*blockNode
	tip                  int
	oldTip               int
	lastMatchedContainer int
	allClosed            bool
	lineNumber           int
	lastLineLength       int
	refs                 ReferenceMap
}

func newBlockParser(bp *BlockParser) *blockParser {
	p := &blockParser{
		htmlTags: make(map[string]struct{}),
		refs:     make(ReferenceMap),
	}
	p.tabWidth = bp.TabWidth
	if p.tabWidth <= 0 {
		p.tabWidth = defaultTabWidth
	}
	tags := bp.HTMLBlockTags
	if tags == nil {
		tags = DefaultHTMLBlockTags()
	}
	for _, tag := range tags {
		p.htmlTags[strings.ToLower(tag)] = struct{}{}
	}
	p.starts = append(p.starts, standardBlockStarts...)
	for i := 0; i < len(standardBlockTriggers); i++ {
		p.special[standardBlockTriggers[i]] = true
	}
	for _, ext := range bp.Extensions {
		p.starts = append(p.starts, extensionBlockStart(ext))
		triggers := ext.Triggers()
		for i := 0; i < len(triggers); i++ {
			p.special[triggers[i]] = true
		}
	}

	p.arena = append(p.arena, &blockNode{
		block:  &Block{kind: DocumentKind, start: Position{Line: 1, Column: 1}},
		parent: -1,
		open:   true,
	})
	return p
}

// standardBlockTriggers is the set of bytes
// that can begin one of the standard block starts.
const standardBlockTriggers = "#`~*+_=<>-0123456789"

// standardBlockStarts is the ordered list of CommonMark block start rules.
var standardBlockStarts = []blockStart{
	startBlockQuote,
	startATXHeading,
	startFencedCodeBlock,
	startHTMLBlock,
	startSetextHeading,
	startThematicBreak,
	startListItem,
	startIndentedCodeBlock,
}

func (p *blockParser) node(i int) *blockNode {
	return p.arena[i]
}

func (p *blockParser) kind(i int) BlockKind {
	return p.arena[i].block.kind
}

// lastChild returns the arena index of the last child of i or -1.
func (p *blockParser) lastChild(i int) int {
	children := p.arena[i].children
	if len(children) == 0 {
		return -1
	}
	return children[len(children)-1]
}

// incorporateLine analyzes a single line of input,
// opening and closing blocks as needed.
func (p *blockParser) incorporateLine(line string) {
	p.lineNumber++
	p.reset(line)
	p.oldTip = p.tip

	// Descend through the open blocks,
	// checking whether each continues on this line.
	container := 0
	for {
		last := p.lastChild(container)
		if last < 0 || !p.arena[last].open {
			break
		}
		container = last
		p.findNextNonspace()
		result := p.continueBlock(container)
		if result == continueConsumed {
			return
		}
		if result == continueFailed {
			container = p.arena[container].parent
			break
		}
	}
	p.allClosed = container == p.oldTip
	p.lastMatchedContainer = container

	// Try new block starts until a leaf block is opened
	// or nothing else matches.
	matchedLeaf := p.kind(container) != ParagraphKind && p.kind(container).acceptsLines()
	for !matchedLeaf {
		p.findNextNonspace()
		if !p.indented && !p.special[p.peekAt(p.nextNonspace)] {
			p.advanceNextNonspace()
			break
		}
		result := noStart
		for _, start := range p.starts {
			if result = start(p, container); result != noStart {
				break
			}
		}
		if result == noStart {
			p.advanceNextNonspace()
			break
		}
		container = p.tip
		matchedLeaf = result == leafStart
	}

	// What remains at the offset is text.
	if !p.allClosed && !p.blank && p.kind(p.tip) == ParagraphKind {
		// Lazy paragraph continuation.
		p.addLine()
	} else {
		p.closeUnmatchedBlocks()
		switch k := p.kind(container); {
		case k.acceptsLines():
			p.addLine()
			b := p.arena[container].block
			if k == HTMLBlockKind && b.htmlType >= 1 && b.htmlType <= 5 && htmlBlockEnds(b.htmlType, p.rest()) {
				p.lastLineLength = len(line)
				p.finalize(container, p.lineNumber)
			}
		case p.offset < len(line) && !p.blank:
			p.addChild(ParagraphKind, p.offset)
			p.advanceNextNonspace()
			p.addLine()
		}
	}
	p.lastLineLength = len(line)
}

// continueBlock checks whether the open block i continues on the current line,
// advancing the cursor past any of the block's markers.
func (p *blockParser) continueBlock(i int) continueResult {
	b := p.arena[i].block
	switch b.kind {
	case DocumentKind, ListKind:
		return continueMatched
	case BlockQuoteKind:
		if p.indented || p.peekAt(p.nextNonspace) != '>' {
			return continueFailed
		}
		p.advanceNextNonspace()
		p.advance(1, false)
		if isSpaceOrTab(p.peekAt(p.offset)) {
			p.advance(1, true)
		}
		return continueMatched
	case ListItemKind:
		switch contentIndent := b.list.markerOffset + b.list.padding; {
		case p.blank:
			if len(p.arena[i].children) == 0 {
				// A list item can begin with at most one blank line.
				return continueFailed
			}
			p.advanceNextNonspace()
		case p.indent >= contentIndent:
			p.advance(contentIndent, true)
		default:
			return continueFailed
		}
		return continueMatched
	case FencedCodeBlockKind:
		if n := p.closingFenceLength(b); n > 0 {
			p.lastLineLength = p.offset + p.indent + n
			p.finalize(i, p.lineNumber)
			return continueConsumed
		}
		for n := b.fenceOffset; n > 0 && isSpaceOrTab(p.peekAt(p.offset)); n-- {
			p.advance(1, true)
		}
		return continueMatched
	case IndentedCodeBlockKind:
		switch {
		case p.indent >= codeIndent:
			p.advance(codeIndent, true)
		case p.blank:
			p.advanceNextNonspace()
		default:
			return continueFailed
		}
		return continueMatched
	case HTMLBlockKind:
		if p.blank && (b.htmlType == 6 || b.htmlType == 7) {
			return continueFailed
		}
		return continueMatched
	case ParagraphKind:
		if p.blank {
			return continueFailed
		}
		return continueMatched
	case ExtensionBlockKind:
		ok, last := b.extension.Continue(b, p.rest())
		if !ok {
			return continueFailed
		}
		if last {
			p.addLine()
			p.lastLineLength = len(p.line)
			p.finalize(i, p.lineNumber)
			return continueConsumed
		}
		return continueMatched
	default:
		// Headings and thematic breaks are a single line.
		return continueFailed
	}
}

// closingFenceLength returns the length of the closing code fence
// for the fenced code block b on the current line, or 0.
func (p *blockParser) closingFenceLength(b *Block) int {
	if p.indent > 3 || p.peekAt(p.nextNonspace) != b.fenceChar {
		return 0
	}
	rest := p.line[p.nextNonspace:]
	n := countLeading(rest, b.fenceChar)
	if n < b.fenceLength || !isSpaceTabOnly(rest[n:]) {
		return 0
	}
	return n
}

// addLine appends the rest of the current line to the tip's content.
func (p *blockParser) addLine() {
	n := p.arena[p.tip]
	var prefix string
	if p.partiallyConsumedTab {
		// Skip over the tab, adding the columns not yet consumed as spaces.
		p.offset++
		prefix = strings.Repeat(" ", p.charsToTab(p.column))
	}
	if n.block.kind == ExtensionBlockKind {
		n.block.lines = append(n.block.lines, prefix+p.rest())
		return
	}
	n.content = append(n.content, prefix...)
	n.content = append(n.content, p.rest()...)
	n.content = append(n.content, '\n')
}

// addChild adds a new block of the given kind as a child of the tip,
// closing any blocks that cannot contain it.
// offset is the byte offset in the current line where the block starts.
func (p *blockParser) addChild(kind BlockKind, offset int) int {
	for !p.kind(p.tip).canContain(kind) {
		p.finalize(p.tip, p.lineNumber-1)
	}
	i := len(p.arena)
	p.arena = append(p.arena, &blockNode{
		block: &Block{
			kind:  kind,
			start: Position{Line: p.lineNumber, Column: offset + 1},
		},
		parent: p.tip,
		open:   true,
	})
	parent := p.arena[p.tip]
	parent.children = append(parent.children, i)
	p.tip = i
	return i
}

// closeUnmatchedBlocks finalizes the blocks
// that did not continue on the current line.
func (p *blockParser) closeUnmatchedBlocks() {
	if p.allClosed {
		return
	}
	for p.oldTip != p.lastMatchedContainer {
		parent := p.arena[p.oldTip].parent
		p.finalize(p.oldTip, p.lineNumber-1)
		p.oldTip = parent
	}
	p.allClosed = true
}

// finalize closes the block i, which ends on the given line,
// and makes its parent the tip.
func (p *blockParser) finalize(i int, lineNumber int) {
	n := p.arena[i]
	b := n.block
	n.open = false
	b.end = Position{Line: lineNumber, Column: p.lastLineLength}

	switch b.kind {
	case ParagraphKind:
		p.extractReferences(n)
		if isBlank(string(n.content)) {
			// Only link reference definitions.
			p.remove(i)
		} else {
			b.raw = string(n.content)
		}
	case ATXHeadingKind, SetextHeadingKind:
		b.raw = string(n.content)
	case FencedCodeBlockKind:
		content := string(n.content)
		firstLine, rest, _ := strings.Cut(content, "\n")
		b.info = unescapeString(strings.TrimSpace(firstLine))
		b.literal = rest
	case IndentedCodeBlockKind:
		lines := strings.Split(string(n.content), "\n")
		for len(lines) > 0 && isSpaceTabOnly(lines[len(lines)-1]) {
			lines = lines[:len(lines)-1]
		}
		b.literal = strings.Join(lines, "\n") + "\n"
	case HTMLBlockKind:
		b.literal = trimTrailingBlankLines(string(n.content))
	case ListItemKind:
		if last := p.lastChild(i); last >= 0 {
			b.end = p.arena[last].block.end
		} else {
			b.end = Position{
				Line:   b.start.Line,
				Column: b.list.markerOffset + b.list.padding,
			}
		}
	case ListKind:
		b.list.Tight = p.isTight(n)
		for _, item := range n.children {
			p.arena[item].block.list.Tight = b.list.Tight
		}
		if last := p.lastChild(i); last >= 0 {
			b.end = p.arena[last].block.end
		}
	}
	n.content = nil
	p.tip = n.parent
}

// isTight reports whether a list is tight:
// no two items are separated by a blank line
// and no item directly contains two blocks separated by a blank line.
func (p *blockParser) isTight(list *blockNode) bool {
	for i, item := range list.children {
		if i+1 < len(list.children) && p.endsWithBlankLine(item, list.children[i+1]) {
			return false
		}
		sub := p.arena[item].children
		for j := 0; j+1 < len(sub); j++ {
			if p.endsWithBlankLine(sub[j], sub[j+1]) {
				return false
			}
		}
	}
	return true
}

// endsWithBlankLine reports whether a blank line separates block i
// from its next sibling.
func (p *blockParser) endsWithBlankLine(i, next int) bool {
	return p.arena[i].block.end.Line != p.arena[next].block.start.Line-1
}

// remove detaches block i from its parent.
func (p *blockParser) remove(i int) {
	parent := p.arena[p.arena[i].parent]
	for j, c := range parent.children {
		if c == i {
			parent.children = append(parent.children[:j], parent.children[j+1:]...)
			break
		}
	}
}

// extractReferences removes any link reference definitions
// from the start of a paragraph's content
// and adds them to the reference map.
func (p *blockParser) extractReferences(n *blockNode) {
	s := string(n.content)
	for len(s) > 0 && s[0] == '[' {
		label, def, consumed := parseReferenceDefinition(s)
		if consumed == 0 {
			break
		}
		p.refs.add(label, def)
		s = s[consumed:]
	}
	n.content = n.content[len(n.content)-len(s):]
}

// build converts the arena rooted at i into an owned tree of blocks.
func (p *blockParser) build(i int) *Block {
	n := p.arena[i]
	b := n.block
	if len(n.children) > 0 {
		b.blockChildren = make([]*Block, len(n.children))
		for j, c := range n.children {
			b.blockChildren[j] = p.build(c)
		}
	}
	return b
}

func startBlockQuote(p *blockParser, container int) startResult {
	if p.indented || p.peekAt(p.nextNonspace) != '>' {
		return noStart
	}
	p.advanceNextNonspace()
	p.advance(1, false)
	if isSpaceOrTab(p.peekAt(p.offset)) {
		p.advance(1, true)
	}
	p.closeUnmatchedBlocks()
	p.addChild(BlockQuoteKind, p.nextNonspace)
	return containerStart
}

func startATXHeading(p *blockParser, container int) startResult {
	if p.indented {
		return noStart
	}
	rest := p.line[p.nextNonspace:]
	level := countLeading(rest, '#')
	if level == 0 || level > 6 || (level < len(rest) && !isSpaceOrTab(rest[level])) {
		return noStart
	}
	markerEnd := level
	for markerEnd < len(rest) && isSpaceOrTab(rest[markerEnd]) {
		markerEnd++
	}
	p.advanceNextNonspace()
	p.advance(markerEnd, false)
	p.closeUnmatchedBlocks()
	i := p.addChild(ATXHeadingKind, p.nextNonspace)
	n := p.arena[i]
	n.block.level = level
	n.content = append(n.content, stripATXClosingSequence(p.rest())...)
	p.advance(len(p.line)-p.offset, false)
	return leafStart
}

// stripATXClosingSequence removes the optional closing sequence of #s
// from the content of an ATX heading.
func stripATXClosingSequence(s string) string {
	t := strings.TrimRight(s, " \t")
	j := len(t)
	for j > 0 && t[j-1] == '#' {
		j--
	}
	switch {
	case j == len(t):
		return s
	case j == 0 || isSpaceTabOnly(t[:j]):
		return ""
	case isSpaceOrTab(t[j-1]):
		return strings.TrimRight(t[:j], " \t")
	default:
		return s
	}
}

func startFencedCodeBlock(p *blockParser, container int) startResult {
	if p.indented {
		return noStart
	}
	rest := p.line[p.nextNonspace:]
	c := p.peekAt(p.nextNonspace)
	if c != '`' && c != '~' {
		return noStart
	}
	n := countLeading(rest, c)
	if n < 3 || (c == '`' && strings.IndexByte(rest[n:], '`') >= 0) {
		return noStart
	}
	p.closeUnmatchedBlocks()
	i := p.addChild(FencedCodeBlockKind, p.nextNonspace)
	b := p.arena[i].block
	b.fenceChar = c
	b.fenceLength = n
	b.fenceOffset = p.indent
	p.advanceNextNonspace()
	p.advance(n, false)
	return leafStart
}

func startHTMLBlock(p *blockParser, container int) startResult {
	if p.indented || p.peekAt(p.nextNonspace) != '<' {
		return noStart
	}
	blockType := htmlBlockStart(p.line[p.nextNonspace:], p.htmlTags)
	if blockType == 0 {
		return noStart
	}
	if blockType == 7 && (p.kind(container) == ParagraphKind || p.maybeLazy()) {
		// Only type 1-6 blocks can interrupt a paragraph.
		return noStart
	}
	p.closeUnmatchedBlocks()
	// The leading spaces are part of the HTML block.
	i := p.addChild(HTMLBlockKind, p.offset)
	p.arena[i].block.htmlType = blockType
	return leafStart
}

// maybeLazy reports whether the current line could be
// a lazy continuation of the open paragraph.
func (p *blockParser) maybeLazy() bool {
	return !p.allClosed && !p.blank && p.kind(p.tip) == ParagraphKind
}

func startSetextHeading(p *blockParser, container int) startResult {
	if p.indented || p.kind(container) != ParagraphKind {
		return noStart
	}
	c := p.peekAt(p.nextNonspace)
	if c != '=' && c != '-' {
		return noStart
	}
	rest := p.line[p.nextNonspace:]
	if n := countLeading(rest, c); !isSpaceTabOnly(rest[n:]) {
		return noStart
	}
	p.closeUnmatchedBlocks()
	n := p.arena[container]
	p.extractReferences(n)
	if len(n.content) == 0 {
		return noStart
	}
	n.block.kind = SetextHeadingKind
	n.block.level = 2
	if c == '=' {
		n.block.level = 1
	}
	p.tip = container
	p.advance(len(p.line)-p.offset, false)
	return leafStart
}

func startThematicBreak(p *blockParser, container int) startResult {
	if p.indented || !isThematicBreak(p.line[p.nextNonspace:]) {
		return noStart
	}
	p.closeUnmatchedBlocks()
	p.addChild(ThematicBreakKind, p.nextNonspace)
	p.advance(len(p.line)-p.offset, false)
	return leafStart
}

// isThematicBreak reports whether line (starting at the first non-space)
// is a [thematic break].
//
// [thematic break]: https://spec.commonmark.org/0.30/#thematic-breaks
func isThematicBreak(line string) bool {
	if len(line) == 0 {
		return false
	}
	c := line[0]
	if c != '*' && c != '-' && c != '_' {
		return false
	}
	n := 0
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case c:
			n++
		case ' ', '\t':
		default:
			return false
		}
	}
	return n >= 3
}

func startListItem(p *blockParser, container int) startResult {
	if p.indented && p.kind(container) != ListKind {
		return noStart
	}
	data := p.parseListMarker(container)
	if data == nil {
		return noStart
	}
	p.closeUnmatchedBlocks()
	if p.kind(p.tip) != ListKind || !listsMatch(p.arena[p.tip].block.list, data) {
		i := p.addChild(ListKind, p.nextNonspace)
		listData := *data
		p.arena[i].block.list = &listData
	}
	i := p.addChild(ListItemKind, p.nextNonspace)
	p.arena[i].block.list = data
	return containerStart
}

// parseListMarker parses a [list marker] at the first non-space position
// and advances the cursor to the item's content.
// It returns nil without moving the cursor if there is no marker.
//
// [list marker]: https://spec.commonmark.org/0.30/#list-marker
func (p *blockParser) parseListMarker(container int) *ListData {
	if p.indent >= codeIndent {
		return nil
	}
	rest := p.line[p.nextNonspace:]
	data := &ListData{
		Tight:        true,
		markerOffset: p.indent,
	}
	interrupting := p.kind(container) == ParagraphKind
	var markerLength int
	switch c := p.peekAt(p.nextNonspace); {
	case c == '*' || c == '+' || c == '-':
		data.Bullet = c
		markerLength = 1
	case isASCIIDigit(c):
		n := 0
		for n < len(rest) && n <= 9 && isASCIIDigit(rest[n]) {
			n++
		}
		if n > 9 || n >= len(rest) || (rest[n] != '.' && rest[n] != ')') {
			return nil
		}
		start := 0
		for _, d := range rest[:n] {
			start = start*10 + int(d-'0')
		}
		if interrupting && start != 1 {
			return nil
		}
		data.Ordered = true
		data.Start = start
		data.Delimiter = rest[n]
		markerLength = n + 1
	default:
		return nil
	}

	if next := p.peekAt(p.nextNonspace + markerLength); next != 0 && !isSpaceOrTab(next) {
		return nil
	}
	if interrupting && isSpaceTabOnly(rest[markerLength:]) {
		// An empty list item cannot interrupt a paragraph.
		return nil
	}

	p.advanceNextNonspace()
	p.advance(markerLength, true)
	spacesStartColumn := p.column
	spacesStartOffset := p.offset
	for {
		p.advance(1, true)
		if p.column-spacesStartColumn >= 5 || !isSpaceOrTab(p.peekAt(p.offset)) {
			break
		}
	}
	blankItem := p.offset >= len(p.line)
	spacesAfterMarker := p.column - spacesStartColumn
	if spacesAfterMarker >= 5 || spacesAfterMarker < 1 || blankItem {
		// Content begins one space after the marker.
		data.padding = markerLength + 1
		p.column = spacesStartColumn
		p.offset = spacesStartOffset
		p.partiallyConsumedTab = false
		if isSpaceOrTab(p.peekAt(p.offset)) {
			p.advance(1, true)
		}
	} else {
		data.padding = markerLength + spacesAfterMarker
	}
	return data
}

func listsMatch(list, item *ListData) bool {
	return list.Ordered == item.Ordered &&
		list.Delimiter == item.Delimiter &&
		list.Bullet == item.Bullet
}

func startIndentedCodeBlock(p *blockParser, container int) startResult {
	if !p.indented || p.kind(p.tip) == ParagraphKind || p.blank {
		return noStart
	}
	p.advance(codeIndent, true)
	p.closeUnmatchedBlocks()
	p.addChild(IndentedCodeBlockKind, p.offset)
	return leafStart
}

// extensionBlockStart adapts a [BlockExtension] to a block start rule.
func extensionBlockStart(ext BlockExtension) blockStart {
	triggers := ext.Triggers()
	return func(p *blockParser, container int) startResult {
		if p.indented || strings.IndexByte(triggers, p.peekAt(p.nextNonspace)) < 0 {
			return noStart
		}
		interrupting := p.kind(container) == ParagraphKind || p.maybeLazy()
		if !ext.Start(p.line[p.nextNonspace:], interrupting) {
			return noStart
		}
		p.closeUnmatchedBlocks()
		i := p.addChild(ExtensionBlockKind, p.nextNonspace)
		p.arena[i].block.extension = ext
		p.advanceNextNonspace()
		return leafStart
	}
}

func countLeading(s string, c byte) int {
	n := 0
	for n < len(s) && s[n] == c {
		n++
	}
	return n
}

func isSpaceTabOnly(s string) bool {
	for i := 0; i < len(s); i++ {
		if !isSpaceOrTab(s[i]) {
			return false
		}
	}
	return true
}

// trimTrailingBlankLines removes trailing line endings
// along with lines consisting only of spaces.
func trimTrailingBlankLines(s string) string {
	end := len(s)
	for i := len(s) - 1; i >= 0; i-- {
		switch s[i] {
		case ' ':
		case '\n':
			end = i
		default:
			return s[:end]
		}
	}
	return s[:end]
}
