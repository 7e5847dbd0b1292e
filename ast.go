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

//go:generate stringer -type=BlockKind,InlineKind -output=kind_string.go

package flexiblocks

import "fmt"

// Document is a fully parsed Markdown document.
type Document struct {
	// Root is the block of kind [DocumentKind] that holds all other blocks.
	Root *Block
	// References holds the document's link reference definitions.
	References ReferenceMap
}

// Position is a location in the Markdown source.
// Lines and columns are 1-based.
// Columns are measured in bytes.
type Position struct {
	Line   int
	Column int
}

// String formats the position as "line:column".
func (pos Position) String() string {
	return fmt.Sprintf("%d:%d", pos.Line, pos.Column)
}

// A Block is a structural element in a Markdown document.
// A block owns either block children (container blocks)
// or inline children (leaf blocks that permit inline content).
type Block struct {
	kind  BlockKind
	start Position
	end   Position

	blockChildren  []*Block
	inlineChildren []*Inline

	// raw is the text of a paragraph or heading before inline parsing.
	raw string
	// literal is the content of a code block or HTML block.
	literal string
	lines   []string

	level       int
	info        string
	fenceChar   byte
	fenceLength int
	fenceOffset int
	htmlType    int
	list        *ListData
	extension   BlockExtension
}

// ListData holds the marker information of a list or list item.
type ListData struct {
	// Ordered is true for ordered lists.
	Ordered bool
	// Bullet is the bullet character ('-', '+', or '*') of a bullet list.
	Bullet byte
	// Delimiter is the delimiter ('.' or ')') of an ordered list.
	Delimiter byte
	// Start is the number of the first item in an ordered list.
	Start int
	// Tight reports whether the list is tight.
	Tight bool

	markerOffset int
	padding      int
}

// Kind returns the type of block or zero if b is nil.
func (b *Block) Kind() BlockKind {
	if b == nil {
		return 0
	}
	return b.kind
}

// Start returns the position of the first character of the block.
func (b *Block) Start() Position {
	if b == nil {
		return Position{}
	}
	return b.start
}

// End returns the position of the last character of the block.
func (b *Block) End() Position {
	if b == nil {
		return Position{}
	}
	return b.end
}

// ChildCount returns the number of children the block has.
// Calling ChildCount on nil returns 0.
func (b *Block) ChildCount() int {
	switch {
	case b == nil:
		return 0
	case len(b.blockChildren) > 0:
		return len(b.blockChildren)
	default:
		return len(b.inlineChildren)
	}
}

// Child returns the i'th child of the block.
func (b *Block) Child(i int) Node {
	if len(b.blockChildren) > 0 {
		return b.blockChildren[i].AsNode()
	}
	return b.inlineChildren[i].AsNode()
}

// Blocks returns the block's block children.
func (b *Block) Blocks() []*Block {
	if b == nil {
		return nil
	}
	return b.blockChildren
}

// Inlines returns the block's inline children.
// Inlines returns nil until the block has been processed by an [InlineParser].
func (b *Block) Inlines() []*Inline {
	if b == nil {
		return nil
	}
	return b.inlineChildren
}

// RawContent returns the unparsed inline content of a paragraph or heading.
func (b *Block) RawContent() string {
	if b == nil {
		return ""
	}
	return b.raw
}

// Literal returns the content of a code block or HTML block.
func (b *Block) Literal() string {
	if b == nil {
		return ""
	}
	return b.literal
}

// Lines returns the lines of an extension block,
// starting with the line that opened it.
func (b *Block) Lines() []string {
	if b == nil {
		return nil
	}
	return b.lines
}

// HeadingLevel returns the 1-based level of a heading block
// or 0 for other kinds of blocks.
func (b *Block) HeadingLevel() int {
	switch b.Kind() {
	case ATXHeadingKind, SetextHeadingKind:
		return b.level
	default:
		return 0
	}
}

// InfoString returns the unescaped [info string] of a fenced code block.
//
// [info string]: https://spec.commonmark.org/0.30/#info-string
func (b *Block) InfoString() string {
	if b.Kind() != FencedCodeBlockKind {
		return ""
	}
	return b.info
}

// Fence returns the fence character and length of a fenced code block.
func (b *Block) Fence() (c byte, n int) {
	if b.Kind() != FencedCodeBlockKind {
		return 0, 0
	}
	return b.fenceChar, b.fenceLength
}

// HTMLBlockType returns the start condition (1-7) of an [HTML block]
// or 0 for other kinds of blocks.
//
// [HTML block]: https://spec.commonmark.org/0.30/#html-blocks
func (b *Block) HTMLBlockType() int {
	if b.Kind() != HTMLBlockKind {
		return 0
	}
	return b.htmlType
}

// ListData returns the marker information of a list or list item
// or nil for other kinds of blocks.
func (b *Block) ListData() *ListData {
	switch b.Kind() {
	case ListKind, ListItemKind:
		return b.list
	default:
		return nil
	}
}

// IsOrderedList reports whether the block is an ordered list or an item in one.
func (b *Block) IsOrderedList() bool {
	d := b.ListData()
	return d != nil && d.Ordered
}

// IsTightList reports whether the block is a tight list
// or a list item in a tight list.
func (b *Block) IsTightList() bool {
	d := b.ListData()
	return d != nil && d.Tight
}

// Extension returns the extension that parsed a block of kind [ExtensionBlockKind].
func (b *Block) Extension() BlockExtension {
	if b.Kind() != ExtensionBlockKind {
		return nil
	}
	return b.extension
}

// BlockKind is an enumeration of values returned by [*Block.Kind].
type BlockKind uint16

const (
	DocumentKind BlockKind = 1 + iota
	ParagraphKind
	ThematicBreakKind
	ATXHeadingKind
	SetextHeadingKind
	IndentedCodeBlockKind
	FencedCodeBlockKind
	HTMLBlockKind
	BlockQuoteKind
	ListItemKind
	ListKind
	// ExtensionBlockKind is used for blocks recognized by a [BlockExtension].
	ExtensionBlockKind
)

// IsContainer reports whether blocks of the kind hold other blocks.
func (kind BlockKind) IsContainer() bool {
	switch kind {
	case DocumentKind, BlockQuoteKind, ListItemKind, ListKind:
		return true
	default:
		return false
	}
}

// HasInlines reports whether blocks of the kind hold inline content.
func (kind BlockKind) HasInlines() bool {
	return kind == ParagraphKind || kind == ATXHeadingKind || kind == SetextHeadingKind
}

func (kind BlockKind) acceptsLines() bool {
	return kind == ParagraphKind ||
		kind == IndentedCodeBlockKind ||
		kind == FencedCodeBlockKind ||
		kind == HTMLBlockKind ||
		kind == ExtensionBlockKind
}

func (kind BlockKind) canContain(childKind BlockKind) bool {
	switch kind {
	case ListKind:
		return childKind == ListItemKind
	case ListItemKind, BlockQuoteKind, DocumentKind:
		return childKind != ListItemKind
	default:
		return false
	}
}

// Inline represents Markdown content elements like text, links, or emphasis.
type Inline struct {
	kind     InlineKind
	text     string
	dest     string
	title    string
	children []*Inline

	extension InlineExtension
}

// Kind returns the type of inline node or zero if inline is nil.
func (inline *Inline) Kind() InlineKind {
	if inline == nil {
		return 0
	}
	return inline.kind
}

// Text returns the literal content of a text, code span, raw HTML,
// or extension node.
func (inline *Inline) Text() string {
	if inline == nil {
		return ""
	}
	return inline.text
}

// Destination returns the destination of a link, image, or autolink.
// The destination has had backslash escapes and entities resolved,
// but has not been percent-encoded (see [NormalizeURI]).
func (inline *Inline) Destination() string {
	if inline == nil {
		return ""
	}
	return inline.dest
}

// Title returns the title of a link or image.
func (inline *Inline) Title() string {
	if inline == nil {
		return ""
	}
	return inline.title
}

// ChildCount returns the number of children the node has.
// Calling ChildCount on nil returns 0.
func (inline *Inline) ChildCount() int {
	if inline == nil {
		return 0
	}
	return len(inline.children)
}

// Child returns the i'th child of the node.
func (inline *Inline) Child(i int) *Inline {
	return inline.children[i]
}

// Extension returns the extension that parsed a node of kind [ExtensionInlineKind].
func (inline *Inline) Extension() InlineExtension {
	if inline.Kind() != ExtensionInlineKind {
		return nil
	}
	return inline.extension
}

// InlineKind is an enumeration of values returned by [*Inline.Kind].
type InlineKind uint16

const (
	// TextKind is used for literal text,
	// including resolved backslash escapes and character references.
	TextKind InlineKind = 1 + iota
	SoftLineBreakKind
	HardLineBreakKind
	CodeSpanKind
	EmphasisKind
	StrongKind
	LinkKind
	ImageKind
	AutolinkKind
	RawHTMLKind
	// ExtensionInlineKind is used for nodes recognized by an [InlineExtension].
	ExtensionInlineKind
)
