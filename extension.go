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
	"fmt"
	"strings"
)

// An Extension adds syntax to the parser.
// Every Extension must also implement [BlockExtension] or [InlineExtension].
// No type can implement both,
// since their RenderHTML methods have different signatures.
type Extension interface {
	// Name identifies the extension in error messages.
	// Names must be unique within a configuration.
	Name() string
	// Triggers returns the ASCII punctuation bytes
	// that can begin the extension's syntax.
	// Triggers may not include bytes used by standard CommonMark syntax
	// or by another extension of the same sort.
	Triggers() string
}

// A BlockExtension recognizes a leaf block.
type BlockExtension interface {
	Extension

	// Start reports whether a block starts on line.
	// line begins with one of the extension's trigger bytes
	// and has had its indentation removed.
	// interrupting is true if the block would interrupt a paragraph.
	Start(line string, interrupting bool) bool
	// Continue reports whether an open block continues on line.
	// If last is true, line is the block's final line.
	// b.Lines returns the lines added to the block so far.
	Continue(b *Block, line string) (ok, last bool)
	// RenderHTML appends the HTML for a finished block to dst.
	RenderHTML(dst []byte, b *Block) []byte
}

// An InlineExtension recognizes an inline span.
type InlineExtension interface {
	Extension

	// ParseInline attempts to parse an inline at the start of text,
	// which begins with one of the extension's trigger bytes.
	// It returns the number of bytes consumed (0 if text does not match)
	// and the literal value to store in the node.
	ParseInline(text string) (n int, literal string)
	// RenderHTML appends the HTML for the node to dst.
	RenderHTML(dst []byte, in *Inline) []byte
}

// standardInlineTriggers is the set of bytes that begin standard inline syntax.
const standardInlineTriggers = "\\`*_[]!<&"

// splitExtensions validates a list of extensions
// and sorts them into block and inline extensions, preserving order.
func splitExtensions(exts []Extension) ([]BlockExtension, []InlineExtension, error) {
	var blockExts []BlockExtension
	var inlineExts []InlineExtension
	names := make(map[string]struct{})
	blockOwners := make(map[byte]string)
	inlineOwners := make(map[byte]string)
	for _, ext := range exts {
		name := ext.Name()
		if name == "" {
			return nil, nil, fmt.Errorf("extension %T has no name: %w", ext, ErrExtensionConflict)
		}
		if _, dup := names[name]; dup {
			return nil, nil, fmt.Errorf("%s: %w", name, ErrDuplicateExtension)
		}
		names[name] = struct{}{}

		var reserved string
		var owners map[byte]string
		switch ext := ext.(type) {
		case BlockExtension:
			blockExts = append(blockExts, ext)
			reserved, owners = standardBlockTriggers, blockOwners
		case InlineExtension:
			inlineExts = append(inlineExts, ext)
			reserved, owners = standardInlineTriggers, inlineOwners
		default:
			return nil, nil, fmt.Errorf("extension %s is neither a block nor an inline extension: %w", name, ErrExtensionConflict)
		}

		triggers := ext.Triggers()
		if triggers == "" {
			return nil, nil, fmt.Errorf("extension %s has no trigger bytes: %w", name, ErrExtensionConflict)
		}
		for i := 0; i < len(triggers); i++ {
			c := triggers[i]
			switch {
			case !isASCIIPunctuation(c):
				return nil, nil, fmt.Errorf("extension %s trigger %q is not ASCII punctuation: %w", name, c, ErrExtensionConflict)
			case strings.IndexByte(reserved, c) >= 0:
				return nil, nil, fmt.Errorf("extension %s trigger %q is standard syntax: %w", name, c, ErrExtensionConflict)
			}
			if other, taken := owners[c]; taken && other != name {
				return nil, nil, fmt.Errorf("extensions %s and %s both use trigger %q: %w", other, name, c, ErrExtensionConflict)
			}
			owners[c] = name
		}
	}
	return blockExts, inlineExts, nil
}
