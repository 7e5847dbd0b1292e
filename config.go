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
	"fmt"
)

const (
	defaultTabWidth = 4
	maxTabWidth     = 16
)

// Config is the set of options for converting Markdown.
// The zero value converts standard CommonMark.
type Config struct {
	// TabWidth is the number of columns between tab stops.
	// Zero means 4. Other values must be between 1 and 16.
	TabWidth int
	// HTMLBlockTags is the set of tag names that start
	// a type 6 HTML block.
	// If nil, [DefaultHTMLBlockTags] is used.
	// Names must start with an ASCII letter
	// and contain only ASCII letters and digits.
	HTMLBlockTags []string
	// Extensions is the ordered list of syntax extensions.
	Extensions []Extension

	// SoftBreak determines how soft line breaks are rendered.
	SoftBreak SoftBreakBehavior
	// IgnoreRaw omits raw HTML from the output.
	IgnoreRaw bool
	// FilterTag is passed to [HTMLRenderer].
	FilterTag func(tag []byte) bool

	// InlineWorkers is the number of goroutines used for inline parsing.
	// Zero or one parses on the calling goroutine.
	InlineWorkers int
}

// Configuration errors.
var (
	ErrInvalidTabWidth    = errors.New("tab width out of range")
	ErrInvalidTag         = errors.New("invalid HTML tag name")
	ErrExtensionConflict  = errors.New("extension conflict")
	ErrDuplicateExtension = errors.New("duplicate extension name")
	ErrInvalidOption      = errors.New("invalid option value")
)

// ConfigError is returned for invalid [Config] values.
// Use [errors.Is] with one of the Err variables to test for the cause.
type ConfigError struct {
	// Option is the name of the offending field.
	Option string
	Err    error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("flexiblocks: %s: %v", e.Option, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Validate reports the first problem with cfg as a [*ConfigError].
// A nil *Config is valid.
func (cfg *Config) Validate() error {
	_, err := NewConverter(cfg)
	return err
}

// A Converter is a validated configuration,
// ready to convert any number of documents.
// It is safe to call a Converter's methods from multiple goroutines.
type Converter struct {
	blocks   BlockParser
	inlines  InlineParser
	renderer HTMLRenderer
}

// NewConverter validates cfg and returns a [Converter] for it.
// A nil cfg is equivalent to the zero Config.
func NewConverter(cfg *Config) (*Converter, error) {
	if cfg == nil {
		cfg = new(Config)
	}
	if cfg.TabWidth < 0 || cfg.TabWidth > maxTabWidth {
		return nil, &ConfigError{
			Option: "TabWidth",
			Err:    fmt.Errorf("%d: %w", cfg.TabWidth, ErrInvalidTabWidth),
		}
	}
	for _, tag := range cfg.HTMLBlockTags {
		if !isValidTagName(tag) {
			return nil, &ConfigError{
				Option: "HTMLBlockTags",
				Err:    fmt.Errorf("%q: %w", tag, ErrInvalidTag),
			}
		}
	}
	if cfg.SoftBreak < SoftBreakPreserve || cfg.SoftBreak > SoftBreakHarden {
		return nil, &ConfigError{
			Option: "SoftBreak",
			Err:    fmt.Errorf("%v: %w", cfg.SoftBreak, ErrInvalidOption),
		}
	}
	if cfg.InlineWorkers < 0 {
		return nil, &ConfigError{
			Option: "InlineWorkers",
			Err:    fmt.Errorf("%d: %w", cfg.InlineWorkers, ErrInvalidOption),
		}
	}
	blockExts, inlineExts, err := splitExtensions(cfg.Extensions)
	if err != nil {
		return nil, &ConfigError{Option: "Extensions", Err: err}
	}

	c := &Converter{
		blocks: BlockParser{
			TabWidth:   cfg.TabWidth,
			Extensions: blockExts,
		},
		inlines: InlineParser{
			Extensions: inlineExts,
			Workers:    cfg.InlineWorkers,
		},
		renderer: HTMLRenderer{
			SoftBreakBehavior: cfg.SoftBreak,
			IgnoreRaw:         cfg.IgnoreRaw,
			FilterTag:         cfg.FilterTag,
		},
	}
	if cfg.HTMLBlockTags != nil {
		c.blocks.HTMLBlockTags = append([]string{}, cfg.HTMLBlockTags...)
	}
	return c, nil
}

// Parse parses source into a document with inline content resolved.
func (c *Converter) Parse(source string) *Document {
	doc := c.blocks.Parse(source)
	inlines := c.inlines
	inlines.ReferenceMap = doc.References
	inlines.Rewrite(doc.Root)
	return doc
}

// Convert converts Markdown source into HTML.
func (c *Converter) Convert(source string) string {
	return string(c.renderer.AppendDocument(nil, c.Parse(source)))
}

// Renderer returns the renderer configured for c.
func (c *Converter) Renderer() *HTMLRenderer {
	r := c.renderer
	return &r
}

func isValidTagName(tag string) bool {
	if tag == "" || !isASCIILetter(tag[0]) {
		return false
	}
	for i := 1; i < len(tag); i++ {
		if !isASCIILetter(tag[i]) && !isASCIIDigit(tag[i]) {
			return false
		}
	}
	return true
}
