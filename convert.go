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

// Package flexiblocks converts [CommonMark] Markdown to HTML.
// Parsing happens in two phases:
// a [BlockParser] splits the source into blocks
// and collects link reference definitions,
// then an [InlineParser] parses the content of paragraphs and headings.
// An [HTMLRenderer] serializes the result.
// [Convert] runs the whole pipeline.
//
// Custom block and inline syntax can be added with [Extension] values.
//
// [CommonMark]: https://spec.commonmark.org/0.30/
package flexiblocks

// Convert converts Markdown to HTML.
// A nil cfg uses the default configuration.
// The only errors returned are [*ConfigError] values:
// every Markdown input produces output.
func Convert(markdown string, cfg *Config) (string, error) {
	c, err := NewConverter(cfg)
	if err != nil {
		return "", err
	}
	return c.Convert(markdown), nil
}

// Parse parses Markdown with the default configuration.
func Parse(source string) *Document {
	c, _ := NewConverter(nil)
	return c.Parse(source)
}
