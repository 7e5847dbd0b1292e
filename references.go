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
	"sort"
	"strings"

	"golang.org/x/text/cases"
)

// LinkDefinition is the data of a [link reference definition].
//
// [link reference definition]: https://spec.commonmark.org/0.30/#link-reference-definition
type LinkDefinition struct {
	Destination  string
	Title        string
	TitlePresent bool
}

// ReferenceMap is a mapping of [normalized labels] to link definitions.
// A ReferenceMap is filled in by the block parser
// and must not be modified while inline parsing is in progress.
//
// [normalized labels]: https://spec.commonmark.org/0.30/#matches
type ReferenceMap map[string]LinkDefinition

// Lookup returns the definition for the given label,
// which may be given in any form that normalizes to a defined label.
func (m ReferenceMap) Lookup(label string) (LinkDefinition, bool) {
	def, ok := m[NormalizeLabel(label)]
	return def, ok
}

// add stores the definition under the normalized label
// unless the label is already defined.
// It reports whether the definition was stored.
func (m ReferenceMap) add(normalizedLabel string, def LinkDefinition) bool {
	if _, exists := m[normalizedLabel]; exists {
		return false
	}
	m[normalizedLabel] = def
	return true
}

// Labels returns the normalized labels in the map in sorted order.
func (m ReferenceMap) Labels() []string {
	labels := make([]string, 0, len(m))
	for label := range m {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

// NormalizeLabel returns the [normalized form] of a link label.
// Surrounding brackets, if present, are stripped.
// Leading and trailing spaces, tabs, and line endings are removed,
// internal runs of them are collapsed to a single space,
// and the result is Unicode case folded.
//
// [normalized form]: https://spec.commonmark.org/0.30/#matches
func NormalizeLabel(label string) string {
	if len(label) >= 2 && label[0] == '[' && label[len(label)-1] == ']' {
		label = label[1 : len(label)-1]
	}
	sb := new(strings.Builder)
	sb.Grow(len(label))
	pendingSpace := false
	for i := 0; i < len(label); i++ {
		switch c := label[i]; c {
		case ' ', '\t', '\n', '\r':
			pendingSpace = sb.Len() > 0
		default:
			if pendingSpace {
				sb.WriteByte(' ')
				pendingSpace = false
			}
			sb.WriteByte(c)
		}
	}
	// Casers keep state, so each call gets its own.
	return cases.Fold().String(sb.String())
}
