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

// Package spec provides access to the conformance examples
// stored as txtar archives in its testdata directory.
//
// Each archive holds pairs of files named NAME.md and NAME.html.
// File contents use a small escaping convention
// so that significant whitespace survives editing:
// "^J" before a line ending marks trailing spaces or tabs,
// "^M" stands for a carriage return,
// "^@" for a NUL byte,
// and a final "^D" line means the text has no final line ending.
package spec

import (
	"embed"
	"fmt"
	"path"
	"sort"
	"strings"

	"golang.org/x/tools/txtar"
)

// Example is a single conformance example.
type Example struct {
	// Name is the example's name within its section.
	Name string
	// Section is the name of the archive the example came from.
	Section  string
	Markdown string
	HTML     string
}

//go:embed testdata/*.txt
var testdata embed.FS

// Load returns the examples from every archive, sorted by section.
func Load() ([]Example, error) {
	names, err := testdata.ReadDir("testdata")
	if err != nil {
		return nil, err
	}
	sort.Slice(names, func(i, j int) bool {
		return names[i].Name() < names[j].Name()
	})
	var examples []Example
	for _, ent := range names {
		data, err := testdata.ReadFile(path.Join("testdata", ent.Name()))
		if err != nil {
			return nil, err
		}
		section := strings.TrimSuffix(ent.Name(), ".txt")
		exs, err := parseArchive(section, txtar.Parse(data))
		if err != nil {
			return nil, err
		}
		examples = append(examples, exs...)
	}
	return examples, nil
}

func parseArchive(section string, a *txtar.Archive) ([]Example, error) {
	if len(a.Files)%2 != 0 {
		return nil, fmt.Errorf("%s: odd number of files", section)
	}
	var examples []Example
	for i := 0; i+2 <= len(a.Files); i += 2 {
		md := a.Files[i]
		html := a.Files[i+1]
		name := strings.TrimSuffix(md.Name, ".md")
		if !strings.HasSuffix(md.Name, ".md") || name != strings.TrimSuffix(html.Name, ".html") {
			return nil, fmt.Errorf("%s: mismatched file pair: %s and %s", section, md.Name, html.Name)
		}
		examples = append(examples, Example{
			Name:     name,
			Section:  section,
			Markdown: Decode(string(md.Data)),
			HTML:     Decode(string(html.Data)),
		})
	}
	return examples, nil
}

// Decode reverses the escaping convention used in archive files.
func Decode(s string) string {
	s = strings.ReplaceAll(s, "^J\n", "\n")
	s = strings.ReplaceAll(s, "^M", "\r")
	s = strings.ReplaceAll(s, "^D\n", "")
	s = strings.ReplaceAll(s, "^@", "\x00")
	return s
}

// Encode applies the escaping convention used in archive files.
func Encode(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "^M\n")
	s = strings.ReplaceAll(s, "\r", "^M^D\n")
	s = strings.ReplaceAll(s, " \n", " ^J\n")
	s = strings.ReplaceAll(s, "\t\n", "\t^J\n")
	s = strings.ReplaceAll(s, "\x00", "^@")
	if s != "" && !strings.HasSuffix(s, "\n") {
		s += "^D\n"
	}
	return s
}
