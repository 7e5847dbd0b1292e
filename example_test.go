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

package flexiblocks_test

import (
	"errors"
	"fmt"
	"os"

	"github.com/flexiblocks/flexiblocks"
)

func Example() {
	html, err := flexiblocks.Convert("Hello, **World**!\n", nil)
	if err != nil {
		panic(err)
	}
	fmt.Print(html)
	// Output:
	// <p>Hello, <strong>World</strong>!</p>
}

func ExampleBlockParser() {
	// Parse document into blocks (e.g. paragraphs, lists, etc.)
	// and collect link reference definitions.
	doc := new(flexiblocks.BlockParser).Parse(
		"Hello, [World][]!\n" +
			"\n" +
			"[World]: https://www.example.com/\n",
	)

	// Finish parsing inside blocks.
	inlineParser := &flexiblocks.InlineParser{
		ReferenceMap: doc.References,
	}
	inlineParser.Rewrite(doc.Root)

	// Render blocks as HTML.
	flexiblocks.RenderHTML(os.Stdout, doc)
	// Output:
	// <p>Hello, <a href="https://www.example.com/">World</a>!</p>
}

func ExampleNewConverter() {
	c, err := flexiblocks.NewConverter(&flexiblocks.Config{
		SoftBreak: flexiblocks.SoftBreakHarden,
		FilterTag: flexiblocks.FilterTagGFM,
	})
	if err != nil {
		panic(err)
	}
	fmt.Print(c.Convert("one\ntwo <script>\n"))
	// Output:
	// <p>one<br />
	// two &lt;script></p>
}

func ExampleConfigError() {
	_, err := flexiblocks.NewConverter(&flexiblocks.Config{TabWidth: 100})
	var cfgErr *flexiblocks.ConfigError
	if errors.As(err, &cfgErr) {
		fmt.Println("bad option:", cfgErr.Option)
	}
	fmt.Println(errors.Is(err, flexiblocks.ErrInvalidTabWidth))
	// Output:
	// bad option: TabWidth
	// true
}

func ExampleWalk() {
	doc := flexiblocks.Parse("See [the docs](/docs) and <https://example.com>.\n")
	flexiblocks.Walk(doc.Root.AsNode(), &flexiblocks.WalkOptions{
		Pre: func(c *flexiblocks.Cursor) bool {
			if in := c.Node().Inline(); in != nil {
				switch in.Kind() {
				case flexiblocks.LinkKind, flexiblocks.AutolinkKind:
					fmt.Println(in.Destination())
				}
			}
			return true
		},
	})
	// Output:
	// /docs
	// https://example.com
}
