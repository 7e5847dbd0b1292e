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

// Flexiblocks converts Markdown to HTML.
//
// Usage:
//
//	flexiblocks [flags] [file...]
//
// Flexiblocks reads the named files, or else standard input,
// as Markdown documents
// and prints the corresponding HTML to standard output.
// Options may also be read from a TOML or YAML file given with -config.
// Flags given on the command line override the file.
package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/flexiblocks/flexiblocks"
	"github.com/flexiblocks/flexiblocks/dump"
	"github.com/mattn/go-isatty"
	"gopkg.in/yaml.v3"
)

// options is the set of settings that can come from a config file.
type options struct {
	TabWidth      int      `toml:"tab_width" yaml:"tab_width"`
	HTMLBlockTags []string `toml:"html_block_tags" yaml:"html_block_tags"`
	SoftBreak     string   `toml:"soft_break" yaml:"soft_break"`
	IgnoreRaw     bool     `toml:"ignore_raw" yaml:"ignore_raw"`
	FilterTags    bool     `toml:"filter_tags" yaml:"filter_tags"`
	InlineWorkers int      `toml:"inline_workers" yaml:"inline_workers"`
}

func main() {
	log.SetFlags(0)
	log.SetPrefix("flexiblocks: ")
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			log.Fatal(err)
		}
		os.Exit(2)
	}
}

func run(args []string, stdin *os.File, stdout io.Writer) error {
	fs := flag.NewFlagSet("flexiblocks", flag.ContinueOnError)
	configPath := fs.String("config", "", "read options from a `file` (.toml, .yaml, or .yml)")
	tabWidth := fs.Int("tab-width", 0, "columns between tab stops (default 4)")
	softBreak := fs.String("soft-break", "", "render soft line breaks as `style` (preserve, space, or harden)")
	ignoreRaw := fs.Bool("ignore-raw", false, "omit raw HTML from the output")
	filterTags := fs.Bool("filter-tags", false, "escape tags disallowed by GitHub Flavored Markdown")
	tree := fs.Bool("tree", false, "print the document tree instead of HTML")
	verbose := fs.Bool("v", false, "print progress to stderr")
	if err := fs.Parse(args); err != nil {
		return err
	}

	opts := new(options)
	if *configPath != "" {
		var err error
		opts, err = loadOptions(*configPath)
		if err != nil {
			return err
		}
		if *verbose {
			log.Printf("loaded options from %s", *configPath)
		}
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "tab-width":
			opts.TabWidth = *tabWidth
		case "soft-break":
			opts.SoftBreak = *softBreak
		case "ignore-raw":
			opts.IgnoreRaw = *ignoreRaw
		case "filter-tags":
			opts.FilterTags = *filterTags
		}
	})
	cfg, err := opts.config()
	if err != nil {
		return err
	}
	c, err := flexiblocks.NewConverter(cfg)
	if err != nil {
		return err
	}

	convert := func(name string, r io.Reader) error {
		if *verbose {
			log.Printf("converting %s", name)
		}
		source, err := io.ReadAll(r)
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}
		doc := c.Parse(string(source))
		if *tree {
			return dump.Document(stdout, doc)
		}
		return c.Renderer().Render(stdout, doc)
	}

	if fs.NArg() == 0 {
		if stdin != nil && isatty.IsTerminal(stdin.Fd()) {
			log.Print("reading Markdown from terminal; end input with an EOF (Ctrl-D)")
		}
		return convert("stdin", stdin)
	}
	for _, name := range fs.Args() {
		f, err := os.Open(name)
		if err != nil {
			return err
		}
		err = convert(name, f)
		f.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

// loadOptions decodes a config file, choosing the format by extension.
func loadOptions(path string) (*options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	opts := new(options)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		md, err := toml.NewDecoder(bytes.NewReader(data)).Decode(opts)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("load %s: unknown option %q", path, undecoded[0].String())
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(opts); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("load %s: unknown config format %q", path, ext)
	}
	return opts, nil
}

func (opts *options) config() (*flexiblocks.Config, error) {
	cfg := &flexiblocks.Config{
		TabWidth:      opts.TabWidth,
		HTMLBlockTags: opts.HTMLBlockTags,
		IgnoreRaw:     opts.IgnoreRaw,
		InlineWorkers: opts.InlineWorkers,
	}
	switch opts.SoftBreak {
	case "", "preserve":
		cfg.SoftBreak = flexiblocks.SoftBreakPreserve
	case "space":
		cfg.SoftBreak = flexiblocks.SoftBreakSpace
	case "harden":
		cfg.SoftBreak = flexiblocks.SoftBreakHarden
	default:
		return nil, &flexiblocks.ConfigError{
			Option: "SoftBreak",
			Err:    fmt.Errorf("%q: %w", opts.SoftBreak, flexiblocks.ErrInvalidOption),
		}
	}
	if opts.FilterTags {
		cfg.FilterTag = flexiblocks.FilterTagGFM
	}
	return cfg, nil
}
