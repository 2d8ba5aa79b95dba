package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/alnah/go-stattic/internal/assets"
	"github.com/alnah/go-stattic/internal/config"
	"github.com/alnah/go-stattic/internal/content"
	"github.com/alnah/go-stattic/internal/fileutil"
)

// starterFile is one file of the tree written by init, relative to the
// site root.
type starterFile struct {
	path string
	data []byte
}

const samplePost = `---
title: Hello, World
date: 2024-01-15
author: 1
categories: [1]
tags: [1, 2]
description: The first post of a brand new site.
---

Welcome to your new site. Edit this file in content/posts, then run
` + "`stattic build`" + ` again.

## Images

Remote and local images are downloaded, converted and served from the
site itself:

` + "```markdown" + `
![A photo](https://example.com/photo.jpg)
` + "```" + `
`

const sampleDraft = `---
title: Work in Progress
date: 2024-01-20
author: 1
draft: true
---

Drafts are only built with ` + "`--drafts`" + `.
`

const samplePage = `---
title: About
order: 1
---

This page lives in content/pages and gets its own URL: /about/.
`

const sampleAuthors = `1:
  name: Jane Doe
  bio: Writes about the web.
`

const sampleCategories = `1: General
`

const sampleTags = `1: welcome
2: getting-started
`

// starterFiles returns the starter tree for a config format.
func starterFiles(format string) ([]starterFile, error) {
	cfg, err := config.Sample(format)
	if err != nil {
		return nil, err
	}

	files := []starterFile{
		{config.SampleFileName(format), cfg},
		{filepath.Join(config.DefaultContent, content.PostsDir, "hello-world.md"), []byte(samplePost)},
		{filepath.Join(config.DefaultContent, content.PostsDir, "work-in-progress.md"), []byte(sampleDraft)},
		{filepath.Join(config.DefaultContent, content.PagesDir, "about.md"), []byte(samplePage)},
		{filepath.Join(config.DefaultContent, content.AuthorsFile), []byte(sampleAuthors)},
		{filepath.Join(config.DefaultContent, content.CategoriesFile), []byte(sampleCategories)},
		{filepath.Join(config.DefaultContent, content.TagsFile), []byte(sampleTags)},
		{filepath.Join("assets", "css", "style.css"), []byte(assets.DefaultStylesheet())},
	}

	for _, name := range assets.TemplateNames() {
		tmpl, err := assets.LoadTemplate(name)
		if err != nil {
			return nil, err
		}
		files = append(files, starterFile{filepath.Join(config.DefaultTemplates, name+assets.TemplateExt), []byte(tmpl)})
	}
	return files, nil
}

// runInitCmd writes a sample config and starter tree into env.Dir.
// Existing files are never overwritten.
func runInitCmd(args []string, env *Environment) int {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	fs.SetOutput(env.Stderr)
	format := fs.String("format", "yml", "config format: "+strings.Join(config.SampleFormats, ", "))
	fs.Usage = func() { printInitUsage(env.Stderr) }

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return ExitSuccess
		}
		fmt.Fprintf(env.Stderr, "Error: %v\n", err)
		return ExitUsage
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(env.Stderr, "Error: %v: %v\n", ErrUnexpectedArgs, fs.Args())
		return ExitUsage
	}
	if !slices.Contains(config.SampleFormats, *format) {
		fmt.Fprintf(env.Stderr, "Error: %v: format %q (use %s)\n", ErrInvalidFlag, *format, strings.Join(config.SampleFormats, ", "))
		return ExitUsage
	}

	files, err := starterFiles(*format)
	if err != nil {
		fmt.Fprintf(env.Stderr, "Error: %v\n", err)
		return exitCodeFor(err)
	}

	// Another config file would take precedence or be shadowed.
	existing, findErr := config.Find(env.Dir)

	created := 0
	for i, f := range files {
		path := inDir(env.Dir, f.path)
		if i == 0 && findErr == nil && filepath.Base(existing) != f.path {
			fmt.Fprintf(env.Stdout, "Skipped %s (%s exists)\n", f.path, filepath.Base(existing))
			continue
		}
		if fileutil.FileExists(path) || fileutil.DirExists(path) {
			fmt.Fprintf(env.Stdout, "Skipped %s (exists)\n", f.path)
			continue
		}
		if err := fileutil.WriteFileAtomic(path, f.data); err != nil {
			fmt.Fprintf(env.Stderr, "Error: writing %s: %v\n", f.path, err)
			return ExitIO
		}
		fmt.Fprintf(env.Stdout, "Created %s\n", f.path)
		created++
	}

	fmt.Fprintf(env.Stdout, "\n%d files created. Run \"stattic build\" to build the site.\n", created)
	return ExitSuccess
}
