/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"

	"chainguard.dev/docsabot/pipeline"
	"chainguard.dev/docsabot/repository"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
)

// writeReport prints the run outcome followed by a markdown table with one
// row per updated document.
func writeReport(w io.Writer, res *pipeline.Result, docsPath string) error {
	fmt.Fprintf(w, "%s\n\n", res.Message)
	fmt.Fprintf(w, "Branch: %s\n", res.Branch)
	if res.PullRequestURL != "" {
		fmt.Fprintf(w, "Pull request: %s\n", res.PullRequestURL)
	}
	fmt.Fprintf(w, "Updated: %d, failed: %d\n\n", len(res.Updates), res.Failed)
	if len(res.Updates) == 0 {
		return nil
	}

	table := tablewriter.NewTable(w,
		tablewriter.WithConfig(tablewriter.Config{
			Header: tw.CellConfig{
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
				Formatting: tw.CellFormatting{AutoFormat: tw.Off},
			},
			Row: tw.CellConfig{
				Alignment: tw.CellAlignment{Global: tw.AlignLeft},
			},
			Behavior: tw.Behavior{TrimSpace: tw.Off},
		}),
		tablewriter.WithHeader([]string{"Document", "Lines before", "Lines after", "Changed"}),
		tablewriter.WithRenderer(renderer.NewBlueprint()),
		tablewriter.WithRendition(tw.Rendition{
			Symbols: tw.NewSymbols(tw.StyleMarkdown),
			Borders: tw.Border{Left: tw.On, Top: tw.Off, Right: tw.On, Bottom: tw.Off},
		}),
		tablewriter.WithRowAutoWrap(tw.WrapNone),
	)
	for _, u := range res.Updates {
		changed := "no"
		if u.OldContent != u.NewContent {
			changed = "yes"
		}
		if err := table.Append([]string{
			displayPath(u.Path, docsPath),
			fmt.Sprint(lineCount(u.OldContent)),
			fmt.Sprint(lineCount(u.NewContent)),
			changed,
		}); err != nil {
			return fmt.Errorf("appending row: %w", err)
		}
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("rendering table: %w", err)
	}
	return nil
}

// displayPath trims the temporary working copy prefix so the path is relative
// to the repository root. Paths outside a working copy fall back to starting
// at the documentation directory.
func displayPath(p, docsPath string) string {
	p = filepath.ToSlash(p)
	segs := strings.Split(p, "/")
	for i, seg := range segs {
		if strings.HasPrefix(seg, repository.CloneDirPrefix) && i+2 < len(segs) {
			return strings.Join(segs[i+2:], "/")
		}
	}
	marker := "/" + strings.Trim(path.Clean(filepath.ToSlash(docsPath)), "/") + "/"
	if i := strings.Index(p, marker); i >= 0 {
		return p[i+1:]
	}
	return p
}

func lineCount(s string) int {
	if s == "" {
		return 0
	}
	n := strings.Count(s, "\n")
	if !strings.HasSuffix(s, "\n") {
		n++
	}
	return n
}
