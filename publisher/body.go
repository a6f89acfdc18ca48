/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package publisher

import (
	"path/filepath"
	"strings"
	"text/template"

	"github.com/waigani/diffparser"
)

// SourceChange is one file touched by the documented diff.
type SourceChange struct {
	Path string
	Kind string
}

type bodyData struct {
	Sources  []SourceChange
	Parsed   bool
	Docs     []string
	NoDocs   bool
	Identity string
}

var bodyTemplate = template.Must(template.New("body").Parse(`This pull request was opened by {{.Identity}} to keep the documentation in line with a code change.

### Source changes
{{if .Sources}}| File | Change |
| --- | --- |
{{range .Sources}}| ` + "`{{.Path}}`" + ` | {{.Kind}} |
{{end}}{{else if .Parsed}}The change does not name any files.
{{else}}The change could not be parsed as a unified diff.
{{end}}
### Updated documents
{{if .NoDocs}}No documents were updated.
{{else}}{{range .Docs}}- ` + "`{{.}}`" + `
{{end}}{{end}}`))

// SourceChanges lists the files named in a unified diff. ok is false when
// the diff cannot be parsed.
func SourceChanges(diff string) (changes []SourceChange, ok bool) {
	parsed, err := diffparser.Parse(diff)
	if err != nil || parsed == nil {
		return nil, false
	}
	for _, f := range parsed.Files {
		change := SourceChange{Path: f.NewName, Kind: "modified"}
		switch f.Mode {
		case diffparser.NEW:
			change.Kind = "added"
		case diffparser.DELETED:
			change.Path = f.OrigName
			change.Kind = "deleted"
		default:
			if f.OrigName != "" && f.NewName != "" && f.OrigName != f.NewName {
				change.Kind = "renamed from `" + f.OrigName + "`"
			}
		}
		if change.Path == "" {
			change.Path = f.OrigName
		}
		changes = append(changes, change)
	}
	return changes, true
}

// Body renders the pull-request description for a run. Document paths are
// shown relative to root.
func Body(identity, diff, root string, docs []string) string {
	sources, parsed := SourceChanges(diff)
	data := bodyData{
		Sources:  sources,
		Parsed:   parsed,
		NoDocs:   len(docs) == 0,
		Identity: identity,
	}
	for _, d := range docs {
		if rel, err := filepath.Rel(root, d); err == nil && !strings.HasPrefix(rel, "..") {
			d = filepath.ToSlash(rel)
		}
		data.Docs = append(data.Docs, d)
	}

	var sb strings.Builder
	if err := bodyTemplate.Execute(&sb, data); err != nil {
		return "Documentation updated by " + identity + "."
	}
	return sb.String()
}
