/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package publisher

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const sampleDiff = `diff --git a/cmd/main.go b/cmd/main.go
index 83db48f..bf269f4 100644
--- a/cmd/main.go
+++ b/cmd/main.go
@@ -1,3 +1,3 @@
 package main
-// helo
+// hello
 func main() {}
diff --git a/pkg/new.go b/pkg/new.go
new file mode 100644
index 0000000..e69de29
--- /dev/null
+++ b/pkg/new.go
@@ -0,0 +1 @@
+package pkg
diff --git a/old.go b/old.go
deleted file mode 100644
index e69de29..0000000
--- a/old.go
+++ /dev/null
@@ -1 +0,0 @@
-package old
`

func TestSourceChanges(t *testing.T) {
	got, ok := SourceChanges(sampleDiff)
	if !ok {
		t.Fatal("SourceChanges could not parse sample diff")
	}
	want := []SourceChange{
		{Path: "cmd/main.go", Kind: "modified"},
		{Path: "pkg/new.go", Kind: "added"},
		{Path: "old.go", Kind: "deleted"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("SourceChanges (-want +got):\n%s", diff)
	}
}

func TestBody(t *testing.T) {
	root := filepath.Join("/tmp", "clone", "repo")
	docs := []string{filepath.Join(root, "docs", "guide.md"), filepath.Join(root, "docs", "api", "ref.md")}

	body := Body("docsabot", sampleDiff, root, docs)
	for _, want := range []string{
		"opened by docsabot",
		"| `cmd/main.go` | modified |",
		"| `pkg/new.go` | added |",
		"| `old.go` | deleted |",
		"- `docs/guide.md`",
		"- `docs/api/ref.md`",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q:\n%s", want, body)
		}
	}
}

func TestBodyWithoutFilesOrDocs(t *testing.T) {
	body := Body("docsabot", "fix typo", "/root", nil)
	if !strings.Contains(body, "does not name any files") {
		t.Errorf("body = %s", body)
	}
	if !strings.Contains(body, "No documents were updated.") {
		t.Errorf("body = %s", body)
	}
}
