/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package promptbuilder

import (
	"strings"
	"testing"
)

func TestTemplateRender(t *testing.T) {
	tmpl, err := NewTemplate("Hello {{ name }}, see {{item}} and {{name}} again")
	if err != nil {
		t.Fatalf("NewTemplate: %v", err)
	}
	if got := len(tmpl.Placeholders()); got != 2 {
		t.Fatalf("Placeholders = %d, want 2", got)
	}

	if _, err := tmpl.Render(); err == nil || !strings.Contains(err.Error(), "unbound placeholder") {
		t.Fatalf("Render with unbound placeholders: err = %v", err)
	}

	bound, err := tmpl.BindLiteral("name", "docsabot")
	if err != nil {
		t.Fatalf("BindLiteral: %v", err)
	}
	bound, err = bound.BindXML("item", Payload("file", "a.md"))
	if err != nil {
		t.Fatalf("BindXML: %v", err)
	}
	got, err := bound.Render()
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	want := "Hello docsabot, see <file><![CDATA[a.md]]></file> and docsabot again"
	if got != want {
		t.Errorf("Render = %q, want %q", got, want)
	}

	// The original template is unchanged by binding.
	if _, err := tmpl.Render(); err == nil {
		t.Errorf("binding mutated the original template")
	}
}

func TestTemplateErrors(t *testing.T) {
	for _, text := range []literal{"{{unclosed", "{{1abc}}", "{{a-b}}", "{{}}"} {
		if _, err := NewTemplate(text); err == nil {
			t.Errorf("NewTemplate(%q) succeeded, want error", text)
		}
	}

	tmpl := MustNewTemplate("{{a}}")
	if _, err := tmpl.BindLiteral("missing", "x"); err == nil {
		t.Errorf("binding an unknown placeholder succeeded")
	}
	once, err := tmpl.BindLiteral("a", "x")
	if err != nil {
		t.Fatalf("BindLiteral: %v", err)
	}
	if _, err := once.BindLiteral("a", "y"); err == nil {
		t.Errorf("binding a placeholder twice succeeded")
	}
}

func TestMustPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Errorf("MustNewTemplate did not panic")
		}
	}()
	MustNewTemplate("{{broken")
}
