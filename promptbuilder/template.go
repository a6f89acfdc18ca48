/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package promptbuilder

import (
	"encoding/xml"
	"fmt"
	"maps"
)

// literal only accepts untyped string constants from callers outside the
// package.
type literal string

// Template is message text with {{name}} placeholders. Binding returns a new
// Template, so a parsed template can be shared across goroutines.
type Template struct {
	text     string
	bindings map[string]binding
}

type binding interface {
	value() (string, error)
}

type unbound struct{ name string }

func (u unbound) value() (string, error) {
	return "", fmt.Errorf("unbound placeholder: %s", u.name)
}

type literalBinding string

func (l literalBinding) value() (string, error) { return string(l), nil }

type xmlBinding struct{ data any }

func (x xmlBinding) value() (string, error) {
	b, err := xml.MarshalIndent(x.data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling XML: %w", err)
	}
	return string(b), nil
}

// NewTemplate parses text and records its placeholders.
func NewTemplate(text literal) (*Template, error) {
	bindings := make(map[string]binding)
	if _, err := walkTemplate(string(text), func(name string) (string, error) {
		bindings[name] = unbound{name: name}
		return "", nil
	}); err != nil {
		return nil, err
	}
	return &Template{text: string(text), bindings: bindings}, nil
}

// Placeholders returns the set of placeholder names in the template.
func (t *Template) Placeholders() map[string]struct{} {
	names := make(map[string]struct{}, len(t.bindings))
	for name := range t.bindings {
		names[name] = struct{}{}
	}
	return names
}

// BindLiteral substitutes a developer-supplied literal for name.
func (t *Template) BindLiteral(name string, value literal) (*Template, error) {
	return t.bind(name, literalBinding(value))
}

// BindXML substitutes the indented XML encoding of data for name.
func (t *Template) BindXML(name string, data any) (*Template, error) {
	return t.bind(name, xmlBinding{data: data})
}

func (t *Template) bind(name string, b binding) (*Template, error) {
	current, ok := t.bindings[name]
	if !ok {
		return nil, fmt.Errorf("placeholder %q not found in template", name)
	}
	if _, ok := current.(unbound); !ok {
		return nil, fmt.Errorf("placeholder %q already bound", name)
	}
	next := &Template{text: t.text, bindings: maps.Clone(t.bindings)}
	next.bindings[name] = b
	return next, nil
}

// Render produces the final text. Every placeholder must be bound.
func (t *Template) Render() (string, error) {
	values := make(map[string]string, len(t.bindings))
	for name, b := range t.bindings {
		v, err := b.value()
		if err != nil {
			return "", err
		}
		values[name] = v
	}
	return walkTemplate(t.text, func(name string) (string, error) {
		return values[name], nil
	})
}

// Must panics if err is non-nil. It is meant for templates known to be
// valid, such as package-level variables.
func Must(t *Template, err error) *Template {
	if err != nil {
		panic(err)
	}
	return t
}

// MustNewTemplate is Must(NewTemplate(text)).
func MustNewTemplate(text literal) *Template {
	return Must(NewTemplate(text))
}

// MustBindXML is Must(t.BindXML(name, data)).
func (t *Template) MustBindXML(name string, data any) *Template {
	return Must(t.BindXML(name, data))
}

// payload is external text carried in a CDATA section under a named element.
type payload struct {
	XMLName xml.Name
	Text    string `xml:",cdata"`
}

// Payload wraps text for BindXML as <element><![CDATA[text]]></element>.
// Markup inside text reaches the model unescaped.
func Payload(element, text string) any {
	return payload{XMLName: xml.Name{Local: element}, Text: text}
}
