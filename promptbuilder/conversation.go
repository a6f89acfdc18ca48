/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package promptbuilder

// Role identifies the author of a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is one of the three known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	}
	return false
}

// Message is one role-tagged entry of a conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Conversation is an ordered sequence of messages sent as one request.
type Conversation []Message

const systemInstruction = `You are a technical writer who maintains the documentation of a software project.
You receive the layout of the repository, a diff of a code change and the current content of one documentation file.
Reply with the complete updated content of that file and nothing else. Do not add commentary, explanations or code fences around the document.
Keep the existing format of the file (Markdown, plain text or PlantUML). If the change does not affect the file, return it unchanged.`

const updateInstruction = `I will update the documentation file based on the diff and the repository context, keeping its format, and reply with the full file content only.`

var (
	summaryTemplate  = MustNewTemplate("This is the layout of the repository:\n{{summary}}")
	diffTemplate     = MustNewTemplate("This is the code change to document:\n{{diff}}")
	documentTemplate = MustNewTemplate("This is the current content of the documentation file:\n{{document}}")
)

// Build returns the five-message conversation for one documentation file.
func Build(diff, oldContent, repoSummary string) Conversation {
	return Conversation{
		{Role: RoleSystem, Content: systemInstruction},
		{Role: RoleUser, Content: render(summaryTemplate, "summary", "repository", repoSummary)},
		{Role: RoleUser, Content: render(diffTemplate, "diff", "diff", diff)},
		{Role: RoleUser, Content: render(documentTemplate, "document", "document", oldContent)},
		{Role: RoleAssistant, Content: updateInstruction},
	}
}

// render binds text as a CDATA payload. The templates above have exactly one
// placeholder each and a string payload always marshals, so Render cannot
// fail here.
func render(t *Template, name, element, text string) string {
	out, err := t.MustBindXML(name, Payload(element, text)).Render()
	if err != nil {
		panic(err)
	}
	return out
}
