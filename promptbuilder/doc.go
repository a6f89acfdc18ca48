/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

/*
Package promptbuilder composes the conversation sent to the completion client
for one documentation file.

Every conversation has the same five messages, in this order:

 1. system: the role definition, restricting output to documentation content
 2. user: the repository layout
 3. user: the diff being documented
 4. user: the current content of the file
 5. assistant: the instruction to update the file from the diff and context

The completion backends rely on this shape, so Build never reorders or drops
a message.

# Templates

Message text is rendered from templates with {{name}} placeholders. Content
that comes from outside the process (the diff, the file, the repository
layout) is bound with BindXML, which wraps it in a CDATA section under a
named element so the model can tell instructions and payload apart:

	t := promptbuilder.MustNewTemplate(`Here is the diff:
	{{diff}}`)
	text, err := t.MustBindXML("diff", promptbuilder.Payload("diff", d)).Render()

Only string literals can be bound verbatim with BindLiteral; the unexported
literal type keeps request data from being spliced into a template by
accident.
*/
package promptbuilder
