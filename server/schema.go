/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package server

import (
	"chainguard.dev/docsabot/config"
	"chainguard.dev/docsabot/pipeline"
	"github.com/invopop/jsonschema"
)

// requestSchema reflects the update request body and labels it with the
// service metadata from settings.
func requestSchema(meta config.OpenAPI) *jsonschema.Schema {
	r := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		DoNotReference:             true,
	}
	schema := r.Reflect(&pipeline.UpdateRequest{})

	schema.Title = meta.Title
	if schema.Title == "" {
		schema.Title = "docsabot update request"
	}
	schema.Description = meta.Description

	extras := map[string]any{}
	if meta.Version != "" {
		extras["x-version"] = meta.Version
	}
	if meta.Contact != (config.Contact{}) {
		extras["x-contact"] = meta.Contact
	}
	if len(extras) > 0 {
		schema.Extras = extras
	}
	return schema
}
