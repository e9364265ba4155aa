package server

import (
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
)

// Request schemas, grounded on the construction pattern of the MCP tool
// registrations: one *jsonschema.Schema literal per command, checked
// before field extraction per §4.9.1. A schema-validation failure maps to
// codeInvalidRequestJSON, including a merge action outside the schema's
// enum; a schema-valid but semantically invalid request (empty pathList,
// start > end, empty merge name) maps to codeRequestInvalidParam and is
// checked separately by each handler.

var importFileSchema = &jsonschema.Schema{
	Type: "object",
	Properties: map[string]*jsonschema.Schema{
		"append": {Type: "boolean"},
		"pathList": {
			Type:  "array",
			Items: &jsonschema.Schema{Type: "string"},
		},
	},
	Required: []string{"pathList"},
}

var graphConfigEntrySchema = &jsonschema.Schema{
	Type: "object",
	Properties: map[string]*jsonschema.Schema{
		"type":      {Type: "string"},
		"enable":    {Type: "boolean"},
		"algorithm": {Type: "string"},
		"weight":    {Type: "number"},
		"window":    {Type: "integer"},
		"top":       {Type: "number"},
	},
	Required: []string{"type", "enable"},
}

var getScalarDataSchema = &jsonschema.Schema{
	Type: "object",
	Properties: map[string]*jsonschema.Schema{
		"graphList": {
			Type: "array",
			Items: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"tag":         {Type: "string"},
					"file":        {Type: "string"},
					"start":       {Type: "integer"},
					"end":         {Type: "integer"},
					"graphConfig": {Type: "array", Items: graphConfigEntrySchema},
				},
				Required: []string{"tag", "file"},
			},
		},
	},
	Required: []string{"graphList"},
}

var fileMergeSchema = &jsonschema.Schema{
	Type: "object",
	Properties: map[string]*jsonschema.Schema{
		"action":   {Type: "string", Enum: []interface{}{"merge", "unset"}},
		"name":     {Type: "string"},
		"fileList": {Type: "array", Items: &jsonschema.Schema{Type: "string"}},
	},
	Required: []string{"action", "name"},
}

var tokenParamSetSchema = &jsonschema.Schema{
	Type: "object",
	Properties: map[string]*jsonschema.Schema{
		"params": {
			Type: "array",
			Items: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"file":            {Type: "string"},
					"globalBatchSize": {Type: "number"},
					"seqLength":       {Type: "number"},
				},
				Required: []string{"file"},
			},
		},
	},
	Required: []string{"params"},
}

var getParseStateSchema = &jsonschema.Schema{
	Type: "object",
	Properties: map[string]*jsonschema.Schema{
		"projectNameLists": {
			Type:  "array",
			Items: &jsonschema.Schema{Type: "string"},
		},
	},
	Required: []string{"projectNameLists"},
}

var emptyRequestSchema = &jsonschema.Schema{Type: "object"}

// validateAgainst resolves schema and checks instance (already decoded
// into a generic map[string]interface{}) against it, returning a
// descriptive error on mismatch. Grounded on the construction pattern of
// internal/mcp/server.go; the Resolve/Validate call sequence follows the
// library's documented public API, which the MCP SDK invokes internally
// rather than the pack demonstrating it directly.
func validateAgainst(schema *jsonschema.Schema, instance interface{}) error {
	resolved, err := schema.Resolve(nil)
	if err != nil {
		return fmt.Errorf("resolve schema: %w", err)
	}
	if err := resolved.Validate(instance); err != nil {
		return fmt.Errorf("validate request: %w", err)
	}
	return nil
}
