package tabledb

import (
	"github.com/invopop/jsonschema"
)

// FileSchema returns the JSON Schema of the document written by [Serialize].
//
// The top level is an object whose reserved key MetaKey holds metadata and
// every other key holds one table.
func FileSchema() *jsonschema.Schema {
	r := jsonschema.Reflector{Anonymous: true, DoNotReference: true, ExpandedStruct: true}
	table := r.Reflect(&fileTable{})
	table.Version = ""
	table.Description = "One table: ordered column descriptors and rows in insertion order."
	meta := r.Reflect(&fileMeta{})
	meta.Version = ""
	meta.Description = "Database metadata. Present only when credentials are set."

	props := jsonschema.NewProperties()
	props.Set(MetaKey, meta)
	return &jsonschema.Schema{
		Version:              jsonschema.Version,
		Title:                "tabdb database",
		Type:                 "object",
		Properties:           props,
		AdditionalProperties: table,
	}
}
