/*
Package record defines the record capability consumed by querysets and a
schema-driven implementation of it.

A Record exposes three things:

	type Record interface {
	    Identifier() string
	    CanonicalMapping() *Mapping
	    DiffAgainst(baseline *Mapping) *Mapping
	}

Mapping is an ordered field -> value map. Canonical mappings always carry the
identifier under the schema's identifier field (default "id"), followed by the
declared fields in schema order.

Schemas:

	users := &record.Schema{
	    Name:    "users",
	    IDField: "id",
	    Fields: []record.Field{
	        {Name: "email", Format: "email", Required: true},
	        {Name: "joined", Format: "date-time"},
	        {Name: "data"},
	    },
	}

	doc, err := users.FromMap(map[string]any{"id": "foo", "email": "a@b.io"})

Formats are validated through go-openapi/strfmt. Structs with json tags can be
converted with Schema.FromStruct and decoded back with Document.Decode.
*/
package record
