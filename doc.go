/*
Package querysets gives a single CRUD contract over several storage backends.

A queryset holds the entities of one schema. Every backend reports data-level
outcomes through the same closed status vocabulary (Created, Updated, OK,
Failed) and returns an error only when it cannot serve the call or the input
is rejected. The backends are:
  - memory: a process-local map, the reference implementation
  - kv: field hashes on Redis or bbolt, values JSON encoded and optionally zlib compressed
  - docstore: documents on DynamoDB or MongoDB, translated to and from a native key field

Querysets are usually built from a YAML configuration:

	cfg, _ := config.Load("querysets.yaml")
	reg, closeAll, _ := querysets.Open(ctx, cfg, logger)
	defer closeAll()

	users, _ := reg.Get("users")
	schema, _ := reg.Schema("users")
	doc, _ := schema.FromMap(map[string]any{"id": "u1", "email": "a@example.com"})
	results, _ := queryset.Create(ctx, users, doc)

Typed wraps a queryset for a Go struct type whose json tags name the schema
fields.
*/
package querysets
