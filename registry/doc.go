/*
Package registry keeps the record schemas an application works with.

Schemas registry:
Maps schema names to record.Schema values. Schemas are checked when
registered and usually come from configuration:

	schemas := registry.New()
	schemas.MustRegister(record.NewSchema("user", "name", "email"))

Types registry:
Associates Go struct types with a registered schema so structs can be stored
without building documents by hand:

	types := registry.NewTypes(schemas)
	registry.RegisterType[User](types, "user")
	doc, err := types.Document(&User{ID: "u1", Name: "Ada"})

Both registries are safe for concurrent use and are owned by whoever creates
them; there is no package-level state.
*/
package registry
