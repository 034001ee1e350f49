/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

/*
Package ddb implements docstore.Collection on an Amazon DynamoDB table.

The table is keyed by a single string partition key (KeyAttribute, "PK" by
default). Documents are marshaled with attributevalue, so numbers, booleans
and null keep their types.

# Single-table use

When Config.EntityType is set every item is written with an EntityType
attribute and its partition key is stored as "<EntityType>#<id>". Each
Collection only addresses keys carrying its own prefix, so two record kinds
may use the same identifier in one table, and FindAll only returns items of
its kind. Documents come back with the bare identifier; the attribute is not
part of any schema and is dropped when documents are translated back to
records. A stored item whose key lacks the prefix is a translation error.

# Usage

	client, err := ddb.NewDynamoDBClient(ctx, ddb.ClientConfig{Region: "us-east-1"})
	if err != nil {
		return err
	}
	coll, err := ddb.New(client, ddb.Config{Table: "entities", EntityType: "user"})
	if err != nil {
		return err
	}
	qs := docstore.New(coll, schema, docstore.WithNativeKey(coll.KeyAttribute()))

Batch reads use BatchGetItem in chunks of 100 keys; updates of existing
records are conditional UpdateItem calls carrying only the changed fields.
*/
package ddb
