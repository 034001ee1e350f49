/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package docstore implements a Queryset over a document collection.
//
// Records are translated to documents by renaming the identifier field to the
// collection's native key field ("_id" unless configured otherwise) and back
// again on read. Translation drops any field the schema does not declare, so
// attributes a store adds on its own never reach callers.
//
// Collections that also implement BatchFinder serve ReadMany in one call with
// per-position results. Collections that implement Patcher receive only the
// changed fields on update.
//
// Shipped collections:
//
//   - docstore/ddb: an Amazon DynamoDB table
//   - docstore/mongo: a MongoDB collection
package docstore
