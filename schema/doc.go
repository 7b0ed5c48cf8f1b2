// Package schema provides introspection helpers over hamba/avro schemas.
//
// It adds what the transformation engine needs on top of the schema
// library: a compact logical Kind tag, link dereferencing and cached
// name to index lookups for record fields, union branches and enum symbols.
//
// Link nodes are *avro.RefSchema values: the second and later uses of a
// named type. Deref follows them to the defining node.
package schema
