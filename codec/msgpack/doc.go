// Package msgpack adapts MessagePack, the positional binary format, to
// the transformation engine using github.com/vmihailenco/msgpack/v5.
//
// Terse records are arrays in field order. Verbose records are maps
// keyed by field name, or by field index when names are not carried.
// Unions are nil for the null branch, a one entry map {branch: payload}
// or a pair [branch, payload] where branch is a name or an index.
//
// The emitter buffers each open array or map separately and writes its
// header with the actual item count when the scope is closed.
package msgpack
