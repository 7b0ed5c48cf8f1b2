// Package document converts whole JSON, YAML, CBOR and MessagePack
// documents to and from the Go trees read by the tree codec.
//
// Decoded trees use map[string]any for objects and []any for arrays.
// Numbers keep the representation of their decoder: json.Number for
// JSON, int or float64 for YAML, uint64, int64 or float64 for CBOR and
// the narrowest Go integer for MessagePack.
package document
