// Package transcoder converts schema-typed values between a verbose and
// a terse layout, and turns partial records into positional update
// operations.
//
// # Layouts
//
// The verbose layout is self describing: records are maps keyed by
// field name, unions are {branch: payload} (nil for the null branch)
// and enums are symbol names. The terse layout is positional: records
// are lists in field declaration order, and with the default options
// enums are symbol indexes and unions are [index, payload].
//
// With CollapseNested, nested records and unions inside a terse record
// are inlined into their parent's list:
//
//	schema  {a: long, b: {x: long, y: long}, u: [long, string]}
//	verbose {"a": 1, "b": {"x": 2, "y": 3}, "u": {"string": "hi"}}
//	terse   [1, 2, 3, 1, "hi"]
//
// Every leaf takes one flattened position, a union takes two. The
// positions of a record root are listed by Schema.FlatNames.
//
// # Operations
//
//	Flatten    verbose -> terse
//	Unflatten  terse   -> verbose
//	XFlatten   verbose partial record -> [["=", position, value], ...]
//
// XFlatten emits one operation per supplied leaf, in ascending position:
//
//	partial {"b": {"y": 9}}
//	ops     [["=", 2, 9]]
//
// A Transcoder may read input written with one schema and produce
// values of another, compatible schema. Fields the destination lacks
// are skipped; fields only the destination has take their default.
//
// # Key Types
//
//	Schema      - Avro schema plus per-record flattening geometry
//	Transcoder  - Source/destination schema pair running the operations
//	Builder     - Stores parser input into a value tree
//	Visitor     - Emits a value tree through an emitter
//	Options     - Per call configuration
//
// Parsers and emitters for Go trees and MessagePack live in codec/tree
// and codec/msgpack; Transcoder.Tree and Transcoder.Msgpack wire them up.
//
// # Errors
//
// Every failure aborts the call and returns an *errors.Error whose Kind
// classifies it. Output of a failed call is discarded.
package transcoder
