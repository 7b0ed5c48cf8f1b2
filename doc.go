// Package avroxform converts Avro-typed documents between a verbose,
// name keyed layout and a terse, positional one, and turns partial
// records into positional update operations.
//
// Transformations are driven by a schema and work over pluggable
// encodings: a Parser pulls values from a source document and an Emitter
// pushes them into a destination document. The same schema driven core
// serves every encoding pair.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct responsibilities:
//
//	avroxform/           Root package with Parser, Emitter and Tag
//	├── transcoder/      Schema compilation, Builder, Visitor, operations
//	├── value/           Mutable value tree and schema resolution
//	├── schema/          Avro schema helpers (kinds, names, lookups)
//	├── codec/tree/      Parser and Emitter over Go maps, slices and scalars
//	├── codec/msgpack/   Parser and Emitter over MessagePack bytes
//	├── codec/document/  JSON, YAML, CBOR and MessagePack documents as Go trees
//	├── errors/          Structured error types for debugging
//	└── cmd/avrox/       Command line front end
//
// # Quick Start
//
// Flatten a record:
//
//	s, err := transcoder.Parse(schemaJSON)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	tr, err := transcoder.NewWithDefaults(s, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	terse, err := tr.FlattenTree(map[string]any{"id": 7, "tags": []any{"a", "b"}})
//	fmt.Println(terse) // [7 [a b]]
//
// # Schema Evolution
//
// A transcoder built from two schemas reads input written with the first
// and produces values of the second. Writer-only fields are skipped,
// reader-only fields take their defaults and numeric types are promoted
// as Avro schema resolution allows.
//
// # Thread Safety
//
// Schema and Transcoder are safe for concurrent use. Builder, Visitor,
// parsers and emitters hold per-call state and belong to one goroutine.
package avroxform
