// Package value provides the typed container the transformation engine
// builds into and visits from.
//
// A Value conforms to one schema node. The builder writes through the
// Writer interface, which *Value implements directly. A Resolver binds a
// writer schema to a Value of a different, compatible reader schema:
// the handle it returns converts on the fly, promoting numbers,
// renaming enum symbols, filling reader-only fields from defaults and
// reporting writer-only fields as absent so their input is skipped.
package value
