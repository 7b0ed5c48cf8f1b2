// Package tree adapts plain Go values to the transformation engine.
//
// Parser reads trees such as those produced by encoding/json or
// gopkg.in/yaml.v3 decoding into any: maps with string keys, slices,
// strings, byte slices, booleans, nil and numbers of any Go numeric type.
// Emitter produces the same shapes.
//
// Unions are read as {branch: payload}, as nil for the null branch, or as
// [branch, payload]; they are written as {branch: payload} or nil.
package tree
