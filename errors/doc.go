// Package errors provides structured error types for avro-xform.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Kind string is the classification reported to callers: type_mismatch,
// name_unknown, duplicate_field, circular_ref, stack_overflow, internal and so on.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseBuild, errors.KindTypeMismatch).
//		Path("user", "age").
//		Input("string").
//		Schema("long").
//		Detail("cannot store text in a long").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.TypeMismatch(errors.PhaseParse, path, "string", "long")
//	err := errors.CircularRef(errors.PhaseParse, path, "map[string]any")
//
// All errors implement the standard error interface and support errors.Is/As.
// A target with an empty Phase matches every phase:
//
//	errors.Is(err, errors.KindOnly(errors.KindCircularRef))
package errors
