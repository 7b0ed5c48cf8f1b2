package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseCompile Phase = "compile" // schema parsing and annotation
	PhaseParse   Phase = "parse"   // source adapter
	PhaseBuild   Phase = "build"   // value tree construction
	PhaseVisit   Phase = "visit"   // value tree traversal
	PhaseEmit    Phase = "emit"    // destination adapter
	PhaseResolve Phase = "resolve" // schema to schema conversion
)

// Kind categorizes the error
type Kind string

const (
	KindTypeMismatch   Kind = "type_mismatch"
	KindNameUnknown    Kind = "name_unknown"
	KindDuplicateField Kind = "duplicate_field"
	KindDuplicateKey   Kind = "duplicate_key"
	KindInvalidData    Kind = "invalid_data"
	KindInvalidUTF8    Kind = "invalid_utf8"
	KindFieldMissing   Kind = "field_missing"
	KindCircularRef    Kind = "circular_ref"
	KindStackOverflow  Kind = "stack_overflow"
	KindAllocation     Kind = "allocation"
	KindIncompatible   Kind = "incompatible"
	KindUnsupported    Kind = "unsupported"
	KindInternal       Kind = "internal"
)

// Error is the structured error type used throughout the module
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Input  string
	Schema string
	Detail string
	Path   []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.Input != "" || e.Schema != "" {
		b.WriteString(": ")
		if e.Input != "" && e.Schema != "" {
			b.WriteString("input ")
			b.WriteString(e.Input)
			b.WriteString(", schema ")
			b.WriteString(e.Schema)
		} else if e.Input != "" {
			b.WriteString("input ")
			b.WriteString(e.Input)
		} else {
			b.WriteString("schema ")
			b.WriteString(e.Schema)
		}
	}

	if e.Value != nil {
		fmt.Fprintf(&b, " (value: %v)", e.Value)
	}

	if e.Detail != "" {
		if e.Input != "" || e.Schema != "" || e.Value != nil {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error.
// An empty Phase or Kind on the target matches any value.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Phase != "" && t.Phase != e.Phase {
		return false
	}
	if t.Kind != "" && t.Kind != e.Kind {
		return false
	}
	return true
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the field path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Input sets the description of the offending input
func (b *Builder) Input(t string) *Builder {
	b.err.Input = t
	return b
}

// Schema sets the schema type name
func (b *Builder) Schema(t string) *Builder {
	b.err.Schema = t
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// KindOnly returns a target for errors.Is that matches any phase.
func KindOnly(kind Kind) *Error {
	return &Error{Kind: kind}
}

// KindOf returns the Kind of the first *Error in err's chain, or "".
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsInternal reports whether err signals a defect rather than bad input.
func IsInternal(err error) bool {
	return KindOf(err) == KindInternal
}

// WithPath returns err with path prepended when err is an *Error without a path.
func WithPath(err error, path []string) error {
	var e *Error
	if len(path) == 0 || !stderrors.As(err, &e) || len(e.Path) > 0 {
		return err
	}
	e.Path = append([]string(nil), path...)
	return err
}

// PrependPath returns err with elems placed in front of its path.
func PrependPath(err error, elems ...string) error {
	var e *Error
	if len(elems) == 0 || !stderrors.As(err, &e) {
		return err
	}
	e.Path = append(append([]string(nil), elems...), e.Path...)
	return err
}

// Convenience constructors for common error patterns

// TypeMismatch creates a type mismatch error
func TypeMismatch(phase Phase, path []string, input, schema string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindTypeMismatch,
		Path:   path,
		Input:  input,
		Schema: schema,
	}
}

// InvalidUTF8 creates an invalid UTF-8 error
func InvalidUTF8(phase Phase, path []string, data []byte) *Error {
	preview := data
	if len(preview) > 32 {
		preview = preview[:32]
	}
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidUTF8,
		Path:   path,
		Detail: fmt.Sprintf("invalid UTF-8 sequence: %x", preview),
	}
}

// AllocationFailed creates an allocation failure error
func AllocationFailed(phase Phase, what string, size int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindAllocation,
		Detail: fmt.Sprintf("cannot grow %s to %d", what, size),
		Value:  size,
	}
}

// FieldMissing creates a missing field error
func FieldMissing(phase Phase, path []string, fieldName string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindFieldMissing,
		Path:   path,
		Detail: fmt.Sprintf("required field %q not supplied and has no default", fieldName),
	}
}

// NameUnknown creates an unresolved field, branch or symbol name error
func NameUnknown(phase Phase, path []string, what, name, schema string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNameUnknown,
		Path:   path,
		Schema: schema,
		Detail: fmt.Sprintf("unknown %s %q", what, name),
	}
}

// IndexUnknown creates an out of range field, branch or symbol index error
func IndexUnknown(phase Phase, path []string, what string, index, count int, schema string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNameUnknown,
		Path:   path,
		Schema: schema,
		Value:  index,
		Detail: fmt.Sprintf("%s index out of range (count %d)", what, count),
	}
}

// DuplicateField creates a duplicate record field error
func DuplicateField(phase Phase, path []string, fieldName string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindDuplicateField,
		Path:   path,
		Detail: fmt.Sprintf("field %q supplied more than once", fieldName),
	}
}

// DuplicateKey creates a duplicate map key error
func DuplicateKey(phase Phase, path []string, key string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindDuplicateKey,
		Path:   path,
		Detail: fmt.Sprintf("map key %q supplied more than once", key),
	}
}

// CircularRef creates a circular reference error
func CircularRef(phase Phase, path []string, input string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindCircularRef,
		Path:   path,
		Input:  input,
		Detail: "container references itself",
	}
}

// StackOverflow creates a recursion guard error
func StackOverflow(phase Phase, path []string, limit int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindStackOverflow,
		Path:   path,
		Detail: fmt.Sprintf("nesting exceeds %d levels", limit),
		Value:  limit,
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// Internal creates a programming or invariant error
func Internal(phase Phase, detail string, args ...any) *Error {
	if len(args) > 0 {
		detail = fmt.Sprintf(detail, args...)
	}
	return &Error{
		Phase:  phase,
		Kind:   KindInternal,
		Detail: detail,
	}
}

// Incompatible creates a schema incompatibility error
func Incompatible(src, dest string, cause error) *Error {
	return &Error{
		Phase:  PhaseResolve,
		Kind:   KindIncompatible,
		Detail: fmt.Sprintf("%s cannot be read as %s", src, dest),
		Cause:  cause,
	}
}

// InvalidData creates an invalid data error
func InvalidData(phase Phase, path []string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidData,
		Path:   path,
		Detail: detail,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// ParseFailed creates a schema parsing error
func ParseFailed(what string, cause error) *Error {
	return &Error{
		Phase:  PhaseCompile,
		Kind:   KindInvalidData,
		Detail: fmt.Sprintf("parse %s", what),
		Cause:  cause,
	}
}
