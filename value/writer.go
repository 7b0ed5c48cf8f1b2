package value

import (
	"github.com/hamba/avro/v2"
	"github.com/wippyai/avro-xform/errors"
	"github.com/wippyai/avro-xform/schema"
)

// Writer is a handle the builder stores into. Schema reports the schema
// input is interpreted against; for a resolved handle it differs from
// the schema of the destination value.
type Writer interface {
	Schema() avro.Schema
	// Dest returns the destination value behind the handle.
	Dest() *Value
	// FieldIndex maps field i of Schema to the destination field index,
	// or -1 when the destination does not carry it.
	FieldIndex(i int) int

	SetNull() error
	SetBoolean(v bool) error
	SetInt(v int32) error
	SetLong(v int64) error
	SetFloat(v float32) error
	SetDouble(v float64) error
	SetBytes(v []byte) error
	SetFixed(v []byte) error
	SetString(v string) error
	SetEnum(index int) error

	// Append adds an array element.
	Append() (Writer, error)
	// Add inserts or replaces a map entry; existed reports a replacement.
	Add(key string) (w Writer, existed bool, err error)
	// Field returns record field i, or nil when the destination does not
	// carry it and its input must be skipped.
	Field(i int) (Writer, error)
	// SetBranch selects union branch i and returns its payload.
	SetBranch(i int) (Writer, error)
}

var _ Writer = (*Value)(nil)

func (v *Value) Dest() *Value { return v }

func (v *Value) FieldIndex(i int) int { return i }

func (v *Value) SetNull() error {
	return v.expect(schema.KindNull, "SetNull")
}

func (v *Value) SetBoolean(b bool) error {
	if err := v.expect(schema.KindBoolean, "SetBoolean"); err != nil {
		return err
	}
	v.flag = b
	return nil
}

func (v *Value) SetInt(n int32) error {
	if err := v.expect(schema.KindInt, "SetInt"); err != nil {
		return err
	}
	v.num = int64(n)
	return nil
}

func (v *Value) SetLong(n int64) error {
	if err := v.expect(schema.KindLong, "SetLong"); err != nil {
		return err
	}
	v.num = n
	return nil
}

func (v *Value) SetFloat(f float32) error {
	if err := v.expect(schema.KindFloat, "SetFloat"); err != nil {
		return err
	}
	v.flt = float64(f)
	return nil
}

func (v *Value) SetDouble(f float64) error {
	if err := v.expect(schema.KindDouble, "SetDouble"); err != nil {
		return err
	}
	v.flt = f
	return nil
}

func (v *Value) SetBytes(b []byte) error {
	if err := v.expect(schema.KindBytes, "SetBytes"); err != nil {
		return err
	}
	v.raw = b
	return nil
}

func (v *Value) SetFixed(b []byte) error {
	if err := v.expect(schema.KindFixed, "SetFixed"); err != nil {
		return err
	}
	if size := v.schema.(*avro.FixedSchema).Size(); len(b) != size {
		return errors.New(errors.PhaseBuild, errors.KindInvalidData).
			Schema(schema.TypeName(v.schema)).
			Detail("fixed needs %d bytes, got %d", size, len(b)).
			Build()
	}
	v.raw = b
	return nil
}

func (v *Value) SetString(s string) error {
	if err := v.expect(schema.KindString, "SetString"); err != nil {
		return err
	}
	v.str = s
	return nil
}

func (v *Value) SetEnum(i int) error {
	if err := v.expect(schema.KindEnum, "SetEnum"); err != nil {
		return err
	}
	e := v.schema.(*avro.EnumSchema)
	if i < 0 || i >= len(e.Symbols()) {
		return errors.IndexUnknown(errors.PhaseBuild, nil, "symbol", i, len(e.Symbols()), e.FullName())
	}
	v.num = int64(i)
	return nil
}

func (v *Value) Append() (Writer, error) {
	if err := v.expect(schema.KindArray, "Append"); err != nil {
		return nil, err
	}
	return v.appendItem(), nil
}

func (v *Value) Add(key string) (Writer, bool, error) {
	if err := v.expect(schema.KindMap, "Add"); err != nil {
		return nil, false, err
	}
	child, existed := v.addEntry(key)
	return child, existed, nil
}

func (v *Value) Field(i int) (Writer, error) {
	if err := v.expect(schema.KindRecord, "Field"); err != nil {
		return nil, err
	}
	if i < 0 || i >= len(v.items) {
		return nil, errors.IndexUnknown(errors.PhaseBuild, nil, "field", i, len(v.items), schema.TypeName(v.schema))
	}
	return v.field(i), nil
}

func (v *Value) SetBranch(i int) (Writer, error) {
	if err := v.expect(schema.KindUnion, "SetBranch"); err != nil {
		return nil, err
	}
	if n := len(v.schema.(*avro.UnionSchema).Types()); i < 0 || i >= n {
		return nil, errors.IndexUnknown(errors.PhaseBuild, nil, "branch", i, n, "union")
	}
	return v.selectBranch(i), nil
}
