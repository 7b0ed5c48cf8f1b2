package value

import (
	"sync"

	"github.com/hamba/avro/v2"
	"github.com/wippyai/avro-xform/errors"
	"github.com/wippyai/avro-xform/schema"
)

// Resolver converts input written against one schema into values of a
// compatible reader schema while they are built.
type Resolver struct {
	writer avro.Schema
	reader avro.Schema
}

// NewResolver checks that data written with writer can be read as
// reader and returns a resolver bridging the two.
func NewResolver(writer, reader avro.Schema) (*Resolver, error) {
	if writer != reader {
		if err := avro.NewSchemaCompatibility().Compatible(reader, writer); err != nil {
			return nil, errors.Incompatible(schema.TypeName(writer), schema.TypeName(reader), err)
		}
	}
	return &Resolver{writer: writer, reader: reader}, nil
}

// Identity reports whether both sides are the same schema.
func (r *Resolver) Identity() bool { return r.writer == r.reader }

// Bind returns a handle that stores writer-schema input into dest, a
// value of the reader schema.
func (r *Resolver) Bind(dest *Value) (Writer, error) {
	return bind(r.writer, dest)
}

type resolved struct {
	ws     avro.Schema
	dest   *Value
	fields []int
}

func bind(ws avro.Schema, dest *Value) (Writer, error) {
	ws = schema.Deref(ws)
	if ws == dest.schema {
		return dest, nil
	}
	wk := schema.KindOf(ws)
	if dest.kind == schema.KindUnion && wk != schema.KindUnion {
		i, ok := matchBranch(ws, dest.schema.(*avro.UnionSchema))
		if !ok {
			return nil, mismatch(ws, dest.schema)
		}
		dest = dest.selectBranch(i)
		if ws == dest.schema {
			return dest, nil
		}
	}
	if !matches(ws, dest.schema, false) {
		return nil, mismatch(ws, dest.schema)
	}

	r := &resolved{ws: ws, dest: dest}
	if wk == schema.KindRecord {
		if err := r.mapFields(); err != nil {
			return nil, err
		}
	}
	return r, nil
}

type pair struct {
	writer, reader avro.Schema
}

var fieldMaps sync.Map // pair -> []int

// fieldMap pairs writer fields with reader fields by name or reader alias.
func fieldMap(w, r *avro.RecordSchema) []int {
	key := pair{w, r}
	if cached, ok := fieldMaps.Load(key); ok {
		return cached.([]int)
	}
	wfields := w.Fields()
	m := make([]int, len(wfields))
	for i, f := range wfields {
		j, ok := schema.FieldIndex(r, f.Name())
		if !ok {
			j = -1
		}
		m[i] = j
	}
	actual, _ := fieldMaps.LoadOrStore(key, m)
	return actual.([]int)
}

// mapFields fills reader-only fields from their defaults.
func (r *resolved) mapFields() error {
	rrec := r.dest.schema.(*avro.RecordSchema)
	r.fields = fieldMap(r.ws.(*avro.RecordSchema), rrec)
	used := make([]bool, len(rrec.Fields()))
	for _, j := range r.fields {
		if j >= 0 {
			used[j] = true
		}
	}
	for j, f := range rrec.Fields() {
		if used[j] {
			continue
		}
		if !f.HasDefault() {
			return errors.New(errors.PhaseResolve, errors.KindIncompatible).
				Path(f.Name()).
				Schema(rrec.FullName()).
				Detail("reader field has no default and is absent from writer").
				Build()
		}
		if err := SetDefault(r.dest.field(j), f.Default()); err != nil {
			return err
		}
	}
	return nil
}

func mismatch(ws, rs avro.Schema) *errors.Error {
	return errors.New(errors.PhaseResolve, errors.KindIncompatible).
		Input(schema.TypeName(ws)).
		Schema(schema.TypeName(rs)).
		Detail("writer type cannot be read as reader type").
		Build()
}

// matchBranch picks the reader branch for a writer type: an exact match
// first, then the first branch reachable by promotion.
func matchBranch(ws avro.Schema, u *avro.UnionSchema) (int, bool) {
	for i, b := range u.Types() {
		if matches(ws, b, true) {
			return i, true
		}
	}
	for i, b := range u.Types() {
		if matches(ws, b, false) {
			return i, true
		}
	}
	return -1, false
}

func matches(ws, rs avro.Schema, exact bool) bool {
	ws, rs = schema.Deref(ws), schema.Deref(rs)
	wk, rk := schema.KindOf(ws), schema.KindOf(rs)
	if wk == rk {
		switch wk {
		case schema.KindRecord, schema.KindEnum, schema.KindFixed:
			return sameName(ws.(avro.NamedSchema), rs.(avro.NamedSchema))
		}
		return true
	}
	if exact {
		return false
	}
	switch wk {
	case schema.KindInt:
		return rk == schema.KindLong || rk == schema.KindFloat || rk == schema.KindDouble
	case schema.KindLong:
		return rk == schema.KindFloat || rk == schema.KindDouble
	case schema.KindFloat:
		return rk == schema.KindDouble
	case schema.KindString:
		return rk == schema.KindBytes
	case schema.KindBytes:
		return rk == schema.KindString
	}
	return false
}

func sameName(w, r avro.NamedSchema) bool {
	if w.FullName() == r.FullName() || w.Name() == r.Name() {
		return true
	}
	for _, alias := range r.Aliases() {
		if alias == w.FullName() || alias == w.Name() {
			return true
		}
	}
	return false
}

func (r *resolved) Schema() avro.Schema { return r.ws }

func (r *resolved) Dest() *Value { return r.dest }

func (r *resolved) FieldIndex(i int) int {
	if r.fields == nil {
		return i
	}
	return r.fields[i]
}

func (r *resolved) SetNull() error { return r.dest.SetNull() }

func (r *resolved) SetBoolean(b bool) error { return r.dest.SetBoolean(b) }

func (r *resolved) SetInt(n int32) error {
	switch r.dest.kind {
	case schema.KindLong:
		return r.dest.SetLong(int64(n))
	case schema.KindFloat:
		return r.dest.SetFloat(float32(n))
	case schema.KindDouble:
		return r.dest.SetDouble(float64(n))
	}
	return r.dest.SetInt(n)
}

func (r *resolved) SetLong(n int64) error {
	switch r.dest.kind {
	case schema.KindFloat:
		return r.dest.SetFloat(float32(n))
	case schema.KindDouble:
		return r.dest.SetDouble(float64(n))
	}
	return r.dest.SetLong(n)
}

func (r *resolved) SetFloat(f float32) error {
	if r.dest.kind == schema.KindDouble {
		return r.dest.SetDouble(float64(f))
	}
	return r.dest.SetFloat(f)
}

func (r *resolved) SetDouble(f float64) error { return r.dest.SetDouble(f) }

func (r *resolved) SetBytes(b []byte) error {
	if r.dest.kind == schema.KindString {
		return r.dest.SetString(string(b))
	}
	return r.dest.SetBytes(b)
}

func (r *resolved) SetFixed(b []byte) error { return r.dest.SetFixed(b) }

func (r *resolved) SetString(s string) error {
	if r.dest.kind == schema.KindBytes {
		return r.dest.SetBytes([]byte(s))
	}
	return r.dest.SetString(s)
}

func (r *resolved) SetEnum(i int) error {
	we := r.ws.(*avro.EnumSchema)
	re, ok := r.dest.schema.(*avro.EnumSchema)
	if !ok {
		return r.dest.SetEnum(i)
	}
	if i < 0 || i >= len(we.Symbols()) {
		return errors.IndexUnknown(errors.PhaseResolve, nil, "symbol", i, len(we.Symbols()), we.FullName())
	}
	sym := we.Symbols()[i]
	j, ok := schema.SymbolIndex(re, sym)
	if !ok {
		if !re.HasDefault() {
			return errors.NameUnknown(errors.PhaseResolve, nil, "symbol", sym, re.FullName())
		}
		j, _ = schema.SymbolIndex(re, re.Default())
	}
	return r.dest.SetEnum(j)
}

func (r *resolved) Append() (Writer, error) {
	if err := r.dest.expect(schema.KindArray, "Append"); err != nil {
		return nil, err
	}
	return bind(r.ws.(*avro.ArraySchema).Items(), r.dest.appendItem())
}

func (r *resolved) Add(key string) (Writer, bool, error) {
	if err := r.dest.expect(schema.KindMap, "Add"); err != nil {
		return nil, false, err
	}
	child, existed := r.dest.addEntry(key)
	w, err := bind(r.ws.(*avro.MapSchema).Values(), child)
	return w, existed, err
}

func (r *resolved) Field(i int) (Writer, error) {
	wfields := r.ws.(*avro.RecordSchema).Fields()
	if i < 0 || i >= len(wfields) {
		return nil, errors.IndexUnknown(errors.PhaseResolve, nil, "field", i, len(wfields), schema.TypeName(r.ws))
	}
	j := r.fields[i]
	if j < 0 {
		return nil, nil
	}
	return bind(wfields[i].Type(), r.dest.field(j))
}

func (r *resolved) SetBranch(i int) (Writer, error) {
	types := r.ws.(*avro.UnionSchema).Types()
	if i < 0 || i >= len(types) {
		return nil, errors.IndexUnknown(errors.PhaseResolve, nil, "branch", i, len(types), "union")
	}
	wb := types[i]
	if r.dest.kind != schema.KindUnion {
		return bind(wb, r.dest)
	}
	j, ok := matchBranch(wb, r.dest.schema.(*avro.UnionSchema))
	if !ok {
		return nil, mismatch(wb, r.dest.schema)
	}
	return bind(wb, r.dest.selectBranch(j))
}
