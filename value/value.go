package value

import (
	"fmt"

	"github.com/hamba/avro/v2"
	"github.com/wippyai/avro-xform/errors"
	"github.com/wippyai/avro-xform/schema"
)

// Value is a mutable container conforming to one schema node.
// Scalars, enums and union discriminants are stored inline; arrays,
// maps, records and union branches hold child values.
type Value struct {
	schema avro.Schema
	index  map[string]int
	str    string
	raw    []byte
	items  []*Value
	keys   []string
	num    int64
	flt    float64
	kind   schema.Kind
	flag   bool
}

// New creates an empty value for s. Links are dereferenced.
func New(s avro.Schema) *Value {
	s = schema.Deref(s)
	v := &Value{schema: s, kind: schema.KindOf(s)}
	switch t := s.(type) {
	case *avro.RecordSchema:
		v.items = make([]*Value, len(t.Fields()))
	case *avro.UnionSchema:
		v.num = -1
		v.items = make([]*Value, 1)
	}
	return v
}

// Schema returns the schema the value conforms to, never a link.
func (v *Value) Schema() avro.Schema { return v.schema }

// Kind returns the logical type of the value.
func (v *Value) Kind() schema.Kind { return v.kind }

func (v *Value) Boolean() bool { return v.flag }
func (v *Value) Int() int32 { return int32(v.num) }
func (v *Value) Long() int64 { return v.num }
func (v *Value) Float() float32 { return float32(v.flt) }
func (v *Value) Double() float64 { return v.flt }
func (v *Value) Bytes() []byte { return v.raw }

// String returns the content of a string value. Other kinds render a
// short description.
func (v *Value) String() string {
	if v.kind == schema.KindString {
		return v.str
	}
	return fmt.Sprintf("<%s value>", v.kind)
}

// Enum returns the symbol index and name of an enum value.
func (v *Value) Enum() (int, string) {
	e, ok := v.schema.(*avro.EnumSchema)
	if !ok || v.num < 0 || int(v.num) >= len(e.Symbols()) {
		return int(v.num), ""
	}
	return int(v.num), e.Symbols()[v.num]
}

// Branch returns the selected branch index and payload of a union value,
// or -1 and nil when no branch was selected.
func (v *Value) Branch() (int, *Value) {
	if v.kind != schema.KindUnion || v.num < 0 {
		return -1, nil
	}
	return int(v.num), v.items[0]
}

// Len returns the element count of an array or map, or the field count
// of a record.
func (v *Value) Len() int {
	switch v.kind {
	case schema.KindArray, schema.KindMap, schema.KindRecord:
		return len(v.items)
	}
	return 0
}

// Item returns array element, map value or record field i. Record
// fields that were never written are created empty.
func (v *Value) Item(i int) *Value {
	if v.kind == schema.KindRecord {
		return v.field(i)
	}
	return v.items[i]
}

// Key returns the key of map entry i.
func (v *Value) Key(i int) string { return v.keys[i] }

// Lookup returns the map value stored under key.
func (v *Value) Lookup(key string) (*Value, bool) {
	i, ok := v.index[key]
	if !ok {
		return nil, false
	}
	return v.items[i], true
}

// Get returns the record field called name.
func (v *Value) Get(name string) (*Value, bool) {
	r, ok := v.schema.(*avro.RecordSchema)
	if !ok {
		return nil, false
	}
	i, ok := schema.FieldIndex(r, name)
	if !ok {
		return nil, false
	}
	return v.field(i), true
}

// Present reports whether record field i was written.
func (v *Value) Present(i int) bool {
	return v.kind == schema.KindRecord && v.items[i] != nil
}

func (v *Value) field(i int) *Value {
	if v.items[i] == nil {
		v.items[i] = New(v.schema.(*avro.RecordSchema).Fields()[i].Type())
	}
	return v.items[i]
}

func (v *Value) appendItem() *Value {
	child := New(v.schema.(*avro.ArraySchema).Items())
	v.items = append(v.items, child)
	return child
}

func (v *Value) addEntry(key string) (*Value, bool) {
	child := New(v.schema.(*avro.MapSchema).Values())
	if i, ok := v.index[key]; ok {
		v.items[i] = child
		return child, true
	}
	if v.index == nil {
		v.index = make(map[string]int)
	}
	v.index[key] = len(v.items)
	v.items = append(v.items, child)
	v.keys = append(v.keys, key)
	return child, false
}

func (v *Value) selectBranch(i int) *Value {
	child := New(v.schema.(*avro.UnionSchema).Types()[i])
	v.num = int64(i)
	v.items[0] = child
	return child
}

func (v *Value) expect(k schema.Kind, op string) error {
	if v.kind != k {
		return errors.Internal(errors.PhaseBuild, "%s on %s value", op, v.kind)
	}
	return nil
}

// Native converts v to a verbose Go tree: records and maps become
// map[string]any, unions become a single entry map keyed by branch name
// (nil for the null branch) and enums become their symbol.
func (v *Value) Native() any {
	switch v.kind {
	case schema.KindNull:
		return nil
	case schema.KindBoolean:
		return v.flag
	case schema.KindInt, schema.KindLong:
		return v.num
	case schema.KindFloat:
		return float32(v.flt)
	case schema.KindDouble:
		return v.flt
	case schema.KindBytes, schema.KindFixed:
		return v.raw
	case schema.KindString:
		return v.str
	case schema.KindEnum:
		_, sym := v.Enum()
		return sym
	case schema.KindArray:
		out := make([]any, len(v.items))
		for i, item := range v.items {
			out[i] = item.Native()
		}
		return out
	case schema.KindMap:
		out := make(map[string]any, len(v.items))
		for i, item := range v.items {
			out[v.keys[i]] = item.Native()
		}
		return out
	case schema.KindRecord:
		fields := v.schema.(*avro.RecordSchema).Fields()
		out := make(map[string]any, len(fields))
		for i, f := range fields {
			if v.items[i] != nil {
				out[f.Name()] = v.items[i].Native()
			}
		}
		return out
	case schema.KindUnion:
		idx, branch := v.Branch()
		if branch == nil || branch.kind == schema.KindNull {
			return nil
		}
		return map[string]any{schema.BranchName(v.schema.(*avro.UnionSchema), idx): branch.Native()}
	}
	return nil
}
