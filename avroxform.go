package avroxform

import "strconv"

// Tag names a record field, union branch or enum symbol, either by name
// or, for positional encodings, by index.
type Tag struct {
	Name    string
	Index   int
	IsIndex bool
}

// NameTag returns a Tag carrying a name.
func NameTag(name string) Tag { return Tag{Name: name} }

// IndexTag returns a Tag carrying a resolved index.
func IndexTag(i int) Tag { return Tag{Index: i, IsIndex: true} }

func (t Tag) String() string {
	if t.IsIndex {
		return strconv.Itoa(t.Index)
	}
	return t.Name
}

// Parser is a pull cursor over one value of a source encoding.
// Each Consume call takes exactly one value and fails with a
// type_mismatch error when the input has another shape.
type Parser interface {
	ConsumeNull() error
	ConsumeBoolean() (bool, error)
	ConsumeInt() (int32, error)
	ConsumeLong() (int64, error)
	ConsumeFloat() (float32, error)
	ConsumeDouble() (float64, error)
	ConsumeBytes() ([]byte, error)
	ConsumeFixed(size int) ([]byte, error)
	ConsumeString() (string, error)
	// ConsumeEnum returns a symbol name, or an index when the encoding
	// carries enums as integers.
	ConsumeEnum() (Tag, error)
	// ConsumeAny skips one value of unknown shape.
	ConsumeAny() error

	Array() (Iterator, error)
	Map() (MapIterator, error)
	Union() (UnionReader, error)
	VerboseRecord() (FieldIterator, error)
	TerseRecord() (Iterator, error)
}

// Iterator walks array items or terse record fields. After Next reports
// true the embedded Parser is positioned on the item. Close must be
// called before the parent cursor is used again.
type Iterator interface {
	Parser
	Next() (bool, error)
	Close() error
}

// MapIterator walks map entries; Key is the key of the current entry.
type MapIterator interface {
	Iterator
	Key() string
}

// FieldIterator walks verbose record fields in input order; Tag names
// the current field.
type FieldIterator interface {
	Iterator
	Tag() Tag
}

// UnionReader is positioned on a union payload; Tag names the branch.
type UnionReader interface {
	Parser
	Tag() Tag
	Close() error
}

// Emitter is a push builder for one value of a destination encoding.
// Structural builders must be closed in the order they were opened.
type Emitter interface {
	EmitNull()
	EmitBoolean(v bool)
	EmitInt(v int32)
	EmitLong(v int64)
	EmitFloat(v float32)
	EmitDouble(v float64)
	EmitBytes(v []byte)
	EmitFixed(v []byte)
	EmitString(v string)
	EmitEnum(index int, symbol string)

	Array(countHint int) ListEmitter
	Map(countHint int) MapEmitter
	Union(index int, name string) UnionEmitter
	VerboseRecord(countHint int) MapEmitter
	TerseRecord(countHint int) ListEmitter
}

// ListEmitter builds an array or terse record. Each item is bracketed
// by BeginItem and EndItem; Close commits the list to its parent.
type ListEmitter interface {
	Emitter
	BeginItem()
	EndItem()
	Close() error
}

// MapEmitter builds a map or verbose record keyed by entry key or field name.
type MapEmitter interface {
	Emitter
	BeginItem(key string)
	EndItem()
	Close() error
}

// UnionEmitter receives exactly one payload value.
type UnionEmitter interface {
	Emitter
	Close() error
}
