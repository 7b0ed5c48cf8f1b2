package schema

import "github.com/hamba/avro/v2"

// Kind is the logical type tag of a schema node.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindNull
	KindBoolean
	KindInt
	KindLong
	KindFloat
	KindDouble
	KindBytes
	KindString
	KindFixed
	KindEnum
	KindArray
	KindMap
	KindRecord
	KindUnion
	KindLink
)

var kindNames = [...]string{
	KindInvalid: "invalid",
	KindNull:    "null",
	KindBoolean: "boolean",
	KindInt:     "int",
	KindLong:    "long",
	KindFloat:   "float",
	KindDouble:  "double",
	KindBytes:   "bytes",
	KindString:  "string",
	KindFixed:   "fixed",
	KindEnum:    "enum",
	KindArray:   "array",
	KindMap:     "map",
	KindRecord:  "record",
	KindUnion:   "union",
	KindLink:    "link",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// IsPrimitive reports whether k occupies a single scalar slot.
func (k Kind) IsPrimitive() bool {
	return k >= KindNull && k <= KindEnum
}

// FlatCount is the slot count of a non-record node in a flattened record.
func (k Kind) FlatCount() int {
	if k == KindUnion {
		return 2
	}
	return 1
}

// KindOf returns the logical type tag of s without following links.
func KindOf(s avro.Schema) Kind {
	if s == nil {
		return KindInvalid
	}
	switch s.Type() {
	case avro.Null:
		return KindNull
	case avro.Boolean:
		return KindBoolean
	case avro.Int:
		return KindInt
	case avro.Long:
		return KindLong
	case avro.Float:
		return KindFloat
	case avro.Double:
		return KindDouble
	case avro.Bytes:
		return KindBytes
	case avro.String:
		return KindString
	case avro.Fixed:
		return KindFixed
	case avro.Enum:
		return KindEnum
	case avro.Array:
		return KindArray
	case avro.Map:
		return KindMap
	case avro.Record, avro.Error:
		return KindRecord
	case avro.Union:
		return KindUnion
	case avro.Ref:
		return KindLink
	default:
		return KindInvalid
	}
}
