package schema

import (
	"testing"

	"github.com/hamba/avro/v2"
)

const nodeSchema = `{
	"type": "record", "name": "Node", "namespace": "test",
	"fields": [
		{"name": "id", "type": "long", "aliases": ["ident"]},
		{"name": "color", "type": {"type": "enum", "name": "Color", "symbols": ["RED", "GREEN"]}},
		{"name": "next", "type": ["null", "Node"]},
		{"name": "payload", "type": ["string", {"type": "fixed", "name": "Hash", "size": 4}]}
	]
}`

func TestKindString(t *testing.T) {
	tests := []struct {
		want string
		kind Kind
	}{
		{"null", KindNull},
		{"boolean", KindBoolean},
		{"long", KindLong},
		{"record", KindRecord},
		{"union", KindUnion},
		{"link", KindLink},
		{"unknown", Kind(200)},
	}

	for _, tc := range tests {
		t.Run(tc.want, func(t *testing.T) {
			if got := tc.kind.String(); got != tc.want {
				t.Errorf("String() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestKindFlatCount(t *testing.T) {
	if KindUnion.FlatCount() != 2 {
		t.Errorf("union FlatCount = %d, want 2", KindUnion.FlatCount())
	}
	for _, k := range []Kind{KindLong, KindString, KindArray, KindMap, KindEnum} {
		if k.FlatCount() != 1 {
			t.Errorf("%s FlatCount = %d, want 1", k, k.FlatCount())
		}
	}
	if !KindEnum.IsPrimitive() || KindArray.IsPrimitive() {
		t.Error("IsPrimitive classification wrong")
	}
}

func TestKindOfAndDeref(t *testing.T) {
	s := avro.MustParse(nodeSchema)
	rec, ok := Record(s)
	if !ok {
		t.Fatal("root is not a record")
	}

	fields := rec.Fields()
	if KindOf(fields[0].Type()) != KindLong {
		t.Errorf("id kind = %s", KindOf(fields[0].Type()))
	}
	if KindOf(fields[1].Type()) != KindEnum {
		t.Errorf("color kind = %s", KindOf(fields[1].Type()))
	}

	u := fields[2].Type().(*avro.UnionSchema)
	link := u.Types()[1]
	if KindOf(link) != KindLink {
		t.Fatalf("self reference kind = %s, want link", KindOf(link))
	}
	if KindOfDeref(link) != KindRecord {
		t.Errorf("deref kind = %s, want record", KindOfDeref(link))
	}
	if Deref(link) != avro.Schema(rec) {
		t.Error("link does not resolve to the enclosing record")
	}
}

func TestLookups(t *testing.T) {
	rec, _ := Record(avro.MustParse(nodeSchema))
	fields := rec.Fields()

	tests := []struct {
		name  string
		look  func() (int, bool)
		want  int
		found bool
	}{
		{"field by name", func() (int, bool) { return FieldIndex(rec, "next") }, 2, true},
		{"field by alias", func() (int, bool) { return FieldIndex(rec, "ident") }, 0, true},
		{"field missing", func() (int, bool) { return FieldIndex(rec, "nope") }, 0, false},
		{"symbol", func() (int, bool) { return SymbolIndex(fields[1].Type().(*avro.EnumSchema), "GREEN") }, 1, true},
		{"symbol missing", func() (int, bool) { return SymbolIndex(fields[1].Type().(*avro.EnumSchema), "BLUE") }, 0, false},
		{"branch primitive", func() (int, bool) { return BranchIndex(fields[2].Type().(*avro.UnionSchema), "null") }, 0, true},
		{"branch full name", func() (int, bool) { return BranchIndex(fields[2].Type().(*avro.UnionSchema), "test.Node") }, 1, true},
		{"branch short name", func() (int, bool) { return BranchIndex(fields[3].Type().(*avro.UnionSchema), "Hash") }, 1, true},
		{"branch missing", func() (int, bool) { return BranchIndex(fields[3].Type().(*avro.UnionSchema), "long") }, 0, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := tc.look()
			if ok != tc.found {
				t.Fatalf("found = %v, want %v", ok, tc.found)
			}
			if ok && got != tc.want {
				t.Errorf("index = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestTypeName(t *testing.T) {
	rec, _ := Record(avro.MustParse(nodeSchema))
	u := rec.Fields()[3].Type().(*avro.UnionSchema)
	if got := BranchName(u, 0); got != "string" {
		t.Errorf("BranchName(0) = %q", got)
	}
	if got := BranchName(u, 1); got != "test.Hash" {
		t.Errorf("BranchName(1) = %q", got)
	}
	if got := TypeName(rec); got != "test.Node" {
		t.Errorf("TypeName = %q", got)
	}
}
