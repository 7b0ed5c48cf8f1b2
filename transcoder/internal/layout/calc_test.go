package layout

import (
	stderrors "errors"
	"strings"
	"testing"

	"github.com/hamba/avro/v2"
	"github.com/wippyai/avro-xform/errors"
	"github.com/wippyai/avro-xform/schema"
)

func annotate(t *testing.T, text string) (*Calculator, *avro.RecordSchema) {
	t.Helper()
	s := avro.MustParse(text)
	c := NewCalculator()
	if err := c.Annotate(s); err != nil {
		t.Fatalf("Annotate: %v", err)
	}
	rec, _ := schema.Record(s)
	return c, rec
}

func TestAnnotateRecord(t *testing.T) {
	tests := []struct {
		name       string
		schema     string
		items      []int
		bitmaps    []int
		size, bits int
	}{
		{
			name:    "empty",
			schema:  `{"type": "record", "name": "E", "fields": []}`,
			items:   []int{},
			bitmaps: []int{},
		},
		{
			name: "flat",
			schema: `{"type": "record", "name": "F", "fields": [
				{"name": "id", "type": "long"},
				{"name": "tags", "type": {"type": "array", "items": "string"}}
			]}`,
			items:   []int{0, 1},
			bitmaps: []int{2, 2},
			size:    2,
			bits:    2,
		},
		{
			name: "nested",
			schema: `{"type": "record", "name": "N", "fields": [
				{"name": "a", "type": "long"},
				{"name": "b", "type": {"type": "record", "name": "B", "fields": [
					{"name": "x", "type": "long"},
					{"name": "y", "type": "long"}
				]}}
			]}`,
			items:   []int{0, 1},
			bitmaps: []int{2, 2},
			size:    3,
			bits:    4,
		},
		{
			name: "union and nested",
			schema: `{"type": "record", "name": "U", "fields": [
				{"name": "u", "type": ["long", "string"]},
				{"name": "p", "type": {"type": "record", "name": "P", "fields": [
					{"name": "q", "type": ["null", "long"]},
					{"name": "r", "type": "string"}
				]}},
				{"name": "m", "type": {"type": "map", "values": "long"}},
				{"name": "p2", "type": "P"},
				{"name": "e", "type": {"type": "enum", "name": "En", "symbols": ["A"]}}
			]}`,
			items:   []int{0, 2, 5, 6, 9},
			bitmaps: []int{5, 5, 7, 7, 9},
			size:    10,
			bits:    9,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c, rec := annotate(t, tc.schema)
			info, ok := c.Lookup(rec)
			if !ok {
				t.Fatal("root record not annotated")
			}
			if len(info.ItemOffsets) != len(tc.items) {
				t.Fatalf("ItemOffsets = %v, want %v", info.ItemOffsets, tc.items)
			}
			for i := range tc.items {
				if info.ItemOffsets[i] != tc.items[i] {
					t.Errorf("ItemOffsets = %v, want %v", info.ItemOffsets, tc.items)
					break
				}
			}
			for i := range tc.bitmaps {
				if info.BitmapOffsets[i] != tc.bitmaps[i] {
					t.Errorf("BitmapOffsets = %v, want %v", info.BitmapOffsets, tc.bitmaps)
					break
				}
			}
			if info.FullSize != tc.size {
				t.Errorf("FullSize = %d, want %d", info.FullSize, tc.size)
			}
			if info.FullBitmapSize != tc.bits {
				t.Errorf("FullBitmapSize = %d, want %d", info.FullBitmapSize, tc.bits)
			}
		})
	}
}

// Every record's FullSize is the sum of its fields' contributions.
func TestAnnotateConsistency(t *testing.T) {
	c, _ := annotate(t, `{"type": "record", "name": "Root", "fields": [
		{"name": "list", "type": {"type": "array", "items": {"type": "record", "name": "Item", "fields": [
			{"name": "v", "type": ["null", "double"]},
			{"name": "w", "type": {"type": "record", "name": "W", "fields": [{"name": "z", "type": "bytes"}]}}
		]}}},
		{"name": "byKey", "type": {"type": "map", "values": "Item"}},
		{"name": "opt", "type": ["null", {"type": "record", "name": "Opt", "fields": [{"name": "o", "type": "int"}]}]}
	]}`)

	for rec, info := range c.Table() {
		want := 0
		for i, f := range rec.Fields() {
			if info.ItemOffsets[i] != want {
				t.Errorf("%s.%s offset = %d, want %d", rec.FullName(), f.Name(), info.ItemOffsets[i], want)
			}
			switch ft := schema.Deref(f.Type()); schema.KindOf(ft) {
			case schema.KindRecord:
				child, ok := c.Lookup(ft.(*avro.RecordSchema))
				if !ok {
					t.Fatalf("%s not annotated", schema.TypeName(ft))
				}
				want += child.FullSize
			case schema.KindUnion:
				want += 2
			default:
				want++
			}
		}
		if info.FullSize != want {
			t.Errorf("%s FullSize = %d, want %d", rec.FullName(), info.FullSize, want)
		}
	}

	for _, name := range []string{"Root", "Item", "W", "Opt"} {
		found := false
		for rec := range c.Table() {
			if rec.FullName() == name {
				found = true
			}
		}
		if !found {
			t.Errorf("record %s reachable through array/map/union was not annotated", name)
		}
	}
}

func TestAnnotateRecursive(t *testing.T) {
	c, rec := annotate(t, `{"type": "record", "name": "List", "fields": [
		{"name": "head", "type": "long"},
		{"name": "tail", "type": ["null", "List"]}
	]}`)
	info, _ := c.Lookup(rec)
	if info.FullSize != 3 {
		t.Errorf("FullSize = %d, want 3", info.FullSize)
	}
}

func TestAnnotateSelfEmbedding(t *testing.T) {
	s := avro.MustParse(`{"type": "record", "name": "Loop", "fields": [
		{"name": "self", "type": "Loop"}
	]}`)
	err := NewCalculator().Annotate(s)
	if errors.KindOf(err) != errors.KindUnsupported {
		t.Fatalf("err = %v, want unsupported", err)
	}
}

func TestAnnotateErrorPath(t *testing.T) {
	s := avro.MustParse(`{"type": "record", "name": "Outer", "fields": [
		{"name": "a", "type": {"type": "record", "name": "Middle", "fields": [
			{"name": "b", "type": "Middle"}
		]}}
	]}`)
	err := NewCalculator().Annotate(s)
	var e *errors.Error
	if !stderrors.As(err, &e) {
		t.Fatalf("err = %v, want *errors.Error", err)
	}
	if got := strings.Join(e.Path, "."); got != "a.b" {
		t.Errorf("path = %q, want a.b", got)
	}
}

func TestAnnotateIdempotent(t *testing.T) {
	s := avro.MustParse(`{"type": "record", "name": "R", "fields": [{"name": "a", "type": "long"}]}`)
	c := NewCalculator()
	if err := c.Annotate(s); err != nil {
		t.Fatal(err)
	}
	rec, _ := schema.Record(s)
	first, _ := c.Lookup(rec)
	if err := c.Annotate(s); err != nil {
		t.Fatal(err)
	}
	second, _ := c.Lookup(rec)
	if first != second {
		t.Error("second Annotate recomputed the annotation")
	}
}
