package transcoder

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/wippyai/avro-xform/codec/tree"
	"github.com/wippyai/avro-xform/errors"
	"github.com/wippyai/avro-xform/value"
)

func TestBuilderVisitorDirect(t *testing.T) {
	s := MustParse(nestedSchema)
	opts := DefaultOptions()

	v := value.New(s.Avro())
	b := NewBuilder(s, opts.with(RecordsTerse))
	defer b.Release()
	if err := b.Build(tree.NewParser([]any{int64(1), int64(2), int64(3), int64(0), int64(8)}, 0), v); err != nil {
		t.Fatal(err)
	}

	want := map[string]any{
		"a": int64(1),
		"b": map[string]any{"x": int64(2), "y": int64(3)},
		"u": map[string]any{"long": int64(8)},
	}
	if diff := cmp.Diff(want, v.Native()); diff != "" {
		t.Errorf("native mismatch (-want +got):\n%s", diff)
	}

	e := tree.NewEmitter()
	if err := NewVisitor(s, opts.with(RecordsVerbose)).Visit(v, e); err != nil {
		t.Fatal(err)
	}
	got, err := e.Result()
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("visit mismatch (-want +got):\n%s", diff)
	}
}

func TestBuilderReuse(t *testing.T) {
	s := MustParse(itemSchema)
	b := NewBuilder(s, DefaultOptions())
	defer b.Release()

	for i := 0; i < 3; i++ {
		v := value.New(s.Avro())
		in := map[string]any{"id": int64(i), "tags": []any{}}
		if err := b.Build(tree.NewParser(in, 0), v); err != nil {
			t.Fatalf("build %d: %v", i, err)
		}
		id, _ := v.Get("id")
		if id.Long() != int64(i) {
			t.Errorf("build %d: id = %d", i, id.Long())
		}
	}

	// A failed build must not leave bits claimed for the next one.
	bad := map[string]any{"id": "x", "tags": []any{}}
	if err := b.Build(tree.NewParser(bad, 0), value.New(s.Avro())); err == nil {
		t.Fatal("expected error")
	}
	if err := b.Build(tree.NewParser(map[string]any{"id": int64(9), "tags": []any{}}, 0), value.New(s.Avro())); err != nil {
		t.Fatalf("build after failure: %v", err)
	}
}

func TestBuildForUpdatePresence(t *testing.T) {
	s := MustParse(nestedSchema)
	b := NewBuilder(s, DefaultOptions())
	defer b.Release()

	v := value.New(s.Avro())
	in := map[string]any{"b": map[string]any{"y": int64(9)}, "u": nil}
	err := b.BuildForUpdate(tree.NewParser(in, 0), v)
	if errors.KindOf(err) != errors.KindNameUnknown {
		t.Fatalf("null branch on [long, string]: err = %v, want name_unknown", err)
	}

	v = value.New(s.Avro())
	in = map[string]any{"b": map[string]any{"y": int64(9)}}
	if err := b.BuildForUpdate(tree.NewParser(in, 0), v); err != nil {
		t.Fatal(err)
	}

	// Outer: a, b, u own bits 0-2; Inner's x, y sit at 3 and 4.
	p := b.Presence()
	var set []int
	for i := 0; i < 5; i++ {
		if p.Has(i) {
			set = append(set, i)
		}
	}
	if diff := cmp.Diff([]int{1, 4}, set); diff != "" {
		t.Errorf("presence mismatch (-want +got):\n%s", diff)
	}
	if v.Present(0) {
		t.Error("field a present after partial build")
	}
}

func TestVisitorDepthLimit(t *testing.T) {
	s := MustParse(listSchema)
	v := value.New(s.Avro())
	b := NewBuilder(s, DefaultOptions())
	defer b.Release()
	if err := b.Build(tree.NewParser(deepList(8), 0), v); err != nil {
		t.Fatal(err)
	}

	opts := DefaultOptions()
	opts.MaxDepth = 4
	err := NewVisitor(s, opts.with(RecordsTerse)).Visit(v, tree.NewEmitter())
	if errors.KindOf(err) != errors.KindStackOverflow {
		t.Errorf("err = %v, want stack_overflow", err)
	}
}

func TestBitmapPool(t *testing.T) {
	bm := getBitmap()
	if _, ok := bm.Claim(8); !ok {
		t.Fatal("claim failed")
	}
	bm.Set(3)
	putBitmap(bm)

	again := getBitmap()
	if again.Top() != 0 {
		t.Errorf("pooled bitmap top = %d, want 0", again.Top())
	}
	base, ok := again.Claim(8)
	if !ok || again.Any(base, base+8) {
		t.Error("claimed range not cleared")
	}
	putBitmap(again)
	putBitmap(nil)
}

func TestOptions(t *testing.T) {
	d := DefaultOptions()
	if !d.EnableFastSkip || !d.CollapseNested || !d.IntegerEnums || !d.IntegerUnionTags {
		t.Errorf("defaults = %+v", d)
	}
	if d.MaxDepth != DefaultMaxDepth {
		t.Errorf("MaxDepth = %d, want %d", d.MaxDepth, DefaultMaxDepth)
	}
	if (Options{}).maxDepth() != DefaultMaxDepth {
		t.Error("zero MaxDepth does not select the default")
	}
	if got := d.with(RecordsTerse); !got.terse() || d.terse() {
		t.Error("with does not copy")
	}
	if RecordsTerse.String() != "terse" || RecordsVerbose.String() != "verbose" {
		t.Error("record mode names")
	}
}
