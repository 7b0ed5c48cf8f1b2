package tree

import (
	stderrors "errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	avroxform "github.com/wippyai/avro-xform"
	"github.com/wippyai/avro-xform/errors"
)

func TestParserPrimitives(t *testing.T) {
	tests := []struct {
		name    string
		in      any
		consume func(p *Parser) (any, error)
		want    any
		kind    errors.Kind
	}{
		{"null", nil, func(p *Parser) (any, error) { return nil, p.ConsumeNull() }, nil, ""},
		{"null mismatch", 1, func(p *Parser) (any, error) { return nil, p.ConsumeNull() }, nil, errors.KindTypeMismatch},
		{"boolean", true, func(p *Parser) (any, error) { return p.ConsumeBoolean() }, true, ""},
		{"int from float64", float64(12), func(p *Parser) (any, error) { return p.ConsumeInt() }, int32(12), ""},
		{"int overflow", int64(1 << 40), func(p *Parser) (any, error) { return p.ConsumeInt() }, nil, errors.KindTypeMismatch},
		{"long from uint8", uint8(7), func(p *Parser) (any, error) { return p.ConsumeLong() }, int64(7), ""},
		{"long from string", "7", func(p *Parser) (any, error) { return p.ConsumeLong() }, nil, errors.KindTypeMismatch},
		{"double from int", 3, func(p *Parser) (any, error) { return p.ConsumeDouble() }, float64(3), ""},
		{"bytes from string", "ab", func(p *Parser) (any, error) { return p.ConsumeBytes() }, []byte("ab"), ""},
		{"string from bytes", []byte("ab"), func(p *Parser) (any, error) { return p.ConsumeString() }, "ab", ""},
		{"fixed size", []byte("abc"), func(p *Parser) (any, error) { return p.ConsumeFixed(2) }, nil, errors.KindTypeMismatch},
		{"enum name", "RED", func(p *Parser) (any, error) { return p.ConsumeEnum() }, avroxform.NameTag("RED"), ""},
		{"enum index", 2, func(p *Parser) (any, error) { return p.ConsumeEnum() }, avroxform.IndexTag(2), ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.consume(NewParser(tc.in, 0))
			if tc.kind != "" {
				if errors.KindOf(err) != tc.kind {
					t.Fatalf("err = %v, want %s", err, tc.kind)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParserConsumeTwice(t *testing.T) {
	p := NewParser(int64(1), 0)
	if _, err := p.ConsumeLong(); err != nil {
		t.Fatal(err)
	}
	if _, err := p.ConsumeLong(); !errors.IsInternal(err) {
		t.Errorf("second consume: err = %v, want internal", err)
	}
}

func TestParserStructures(t *testing.T) {
	p := NewParser(map[string]any{
		"b": []any{int64(1), int64(2)},
		"a": map[string]string{"k": "v"},
	}, 0)

	rec, err := p.VerboseRecord()
	if err != nil {
		t.Fatal(err)
	}
	var order []string
	for {
		ok, err := rec.Next()
		if err != nil {
			t.Fatal(err)
		}
		if !ok {
			break
		}
		order = append(order, rec.Tag().Name)
		switch rec.Tag().Name {
		case "a":
			m, err := rec.Map()
			if err != nil {
				t.Fatal(err)
			}
			if ok, _ := m.Next(); !ok || m.Key() != "k" {
				t.Fatalf("map entry missing")
			}
			if s, _ := m.ConsumeString(); s != "v" {
				t.Errorf("map value = %q", s)
			}
			if err := m.Close(); err != nil {
				t.Fatal(err)
			}
		case "b":
			it, err := rec.Array()
			if err != nil {
				t.Fatal(err)
			}
			var sum int64
			for {
				ok, _ := it.Next()
				if !ok {
					break
				}
				n, _ := it.ConsumeLong()
				sum += n
			}
			_ = it.Close()
			if sum != 3 {
				t.Errorf("sum = %d, want 3", sum)
			}
		}
	}
	if err := rec.Close(); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"a", "b"}, order); diff != "" {
		t.Errorf("field order (-want +got):\n%s", diff)
	}
}

func TestParserUnionForms(t *testing.T) {
	tests := []struct {
		name string
		in   any
		tag  avroxform.Tag
	}{
		{"single entry map", map[string]any{"string": "hi"}, avroxform.NameTag("string")},
		{"nil is null", nil, avroxform.NameTag("null")},
		{"pair by name", []any{"long", int64(1)}, avroxform.NameTag("long")},
		{"pair by index", []any{1, "hi"}, avroxform.IndexTag(1)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			u, err := NewParser(tc.in, 0).Union()
			if err != nil {
				t.Fatal(err)
			}
			if u.Tag() != tc.tag {
				t.Errorf("tag = %v, want %v", u.Tag(), tc.tag)
			}
			if err := u.ConsumeAny(); err != nil {
				t.Fatal(err)
			}
			if err := u.Close(); err != nil {
				t.Fatal(err)
			}
		})
	}

	if _, err := NewParser(map[string]any{"a": 1, "b": 2}, 0).Union(); errors.KindOf(err) != errors.KindTypeMismatch {
		t.Errorf("two entry map: err = %v", err)
	}
}

func TestParserCircularReference(t *testing.T) {
	self := map[string]any{}
	self["me"] = self

	rec, err := NewParser(self, 0).VerboseRecord()
	if err != nil {
		t.Fatal(err)
	}
	if ok, _ := rec.Next(); !ok {
		t.Fatal("expected an entry")
	}
	_, err = rec.VerboseRecord()
	if !stderrors.Is(err, errors.KindOnly(errors.KindCircularRef)) {
		t.Fatalf("err = %v, want circular_ref", err)
	}

	list := make([]any, 1)
	list[0] = list
	it, err := NewParser(list, 0).Array()
	if err != nil {
		t.Fatal(err)
	}
	_, _ = it.Next()
	if _, err := it.Array(); errors.KindOf(err) != errors.KindCircularRef {
		t.Fatalf("slice cycle: err = %v, want circular_ref", err)
	}
}

// A container seen twice, but not nested in itself, is not a cycle.
func TestParserSharedContainer(t *testing.T) {
	shared := []any{int64(1)}
	p := NewParser([]any{shared, shared}, 0)
	outer, _ := p.Array()
	for i := 0; i < 2; i++ {
		if ok, _ := outer.Next(); !ok {
			t.Fatal("missing item")
		}
		inner, err := outer.Array()
		if err != nil {
			t.Fatalf("item %d: %v", i, err)
		}
		_, _ = inner.Next()
		_, _ = inner.ConsumeLong()
		_ = inner.Close()
	}
	_ = outer.Close()
}

func TestParserDepthGuard(t *testing.T) {
	var v any = int64(0)
	for i := 0; i < 10; i++ {
		v = []any{v}
	}

	p := NewParser(v, 4)
	var it avroxform.Iterator
	var err error
	cur := avroxform.Parser(p)
	for i := 0; i < 10; i++ {
		it, err = cur.Array()
		if err != nil {
			break
		}
		_, _ = it.Next()
		cur = it
	}
	if errors.KindOf(err) != errors.KindStackOverflow {
		t.Fatalf("err = %v, want stack_overflow", err)
	}
}

func TestEmitter(t *testing.T) {
	e := NewEmitter()
	rec := e.VerboseRecord(3)

	rec.BeginItem("id")
	rec.EmitLong(7)
	rec.EndItem()

	rec.BeginItem("tags")
	arr := rec.Array(2)
	for _, s := range []string{"a", "b"} {
		arr.BeginItem()
		arr.EmitString(s)
		arr.EndItem()
	}
	if err := arr.Close(); err != nil {
		t.Fatal(err)
	}
	rec.EndItem()

	rec.BeginItem("u")
	u := rec.Union(1, "string")
	u.EmitString("hi")
	if err := u.Close(); err != nil {
		t.Fatal(err)
	}
	rec.EndItem()

	rec.BeginItem("n")
	n := rec.Union(0, "null")
	n.EmitNull()
	_ = n.Close()
	rec.EndItem()

	if err := rec.Close(); err != nil {
		t.Fatal(err)
	}

	got, err := e.Result()
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]any{
		"id":   int64(7),
		"tags": []any{"a", "b"},
		"u":    map[string]any{"string": "hi"},
		"n":    nil,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("emitted tree mismatch (-want +got):\n%s", diff)
	}
}

func TestEmitterBracketing(t *testing.T) {
	e := NewEmitter()
	l := e.TerseRecord(1)
	l.BeginItem()
	l.EndItem()
	if err := l.Close(); !errors.IsInternal(err) {
		t.Errorf("empty item: err = %v, want internal", err)
	}

	if _, err := NewEmitter().Result(); !errors.IsInternal(err) {
		t.Errorf("empty root: err = %v, want internal", err)
	}
}
