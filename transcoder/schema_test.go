package transcoder

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/hamba/avro/v2"

	"github.com/wippyai/avro-xform/errors"
)

func TestFlatNames(t *testing.T) {
	s := MustParse(allSchema)

	names, err := s.FlatNames()
	if err != nil {
		t.Fatal(err)
	}
	wantNames := []string{
		"id", "name", "score", "ok", "kind",
		"u.$type$", "u",
		"n.$type$", "n",
		"b.x", "m", "arr",
	}
	if diff := cmp.Diff(wantNames, names); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}

	types, err := s.FlatTypes()
	if err != nil {
		t.Fatal(err)
	}
	wantTypes := []string{
		"long", "string", "double", "boolean", "Kind",
		"int", "union",
		"int", "union",
		"int", "map", "array",
	}
	if diff := cmp.Diff(wantTypes, types); diff != "" {
		t.Errorf("types mismatch (-want +got):\n%s", diff)
	}

	size, err := s.FlatSize()
	if err != nil {
		t.Fatal(err)
	}
	if size != len(wantNames) {
		t.Errorf("FlatSize = %d, want %d", size, len(wantNames))
	}
}

func TestFlatNamesNonRecord(t *testing.T) {
	s := MustParse(`{"type": "array", "items": "long"}`)
	if _, err := s.FlatNames(); errors.KindOf(err) != errors.KindTypeMismatch {
		t.Errorf("FlatNames: err = %v, want type_mismatch", err)
	}
	if _, err := s.FlatSize(); errors.KindOf(err) != errors.KindTypeMismatch {
		t.Errorf("FlatSize: err = %v, want type_mismatch", err)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		text string
		kind errors.Kind
	}{
		{"malformed", `{"type": "record"`, errors.KindInvalidData},
		{"self embedding", `{"type": "record", "name": "Self", "fields": [
			{"name": "s", "type": "Self"}
		]}`, errors.KindUnsupported},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Parse(tc.text); errors.KindOf(err) != tc.kind {
				t.Errorf("err = %v, want %s", err, tc.kind)
			}
		})
	}
}

func TestCompileCached(t *testing.T) {
	raw := avro.MustParse(nestedSchema)
	a, err := Compile(raw)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Compile(raw)
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Error("Compile returned distinct schemas for the same input")
	}
	if a.Avro() != raw {
		t.Error("Avro() does not return the compiled schema")
	}
	if a.String() != "Outer" {
		t.Errorf("String() = %q, want Outer", a.String())
	}
}

func TestLayoutUnknownRecord(t *testing.T) {
	s := MustParse(itemSchema)
	other := avro.MustParse(`{"type": "record", "name": "Other", "fields": []}`).(*avro.RecordSchema)
	if _, err := s.Layout(other); !errors.IsInternal(err) {
		t.Errorf("err = %v, want internal", err)
	}
}
