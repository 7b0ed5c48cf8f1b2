package document

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/wippyai/avro-xform/errors"
	"github.com/wippyai/avro-xform/value"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{"json", FormatJSON},
		{"YAML", FormatYAML},
		{"yml", FormatYAML},
		{"cbor", FormatCBOR},
		{"msgpack", FormatMsgpack},
		{"mp", FormatMsgpack},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("ParseFormat(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}

	if _, err := ParseFormat("xml"); errors.KindOf(err) != errors.KindUnsupported {
		t.Errorf("ParseFormat(xml) err = %v, want unsupported", err)
	}
}

func TestDecodeJSONKeepsIntegers(t *testing.T) {
	v, err := Decode(FormatJSON, []byte(`{"id": 9007199254740993, "tags": ["a"]}`))
	if err != nil {
		t.Fatal(err)
	}
	m := v.(map[string]any)
	if _, ok := m["id"].(json.Number); !ok {
		t.Fatalf("id decoded as %T, want json.Number", m["id"])
	}
	if n, ok := value.AsInt64(m["id"]); !ok || n != 9007199254740993 {
		t.Errorf("id = %v, want 9007199254740993", m["id"])
	}
}

func TestDecodeJSONTrailingData(t *testing.T) {
	_, err := Decode(FormatJSON, []byte(`{} {}`))
	if errors.KindOf(err) != errors.KindInvalidData {
		t.Errorf("err = %v, want invalid_data", err)
	}
}

func TestDecodeYAMLIntegerKeys(t *testing.T) {
	v, err := Decode(FormatYAML, []byte("a: 1\nb:\n  1: x\n  2: y\n"))
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]any{
		"a": 1,
		"b": map[string]any{"1": "x", "2": "y"},
	}
	if diff := cmp.Diff(want, v); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestRoundTrip(t *testing.T) {
	doc := map[string]any{
		"id":   int64(7),
		"tags": []any{"a", "b"},
		"u":    map[string]any{"string": "hi"},
	}
	for _, f := range []Format{FormatJSON, FormatYAML, FormatCBOR, FormatMsgpack} {
		t.Run(f.String(), func(t *testing.T) {
			data, err := Encode(f, doc)
			if err != nil {
				t.Fatal(err)
			}
			got, err := Decode(f, data)
			if err != nil {
				t.Fatal(err)
			}
			m, ok := got.(map[string]any)
			if !ok {
				t.Fatalf("decoded %T, want map[string]any", got)
			}
			if n, ok := value.AsInt64(m["id"]); !ok || n != 7 {
				t.Errorf("id = %#v", m["id"])
			}
			if diff := cmp.Diff([]any{"a", "b"}, m["tags"]); diff != "" {
				t.Errorf("tags mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(map[string]any{"string": "hi"}, m["u"]); diff != "" {
				t.Errorf("u mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNormalizeRejectsCompositeKeys(t *testing.T) {
	_, err := Normalize(map[any]any{true: 1})
	if errors.KindOf(err) != errors.KindTypeMismatch {
		t.Errorf("err = %v, want type_mismatch", err)
	}
}
