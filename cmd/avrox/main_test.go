package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/wippyai/avro-xform/transcoder"
)

const testSchema = `{
	"type": "record", "name": "Point",
	"fields": [
		{"name": "x", "type": "long"},
		{"name": "label", "type": ["null", "string"]}
	]
}`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func runToString(t *testing.T, cfg config) string {
	t.Helper()
	out, err := os.CreateTemp(t.TempDir(), "out")
	if err != nil {
		t.Fatal(err)
	}
	defer out.Close()
	if err := run(cfg, out); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(out.Name())
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	schema := writeFile(t, dir, "point.avsc", testSchema)

	tests := []struct {
		name string
		op   string
		in   string
		to   string
		want string
	}{
		{"flatten", "flatten", `{"x": 3, "label": {"string": "p"}}`, "", "[\n  3,\n  1,\n  \"p\"\n]\n"},
		{"unflatten", "unflatten", `[3, 0, null]`, "", "{\n  \"label\": null,\n  \"x\": 3\n}\n"},
		{"xflatten", "xflatten", `{"x": 4}`, "", "[\n  [\n    \"=\",\n    0,\n    4\n  ]\n]\n"},
		{"yaml output", "flatten", `{"x": 3, "label": null}`, "yaml", "- 3\n- 0\n- null\n"},
		{"names", "names", "", "", "0\tx\n1\tlabel.$type$\n2\tlabel\n"},
		{"types", "types", "", "", "0\tlong\n1\tint\n2\tunion\n"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config{
				schemaFile: schema,
				op:         tc.op,
				inFile:     writeFile(t, t.TempDir(), "in.json", tc.in),
				from:       "json",
				to:         tc.to,
				opts:       transcoder.DefaultOptions(),
			}
			if diff := cmp.Diff(tc.want, runToString(t, cfg)); diff != "" {
				t.Errorf("output mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRunCompat(t *testing.T) {
	dir := t.TempDir()
	cfg := config{
		schemaFile: writeFile(t, dir, "v1.avsc", testSchema),
		destFile:   writeFile(t, dir, "v2.avsc", `{"type": "record", "name": "Point", "fields": [{"name": "x", "type": "double"}]}`),
		op:         "compat",
		opts:       transcoder.DefaultOptions(),
	}
	if got := runToString(t, cfg); got != "Point can be read as Point\n" {
		t.Errorf("got %q", got)
	}
}

func TestDescribeOptions(t *testing.T) {
	if got := describeOptions(transcoder.DefaultOptions()); got != "defaults" {
		t.Errorf("defaults: got %q", got)
	}
	o := transcoder.DefaultOptions()
	o.CollapseNested = false
	o.PositionBase = 1
	if got := describeOptions(o); got != "collapse=false base=1" {
		t.Errorf("got %q", got)
	}
}
