package transcoder

import (
	"sync"

	"github.com/hamba/avro/v2"
	"go.uber.org/zap"

	"github.com/wippyai/avro-xform/errors"
	"github.com/wippyai/avro-xform/schema"
	"github.com/wippyai/avro-xform/transcoder/internal/layout"
)

// Schema is an Avro schema together with the flattening geometry of
// every record reachable from it. It is immutable and safe for
// concurrent use.
type Schema struct {
	avro    avro.Schema
	layouts map[*avro.RecordSchema]*layout.Info
}

var compiled sync.Map // avro.Schema -> *Schema

// Parse parses an Avro schema document and compiles it.
func Parse(text string) (*Schema, error) {
	s, err := avro.Parse(text)
	if err != nil {
		return nil, errors.ParseFailed("schema", err)
	}
	return Compile(s)
}

// MustParse is like Parse but panics on error.
func MustParse(text string) *Schema {
	s, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return s
}

// Compile annotates s. Results are cached by schema identity; racing
// callers may both compute, one result is kept.
func Compile(s avro.Schema) (*Schema, error) {
	if s == nil {
		return nil, errors.Internal(errors.PhaseCompile, "nil schema")
	}
	if cached, ok := compiled.Load(s); ok {
		return cached.(*Schema), nil
	}

	calc := layout.NewCalculator()
	if err := calc.Annotate(s); err != nil {
		return nil, err
	}
	sc := &Schema{avro: s, layouts: calc.Table()}

	actual, loaded := compiled.LoadOrStore(s, sc)
	if !loaded {
		fields := []zap.Field{
			zap.String("schema", schema.TypeName(s)),
			zap.Int("records", len(sc.layouts)),
		}
		if r, ok := s.(*avro.RecordSchema); ok {
			fields = append(fields, zap.Int("full_size", sc.layouts[r].FullSize))
		}
		Logger().Debug("schema compiled", fields...)
	}
	return actual.(*Schema), nil
}

// Avro returns the underlying schema.
func (s *Schema) Avro() avro.Schema { return s.avro }

func (s *Schema) String() string { return schema.TypeName(s.avro) }

// Layout returns the geometry of r. A record the schema never reached
// is a programming error.
func (s *Schema) Layout(r *avro.RecordSchema) (*layout.Info, error) {
	info, ok := s.layouts[r]
	if !ok {
		return nil, errors.Internal(errors.PhaseCompile, "record %s was not annotated", r.FullName())
	}
	return info, nil
}

func (s *Schema) root(what string) (*avro.RecordSchema, error) {
	r, ok := s.avro.(*avro.RecordSchema)
	if !ok {
		return nil, errors.New(errors.PhaseCompile, errors.KindTypeMismatch).
			Input(s.String()).
			Schema("record").
			Detail("%s needs a record root", what).
			Build()
	}
	return r, nil
}

// FlatSize returns the number of flattened positions of a record root.
func (s *Schema) FlatSize() (int, error) {
	r, err := s.root("flat size")
	if err != nil {
		return 0, err
	}
	info, err := s.Layout(r)
	if err != nil {
		return 0, err
	}
	return info.FullSize, nil
}

// FlatNames returns one dotted field path per flattened position of a
// record root. A union contributes "path.$type$" for its discriminant
// followed by "path" for its payload.
func (s *Schema) FlatNames() ([]string, error) {
	r, err := s.root("flat names")
	if err != nil {
		return nil, err
	}
	var out []string
	flatWalk(r, "", func(path string, k schema.Kind, _ avro.Schema) {
		if k == schema.KindUnion {
			out = append(out, path+".$type$", path)
			return
		}
		out = append(out, path)
	})
	return out, nil
}

// FlatTypes returns the type name of every flattened position, parallel
// to FlatNames. Union discriminants are "int", union payloads "union".
func (s *Schema) FlatTypes() ([]string, error) {
	r, err := s.root("flat types")
	if err != nil {
		return nil, err
	}
	var out []string
	flatWalk(r, "", func(_ string, k schema.Kind, t avro.Schema) {
		if k == schema.KindUnion {
			out = append(out, "int", "union")
			return
		}
		out = append(out, schema.TypeName(t))
	})
	return out, nil
}

// flatWalk visits the leaves of r in flattened order. Compile has
// already rejected records that embed themselves.
func flatWalk(r *avro.RecordSchema, prefix string, leaf func(path string, k schema.Kind, t avro.Schema)) {
	for _, f := range r.Fields() {
		path := prefix + f.Name()
		t := schema.Deref(f.Type())
		k := schema.KindOf(t)
		if k == schema.KindRecord {
			flatWalk(t.(*avro.RecordSchema), path+".", leaf)
			continue
		}
		leaf(path, k, t)
	}
}
