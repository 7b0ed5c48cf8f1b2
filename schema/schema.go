package schema

import (
	"sync"

	"github.com/hamba/avro/v2"
)

// Deref follows link nodes until it reaches a defined schema.
func Deref(s avro.Schema) avro.Schema {
	for {
		ref, ok := s.(*avro.RefSchema)
		if !ok {
			return s
		}
		s = ref.Schema()
	}
}

// KindOfDeref returns the logical type tag of s after following links.
func KindOfDeref(s avro.Schema) Kind {
	return KindOf(Deref(s))
}

// Record returns the record schema behind s, following links.
func Record(s avro.Schema) (*avro.RecordSchema, bool) {
	r, ok := Deref(s).(*avro.RecordSchema)
	return r, ok
}

// TypeName names s the way union branches are named: the full name of a
// named type, else the primitive or container type name.
func TypeName(s avro.Schema) string {
	s = Deref(s)
	if n, ok := s.(avro.NamedSchema); ok {
		return n.FullName()
	}
	return string(s.Type())
}

// shortName strips the namespace from a full name.
func shortName(full string) string {
	for i := len(full) - 1; i >= 0; i-- {
		if full[i] == '.' {
			return full[i+1:]
		}
	}
	return full
}

// table is the name index of one record, union or enum node.
type table struct {
	names map[string]int
}

var tables sync.Map // avro.Schema -> *table

func lookupTable(s avro.Schema, build func() *table) *table {
	if cached, ok := tables.Load(s); ok {
		return cached.(*table)
	}
	actual, _ := tables.LoadOrStore(s, build())
	return actual.(*table)
}

func (t *table) add(name string, i int) {
	if _, exists := t.names[name]; !exists {
		t.names[name] = i
	}
}

// FieldIndex resolves a field name or alias of r to its declaration index.
func FieldIndex(r *avro.RecordSchema, name string) (int, bool) {
	t := lookupTable(r, func() *table {
		fields := r.Fields()
		t := &table{names: make(map[string]int, len(fields))}
		for i, f := range fields {
			t.add(f.Name(), i)
		}
		for i, f := range fields {
			for _, alias := range f.Aliases() {
				t.add(alias, i)
			}
		}
		return t
	})
	i, ok := t.names[name]
	return i, ok
}

// BranchIndex resolves a branch name of u to its index. Named branches
// match by full name or, when unambiguous, by short name.
func BranchIndex(u *avro.UnionSchema, name string) (int, bool) {
	t := lookupTable(u, func() *table {
		types := u.Types()
		t := &table{names: make(map[string]int, len(types))}
		for i, b := range types {
			t.add(TypeName(b), i)
		}
		short := make(map[string]int)
		for _, b := range types {
			if n, ok := Deref(b).(avro.NamedSchema); ok {
				short[shortName(n.FullName())]++
			}
		}
		for i, b := range types {
			if n, ok := Deref(b).(avro.NamedSchema); ok {
				if s := shortName(n.FullName()); short[s] == 1 {
					t.add(s, i)
				}
			}
		}
		return t
	})
	i, ok := t.names[name]
	return i, ok
}

// SymbolIndex resolves an enum symbol to its index.
func SymbolIndex(e *avro.EnumSchema, symbol string) (int, bool) {
	t := lookupTable(e, func() *table {
		symbols := e.Symbols()
		t := &table{names: make(map[string]int, len(symbols))}
		for i, s := range symbols {
			t.add(s, i)
		}
		return t
	})
	i, ok := t.names[symbol]
	return i, ok
}

// BranchName returns the name of branch i of u.
func BranchName(u *avro.UnionSchema, i int) string {
	return TypeName(u.Types()[i])
}
