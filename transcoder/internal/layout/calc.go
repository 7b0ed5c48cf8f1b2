package layout

import (
	"github.com/hamba/avro/v2"
	"github.com/wippyai/avro-xform/errors"
	"github.com/wippyai/avro-xform/schema"
)

// Info is the flattening geometry of one record.
type Info struct {
	// ItemOffsets[i] is the first flattened slot of field i.
	ItemOffsets []int
	// BitmapOffsets[i] is where field i's nested presence bits start
	// within the record's own bitmap region.
	BitmapOffsets  []int
	FullSize       int
	FullBitmapSize int
}

// Calculator annotates every record reachable from a schema.
// It is not safe for concurrent use; the result of Table is.
type Calculator struct {
	cache  map[*avro.RecordSchema]*Info
	active map[*avro.RecordSchema]bool
}

func NewCalculator() *Calculator {
	return &Calculator{
		cache:  make(map[*avro.RecordSchema]*Info),
		active: make(map[*avro.RecordSchema]bool),
	}
}

// Annotate walks s, descending into record fields, array items, map
// values and union branches. Links are not followed: their target is
// annotated where it is defined.
func (c *Calculator) Annotate(s avro.Schema) error {
	switch t := s.(type) {
	case *avro.RecordSchema:
		_, err := c.record(t)
		return err
	case *avro.ArraySchema:
		return c.Annotate(t.Items())
	case *avro.MapSchema:
		return c.Annotate(t.Values())
	case *avro.UnionSchema:
		for _, b := range t.Types() {
			if err := c.Annotate(b); err != nil {
				return err
			}
		}
	}
	return nil
}

// Lookup returns the annotation of r.
func (c *Calculator) Lookup(r *avro.RecordSchema) (*Info, bool) {
	info, ok := c.cache[r]
	return info, ok
}

// Table returns the annotations computed so far. The Calculator must
// not be used afterwards.
func (c *Calculator) Table() map[*avro.RecordSchema]*Info {
	return c.cache
}

func (c *Calculator) record(r *avro.RecordSchema) (*Info, error) {
	if info, ok := c.cache[r]; ok {
		return info, nil
	}
	if c.active[r] {
		return nil, errors.New(errors.PhaseCompile, errors.KindUnsupported).
			Schema(r.FullName()).
			Detail("record contains itself without an array, map or union in between").
			Build()
	}
	c.active[r] = true
	defer delete(c.active, r)

	fields := r.Fields()
	for _, f := range fields {
		if err := c.Annotate(f.Type()); err != nil {
			return nil, errors.PrependPath(err, f.Name())
		}
	}

	n := len(fields)
	info := &Info{
		ItemOffsets:   make([]int, n),
		BitmapOffsets: make([]int, n),
	}
	slot, bit := 0, n
	for i, f := range fields {
		info.ItemOffsets[i] = slot
		info.BitmapOffsets[i] = bit

		ft := schema.Deref(f.Type())
		switch k := schema.KindOf(ft); k {
		case schema.KindRecord:
			child, err := c.record(ft.(*avro.RecordSchema))
			if err != nil {
				return nil, errors.PrependPath(err, f.Name())
			}
			slot += child.FullSize
			bit += child.FullBitmapSize
		default:
			slot += k.FlatCount()
		}
	}
	info.FullSize = slot
	info.FullBitmapSize = bit

	c.cache[r] = info
	return info, nil
}
