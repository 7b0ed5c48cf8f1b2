package transcoder

import (
	"github.com/hamba/avro/v2"

	avroxform "github.com/wippyai/avro-xform"
	"github.com/wippyai/avro-xform/errors"
	"github.com/wippyai/avro-xform/schema"
	"github.com/wippyai/avro-xform/value"
)

// Visitor drives an emitter from a value tree. Record layout and enum
// and union coding follow its Options. A Visitor is not safe for
// concurrent use.
type Visitor struct {
	schema *Schema
	opts   Options
	depth  int
}

// NewVisitor creates a visitor for values of s.
func NewVisitor(s *Schema, opts Options) *Visitor {
	return &Visitor{schema: s, opts: opts}
}

// Visit emits val to e.
func (v *Visitor) Visit(val *value.Value, e avroxform.Emitter) error {
	v.depth = 0
	return v.visit(val, e)
}

func (v *Visitor) enter() error {
	v.depth++
	if limit := v.opts.maxDepth(); v.depth > limit {
		return errors.StackOverflow(errors.PhaseVisit, nil, limit)
	}
	return nil
}

func (v *Visitor) leave() { v.depth-- }

func (v *Visitor) visit(val *value.Value, e avroxform.Emitter) error {
	if err := v.enter(); err != nil {
		return err
	}
	defer v.leave()

	switch val.Kind() {
	case schema.KindNull:
		e.EmitNull()
	case schema.KindBoolean:
		e.EmitBoolean(val.Boolean())
	case schema.KindInt:
		e.EmitInt(val.Int())
	case schema.KindLong:
		e.EmitLong(val.Long())
	case schema.KindFloat:
		e.EmitFloat(val.Float())
	case schema.KindDouble:
		e.EmitDouble(val.Double())
	case schema.KindBytes:
		e.EmitBytes(val.Bytes())
	case schema.KindFixed:
		e.EmitFixed(val.Bytes())
	case schema.KindString:
		e.EmitString(val.String())
	case schema.KindEnum:
		i, sym := val.Enum()
		if v.opts.terse() && v.opts.IntegerEnums {
			e.EmitInt(int32(i))
		} else {
			e.EmitEnum(i, sym)
		}
	case schema.KindArray:
		return v.array(val, e)
	case schema.KindMap:
		return v.mapValue(val, e)
	case schema.KindRecord:
		if v.opts.terse() {
			return v.terseRecord(val, e)
		}
		return v.verboseRecord(val, e)
	case schema.KindUnion:
		return v.union(val, e)
	default:
		return errors.Internal(errors.PhaseVisit, "no visitor for %s", val.Kind())
	}
	return nil
}

func (v *Visitor) array(val *value.Value, e avroxform.Emitter) error {
	n := val.Len()
	le := e.Array(n)
	for i := 0; i < n; i++ {
		le.BeginItem()
		if err := v.visit(val.Item(i), le); err != nil {
			return err
		}
		le.EndItem()
	}
	return le.Close()
}

func (v *Visitor) mapValue(val *value.Value, e avroxform.Emitter) error {
	n := val.Len()
	me := e.Map(n)
	for i := 0; i < n; i++ {
		me.BeginItem(val.Key(i))
		if err := v.visit(val.Item(i), me); err != nil {
			return err
		}
		me.EndItem()
	}
	return me.Close()
}

// verboseRecord emits the fields that were written, keyed by name.
func (v *Visitor) verboseRecord(val *value.Value, e avroxform.Emitter) error {
	fields := val.Schema().(*avro.RecordSchema).Fields()
	n := 0
	for i := range fields {
		if val.Present(i) {
			n++
		}
	}
	me := e.VerboseRecord(n)
	for i, f := range fields {
		if !val.Present(i) {
			continue
		}
		me.BeginItem(f.Name())
		if err := v.visit(val.Item(i), me); err != nil {
			return err
		}
		me.EndItem()
	}
	return me.Close()
}

func (v *Visitor) terseRecord(val *value.Value, e avroxform.Emitter) error {
	r := val.Schema().(*avro.RecordSchema)
	n := len(r.Fields())
	if v.opts.CollapseNested {
		info, err := v.schema.Layout(r)
		if err != nil {
			return err
		}
		n = info.FullSize
	}
	le := e.TerseRecord(n)
	if err := v.terseFields(val, le); err != nil {
		return err
	}
	return le.Close()
}

func (v *Visitor) terseFields(val *value.Value, le avroxform.ListEmitter) error {
	collapse := v.opts.CollapseNested
	for i := range val.Schema().(*avro.RecordSchema).Fields() {
		item := val.Item(i)
		var err error
		switch {
		case collapse && item.Kind() == schema.KindRecord:
			if err = v.enter(); err == nil {
				err = v.terseFields(item, le)
				v.leave()
			}
		case collapse && item.Kind() == schema.KindUnion:
			err = v.inlineUnion(item, le)
		default:
			le.BeginItem()
			err = v.visit(item, le)
			le.EndItem()
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (v *Visitor) union(val *value.Value, e avroxform.Emitter) error {
	if v.opts.terse() && v.opts.IntegerUnionTags {
		le := e.TerseRecord(2)
		if err := v.inlineUnion(val, le); err != nil {
			return err
		}
		return le.Close()
	}
	idx, branch := val.Branch()
	if branch == nil {
		return noBranch(val)
	}
	ue := e.Union(idx, schema.BranchName(val.Schema().(*avro.UnionSchema), idx))
	if err := v.visit(branch, ue); err != nil {
		return err
	}
	return ue.Close()
}

// inlineUnion emits the discriminant and the payload as two items of le.
func (v *Visitor) inlineUnion(val *value.Value, le avroxform.ListEmitter) error {
	idx, branch := val.Branch()
	if branch == nil {
		return noBranch(val)
	}
	le.BeginItem()
	le.EmitInt(int32(idx))
	le.EndItem()
	le.BeginItem()
	if err := v.visit(branch, le); err != nil {
		return err
	}
	le.EndItem()
	return nil
}

func noBranch(val *value.Value) error {
	return errors.Internal(errors.PhaseVisit, "union %s has no branch selected", schema.TypeName(val.Schema()))
}
