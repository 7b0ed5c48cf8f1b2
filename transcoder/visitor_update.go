package transcoder

import (
	"github.com/hamba/avro/v2"

	avroxform "github.com/wippyai/avro-xform"
	"github.com/wippyai/avro-xform/errors"
	"github.com/wippyai/avro-xform/schema"
	"github.com/wippyai/avro-xform/transcoder/internal/bitset"
	"github.com/wippyai/avro-xform/value"
)

// UpdateOp is the operator of every update operation.
const UpdateOp = "="

// VisitForUpdate emits the fields of val marked in presence, as filled
// by BuildForUpdate, as a list of ["=", position, value] operations in
// ascending flattened position. A union field yields its discriminant
// at its position and its payload at the next one. Positions are offset
// by Options.PositionBase.
func (v *Visitor) VisitForUpdate(val *value.Value, e avroxform.Emitter, presence *bitset.Bitmap) error {
	v.depth = 0
	if val.Kind() != schema.KindRecord {
		return errors.Internal(errors.PhaseVisit, "update of %s value", val.Kind())
	}
	ops := e.Array(0)
	if err := v.xRecord(val, ops, presence, v.opts.PositionBase, 0); err != nil {
		return err
	}
	return ops.Close()
}

// xRecord scans the bits of val's own fields starting at base. A record
// without marked bits emits nothing and its children are not visited.
func (v *Visitor) xRecord(val *value.Value, ops avroxform.ListEmitter, presence *bitset.Bitmap, pos, base int) error {
	if err := v.enter(); err != nil {
		return err
	}
	defer v.leave()

	r := val.Schema().(*avro.RecordSchema)
	info, err := v.schema.Layout(r)
	if err != nil {
		return err
	}
	return presence.Scan(base, base+len(r.Fields()), func(bit int) error {
		i := bit - base
		item := val.Item(i)
		at := pos + info.ItemOffsets[i]
		switch item.Kind() {
		case schema.KindRecord:
			return v.xRecord(item, ops, presence, at, base+info.BitmapOffsets[i])
		case schema.KindUnion:
			idx, branch := item.Branch()
			if branch == nil {
				return noBranch(item)
			}
			err := v.op(ops, at, func(e avroxform.Emitter) error {
				e.EmitInt(int32(idx))
				return nil
			})
			if err != nil {
				return err
			}
			return v.op(ops, at+1, func(e avroxform.Emitter) error {
				return v.visit(branch, e)
			})
		}
		return v.op(ops, at, func(e avroxform.Emitter) error {
			return v.visit(item, e)
		})
	})
}

func (v *Visitor) op(ops avroxform.ListEmitter, at int, emit func(avroxform.Emitter) error) error {
	ops.BeginItem()
	op := ops.Array(3)
	op.BeginItem()
	op.EmitString(UpdateOp)
	op.EndItem()
	op.BeginItem()
	op.EmitLong(int64(at))
	op.EndItem()
	op.BeginItem()
	if err := emit(op); err != nil {
		return err
	}
	op.EndItem()
	if err := op.Close(); err != nil {
		return err
	}
	ops.EndItem()
	return nil
}
