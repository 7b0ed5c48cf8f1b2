package transcoder

import (
	"github.com/hamba/avro/v2"

	avroxform "github.com/wippyai/avro-xform"
	"github.com/wippyai/avro-xform/errors"
	"github.com/wippyai/avro-xform/schema"
	"github.com/wippyai/avro-xform/transcoder/internal/layout"
	"github.com/wippyai/avro-xform/value"
)

// BuildForUpdate builds a partial record from a verbose fragment and
// marks every supplied field in the presence bitmap. Nested record
// fields mark bits inside their parent's region at the offsets of the
// destination record's layout. The claim outlives the call so the
// bitmap can drive VisitForUpdate; the next build resets it.
func (b *Builder) BuildForUpdate(p avroxform.Parser, w value.Writer) error {
	b.reset()
	dest, ok := w.Dest().Schema().(*avro.RecordSchema)
	if !ok {
		return errors.TypeMismatch(errors.PhaseBuild, nil, schema.TypeName(w.Dest().Schema()), "record")
	}
	if _, ok := schema.Record(w.Schema()); !ok {
		return errors.TypeMismatch(errors.PhaseBuild, nil, schema.TypeName(w.Schema()), "record")
	}
	info, err := b.schema.Layout(dest)
	if err != nil {
		return err
	}
	base, ok := b.bits.Claim(info.FullBitmapSize)
	if !ok {
		return errors.AllocationFailed(errors.PhaseBuild, "presence bitmap", info.FullBitmapSize)
	}
	return b.xRecord(p, w, base)
}

func (b *Builder) xRecord(p avroxform.Parser, w value.Writer, base int) error {
	if err := b.enter(); err != nil {
		return errors.WithPath(err, b.path)
	}
	defer b.leave()

	r := schema.Deref(w.Schema()).(*avro.RecordSchema)
	info, err := b.schema.Layout(w.Dest().Schema().(*avro.RecordSchema))
	if err != nil {
		return err
	}
	fields := r.Fields()

	it, err := p.VerboseRecord()
	if err != nil {
		return errors.WithPath(err, b.path)
	}
	for {
		ok, err := it.Next()
		if err != nil {
			return errors.WithPath(err, b.path)
		}
		if !ok {
			break
		}
		i, err := b.field(r, it.Tag())
		if err != nil {
			return errors.WithPath(err, b.path)
		}
		b.push(fields[i].Name())
		err = errors.WithPath(b.xField(it, w, i, fields[i], base, info), b.path)
		b.pop()
		if err != nil {
			return err
		}
	}
	return errors.WithPath(it.Close(), b.path)
}

func (b *Builder) xField(p avroxform.Parser, w value.Writer, i int, f *avro.Field, base int, info *layout.Info) error {
	fw, err := w.Field(i)
	if err != nil {
		return err
	}
	if fw == nil {
		return b.xSkip(p, f.Type())
	}
	j := w.FieldIndex(i)
	if b.bits.TestAndSet(base + j) {
		return errors.DuplicateField(errors.PhaseBuild, nil, f.Name())
	}
	dest := w.Dest().Schema().(*avro.RecordSchema)
	if schema.KindOfDeref(f.Type()) == schema.KindRecord &&
		schema.KindOfDeref(dest.Fields()[j].Type()) == schema.KindRecord {
		return b.xRecord(p, fw, base+info.BitmapOffsets[j])
	}
	return b.build(p, fw)
}

// xSkip discards a writer-only field of an update fragment. Without fast
// skip a nested record is walked like xRecord: fields are type checked
// and duplicates rejected, but absent fields are not required.
func (b *Builder) xSkip(p avroxform.Parser, t avro.Schema) error {
	if b.opts.EnableFastSkip || schema.KindOfDeref(t) != schema.KindRecord {
		return b.skip(p, t)
	}
	if err := b.enter(); err != nil {
		return err
	}
	defer b.leave()

	r := schema.Deref(t).(*avro.RecordSchema)
	fields := r.Fields()
	base, ok := b.bits.Claim(len(fields))
	if !ok {
		return errors.AllocationFailed(errors.PhaseBuild, "presence bitmap", b.bits.Top()+len(fields))
	}
	defer b.bits.Release(base)

	it, err := p.VerboseRecord()
	if err != nil {
		return err
	}
	for {
		ok, err := it.Next()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		i, err := b.field(r, it.Tag())
		if err != nil {
			return err
		}
		if b.bits.TestAndSet(base + i) {
			return errors.DuplicateField(errors.PhaseBuild, nil, fields[i].Name())
		}
		b.push(fields[i].Name())
		err = errors.WithPath(b.xSkip(it, fields[i].Type()), b.path)
		b.pop()
		if err != nil {
			return err
		}
	}
	return it.Close()
}
