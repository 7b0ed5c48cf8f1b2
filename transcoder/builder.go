package transcoder

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/hamba/avro/v2"

	avroxform "github.com/wippyai/avro-xform"
	"github.com/wippyai/avro-xform/errors"
	"github.com/wippyai/avro-xform/schema"
	"github.com/wippyai/avro-xform/transcoder/internal/bitset"
	"github.com/wippyai/avro-xform/value"
)

// Builder stores parser input into a value tree, dispatching on the
// schema of the destination handle. A Builder is not safe for
// concurrent use.
type Builder struct {
	schema *Schema
	bits   *bitset.Bitmap
	path   []string
	opts   Options
	depth  int
}

// NewBuilder creates a builder. s supplies record geometry for
// BuildForUpdate and must be the schema of the destination values.
func NewBuilder(s *Schema, opts Options) *Builder {
	return &Builder{
		schema: s,
		bits:   getBitmap(),
		opts:   opts,
	}
}

// Release returns the presence bitmap to the pool. The Builder must not
// be used afterwards.
func (b *Builder) Release() {
	putBitmap(b.bits)
	b.bits = nil
}

// Presence returns the bitmap marked by the last BuildForUpdate.
func (b *Builder) Presence() *bitset.Bitmap {
	return b.bits
}

// Build consumes one value from p and stores it through w.
func (b *Builder) Build(p avroxform.Parser, w value.Writer) error {
	b.reset()
	return b.build(p, w)
}

func (b *Builder) reset() {
	b.bits.Reset()
	b.path = b.path[:0]
	b.depth = 0
}

func (b *Builder) enter() error {
	b.depth++
	if limit := b.opts.maxDepth(); b.depth > limit {
		return errors.StackOverflow(errors.PhaseBuild, nil, limit)
	}
	return nil
}

func (b *Builder) leave() { b.depth-- }

func (b *Builder) push(elem string) { b.path = append(b.path, elem) }

func (b *Builder) pop() { b.path = b.path[:len(b.path)-1] }

func (b *Builder) build(p avroxform.Parser, w value.Writer) error {
	if err := b.enter(); err != nil {
		return errors.WithPath(err, b.path)
	}
	err := b.dispatch(p, w)
	b.leave()
	return errors.WithPath(err, b.path)
}

func (b *Builder) dispatch(p avroxform.Parser, w value.Writer) error {
	s := schema.Deref(w.Schema())
	switch schema.KindOf(s) {
	case schema.KindNull:
		if err := p.ConsumeNull(); err != nil {
			return err
		}
		return w.SetNull()
	case schema.KindBoolean:
		v, err := p.ConsumeBoolean()
		if err != nil {
			return err
		}
		return w.SetBoolean(v)
	case schema.KindInt:
		v, err := p.ConsumeInt()
		if err != nil {
			return err
		}
		return w.SetInt(v)
	case schema.KindLong:
		v, err := p.ConsumeLong()
		if err != nil {
			return err
		}
		return w.SetLong(v)
	case schema.KindFloat:
		v, err := p.ConsumeFloat()
		if err != nil {
			return err
		}
		return w.SetFloat(v)
	case schema.KindDouble:
		v, err := p.ConsumeDouble()
		if err != nil {
			return err
		}
		return w.SetDouble(v)
	case schema.KindBytes:
		v, err := p.ConsumeBytes()
		if err != nil {
			return err
		}
		return w.SetBytes(v)
	case schema.KindFixed:
		v, err := p.ConsumeFixed(s.(*avro.FixedSchema).Size())
		if err != nil {
			return err
		}
		return w.SetFixed(v)
	case schema.KindString:
		v, err := p.ConsumeString()
		if err != nil {
			return err
		}
		if !b.opts.AssumeUTF8 && !utf8.ValidString(v) {
			return errors.InvalidUTF8(errors.PhaseBuild, nil, []byte(v))
		}
		return w.SetString(v)
	case schema.KindEnum:
		tag, err := p.ConsumeEnum()
		if err != nil {
			return err
		}
		i, err := b.symbol(s.(*avro.EnumSchema), tag)
		if err != nil {
			return err
		}
		return w.SetEnum(i)
	case schema.KindArray:
		return b.array(p, w)
	case schema.KindMap:
		return b.mapValue(p, w)
	case schema.KindRecord:
		if b.opts.terse() {
			return b.terseRecord(p, w)
		}
		return b.verboseRecord(p, w)
	case schema.KindUnion:
		return b.union(p, w)
	}
	return errors.Internal(errors.PhaseBuild, "no builder for %s", schema.TypeName(s))
}

func (b *Builder) array(p avroxform.Parser, w value.Writer) error {
	it, err := p.Array()
	if err != nil {
		return err
	}
	for i := 0; ; i++ {
		ok, err := it.Next()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		child, err := w.Append()
		if err != nil {
			return err
		}
		b.push(strconv.Itoa(i))
		err = b.build(it, child)
		b.pop()
		if err != nil {
			return err
		}
	}
	return it.Close()
}

func (b *Builder) mapValue(p avroxform.Parser, w value.Writer) error {
	it, err := p.Map()
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
		key, err := b.mapKey(it.Key())
		if err != nil {
			return err
		}
		child, existed, err := w.Add(key)
		if err != nil {
			return err
		}
		if existed && !b.opts.AssumeNoDuplicateMapKeys {
			return errors.DuplicateKey(errors.PhaseBuild, nil, key)
		}
		b.push(key)
		err = b.build(it, child)
		b.pop()
		if err != nil {
			return err
		}
	}
	return it.Close()
}

// verboseRecord claims one presence bit per field for duplicate and
// missing field detection and releases it on return.
func (b *Builder) verboseRecord(p avroxform.Parser, w value.Writer) error {
	r := schema.Deref(w.Schema()).(*avro.RecordSchema)
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
		err = errors.WithPath(b.fieldValue(it, w, i, fields[i].Type()), b.path)
		b.pop()
		if err != nil {
			return err
		}
	}
	if err := it.Close(); err != nil {
		return err
	}
	return b.defaults(r, w, base)
}

// defaults fills fields the input left out from their schema default.
func (b *Builder) defaults(r *avro.RecordSchema, w value.Writer, base int) error {
	for i, f := range r.Fields() {
		if b.bits.Has(base + i) {
			continue
		}
		fw, err := w.Field(i)
		if err != nil {
			return err
		}
		if fw == nil {
			continue
		}
		if !f.HasDefault() {
			return errors.FieldMissing(errors.PhaseBuild, nil, f.Name())
		}
		if err := value.SetDefault(fw, f.Default()); err != nil {
			return errors.WithPath(err, append(b.path[:len(b.path):len(b.path)], f.Name()))
		}
	}
	return nil
}

func (b *Builder) terseRecord(p avroxform.Parser, w value.Writer) error {
	it, err := p.TerseRecord()
	if err != nil {
		return err
	}
	if err := b.terseFields(it, w); err != nil {
		return err
	}
	return it.Close()
}

// terseFields reads the fields of w's record in declaration order from
// it. With CollapseNested, nested records and unions draw their slots
// from the same iterator.
func (b *Builder) terseFields(it avroxform.Iterator, w value.Writer) error {
	r := schema.Deref(w.Schema()).(*avro.RecordSchema)
	for i, f := range r.Fields() {
		b.push(f.Name())
		err := errors.WithPath(b.terseField(it, w, i, f.Type()), b.path)
		b.pop()
		if err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) terseField(it avroxform.Iterator, w value.Writer, i int, t avro.Schema) error {
	if k := schema.KindOfDeref(t); b.opts.CollapseNested && (k == schema.KindRecord || k == schema.KindUnion) {
		fw, err := w.Field(i)
		if err != nil {
			return err
		}
		if fw == nil {
			fw = value.New(t)
		}
		if err := b.enter(); err != nil {
			return err
		}
		defer b.leave()
		if k == schema.KindRecord {
			return b.terseFields(it, fw)
		}
		return b.inlineUnion(it, fw)
	}
	if err := next(it); err != nil {
		return err
	}
	return b.fieldValue(it, w, i, t)
}

// fieldValue builds field i of w, skipping the input when the
// destination does not carry the field.
func (b *Builder) fieldValue(p avroxform.Parser, w value.Writer, i int, t avro.Schema) error {
	fw, err := w.Field(i)
	if err != nil {
		return err
	}
	if fw == nil {
		return b.skip(p, t)
	}
	return b.build(p, fw)
}

// skip discards one value of schema t. Without fast skip the value is
// built into scratch space so it is still type checked.
func (b *Builder) skip(p avroxform.Parser, t avro.Schema) error {
	if b.opts.EnableFastSkip {
		return p.ConsumeAny()
	}
	return b.build(p, value.New(t))
}

func (b *Builder) union(p avroxform.Parser, w value.Writer) error {
	u := schema.Deref(w.Schema()).(*avro.UnionSchema)
	ur, err := p.Union()
	if err != nil {
		return err
	}
	i, err := b.branch(u, ur.Tag())
	if err != nil {
		return err
	}
	bw, err := w.SetBranch(i)
	if err != nil {
		return err
	}
	if err := b.build(ur, bw); err != nil {
		return err
	}
	return ur.Close()
}

// inlineUnion reads a collapsed union: a tag slot then a payload slot
// of the enclosing terse record.
func (b *Builder) inlineUnion(it avroxform.Iterator, w value.Writer) error {
	u := schema.Deref(w.Schema()).(*avro.UnionSchema)
	if err := next(it); err != nil {
		return err
	}
	tag, err := it.ConsumeEnum()
	if err != nil {
		return err
	}
	i, err := b.branch(u, tag)
	if err != nil {
		return err
	}
	bw, err := w.SetBranch(i)
	if err != nil {
		return err
	}
	if err := next(it); err != nil {
		return err
	}
	return b.build(it, bw)
}

func next(it avroxform.Iterator) error {
	ok, err := it.Next()
	if err != nil {
		return err
	}
	if !ok {
		return errors.New(errors.PhaseBuild, errors.KindTypeMismatch).
			Input("short list").
			Schema("terse record").
			Detail("input ends before the record's last field").
			Build()
	}
	return nil
}

func (b *Builder) field(r *avro.RecordSchema, t avroxform.Tag) (int, error) {
	n := len(r.Fields())
	if t.IsIndex {
		if t.Index < 0 || t.Index >= n {
			return -1, errors.IndexUnknown(errors.PhaseBuild, nil, "field", t.Index, n, r.FullName())
		}
		return t.Index, nil
	}
	name, err := b.name(t.Name, "field", r.FullName())
	if err != nil {
		return -1, err
	}
	i, ok := schema.FieldIndex(r, name)
	if !ok {
		return -1, errors.NameUnknown(errors.PhaseBuild, nil, "field", name, r.FullName())
	}
	return i, nil
}

func (b *Builder) branch(u *avro.UnionSchema, t avroxform.Tag) (int, error) {
	n := len(u.Types())
	if t.IsIndex {
		if t.Index < 0 || t.Index >= n {
			return -1, errors.IndexUnknown(errors.PhaseBuild, nil, "branch", t.Index, n, "union")
		}
		return t.Index, nil
	}
	name, err := b.name(t.Name, "branch", "union")
	if err != nil {
		return -1, err
	}
	i, ok := schema.BranchIndex(u, name)
	if !ok {
		return -1, errors.NameUnknown(errors.PhaseBuild, nil, "branch", name, "union")
	}
	return i, nil
}

func (b *Builder) symbol(e *avro.EnumSchema, t avroxform.Tag) (int, error) {
	n := len(e.Symbols())
	if t.IsIndex {
		if t.Index < 0 || t.Index >= n {
			return -1, errors.IndexUnknown(errors.PhaseBuild, nil, "symbol", t.Index, n, e.FullName())
		}
		return t.Index, nil
	}
	name, err := b.name(t.Name, "symbol", e.FullName())
	if err != nil {
		return -1, err
	}
	i, ok := schema.SymbolIndex(e, name)
	if !ok {
		return -1, errors.NameUnknown(errors.PhaseBuild, nil, "symbol", name, e.FullName())
	}
	return i, nil
}

// name applies the NUL handling options to a field, branch or symbol name.
func (b *Builder) name(n, what, schemaName string) (string, error) {
	if b.opts.AssumeNulTerminatedStrings {
		return cutNUL(n), nil
	}
	if !b.opts.AssumeNoEmbeddedNULs && strings.IndexByte(n, 0) >= 0 {
		return "", errors.NameUnknown(errors.PhaseBuild, nil, what, n, schemaName)
	}
	return n, nil
}

func (b *Builder) mapKey(k string) (string, error) {
	if b.opts.AssumeNulTerminatedStrings {
		k = cutNUL(k)
	} else if !b.opts.AssumeNoEmbeddedNULs && strings.IndexByte(k, 0) >= 0 {
		return "", errors.InvalidData(errors.PhaseBuild, nil, "map key contains NUL")
	}
	if !b.opts.AssumeUTF8 && !utf8.ValidString(k) {
		return "", errors.InvalidUTF8(errors.PhaseBuild, nil, []byte(k))
	}
	return k, nil
}

func cutNUL(s string) string {
	if i := strings.IndexByte(s, 0); i >= 0 {
		return s[:i]
	}
	return s
}
