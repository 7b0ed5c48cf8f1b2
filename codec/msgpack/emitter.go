package msgpack

import (
	"bytes"
	"sync"

	mp "github.com/vmihailenco/msgpack/v5"
	avroxform "github.com/wippyai/avro-xform"
	"github.com/wippyai/avro-xform/errors"
)

const (
	// Pool limits to prevent memory bloat
	poolMaxCap  = 64 << 10
	poolInitCap = 256
)

var bufPool = sync.Pool{
	New: func() any {
		return bytes.NewBuffer(make([]byte, 0, poolInitCap))
	},
}

func getBuf() *bytes.Buffer {
	return bufPool.Get().(*bytes.Buffer)
}

func putBuf(b *bytes.Buffer) {
	if b == nil || b.Cap() > poolMaxCap {
		return // reject oversized
	}
	b.Reset()
	bufPool.Put(b)
}

// emitter encodes the values of one scope into its own buffer; the
// scope header is written by the parent once the item count is known.
type emitter struct {
	buf   *bytes.Buffer
	enc   *mp.Encoder
	err   error
	count int
}

func (e *emitter) init() {
	e.buf = getBuf()
	e.enc = mp.GetEncoder()
	e.enc.Reset(e.buf)
}

func (e *emitter) release() {
	mp.PutEncoder(e.enc)
	putBuf(e.buf)
	e.enc, e.buf = nil, nil
}

func (e *emitter) check(err error) {
	e.count++
	if err != nil && e.err == nil {
		e.err = errors.Wrap(errors.PhaseEmit, errors.KindInvalidData, err, "encode")
	}
}

func (e *emitter) EmitNull() { e.check(e.enc.EncodeNil()) }
func (e *emitter) EmitBoolean(v bool) { e.check(e.enc.EncodeBool(v)) }
func (e *emitter) EmitInt(v int32) { e.check(e.enc.EncodeInt(int64(v))) }
func (e *emitter) EmitLong(v int64) { e.check(e.enc.EncodeInt(v)) }
func (e *emitter) EmitFloat(v float32) { e.check(e.enc.EncodeFloat32(v)) }
func (e *emitter) EmitDouble(v float64) { e.check(e.enc.EncodeFloat64(v)) }
func (e *emitter) EmitBytes(v []byte) { e.check(e.enc.EncodeBytes(v)) }
func (e *emitter) EmitFixed(v []byte) { e.check(e.enc.EncodeBytes(v)) }
func (e *emitter) EmitString(v string) { e.check(e.enc.EncodeString(v)) }
func (e *emitter) EmitEnum(_ int, s string) { e.check(e.enc.EncodeString(s)) }

func (e *emitter) Array(int) avroxform.ListEmitter { return newList(e) }
func (e *emitter) TerseRecord(int) avroxform.ListEmitter { return newList(e) }
func (e *emitter) Map(int) avroxform.MapEmitter { return newDict(e) }
func (e *emitter) VerboseRecord(int) avroxform.MapEmitter { return newDict(e) }
func (e *emitter) Union(_ int, name string) avroxform.UnionEmitter {
	return newUnion(e, name)
}

// commit writes header then body into the parent scope.
func (e *emitter) commit(parent *emitter, header func(enc *mp.Encoder) error) error {
	err := header(parent.enc)
	if err == nil {
		_, err = parent.buf.Write(e.buf.Bytes())
	}
	parent.check(err)
	first := e.err
	e.release()
	return first
}

// Emitter produces one MessagePack value: verbose records and maps as
// maps, terse records and arrays as arrays, unions as {branch: payload}
// or nil.
type Emitter struct {
	emitter
}

var _ avroxform.Emitter = (*Emitter)(nil)

func NewEmitter() *Emitter {
	e := &Emitter{}
	e.init()
	return e
}

// Bytes returns the encoded value. The emitter must not be used afterwards.
func (e *Emitter) Bytes() ([]byte, error) {
	if e.err != nil {
		return nil, e.err
	}
	if e.count != 1 {
		return nil, errors.Internal(errors.PhaseEmit, "root received %d values", e.count)
	}
	out := append([]byte(nil), e.buf.Bytes()...)
	e.release()
	return out, nil
}

type list struct {
	emitter
	parent *emitter
	mark   int
}

func newList(parent *emitter) *list {
	l := &list{parent: parent}
	l.init()
	return l
}

func (l *list) BeginItem() { l.mark = l.count }

func (l *list) EndItem() {
	if n := l.count - l.mark; n != 1 && l.err == nil {
		l.err = errors.Internal(errors.PhaseEmit, "list item produced %d values", n)
	}
}

func (l *list) Close() error {
	n := l.count
	return l.commit(l.parent, func(enc *mp.Encoder) error { return enc.EncodeArrayLen(n) })
}

type dict struct {
	emitter
	parent *emitter
	mark   int
}

func newDict(parent *emitter) *dict {
	d := &dict{parent: parent}
	d.init()
	return d
}

func (d *dict) BeginItem(key string) {
	d.mark = d.count
	if err := d.enc.EncodeString(key); err != nil && d.err == nil {
		d.err = errors.Wrap(errors.PhaseEmit, errors.KindInvalidData, err, "encode key")
	}
}

func (d *dict) EndItem() {
	if n := d.count - d.mark; n != 1 && d.err == nil {
		d.err = errors.Internal(errors.PhaseEmit, "map entry produced %d values", n)
	}
}

func (d *dict) Close() error {
	n := d.count
	return d.commit(d.parent, func(enc *mp.Encoder) error { return enc.EncodeMapLen(n) })
}

type union struct {
	emitter
	parent *emitter
	name   string
}

func newUnion(parent *emitter, name string) *union {
	u := &union{parent: parent, name: name}
	u.init()
	return u
}

func (u *union) Close() error {
	if u.count != 1 && u.err == nil {
		u.err = errors.Internal(errors.PhaseEmit, "union %q received %d values", u.name, u.count)
	}
	if u.name == "null" {
		return u.commit(u.parent, func(*mp.Encoder) error { return nil })
	}
	return u.commit(u.parent, func(enc *mp.Encoder) error {
		if err := enc.EncodeMapLen(1); err != nil {
			return err
		}
		return enc.EncodeString(u.name)
	})
}
