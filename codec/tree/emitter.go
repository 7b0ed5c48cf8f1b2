package tree

import (
	avroxform "github.com/wippyai/avro-xform"
	"github.com/wippyai/avro-xform/errors"
)

// emitter delivers each produced value to put.
type emitter struct {
	put func(any)
}

func (e *emitter) EmitNull() { e.put(nil) }
func (e *emitter) EmitBoolean(v bool) { e.put(v) }
func (e *emitter) EmitInt(v int32) { e.put(int64(v)) }
func (e *emitter) EmitLong(v int64) { e.put(v) }
func (e *emitter) EmitFloat(v float32) { e.put(v) }
func (e *emitter) EmitDouble(v float64) { e.put(v) }
func (e *emitter) EmitBytes(v []byte) { e.put(v) }
func (e *emitter) EmitFixed(v []byte) { e.put(v) }
func (e *emitter) EmitString(v string) { e.put(v) }
func (e *emitter) EmitEnum(_ int, s string) { e.put(s) }

func (e *emitter) Array(n int) avroxform.ListEmitter { return newList(e.put, n) }
func (e *emitter) TerseRecord(n int) avroxform.ListEmitter { return newList(e.put, n) }
func (e *emitter) Map(n int) avroxform.MapEmitter { return newDict(e.put, n) }
func (e *emitter) VerboseRecord(n int) avroxform.MapEmitter { return newDict(e.put, n) }
func (e *emitter) Union(_ int, name string) avroxform.UnionEmitter {
	return newUnion(e.put, name)
}

// Emitter builds a Go tree: records and maps become map[string]any,
// arrays and terse records []any, unions a single entry map keyed by
// branch name (nil for the null branch).
type Emitter struct {
	emitter
	result any
	count  int
}

var _ avroxform.Emitter = (*Emitter)(nil)

func NewEmitter() *Emitter {
	e := &Emitter{}
	e.put = func(v any) {
		e.result = v
		e.count++
	}
	return e
}

// Result returns the emitted tree.
func (e *Emitter) Result() (any, error) {
	if e.count != 1 {
		return nil, errors.Internal(errors.PhaseEmit, "root received %d values", e.count)
	}
	return e.result, nil
}

type list struct {
	emitter
	parent func(any)
	items  []any
	mark   int
	err    error
}

func newList(parent func(any), n int) *list {
	if n < 0 {
		n = 0
	}
	l := &list{parent: parent, items: make([]any, 0, n)}
	l.put = func(v any) { l.items = append(l.items, v) }
	return l
}

func (l *list) BeginItem() { l.mark = len(l.items) }

func (l *list) EndItem() {
	if n := len(l.items) - l.mark; n != 1 && l.err == nil {
		l.err = errors.Internal(errors.PhaseEmit, "list item produced %d values", n)
	}
}

func (l *list) Close() error {
	l.parent(l.items)
	return l.err
}

type dict struct {
	emitter
	parent  func(any)
	entries map[string]any
	key     string
	pending bool
	err     error
}

func newDict(parent func(any), n int) *dict {
	if n < 0 {
		n = 0
	}
	d := &dict{parent: parent, entries: make(map[string]any, n)}
	d.put = func(v any) {
		if !d.pending && d.err == nil {
			d.err = errors.Internal(errors.PhaseEmit, "map value without key")
		}
		d.entries[d.key] = v
		d.pending = false
	}
	return d
}

func (d *dict) BeginItem(key string) {
	d.key, d.pending = key, true
}

func (d *dict) EndItem() {
	if d.pending && d.err == nil {
		d.err = errors.Internal(errors.PhaseEmit, "map entry %q has no value", d.key)
	}
}

func (d *dict) Close() error {
	d.parent(d.entries)
	return d.err
}

type union struct {
	emitter
	parent  func(any)
	name    string
	payload any
	count   int
}

func newUnion(parent func(any), name string) *union {
	u := &union{parent: parent, name: name}
	u.put = func(v any) {
		u.payload = v
		u.count++
	}
	return u
}

func (u *union) Close() error {
	if u.name == "null" {
		u.parent(nil)
	} else {
		u.parent(map[string]any{u.name: u.payload})
	}
	if u.count != 1 {
		return errors.Internal(errors.PhaseEmit, "union %q received %d values", u.name, u.count)
	}
	return nil
}
