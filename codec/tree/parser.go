package tree

import (
	"fmt"
	"reflect"
	"sort"

	avroxform "github.com/wippyai/avro-xform"
	"github.com/wippyai/avro-xform/errors"
	"github.com/wippyai/avro-xform/value"
)

// DefaultMaxDepth bounds container nesting when none is given.
const DefaultMaxDepth = 512

// identity names a host container by the address of its storage.
type identity struct {
	ptr  uintptr
	size int
	kind reflect.Kind
}

type state struct {
	open     map[identity]struct{}
	depth    int
	maxDepth int
}

func (s *state) enter(v any) (identity, error) {
	if s.depth >= s.maxDepth {
		return identity{}, errors.StackOverflow(errors.PhaseParse, nil, s.maxDepth)
	}
	id := identify(v)
	if id.ptr != 0 {
		if _, ok := s.open[id]; ok {
			return identity{}, errors.CircularRef(errors.PhaseParse, nil, describe(v))
		}
		s.open[id] = struct{}{}
	}
	s.depth++
	return id, nil
}

func (s *state) leave(id identity) {
	if id.ptr != 0 {
		delete(s.open, id)
	}
	s.depth--
}

func identify(v any) identity {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map:
		return identity{ptr: rv.Pointer(), kind: reflect.Map}
	case reflect.Slice:
		if rv.Len() == 0 {
			return identity{}
		}
		return identity{ptr: rv.Pointer(), size: rv.Len(), kind: reflect.Slice}
	}
	return identity{}
}

func describe(v any) string {
	if v == nil {
		return "nil"
	}
	return fmt.Sprintf("%T", v)
}

// cursor holds at most one pending value.
type cursor struct {
	st  *state
	val any
	ok  bool
}

// Parser reads a Go tree: nil, bool, numbers, string, []byte, slices and
// string-keyed maps. Containers are tracked by identity so a tree that
// contains itself fails with circular_ref instead of looping.
type Parser struct {
	cursor
}

var _ avroxform.Parser = (*Parser)(nil)

// NewParser returns a parser positioned on v. maxDepth <= 0 selects
// DefaultMaxDepth.
func NewParser(v any, maxDepth int) *Parser {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &Parser{cursor{
		st:  &state{open: make(map[identity]struct{}), maxDepth: maxDepth},
		val: v,
		ok:  true,
	}}
}

func (c *cursor) take(want string) (any, error) {
	if !c.ok {
		return nil, errors.Internal(errors.PhaseParse, "no value under cursor, expected %s", want)
	}
	c.ok = false
	return c.val, nil
}

func mismatch(v any, want string) error {
	return errors.TypeMismatch(errors.PhaseParse, nil, describe(v), want)
}

func (c *cursor) ConsumeNull() error {
	v, err := c.take("null")
	if err != nil {
		return err
	}
	if v != nil {
		return mismatch(v, "null")
	}
	return nil
}

func (c *cursor) ConsumeBoolean() (bool, error) {
	v, err := c.take("boolean")
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, mismatch(v, "boolean")
	}
	return b, nil
}

func (c *cursor) ConsumeInt() (int32, error) {
	v, err := c.take("int")
	if err != nil {
		return 0, err
	}
	n, ok := value.AsInt32(v)
	if !ok {
		return 0, mismatch(v, "int")
	}
	return n, nil
}

func (c *cursor) ConsumeLong() (int64, error) {
	v, err := c.take("long")
	if err != nil {
		return 0, err
	}
	n, ok := value.AsInt64(v)
	if !ok {
		return 0, mismatch(v, "long")
	}
	return n, nil
}

func (c *cursor) ConsumeFloat() (float32, error) {
	v, err := c.take("float")
	if err != nil {
		return 0, err
	}
	f, ok := value.AsFloat64(v)
	if !ok {
		return 0, mismatch(v, "float")
	}
	return float32(f), nil
}

func (c *cursor) ConsumeDouble() (float64, error) {
	v, err := c.take("double")
	if err != nil {
		return 0, err
	}
	f, ok := value.AsFloat64(v)
	if !ok {
		return 0, mismatch(v, "double")
	}
	return f, nil
}

func (c *cursor) ConsumeBytes() ([]byte, error) {
	v, err := c.take("bytes")
	if err != nil {
		return nil, err
	}
	switch b := v.(type) {
	case []byte:
		return b, nil
	case string:
		return []byte(b), nil
	}
	return nil, mismatch(v, "bytes")
}

func (c *cursor) ConsumeFixed(size int) ([]byte, error) {
	v, err := c.take("fixed")
	if err != nil {
		return nil, err
	}
	b, ok := value.AsBytes(v)
	if !ok {
		return nil, mismatch(v, "fixed")
	}
	if len(b) != size {
		return nil, errors.New(errors.PhaseParse, errors.KindTypeMismatch).
			Input(describe(v)).
			Schema("fixed").
			Detail("need %d bytes, got %d", size, len(b)).
			Build()
	}
	return b, nil
}

func (c *cursor) ConsumeString() (string, error) {
	v, err := c.take("string")
	if err != nil {
		return "", err
	}
	switch s := v.(type) {
	case string:
		return s, nil
	case []byte:
		return string(s), nil
	}
	return "", mismatch(v, "string")
}

func (c *cursor) ConsumeEnum() (avroxform.Tag, error) {
	v, err := c.take("enum")
	if err != nil {
		return avroxform.Tag{}, err
	}
	if s, ok := v.(string); ok {
		return avroxform.NameTag(s), nil
	}
	if n, ok := value.AsInt64(v); ok {
		return avroxform.IndexTag(int(n)), nil
	}
	return avroxform.Tag{}, mismatch(v, "enum")
}

func (c *cursor) ConsumeAny() error {
	_, err := c.take("any")
	return err
}

func (c *cursor) Array() (avroxform.Iterator, error) {
	return c.list("array")
}

func (c *cursor) TerseRecord() (avroxform.Iterator, error) {
	return c.list("terse record")
}

func (c *cursor) list(want string) (*listIter, error) {
	v, err := c.take(want)
	if err != nil {
		return nil, err
	}
	items, ok := asList(v)
	if !ok {
		return nil, mismatch(v, want)
	}
	id, err := c.st.enter(v)
	if err != nil {
		return nil, err
	}
	return &listIter{cursor: cursor{st: c.st}, items: items, id: id}, nil
}

func (c *cursor) Map() (avroxform.MapIterator, error) {
	return c.entries("map")
}

func (c *cursor) VerboseRecord() (avroxform.FieldIterator, error) {
	return c.entries("record")
}

func (c *cursor) entries(want string) (*entryIter, error) {
	v, err := c.take(want)
	if err != nil {
		return nil, err
	}
	m, ok := asMap(v)
	if !ok {
		return nil, mismatch(v, want)
	}
	id, err := c.st.enter(v)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return &entryIter{cursor: cursor{st: c.st}, m: m, keys: keys, id: id}, nil
}

// Union accepts {branch: payload}, nil for the null branch, or
// [branch, payload] where branch is a name or an index.
func (c *cursor) Union() (avroxform.UnionReader, error) {
	v, err := c.take("union")
	if err != nil {
		return nil, err
	}
	if v == nil {
		return &unionReader{cursor: cursor{st: c.st, ok: true}, tag: avroxform.NameTag("null")}, nil
	}

	var tag avroxform.Tag
	var payload any
	if m, ok := asMap(v); ok && len(m) == 1 {
		for k, p := range m {
			tag, payload = avroxform.NameTag(k), p
		}
	} else if items, ok := asList(v); ok && len(items) == 2 {
		switch t := items[0].(type) {
		case string:
			tag = avroxform.NameTag(t)
		default:
			n, ok := value.AsInt64(t)
			if !ok {
				return nil, mismatch(t, "union tag")
			}
			tag = avroxform.IndexTag(int(n))
		}
		payload = items[1]
	} else {
		return nil, mismatch(v, "union")
	}

	id, err := c.st.enter(v)
	if err != nil {
		return nil, err
	}
	return &unionReader{cursor: cursor{st: c.st, val: payload, ok: true}, tag: tag, id: id, entered: true}, nil
}

func asList(v any) ([]any, bool) {
	switch l := v.(type) {
	case []any:
		return l, true
	case []byte, string, nil:
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

func asMap(v any) (map[string]any, bool) {
	if m, ok := v.(map[string]any); ok {
		return m, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = iter.Value().Interface()
	}
	return out, true
}

type listIter struct {
	cursor
	items []any
	pos   int
	id    identity
}

func (l *listIter) Next() (bool, error) {
	if l.pos >= len(l.items) {
		return false, nil
	}
	l.val, l.ok = l.items[l.pos], true
	l.pos++
	return true, nil
}

func (l *listIter) Close() error {
	l.st.leave(l.id)
	return nil
}

type entryIter struct {
	cursor
	m    map[string]any
	keys []string
	pos  int
	id   identity
}

func (e *entryIter) Next() (bool, error) {
	if e.pos >= len(e.keys) {
		return false, nil
	}
	e.val, e.ok = e.m[e.keys[e.pos]], true
	e.pos++
	return true, nil
}

func (e *entryIter) Key() string { return e.keys[e.pos-1] }

func (e *entryIter) Tag() avroxform.Tag { return avroxform.NameTag(e.keys[e.pos-1]) }

func (e *entryIter) Close() error {
	e.st.leave(e.id)
	return nil
}

type unionReader struct {
	cursor
	tag     avroxform.Tag
	id      identity
	entered bool
}

func (u *unionReader) Tag() avroxform.Tag { return u.tag }

func (u *unionReader) Close() error {
	if u.entered {
		u.st.leave(u.id)
	}
	return nil
}
