package msgpack

import (
	"bytes"
	stderrors "errors"
	"io"
	"math"

	mp "github.com/vmihailenco/msgpack/v5"
	"github.com/vmihailenco/msgpack/v5/msgpcode"
	avroxform "github.com/wippyai/avro-xform"
	"github.com/wippyai/avro-xform/errors"
)

// DefaultMaxDepth bounds container nesting when none is given.
const DefaultMaxDepth = 512

// neverUsed is the one leading byte MessagePack leaves unassigned.
const neverUsed = 0xc1

type state struct {
	dec      *mp.Decoder
	r        *bytes.Reader
	depth    int
	maxDepth int
}

func (s *state) enter() error {
	if s.depth >= s.maxDepth {
		return errors.StackOverflow(errors.PhaseParse, nil, s.maxDepth)
	}
	s.depth++
	return nil
}

func (s *state) leave() { s.depth-- }

// cursor reads the next value of the shared stream.
type cursor struct {
	st *state
}

// Parser reads one MessagePack value. Records are arrays when terse and
// maps keyed by field name or index when verbose; unions are nil,
// {branch: payload} or [branch, payload].
type Parser struct {
	cursor
}

var _ avroxform.Parser = (*Parser)(nil)

// NewParser returns a parser over data. maxDepth <= 0 selects DefaultMaxDepth.
func NewParser(data []byte, maxDepth int) *Parser {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	r := bytes.NewReader(data)
	return &Parser{cursor{st: &state{dec: mp.NewDecoder(r), r: r, maxDepth: maxDepth}}}
}

// Done fails when bytes remain after the root value.
func (p *Parser) Done() error {
	if n := p.st.r.Len(); n != 0 {
		return errors.New(errors.PhaseParse, errors.KindInvalidData).
			Value(n).
			Detail("trailing bytes after value").
			Build()
	}
	return nil
}

func decodeErr(err error) error {
	if stderrors.Is(err, io.EOF) || stderrors.Is(err, io.ErrUnexpectedEOF) {
		return errors.Wrap(errors.PhaseParse, errors.KindInvalidData, err, "truncated input")
	}
	return errors.Wrap(errors.PhaseParse, errors.KindInvalidData, err, "corrupt input")
}

func (c *cursor) peek(want string) (byte, error) {
	if c.st.r.Len() == 0 {
		return 0, errors.InvalidData(errors.PhaseParse, nil, "truncated input, expected "+want)
	}
	code, err := c.st.dec.PeekCode()
	if err != nil {
		return 0, decodeErr(err)
	}
	if code == neverUsed {
		return 0, errors.New(errors.PhaseParse, errors.KindInvalidData).
			Value(code).
			Detail("invalid leading byte").
			Build()
	}
	return code, nil
}

func describe(code byte) string {
	switch {
	case code == msgpcode.Nil:
		return "nil"
	case code == msgpcode.True || code == msgpcode.False:
		return "bool"
	case isInt(code):
		return "int"
	case code == msgpcode.Float || code == msgpcode.Double:
		return "float"
	case msgpcode.IsString(code):
		return "str"
	case msgpcode.IsBin(code):
		return "bin"
	case isArray(code):
		return "array"
	case isMap(code):
		return "map"
	}
	return "ext"
}

func isInt(code byte) bool {
	return msgpcode.IsFixedNum(code) || (code >= msgpcode.Uint8 && code <= msgpcode.Int64)
}

func isArray(code byte) bool {
	return msgpcode.IsFixedArray(code) || code == msgpcode.Array16 || code == msgpcode.Array32
}

func isMap(code byte) bool {
	return msgpcode.IsFixedMap(code) || code == msgpcode.Map16 || code == msgpcode.Map32
}

func isText(code byte) bool {
	return msgpcode.IsString(code) || msgpcode.IsBin(code)
}

func mismatch(code byte, want string) error {
	return errors.TypeMismatch(errors.PhaseParse, nil, describe(code), want)
}

func (c *cursor) ConsumeNull() error {
	code, err := c.peek("null")
	if err != nil {
		return err
	}
	if code != msgpcode.Nil {
		return mismatch(code, "null")
	}
	if err := c.st.dec.DecodeNil(); err != nil {
		return decodeErr(err)
	}
	return nil
}

func (c *cursor) ConsumeBoolean() (bool, error) {
	code, err := c.peek("boolean")
	if err != nil {
		return false, err
	}
	if code != msgpcode.True && code != msgpcode.False {
		return false, mismatch(code, "boolean")
	}
	b, err := c.st.dec.DecodeBool()
	if err != nil {
		return false, decodeErr(err)
	}
	return b, nil
}

func (c *cursor) integer(want string) (int64, error) {
	code, err := c.peek(want)
	if err != nil {
		return 0, err
	}
	if !isInt(code) {
		return 0, mismatch(code, want)
	}
	if code == msgpcode.Uint64 {
		u, err := c.st.dec.DecodeUint64()
		if err != nil {
			return 0, decodeErr(err)
		}
		if u > math.MaxInt64 {
			return 0, errors.New(errors.PhaseParse, errors.KindTypeMismatch).
				Input("uint64").
				Schema(want).
				Value(u).
				Build()
		}
		return int64(u), nil
	}
	n, err := c.st.dec.DecodeInt64()
	if err != nil {
		return 0, decodeErr(err)
	}
	return n, nil
}

func (c *cursor) ConsumeInt() (int32, error) {
	n, err := c.integer("int")
	if err != nil {
		return 0, err
	}
	if n < math.MinInt32 || n > math.MaxInt32 {
		return 0, errors.New(errors.PhaseParse, errors.KindTypeMismatch).
			Input("int").
			Schema("int").
			Value(n).
			Detail("out of 32-bit range").
			Build()
	}
	return int32(n), nil
}

func (c *cursor) ConsumeLong() (int64, error) {
	return c.integer("long")
}

func (c *cursor) real(want string) (float64, error) {
	code, err := c.peek(want)
	if err != nil {
		return 0, err
	}
	switch {
	case code == msgpcode.Float || code == msgpcode.Double:
		f, err := c.st.dec.DecodeFloat64()
		if err != nil {
			return 0, decodeErr(err)
		}
		return f, nil
	case isInt(code):
		n, err := c.integer(want)
		return float64(n), err
	}
	return 0, mismatch(code, want)
}

func (c *cursor) ConsumeFloat() (float32, error) {
	f, err := c.real("float")
	return float32(f), err
}

func (c *cursor) ConsumeDouble() (float64, error) {
	return c.real("double")
}

func (c *cursor) ConsumeBytes() ([]byte, error) {
	code, err := c.peek("bytes")
	if err != nil {
		return nil, err
	}
	if !isText(code) {
		return nil, mismatch(code, "bytes")
	}
	b, err := c.st.dec.DecodeBytes()
	if err != nil {
		return nil, decodeErr(err)
	}
	return b, nil
}

func (c *cursor) ConsumeFixed(size int) ([]byte, error) {
	b, err := c.ConsumeBytes()
	if err != nil {
		return nil, err
	}
	if len(b) != size {
		return nil, errors.New(errors.PhaseParse, errors.KindTypeMismatch).
			Input("bin").
			Schema("fixed").
			Detail("need %d bytes, got %d", size, len(b)).
			Build()
	}
	return b, nil
}

func (c *cursor) ConsumeString() (string, error) {
	code, err := c.peek("string")
	if err != nil {
		return "", err
	}
	if !isText(code) {
		return "", mismatch(code, "string")
	}
	s, err := c.st.dec.DecodeString()
	if err != nil {
		return "", decodeErr(err)
	}
	return s, nil
}

func (c *cursor) readTag(want string) (avroxform.Tag, error) {
	code, err := c.peek(want)
	if err != nil {
		return avroxform.Tag{}, err
	}
	switch {
	case isText(code):
		s, err := c.st.dec.DecodeString()
		if err != nil {
			return avroxform.Tag{}, decodeErr(err)
		}
		return avroxform.NameTag(s), nil
	case isInt(code):
		n, err := c.integer(want)
		if err != nil {
			return avroxform.Tag{}, err
		}
		return avroxform.IndexTag(int(n)), nil
	}
	return avroxform.Tag{}, mismatch(code, want)
}

func (c *cursor) ConsumeEnum() (avroxform.Tag, error) {
	return c.readTag("enum")
}

func (c *cursor) ConsumeAny() error {
	return c.st.skip()
}

// skip discards the next value, counting container nesting against maxDepth.
func (s *state) skip() error {
	if s.r.Len() == 0 {
		return errors.InvalidData(errors.PhaseParse, nil, "truncated input, expected any")
	}
	code, err := s.dec.PeekCode()
	if err != nil {
		return decodeErr(err)
	}
	var n int
	switch {
	case code == neverUsed:
		return errors.New(errors.PhaseParse, errors.KindInvalidData).
			Value(code).
			Detail("invalid leading byte").
			Build()
	case isArray(code):
		if n, err = s.dec.DecodeArrayLen(); err != nil {
			return decodeErr(err)
		}
	case isMap(code):
		if n, err = s.dec.DecodeMapLen(); err != nil {
			return decodeErr(err)
		}
		n *= 2
	default:
		if err := s.dec.Skip(); err != nil {
			return decodeErr(err)
		}
		return nil
	}
	if err := s.enter(); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		if err := s.skip(); err != nil {
			return err
		}
	}
	s.leave()
	return nil
}

func (c *cursor) arrayLen(want string) (int, error) {
	code, err := c.peek(want)
	if err != nil {
		return 0, err
	}
	if !isArray(code) {
		return 0, mismatch(code, want)
	}
	n, err := c.st.dec.DecodeArrayLen()
	if err != nil {
		return 0, decodeErr(err)
	}
	return n, nil
}

func (c *cursor) mapLen(want string) (int, error) {
	code, err := c.peek(want)
	if err != nil {
		return 0, err
	}
	if !isMap(code) {
		return 0, mismatch(code, want)
	}
	n, err := c.st.dec.DecodeMapLen()
	if err != nil {
		return 0, decodeErr(err)
	}
	return n, nil
}

func (c *cursor) Array() (avroxform.Iterator, error) {
	return c.list("array")
}

func (c *cursor) TerseRecord() (avroxform.Iterator, error) {
	return c.list("terse record")
}

func (c *cursor) list(want string) (*listIter, error) {
	n, err := c.arrayLen(want)
	if err != nil {
		return nil, err
	}
	if err := c.st.enter(); err != nil {
		return nil, err
	}
	return &listIter{cursor: *c, left: n}, nil
}

func (c *cursor) Map() (avroxform.MapIterator, error) {
	return c.entries("map", false)
}

func (c *cursor) VerboseRecord() (avroxform.FieldIterator, error) {
	return c.entries("record", true)
}

func (c *cursor) entries(want string, tagged bool) (*entryIter, error) {
	n, err := c.mapLen(want)
	if err != nil {
		return nil, err
	}
	if err := c.st.enter(); err != nil {
		return nil, err
	}
	return &entryIter{cursor: *c, left: n, tagged: tagged}, nil
}

func (c *cursor) Union() (avroxform.UnionReader, error) {
	code, err := c.peek("union")
	if err != nil {
		return nil, err
	}
	switch {
	case code == msgpcode.Nil:
		return &unionReader{cursor: *c, tag: avroxform.NameTag("null")}, nil
	case isMap(code):
		n, err := c.mapLen("union")
		if err != nil {
			return nil, err
		}
		if n != 1 {
			return nil, errors.New(errors.PhaseParse, errors.KindTypeMismatch).
				Input("map").
				Schema("union").
				Detail("union map needs exactly one entry, got %d", n).
				Build()
		}
	case isArray(code):
		n, err := c.arrayLen("union")
		if err != nil {
			return nil, err
		}
		if n != 2 {
			return nil, errors.New(errors.PhaseParse, errors.KindTypeMismatch).
				Input("array").
				Schema("union").
				Detail("union pair needs 2 items, got %d", n).
				Build()
		}
	default:
		return nil, mismatch(code, "union")
	}
	if err := c.st.enter(); err != nil {
		return nil, err
	}
	tag, err := c.readTag("union tag")
	if err != nil {
		return nil, err
	}
	return &unionReader{cursor: *c, tag: tag, entered: true}, nil
}

type listIter struct {
	cursor
	left int
}

func (l *listIter) Next() (bool, error) {
	if l.left <= 0 {
		return false, nil
	}
	l.left--
	return true, nil
}

// Close skips unread items.
func (l *listIter) Close() error {
	for ; l.left > 0; l.left-- {
		if err := l.ConsumeAny(); err != nil {
			return err
		}
	}
	l.st.leave()
	return nil
}

type entryIter struct {
	cursor
	key    string
	tag    avroxform.Tag
	left   int
	tagged bool
}

func (e *entryIter) Next() (bool, error) {
	if e.left <= 0 {
		return false, nil
	}
	e.left--
	if e.tagged {
		tag, err := e.readTag("field tag")
		if err != nil {
			return false, err
		}
		e.tag, e.key = tag, tag.Name
		return true, nil
	}
	key, err := e.ConsumeString()
	if err != nil {
		return false, err
	}
	e.key, e.tag = key, avroxform.NameTag(key)
	return true, nil
}

func (e *entryIter) Key() string { return e.key }

func (e *entryIter) Tag() avroxform.Tag { return e.tag }

// Close skips unread entries.
func (e *entryIter) Close() error {
	for ; e.left > 0; e.left-- {
		if err := e.ConsumeAny(); err != nil {
			return err
		}
		if err := e.ConsumeAny(); err != nil {
			return err
		}
	}
	e.st.leave()
	return nil
}

type unionReader struct {
	cursor
	tag     avroxform.Tag
	entered bool
}

func (u *unionReader) Tag() avroxform.Tag { return u.tag }

func (u *unionReader) Close() error {
	if u.entered {
		u.st.leave()
	}
	return nil
}
