package transcoder

import (
	"github.com/wippyai/avro-xform/codec/msgpack"
	"github.com/wippyai/avro-xform/codec/tree"
)

// Tree runs op over a Go tree of maps, slices and scalars and returns
// the resulting tree.
func (t *Transcoder) Tree(op Op, in any) (any, error) {
	e := tree.NewEmitter()
	if err := t.Run(op, tree.NewParser(in, t.opts.maxDepth()), e); err != nil {
		return nil, err
	}
	return e.Result()
}

// Msgpack runs op over one MessagePack encoded value. Trailing bytes
// after the value are an error.
func (t *Transcoder) Msgpack(op Op, in []byte) ([]byte, error) {
	e := msgpack.NewEmitter()
	if err := t.Run(op, msgpack.NewParser(in, t.opts.maxDepth()), e); err != nil {
		return nil, err
	}
	return e.Bytes()
}

// FlattenTree converts a verbose Go tree to its terse form.
func (t *Transcoder) FlattenTree(in any) (any, error) { return t.Tree(OpFlatten, in) }

// UnflattenTree converts a terse Go tree to its verbose form.
func (t *Transcoder) UnflattenTree(in any) (any, error) { return t.Tree(OpUnflatten, in) }

// XFlattenTree converts a verbose partial Go tree to update operations.
func (t *Transcoder) XFlattenTree(in any) (any, error) { return t.Tree(OpXFlatten, in) }
