package transcoder

import (
	"sync"

	"go.uber.org/zap"

	avroxform "github.com/wippyai/avro-xform"
	"github.com/wippyai/avro-xform/errors"
	"github.com/wippyai/avro-xform/value"
)

// Op names one of the public transformations.
type Op uint8

const (
	OpFlatten Op = iota
	OpUnflatten
	OpXFlatten
)

var opNames = [...]string{
	OpFlatten:   "flatten",
	OpUnflatten: "unflatten",
	OpXFlatten:  "xflatten",
}

func (o Op) String() string {
	if int(o) < len(opNames) {
		return opNames[o]
	}
	return "op(?)"
}

// ParseOp maps an operation name to an Op.
func ParseOp(name string) (Op, error) {
	for i, n := range opNames {
		if n == name {
			return Op(i), nil
		}
	}
	return 0, errors.Unsupported(errors.PhaseCompile, "unknown operation "+name)
}

type schemaPair struct {
	src, dest *Schema
}

var resolvers sync.Map // schemaPair -> *value.Resolver

func resolverFor(src, dest *Schema) (*value.Resolver, error) {
	key := schemaPair{src, dest}
	if cached, ok := resolvers.Load(key); ok {
		return cached.(*value.Resolver), nil
	}
	r, err := value.NewResolver(src.avro, dest.avro)
	if err != nil {
		return nil, err
	}
	actual, _ := resolvers.LoadOrStore(key, r)
	return actual.(*value.Resolver), nil
}

// Compatible reports whether data written with src can be read as dest.
func Compatible(src, dest *Schema) error {
	_, err := resolverFor(src, dest)
	return err
}

// Transcoder converts input read against a source schema into output
// of a destination schema. It holds no per-call state and is safe for
// concurrent use.
type Transcoder struct {
	src      *Schema
	dest     *Schema
	resolver *value.Resolver
	opts     Options
}

// New creates a transcoder from src to dest. A nil dest means src.
func New(src, dest *Schema, opts Options) (*Transcoder, error) {
	if src == nil {
		return nil, errors.Internal(errors.PhaseResolve, "nil source schema")
	}
	if dest == nil {
		dest = src
	}
	r, err := resolverFor(src, dest)
	if err != nil {
		Logger().Debug("schemas incompatible",
			zap.Stringer("src", src),
			zap.Stringer("dest", dest),
			zap.Error(err))
		return nil, err
	}
	Logger().Debug("transcoder created",
		zap.Stringer("src", src),
		zap.Stringer("dest", dest),
		zap.Bool("resolving", !r.Identity()))
	return &Transcoder{src: src, dest: dest, resolver: r, opts: opts}, nil
}

// NewWithDefaults creates a transcoder with DefaultOptions.
func NewWithDefaults(src, dest *Schema) (*Transcoder, error) {
	return New(src, dest, DefaultOptions())
}

func (t *Transcoder) Source() *Schema { return t.src }

func (t *Transcoder) Dest() *Schema { return t.dest }

// Options returns the configuration.
func (t *Transcoder) Options() Options { return t.opts }

// Flatten reads a verbose value from p and emits its terse form.
func (t *Transcoder) Flatten(p avroxform.Parser, e avroxform.Emitter) error {
	return t.Run(OpFlatten, p, e)
}

// Unflatten reads a terse value from p and emits its verbose form.
func (t *Transcoder) Unflatten(p avroxform.Parser, e avroxform.Emitter) error {
	return t.Run(OpUnflatten, p, e)
}

// XFlatten reads a verbose partial record from p and emits the update
// operations for the fields it supplies.
func (t *Transcoder) XFlatten(p avroxform.Parser, e avroxform.Emitter) error {
	return t.Run(OpXFlatten, p, e)
}

// finisher is implemented by parsers that can detect trailing input.
type finisher interface {
	Done() error
}

// Run performs op. On error nothing usable was emitted and the caller
// must discard e.
func (t *Transcoder) Run(op Op, p avroxform.Parser, e avroxform.Emitter) error {
	err := t.run(op, p, e)
	if err != nil {
		Logger().Debug("transform failed",
			zap.Stringer("op", op),
			zap.String("kind", string(errors.KindOf(err))),
			zap.Error(err))
	}
	return err
}

func (t *Transcoder) run(op Op, p avroxform.Parser, e avroxform.Emitter) error {
	buildMode, visitMode := RecordsVerbose, RecordsTerse
	if op == OpUnflatten {
		buildMode, visitMode = RecordsTerse, RecordsVerbose
	}

	dest := value.New(t.dest.avro)
	w, err := t.resolver.Bind(dest)
	if err != nil {
		return err
	}

	b := NewBuilder(t.dest, t.opts.with(buildMode))
	defer b.Release()

	switch op {
	case OpFlatten, OpUnflatten:
		err = b.Build(p, w)
	case OpXFlatten:
		err = b.BuildForUpdate(p, w)
	default:
		return errors.Internal(errors.PhaseBuild, "unknown operation %d", op)
	}
	if err != nil {
		return err
	}
	if f, ok := p.(finisher); ok {
		if err := f.Done(); err != nil {
			return err
		}
	}

	v := NewVisitor(t.dest, t.opts.with(visitMode))
	if op == OpXFlatten {
		return v.VisitForUpdate(dest, e, b.Presence())
	}
	return v.Visit(dest, e)
}
