package transcoder

import "fmt"

// DefaultMaxDepth bounds builder and visitor recursion when
// Options.MaxDepth is not set.
const DefaultMaxDepth = 512

// RecordMode selects how records are laid out on the wire.
type RecordMode uint8

const (
	// RecordsVerbose encodes records as maps keyed by field name.
	RecordsVerbose RecordMode = iota
	// RecordsTerse encodes records as lists in field declaration order.
	RecordsTerse
)

func (m RecordMode) String() string {
	switch m {
	case RecordsVerbose:
		return "verbose"
	case RecordsTerse:
		return "terse"
	}
	return fmt.Sprintf("records(%d)", m)
}

// Options configures a transformation. Options are fixed per call.
type Options struct {
	// AssumeNulTerminatedStrings truncates field, branch, symbol and map
	// key names at their first NUL.
	AssumeNulTerminatedStrings bool
	// AssumeNoEmbeddedNULs skips the check rejecting names with a NUL.
	AssumeNoEmbeddedNULs bool
	// AssumeUTF8 skips UTF-8 validation of strings and map keys.
	AssumeUTF8 bool
	// AssumeNoDuplicateMapKeys disables duplicate key detection; a
	// repeated key overwrites the earlier entry.
	AssumeNoDuplicateMapKeys bool
	// EnableFastSkip lets the parser discard fields the destination
	// schema lacks without type checking them.
	EnableFastSkip bool

	// Records selects the record layout when a Builder or Visitor is
	// used directly. The Transcoder operations pick it themselves.
	Records RecordMode
	// CollapseNested inlines nested records and unions into the
	// positional sequence of their parent terse record.
	CollapseNested bool
	// IntegerEnums encodes terse enums by symbol index.
	IntegerEnums bool
	// IntegerUnionTags encodes terse unions as [index, payload].
	IntegerUnionTags bool

	// PositionBase is added to flattened positions in update operations.
	PositionBase int
	// MaxDepth bounds value nesting. Zero selects DefaultMaxDepth.
	MaxDepth int
}

// DefaultOptions returns the configuration used by flatten, unflatten
// and xflatten when the caller has no preference.
func DefaultOptions() Options {
	return Options{
		EnableFastSkip:   true,
		CollapseNested:   true,
		IntegerEnums:     true,
		IntegerUnionTags: true,
		MaxDepth:         DefaultMaxDepth,
	}
}

func (o Options) terse() bool {
	return o.Records == RecordsTerse
}

func (o Options) maxDepth() int {
	if o.MaxDepth <= 0 {
		return DefaultMaxDepth
	}
	return o.MaxDepth
}

func (o Options) with(mode RecordMode) Options {
	o.Records = mode
	return o
}
