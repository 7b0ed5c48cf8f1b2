// Package layout computes the flattened geometry of Avro records.
//
// Flattening inlines nested records into their parent's positional
// sequence. For every record the Calculator records where each field's
// slots start and where each nested record's presence bits start.
//
// # Layout Rules
//
//   - Unions take 2 slots: discriminant then payload
//   - Nested records take their own FullSize slots, inlined
//   - Everything else, arrays and maps included, takes 1 slot
//   - A record's own fields take bits 0..n-1 of its bitmap region;
//     nested records' regions follow in field order
//
// # Usage
//
//	c := layout.NewCalculator()
//	if err := c.Annotate(s); err != nil { ... }
//	info, _ := c.Lookup(rec)
//	// info.ItemOffsets, info.FullSize available
//
// This package is internal to the transcoder.
package layout
