// Package bitset implements the presence bitmap used to track which
// fields of a record were supplied.
//
// Ranges are claimed and released in stack order. A verbose record
// claims one bit per field while it is being read and releases the range
// when done; a partial update claims one range for the whole flattened
// record and keeps it so the supplied fields can be read back.
//
// This package is internal to the transcoder.
package bitset
