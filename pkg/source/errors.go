// ABOUTME: Error definitions for ontology source decoding
// ABOUTME: Decoders wrap these with the offending line or record

package source

import "errors"

var (
	// ErrUnknownFormat is returned for a format name or file that cannot be classified
	ErrUnknownFormat = errors.New("source: unknown format")

	// ErrBadHeader is returned when a CSV header lacks a required column
	ErrBadHeader = errors.New("source: bad csv header")

	// ErrSyntax is returned for input that does not parse in its format
	ErrSyntax = errors.New("source: syntax error")
)
