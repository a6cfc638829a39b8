package ontology

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyInput indicates a load was attempted with zero records
	ErrEmptyInput = errors.New("ontology: empty input")

	// ErrMalformedRecord indicates a record is missing a required field
	ErrMalformedRecord = errors.New("ontology: malformed record")

	// ErrForeignKey indicates a key issued by a different generation
	ErrForeignKey = errors.New("ontology: key from another generation")
)

// LoadError reports why a load was rejected. Index is -1 when the failure
// is not tied to a single record.
type LoadError struct {
	Index int
	Field string
	Err   error
}

func (e *LoadError) Error() string {
	if e.Index < 0 {
		return e.Err.Error()
	}
	return fmt.Sprintf("%v: record %d: missing %s", e.Err, e.Index, e.Field)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// KeyError is raised when a key is used against a store that did not issue it
type KeyError struct {
	Key        Key
	Generation uint32
}

func (e *KeyError) Error() string {
	return fmt.Sprintf("%v: key %s used with generation %d", ErrForeignKey, e.Key, e.Generation)
}

func (e *KeyError) Unwrap() error {
	return ErrForeignKey
}
