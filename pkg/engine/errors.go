// ABOUTME: Error definitions for the resolution engine
// ABOUTME: Load failures surface as ontology.LoadError; these cover serving state

package engine

import "errors"

var (
	// ErrNotLoaded is returned by reads before the first successful load
	ErrNotLoaded = errors.New("engine: no generation loaded")

	// ErrNoSource is returned by Reload when no source path was configured
	ErrNoSource = errors.New("engine: no ontology source configured")
)
