// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "errors"

// Sentinel errors shared across the core. Callers branch with errors.Is
// instead of matching message text.
var (
	// ErrNotFound marks an unknown project or a missing results document.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput marks input rejected before any network call:
	// empty keywords, out-of-range years, non-positive max results.
	ErrInvalidInput = errors.New("invalid input")
)
