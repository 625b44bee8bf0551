// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package project

import (
	"crypto/md5"
	"encoding/hex"
	"time"
)

// NewProjectID builds a filesystem-safe project identifier from the
// creation time and the query: project_<UTC yyyymmdd_hhmmss>_<first 8 hex
// of md5(query)>. The digest disambiguates projects created in the same
// second for different queries; a collision within one second for the
// same digest is accepted residual risk.
func NewProjectID(query string, now time.Time) string {
	sum := md5.Sum([]byte(query))
	return "project_" + now.UTC().Format("20060102_150405") + "_" + hex.EncodeToString(sum[:])[:8]
}
