// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"encoding/json"
	"fmt"
	"io"
)

// unpaywallAPIBase is the Unpaywall lookup endpoint. Declared as a var so
// tests can substitute an httptest server.
var unpaywallAPIBase = "https://api.unpaywall.org/v2/"

// unpaywallURL builds the DOI lookup URL. Unpaywall requires a contact
// email on every request.
func unpaywallURL(doi, email string) string {
	return unpaywallAPIBase + doi + "?email=" + email
}

// unpaywallResponse captures the fields we need from an Unpaywall record.
type unpaywallResponse struct {
	IsOA           bool               `json:"is_oa"`
	BestOALocation *unpaywallLocation `json:"best_oa_location"`
}

// unpaywallLocation represents one open-access location in the response.
type unpaywallLocation struct {
	URLForPDF string `json:"url_for_pdf"`
}

// parseUnpaywall decodes an Unpaywall record and returns the best
// open-access PDF URL, or "" when the paper is not open access or no
// location carries a direct PDF link.
func parseUnpaywall(r io.Reader) (string, error) {
	var ur unpaywallResponse
	if err := json.NewDecoder(r).Decode(&ur); err != nil {
		return "", fmt.Errorf("parsing Unpaywall response: %w", err)
	}
	if !ur.IsOA || ur.BestOALocation == nil {
		return "", nil
	}
	return ur.BestOALocation.URLForPDF, nil
}
