// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// ProjectStatus tracks how far a project has progressed through its
// lifecycle. Statuses only advance; a write that would move a project to
// an earlier stage is dropped.
type ProjectStatus string

const (
	StatusCreated          ProjectStatus = "created"
	StatusSearchComplete   ProjectStatus = "search_complete"
	StatusDownloadComplete ProjectStatus = "download_complete"
)

// statusRank orders statuses for monotonicity checks. Unknown statuses
// rank lowest so a recognized status is never replaced by garbage.
func statusRank(s ProjectStatus) int {
	switch s {
	case StatusCreated:
		return 1
	case StatusSearchComplete:
		return 2
	case StatusDownloadComplete:
		return 3
	default:
		return 0
	}
}

// Advances reports whether moving from s to next is a forward transition.
func (s ProjectStatus) Advances(next ProjectStatus) bool {
	return statusRank(next) > statusRank(s)
}

// ProjectMetadata is the metadata.json document stored in each project
// directory. Field names match the on-disk layout.
type ProjectMetadata struct {
	// ProjectID is the directory name: project_<timestamp>_<query hash>.
	ProjectID string `json:"project_id"`

	// Query is the search expression the project was created for.
	Query string `json:"query"`

	// OwnerID identifies the user who issued the search.
	OwnerID string `json:"user_id"`

	// CreatedAt and UpdatedAt are RFC 3339 timestamps.
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at,omitempty"`

	// PapersFound is the result count persisted at search time.
	PapersFound int `json:"papers_found"`

	// PapersDownloaded is the PDF count persisted at download time.
	PapersDownloaded int `json:"papers_downloaded"`

	// Status is the lifecycle stage.
	Status ProjectStatus `json:"status"`
}
