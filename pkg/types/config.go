package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout. Every outbound call is bounded
	// by it so one hung paper cannot stall a whole batch.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "research-assistant/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// SearchConfig holds settings for the PubMed search stage. The requested
// result count travels on the query itself, clamped to MaxResultsCap.
type SearchConfig struct {
	HTTPConfig `yaml:",inline"`

	// APIKey is an optional NCBI E-utilities key for higher rate limits.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
}

// MaxResultsCap is the hard upper bound on results per search.
const MaxResultsCap = 50

// AcquisitionConfig holds settings for the PDF acquisition stage.
type AcquisitionConfig struct {
	HTTPConfig `yaml:",inline"`

	// Email is the contact address the Unpaywall API requires on every
	// lookup request.
	Email string `json:"email" yaml:"email"`

	// DownloadDelay is the delay between consecutive download attempts.
	DownloadDelay time.Duration `json:"download_delay" yaml:"download_delay"`
}

// StoreConfig holds settings for the project store.
type StoreConfig struct {
	// BaseDir is the directory that holds all project directories
	// (default "research_projects").
	BaseDir string `json:"base_dir" yaml:"base_dir"`
}

// LibraryConfig holds settings for the cross-project paper index.
type LibraryConfig struct {
	// BaseDir is the project store base directory the index is built from.
	BaseDir string `json:"base_dir" yaml:"base_dir"`

	// IndexDir is the directory holding the SQLite database and exports
	// (default "<BaseDir>/index").
	IndexDir string `json:"index_dir" yaml:"index_dir"`

	// MaxResults is the default maximum number of query results (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}
