package reconcile

import "time"

// Result is the state of one tile across the local directory, the remote store and the
// download ledger of a source.
type Result struct {
	// ID is the tile identifier, e.g. N46E007.
	ID string `json:"id"`

	// LocalPresent indicates whether a tile file exists in the source directory.
	LocalPresent bool `json:"local_present"`

	// RemotePresent indicates whether the remote store lists the tile.
	RemotePresent bool `json:"remote_present"`

	// LedgerStatus is the last recorded download status, empty without a ledger row.
	LedgerStatus string `json:"ledger_status,omitempty"`
}

// ActionType is the kind of repair an action performs.
type ActionType string

const (
	// ActionDownload fetches a tile the remote store has but the directory lacks.
	ActionDownload ActionType = "download"
	// ActionForget drops ledger rows that no longer describe the directory.
	ActionForget ActionType = "forget"
)

// Action is one planned repair.
type Action struct {
	Type   ActionType `json:"type"`
	Key    string     `json:"key"`
	Reason string     `json:"reason"`
}

// Plan holds the reconciliation of one source and the repairs it needs.
type Plan struct {
	Source  string   `json:"source"`
	Results []Result `json:"results"`
	Actions []Action `json:"actions"`
	Summary Summary  `json:"summary"`
}

// Summary provides aggregate counts of a plan.
type Summary struct {
	// Total is the number of distinct tiles seen in any index.
	Total int `json:"total"`
	// Local is the number of tiles with a local file.
	Local int `json:"local"`
	// MissingLocal counts remote tiles without a local file.
	MissingLocal int `json:"missing_local"`
	// RemoteListed is false when the source cannot be listed (plain HTTP sources).
	RemoteListed bool `json:"remote_listed"`
	// StaleLedger counts ledger rows contradicted by the directory.
	StaleLedger int `json:"stale_ledger"`

	DownloadActions int `json:"download_actions"`
	ForgetActions   int `json:"forget_actions"`
}

// Options controls which repairs are planned and whether they run.
type Options struct {
	// DryRun prevents execution of any action.
	DryRun bool
	// Download plans downloads of tiles missing locally.
	Download bool
	// Forget plans removal of stale ledger rows.
	Forget bool
}

// Index is a snapshot of the three views of a source.
type Index struct {
	Local        map[string]struct{}
	Remote       map[string]struct{}
	RemoteListed bool
	Ledger       map[string]string
	Built        time.Time
	TTL          time.Duration
}

// IsExpired returns true if this index has expired based on its TTL.
func (i *Index) IsExpired() bool {
	if i.TTL == 0 {
		return true
	}
	return time.Since(i.Built) > i.TTL
}
