package store

import "time"

const (
	// LockFormatVersion is the on-disk lock format identifier.
	LockFormatVersion = "1"

	StateVersion = 1
)

// Lockfile is the in-memory record of resolved package versions, keyed
// by server id. Values are snapshots: store functions return new
// Lockfile values instead of mutating their input.
type Lockfile struct {
	FormatVersion string
	UpdatedAt     time.Time
	Entries       map[string]LockEntry
}

// LockEntry pins one package. ResolvedVersion satisfied Constraint at
// the moment the entry was written, unless Constraint is "latest".
type LockEntry struct {
	PackageName     string
	Registry        string
	Constraint      string
	ResolvedVersion string
	ResolvedAt      time.Time
}

// State records which servers are installed into the project.
type State struct {
	Version int               `toml:"version"`
	Servers []InstalledServer `toml:"servers"`
}

type InstalledServer struct {
	ID          string    `toml:"id"`
	PackageName string    `toml:"package_name"`
	Registry    string    `toml:"registry"`
	Version     string    `toml:"version,omitempty"`
	InstalledAt time.Time `toml:"installed_at"`
}
