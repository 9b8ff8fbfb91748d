package config

// Manifest is the frozen v1 schema of ftk.toml at a project root. It
// declares which servers the project wants and how their versions are
// constrained; resolved versions live in ftk.lock, never here.
type Manifest struct {
	Version    int           `toml:"version"`
	HostConfig string        `toml:"host_config,omitempty"`
	Servers    []ServerEntry `toml:"servers"`
}

// ServerEntry selects a catalog server. Pin is a literal version that
// bypasses resolution; Constraint restricts what resolution may pick.
type ServerEntry struct {
	ID         string `toml:"id"`
	Constraint string `toml:"constraint,omitempty"`
	Pin        string `toml:"pin,omitempty"`
}
