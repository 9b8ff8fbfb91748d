package store

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"ftk/internal/fsutil"
)

// lockDoc is the on-disk shape of ftk.lock. Entry fields use the file
// convention (underscore names, RFC 3339 timestamp strings); the
// translation to the in-memory Lockfile happens only here.
type lockDoc struct {
	Version string                  `toml:"version"`
	Updated string                  `toml:"updated,omitempty"`
	Servers map[string]lockEntryDoc `toml:"servers,omitempty"`
}

type lockEntryDoc struct {
	PackageName     string `toml:"package_name"`
	Registry        string `toml:"registry"`
	Constraint      string `toml:"constraint"`
	ResolvedVersion string `toml:"resolved_version"`
	ResolvedAt      string `toml:"resolved_at,omitempty"`
}

// NewLockfile returns an empty lock at the current format version.
func NewLockfile() Lockfile {
	return Lockfile{FormatVersion: LockFormatVersion, Entries: map[string]LockEntry{}}
}

// LoadLockfile reads the project lock. A missing file yields a fresh
// default. A file that fails schema validation also yields a default,
// with a non-empty diagnostic describing what was wrong; the caller
// decides how loudly to report it.
func LoadLockfile(projectRoot string) (Lockfile, string) {
	path := LockPath(projectRoot)
	blob, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewLockfile(), ""
		}
		return NewLockfile(), fmt.Sprintf("LCK_READ: %v", err)
	}
	var doc lockDoc
	if err := toml.Unmarshal(blob, &doc); err != nil {
		return NewLockfile(), fmt.Sprintf("LCK_PARSE: %v", err)
	}
	if doc.Version == "" {
		doc.Version = LockFormatVersion
	}
	if doc.Version != LockFormatVersion {
		return NewLockfile(), fmt.Sprintf("LCK_VERSION: unsupported lock format %q", doc.Version)
	}
	lock := Lockfile{FormatVersion: doc.Version, Entries: make(map[string]LockEntry, len(doc.Servers))}
	lock.UpdatedAt = parseStamp(doc.Updated)
	for id, e := range doc.Servers {
		if id == "" {
			return NewLockfile(), "LCK_SCHEMA: empty server id"
		}
		if e.PackageName == "" || e.Registry == "" || e.ResolvedVersion == "" || e.Constraint == "" {
			return NewLockfile(), fmt.Sprintf("LCK_SCHEMA: incomplete record for %q", id)
		}
		lock.Entries[id] = LockEntry{
			PackageName:     e.PackageName,
			Registry:        e.Registry,
			Constraint:      e.Constraint,
			ResolvedVersion: e.ResolvedVersion,
			ResolvedAt:      parseStamp(e.ResolvedAt),
		}
	}
	return lock, ""
}

// SaveLockfile stamps UpdatedAt and rewrites the whole lock file
// atomically. Map keys serialize sorted, keeping diffs stable.
func SaveLockfile(projectRoot string, lock Lockfile) error {
	doc := lockDoc{
		Version: LockFormatVersion,
		Updated: time.Now().UTC().Format(time.RFC3339),
		Servers: make(map[string]lockEntryDoc, len(lock.Entries)),
	}
	for id, e := range lock.Entries {
		doc.Servers[id] = lockEntryDoc{
			PackageName:     e.PackageName,
			Registry:        e.Registry,
			Constraint:      e.Constraint,
			ResolvedVersion: e.ResolvedVersion,
			ResolvedAt:      formatStamp(e.ResolvedAt),
		}
	}
	blob, err := toml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("LCK_ENCODE: %w", err)
	}
	return fsutil.AtomicWrite(LockPath(projectRoot), blob, 0o644)
}

func GetLock(lock Lockfile, serverID string) (LockEntry, bool) {
	e, ok := lock.Entries[serverID]
	return e, ok
}

// UpsertLock returns a copy of lock with the entry set and its
// ResolvedAt stamped to now. The input is left untouched.
func UpsertLock(lock Lockfile, serverID string, entry LockEntry) Lockfile {
	entry.ResolvedAt = time.Now().UTC()
	out := cloneLock(lock)
	out.Entries[serverID] = entry
	return out
}

// RemoveLock returns a copy of lock without the entry for serverID.
func RemoveLock(lock Lockfile, serverID string) Lockfile {
	out := cloneLock(lock)
	delete(out.Entries, serverID)
	return out
}

func cloneLock(lock Lockfile) Lockfile {
	out := Lockfile{
		FormatVersion: lock.FormatVersion,
		UpdatedAt:     lock.UpdatedAt,
		Entries:       make(map[string]LockEntry, len(lock.Entries)),
	}
	if out.FormatVersion == "" {
		out.FormatVersion = LockFormatVersion
	}
	for id, e := range lock.Entries {
		out.Entries[id] = e
	}
	return out
}

func parseStamp(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}

func formatStamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
