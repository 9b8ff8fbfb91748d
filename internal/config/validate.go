package config

import (
	"fmt"

	"ftk/internal/catalog"
	"ftk/internal/semver"
)

func Validate(m Manifest) error {
	if m.Version != SchemaVersion {
		return fmt.Errorf("CFG_VERSION: unsupported version %d", m.Version)
	}
	seen := map[string]struct{}{}
	for _, e := range m.Servers {
		if e.ID == "" {
			return fmt.Errorf("CFG_SERVER: server id is required")
		}
		if _, ok := seen[e.ID]; ok {
			return fmt.Errorf("CFG_SERVER: duplicate server %q", e.ID)
		}
		seen[e.ID] = struct{}{}
		if _, ok := catalog.Find(e.ID); !ok {
			return fmt.Errorf("CFG_SERVER: unknown server %q", e.ID)
		}
		if e.Constraint != "" {
			if err := semver.CheckConstraint(e.Constraint); err != nil {
				return fmt.Errorf("CFG_SERVER: server %q: %w", e.ID, err)
			}
		}
	}
	return nil
}
