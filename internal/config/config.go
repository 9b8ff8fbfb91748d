package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"ftk/internal/fsutil"
)

// Ensure loads the project manifest, creating a default one on first
// use.
func Ensure(projectRoot string) (Manifest, error) {
	m, err := Load(projectRoot)
	if err == nil {
		return m, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return Manifest{}, err
	}
	m = DefaultManifest()
	if err := Save(projectRoot, m); err != nil {
		return Manifest{}, err
	}
	return m, nil
}

func Load(projectRoot string) (Manifest, error) {
	data, err := os.ReadFile(ManifestPath(projectRoot))
	if err != nil {
		return Manifest{}, err
	}
	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("CFG_PARSE: %w", err)
	}
	m = Normalize(m)
	if err := Validate(m); err != nil {
		return Manifest{}, err
	}
	return m, nil
}

func Save(projectRoot string, m Manifest) error {
	m = Normalize(m)
	if err := Validate(m); err != nil {
		return err
	}
	blob, err := toml.Marshal(m)
	if err != nil {
		return fmt.Errorf("CFG_ENCODE: %w", err)
	}
	return fsutil.AtomicWrite(ManifestPath(projectRoot), blob, 0o644)
}
