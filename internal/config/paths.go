package config

import "path/filepath"

func ManifestPath(projectRoot string) string {
	return filepath.Join(projectRoot, "ftk.toml")
}

func HostConfigPath(projectRoot string, m Manifest) string {
	name := m.HostConfig
	if name == "" {
		name = DefaultHostConfig
	}
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(projectRoot, name)
}

func SecretsPath(projectRoot string) string {
	return filepath.Join(projectRoot, "ftk.secrets.yaml")
}
