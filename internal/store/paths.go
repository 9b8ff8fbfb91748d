package store

import (
	"os"
	"path/filepath"
)

func LockPath(projectRoot string) string {
	return filepath.Join(projectRoot, "ftk.lock")
}

func StateRoot(projectRoot string) string {
	return filepath.Join(projectRoot, ".ftk")
}

func StatePath(projectRoot string) string {
	return filepath.Join(StateRoot(projectRoot), "state.toml")
}

func AuditPath(projectRoot string) string {
	return filepath.Join(StateRoot(projectRoot), "audit.log")
}

func ReleaseCachePath(projectRoot string) string {
	return filepath.Join(StateRoot(projectRoot), "release-check.toml")
}

func EnsureLayout(projectRoot string) error {
	return os.MkdirAll(StateRoot(projectRoot), 0o755)
}
