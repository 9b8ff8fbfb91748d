package store

import (
	"fmt"
	"os"
	"sort"

	"github.com/pelletier/go-toml/v2"

	"ftk/internal/fsutil"
)

func LoadState(projectRoot string) (State, error) {
	if err := EnsureLayout(projectRoot); err != nil {
		return State{}, err
	}
	blob, err := os.ReadFile(StatePath(projectRoot))
	if err != nil {
		if os.IsNotExist(err) {
			return State{Version: StateVersion}, nil
		}
		return State{}, err
	}
	var st State
	if err := toml.Unmarshal(blob, &st); err != nil {
		return State{}, fmt.Errorf("STA_PARSE: %w", err)
	}
	if st.Version == 0 {
		st.Version = StateVersion
	}
	if st.Version != StateVersion {
		return State{}, fmt.Errorf("STA_VERSION: unsupported state version %d", st.Version)
	}
	for i := range st.Servers {
		if st.Servers[i].ID == "" {
			return State{}, fmt.Errorf("STA_SCHEMA: server entry missing id")
		}
	}
	return st, nil
}

func SaveState(projectRoot string, st State) error {
	if err := EnsureLayout(projectRoot); err != nil {
		return err
	}
	st.Version = StateVersion
	sort.Slice(st.Servers, func(i, j int) bool {
		return st.Servers[i].ID < st.Servers[j].ID
	})
	blob, err := toml.Marshal(st)
	if err != nil {
		return fmt.Errorf("STA_ENCODE: %w", err)
	}
	return fsutil.AtomicWrite(StatePath(projectRoot), blob, 0o644)
}

func UpsertServer(st *State, rec InstalledServer) {
	for i := range st.Servers {
		if st.Servers[i].ID == rec.ID {
			st.Servers[i] = rec
			return
		}
	}
	st.Servers = append(st.Servers, rec)
}

func RemoveServer(st *State, id string) bool {
	for i := range st.Servers {
		if st.Servers[i].ID == id {
			st.Servers = append(st.Servers[:i], st.Servers[i+1:]...)
			return true
		}
	}
	return false
}
