// Package render produces the downstream host configuration document
// from the project manifest and lock. Resolved versions are baked into
// the launcher invocation; servers that resolution left open are
// emitted unversioned so the launcher falls back to its own default.
package render

import (
	"fmt"
	"os"
	"sort"

	"github.com/goccy/go-yaml"

	"ftk/internal/catalog"
	"ftk/internal/config"
	"ftk/internal/fsutil"
	"ftk/internal/store"
)

type HostDoc struct {
	Servers map[string]HostServer `yaml:"servers"`
}

type HostServer struct {
	Command string            `yaml:"command"`
	Args    []string          `yaml:"args,omitempty"`
	Env     map[string]string `yaml:"env,omitempty"`
}

// Build assembles the host document. The returned notes name servers
// rendered without a pinned version.
func Build(m config.Manifest, lock store.Lockfile) (HostDoc, []string, error) {
	doc := HostDoc{Servers: make(map[string]HostServer, len(m.Servers))}
	var notes []string
	for _, entry := range m.Servers {
		srv, ok := catalog.Find(entry.ID)
		if !ok {
			return HostDoc{}, nil, fmt.Errorf("RDR_SERVER: unknown server %q", entry.ID)
		}
		version := ""
		if locked, ok := store.GetLock(lock, entry.ID); ok {
			version = locked.ResolvedVersion
		}
		if version == "" {
			notes = append(notes, entry.ID)
		}
		command, args := srv.Command(version)
		hs := HostServer{Command: command, Args: args}
		if len(srv.Secrets) > 0 {
			hs.Env = make(map[string]string, len(srv.Secrets))
			for _, sec := range srv.Secrets {
				// Placeholder only; the value stays in ftk.secrets.yaml.
				hs.Env[sec.EnvVar] = fmt.Sprintf("${%s}", sec.EnvVar)
			}
		}
		doc.Servers[entry.ID] = hs
	}
	sort.Strings(notes)
	return doc, notes, nil
}

// Write serializes doc to the manifest's host config path, refusing to
// replace a file ftk does not own. Returns the written path.
func Write(projectRoot string, m config.Manifest, doc HostDoc) (string, error) {
	path := config.HostConfigPath(projectRoot, m)
	if existing, err := os.ReadFile(path); err == nil && !fsutil.IsManagedFile(existing) {
		return "", fmt.Errorf("RDR_UNMANAGED: %s exists and was not generated by ftk", path)
	}
	body, err := yaml.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("RDR_ENCODE: %w", err)
	}
	blob := append([]byte(fsutil.ManagedMarker+" (generated, do not edit by hand)\n"), body...)
	if err := fsutil.AtomicWrite(path, blob, 0o644); err != nil {
		return "", err
	}
	return path, nil
}
