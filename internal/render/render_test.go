package render

import (
	"os"
	"strings"
	"testing"

	"ftk/internal/config"
	"ftk/internal/store"
)

func manifestWith(t *testing.T, ids ...string) config.Manifest {
	t.Helper()
	m := config.DefaultManifest()
	for _, id := range ids {
		if err := config.AddServer(&m, config.ServerEntry{ID: id}); err != nil {
			t.Fatalf("add server %q failed: %v", id, err)
		}
	}
	return m
}

func TestBuildUsesLockedVersions(t *testing.T) {
	m := manifestWith(t, "github", "fetch")
	lock := store.UpsertLock(store.NewLockfile(), "github", store.LockEntry{
		PackageName:     "@modelcontextprotocol/server-github",
		Registry:        "npm",
		Constraint:      "latest",
		ResolvedVersion: "1.2.5",
	})

	doc, notes, err := Build(m, lock)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	gh := doc.Servers["github"]
	if gh.Command != "npx" {
		t.Fatalf("expected npx command, got %q", gh.Command)
	}
	if !hasArg(gh.Args, "@modelcontextprotocol/server-github@1.2.5") {
		t.Fatalf("expected locked version in args, got %v", gh.Args)
	}
	if gh.Env["GITHUB_PERSONAL_ACCESS_TOKEN"] != "${GITHUB_PERSONAL_ACCESS_TOKEN}" {
		t.Fatalf("expected env placeholder, got %v", gh.Env)
	}

	// fetch has no lock entry: unversioned, and noted.
	fetch := doc.Servers["fetch"]
	if !hasArg(fetch.Args, "mcp-server-fetch") {
		t.Fatalf("expected bare package, got %v", fetch.Args)
	}
	if len(notes) != 1 || notes[0] != "fetch" {
		t.Fatalf("expected fetch noted as unpinned, got %v", notes)
	}
}

func TestBuildRejectsUnknownServer(t *testing.T) {
	m := config.DefaultManifest()
	m.Servers = []config.ServerEntry{{ID: "mystery"}}
	if _, _, err := Build(m, store.NewLockfile()); err == nil {
		t.Fatalf("expected unknown server to fail")
	}
}

func TestWriteStampsMarkerAndRoundTrips(t *testing.T) {
	root := t.TempDir()
	m := manifestWith(t, "time")
	doc, _, err := Build(m, store.NewLockfile())
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	path, err := Write(root, m, doc)
	if err != nil {
		t.Fatalf("write failed: %v", err)
	}
	blob, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if !strings.HasPrefix(string(blob), "# ftk:managed") {
		t.Fatalf("expected managed marker header, got:\n%s", blob)
	}
	if !strings.Contains(string(blob), "mcp-server-time") {
		t.Fatalf("expected time server in document:\n%s", blob)
	}
}

func TestWriteRefusesForeignFile(t *testing.T) {
	root := t.TempDir()
	m := manifestWith(t, "time")
	path := config.HostConfigPath(root, m)
	if err := os.WriteFile(path, []byte("servers: {}\n"), 0o644); err != nil {
		t.Fatalf("seed file failed: %v", err)
	}
	doc, _, err := Build(m, store.NewLockfile())
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if _, err := Write(root, m, doc); err == nil {
		t.Fatalf("expected refusal to overwrite unmanaged file")
	}
}

func TestWriteOverwritesManagedFile(t *testing.T) {
	root := t.TempDir()
	m := manifestWith(t, "time")
	doc, _, err := Build(m, store.NewLockfile())
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if _, err := Write(root, m, doc); err != nil {
		t.Fatalf("first write failed: %v", err)
	}
	if _, err := Write(root, m, doc); err != nil {
		t.Fatalf("rewrite of managed file failed: %v", err)
	}
}

func hasArg(args []string, want string) bool {
	for _, a := range args {
		if a == want {
			return true
		}
	}
	return false
}
