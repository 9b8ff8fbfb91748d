package catalog

import (
	"sort"
	"strings"
	"testing"

	"ftk/internal/registry"
)

func TestAllIsSortedAndNonEmpty(t *testing.T) {
	all := All()
	if len(all) == 0 {
		t.Fatalf("expected a non-empty catalog")
	}
	if !sort.SliceIsSorted(all, func(i, j int) bool { return all[i].ID < all[j].ID }) {
		t.Fatalf("expected catalog sorted by id")
	}
}

func TestCatalogEntriesAreComplete(t *testing.T) {
	seen := map[string]struct{}{}
	for _, s := range All() {
		if s.ID == "" || s.Name == "" || s.PackageName == "" || s.DocsURL == "" {
			t.Fatalf("incomplete catalog entry: %+v", s)
		}
		if _, ok := seen[s.ID]; ok {
			t.Fatalf("duplicate catalog id %q", s.ID)
		}
		seen[s.ID] = struct{}{}
		if s.Registry != registry.Npm && s.Registry != registry.PyPI {
			t.Fatalf("server %q has unsupported registry %q", s.ID, s.Registry)
		}
		switch {
		case s.Registry == registry.Npm && s.Launcher != LauncherNpx:
			t.Fatalf("npm server %q must launch via npx", s.ID)
		case s.Registry == registry.PyPI && s.Launcher != LauncherUvx:
			t.Fatalf("pypi server %q must launch via uvx", s.ID)
		}
	}
}

func TestFind(t *testing.T) {
	s, ok := Find("github")
	if !ok {
		t.Fatalf("expected github in catalog")
	}
	if s.Registry != registry.Npm {
		t.Fatalf("expected github on npm, got %q", s.Registry)
	}
	if _, ok := Find("no-such-server"); ok {
		t.Fatalf("expected miss for unknown id")
	}
}

func TestCommandVersioning(t *testing.T) {
	gh, _ := Find("github")
	cmd, args := gh.Command("1.2.5")
	if cmd != "npx" {
		t.Fatalf("expected npx, got %q", cmd)
	}
	if !contains(args, "@modelcontextprotocol/server-github@1.2.5") {
		t.Fatalf("expected versioned npm spec, got %v", args)
	}

	fetch, _ := Find("fetch")
	cmd, args = fetch.Command("0.4.1")
	if cmd != "uvx" {
		t.Fatalf("expected uvx, got %q", cmd)
	}
	if !contains(args, "mcp-server-fetch==0.4.1") {
		t.Fatalf("expected pinned pypi spec, got %v", args)
	}

	cmd, args = fetch.Command("")
	if cmd != "uvx" || !contains(args, "mcp-server-fetch") {
		t.Fatalf("expected bare package for unresolved version, got %s %v", cmd, args)
	}
	for _, a := range args {
		if strings.Contains(a, "==") {
			t.Fatalf("unresolved version must not pin: %v", args)
		}
	}
}

func TestRequiredSecrets(t *testing.T) {
	slack, _ := Find("slack")
	got := slack.RequiredSecrets()
	if len(got) != 2 {
		t.Fatalf("expected 2 required secrets, got %v", got)
	}
	fs, _ := Find("filesystem")
	if len(fs.RequiredSecrets()) != 0 {
		t.Fatalf("expected filesystem to need no secrets")
	}
}

func contains(items []string, want string) bool {
	for _, it := range items {
		if it == want {
			return true
		}
	}
	return false
}
