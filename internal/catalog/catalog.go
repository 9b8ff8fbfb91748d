// Package catalog is the fixed registry of integration servers ftk
// knows how to set up. New servers are added by extending the table,
// not by scanning a directory at runtime.
package catalog

import (
	"fmt"
	"sort"

	"ftk/internal/registry"
)

// Launcher is the runtime command used to start a server package.
type Launcher string

const (
	LauncherNpx Launcher = "npx"
	LauncherUvx Launcher = "uvx"
)

// Server describes one installable integration server.
type Server struct {
	ID          string
	Name        string
	Description string
	PackageName string
	Registry    registry.Kind
	Launcher    Launcher
	ExtraArgs   []string
	Secrets     []Secret
	DocsURL     string
}

// Secret is an environment variable the server needs at runtime.
type Secret struct {
	EnvVar   string
	Prompt   string
	Optional bool
}

var servers = []Server{
	{
		ID:          "brave-search",
		Name:        "Brave Search",
		Description: "Web search via the Brave Search API",
		PackageName: "@modelcontextprotocol/server-brave-search",
		Registry:    registry.Npm,
		Launcher:    LauncherNpx,
		Secrets:     []Secret{{EnvVar: "BRAVE_API_KEY", Prompt: "Brave Search API key"}},
		DocsURL:     "https://github.com/modelcontextprotocol/servers/tree/main/src/brave-search",
	},
	{
		ID:          "fetch",
		Name:        "Fetch",
		Description: "HTTP fetching and HTML-to-markdown conversion",
		PackageName: "mcp-server-fetch",
		Registry:    registry.PyPI,
		Launcher:    LauncherUvx,
		DocsURL:     "https://github.com/modelcontextprotocol/servers/tree/main/src/fetch",
	},
	{
		ID:          "filesystem",
		Name:        "Filesystem",
		Description: "Read and write files under allowed roots",
		PackageName: "@modelcontextprotocol/server-filesystem",
		Registry:    registry.Npm,
		Launcher:    LauncherNpx,
		ExtraArgs:   []string{"."},
		DocsURL:     "https://github.com/modelcontextprotocol/servers/tree/main/src/filesystem",
	},
	{
		ID:          "git",
		Name:        "Git",
		Description: "Repository inspection and manipulation",
		PackageName: "mcp-server-git",
		Registry:    registry.PyPI,
		Launcher:    LauncherUvx,
		DocsURL:     "https://github.com/modelcontextprotocol/servers/tree/main/src/git",
	},
	{
		ID:          "github",
		Name:        "GitHub",
		Description: "Issues, pull requests and repository access",
		PackageName: "@modelcontextprotocol/server-github",
		Registry:    registry.Npm,
		Launcher:    LauncherNpx,
		Secrets:     []Secret{{EnvVar: "GITHUB_PERSONAL_ACCESS_TOKEN", Prompt: "GitHub personal access token"}},
		DocsURL:     "https://github.com/modelcontextprotocol/servers/tree/main/src/github",
	},
	{
		ID:          "postgres",
		Name:        "PostgreSQL",
		Description: "Read-only database access and schema inspection",
		PackageName: "@modelcontextprotocol/server-postgres",
		Registry:    registry.Npm,
		Launcher:    LauncherNpx,
		Secrets:     []Secret{{EnvVar: "POSTGRES_CONNECTION_STRING", Prompt: "PostgreSQL connection string"}},
		DocsURL:     "https://github.com/modelcontextprotocol/servers/tree/main/src/postgres",
	},
	{
		ID:          "slack",
		Name:        "Slack",
		Description: "Channel and message access for a Slack workspace",
		PackageName: "@modelcontextprotocol/server-slack",
		Registry:    registry.Npm,
		Launcher:    LauncherNpx,
		Secrets: []Secret{
			{EnvVar: "SLACK_BOT_TOKEN", Prompt: "Slack bot token"},
			{EnvVar: "SLACK_TEAM_ID", Prompt: "Slack team id"},
		},
		DocsURL: "https://github.com/modelcontextprotocol/servers/tree/main/src/slack",
	},
	{
		ID:          "time",
		Name:        "Time",
		Description: "Timezone-aware time lookups and conversion",
		PackageName: "mcp-server-time",
		Registry:    registry.PyPI,
		Launcher:    LauncherUvx,
		DocsURL:     "https://github.com/modelcontextprotocol/servers/tree/main/src/time",
	},
}

// All returns the catalog ordered by id.
func All() []Server {
	out := make([]Server, len(servers))
	copy(out, servers)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func Find(id string) (Server, bool) {
	for _, s := range servers {
		if s.ID == id {
			return s, true
		}
	}
	return Server{}, false
}

// RequiredSecrets lists the non-optional secret env vars for a server.
func (s Server) RequiredSecrets() []string {
	var out []string
	for _, sec := range s.Secrets {
		if !sec.Optional {
			out = append(out, sec.EnvVar)
		}
	}
	return out
}

// Command renders the launcher invocation for the server at a resolved
// version. An empty version leaves the package unversioned so the
// launcher picks its own default.
func (s Server) Command(version string) (string, []string) {
	spec := s.PackageName
	switch s.Launcher {
	case LauncherNpx:
		if version != "" {
			spec = fmt.Sprintf("%s@%s", s.PackageName, version)
		}
		args := append([]string{"-y", spec}, s.ExtraArgs...)
		return string(LauncherNpx), args
	default:
		if version != "" {
			spec = fmt.Sprintf("%s==%s", s.PackageName, version)
		}
		args := append([]string{spec}, s.ExtraArgs...)
		return string(LauncherUvx), args
	}
}
