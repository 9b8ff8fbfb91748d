// Package doctor runs project health checks: manifest and lock
// validity, presence of the launchers the selected servers need, and
// completeness of collected secrets.
package doctor

import (
	"context"
	"os/exec"
	"strings"

	"ftk/internal/catalog"
	"ftk/internal/config"
	"ftk/internal/registry"
	"ftk/internal/secrets"
	"ftk/internal/store"
)

type Finding struct {
	Code    string `json:"code"`
	Level   string `json:"level"`
	Message string `json:"message"`
}

type LauncherStatus struct {
	Name      string `json:"name"`
	Available bool   `json:"available"`
	Version   string `json:"version,omitempty"`
}

type Report struct {
	Healthy   bool             `json:"healthy"`
	Findings  []Finding        `json:"findings"`
	Launchers []LauncherStatus `json:"launchers,omitempty"`
}

type Service struct {
	ProjectRoot string

	// LookPath is swappable in tests; defaults to exec.LookPath.
	LookPath func(name string) (string, error)
}

func (s *Service) lookPath(name string) (string, error) {
	if s.LookPath != nil {
		return s.LookPath(name)
	}
	return exec.LookPath(name)
}

func (s *Service) Run(ctx context.Context) Report {
	findings := []Finding{}

	manifest, err := config.Load(s.ProjectRoot)
	if err != nil {
		findings = append(findings, Finding{Code: "DOC_MANIFEST_INVALID", Level: "error", Message: err.Error()})
	}

	if _, diag := store.LoadLockfile(s.ProjectRoot); diag != "" {
		findings = append(findings, Finding{Code: "DOC_LOCK_INVALID", Level: "warn", Message: diag})
	}

	if _, err := store.LoadState(s.ProjectRoot); err != nil {
		findings = append(findings, Finding{Code: "DOC_STATE_INVALID", Level: "error", Message: err.Error()})
	}

	launchers, launcherFindings := s.probeLaunchers(ctx, manifest)
	findings = append(findings, launcherFindings...)

	findings = append(findings, s.checkSecrets(manifest)...)

	healthy := true
	for _, f := range findings {
		if f.Level == "error" {
			healthy = false
			break
		}
	}
	return Report{Healthy: healthy, Findings: findings, Launchers: launchers}
}

// probeLaunchers checks only the launchers the manifest actually
// needs: npx for npm servers, uvx for pypi servers.
func (s *Service) probeLaunchers(ctx context.Context, m config.Manifest) ([]LauncherStatus, []Finding) {
	needed := map[string]struct{}{}
	for _, entry := range m.Servers {
		srv, ok := catalog.Find(entry.ID)
		if !ok {
			continue
		}
		if srv.Registry == registry.Npm {
			needed[string(catalog.LauncherNpx)] = struct{}{}
		} else {
			needed[string(catalog.LauncherUvx)] = struct{}{}
		}
	}

	var statuses []LauncherStatus
	var findings []Finding
	for _, name := range []string{string(catalog.LauncherNpx), string(catalog.LauncherUvx)} {
		if _, ok := needed[name]; !ok {
			continue
		}
		if _, err := s.lookPath(name); err != nil {
			statuses = append(statuses, LauncherStatus{Name: name})
			findings = append(findings, Finding{
				Code:    "DOC_LAUNCHER_MISSING",
				Level:   "error",
				Message: name + " not found on PATH but required by configured servers",
			})
			continue
		}
		statuses = append(statuses, LauncherStatus{Name: name, Available: true, Version: probeVersion(ctx, name)})
	}
	return statuses, findings
}

func probeVersion(ctx context.Context, name string) string {
	out, err := exec.CommandContext(ctx, name, "--version").Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

func (s *Service) checkSecrets(m config.Manifest) []Finding {
	sec, err := secrets.Load(s.ProjectRoot)
	if err != nil {
		return []Finding{{Code: "DOC_SECRETS_INVALID", Level: "error", Message: err.Error()}}
	}
	var findings []Finding
	for _, entry := range m.Servers {
		srv, ok := catalog.Find(entry.ID)
		if !ok {
			continue
		}
		for _, envVar := range secrets.Missing(sec, srv.RequiredSecrets()) {
			findings = append(findings, Finding{
				Code:    "DOC_SECRET_MISSING",
				Level:   "warn",
				Message: envVar + " not collected for server " + entry.ID,
			})
		}
	}
	return findings
}
