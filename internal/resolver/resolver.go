// Package resolver decides which concrete version to pin for each
// server package. Per request it walks a fixed priority chain:
// explicit pin, then a still-valid lock entry, then a live registry
// lookup, then unresolved. Nothing here is fatal; every degraded path
// is a warning and the caller simply gets an empty version when no
// tier produced one.
package resolver

import (
	"context"
	"io"
	"strings"

	"github.com/charmbracelet/log"

	"ftk/internal/registry"
	"ftk/internal/semver"
	"ftk/internal/store"
)

// Registry is the one registry operation the resolver needs; the
// concrete client lives in internal/registry.
type Registry interface {
	FetchLatest(ctx context.Context, name string, kind registry.Kind) (string, error)
}

// Request identifies one package to resolve. ServerID is the caller's
// internal key and may differ from PackageName.
type Request struct {
	ServerID    string
	PackageName string
	Registry    registry.Kind
	Pin         string
	Constraint  string
}

type Source string

const (
	SourcePin      Source = "pin"
	SourceLock     Source = "lock"
	SourceRegistry Source = "registry"
	SourceNone     Source = "none"
)

// Outcome carries the resolved version, or an empty Version when the
// chain bottomed out; callers treat that as "let the downstream tool
// pick its own default".
type Outcome struct {
	Version string
	Source  Source
}

func (o Outcome) Resolved() bool { return o.Version != "" }

type Service struct {
	Registry Registry
	Logger   *log.Logger
}

func (s *Service) logger() *log.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return log.New(io.Discard)
}

// Resolve runs the priority chain for one request against the project
// lock, persisting the lock whenever a pin or registry tier produced a
// version. A failed persist downgrades to a warning; the version is
// still returned.
func (s *Service) Resolve(ctx context.Context, projectRoot string, req Request) Outcome {
	lock, diag := store.LoadLockfile(projectRoot)
	if diag != "" {
		s.logger().Warn("lock file unreadable, starting from empty", "detail", diag)
	}
	out, updated, changed := s.ResolveWithLock(ctx, req, lock)
	if changed {
		if err := store.SaveLockfile(projectRoot, updated); err != nil {
			s.logger().Warn("could not persist lock file", "server", req.ServerID, "error", err)
		}
	}
	return out
}

// ResolveWithLock is Resolve against an in-memory lock snapshot. It
// returns the outcome, the (possibly updated) lock and whether the
// lock changed and needs persisting.
func (s *Service) ResolveWithLock(ctx context.Context, req Request, lock store.Lockfile) (Outcome, store.Lockfile, bool) {
	req = normalize(req)

	// Tier 1: explicit pin, no lock or registry consultation.
	if req.Pin != "" {
		s.logger().Info("using pinned version", "server", req.ServerID, "version", req.Pin)
		return s.record(Outcome{Version: req.Pin, Source: SourcePin}, req, lock)
	}

	// Tier 2: lock entry, kept only while it still satisfies the
	// active constraint. A stale entry is never returned silently.
	if entry, ok := store.GetLock(lock, req.ServerID); ok {
		ok, err := semver.Satisfies(entry.ResolvedVersion, req.Constraint)
		switch {
		case err != nil:
			s.logger().Warn("constraint not evaluable against locked version",
				"server", req.ServerID, "constraint", req.Constraint, "error", err)
		case ok:
			s.logger().Info("using locked version", "server", req.ServerID, "version", entry.ResolvedVersion)
			return Outcome{Version: entry.ResolvedVersion, Source: SourceLock}, lock, false
		default:
			s.logger().Warn("locked version no longer satisfies constraint",
				"server", req.ServerID, "locked", entry.ResolvedVersion, "constraint", req.Constraint)
		}
	}

	// Tier 3: live registry lookup.
	if req.PackageName != "" && req.Registry != "" && s.Registry != nil {
		latest, err := s.Registry.FetchLatest(ctx, req.PackageName, req.Registry)
		if err != nil {
			s.logger().Warn("registry lookup failed", "server", req.ServerID, "error", err)
			return Outcome{Source: SourceNone}, lock, false
		}
		if req.Constraint != semver.Latest {
			ok, err := semver.Satisfies(latest, req.Constraint)
			if err != nil {
				s.logger().Warn("constraint not evaluable", "server", req.ServerID,
					"constraint", req.Constraint, "error", err)
				return Outcome{Source: SourceNone}, lock, false
			}
			if !ok {
				s.logger().Warn("latest published version does not satisfy constraint",
					"server", req.ServerID, "latest", latest, "constraint", req.Constraint)
				return Outcome{Source: SourceNone}, lock, false
			}
		}
		s.logger().Info("resolved from registry", "server", req.ServerID, "version", latest)
		return s.record(Outcome{Version: latest, Source: SourceRegistry}, req, lock)
	}

	// Tier 4: unresolved.
	return Outcome{Source: SourceNone}, lock, false
}

// record writes the lock entry for a pin or registry outcome when the
// request carries registry identity. First resolutions without an
// explicit constraint pin exactly.
func (s *Service) record(out Outcome, req Request, lock store.Lockfile) (Outcome, store.Lockfile, bool) {
	if req.PackageName == "" || req.Registry == "" {
		return out, lock, false
	}
	constraint := req.Constraint
	if out.Source == SourcePin {
		// The pin is the effective constraint; a declared range the
		// pin happens to violate must not end up in the lock.
		constraint = out.Version
	} else if constraint == "" {
		constraint = out.Version
	}
	updated := store.UpsertLock(lock, req.ServerID, store.LockEntry{
		PackageName:     req.PackageName,
		Registry:        string(req.Registry),
		Constraint:      constraint,
		ResolvedVersion: out.Version,
	})
	return out, updated, true
}

// normalize trims the request, drops sentinel pins and folds an
// operator-prefixed pin into the constraint slot where it belongs.
func normalize(req Request) Request {
	req.Pin = strings.TrimSpace(req.Pin)
	req.Constraint = strings.TrimSpace(req.Constraint)
	if strings.EqualFold(req.Pin, semver.Latest) {
		req.Pin = ""
	}
	if req.Pin != "" && strings.IndexAny(req.Pin, "^~<>=") == 0 {
		if req.Constraint == "" {
			req.Constraint = req.Pin
		}
		req.Pin = ""
	}
	return req
}
