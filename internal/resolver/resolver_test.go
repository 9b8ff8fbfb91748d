package resolver

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"

	"ftk/internal/registry"
	"ftk/internal/store"
)

type fakeRegistry struct {
	version string
	err     error
	calls   int
}

func (f *fakeRegistry) FetchLatest(_ context.Context, _ string, _ registry.Kind) (string, error) {
	f.calls++
	return f.version, f.err
}

func newService(reg Registry) *Service {
	return &Service{Registry: reg, Logger: log.New(io.Discard)}
}

func TestPinWinsOverLockAndRegistry(t *testing.T) {
	reg := &fakeRegistry{version: "9.9.9"}
	svc := newService(reg)
	lock := store.UpsertLock(store.NewLockfile(), "github", store.LockEntry{
		PackageName:     "@example/server-github",
		Registry:        "npm",
		Constraint:      "latest",
		ResolvedVersion: "1.0.0",
	})

	out, updated, changed := svc.ResolveWithLock(context.Background(), Request{
		ServerID:    "github",
		PackageName: "@example/server-github",
		Registry:    registry.Npm,
		Pin:         "2.0.0",
		Constraint:  "^1.0.0",
	}, lock)

	if out.Version != "2.0.0" || out.Source != SourcePin {
		t.Fatalf("expected pinned 2.0.0, got %+v", out)
	}
	if reg.calls != 0 {
		t.Fatalf("pin must not hit the registry, saw %d calls", reg.calls)
	}
	if !changed {
		t.Fatalf("expected pin resolution to update the lock")
	}
	entry, _ := store.GetLock(updated, "github")
	if entry.ResolvedVersion != "2.0.0" || entry.Constraint != "2.0.0" {
		t.Fatalf("expected lock pinned exactly, got %+v", entry)
	}
}

func TestValidLockEntryShortCircuits(t *testing.T) {
	reg := &fakeRegistry{version: "9.9.9"}
	svc := newService(reg)
	lock := store.UpsertLock(store.NewLockfile(), "github", store.LockEntry{
		PackageName:     "@example/server-github",
		Registry:        "npm",
		Constraint:      "^1.2.0",
		ResolvedVersion: "1.2.5",
	})

	out, _, changed := svc.ResolveWithLock(context.Background(), Request{
		ServerID:    "github",
		PackageName: "@example/server-github",
		Registry:    registry.Npm,
		Constraint:  "^1.2.0",
	}, lock)

	if out.Version != "1.2.5" || out.Source != SourceLock {
		t.Fatalf("expected locked 1.2.5, got %+v", out)
	}
	if changed {
		t.Fatalf("lock hit must not rewrite the lock")
	}
	if reg.calls != 0 {
		t.Fatalf("lock hit must not hit the registry")
	}
}

func TestStaleLockFallsThroughToRegistry(t *testing.T) {
	reg := &fakeRegistry{version: "2.1.0"}
	svc := newService(reg)
	lock := store.UpsertLock(store.NewLockfile(), "github", store.LockEntry{
		PackageName:     "@example/server-github",
		Registry:        "npm",
		Constraint:      "^1.0.0",
		ResolvedVersion: "1.0.0",
	})

	out, updated, changed := svc.ResolveWithLock(context.Background(), Request{
		ServerID:    "github",
		PackageName: "@example/server-github",
		Registry:    registry.Npm,
		Constraint:  "^2.0.0",
	}, lock)

	if out.Version == "1.0.0" {
		t.Fatalf("stale lock version must not be returned")
	}
	if out.Version != "2.1.0" || out.Source != SourceRegistry {
		t.Fatalf("expected registry resolution, got %+v", out)
	}
	if reg.calls != 1 {
		t.Fatalf("expected one registry call, saw %d", reg.calls)
	}
	if !changed {
		t.Fatalf("expected refreshed lock entry")
	}
	entry, _ := store.GetLock(updated, "github")
	if entry.ResolvedVersion != "2.1.0" || entry.Constraint != "^2.0.0" {
		t.Fatalf("unexpected lock entry %+v", entry)
	}
}

func TestRegistryFailureYieldsUnresolved(t *testing.T) {
	reg := &fakeRegistry{err: errors.New("REG_FETCH: boom")}
	svc := newService(reg)

	out, _, changed := svc.ResolveWithLock(context.Background(), Request{
		ServerID:    "fetch",
		PackageName: "server-fetch",
		Registry:    registry.PyPI,
		Constraint:  "latest",
	}, store.NewLockfile())

	if out.Resolved() {
		t.Fatalf("expected unresolved outcome, got %+v", out)
	}
	if changed {
		t.Fatalf("failed lookup must not touch the lock")
	}
}

func TestRegistryLatestOutsideConstraintYieldsUnresolved(t *testing.T) {
	reg := &fakeRegistry{version: "3.0.0"}
	svc := newService(reg)

	out, _, changed := svc.ResolveWithLock(context.Background(), Request{
		ServerID:    "github",
		PackageName: "@example/server-github",
		Registry:    registry.Npm,
		Constraint:  "^2.0.0",
	}, store.NewLockfile())

	if out.Resolved() {
		t.Fatalf("a non-satisfying version must never be substituted, got %+v", out)
	}
	if changed {
		t.Fatalf("unresolved outcome must not touch the lock")
	}
}

func TestExplicitLatestConstraintIsKeptInLock(t *testing.T) {
	reg := &fakeRegistry{version: "3.2.1"}
	svc := newService(reg)

	out, updated, changed := svc.ResolveWithLock(context.Background(), Request{
		ServerID:    "fetch",
		PackageName: "server-fetch",
		Registry:    registry.PyPI,
		Constraint:  "latest",
	}, store.NewLockfile())

	if out.Version != "3.2.1" {
		t.Fatalf("expected 3.2.1, got %+v", out)
	}
	if !changed {
		t.Fatalf("expected lock update")
	}
	entry, _ := store.GetLock(updated, "fetch")
	if entry.Constraint != "latest" {
		t.Fatalf("expected latest constraint preserved, got %q", entry.Constraint)
	}
}

func TestNoConstraintPinsExactly(t *testing.T) {
	reg := &fakeRegistry{version: "0.4.1"}
	svc := newService(reg)

	_, updated, _ := svc.ResolveWithLock(context.Background(), Request{
		ServerID:    "fetch",
		PackageName: "server-fetch",
		Registry:    registry.PyPI,
	}, store.NewLockfile())

	entry, ok := store.GetLock(updated, "fetch")
	if !ok {
		t.Fatalf("expected lock entry")
	}
	if entry.Constraint != "0.4.1" {
		t.Fatalf("first resolution should pin exactly, got constraint %q", entry.Constraint)
	}
}

func TestOperatorPrefixedPinBecomesConstraint(t *testing.T) {
	reg := &fakeRegistry{version: "1.4.0"}
	svc := newService(reg)

	out, _, _ := svc.ResolveWithLock(context.Background(), Request{
		ServerID:    "github",
		PackageName: "@example/server-github",
		Registry:    registry.Npm,
		Pin:         "^1.0.0",
	}, store.NewLockfile())

	if out.Source != SourceRegistry || out.Version != "1.4.0" {
		t.Fatalf("expected registry resolution under folded constraint, got %+v", out)
	}
	if reg.calls != 1 {
		t.Fatalf("expected registry consulted, saw %d calls", reg.calls)
	}
}

func TestRequestWithoutRegistryIdentitySkipsLookupAndLock(t *testing.T) {
	reg := &fakeRegistry{version: "1.0.0"}
	svc := newService(reg)

	out, _, changed := svc.ResolveWithLock(context.Background(), Request{
		ServerID: "local-only",
	}, store.NewLockfile())

	if out.Resolved() {
		t.Fatalf("expected unresolved outcome, got %+v", out)
	}
	if changed || reg.calls != 0 {
		t.Fatalf("expected no side effects, changed=%v calls=%d", changed, reg.calls)
	}
}

func TestResolveEndToEndPersistsLock(t *testing.T) {
	root := t.TempDir()
	reg := &fakeRegistry{version: "3.2.1"}
	svc := newService(reg)

	out := svc.Resolve(context.Background(), root, Request{
		ServerID:    "fetch",
		PackageName: "server-fetch",
		Registry:    registry.PyPI,
		Constraint:  "latest",
	})
	if out.Version != "3.2.1" {
		t.Fatalf("expected 3.2.1, got %+v", out)
	}

	lock, diag := store.LoadLockfile(root)
	if diag != "" {
		t.Fatalf("unexpected diagnostic: %q", diag)
	}
	entry, ok := store.GetLock(lock, "fetch")
	if !ok {
		t.Fatalf("expected persisted lock entry")
	}
	if entry.ResolvedVersion != "3.2.1" {
		t.Fatalf("expected 3.2.1 in lock, got %+v", entry)
	}

	// Second run resolves from the lock without another lookup.
	out = svc.Resolve(context.Background(), root, Request{
		ServerID:    "fetch",
		PackageName: "server-fetch",
		Registry:    registry.PyPI,
		Constraint:  "latest",
	})
	if out.Source != SourceLock || out.Version != "3.2.1" {
		t.Fatalf("expected lock hit on second run, got %+v", out)
	}
	if reg.calls != 1 {
		t.Fatalf("expected exactly one registry call, saw %d", reg.calls)
	}
}

func TestResolvePersistFailureIsNonFatal(t *testing.T) {
	// A project root that is a file makes the lock write fail.
	root := filepath.Join(t.TempDir(), "not-a-dir")
	if err := os.WriteFile(root, []byte("x"), 0o644); err != nil {
		t.Fatalf("write file failed: %v", err)
	}
	reg := &fakeRegistry{version: "1.0.0"}
	svc := newService(reg)

	out := svc.Resolve(context.Background(), root, Request{
		ServerID:    "fetch",
		PackageName: "server-fetch",
		Registry:    registry.PyPI,
	})
	if out.Version != "1.0.0" {
		t.Fatalf("resolved version must survive a failed persist, got %+v", out)
	}
}
