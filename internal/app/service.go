// Package app wires the project pieces together and exposes the
// operations the CLI calls. Each operation loads what it needs from
// the project root, does its work, and persists before returning.
package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"sort"
	"time"

	"github.com/charmbracelet/log"

	"ftk/internal/audit"
	"ftk/internal/catalog"
	"ftk/internal/config"
	"ftk/internal/doctor"
	"ftk/internal/registry"
	"ftk/internal/render"
	"ftk/internal/resolver"
	"ftk/internal/secrets"
	"ftk/internal/semver"
	"ftk/internal/store"
	"ftk/internal/updatecheck"
	"ftk/internal/wizard"
)

type Options struct {
	ProjectRoot string
	HTTPClient  *http.Client
	Logger      *log.Logger
}

type Service struct {
	ProjectRoot string
	Manifest    config.Manifest

	Resolver *resolver.Service
	Doctor   *doctor.Service
	Update   *updatecheck.Service
	Audit    *audit.Logger
	Logger   *log.Logger

	// RunWizard is swappable in tests; defaults to wizard.Run.
	RunWizard func(config.Manifest, secrets.File) (wizard.Selection, error)
}

func New(opts Options) (*Service, error) {
	root := opts.ProjectRoot
	if root == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("APP_CWD: %w", err)
		}
		root = cwd
	}
	if err := store.EnsureLayout(root); err != nil {
		return nil, err
	}
	manifest, err := config.Ensure(root)
	if err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.New(os.Stderr)
	}

	return &Service{
		ProjectRoot: root,
		Manifest:    manifest,
		Resolver: &resolver.Service{
			Registry: registry.NewClient(opts.HTTPClient),
			Logger:   logger,
		},
		Doctor:    &doctor.Service{ProjectRoot: root},
		Update:    updatecheck.New(opts.HTTPClient),
		Audit:     audit.New(store.AuditPath(root)),
		Logger:    logger,
		RunWizard: wizard.Run,
	}, nil
}

// Resolution reports the outcome for one server.
type Resolution struct {
	ServerID string `json:"serverId"`
	Version  string `json:"version,omitempty"`
	Source   string `json:"source"`
}

// InitResult summarizes a wizard run.
type InitResult struct {
	Canceled    bool         `json:"canceled"`
	ServerIDs   []string     `json:"servers,omitempty"`
	Resolutions []Resolution `json:"resolutions,omitempty"`
	HostConfig  string       `json:"hostConfig,omitempty"`
}

// Init runs the interactive setup flow: pick servers, collect secrets,
// then resolve and render.
func (s *Service) Init(ctx context.Context) (InitResult, error) {
	sec, err := secrets.Load(s.ProjectRoot)
	if err != nil {
		s.Logger.Warn("secrets file unreadable, starting fresh", "error", err)
		sec = secrets.NewFile()
	}

	sel, err := s.RunWizard(s.Manifest, sec)
	if err != nil {
		return InitResult{}, err
	}
	if !sel.Confirmed {
		return InitResult{Canceled: true}, nil
	}

	for envVar, value := range sel.Secrets {
		sec = secrets.Set(sec, envVar, value)
	}
	if len(sel.Secrets) > 0 {
		if err := secrets.Save(s.ProjectRoot, sec); err != nil {
			return InitResult{}, err
		}
	}

	// Keep constraints and pins for servers that survive the run.
	kept := map[string]config.ServerEntry{}
	for _, entry := range s.Manifest.Servers {
		kept[entry.ID] = entry
	}
	s.Manifest.Servers = nil
	for _, id := range sel.ServerIDs {
		if entry, ok := kept[id]; ok {
			s.Manifest.Servers = append(s.Manifest.Servers, entry)
			continue
		}
		s.Manifest.Servers = append(s.Manifest.Servers, config.ServerEntry{ID: id})
	}
	s.Manifest = config.Normalize(s.Manifest)
	if err := config.Save(s.ProjectRoot, s.Manifest); err != nil {
		return InitResult{}, err
	}
	s.audit("init", "", "ok", fmt.Sprintf("%d servers selected", len(sel.ServerIDs)), "")

	resolutions, err := s.ResolveAll(ctx)
	if err != nil {
		return InitResult{}, err
	}
	hostPath, _, err := s.Render()
	if err != nil {
		return InitResult{}, err
	}
	return InitResult{
		ServerIDs:   sel.ServerIDs,
		Resolutions: resolutions,
		HostConfig:  hostPath,
	}, nil
}

// Add puts a catalog server into the manifest, resolves it, and
// re-renders the host config.
func (s *Service) Add(ctx context.Context, id, constraint, pin string) (Resolution, error) {
	if _, ok := catalog.Find(id); !ok {
		return Resolution{}, fmt.Errorf("APP_UNKNOWN_SERVER: %q is not in the catalog", id)
	}
	if pin != "" && pin != semver.Latest && !semver.IsValid(pin) {
		return Resolution{}, fmt.Errorf("APP_BAD_PIN: %q is not a version", pin)
	}
	if constraint != "" {
		if err := semver.CheckConstraint(constraint); err != nil {
			return Resolution{}, err
		}
	}
	if err := config.AddServer(&s.Manifest, config.ServerEntry{ID: id, Constraint: constraint, Pin: pin}); err != nil {
		return Resolution{}, err
	}
	if err := config.Save(s.ProjectRoot, s.Manifest); err != nil {
		return Resolution{}, err
	}

	res := s.resolveOne(ctx, id, constraint, pin)
	s.audit("add", id, statusFor(res), "", res.Version)
	if err := s.recordInstall(id, res.Version); err != nil {
		s.Logger.Warn("state update failed", "server", id, "error", err)
	}
	if _, _, err := s.Render(); err != nil {
		return res, err
	}
	return res, nil
}

// Remove drops a server from the manifest, lock, and state, then
// re-renders the host config.
func (s *Service) Remove(id string) error {
	if err := config.RemoveServer(&s.Manifest, id); err != nil {
		return err
	}
	if err := config.Save(s.ProjectRoot, s.Manifest); err != nil {
		return err
	}

	lock, diag := store.LoadLockfile(s.ProjectRoot)
	if diag != "" {
		s.Logger.Warn("lock file reset", "reason", diag)
	}
	if _, ok := store.GetLock(lock, id); ok {
		if err := store.SaveLockfile(s.ProjectRoot, store.RemoveLock(lock, id)); err != nil {
			return err
		}
	}

	st, err := store.LoadState(s.ProjectRoot)
	if err != nil {
		return err
	}
	if store.RemoveServer(&st, id) {
		if err := store.SaveState(s.ProjectRoot, st); err != nil {
			return err
		}
	}
	s.audit("remove", id, "ok", "", "")
	_, _, err = s.Render()
	return err
}

// ListItem pairs a catalog server with its project status.
type ListItem struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Configured  bool   `json:"configured"`
	Constraint  string `json:"constraint,omitempty"`
	Pin         string `json:"pin,omitempty"`
	Locked      string `json:"locked,omitempty"`
}

// List returns every catalog server annotated with manifest and lock
// status.
func (s *Service) List() []ListItem {
	lock, _ := store.LoadLockfile(s.ProjectRoot)
	var items []ListItem
	for _, srv := range catalog.All() {
		item := ListItem{ID: srv.ID, Name: srv.Name, Description: srv.Description}
		if entry, ok := config.FindServer(s.Manifest, srv.ID); ok {
			item.Configured = true
			item.Constraint = entry.Constraint
			item.Pin = entry.Pin
		}
		if entry, ok := store.GetLock(lock, srv.ID); ok {
			item.Locked = entry.ResolvedVersion
		}
		items = append(items, item)
	}
	return items
}

// ResolveAll resolves every manifest server in id order, recording the
// installed versions in project state.
func (s *Service) ResolveAll(ctx context.Context) ([]Resolution, error) {
	var out []Resolution
	for _, entry := range s.Manifest.Servers {
		res := s.resolveOne(ctx, entry.ID, entry.Constraint, entry.Pin)
		s.audit("resolve", entry.ID, statusFor(res), "", res.Version)
		if err := s.recordInstall(entry.ID, res.Version); err != nil {
			s.Logger.Warn("state update failed", "server", entry.ID, "error", err)
		}
		out = append(out, res)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ServerID < out[j].ServerID })
	return out, nil
}

func (s *Service) resolveOne(ctx context.Context, id, constraint, pin string) Resolution {
	srv, ok := catalog.Find(id)
	if !ok {
		return Resolution{ServerID: id, Source: string(resolver.SourceNone)}
	}
	out := s.Resolver.Resolve(ctx, s.ProjectRoot, resolver.Request{
		ServerID:    id,
		PackageName: srv.PackageName,
		Registry:    srv.Registry,
		Pin:         pin,
		Constraint:  constraint,
	})
	return Resolution{ServerID: id, Version: out.Version, Source: string(out.Source)}
}

// Render writes the host config from the current manifest and lock.
// It returns the written path and any per-server notes.
func (s *Service) Render() (string, []string, error) {
	lock, diag := store.LoadLockfile(s.ProjectRoot)
	if diag != "" {
		s.Logger.Warn("lock file reset", "reason", diag)
	}
	doc, notes, err := render.Build(s.Manifest, lock)
	if err != nil {
		return "", nil, err
	}
	path, err := render.Write(s.ProjectRoot, s.Manifest, doc)
	if err != nil {
		return "", nil, err
	}
	for _, note := range notes {
		s.Logger.Warn(note)
	}
	return path, notes, nil
}

// CheckHealth runs the project diagnostics.
func (s *Service) CheckHealth(ctx context.Context) doctor.Report {
	return s.Doctor.Run(ctx)
}

// CheckRelease looks for a newer ftk release, using the cached answer
// when it is fresh enough.
func (s *Service) CheckRelease(ctx context.Context, ttl time.Duration) (updatecheck.Result, error) {
	return s.Update.Check(ctx, s.ProjectRoot, config.Version, ttl)
}

func (s *Service) recordInstall(id, version string) error {
	srv, ok := catalog.Find(id)
	if !ok {
		return nil
	}
	st, err := store.LoadState(s.ProjectRoot)
	if err != nil {
		return err
	}
	store.UpsertServer(&st, store.InstalledServer{
		ID:          id,
		PackageName: srv.PackageName,
		Registry:    string(srv.Registry),
		Version:     version,
		InstalledAt: time.Now().UTC(),
	})
	return store.SaveState(s.ProjectRoot, st)
}

func (s *Service) audit(action, server, status, detail, version string) {
	if err := s.Audit.Log(audit.Event{
		Action:  action,
		Server:  server,
		Status:  status,
		Detail:  detail,
		Version: version,
	}); err != nil {
		s.Logger.Warn("audit write failed", "error", err)
	}
}

func statusFor(res Resolution) string {
	if res.Version == "" {
		return "unresolved"
	}
	return "ok"
}
