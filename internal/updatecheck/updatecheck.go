// Package updatecheck compares the running CLI version against the
// published release manifest. Results are cached on disk as a value
// with a captured timestamp; expiry is decided against the TTL on
// every read, so a stale cache is never trusted by accident.
package updatecheck

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"golang.org/x/mod/semver"

	"ftk/internal/fsutil"
	"ftk/internal/store"
)

const DefaultTTL = 24 * time.Hour

type manifest struct {
	Version string `json:"version"`
}

// cacheDoc is the on-disk cache under .ftk/.
type cacheDoc struct {
	CheckedAt time.Time `toml:"checked_at"`
	Latest    string    `toml:"latest"`
}

type Result struct {
	Current         string `json:"current"`
	Latest          string `json:"latest"`
	UpdateAvailable bool   `json:"updateAvailable"`
	FromCache       bool   `json:"fromCache"`
}

type Service struct {
	client *http.Client
	now    func() time.Time
}

func New(client *http.Client) *Service {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Service{client: client, now: time.Now}
}

func manifestURL() string {
	if explicit := os.Getenv("FTK_RELEASE_MANIFEST_URL"); explicit != "" {
		return explicit
	}
	return "https://github.com/fastagent/ftk/releases/latest/download/manifest.json"
}

// Check returns the latest released version, consulting the cache
// first. A cache entry older than ttl is refetched.
func (s *Service) Check(ctx context.Context, projectRoot, current string, ttl time.Duration) (Result, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if cached, ok := s.readCache(projectRoot, ttl); ok {
		return s.result(current, cached, true), nil
	}

	latest, err := s.fetchLatest(ctx)
	if err != nil {
		return Result{}, err
	}
	s.writeCache(projectRoot, latest)
	return s.result(current, latest, false), nil
}

func (s *Service) fetchLatest(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, manifestURL(), nil)
	if err != nil {
		return "", err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("UPD_FETCH: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("UPD_FETCH: status %d", resp.StatusCode)
	}
	var m manifest
	if err := json.NewDecoder(resp.Body).Decode(&m); err != nil {
		return "", fmt.Errorf("UPD_MANIFEST: %w", err)
	}
	if m.Version == "" {
		return "", fmt.Errorf("UPD_MANIFEST: missing version")
	}
	return m.Version, nil
}

func (s *Service) result(current, latest string, fromCache bool) Result {
	return Result{
		Current:         current,
		Latest:          latest,
		UpdateAvailable: newer(latest, current),
		FromCache:       fromCache,
	}
}

// newer reports whether latest ranks above current. Release versions
// follow the Go convention, so comparison goes through x/mod with a
// normalized "v" prefix; an uncomparable pair reports false.
func newer(latest, current string) bool {
	l, c := normalize(latest), normalize(current)
	if !semver.IsValid(l) || !semver.IsValid(c) {
		return false
	}
	return semver.Compare(l, c) > 0
}

func normalize(v string) string {
	v = strings.TrimSpace(v)
	if v == "" || strings.HasPrefix(v, "v") {
		return v
	}
	return "v" + v
}

func (s *Service) readCache(projectRoot string, ttl time.Duration) (string, bool) {
	blob, err := os.ReadFile(store.ReleaseCachePath(projectRoot))
	if err != nil {
		return "", false
	}
	var doc cacheDoc
	if err := toml.Unmarshal(blob, &doc); err != nil {
		return "", false
	}
	if doc.Latest == "" || doc.CheckedAt.IsZero() {
		return "", false
	}
	if s.now().Sub(doc.CheckedAt) > ttl {
		return "", false
	}
	return doc.Latest, true
}

func (s *Service) writeCache(projectRoot, latest string) {
	if err := store.EnsureLayout(projectRoot); err != nil {
		return
	}
	blob, err := toml.Marshal(cacheDoc{CheckedAt: s.now().UTC(), Latest: latest})
	if err != nil {
		return
	}
	// Cache writes are best-effort; the check already succeeded.
	_ = fsutil.AtomicWrite(store.ReleaseCachePath(projectRoot), blob, 0o644)
}
