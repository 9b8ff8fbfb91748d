// Package registry looks up the latest published version of a package
// on the public npm and PyPI indexes. Lookups are best-effort and
// unauthenticated; every failure comes back as an error value, never a
// panic, so the resolver can downgrade to its next tier.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type Kind string

const (
	Npm  Kind = "npm"
	PyPI Kind = "pypi"
)

const (
	DefaultNpmURL  = "https://registry.npmjs.org"
	DefaultPyPIURL = "https://pypi.org/pypi"
)

func ParseKind(raw string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "npm":
		return Npm, nil
	case "pypi":
		return PyPI, nil
	default:
		return "", fmt.Errorf("REG_KIND: unsupported registry %q", raw)
	}
}

type Client struct {
	// Base URLs without trailing slash; overridable for tests.
	NpmBaseURL  string
	PyPIBaseURL string

	client *http.Client
}

func NewClient(httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		NpmBaseURL:  DefaultNpmURL,
		PyPIBaseURL: DefaultPyPIURL,
		client:      httpClient,
	}
}

type npmLatestPayload struct {
	Version string `json:"version"`
}

type pypiPayload struct {
	Info struct {
		Version string `json:"version"`
	} `json:"info"`
}

// FetchLatest queries the registry's latest-version endpoint for name.
// An empty version with a non-nil error means the lookup failed; the
// response body is always drained so the connection can be reused.
func (c *Client) FetchLatest(ctx context.Context, name string, kind Kind) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("REG_FETCH: empty package name")
	}
	var endpoint string
	switch kind {
	case Npm:
		endpoint = fmt.Sprintf("%s/%s/latest", strings.TrimSuffix(c.NpmBaseURL, "/"), url.PathEscape(name))
	case PyPI:
		endpoint = fmt.Sprintf("%s/%s/json", strings.TrimSuffix(c.PyPIBaseURL, "/"), url.PathEscape(name))
	default:
		return "", fmt.Errorf("REG_KIND: unsupported registry %q", kind)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("REG_FETCH: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("REG_FETCH: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", fmt.Errorf("REG_FETCH: %s returned status %d for %q", kind, resp.StatusCode, name)
	}

	switch kind {
	case Npm:
		var payload npmLatestPayload
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			return "", fmt.Errorf("REG_DECODE: %w", err)
		}
		if payload.Version == "" {
			return "", fmt.Errorf("REG_DECODE: npm response for %q missing version", name)
		}
		return payload.Version, nil
	default:
		var payload pypiPayload
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			return "", fmt.Errorf("REG_DECODE: %w", err)
		}
		if payload.Info.Version == "" {
			return "", fmt.Errorf("REG_DECODE: pypi response for %q missing info.version", name)
		}
		return payload.Info.Version, nil
	}
}
