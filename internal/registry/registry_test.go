package registry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestParseKind(t *testing.T) {
	for raw, want := range map[string]Kind{"npm": Npm, "NPM": Npm, " pypi ": PyPI} {
		got, err := ParseKind(raw)
		if err != nil {
			t.Fatalf("parse kind %q failed: %v", raw, err)
		}
		if got != want {
			t.Fatalf("parse kind %q = %q, want %q", raw, got, want)
		}
	}
	if _, err := ParseKind("cargo"); err == nil {
		t.Fatalf("expected unsupported registry to fail")
	}
}

func TestFetchLatestNpm(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/left-pad/latest" {
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
		w.Write([]byte(`{"name":"left-pad","version":"1.3.0"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.Client())
	c.NpmBaseURL = srv.URL
	got, err := c.FetchLatest(context.Background(), "left-pad", Npm)
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if got != "1.3.0" {
		t.Fatalf("expected 1.3.0, got %q", got)
	}
}

func TestFetchLatestPyPI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/requests/json" {
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
		w.Write([]byte(`{"info":{"name":"requests","version":"2.32.3"}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.Client())
	c.PyPIBaseURL = srv.URL
	got, err := c.FetchLatest(context.Background(), "requests", PyPI)
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if got != "2.32.3" {
		t.Fatalf("expected 2.32.3, got %q", got)
	}
}

func TestFetchLatestNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.Client())
	c.NpmBaseURL = srv.URL
	got, err := c.FetchLatest(context.Background(), "no-such-package", Npm)
	if err == nil {
		t.Fatalf("expected error for 404")
	}
	if got != "" {
		t.Fatalf("expected empty version on failure, got %q", got)
	}
}

func TestFetchLatestMissingVersionField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"name":"odd"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.Client())
	c.NpmBaseURL = srv.URL
	if _, err := c.FetchLatest(context.Background(), "odd", Npm); err == nil {
		t.Fatalf("expected missing version field to error")
	}
}

func TestFetchLatestMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"info":`))
	}))
	defer srv.Close()

	c := NewClient(srv.Client())
	c.PyPIBaseURL = srv.URL
	if _, err := c.FetchLatest(context.Background(), "broken", PyPI); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestFetchLatestEmptyName(t *testing.T) {
	c := NewClient(nil)
	if _, err := c.FetchLatest(context.Background(), "  ", Npm); err == nil {
		t.Fatalf("expected empty name to error")
	}
}
