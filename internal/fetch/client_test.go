package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestClient_FetchSendsHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "token abc" {
			t.Errorf("expected Authorization header, got %q", got)
		}
		if got := r.Header.Get("User-Agent"); got != "webinclude/test" {
			t.Errorf("expected user agent, got %q", got)
		}
		w.Write([]byte("line 1\nline 2\n"))
	}))
	defer srv.Close()

	c := NewClient(0, 0, "webinclude/test")
	defer c.Close()

	body, err := c.Fetch(context.Background(), srv.URL, map[string]string{"Authorization": "token abc"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if body != "line 1\nline 2\n" {
		t.Errorf("unexpected body %q", body)
	}
}

func TestClient_FetchSetsHostHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Host != "docs.internal" {
			t.Errorf("expected Host docs.internal, got %q", r.Host)
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := NewClient(0, 0, "")
	defer c.Close()

	if _, err := c.Fetch(context.Background(), srv.URL, map[string]string{"host": "docs.internal"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestClient_FetchStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(0, 0, "")
	_, err := c.Fetch(context.Background(), srv.URL, nil)
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("expected ErrTransport, got %v", err)
	}
	if !strings.Contains(err.Error(), "status 404") {
		t.Errorf("expected status in error, got %q", err)
	}
}

func TestClient_FetchNonUTF8(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte{'o', 'k', 0xc3, 0x28})
	}))
	defer srv.Close()

	c := NewClient(0, 0, "")
	_, err := c.Fetch(context.Background(), srv.URL, nil)
	if !errors.Is(err, ErrNonUTF8) {
		t.Fatalf("expected ErrNonUTF8, got %v", err)
	}
	if errors.Is(err, ErrTransport) {
		t.Error("non-UTF-8 body should not be reported as a transport failure")
	}
}

func TestClient_FetchBodyLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(strings.Repeat("a", 64)))
	}))
	defer srv.Close()

	c := NewClient(0, 16, "")
	if _, err := c.Fetch(context.Background(), srv.URL, nil); !errors.Is(err, ErrTransport) {
		t.Fatalf("expected ErrTransport for oversized body, got %v", err)
	}

	c = NewClient(0, 64, "")
	if _, err := c.Fetch(context.Background(), srv.URL, nil); err != nil {
		t.Fatalf("body at the limit should succeed: %v", err)
	}
}

func TestClient_FetchUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(0, 0, "")
	if _, err := c.Fetch(context.Background(), url, nil); !errors.Is(err, ErrTransport) {
		t.Fatalf("expected ErrTransport, got %v", err)
	}
}

func TestClient_RecordsStats(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/fail" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := NewClient(0, 0, "")
	c.Fetch(context.Background(), srv.URL+"/ok", nil)
	c.Fetch(context.Background(), srv.URL+"/fail", nil)

	snap := c.Stats.Snapshot()
	if snap.Count != 2 {
		t.Errorf("expected count=2, got %d", snap.Count)
	}
	if snap.Failures != 1 {
		t.Errorf("expected failures=1, got %d", snap.Failures)
	}
}
