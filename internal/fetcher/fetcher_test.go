package fetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFetchTextOK(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("console.log('hi')"))
	}))
	defer server.Close()

	client := New(2 * time.Second)
	got, err := client.FetchText(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("FetchText: %v", err)
	}
	if got != "console.log('hi')" {
		t.Errorf("content = %q", got)
	}
}

func TestFetchTextStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	client := New(2 * time.Second)
	_, err := client.FetchText(context.Background(), server.URL)

	var serr *StatusError
	if !errors.As(err, &serr) {
		t.Fatalf("expected *StatusError, got %v", err)
	}
	if serr.StatusCode != http.StatusNotFound {
		t.Errorf("StatusCode = %d, want 404", serr.StatusCode)
	}
}

func TestFetchTextEmptyBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("   \n  "))
	}))
	defer server.Close()

	client := New(2 * time.Second)
	_, err := client.FetchText(context.Background(), server.URL)
	if !errors.Is(err, ErrEmptyContent) {
		t.Fatalf("expected ErrEmptyContent, got %v", err)
	}
}

func TestFetchTextTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
		w.Write([]byte("too late"))
	}))
	defer server.Close()

	client := New(50 * time.Millisecond)
	_, err := client.FetchText(context.Background(), server.URL)

	var terr *TimeoutError
	if !errors.As(err, &terr) {
		t.Fatalf("expected *TimeoutError, got %v", err)
	}
}

func TestFetchTextNetworkError(t *testing.T) {
	// A server that is immediately closed produces a connection error.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := New(2 * time.Second)
	_, err := client.FetchText(context.Background(), url)

	var nerr *NetworkError
	if !errors.As(err, &nerr) {
		t.Fatalf("expected *NetworkError, got %v", err)
	}
}

func TestFetchTextLocalFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mod.js")
	if err := os.WriteFile(path, []byte("modkit.register('x', 1)"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	client := New(2 * time.Second)
	got, err := client.FetchText(context.Background(), path)
	if err != nil {
		t.Fatalf("FetchText local: %v", err)
	}
	if got != "modkit.register('x', 1)" {
		t.Errorf("content = %q", got)
	}
}

func TestFetchTextLocalMissing(t *testing.T) {
	client := New(2 * time.Second)
	_, err := client.FetchText(context.Background(), filepath.Join(t.TempDir(), "absent.js"))

	var nerr *NetworkError
	if !errors.As(err, &nerr) {
		t.Fatalf("expected *NetworkError for missing local file, got %v", err)
	}
}

func TestFetchTextLocalEmpty(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.js")
	if err := os.WriteFile(path, []byte("\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	client := New(2 * time.Second)
	_, err := client.FetchText(context.Background(), path)
	if !errors.Is(err, ErrEmptyContent) {
		t.Fatalf("expected ErrEmptyContent, got %v", err)
	}
}
