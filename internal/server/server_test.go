package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thebtf/logcluster/internal/server/sse"
)

func testServer(t *testing.T) (*httptest.Server, string) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>index</h1>"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "access.html"), []byte("<h1>report</h1>"), 0600))

	srv := httptest.NewServer(New(dir, sse.NewBroadcaster()).Handler())
	t.Cleanup(srv.Close)
	return srv, dir
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestServer_ServesIndexAtRoot(t *testing.T) {
	srv, _ := testServer(t)

	resp, body := get(t, srv.URL+"/")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "index")
	assert.Equal(t, "no-cache, no-store, must-revalidate", resp.Header.Get("Cache-Control"))
}

func TestServer_ServesReports(t *testing.T) {
	srv, dir := testServer(t)

	_, body := get(t, srv.URL+"/access.html")
	assert.Contains(t, body, "report")

	// Regenerated content is visible on the next request.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "access.html"), []byte("<h1>updated</h1>"), 0600))
	_, body = get(t, srv.URL+"/access.html")
	assert.Contains(t, body, "updated")
}

func TestServer_MissingFile(t *testing.T) {
	srv, _ := testServer(t)

	resp, _ := get(t, srv.URL+"/nope.html")

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_Health(t *testing.T) {
	srv, _ := testServer(t)

	resp, body := get(t, srv.URL+"/health")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body)
}

func TestServer_ListenAndServeStopsOnCancel(t *testing.T) {
	s := New(t.TempDir(), sse.NewBroadcaster())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx, "127.0.0.1:0") }()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
