package preview

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/pandoc-spec/internal/logging"
)

func previewFixture(t *testing.T) (*Server, string) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "out.html"),
		[]byte(`<!DOCTYPE html><html><head></head><body><h1>Doc</h1></body></html>`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "style.css"),
		[]byte("body{color:red}"), 0644))

	server := NewServer(&Config{
		Port:            8470,
		Dir:             dir,
		DefaultDocument: "out.html",
		Logger:          logging.NewTestLogger(),
	})
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)
	})
	return server, dir
}

func getDocument(t *testing.T, server *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	server.serveDocument(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestServeDocument(t *testing.T) {
	t.Run("root serves the default document with the reload client", func(t *testing.T) {
		server, _ := previewFixture(t)

		rec := getDocument(t, server, "/")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
		assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
		body := rec.Body.String()
		assert.Contains(t, body, "<h1>Doc</h1>")
		assert.Contains(t, body, ReloadEndpoint)
	})

	t.Run("html documents are injected by name too", func(t *testing.T) {
		server, _ := previewFixture(t)

		rec := getDocument(t, server, "/out.html")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "<script>")
	})

	t.Run("non html assets pass through untouched", func(t *testing.T) {
		server, _ := previewFixture(t)

		rec := getDocument(t, server, "/style.css")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "body{color:red}", rec.Body.String())
		assert.NotContains(t, rec.Body.String(), "<script>")
	})

	t.Run("missing documents are not found", func(t *testing.T) {
		server, _ := previewFixture(t)

		rec := getDocument(t, server, "/missing.html")

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("addr and url derive from the config", func(t *testing.T) {
		server, _ := previewFixture(t)

		assert.Equal(t, "127.0.0.1:8470", server.Addr())
		assert.Equal(t, "http://127.0.0.1:8470/", server.URL())
	})
}

func TestHubBroadcast(t *testing.T) {
	h := newHub(logging.NewTestLogger())
	defer h.shutdown()

	srv := httptest.NewServer(http.HandlerFunc(h.handleWebSocket))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	require.Eventually(t, func() bool { return h.clientCount() == 1 },
		2*time.Second, 10*time.Millisecond)

	h.notifyReload()

	_, data, err := conn.Read(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"command":"reload"}`, string(data))
}

func TestHubShutdownDisconnectsClients(t *testing.T) {
	h := newHub(logging.NewTestLogger())

	srv := httptest.NewServer(http.HandlerFunc(h.handleWebSocket))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return h.clientCount() == 1 },
		2*time.Second, 10*time.Millisecond)

	h.shutdown()

	_, _, err = conn.Read(ctx)
	assert.Error(t, err, "read must fail once the hub is gone")
	assert.Equal(t, 0, h.clientCount())
}

func TestNotifyReloadWithoutClients(t *testing.T) {
	server, _ := previewFixture(t)
	assert.NotPanics(t, server.NotifyReload)
}

func TestServerShutdownBeforeStart(t *testing.T) {
	server, _ := previewFixture(t)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, server.Shutdown(ctx))
}

func TestServeDocumentReflectsRewrites(t *testing.T) {
	server, dir := previewFixture(t)

	first := getDocument(t, server, "/").Body.String()
	require.Contains(t, first, "<h1>Doc</h1>")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "out.html"),
		[]byte(`<html><body><h1>Doc v2</h1></body></html>`), 0644))

	second := getDocument(t, server, "/")
	assert.Contains(t, second.Body.String(), "<h1>Doc v2</h1>")
}

// Guards against the handler buffering whole responses through the
// injection path for large non html assets.
func TestServeLargeAsset(t *testing.T) {
	server, dir := previewFixture(t)
	big := strings.Repeat("x", 1<<20)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "big.bin"), []byte(big), 0644))

	rec := getDocument(t, server, "/big.bin")

	require.Equal(t, http.StatusOK, rec.Code)
	content, err := io.ReadAll(rec.Result().Body)
	require.NoError(t, err)
	assert.Len(t, content, 1<<20)
}
