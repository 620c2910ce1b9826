// Package preview serves the rendered output directory over HTTP with live
// reload: every served HTML document gets a websocket client injected, and
// each successful pipeline rerun broadcasts a reload notice to all
// connected browsers.
package preview

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/conneroisu/pandoc-spec/internal/logging"
)

// ReloadEndpoint is the websocket path the injected script connects to.
const ReloadEndpoint = "/__reload"

// Config describes a preview server.
type Config struct {
	// Host defaults to loopback; the preview is a local development aid,
	// not a deployment surface.
	Host string
	Port int

	// Dir is the output directory being served. DefaultDocument is what a
	// bare "/" request resolves to, typically the rendered output file.
	Dir             string
	DefaultDocument string

	Logger logging.Logger
}

// Server is the live reload preview server.
type Server struct {
	config *Config
	logger logging.Logger
	hub    *hub

	httpServer *http.Server
	mu         sync.Mutex
	shutdown   sync.Once
}

// NewServer creates the server without binding the port yet.
func NewServer(config *Config) *Server {
	if config.Host == "" {
		config.Host = "127.0.0.1"
	}
	logger := config.Logger
	if logger == nil {
		logger = logging.NewTestLogger()
	}
	return &Server{
		config: config,
		logger: logger.WithComponent("preview"),
		hub:    newHub(logger.WithComponent("preview")),
	}
}

// Addr returns the host:port the server binds.
func (s *Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}

// URL returns the browsable address of the default document.
func (s *Server) URL() string {
	return "http://" + s.Addr() + "/"
}

// Start serves until the listener fails or Shutdown runs. It blocks, like
// http.Server.ListenAndServe.
func (s *Server) Start() error {
	mux := http.NewServeMux()
	mux.HandleFunc(ReloadEndpoint, s.hub.handleWebSocket)
	mux.HandleFunc("/", s.serveDocument)

	s.mu.Lock()
	s.httpServer = &http.Server{
		Addr:              s.Addr(),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	server := s.httpServer
	s.mu.Unlock()

	s.logger.Info(context.Background(), "Preview server listening", "url", s.URL())

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops accepting connections, closes the reload hub, and drains
// in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdown.Do(func() {
		s.hub.shutdown()

		s.mu.Lock()
		server := s.httpServer
		s.mu.Unlock()

		if server != nil {
			err = server.Shutdown(ctx)
		}
	})
	return err
}

// NotifyReload tells every connected browser to refresh. The runner calls
// it after each successful rerun.
func (s *Server) NotifyReload() {
	s.logger.Debug(context.Background(), "Broadcasting reload", "clients", s.hub.clientCount())
	s.hub.notifyReload()
}

// serveDocument serves files from the output directory, injecting the
// reload client into HTML documents.
func (s *Server) serveDocument(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(filepath.Clean(r.URL.Path), "/")
	if name == "" || name == "." {
		name = s.config.DefaultDocument
	}

	full := filepath.Join(s.config.Dir, name)

	// The cleaned join must stay inside the served directory.
	root := filepath.Clean(s.config.Dir)
	if full != root && !strings.HasPrefix(full, root+string(filepath.Separator)) {
		http.NotFound(w, r)
		return
	}

	if info, err := os.Stat(full); err == nil && info.IsDir() {
		full = filepath.Join(full, "index.html")
	}

	if strings.EqualFold(filepath.Ext(full), ".html") {
		content, err := os.ReadFile(full)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		_, _ = w.Write(InjectReloadScript(content, ReloadEndpoint))
		return
	}

	// Reloads must always observe the latest artifacts.
	w.Header().Set("Cache-Control", "no-store")
	http.ServeFile(w, r, full)
}
