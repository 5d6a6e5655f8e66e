// Package server hosts the web client: it serves the WASM app and its static
// files, and forwards the admin API and the game websockets to the backend so
// the browser only ever talks to one origin.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httputil"
	"net/url"
	"time"

	"github.com/cardtable/webclient/internal/frontend"
	"github.com/cardtable/webclient/internal/game"
	"github.com/gin-gonic/gin"
	"github.com/maxence-charriere/go-app/v10/pkg/app"
	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"
)

// Config of the host server.
type Config struct {
	Addr            string // Address to listen on; port 0 picks a free one.
	Backend         string // Base URL of the admin and game service.
	WebDir          string // Static files, including app.wasm.
	ShutdownTimeout time.Duration
}

// DefaultConfig listens on a free localhost port and proxies to a backend on
// localhost:8000.
func DefaultConfig() Config {
	return Config{
		Addr:            "localhost:0",
		Backend:         "http://localhost:8000",
		WebDir:          "web",
		ShutdownTimeout: 5 * time.Second,
	}
}

// Started is sent once the server is listening.
type Started struct {
	Address string
}

// NewHandler builds the router: the backend proxy under /api/ and /ws/, the
// static files under /web/, and the go-app pages for everything else.
func NewHandler(cfg Config) (http.Handler, error) {
	// Initialize global client state for server-side prerendering without panic
	frontend.InitState()
	frontend.Routes()

	r := gin.New()
	r.Use(gin.Recovery(), logRequests())

	if cfg.Backend != "" {
		target, err := url.Parse(cfg.Backend)
		if err != nil || target.Scheme == "" || target.Host == "" {
			return nil, fmt.Errorf("invalid backend URL %q", cfg.Backend)
		}
		proxy := gin.WrapH(newProxy(target))
		r.Any("/api/*path", proxy)
		r.Any("/ws/*path", proxy)
	} else {
		noBackend := func(c *gin.Context) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no backend configured"})
		}
		r.Any("/api/*path", noBackend)
		r.Any("/ws/*path", noBackend)
	}

	if cfg.WebDir != "" {
		r.StaticFS("/web", http.Dir(cfg.WebDir))
	}

	// The web pages are rendered by the go-app framework
	h := &app.Handler{
		Name:        "Card Table",
		ShortName:   "Cards",
		Description: "Play card games with friends",
		Version:     game.Version,
		Styles: []string{
			"/web/css/pico.min.css", // Load pico.css
			"/web/css/main.css",     // Custom styles if any
		},
	}
	// gin marks NoRoute requests as 404 and go-app never writes a status for
	// pages, so the client routes need an explicit 200.
	r.NoRoute(func(c *gin.Context) {
		c.Status(http.StatusOK)
		h.ServeHTTP(c.Writer, c.Request)
	})
	return r, nil
}

// newProxy forwards requests, websocket upgrades included, to target.
func newProxy(target *url.URL) *httputil.ReverseProxy {
	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(target)
			pr.SetXForwarded()
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			klog.Errorf("proxy: %s %s: %v", r.Method, r.URL.Path, err)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte(`{"error":"backend unavailable"}`))
		},
	}
}

func logRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		klog.V(1).Infof("%s %s -> %d (%s)", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}

// Run starts the server and blocks until the context is canceled. The bound
// address is sent on started, if not nil.
func Run(ctx context.Context, cfg Config, started chan<- Started) error {
	handler, err := NewHandler(cfg)
	if err != nil {
		return err
	}
	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %q: %w", cfg.Addr, err)
	}
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		klog.Infof("Server started on %s", ln.Addr())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		timeout := cfg.ShutdownTimeout
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		// Graceful shutdown
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		klog.Infof("Shutting down server...")
		return srv.Shutdown(shutdownCtx)
	})
	if started != nil {
		started <- Started{Address: ln.Addr().String()}
	}
	return g.Wait()
}
