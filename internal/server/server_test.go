package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBackend answers the admin API and echoes websocket frames.
func fakeBackend(t *testing.T) *httptest.Server {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/api/games/rule-sets/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"auth":      c.GetHeader("Authorization"),
			"forwarded": c.GetHeader("X-Forwarded-Host"),
		})
	})
	r.GET("/ws/game/:id/", func(c *gin.Context) {
		conn, err := websocket.Accept(c.Writer, c.Request, nil)
		if err != nil {
			t.Errorf("accept: %v", err)
			return
		}
		defer conn.CloseNow()
		ctx := c.Request.Context()
		for {
			typ, data, err := conn.Read(ctx)
			if err != nil {
				return
			}
			if err := conn.Write(ctx, typ, append([]byte(c.Param("id")+":"), data...)); err != nil {
				return
			}
		}
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func newTestServer(t *testing.T, backend string) *httptest.Server {
	cfg := DefaultConfig()
	cfg.Backend = backend
	cfg.WebDir = t.TempDir()
	h, err := NewHandler(cfg)
	require.NoError(t, err)
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}

func get(t *testing.T, u string, header http.Header) (int, string) {
	req, err := http.NewRequest(http.MethodGet, u, nil)
	require.NoError(t, err)
	for k, v := range header {
		req.Header[k] = v
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestServesApp(t *testing.T) {
	srv := newTestServer(t, "")
	for _, page := range []string{"/", "/login", "/register", "/setup", "/game/g-1"} {
		status, body := get(t, srv.URL+page, nil)
		require.Equal(t, http.StatusOK, status, page)
		assert.Contains(t, body, "Play card games with friends", page)
	}
}

func TestProxiesAPI(t *testing.T) {
	backend := fakeBackend(t)
	srv := newTestServer(t, backend.URL)

	status, body := get(t, srv.URL+"/api/games/rule-sets/", http.Header{"Authorization": {"Bearer abc"}})
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, `"auth":"Bearer abc"`)
	assert.Contains(t, body, strings.TrimPrefix(srv.URL, "http://"))
}

func TestProxiesWebsocket(t *testing.T) {
	backend := fakeBackend(t)
	srv := newTestServer(t, backend.URL)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"/ws/game/g1/", nil)
	require.NoError(t, err)
	defer conn.CloseNow()

	require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte(`{"type":"request_state"}`)))
	_, data, err := conn.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, `g1:{"type":"request_state"}`, string(data))
}

func TestNoBackend(t *testing.T) {
	srv := newTestServer(t, "")
	status, body := get(t, srv.URL+"/api/games/", nil)
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Contains(t, body, "no backend configured")
}

func TestBackendDown(t *testing.T) {
	backend := fakeBackend(t)
	u := backend.URL
	backend.Close()
	srv := newTestServer(t, u)
	status, body := get(t, srv.URL+"/api/games/", nil)
	assert.Equal(t, http.StatusBadGateway, status)
	assert.Contains(t, body, "backend unavailable")
}

func TestInvalidBackend(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Backend = "not a url"
	_, err := NewHandler(cfg)
	require.Error(t, err)
}

func TestServerRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := DefaultConfig()
	cfg.Addr = "127.0.0.1:0"
	cfg.Backend = ""
	cfg.WebDir = t.TempDir()

	started := make(chan Started, 1)
	errCh := make(chan error, 1)
	go func() {
		errCh <- Run(ctx, cfg, started)
	}()

	var addr string
	select {
	case s := <-started:
		addr = s.Address
	case err := <-errCh:
		t.Fatalf("Run failed: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not start")
	}

	status, body := get(t, "http://"+addr+"/", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "Play card games with friends")

	// Cancel the context to stop the server
	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(6 * time.Second):
		t.Error("Server did not shut down within timeout")
	}
}
