// Package connection keeps one websocket open per game and reconnects it when
// the transport fails.
package connection

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/coder/websocket"
)

// DialFunc opens a websocket. It is websocket.Dial unless overridden in tests.
type DialFunc func(ctx context.Context, u string, opts *websocket.DialOptions) (*websocket.Conn, *http.Response, error)

// Config of a Manager.
type Config struct {
	// BaseURL is the websocket origin, e.g. "wss://cards.example.com".
	BaseURL string

	DialTimeout  time.Duration
	WriteTimeout time.Duration

	// Reconnect policy: the first retry is immediate, the following ones wait
	// InitialBackoff doubling up to MaxBackoff. After MaxAttempts consecutive
	// failures the manager gives up.
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	MaxAttempts    int

	Dial DialFunc
}

// DefaultConfig returns the configuration used by the browser client.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:        baseURL,
		DialTimeout:    10 * time.Second,
		WriteTimeout:   2 * time.Second,
		InitialBackoff: 500 * time.Millisecond,
		MaxBackoff:     8 * time.Second,
		MaxAttempts:    6,
	}
}

// Backoff returns how long to wait before reconnect attempt number attempt
// (starting at 1).
func (c Config) Backoff(attempt int) time.Duration {
	if attempt <= 1 || c.InitialBackoff <= 0 {
		return 0
	}
	d := c.InitialBackoff
	for i := 2; i < attempt; i++ {
		d *= 2
		if c.MaxBackoff > 0 && d >= c.MaxBackoff {
			return c.MaxBackoff
		}
	}
	if c.MaxBackoff > 0 && d > c.MaxBackoff {
		return c.MaxBackoff
	}
	return d
}

// URL returns the websocket address of a game.
func (c Config) URL(gameID, token string) string {
	u := strings.TrimRight(c.BaseURL, "/") + "/ws/game/" + url.PathEscape(gameID) + "/"
	if token != "" {
		u += "?token=" + url.QueryEscape(token)
	}
	return u
}

// WebsocketOrigin converts the page location into a websocket origin:
// http becomes ws and https becomes wss.
func WebsocketOrigin(page *url.URL) string {
	scheme := "ws"
	if page.Scheme == "https" {
		scheme = "wss"
	}
	return scheme + "://" + page.Host
}
