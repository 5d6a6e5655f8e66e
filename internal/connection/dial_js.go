//go:build js

package connection

import "github.com/coder/websocket"

// Browsers don't allow headers on websocket handshakes: the token only
// travels in the query string.
func dialOptions(string) *websocket.DialOptions {
	return &websocket.DialOptions{}
}
