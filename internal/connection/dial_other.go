//go:build !js

package connection

import (
	"net/http"

	"github.com/coder/websocket"
)

func dialOptions(token string) *websocket.DialOptions {
	opts := &websocket.DialOptions{}
	if token != "" {
		opts.HTTPHeader = http.Header{"Authorization": []string{"Bearer " + token}}
	}
	return opts
}
