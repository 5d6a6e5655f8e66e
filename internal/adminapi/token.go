package adminapi

import (
	"errors"
	"fmt"
	"strconv"

	jwt "github.com/form3tech-oss/jwt-go"
)

// ErrNoPlayerID is returned for tokens without a usable subject claim.
var ErrNoPlayerID = errors.New("token carries no player id")

// Claims looked up, in order, for the player id.
var playerIDClaims = []string{"user_uid", "user_id", "sub"}

// PlayerIDFromToken returns the player id an access token was issued for.
//
// The signature is not verified: the client only needs to know who it is, the
// server checks the token on every request.
func PlayerIDFromToken(access string) (string, error) {
	claims := jwt.MapClaims{}
	if _, _, err := new(jwt.Parser).ParseUnverified(access, claims); err != nil {
		return "", fmt.Errorf("failed to parse access token: %w", err)
	}
	for _, name := range playerIDClaims {
		switch v := claims[name].(type) {
		case string:
			if v != "" {
				return v, nil
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64), nil
		}
	}
	return "", ErrNoPlayerID
}
