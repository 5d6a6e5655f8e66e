// Package adminapi is the HTTP client of the account and game-admin service:
// login, registration, game creation, invites and player search.
package adminapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"k8s.io/klog/v2"
)

// Client of the admin service. Requests carry the access token, once set, as
// a Bearer token.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	mu    sync.Mutex
	token string
}

// New creates a Client for the service at baseURL, e.g. "" for the page's
// own origin or "http://localhost:8000".
func New(baseURL string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// SetToken sets the access token sent with every request.
func (c *Client) SetToken(access string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = access
}

func (c *Client) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// Login exchanges credentials for tokens. The access token is kept for the
// following requests.
func (c *Client) Login(ctx context.Context, username, password string) (Tokens, error) {
	var resp loginResponse
	err := c.do(ctx, http.MethodPost, "/api/players/login/", nil, LoginRequest{Username: username, Password: password}, &resp)
	if err != nil {
		return Tokens{}, err
	}
	if resp.Tokens.Access == "" {
		return Tokens{}, &APIError{Status: http.StatusOK, General: "login response without access token"}
	}
	c.SetToken(resp.Tokens.Access)
	return resp.Tokens, nil
}

// Register creates an account and returns the server's confirmation message.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (string, error) {
	var resp registerResponse
	if err := c.do(ctx, http.MethodPost, "/api/players/register/", nil, req, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// CreateGame creates a game and returns its id.
func (c *Client) CreateGame(ctx context.Context, req CreateGameRequest) (string, error) {
	var resp createGameResponse
	if err := c.do(ctx, http.MethodPost, "/api/games/", nil, req, &resp); err != nil {
		return "", err
	}
	if resp.GameUID != "" {
		return resp.GameUID, nil
	}
	if resp.GameID != "" {
		return resp.GameID, nil
	}
	return "", &APIError{Status: http.StatusOK, General: "game created without an id"}
}

// Invite invites playerUID to gameID.
func (c *Client) Invite(ctx context.Context, gameID, playerUID string) (Invitation, error) {
	var inv Invitation
	path := "/api/games/" + url.PathEscape(gameID) + "/invite/"
	if err := c.do(ctx, http.MethodPost, path, nil, inviteRequest{PlayerUID: playerUID}, &inv); err != nil {
		return Invitation{}, err
	}
	return inv, nil
}

// StartGame starts gameID. It reports whether the server started it.
func (c *Client) StartGame(ctx context.Context, gameID string) (bool, error) {
	var resp startResponse
	path := "/api/games/" + url.PathEscape(gameID) + "/start/"
	if err := c.do(ctx, http.MethodPost, path, nil, struct{}{}, &resp); err != nil {
		return false, err
	}
	return resp.Started, nil
}

// RuleSets lists the rule sets a game can be created with. The service
// answers {"rule_sets": [...]}; a bare list or a single object are accepted
// too.
func (c *Client) RuleSets(ctx context.Context) ([]RuleSetSummary, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/api/games/rule-sets/", nil, nil, &raw); err != nil {
		return nil, err
	}
	var wrapped struct {
		RuleSets []RuleSetSummary `json:"rule_sets"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.RuleSets != nil {
		return wrapped.RuleSets, nil
	}
	var list []RuleSetSummary
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}
	var one RuleSetSummary
	if err := json.Unmarshal(raw, &one); err == nil && one.ID != "" {
		return []RuleSetSummary{one}, nil
	}
	return nil, nil
}

// SearchPlayers looks players up by name.
func (c *Client) SearchPlayers(ctx context.Context, query string) ([]PlayerSummary, error) {
	var players []PlayerSummary
	err := c.do(ctx, http.MethodGet, "/api/games/search/players/", url.Values{"query": {query}}, nil, &players)
	if err != nil {
		return nil, err
	}
	return players, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	op := method + " " + path
	u := c.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: failed to marshal request: %w", op, err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		klog.Errorf("Client.do: %s failed: %v", op, err)
		return &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := parseAPIError(resp.StatusCode, data)
		klog.Warningf("Client.do: %s returned %d: %v", op, resp.StatusCode, apiErr)
		return apiErr
	}
	klog.V(1).Infof("Client.do: %s returned %d", op, resp.StatusCode)
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s: failed to parse response: %w", op, err)
	}
	return nil
}
