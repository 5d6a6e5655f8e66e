package adminapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"sort"
	"strings"
)

// APIError is a non-2xx answer of the admin service. Field errors are shown
// next to their form field, General as a banner.
type APIError struct {
	Status  int
	Fields  map[string][]string
	General string
}

func (e *APIError) Error() string {
	if e.General != "" {
		return e.General
	}
	if len(e.Fields) > 0 {
		names := make([]string, 0, len(e.Fields))
		for name := range e.Fields {
			names = append(names, name)
		}
		sort.Strings(names)
		parts := make([]string, 0, len(names))
		for _, name := range names {
			parts = append(parts, name+": "+strings.Join(e.Fields[name], " "))
		}
		return strings.Join(parts, "; ")
	}
	return fmt.Sprintf("request failed: %s", http.StatusText(e.Status))
}

// Field returns the messages of a form field joined in one line, or "".
func (e *APIError) Field(name string) string {
	return strings.Join(e.Fields[name], " ")
}

// NetworkError means the request never got an HTTP answer. The UI offers a
// retry.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network error: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Keys holding a message for the whole form rather than one field.
var generalKeys = []string{"error", "detail", "message", "non_field_errors", "general"}

// parseAPIError builds an APIError from a response body. Values may be a
// string or a list of strings.
func parseAPIError(status int, body []byte) *APIError {
	e := &APIError{Status: status}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		if text := strings.TrimSpace(string(body)); text != "" && len(text) < 200 {
			e.General = text
		}
		return e
	}
	for _, key := range generalKeys {
		if msgs := messages(raw[key]); len(msgs) > 0 {
			e.General = strings.Join(msgs, " ")
			break
		}
	}
	for key, value := range raw {
		if slices.Contains(generalKeys, key) {
			continue
		}
		msgs := messages(value)
		if len(msgs) == 0 {
			continue
		}
		if e.Fields == nil {
			e.Fields = make(map[string][]string)
		}
		e.Fields[key] = msgs
	}
	return e
}

func messages(value json.RawMessage) []string {
	if len(value) == 0 {
		return nil
	}
	var one string
	if err := json.Unmarshal(value, &one); err == nil {
		if one == "" {
			return nil
		}
		return []string{one}
	}
	var many []string
	if err := json.Unmarshal(value, &many); err == nil {
		return many
	}
	return nil
}
