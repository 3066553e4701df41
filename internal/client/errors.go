package client

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

// Fallback messages shown when the API gives nothing more specific.
const (
	MsgCreateFailed = "Failed to create post"
	MsgFetchFailed  = "Failed to fetch posts"
)

// Error is returned by every PostService operation. Error() yields only the
// user-facing message; the status and cause are kept for callers that need them.
type Error struct {
	Op      string
	Status  int // 0 when the request never completed
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is an API 404.
func IsNotFound(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// errorDetail pulls the "detail" field out of a failure body. The API sends a
// string for domain errors and a list of {msg} objects for request validation.
func errorDetail(body []byte) string {
	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Detail) == 0 {
		return ""
	}

	var text string
	if err := json.Unmarshal(envelope.Detail, &text); err == nil {
		return text
	}

	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(envelope.Detail, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			if it.Msg != "" {
				msgs = append(msgs, it.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}
