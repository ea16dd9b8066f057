// Package netx holds small HTTP/JSON helpers shared by API clients.
package netx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// MaxBodyBytes caps how much of a response body is read.
const MaxBodyBytes int64 = 10 << 20

var ErrBodyTooLarge = errors.New("response body too large")

// NewJSONRequest builds a request with body encoded as JSON. A nil body
// produces a request without payload.
func NewJSONRequest(ctx context.Context, method, url string, body any) (*http.Request, error) {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, rdr)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// ReadLimited reads at most limit bytes and fails if the body is longer.
func ReadLimited(r io.Reader, limit int64) ([]byte, error) {
	b, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(b)) > limit {
		return nil, ErrBodyTooLarge
	}
	return b, nil
}

// DecodeJSON decodes a size-limited body into v. An empty body leaves v untouched.
func DecodeJSON(r io.Reader, limit int64, v any) error {
	b, err := ReadLimited(r, limit)
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(b)) == 0 {
		return nil
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// ErrorMessage extracts the server-provided message from an error response.
// It returns "" when the body has no message.
func ErrorMessage(resp *http.Response) string {
	if resp == nil || resp.Body == nil {
		return ""
	}
	b, err := ReadLimited(resp.Body, 64<<10)
	if err != nil || len(b) == 0 {
		return ""
	}
	var eb errorBody
	if json.Unmarshal(b, &eb) == nil {
		if eb.Message != "" {
			return strings.TrimSpace(eb.Message)
		}
		return strings.TrimSpace(eb.Error)
	}
	return ""
}
