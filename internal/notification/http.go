package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	sendTimeout  = 10 * time.Second
	maxErrorBody = 512
)

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: sendTimeout}
}

// statusError carries a non-2xx response, with a prefix of its body.
type statusError struct {
	backend string
	code    int
	body    string
}

func (e *statusError) Error() string {
	if e.body == "" {
		return fmt.Sprintf("%s: unexpected status %d", e.backend, e.code)
	}
	return fmt.Sprintf("%s: unexpected status %d: %s", e.backend, e.code, e.body)
}

// postJSON posts v as JSON to url and fails on any non-2xx status.
func postJSON(ctx context.Context, client *http.Client, backend, url string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%s: marshal: %w", backend, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%s: create request: %w", backend, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: send: %w", backend, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &statusError{backend: backend, code: resp.StatusCode, body: string(bytes.TrimSpace(msg))}
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}
