package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/veralis-app/salesdesk/go-engine/internal/profile"
)

// #region client-struct

// Client reads profile snapshots from the analysis service. It is a pure
// I/O boundary: no caching, no internal retries — every call is a fresh
// read, and retry policy belongs to the polling controller.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// #endregion client-struct

// #region constructor

// NewClient creates a client for the given analysis-service base URL,
// e.g. "http://localhost:8090".
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// NewClientWithHTTP creates a client with an injected *http.Client.
// Used for testing against httptest servers.
func NewClientWithHTTP(baseURL string, hc *http.Client) *Client {
	return &Client{baseURL: baseURL, httpClient: hc}
}

// #endregion constructor

// #region fetch

// Fetch returns the latest available snapshot for the subject. The result
// may be identical to the previous one if the backend made no progress.
func (c *Client) Fetch(ctx context.Context, subjectID string) (profile.Snapshot, error) {
	endpoint := fmt.Sprintf("%s/api/subjects/%s/profile", c.baseURL, url.PathEscape(subjectID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return profile.Snapshot{}, &TransportError{Op: "build request", Err: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return profile.Snapshot{}, &TransportError{Op: "get", Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		io.Copy(io.Discard, resp.Body) // drain
		return profile.Snapshot{}, fmt.Errorf("subject %s: %w", subjectID, ErrNotFound)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return profile.Snapshot{}, &TransportError{
			Op:  "get",
			Err: fmt.Errorf("status %d: %s", resp.StatusCode, string(body)),
		}
	}

	var snap profile.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return profile.Snapshot{}, &MalformedError{Err: err}
	}
	if snap.SubjectID == "" {
		snap.SubjectID = subjectID
	}
	snap.FetchedAt = time.Now().UTC()
	return snap, nil
}

// #endregion fetch
