package coverage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrSyncPaused is returned by FlushNow while automatic persistence is
// suspended after exhausting retries, until a flush succeeds again.
var ErrSyncPaused = errors.New("coverage sync paused")

// Sink persists a batch of newly driven segment ids. An empty missionID means
// the batch is not scoped to any mission. Implementations must be safe for
// use from the tracker's timer goroutine.
type Sink interface {
	Flush(ctx context.Context, ids []string, missionID string) error
}

// Issue is a persistence problem surfaced to the caller instead of being
// retried forever.
type Issue struct {
	Kind    string // "retry_exhausted"
	Err     error
	Pending int // ids still queued
}

// HTTPSink posts driven-segment batches as JSON to a single endpoint.
type HTTPSink struct {
	url        string
	httpClient *http.Client
}

// NewHTTPSink returns a sink posting to url. A zero timeout falls back to
// 10 seconds.
func NewHTTPSink(url string, timeout time.Duration) *HTTPSink {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPSink{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type flushRequest struct {
	IDs       []string `json:"ids"`
	MissionID string   `json:"mission_id,omitempty"`
}

// Flush posts {ids, mission_id?} and treats any non-2xx status as failure.
func (s *HTTPSink) Flush(ctx context.Context, ids []string, missionID string) error {
	body, err := json.Marshal(flushRequest{IDs: ids, MissionID: missionID})
	if err != nil {
		return fmt.Errorf("encode flush batch: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build flush request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("flush %d ids: %w", len(ids), err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("flush %d ids: HTTP %d from %s", len(ids), resp.StatusCode, s.url)
	}
	return nil
}
