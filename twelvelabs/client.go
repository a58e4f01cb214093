package twelvelabs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Task is the indexing job the service runs for an uploaded video. VideoID is
// assigned by the service once the upload has been accepted.
type Task struct {
	ID      string `json:"_id"`
	VideoID string `json:"video_id"`
	Status  string `json:"status"`
}

// Terminal reports whether polling can stop. "ready" is the only successful
// terminal status; anything outside the known in-flight statuses ends the job.
func (t Task) Terminal() bool {
	switch t.Status {
	case "uploading", "pending", "queued", "validating", "indexing":
		return false
	default:
		return true
	}
}

// Client talks to the TwelveLabs video-understanding API.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client

	// PollInterval is the fixed delay between task status checks.
	PollInterval time.Duration
}

const defaultPollInterval = 5 * time.Second

func New(apiKey, baseURL string) *Client {
	return &Client{
		apiKey:       apiKey,
		baseURL:      strings.TrimRight(baseURL, "/"),
		http:         &http.Client{Timeout: 5 * time.Minute},
		PollInterval: defaultPollInterval,
	}
}

// CreateTask submits an indexing job for a video reachable at videoURL.
func (c *Client) CreateTask(ctx context.Context, indexID, videoURL string) (Task, error) {
	body := map[string]any{
		"index_id":  indexID,
		"video_url": videoURL,
	}
	var task Task
	if err := c.do(ctx, http.MethodPost, "/tasks", body, &task); err != nil {
		return Task{}, err
	}
	return task, nil
}

// GetTask fetches the current state of an indexing job.
func (c *Client) GetTask(ctx context.Context, taskID string) (Task, error) {
	var task Task
	if err := c.do(ctx, http.MethodGet, "/tasks/"+taskID, nil, &task); err != nil {
		return Task{}, err
	}
	return task, nil
}

// WaitForDone polls the task at the client's fixed interval until it reaches a
// terminal status. onStatus fires once per observed status change. The caller
// decides what a non-ready terminal status means.
func (c *Client) WaitForDone(ctx context.Context, taskID string, onStatus func(Task)) (Task, error) {
	var last string
	for {
		task, err := c.GetTask(ctx, taskID)
		if err != nil {
			return Task{}, err
		}
		if task.Status != last {
			last = task.Status
			if onStatus != nil {
				onStatus(task)
			}
		}
		if task.Terminal() {
			return task, nil
		}
		select {
		case <-ctx.Done():
			return Task{}, ctx.Err()
		case <-time.After(c.PollInterval):
		}
	}
}

type analyzeResponse struct {
	ID   string `json:"id"`
	Data string `json:"data"`
}

// Analyze runs a free-text analysis prompt against an indexed video and
// returns the model's text output verbatim.
func (c *Client) Analyze(ctx context.Context, videoID, prompt string) (string, error) {
	body := map[string]any{
		"video_id": videoID,
		"prompt":   prompt,
	}
	var resp analyzeResponse
	if err := c.do(ctx, http.MethodPost, "/analyze", body, &resp); err != nil {
		return "", err
	}
	return resp.Data, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("x-api-key", c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		rb, _ := io.ReadAll(resp.Body)
		// The status code stays in the message: callers substring-match
		// 401/400/429 to produce friendlier errors.
		return fmt.Errorf("twelvelabs status %d: %s", resp.StatusCode, truncate(redact(string(rb), c.apiKey), 400))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode twelvelabs response: %w", err)
	}
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func redact(s, apiKey string) string {
	if apiKey == "" {
		return s
	}
	return strings.ReplaceAll(s, apiKey, "[REDACTED]")
}
