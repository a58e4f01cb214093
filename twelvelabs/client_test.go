package twelvelabs

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestCreateTaskSendsKeyAndDecodesTask(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/tasks" || r.Method != http.MethodPost {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("x-api-key"); got != "tlk-test" {
			t.Errorf("missing api key header, got %q", got)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if body["video_url"] != "https://example.com/v.mp4" {
			t.Errorf("unexpected video_url: %v", body["video_url"])
		}
		fmt.Fprint(w, `{"_id":"task-1","status":"pending"}`)
	}))
	defer srv.Close()

	c := New("tlk-test", srv.URL)
	task, err := c.CreateTask(context.Background(), "idx-1", "https://example.com/v.mp4")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if task.ID != "task-1" || task.Status != "pending" {
		t.Fatalf("unexpected task: %+v", task)
	}
}

func TestWaitForDonePollsUntilTerminal(t *testing.T) {
	var calls atomic.Int32
	statuses := []string{"pending", "validating", "indexing", "indexing", "ready"}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		status := statuses[min(int(n)-1, len(statuses)-1)]
		fmt.Fprintf(w, `{"_id":"task-1","video_id":"vid-9","status":%q}`, status)
	}))
	defer srv.Close()

	c := New("k", srv.URL)
	c.PollInterval = time.Millisecond

	var seen []string
	task, err := c.WaitForDone(context.Background(), "task-1", func(t Task) {
		seen = append(seen, t.Status)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if task.Status != "ready" || task.VideoID != "vid-9" {
		t.Fatalf("unexpected terminal task: %+v", task)
	}
	// one notification per status change, repeats collapsed
	want := []string{"pending", "validating", "indexing", "ready"}
	if len(seen) != len(want) {
		t.Fatalf("status notifications = %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("status notifications = %v, want %v", seen, want)
		}
	}
}

func TestWaitForDoneStopsOnFailedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"_id":"task-1","status":"failed"}`)
	}))
	defer srv.Close()

	c := New("k", srv.URL)
	c.PollInterval = time.Millisecond
	task, err := c.WaitForDone(context.Background(), "task-1", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if task.Status != "failed" {
		t.Fatalf("expected failed terminal status, got %+v", task)
	}
}

func TestErrorsEmbedStatusCodeAndRedactKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"message":"bad key tlk-secret"}`)
	}))
	defer srv.Close()

	c := New("tlk-secret", srv.URL)
	_, err := c.Analyze(context.Background(), "vid-1", "prompt")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "401") {
		t.Fatalf("error should carry the HTTP status: %v", err)
	}
	if strings.Contains(err.Error(), "tlk-secret") {
		t.Fatalf("api key leaked into error: %v", err)
	}
}

func TestAnalyzeReturnsDataField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/analyze" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		fmt.Fprint(w, `{"id":"a-1","data":"{\"clips\":[]}"}`)
	}))
	defer srv.Close()

	c := New("k", srv.URL)
	data, err := c.Analyze(context.Background(), "vid-1", "find tactics")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if data != `{"clips":[]}` {
		t.Fatalf("unexpected data: %q", data)
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
