package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aaasjp/travel-bill-agent/pkg/domain"
)

type mockEngine struct {
	startFunc  func(ctx context.Context, threadID, input string) (*domain.State, error)
	resumeFunc func(ctx context.Context, threadID string, resp domain.InterventionResponse) (*domain.State, error)
}

func (m *mockEngine) StartOrContinue(ctx context.Context, threadID, input string) (*domain.State, error) {
	if m.startFunc != nil {
		return m.startFunc(ctx, threadID, input)
	}
	state := domain.NewState(threadID, input)
	state.Status = domain.StatusCompleted
	state.FinalOutput = "done"
	return state, nil
}

func (m *mockEngine) Resume(ctx context.Context, threadID string, resp domain.InterventionResponse) (*domain.State, error) {
	if m.resumeFunc != nil {
		return m.resumeFunc(ctx, threadID, resp)
	}
	return nil, &domain.StaleResumptionError{ThreadID: threadID, Status: domain.StatusCompleted}
}

func (m *mockEngine) Inspect(ctx context.Context, threadID string) (*domain.State, error) {
	return nil, domain.ErrThreadNotFound
}

func (m *mockEngine) Threads(ctx context.Context) ([]string, error) {
	return []string{"t-1", "t-2"}, nil
}

func TestMessageReturnsTurnSnapshot(t *testing.T) {
	handler := NewHandler(&mockEngine{})

	body, _ := json.Marshal(MessageRequest{Input: "hello"})
	req := httptest.NewRequest("POST", "/api/threads/t-1/messages", bytes.NewReader(body))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp TurnResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.ThreadID != "t-1" || resp.Status != domain.StatusCompleted || resp.FinalOutput != "done" {
		t.Fatalf("resp = %+v", resp)
	}
}

func TestMessageRejectsEmptyInput(t *testing.T) {
	handler := NewHandler(&mockEngine{})

	req := httptest.NewRequest("POST", "/api/threads/t-1/messages", strings.NewReader(`{"input": ""}`))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestResumeSuspendedThread(t *testing.T) {
	eng := &mockEngine{
		resumeFunc: func(ctx context.Context, threadID string, resp domain.InterventionResponse) (*domain.State, error) {
			if resp.Action != domain.ActionApprove {
				t.Fatalf("action = %s", resp.Action)
			}
			state := domain.NewState(threadID, "")
			state.Status = domain.StatusCompleted
			return state, nil
		},
	}
	handler := NewHandler(eng)

	req := httptest.NewRequest("POST", "/api/threads/t-1/resume", strings.NewReader(`{"action": "approve"}`))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
}

func TestResumeNotSuspendedConflicts(t *testing.T) {
	handler := NewHandler(&mockEngine{})

	req := httptest.NewRequest("POST", "/api/threads/t-1/resume", strings.NewReader(`{"action": "approve"}`))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", w.Code)
	}
}

func TestInspectUnknownThread(t *testing.T) {
	handler := NewHandler(&mockEngine{})

	req := httptest.NewRequest("GET", "/api/threads/ghost/", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestListThreads(t *testing.T) {
	handler := NewHandler(&mockEngine{})

	req := httptest.NewRequest("GET", "/api/threads/", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp struct {
		Threads []string `json:"threads"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Threads) != 2 {
		t.Fatalf("threads = %v", resp.Threads)
	}
}

func TestCreateThreadMintsID(t *testing.T) {
	handler := NewHandler(&mockEngine{})

	req := httptest.NewRequest("POST", "/api/threads/", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d", w.Code)
	}
	var resp map[string]string
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp["thread_id"] == "" {
		t.Fatal("no thread_id in response")
	}
}

func TestEventsStreamsTurnSnapshots(t *testing.T) {
	handler := NewHandler(&mockEngine{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	wSub := httptest.NewRecorder()
	reqSub := httptest.NewRequest("GET", "/api/threads/t-1/events", nil).WithContext(ctx)
	done := make(chan struct{})
	go func() {
		handler.ServeHTTP(wSub, reqSub)
		close(done)
	}()

	time.Sleep(100 * time.Millisecond)

	body, _ := json.Marshal(MessageRequest{Input: "hello"})
	reqMsg := httptest.NewRequest("POST", "/api/threads/t-1/messages", bytes.NewReader(body))
	wMsg := httptest.NewRecorder()
	handler.ServeHTTP(wMsg, reqMsg)
	if wMsg.Code != http.StatusOK {
		t.Fatalf("message failed: %d", wMsg.Code)
	}

	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	output := wSub.Body.String()
	if !strings.Contains(output, "event: ping") {
		t.Error("expected initial ping")
	}
	if !strings.Contains(output, `"status":"completed"`) {
		t.Errorf("expected turn snapshot in stream, got %q", output)
	}
}
