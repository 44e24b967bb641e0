package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/suimin/suibot/bot"
)

type stubSource struct {
	messages []bot.ChatMessage
	err      error
}

func (s *stubSource) FetchRecentMessages(ctx context.Context, chatID string, maxResults int64) ([]bot.ChatMessage, error) {
	return s.messages, s.err
}

type stubSink struct {
	postedID string
}

func (s *stubSink) PostMessage(ctx context.Context, chatID, text string) (string, error) {
	return s.postedID, nil
}

type stubGenerator struct {
	reply string
	err   error
}

func (s *stubGenerator) GenerateReply(ctx context.Context, window []bot.ContextEntry, targetUser, targetText string) (string, error) {
	return s.reply, s.err
}

func newStubRunner(messages []bot.ChatMessage, gen *stubGenerator) *bot.Runner {
	return &bot.Runner{
		Source:        &stubSource{messages: messages},
		Sink:          &stubSink{postedID: "posted-1"},
		Generator:     gen,
		Dedup:         &bot.MemoryDedup{},
		ChatID:        "chat-1",
		Triggers:      []string{"sui sui"},
		FetchMax:      200,
		ContextBefore: 8,
		ContextMax:    10,
	}
}

func runRequest(t *testing.T, h *Handlers, method string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, "/run", nil)
	rr := httptest.NewRecorder()
	h.HandleRun(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body %q: %v", rr.Body.String(), err)
	}
	return body
}

func TestHandleRun_MethodNotAllowed(t *testing.T) {
	h := NewHandlers(context.Background(), nil, nil)
	rr := runRequest(t, h, http.MethodGet)
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rr.Code)
	}
}

func TestHandleRun_NotConfigured(t *testing.T) {
	h := NewHandlers(context.Background(), nil, nil)
	rr := runRequest(t, h, http.MethodPost)
	if rr.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rr.Code)
	}
	body := decodeBody(t, rr)
	if body["error"] == "" {
		t.Error("expected error message in body")
	}
}

func TestHandleRun_Posted(t *testing.T) {
	runner := newStubRunner([]bot.ChatMessage{
		{ID: "m1", Author: "alice", Text: "hi"},
		{ID: "m2", Author: "bob", Text: "sui sui hello"},
	}, &stubGenerator{reply: "hello bob!"})
	h := NewHandlers(context.Background(), nil, runner)

	rr := runRequest(t, h, http.MethodPost)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rr.Code, rr.Body.String())
	}
	body := decodeBody(t, rr)
	if body["status"] != bot.StatusPosted {
		t.Errorf("status = %v, want %q", body["status"], bot.StatusPosted)
	}
	if body["reply"] != "hello bob!" {
		t.Errorf("reply = %v", body["reply"])
	}
	if body["message_id"] != "posted-1" {
		t.Errorf("message_id = %v", body["message_id"])
	}
}

func TestHandleRun_NoCommand(t *testing.T) {
	runner := newStubRunner([]bot.ChatMessage{
		{ID: "m1", Author: "alice", Text: "just chatting"},
	}, &stubGenerator{reply: "unused"})
	h := NewHandlers(context.Background(), nil, runner)

	rr := runRequest(t, h, http.MethodPost)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	body := decodeBody(t, rr)
	if body["status"] != bot.StatusNoCommand {
		t.Errorf("status = %v, want %q", body["status"], bot.StatusNoCommand)
	}
	if _, ok := body["reply"]; ok {
		t.Error("no-command result should omit reply")
	}
}

func TestHandleRun_DuplicateSkipped(t *testing.T) {
	runner := newStubRunner([]bot.ChatMessage{
		{ID: "m2", Author: "bob", Text: "sui sui hello"},
	}, &stubGenerator{reply: "unused"})
	_ = runner.Dedup.SetLastRespondedID(context.Background(), "m2")
	h := NewHandlers(context.Background(), nil, runner)

	rr := runRequest(t, h, http.MethodPost)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	body := decodeBody(t, rr)
	if body["status"] != bot.StatusDuplicateSkipped {
		t.Errorf("status = %v, want %q", body["status"], bot.StatusDuplicateSkipped)
	}
}

func TestHandleRun_EmptyReply(t *testing.T) {
	runner := newStubRunner([]bot.ChatMessage{
		{ID: "m2", Author: "bob", Text: "sui sui hello"},
	}, &stubGenerator{err: bot.ErrEmptyReply})
	h := NewHandlers(context.Background(), nil, runner)

	rr := runRequest(t, h, http.MethodPost)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rr.Code)
	}
	body := decodeBody(t, rr)
	if body["class"] != "empty-reply" {
		t.Errorf("class = %v, want empty-reply", body["class"])
	}
}

func TestHandleRun_ConfigError(t *testing.T) {
	runner := newStubRunner(nil, &stubGenerator{})
	runner.ChatID = ""
	h := NewHandlers(context.Background(), nil, runner)

	rr := runRequest(t, h, http.MethodPost)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rr.Code)
	}
	body := decodeBody(t, rr)
	if body["class"] != "config" {
		t.Errorf("class = %v, want config", body["class"])
	}
}
