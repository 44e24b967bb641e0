package bot

import (
	"context"
	"errors"
	"testing"
)

type fakeSource struct {
	messages []ChatMessage
	err      error
}

func (f *fakeSource) FetchRecentMessages(ctx context.Context, chatID string, maxResults int64) ([]ChatMessage, error) {
	return f.messages, f.err
}

type fakeSink struct {
	posted   []string
	postedID string
	err      error
}

func (f *fakeSink) PostMessage(ctx context.Context, chatID, text string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.posted = append(f.posted, text)
	return f.postedID, nil
}

type fakeGenerator struct {
	reply  string
	err    error
	window []ContextEntry
	target string
	calls  int
}

func (f *fakeGenerator) GenerateReply(ctx context.Context, window []ContextEntry, targetUser, targetText string) (string, error) {
	f.calls++
	f.window = window
	f.target = targetUser
	return f.reply, f.err
}

type fakeRecorder struct {
	records int
	lastID  string
}

func (f *fakeRecorder) RecordReply(ctx context.Context, triggerID, author, triggerText, reply, postedID string) error {
	f.records++
	f.lastID = triggerID
	return nil
}

func newTestRunner(src *fakeSource, sink *fakeSink, gen *fakeGenerator, dedup DedupStore) *Runner {
	return &Runner{
		Source:        src,
		Sink:          sink,
		Generator:     gen,
		Dedup:         dedup,
		ChatID:        "chat-1",
		Triggers:      []string{"sui sui"},
		FetchMax:      200,
		ContextBefore: 8,
		ContextMax:    10,
	}
}

func TestRunOnce_MissingChatID(t *testing.T) {
	r := newTestRunner(&fakeSource{}, &fakeSink{}, &fakeGenerator{}, &MemoryDedup{})
	r.ChatID = ""
	_, err := r.RunOnce(context.Background())
	var ce *ConfigError
	if !errors.As(err, &ce) {
		t.Fatalf("err = %v, want ConfigError", err)
	}
}

func TestRunOnce_NoCommand(t *testing.T) {
	src := &fakeSource{messages: msgs("hello", "nothing here")}
	gen := &fakeGenerator{}
	r := newTestRunner(src, &fakeSink{}, gen, &MemoryDedup{})

	res, err := r.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if res.Status != StatusNoCommand {
		t.Errorf("Status = %q, want %q", res.Status, StatusNoCommand)
	}
	if gen.calls != 0 {
		t.Errorf("generator called %d times on no-command cycle", gen.calls)
	}
}

func TestRunOnce_Posted(t *testing.T) {
	src := &fakeSource{messages: []ChatMessage{
		{ID: "m1", Author: "alice", Text: "hi everyone"},
		{ID: "m2", Author: "bob", Text: "sui sui tell me a joke"},
		{ID: "m3", Author: "carol", Text: "lol"},
	}}
	sink := &fakeSink{postedID: "p9"}
	gen := &fakeGenerator{reply: "  here is a joke!  "}
	rec := &fakeRecorder{}
	dedup := &MemoryDedup{}
	r := newTestRunner(src, sink, gen, dedup)
	r.Recorder = rec

	res, err := r.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if res.Status != StatusPosted {
		t.Fatalf("Status = %q, want %q", res.Status, StatusPosted)
	}
	if res.Reply != "here is a joke!" {
		t.Errorf("Reply = %q, want trimmed reply", res.Reply)
	}
	if res.MessageID != "p9" {
		t.Errorf("MessageID = %q, want p9", res.MessageID)
	}
	if len(sink.posted) != 1 || sink.posted[0] != "here is a joke!" {
		t.Errorf("posted = %v", sink.posted)
	}
	if gen.target != "bob" {
		t.Errorf("generator target = %q, want bob", gen.target)
	}
	// Window spans from before the trigger through the end of the page.
	if len(gen.window) != 3 {
		t.Errorf("window len = %d, want 3", len(gen.window))
	}
	if id, _ := dedup.LastRespondedID(context.Background()); id != "m2" {
		t.Errorf("dedup id = %q, want m2 (trigger id, not posted id)", id)
	}
	if rec.records != 1 || rec.lastID != "m2" {
		t.Errorf("recorder records = %d lastID = %q", rec.records, rec.lastID)
	}
}

func TestRunOnce_DuplicateSkipped(t *testing.T) {
	src := &fakeSource{messages: []ChatMessage{
		{ID: "m2", Author: "bob", Text: "sui sui again"},
	}}
	gen := &fakeGenerator{reply: "should not be called"}
	sink := &fakeSink{postedID: "p1"}
	dedup := &MemoryDedup{}
	_ = dedup.SetLastRespondedID(context.Background(), "m2")
	r := newTestRunner(src, sink, gen, dedup)

	res, err := r.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if res.Status != StatusDuplicateSkipped {
		t.Errorf("Status = %q, want %q", res.Status, StatusDuplicateSkipped)
	}
	if gen.calls != 0 {
		t.Error("generator must not run for an already-answered trigger")
	}
	if len(sink.posted) != 0 {
		t.Error("nothing should be posted on a duplicate cycle")
	}
}

func TestRunOnce_EmptyReply(t *testing.T) {
	src := &fakeSource{messages: []ChatMessage{
		{ID: "m5", Author: "bob", Text: "sui sui"},
	}}
	sink := &fakeSink{postedID: "p1"}
	dedup := &MemoryDedup{}

	for _, tt := range []struct {
		name string
		gen  *fakeGenerator
	}{
		{"generator sentinel", &fakeGenerator{err: ErrEmptyReply}},
		{"whitespace only", &fakeGenerator{reply: "   \n\t "}},
	} {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRunner(src, sink, tt.gen, dedup)
			_, err := r.RunOnce(context.Background())
			if !errors.Is(err, ErrEmptyReply) {
				t.Fatalf("err = %v, want ErrEmptyReply", err)
			}
			if len(sink.posted) != 0 {
				t.Error("empty reply must not be posted")
			}
			if id, _ := dedup.LastRespondedID(context.Background()); id != "" {
				t.Errorf("dedup id = %q, want unchanged (empty)", id)
			}
		})
	}
}

func TestRunOnce_PostFailureKeepsDedupState(t *testing.T) {
	src := &fakeSource{messages: []ChatMessage{
		{ID: "m7", Author: "bob", Text: "sui sui hello"},
	}}
	sink := &fakeSink{err: errors.New("insert failed")}
	gen := &fakeGenerator{reply: "hello bob"}
	dedup := &MemoryDedup{}
	r := newTestRunner(src, sink, gen, dedup)

	_, err := r.RunOnce(context.Background())
	if err == nil {
		t.Fatal("expected error from failed post")
	}
	// A failed post must leave the trigger answerable on the next cycle.
	if id, _ := dedup.LastRespondedID(context.Background()); id != "" {
		t.Errorf("dedup id = %q, want unchanged after failed post", id)
	}
}

func TestRunOnce_FetchError(t *testing.T) {
	upstream := errors.New("quota exceeded")
	src := &fakeSource{err: upstream}
	r := newTestRunner(src, &fakeSink{}, &fakeGenerator{}, &MemoryDedup{})

	_, err := r.RunOnce(context.Background())
	if !errors.Is(err, upstream) {
		t.Fatalf("err = %v, want wrapped fetch error", err)
	}
}

func TestRunOnce_WindowTrimmedToMax(t *testing.T) {
	messages := make([]ChatMessage, 30)
	for i := range messages {
		messages[i] = ChatMessage{ID: string(rune('a' + i)), Author: "u", Text: "chatter"}
	}
	messages[29].Text = "sui sui summarize"
	src := &fakeSource{messages: messages}
	gen := &fakeGenerator{reply: "summary"}
	r := newTestRunner(src, &fakeSink{postedID: "p1"}, gen, &MemoryDedup{})

	if _, err := r.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if len(gen.window) > 10 {
		t.Errorf("window len = %d, want <= 10", len(gen.window))
	}
}
