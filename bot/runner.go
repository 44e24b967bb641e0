package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/suimin/suibot/telemetry"
)

// Run cycle terminal statuses. no-command and duplicate-skipped are normal
// outcomes, distinguishable from failures.
const (
	StatusPosted           = "posted"
	StatusNoCommand        = "no-command"
	StatusDuplicateSkipped = "duplicate-skipped"
)

// ChatSource fetches a page of recent live-chat messages, oldest to newest.
type ChatSource interface {
	FetchRecentMessages(ctx context.Context, chatID string, maxResults int64) ([]ChatMessage, error)
}

// ChatSink inserts a new message into the live chat and returns its id.
type ChatSink interface {
	PostMessage(ctx context.Context, chatID, text string) (string, error)
}

// ReplyGenerator produces the reply text for a triggering message given a
// bounded context window. It returns ErrEmptyReply when the completion API
// yields no usable text.
type ReplyGenerator interface {
	GenerateReply(ctx context.Context, window []ContextEntry, targetUser, targetText string) (string, error)
}

// ReplyRecorder receives an audit record after each successful post. It is
// optional; a nil recorder disables auditing.
type ReplyRecorder interface {
	RecordReply(ctx context.Context, triggerID, author, triggerText, reply, postedID string) error
}

// Result is the structured outcome of one run cycle.
type Result struct {
	Status    string `json:"status"`
	Reply     string `json:"reply,omitempty"`
	MessageID string `json:"message_id,omitempty"` // id of the posted chat message
	TriggerID string `json:"-"`
}

// Runner orchestrates one fetch -> detect -> dedup -> generate -> post pass.
// A mutex serializes overlapping invocations so concurrent /run requests and
// the internal loop cannot double-post for the same trigger.
type Runner struct {
	Source    ChatSource
	Sink      ChatSink
	Generator ReplyGenerator
	Dedup     DedupStore
	Recorder  ReplyRecorder // optional audit log

	ChatID        string
	Triggers      []string
	FetchMax      int64
	ContextBefore int
	ContextMax    int

	mu sync.Mutex
}

// RunOnce executes a single run cycle. It never retries; every failure is
// returned to the caller typed per the error taxonomy.
func (r *Runner) RunOnce(ctx context.Context) (*Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	start := time.Now()
	telemetry.IncRunCycles()
	defer func() {
		telemetry.ObserveRunDuration(time.Since(start))
		telemetry.SetLastRun(time.Now())
	}()

	if r.ChatID == "" {
		return nil, &ConfigError{Setting: "LIVE_CHAT_ID"}
	}
	fetchMax := r.FetchMax
	if fetchMax <= 0 || fetchMax > 200 {
		fetchMax = 200
	}
	ctxMax := r.ContextMax
	if ctxMax <= 0 {
		ctxMax = 10
	}

	logger := slog.Default().With(slog.String("component", "run_cycle"))

	messages, err := r.Source.FetchRecentMessages(ctx, r.ChatID, fetchMax)
	if err != nil {
		telemetry.IncUpstreamFailures()
		return nil, err
	}

	match, ok := FindLatestTrigger(messages, r.Triggers)
	if !ok {
		logger.Debug("no triggering message in page", slog.Int("page_size", len(messages)))
		telemetry.IncNoCommand()
		return &Result{Status: StatusNoCommand}, nil
	}

	lastID, err := r.Dedup.LastRespondedID(ctx)
	if err != nil {
		return nil, fmt.Errorf("load dedup state: %w", err)
	}
	if ShouldSkip(match, lastID) {
		logger.Info("trigger already answered", slog.String("message_id", match.Message.ID))
		telemetry.IncDedupSkips()
		return &Result{Status: StatusDuplicateSkipped, TriggerID: match.Message.ID}, nil
	}

	window := TrimWindow(BuildContext(messages, match.Index, r.ContextBefore), ctxMax)

	reply, err := r.Generator.GenerateReply(ctx, window, match.Message.Author, match.Message.Text)
	if err != nil {
		if errors.Is(err, ErrEmptyReply) {
			telemetry.IncEmptyReplies()
		} else {
			telemetry.IncGenerationFailures()
		}
		return nil, err
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		telemetry.IncEmptyReplies()
		return nil, ErrEmptyReply
	}

	postedID, err := r.Sink.PostMessage(ctx, r.ChatID, reply)
	if err != nil {
		telemetry.IncUpstreamFailures()
		return nil, err
	}

	// Recording after the confirmed post means a failed post keeps its retry
	// opportunity; a failed record risks one duplicate, which we accept.
	if err := r.Dedup.SetLastRespondedID(ctx, match.Message.ID); err != nil {
		logger.Warn("record responded id failed", slog.String("message_id", match.Message.ID), slog.Any("err", err))
	}
	if r.Recorder != nil {
		if err := r.Recorder.RecordReply(ctx, match.Message.ID, match.Message.Author, match.Message.Text, reply, postedID); err != nil {
			logger.Warn("reply audit record failed", slog.Any("err", err))
		}
	}

	logger.Info("reply posted",
		slog.String("trigger_message_id", match.Message.ID),
		slog.String("posted_message_id", postedID),
		slog.String("author", match.Message.Author))
	telemetry.IncRepliesPosted()
	return &Result{Status: StatusPosted, Reply: reply, MessageID: postedID, TriggerID: match.Message.ID}, nil
}
