package db

import (
	"context"
	"database/sql"
	"time"
)

// ReplyRecord is one row of the reply audit log.
type ReplyRecord struct {
	TriggerMessageID string
	TriggerAuthor    string
	TriggerText      string
	ReplyText        string
	PostedMessageID  string
	CreatedAt        time.Time
}

// ReplyLog implements bot.ReplyRecorder, keeping an audit trail of everything
// the bot posted.
type ReplyLog struct{ DB *sql.DB }

func (l *ReplyLog) RecordReply(ctx context.Context, triggerID, author, triggerText, reply, postedID string) error {
	_, err := l.DB.ExecContext(ctx, `INSERT INTO bot_replies (trigger_message_id, trigger_author, trigger_text, reply_text, posted_message_id, created_at)
		VALUES ($1,$2,$3,$4,$5,NOW())`, triggerID, author, triggerText, reply, postedID)
	return err
}

// CountReplies returns the total number of posted replies.
func CountReplies(ctx context.Context, dbx *sql.DB) (int, error) {
	var n int
	err := dbx.QueryRowContext(ctx, `SELECT COUNT(1) FROM bot_replies`).Scan(&n)
	return n, err
}

// LastReply returns the most recent audit row, or nil when the bot has not
// posted yet.
func LastReply(ctx context.Context, dbx *sql.DB) (*ReplyRecord, error) {
	row := dbx.QueryRowContext(ctx, `SELECT trigger_message_id, COALESCE(trigger_author,''), COALESCE(trigger_text,''),
		COALESCE(reply_text,''), COALESCE(posted_message_id,''), created_at
		FROM bot_replies ORDER BY created_at DESC, id DESC LIMIT 1`)
	var r ReplyRecord
	if err := row.Scan(&r.TriggerMessageID, &r.TriggerAuthor, &r.TriggerText, &r.ReplyText, &r.PostedMessageID, &r.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &r, nil
}
