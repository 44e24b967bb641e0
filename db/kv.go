package db

import (
	"context"
	"database/sql"
	"fmt"
)

// lastRespondedKey is the kv key holding the id of the last chat message the
// bot replied to. Keeping it in Postgres means restarts and multi-instance
// deployments don't double-post for a message answered by a prior lifetime.
const lastRespondedKey = "last_responded_message_id"

// GetKV returns the value for key, or empty string when absent.
func GetKV(ctx context.Context, dbx *sql.DB, key string) (string, error) {
	var v string
	err := dbx.QueryRowContext(ctx, `SELECT value FROM kv WHERE key=$1`, key).Scan(&v)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return v, nil
}

// SetKV upserts a key/value pair.
func SetKV(ctx context.Context, dbx *sql.DB, key, value string) error {
	_, err := dbx.ExecContext(ctx, `INSERT INTO kv (key,value,updated_at) VALUES ($1,$2,NOW())
		ON CONFLICT(key) DO UPDATE SET value=EXCLUDED.value, updated_at=NOW()`, key, value)
	return err
}

// DedupStore implements bot.DedupStore over the kv table.
type DedupStore struct{ DB *sql.DB }

func (d *DedupStore) LastRespondedID(ctx context.Context) (string, error) {
	return GetKV(ctx, d.DB, lastRespondedKey)
}

func (d *DedupStore) SetLastRespondedID(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("empty message id")
	}
	return SetKV(ctx, d.DB, lastRespondedKey, id)
}
