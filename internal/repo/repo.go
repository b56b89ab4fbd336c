package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"taskdeck/internal/db"
)

var ErrNotFound = errors.New("not found")

// BlobStore is the key-value substrate the task store persists into. Each key
// holds one serialized blob.
type BlobStore interface {
	Get(ctx context.Context, key string) (string, error)
	Put(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// SQLBlobs keeps blobs in the kv table of a SQLite or Postgres database.
type SQLBlobs struct {
	DB      *sql.DB
	Dialect db.Dialect
	Now     func() time.Time
}

func NewSQLBlobs(conn *sql.DB, dialect db.Dialect) *SQLBlobs {
	return &SQLBlobs{DB: conn, Dialect: dialect, Now: time.Now}
}

func (r *SQLBlobs) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := r.DB.QueryRowContext(ctx, r.rebind(`SELECT value FROM kv WHERE key=?`), key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get %s: %w", key, err)
	}
	return value, nil
}

func (r *SQLBlobs) Put(ctx context.Context, key, value string) error {
	_, err := r.DB.ExecContext(ctx, r.rebind(`INSERT INTO kv(key,value,updated_at) VALUES (?,?,?)
		ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at`),
		key, value, r.now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

func (r *SQLBlobs) Delete(ctx context.Context, key string) error {
	if _, err := r.DB.ExecContext(ctx, r.rebind(`DELETE FROM kv WHERE key=?`), key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (r *SQLBlobs) now() time.Time {
	if r.Now == nil {
		return time.Now()
	}
	return r.Now()
}

// rebind rewrites ? placeholders into $n for Postgres.
func (r *SQLBlobs) rebind(query string) string {
	if r.Dialect != db.Postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, ch := range query {
		if ch == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(ch)
	}
	return b.String()
}
