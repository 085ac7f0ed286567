package engine

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"

	"feeline/internal/config"
	"feeline/internal/events"
	"feeline/internal/repo"
)

type Engine struct {
	DB     *sql.DB
	Repo   repo.Repo
	Events events.Writer
	Config *config.Config
	Now    func() time.Time
}

func New(db *sql.DB, cfg *config.Config) Engine {
	if cfg == nil {
		cfg = config.Default()
	}
	return Engine{
		DB:     db,
		Repo:   repo.Repo{DB: db},
		Events: events.Writer{},
		Config: cfg,
		Now:    time.Now,
	}
}

func (e Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e Engine) timestamp() string {
	return e.now().UTC().Format(time.RFC3339Nano)
}

func newID() string {
	return uuid.NewString()
}

// write runs fn in a transaction and commits when it returns nil.
func (e Engine) write(ctx context.Context, fn func(tx *sql.Tx, r repo.Repo) error) error {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return Internal(err, "begin transaction")
	}
	defer tx.Rollback()
	if err := fn(tx, e.Repo.WithTx(tx)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return Internal(err, "commit")
	}
	return nil
}

// read runs fn against a single read-only snapshot.
func (e Engine) read(ctx context.Context, fn func(r repo.Repo) error) error {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return Internal(err, "begin read")
	}
	defer tx.Rollback()
	return fn(e.Repo.WithTx(tx))
}

func (e Engine) append(ctx context.Context, tx *sql.Tx, entry events.Entry) error {
	w := e.Events
	if e.Now != nil {
		w.Now = e.Now
	}
	if err := w.Append(ctx, tx, entry); err != nil {
		return Internal(err, "audit")
	}
	return nil
}

func oneOf(v string, allowed ...string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// optional turns "" into nil.
func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
