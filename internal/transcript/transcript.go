// Package transcript journals console output to a local sqlite database so
// past sessions can be read back.
package transcript

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/atomicstack/kbconsole/internal/console"
	"github.com/atomicstack/kbconsole/internal/logging"
)

// ErrClosed is returned after Close.
var ErrClosed = errors.New("transcript closed")

// Record is one journaled console entry.
type Record struct {
	Session   string
	Seq       int
	Entry     console.Entry
	CreatedAt time.Time
}

// Journal appends console entries for one session.
type Journal struct {
	db      *sql.DB
	session string

	mu     sync.Mutex
	seq    int
	closed bool
}

// Open creates or migrates the database at path and starts a new session.
func Open(ctx context.Context, path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	// modernc.org/sqlite registers the "sqlite" driver.
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate transcript: %w", err)
	}
	j := &Journal{db: db, session: uuid.NewString()}
	if _, err := db.ExecContext(ctx,
		`INSERT INTO sessions(session_id, started_at_unixms) VALUES (?, ?)`,
		j.session, time.Now().UnixMilli(),
	); err != nil {
		_ = db.Close()
		return nil, err
	}
	logging.Debug("transcript opened", "path", path, "session", j.session)
	return j, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			session_id TEXT PRIMARY KEY,
			started_at_unixms INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS entries (
			session_id TEXT NOT NULL REFERENCES sessions(session_id),
			seq INTEGER NOT NULL,
			text TEXT NOT NULL,
			is_menu INTEGER NOT NULL,
			created_at_unixms INTEGER NOT NULL,
			PRIMARY KEY(session_id, seq)
		);`,
	}
	for _, st := range stmts {
		if _, err := db.ExecContext(ctx, st); err != nil {
			return err
		}
	}
	return nil
}

// Session returns the id of the session being written.
func (j *Journal) Session() string {
	return j.session
}

// Record appends e to the current session.
func (j *Journal) Record(ctx context.Context, e console.Entry) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.insertLocked(ctx, j.seq, e)
}

// Update rewrites the stored text of entry seq. Unknown entries are ignored.
func (j *Journal) Update(ctx context.Context, seq int, e console.Entry) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return ErrClosed
	}
	_, err := j.db.ExecContext(ctx,
		`UPDATE entries SET text = ?, is_menu = ? WHERE session_id = ? AND seq = ?`,
		e.Text, boolInt(e.IsMenu), j.session, seq,
	)
	return err
}

func (j *Journal) insertLocked(ctx context.Context, seq int, e console.Entry) error {
	if j.closed {
		return ErrClosed
	}
	if _, err := j.db.ExecContext(ctx,
		`INSERT INTO entries(session_id, seq, text, is_menu, created_at_unixms) VALUES (?, ?, ?, ?, ?)`,
		j.session, seq, e.Text, boolInt(e.IsMenu), time.Now().UnixMilli(),
	); err != nil {
		return err
	}
	j.seq = seq + 1
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// EntryAppended records e under the log's sequence number, logging failures
// instead of returning them.
func (j *Journal) EntryAppended(seq int, e console.Entry) {
	j.mu.Lock()
	err := j.insertLocked(context.Background(), seq, e)
	j.mu.Unlock()
	j.logFailure(err)
}

// EntryUpdated mirrors an in-place change such as a redrawn menu.
func (j *Journal) EntryUpdated(seq int, e console.Entry) {
	j.logFailure(j.Update(context.Background(), seq, e))
}

func (j *Journal) logFailure(err error) {
	if err != nil && !errors.Is(err, ErrClosed) {
		logging.Error(fmt.Errorf("transcript: %w", err))
	}
}

// Entries returns the records of session in order.
func (j *Journal) Entries(ctx context.Context, session string) ([]Record, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT seq, text, is_menu, created_at_unixms FROM entries WHERE session_id = ? ORDER BY seq`,
		session,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Record
	for rows.Next() {
		var (
			r      Record
			isMenu int
			ms     int64
		)
		if err := rows.Scan(&r.Seq, &r.Entry.Text, &isMenu, &ms); err != nil {
			return nil, err
		}
		r.Session = session
		r.Entry.IsMenu = isMenu != 0
		r.CreatedAt = time.UnixMilli(ms)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Sessions lists session ids, oldest first.
func (j *Journal) Sessions(ctx context.Context) ([]string, error) {
	rows, err := j.db.QueryContext(ctx, `SELECT session_id FROM sessions ORDER BY started_at_unixms, rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// Close stops recording and closes the database.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return nil
	}
	j.closed = true
	return j.db.Close()
}
