// Package journal keeps an append-only record of the triples fed to a store,
// grouped in sessions, so that a knowledge base can be rebuilt later by
// replaying a session.
package journal

import (
	"bytes"
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/cayleygraph/quad"
	"github.com/cayleygraph/quad/nquads"
	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"
)

// ErrSessionNotFound is returned for a session id the journal does not know.
var ErrSessionNotFound = errors.New("session not found")

// Sink receives replayed triples.
type Sink interface {
	Add(q quad.Quad) error
}

// Session describes one recorded session.
type Session struct {
	ID      string
	Label   string
	Created time.Time
	Triples int
}

// Journal is a sqlite-backed triple journal.
type Journal struct {
	db     *sql.DB
	logger *slog.Logger

	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// Open opens or creates the journal at path with WAL mode enabled.
func Open(ctx context.Context, path string, logger *slog.Logger) (*Journal, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("journal.Open: open failed: %w", err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("journal.Open: enable WAL failed: %w", err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("journal.Open: enable foreign keys failed: %w", err)
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("journal.Open: init schema failed: %w", err)
	}

	logger.Info("journal opened", "path", path)
	return &Journal{
		db:      db,
		logger:  logger,
		entropy: ulid.Monotonic(rand.Reader, 0),
	}, nil
}

// Close closes the database connection
func (j *Journal) Close() error {
	return j.db.Close()
}

func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS sessions (
	id TEXT PRIMARY KEY,
	label TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS triples (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL,
	nquad TEXT NOT NULL,
	FOREIGN KEY(session_id) REFERENCES sessions(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_triples_session ON triples(session_id, id);
`
	_, err := db.ExecContext(ctx, schema)
	return err
}

// NewSession starts a session and returns its id. Ids are ULIDs, so they
// sort by creation time.
func (j *Journal) NewSession(ctx context.Context, label string) (string, error) {
	j.mu.Lock()
	id := ulid.MustNew(ulid.Now(), j.entropy).String()
	j.mu.Unlock()

	if _, err := j.db.ExecContext(ctx, "INSERT INTO sessions(id, label) VALUES (?, ?)", id, label); err != nil {
		return "", fmt.Errorf("journal.NewSession: insert failed: %w", err)
	}
	j.logger.Info("journal session started", "session", id, "label", label)
	return id, nil
}

// encode renders q as one N-Quads line without the trailing newline.
func encode(q quad.Quad) (string, error) {
	var buf bytes.Buffer
	w := nquads.NewWriter(&buf)
	if err := w.WriteQuad(q); err != nil {
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

func decode(line string) (quad.Quad, error) {
	return nquads.NewReader(strings.NewReader(line+"\n"), false).ReadQuad()
}

// Append records q at the end of session.
func (j *Journal) Append(ctx context.Context, session string, q quad.Quad) error {
	if err := j.AppendBatch(ctx, session, []quad.Quad{q}); err != nil {
		return fmt.Errorf("journal.Append: %w", err)
	}
	return nil
}

// AppendBatch records qs at the end of session in one transaction: either
// all of them are stored or none is.
func (j *Journal) AppendBatch(ctx context.Context, session string, qs []quad.Quad) error {
	if len(qs) == 0 {
		return nil
	}
	lines := make([]string, len(qs))
	for i, q := range qs {
		line, err := encode(q)
		if err != nil {
			return fmt.Errorf("journal.AppendBatch: encode failed: %w", err)
		}
		lines[i] = line
	}

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("journal.AppendBatch: begin failed: %w", err)
	}
	defer tx.Rollback()

	var one int
	err = tx.QueryRowContext(ctx, "SELECT 1 FROM sessions WHERE id = ?", session).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("journal.AppendBatch: %w: %s", ErrSessionNotFound, session)
	}
	if err != nil {
		return fmt.Errorf("journal.AppendBatch: lookup session failed: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO triples(session_id, nquad) VALUES (?, ?)")
	if err != nil {
		return fmt.Errorf("journal.AppendBatch: prepare failed: %w", err)
	}
	defer stmt.Close()
	for _, line := range lines {
		if _, err := stmt.ExecContext(ctx, session, line); err != nil {
			return fmt.Errorf("journal.AppendBatch: insert failed: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("journal.AppendBatch: commit failed: %w", err)
	}
	return nil
}

func (j *Journal) exists(ctx context.Context, session string) (bool, error) {
	var one int
	err := j.db.QueryRowContext(ctx, "SELECT 1 FROM sessions WHERE id = ?", session).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// Replay feeds the triples of session to sink in the order they were
// appended and returns how many were replayed. It stops at the first sink
// error.
func (j *Journal) Replay(ctx context.Context, session string, sink Sink) (int, error) {
	ok, err := j.exists(ctx, session)
	if err != nil {
		return 0, fmt.Errorf("journal.Replay: lookup session failed: %w", err)
	}
	if !ok {
		return 0, fmt.Errorf("journal.Replay: %w: %s", ErrSessionNotFound, session)
	}

	rows, err := j.db.QueryContext(ctx, "SELECT id, nquad FROM triples WHERE session_id = ? ORDER BY id", session)
	if err != nil {
		return 0, fmt.Errorf("journal.Replay: query failed: %w", err)
	}
	defer rows.Close()

	n := 0
	for rows.Next() {
		var (
			id   int64
			line string
		)
		if err := rows.Scan(&id, &line); err != nil {
			return n, fmt.Errorf("journal.Replay: scan failed: %w", err)
		}
		q, err := decode(line)
		if err != nil {
			return n, fmt.Errorf("journal.Replay: decode entry %d failed: %w", id, err)
		}
		if err := sink.Add(q); err != nil {
			return n, fmt.Errorf("journal.Replay: add entry %d failed: %w", id, err)
		}
		n++
	}
	if err := rows.Err(); err != nil {
		return n, fmt.Errorf("journal.Replay: read rows failed: %w", err)
	}
	j.logger.Info("journal session replayed", "session", session, "triples", n)
	return n, nil
}

// Sessions lists the recorded sessions, oldest first.
func (j *Journal) Sessions(ctx context.Context) ([]Session, error) {
	rows, err := j.db.QueryContext(ctx, `
SELECT s.id, s.label, COUNT(t.id)
FROM sessions s LEFT JOIN triples t ON t.session_id = s.id
GROUP BY s.id, s.label
ORDER BY s.id`)
	if err != nil {
		return nil, fmt.Errorf("journal.Sessions: query failed: %w", err)
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		var s Session
		if err := rows.Scan(&s.ID, &s.Label, &s.Triples); err != nil {
			return nil, fmt.Errorf("journal.Sessions: scan failed: %w", err)
		}
		if id, err := ulid.ParseStrict(s.ID); err == nil {
			s.Created = ulid.Time(id.Time())
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// DefaultBatchSize is how many accepted triples a Recorder buffers before
// writing them in one transaction.
const DefaultBatchSize = 512

// Recorder returns a Recorder that passes each triple to next and records
// the ones next accepts in session.
func (j *Journal) Recorder(ctx context.Context, session string, next Sink) *Recorder {
	return &Recorder{ctx: ctx, j: j, session: session, next: next, size: DefaultBatchSize}
}

// Recorder is a Sink that journals accepted triples in batches. Call Flush
// once the input is exhausted; triples still buffered are not recorded
// otherwise.
type Recorder struct {
	ctx     context.Context
	j       *Journal
	session string
	next    Sink

	size    int
	pending []quad.Quad
	written int
}

// WithBatchSize sets how many triples are buffered per transaction. Sizes
// below one mean one transaction per triple.
func (r *Recorder) WithBatchSize(n int) *Recorder {
	r.size = max(n, 1)
	return r
}

func (r *Recorder) Add(q quad.Quad) error {
	if err := r.next.Add(q); err != nil {
		return err
	}
	r.pending = append(r.pending, q)
	if len(r.pending) >= r.size {
		return r.Flush()
	}
	return nil
}

// Flush writes the buffered triples.
func (r *Recorder) Flush() error {
	if len(r.pending) == 0 {
		return nil
	}
	if err := r.j.AppendBatch(r.ctx, r.session, r.pending); err != nil {
		return err
	}
	r.written += len(r.pending)
	r.pending = r.pending[:0]
	return nil
}

// Recorded returns how many triples were written to the journal so far.
func (r *Recorder) Recorded() int { return r.written }
