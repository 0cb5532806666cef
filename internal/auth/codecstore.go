package auth

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/gob"
	"fmt"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
)

// CodecStore persists gob-encoded sessions in any scs.Store backend.
type CodecStore struct {
	backend scs.Store
	legacy  time.Duration
}

// NewCodecStore wraps backend. legacy is the lifetime used to compute the
// backend expiry of sessions that carry no ExpiresAt.
func NewCodecStore(backend scs.Store, legacy time.Duration) *CodecStore {
	return &CodecStore{backend: backend, legacy: legacy}
}

// NewSQLiteStore creates the sessions table if needed and returns a store
// backed by scs/sqlite3store on the given database handle.
func NewSQLiteStore(db *sql.DB, legacy time.Duration) (*CodecStore, error) {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS sessions (
		token TEXT PRIMARY KEY,
		data BLOB NOT NULL,
		expiry REAL NOT NULL
	);
	CREATE INDEX IF NOT EXISTS sessions_expiry_idx ON sessions(expiry);`)
	if err != nil {
		return nil, fmt.Errorf("create sessions table: %w", err)
	}
	return NewCodecStore(sqlite3store.New(db), legacy), nil
}

func (c *CodecStore) Put(ctx context.Context, token string, s *Session) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(s); err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	// The backend may drop rows on its own; never before the session stops being valid.
	expiry := s.Deadline(c.legacy)

	if cs, ok := c.backend.(scs.CtxStore); ok {
		return cs.CommitCtx(ctx, token, buf.Bytes(), expiry)
	}
	return c.backend.Commit(token, buf.Bytes(), expiry)
}

func (c *CodecStore) Get(ctx context.Context, token string) (*Session, bool, error) {
	var (
		data  []byte
		found bool
		err   error
	)
	if cs, ok := c.backend.(scs.CtxStore); ok {
		data, found, err = cs.FindCtx(ctx, token)
	} else {
		data, found, err = c.backend.Find(token)
	}
	if err != nil {
		return nil, false, fmt.Errorf("find session: %w", err)
	}
	if !found {
		return nil, false, nil
	}

	s, err := decodeSession(data)
	if err != nil {
		return nil, false, err
	}
	return s, true, nil
}

func (c *CodecStore) Delete(ctx context.Context, token string) error {
	if cs, ok := c.backend.(scs.CtxStore); ok {
		return cs.DeleteCtx(ctx, token)
	}
	return c.backend.Delete(token)
}

// Tokens lists stored tokens when the backend can enumerate its rows.
func (c *CodecStore) Tokens(ctx context.Context) ([]string, error) {
	var (
		all map[string][]byte
		err error
	)
	switch b := c.backend.(type) {
	case scs.IterableCtxStore:
		all, err = b.AllCtx(ctx)
	case scs.IterableStore:
		all, err = b.All()
	default:
		return nil, fmt.Errorf("session backend %T cannot list tokens: %w", c.backend, ErrSweepUnsupported)
	}
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	tokens := make([]string, 0, len(all))
	for token := range all {
		tokens = append(tokens, token)
	}
	return tokens, nil
}

// Close stops the backend's own cleanup goroutine, if it runs one.
func (c *CodecStore) Close() {
	if stopper, ok := c.backend.(interface{ StopCleanup() }); ok {
		stopper.StopCleanup()
	}
}

func decodeSession(data []byte) (*Session, error) {
	var s Session
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &s, nil
}
