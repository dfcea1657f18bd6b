package history

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists conversation turns in PostgreSQL.
type PostgresStore struct {
	pool  *pgxpool.Pool
	limit int
}

func NewPostgresStore(ctx context.Context, databaseURL string, limit int) (*PostgresStore, error) {
	if limit <= 0 {
		limit = 20
	}

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := initSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{pool: pool, limit: limit}, nil
}

func initSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		// seq gives a total order within a session; created_at alone can tie
		// for the two rows of one pair.
		`CREATE TABLE IF NOT EXISTS conversation_turns (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			seq BIGSERIAL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE INDEX IF NOT EXISTS idx_conversation_turns_session_seq ON conversation_turns (session_id, seq);`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

func (s *PostgresStore) AppendPair(ctx context.Context, sessionID, userText, assistantText string) error {
	now := time.Now().UTC()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin append pair: %w", err)
	}
	defer tx.Rollback(ctx)

	const insert = `INSERT INTO conversation_turns (id, session_id, role, content, created_at)
		 VALUES ($1, $2, $3, $4, $5)`

	if _, err := tx.Exec(ctx, insert, uuid.NewString(), sessionID, RoleUser, userText, now); err != nil {
		return fmt.Errorf("insert user turn: %w", err)
	}
	if _, err := tx.Exec(ctx, insert, uuid.NewString(), sessionID, RoleAssistant, assistantText, now); err != nil {
		return fmt.Errorf("insert assistant turn: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit append pair: %w", err)
	}

	// Prune after the commit. A crash between commit and prune leaves the
	// session temporarily over-bound; the next append corrects it.
	if err := s.prune(ctx, sessionID); err != nil {
		return fmt.Errorf("prune session: %w", err)
	}
	return nil
}

func (s *PostgresStore) prune(ctx context.Context, sessionID string) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM conversation_turns
		  WHERE session_id = $1
		    AND seq NOT IN (
		        SELECT seq FROM conversation_turns
		         WHERE session_id = $1
		         ORDER BY seq DESC
		         LIMIT $2)`,
		sessionID,
		s.limit,
	)
	return err
}

func (s *PostgresStore) Recent(ctx context.Context, sessionID string) ([]Turn, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, session_id, role, content, created_at
		   FROM conversation_turns
		  WHERE session_id = $1
		  ORDER BY seq DESC
		  LIMIT $2`,
		sessionID,
		s.limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query recent turns: %w", err)
	}
	defer rows.Close()

	turns := make([]Turn, 0, s.limit)
	for rows.Next() {
		var t Turn
		if err := rows.Scan(&t.ID, &t.SessionID, &t.Role, &t.Content, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan turn row: %w", err)
		}
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate turn rows: %w", err)
	}

	// Reverse into chronological order for prompt coherence.
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}

	return turns, nil
}

func (s *PostgresStore) Clear(ctx context.Context, sessionID string) error {
	if _, err := s.pool.Exec(ctx,
		`DELETE FROM conversation_turns WHERE session_id = $1`, sessionID); err != nil {
		return fmt.Errorf("clear session turns: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
