package archive

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/bdougie/badbits/internal/config"
	"github.com/bdougie/badbits/internal/vision"
)

// PostgresArchive stores detections in PostgreSQL with a pgvector embedding
// per alert, so past detections can be searched by meaning.
type PostgresArchive struct {
	pool       *pgxpool.Pool
	embeddings *EmbeddingService
	sessionID  string
}

// NewPostgresArchive connects to PostgreSQL and binds the archive to the
// given monitoring session.
func NewPostgresArchive(ctx context.Context, cfg config.ArchiveConfig, embeddings *EmbeddingService, sessionID string) (*PostgresArchive, error) {
	pool, err := pgxpool.New(ctx, cfg.ConnString())
	if err != nil {
		return nil, fmt.Errorf("archive: connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("archive: ping database: %w", err)
	}

	a := &PostgresArchive{
		pool:       pool,
		embeddings: embeddings,
		sessionID:  sessionID,
	}
	if sessionID != "" {
		if _, err := pool.Exec(ctx,
			`INSERT INTO sessions (id, started_at) VALUES ($1, $2) ON CONFLICT (id) DO NOTHING`,
			sessionID, time.Now()); err != nil {
			pool.Close()
			return nil, fmt.Errorf("archive: create session entry: %w", err)
		}
	}
	return a, nil
}

// Close closes the database connection.
func (a *PostgresArchive) Close() {
	if a.pool != nil {
		a.pool.Close()
	}
}

// RecordCheck stores one check and embeds the detail text of each active
// detection. Embedding failures are tolerated; the detection row is kept
// without a vector.
func (a *PostgresArchive) RecordCheck(ctx context.Context, seq int, takenAt time.Time, results []vision.Result) error {
	var checkID int
	err := a.pool.QueryRow(ctx,
		`INSERT INTO checks (session_id, seq, taken_at, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		a.sessionID, seq, takenAt, time.Now()).Scan(&checkID)
	if err != nil {
		return fmt.Errorf("archive: store check: %w", err)
	}

	for _, r := range results {
		var embedding any
		if r.Active && r.Details != "" {
			vec, embErr := a.embeddings.Embed(ctx, r.Details)
			if embErr == nil {
				embedding = pgvector.NewVector(vec)
			}
		}
		_, err := a.pool.Exec(ctx,
			`INSERT INTO detections (check_id, habit, active, details, embedding, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			checkID, r.Habit, r.Active, r.Details, embedding, time.Now())
		if err != nil {
			return fmt.Errorf("archive: store detection: %w", err)
		}
	}
	return nil
}

// SimilarAlert is one hit from a similarity search over past detections.
type SimilarAlert struct {
	Habit      string
	TakenAt    time.Time
	Details    string
	Similarity float64
}

// SearchSimilar finds past active detections whose details are semantically
// close to the query.
func (a *PostgresArchive) SearchSimilar(ctx context.Context, query string, limit int) ([]SimilarAlert, error) {
	queryEmbedding, err := a.embeddings.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("archive: embed query: %w", err)
	}

	rows, err := a.pool.Query(ctx,
		`SELECT d.habit, c.taken_at, d.details,
		1 - (d.embedding <=> $1) AS similarity
		FROM detections d
		JOIN checks c ON d.check_id = c.id
		WHERE d.active AND d.embedding IS NOT NULL
		ORDER BY d.embedding <=> $1
		LIMIT $2`,
		pgvector.NewVector(queryEmbedding), limit)
	if err != nil {
		return nil, fmt.Errorf("archive: search detections: %w", err)
	}
	defer rows.Close()

	var results []SimilarAlert
	for rows.Next() {
		var r SimilarAlert
		if err := rows.Scan(&r.Habit, &r.TakenAt, &r.Details, &r.Similarity); err != nil {
			return nil, fmt.Errorf("archive: scan search result: %w", err)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// InitSchema creates the archive schema and the pgvector extension.
func InitSchema(ctx context.Context, cfg config.ArchiveConfig) error {
	conn, err := pgx.Connect(ctx, cfg.ConnString())
	if err != nil {
		return fmt.Errorf("archive: connect to database: %w", err)
	}
	defer conn.Close(ctx)

	if _, err := conn.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("archive: create vector extension: %w", err)
	}

	_, err = conn.Exec(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS sessions (
			id         TEXT PRIMARY KEY,
			started_at TIMESTAMPTZ NOT NULL
		);

		CREATE TABLE IF NOT EXISTS checks (
			id         SERIAL PRIMARY KEY,
			session_id TEXT REFERENCES sessions(id) ON DELETE CASCADE,
			seq        INTEGER NOT NULL,
			taken_at   TIMESTAMPTZ NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			UNIQUE(session_id, seq)
		);

		CREATE TABLE IF NOT EXISTS detections (
			id         SERIAL PRIMARY KEY,
			check_id   INTEGER REFERENCES checks(id) ON DELETE CASCADE,
			habit      TEXT NOT NULL,
			active     BOOLEAN NOT NULL,
			details    TEXT NOT NULL DEFAULT '',
			embedding  vector(%d),
			created_at TIMESTAMPTZ NOT NULL
		);
	`, EmbeddingDim))
	if err != nil {
		return fmt.Errorf("archive: create schema: %w", err)
	}

	_, err = conn.Exec(ctx, `
		CREATE INDEX IF NOT EXISTS idx_checks_session ON checks(session_id);
		CREATE INDEX IF NOT EXISTS idx_detections_check ON detections(check_id);
		CREATE INDEX IF NOT EXISTS idx_detections_embedding ON detections
			USING ivfflat (embedding vector_l2_ops) WITH (lists = 100);
	`)
	if err != nil {
		return fmt.Errorf("archive: create indexes: %w", err)
	}
	return nil
}
