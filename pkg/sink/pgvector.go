package sink

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	pgxvec "github.com/pgvector/pgvector-go/pgx"

	"github.com/dd0wney/cluso-fraudgraph/pkg/config"
	"github.com/dd0wney/cluso-fraudgraph/pkg/embedding"
	"github.com/dd0wney/cluso-fraudgraph/pkg/vector"
)

// PGVectorSink upserts embedding rows into a pgvector table keyed by
// (run_id, learner, provider).
type PGVectorSink struct {
	pool  *pgxpool.Pool
	table string
}

// NewPGVectorSink connects to cfg.DSN, installs the vector extension and
// creates the target table when missing.
func NewPGVectorSink(ctx context.Context, cfg config.PostgresConfig) (*PGVectorSink, error) {
	// The extension must exist before the pool registers its types.
	conn, err := pgx.Connect(ctx, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if _, err := conn.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		conn.Close(ctx)
		return nil, fmt.Errorf("create vector extension: %w", err)
	}
	if _, err := conn.Exec(ctx, CreateTableSQL(cfg.Table)); err != nil {
		conn.Close(ctx)
		return nil, fmt.Errorf("create table %s: %w", cfg.Table, err)
	}
	conn.Close(ctx)

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}
	return &PGVectorSink{pool: pool, table: cfg.Table}, nil
}

// CreateTableSQL returns the DDL for the embedding table. The vector column
// is unconstrained so learners of different widths share one table.
func CreateTableSQL(table string) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	run_id     TEXT NOT NULL,
	learner    TEXT NOT NULL,
	provider   TEXT NOT NULL,
	embedding  vector NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (run_id, learner, provider)
)`, table)
}

func upsertSQL(table string) string {
	return fmt.Sprintf(`INSERT INTO %s (run_id, learner, provider, embedding)
VALUES ($1, $2, $3, $4)
ON CONFLICT (run_id, learner, provider) DO UPDATE SET embedding = EXCLUDED.embedding`, table)
}

// Write upserts every row of t in one batch and returns the row count.
func (s *PGVectorSink) Write(ctx context.Context, runID, learner string, t *embedding.Table) (int, error) {
	if t.Len() == 0 {
		return 0, nil
	}
	query := upsertSQL(s.table)
	batch := &pgx.Batch{}
	for _, key := range t.Keys() {
		vec, _ := t.Get(key)
		batch.Queue(query, runID, learner, key, pgvector.NewVector(vector.ToFloat32(vec)))
	}

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()
	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			return i, fmt.Errorf("upsert %s embedding %d into %s: %w", learner, i, s.table, err)
		}
	}
	return batch.Len(), nil
}

func (s *PGVectorSink) Close() {
	s.pool.Close()
}

// PingPostgres opens a single connection to dsn and pings it without
// touching any schema.
func PingPostgres(ctx context.Context, dsn string) error {
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer conn.Close(ctx)
	return conn.Ping(ctx)
}
