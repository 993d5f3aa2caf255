package claimgraph

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/marcboeker/go-duckdb" // Register DuckDB driver

	"github.com/dd0wney/cluso-fraudgraph/pkg/claims"
)

const claimLinksSchema = `
CREATE TABLE claim_links (
  provider  VARCHAR NOT NULL,
  patient   VARCHAR,
  physician VARCHAR
)`

// The join runs first and the inequality filter after it, per relation.
const projectionQuery = `
SELECT a.provider, b.provider, 1 AS via
FROM claim_links a JOIN claim_links b ON a.patient = b.patient
WHERE a.patient IS NOT NULL AND a.provider <> b.provider
UNION
SELECT a.provider, b.provider, 2 AS via
FROM claim_links a JOIN claim_links b ON a.physician = b.physician
WHERE a.physician IS NOT NULL AND a.provider <> b.provider`

// DuckDBProjector performs the provider self-join in an embedded DuckDB
// database. An empty DSN uses an in-memory database.
type DuckDBProjector struct {
	Mode SymmetricMode
	DSN  string
}

func (DuckDBProjector) Name() string { return "duckdb" }

func (d DuckDBProjector) Project(ctx context.Context, records []claims.Claim) (*Projection, error) {
	dsn := d.DSN
	if dsn == "" {
		dsn = ":memory:"
	}
	db, err := sql.Open("duckdb", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open duckdb: %w", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping duckdb: %w", err)
	}
	if _, err := db.ExecContext(ctx, "DROP TABLE IF EXISTS claim_links"); err != nil {
		return nil, fmt.Errorf("dropping claim_links: %w", err)
	}
	if _, err := db.ExecContext(ctx, claimLinksSchema); err != nil {
		return nil, fmt.Errorf("creating claim_links: %w", err)
	}
	if err := loadClaimLinks(ctx, db, records); err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, projectionQuery)
	if err != nil {
		return nil, fmt.Errorf("projection query: %w", err)
	}
	defer rows.Close()

	set := newPairSet(d.Mode)
	for rows.Next() {
		var a, b string
		var via int
		if err := rows.Scan(&a, &b, &via); err != nil {
			return nil, fmt.Errorf("scanning projection row: %w", err)
		}
		set.add(a, b, Relation(via))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("projection rows: %w", err)
	}
	return set.projection(), nil
}

func loadClaimLinks(ctx context.Context, db *sql.DB, records []claims.Claim) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin load: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO claim_links (provider, patient, physician) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i := range records {
		c := &records[i]
		if c.Provider == "" {
			continue
		}
		if _, err := stmt.ExecContext(ctx, c.Provider, nullable(c.Patient), nullable(c.AttendingPhysician)); err != nil {
			return fmt.Errorf("insert claim %q: %w", c.ID, err)
		}
	}
	return tx.Commit()
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
