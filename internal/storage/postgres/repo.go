// Package postgres stores derived tables in PostgreSQL using pgx.
package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"costvar/internal/storage"
)

func init() {
	storage.Register("postgres", New)
}

type Repo struct {
	pool *pgxpool.Pool
}

// New connects to the server named by cfg.DSN and verifies the
// connection with a ping before returning.
func New(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	return &Repo{pool: pool}, nil
}

func (r *Repo) Close() {
	r.pool.Close()
}

func (r *Repo) EnsureTables(ctx context.Context, specs []storage.TableSpec) error {
	for _, spec := range specs {
		if !spec.AutoCreateTable {
			continue
		}
		if _, err := r.pool.Exec(ctx, buildCreateSQL(spec)); err != nil {
			return fmt.Errorf("postgres: create table %s: %w", spec.Name, err)
		}
	}
	return nil
}

// InsertRows streams rows with the COPY protocol, which is the fastest
// bulk path pgx offers.
func (r *Repo) InsertRows(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	for i, row := range rows {
		if len(row) != len(columns) {
			return 0, fmt.Errorf("postgres: row %d has %d values, want %d", i, len(row), len(columns))
		}
	}
	n, err := r.pool.CopyFrom(ctx, pgx.Identifier{table}, columns, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, fmt.Errorf("postgres: copy into %s: %w", table, err)
	}
	return n, nil
}

func buildCreateSQL(spec storage.TableSpec) string {
	cols := make([]string, 0, len(spec.Columns))
	for _, c := range spec.Columns {
		cols = append(cols, fmt.Sprintf("%s %s", pgIdent(c.Name), pgType(c.Type)))
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)",
		pgIdent(spec.Name), strings.Join(cols, ", "))
}

func pgType(t storage.ColumnType) string {
	switch t {
	case storage.TypeInteger:
		return "BIGINT"
	case storage.TypeDouble:
		return "DOUBLE PRECISION"
	default:
		return "TEXT"
	}
}

func pgIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
