// Package mssql stores derived tables in SQL Server.
package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/microsoft/go-mssqldb"

	"costvar/internal/storage"
)

func init() {
	storage.Register("mssql", New)
}

type Repo struct {
	db *sql.DB
}

func New(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
	db, err := sql.Open("sqlserver", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("mssql: open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("mssql: ping: %w", err)
	}
	return &Repo{db: db}, nil
}

func (r *Repo) Close() {
	r.db.Close()
}

func (r *Repo) EnsureTables(ctx context.Context, specs []storage.TableSpec) error {
	for _, spec := range specs {
		if !spec.AutoCreateTable {
			continue
		}
		if _, err := r.db.ExecContext(ctx, buildCreateSQL(spec)); err != nil {
			return fmt.Errorf("mssql: create table %s: %w", spec.Name, err)
		}
	}
	return nil
}

func (r *Repo) InsertRows(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	for i, row := range rows {
		if len(row) != len(columns) {
			return 0, fmt.Errorf("mssql: row %d has %d values, want %d", i, len(row), len(columns))
		}
	}

	chunk := maxParams / len(columns)
	if chunk < 1 {
		chunk = 1
	}

	var total int64
	for start := 0; start < len(rows); start += chunk {
		end := start + chunk
		if end > len(rows) {
			end = len(rows)
		}
		batch := rows[start:end]

		query, args := buildInsertSQL(table, columns, batch)
		res, err := r.db.ExecContext(ctx, query, args...)
		if err != nil {
			return total, fmt.Errorf("mssql: insert into %s: %w", table, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return total, fmt.Errorf("mssql: rows affected: %w", err)
		}
		total += n
	}
	return total, nil
}

func buildInsertSQL(table string, columns []string, rows [][]any) (string, []any) {
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = msIdent(c)
	}

	var sb strings.Builder
	args := make([]any, 0, len(rows)*len(columns))
	fmt.Fprintf(&sb, "INSERT INTO %s (%s) VALUES ", msIdent(table), strings.Join(quoted, ", "))
	p := 1
	for i, row := range rows {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(")
		for j, v := range row {
			if j > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "@p%d", p)
			p++
			args = append(args, v)
		}
		sb.WriteString(")")
	}
	return sb.String(), args
}

func buildCreateSQL(spec storage.TableSpec) string {
	cols := make([]string, 0, len(spec.Columns))
	for _, c := range spec.Columns {
		cols = append(cols, fmt.Sprintf("%s %s", msIdent(c.Name), msType(c.Type)))
	}
	return fmt.Sprintf("IF OBJECT_ID(N'%s', N'U') IS NULL CREATE TABLE %s (%s)",
		spec.Name, msIdent(spec.Name), strings.Join(cols, ", "))
}

func msType(t storage.ColumnType) string {
	switch t {
	case storage.TypeInteger:
		return "BIGINT"
	case storage.TypeDouble:
		return "FLOAT"
	default:
		return "NVARCHAR(MAX)"
	}
}

func msIdent(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}

// SQL Server rejects statements with more than 2100 bound parameters.
const maxParams = 2000
