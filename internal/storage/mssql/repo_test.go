package mssql

import (
	"testing"

	"costvar/internal/storage"
)

func TestBuildCreateSQL(t *testing.T) {
	spec := storage.TableSpec{
		Name: "CostVariable",
		Columns: []storage.ColumnSpec{
			{Name: "region", Type: storage.TypeText},
			{Name: "period", Type: storage.TypeInteger},
			{Name: "value", Type: storage.TypeDouble},
		},
	}
	got := buildCreateSQL(spec)
	want := `IF OBJECT_ID(N'CostVariable', N'U') IS NULL CREATE TABLE [CostVariable] ([region] NVARCHAR(MAX), [period] BIGINT, [value] FLOAT)`
	if got != want {
		t.Fatalf("buildCreateSQL =\n%s\nwant\n%s", got, want)
	}
}

func TestBuildInsertSQL(t *testing.T) {
	rows := [][]any{
		{"ON", 2030},
		{"QC", 2035},
	}
	query, args := buildInsertSQL("CostVariable", []string{"region", "period"}, rows)
	want := `INSERT INTO [CostVariable] ([region], [period]) VALUES (@p1, @p2), (@p3, @p4)`
	if query != want {
		t.Fatalf("query =\n%s\nwant\n%s", query, want)
	}
	if len(args) != 4 || args[0] != "ON" || args[3] != 2035 {
		t.Fatalf("args = %v", args)
	}
}

func TestMsIdentEscaping(t *testing.T) {
	if got := msIdent("weird]name"); got != "[weird]]name]" {
		t.Fatalf("msIdent = %s", got)
	}
}
