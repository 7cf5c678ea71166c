package storage

// TableSpec describes one output table so backends can create it when
// absent. Types are generic; each backend maps them to its own dialect.
type TableSpec struct {
	Name            string
	AutoCreateTable bool
	Columns         []ColumnSpec
}

// ColumnSpec is one column of a TableSpec.
type ColumnSpec struct {
	Name string
	// Type: "text" | "integer" | "double".
	Type ColumnType
}

// ColumnType is the backend-agnostic column type vocabulary.
type ColumnType string

const (
	TypeText    ColumnType = "text"
	TypeInteger ColumnType = "integer"
	TypeDouble  ColumnType = "double"
)

// ColumnNames returns the column names in declaration order.
func (t TableSpec) ColumnNames() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Name
	}
	return out
}
