// Package all registers every storage backend. Import it for its side
// effects from binaries that choose a backend at runtime.
package all

import (
	_ "costvar/internal/storage/mssql"
	_ "costvar/internal/storage/postgres"
	_ "costvar/internal/storage/sqlite"
)
