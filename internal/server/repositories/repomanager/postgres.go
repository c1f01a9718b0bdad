// Package repomanager provides a concrete RepositoryManager for PostgreSQL,
// wiring repository constructors to a database handle. Services receive the
// manager and a connection, so repositories stay scoped to whichever DBTX
// (pool or transaction) the caller is working with.
package repomanager

import (
	"github.com/cristobal22/comanda/internal/dbx"
	"github.com/cristobal22/comanda/internal/server/repositories/users"
)

// PostgresRepositoryManager vends PostgreSQL-backed repository implementations.
type PostgresRepositoryManager struct{}

// NewPostgresRepositoryManager constructs a PostgreSQL-backed RepositoryManager.
func NewPostgresRepositoryManager() *PostgresRepositoryManager {
	return &PostgresRepositoryManager{}
}

// Users returns a users.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db)
}
