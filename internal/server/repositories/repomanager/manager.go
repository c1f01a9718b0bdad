package repomanager

import (
	"github.com/cristobal22/comanda/internal/dbx"
	"github.com/cristobal22/comanda/internal/server/repositories/users"
)

type RepositoryManager interface {
	Users(db dbx.DBTX) users.Repository
}
