// Package repomanager vends the repositories over one store and provides
// the transactional boundary used by the services.
package repomanager

import (
	"context"

	"github.com/dmitrijs2005/gophauth/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/users"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/verifications"
)

// MemoryDSN selects the in-process store.
const MemoryDSN = "memory"

// RepositoryManager gives access to the repositories of one store.
//
// WithTx runs fn with a manager whose repositories share a transaction: the
// writes made through it commit together when fn returns nil and are
// discarded otherwise. Calling WithTx on a transactional manager joins the
// running transaction.
type RepositoryManager interface {
	Users() users.Repository
	Sessions() sessions.Repository
	Verifications() verifications.Repository
	WithTx(ctx context.Context, fn func(ctx context.Context, tx RepositoryManager) error) error
	Ping(ctx context.Context) error
	Close() error
}
