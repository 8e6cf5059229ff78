package repomanager

import (
	"context"
	"strings"
)

// Open returns the store selected by dsn: the in-memory store for "memory",
// otherwise PostgreSQL with migrations applied.
func Open(ctx context.Context, dsn string) (RepositoryManager, error) {
	if strings.EqualFold(strings.TrimSpace(dsn), MemoryDSN) {
		return NewMemoryRepositoryManager(), nil
	}

	db, err := OpenPostgres(ctx, dsn)
	if err != nil {
		return nil, err
	}

	m := NewPostgresRepositoryManager(db)
	if err := m.RunMigrations(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return m, nil
}
