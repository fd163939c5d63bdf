package sqlite

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"medialib/internal/domain/repositories"
	mediaRepo "medialib/internal/domain/repositories/media"
)

type txContextKey struct{}

// transactionManager runs a function inside a GORM transaction that the
// repositories pick up from the context.
type transactionManager struct {
	store *Store
}

// ExecTx executes a function within a transaction. Nested calls run in a
// savepoint of the outer transaction.
func (tm *transactionManager) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	return tm.store.conn(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txContextKey{}, tx))
	})
}

// conn returns the transaction stored in ctx, or the store's connection.
func (s *Store) conn(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(txContextKey{}).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	return s.db.WithContext(ctx)
}

func scoped(db *gorm.DB, scope mediaRepo.Scope, column string) *gorm.DB {
	switch scope {
	case mediaRepo.ActiveOnly:
		return db.Where(column + " IS NULL")
	case mediaRepo.OnlyTrashed:
		return db.Where(column + " IS NOT NULL")
	}
	return db
}

func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) ||
		(err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed"))
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

func sweepLimit(limit int) int {
	if limit <= 0 {
		return 100
	}
	return limit
}
