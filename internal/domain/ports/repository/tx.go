package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

// Tx is an opaque transaction handle. Repositories accept nil for the
// non-transactional (autocommit) path; the concrete type is infra-defined
// (pgx.Tx for Postgres).
type Tx interface{}

// NoTx is passed where a unit of work does not span a transaction.
var NoTx Tx

// TransactionManager executes a function within a database transaction,
// passing the underlying handle via tx. Keeps use-case interfaces free of
// storage types.
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}
