package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

type Tx interface{}

var NoTX interface{}

// TransactionManager executes a function within a database transaction,
// passing the underlying transaction handle via tx.
//
// Keeps use-case interfaces clean (no transaction types leaking out) while
// letting repository methods that accept `tx Tx` detect a transaction and use
// tx-bound Exec/Query as needed. Repositories MUST gracefully accept nil tx
// (non-transactional path).
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}
