// Package dialect defines the connection primitives the mapping engine talks to.
//
// The engine never touches database/sql directly. It renders SQL text with
// named parameters and hands it to a Driver, which owns exactly one physical
// connection:
//
//	type Driver interface {
//	    Exec(ctx context.Context, query string, args, v any) error
//	    Query(ctx context.Context, query string, args, v any) error
//	    Tx(ctx context.Context) (Tx, error)
//	    Close() error
//	    Dialect() string
//	}
//
// # Transactions and savepoints
//
// Tx extends ExecQuerier with commit/rollback and nested savepoints, which
// the transactional insert uses to guarantee that a failed statement leaves
// no partial row:
//
//	tx, _ := drv.Tx(ctx)
//	_ = tx.Savepoint(ctx, "sp")
//	if err := tx.Exec(ctx, query, args, &res); err != nil {
//	    _ = tx.RollbackTo(ctx, "sp")
//	    _ = tx.Rollback()
//	}
//
// # Sub-packages
//
//   - dialect/sql: the database/sql backed driver and SQL fragment rendering
//   - dialect/sql/sqlgraph: classification of constraint violations
package dialect
