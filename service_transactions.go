package permkit

import (
	"context"
	"fmt"
	"time"

	"github.com/fernandezvara/dbkit"
)

// RunInTransaction executes fn with a Service bound to a single database
// transaction: every engine operation called on the bound service runs on
// that transaction and commits or rolls back as one unit.
//
// Example:
//
//	err := service.RunInTransaction(ctx, func(txs *permkit.Service) error {
//	    if err := txs.AssignBundle(ctx, memberID, bundleID); err != nil {
//	        return err // rollback
//	    }
//	    _, err := txs.SetOverride(ctx, memberID, "finance.invoice.create", true)
//	    return err
//	})
func (s *Service) RunInTransaction(ctx context.Context, fn func(txService *Service) error) error {
	start := time.Now()

	err := s.inTx(ctx, func(idb dbkit.IDB) error {
		bound := *s
		bound.db = idb
		return fn(&bound)
	})

	s.txMonitor.recordTransaction(time.Since(start), err == nil)
	return err
}

// Transaction executes a function within a database transaction with
// automatic commit/rollback. If the function returns an error the
// transaction is rolled back, otherwise it is committed.
func (s *Service) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	start := time.Now()
	var err error

	// Reuse the ambient transaction via savepoint when already inside one.
	if tx, ok := s.db.(*dbkit.Tx); ok {
		err = tx.Transaction(ctx, func(tx *dbkit.Tx) error {
			return fn(ctx)
		})
	} else if db, ok := s.db.(*dbkit.DBKit); ok {
		err = db.Transaction(ctx, func(tx *dbkit.Tx) error {
			return fn(ctx)
		})
	} else {
		err = fmt.Errorf("transaction support requires a dbkit.DBKit or dbkit.Tx instance")
	}

	s.txMonitor.recordTransaction(time.Since(start), err == nil)
	return err
}

// TransactionWithOptions executes a function within a database transaction
// with custom options. Supports read-only transactions, isolation levels,
// and other transaction parameters.
func (s *Service) TransactionWithOptions(ctx context.Context, opts dbkit.TxOptions, fn func(ctx context.Context) error) error {
	if tx, ok := s.db.(*dbkit.Tx); ok {
		// Nested transactions use savepoints; options do not apply.
		return tx.Transaction(ctx, func(tx *dbkit.Tx) error {
			return fn(ctx)
		})
	}

	if db, ok := s.db.(*dbkit.DBKit); ok {
		return db.TransactionWithOptions(ctx, opts, func(tx *dbkit.Tx) error {
			return fn(ctx)
		})
	}

	return fmt.Errorf("transaction support requires a dbkit.DBKit or dbkit.Tx instance")
}

// ReadOnlyTransaction executes a function within a read-only database
// transaction. Useful for multi-read consistency, e.g. listing a tenant's
// bundles together with their key sets.
func (s *Service) ReadOnlyTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return s.TransactionWithOptions(ctx, dbkit.ReadOnlyTxOptions(), fn)
}

// GetTransactionMetrics returns the current transaction performance metrics.
func (s *Service) GetTransactionMetrics() TransactionMetrics {
	return s.txMonitor.getMetrics()
}

// ResetTransactionMetrics resets all transaction metrics.
func (s *Service) ResetTransactionMetrics() {
	s.txMonitor.reset()
}

// IsTransactionHealthy checks if transaction performance is within
// acceptable thresholds.
func (s *Service) IsTransactionHealthy() bool {
	metrics := s.txMonitor.getMetrics()

	// Too few samples to judge.
	if metrics.TotalTransactions < 10 {
		return true
	}

	failureRate := float64(metrics.FailedTransactions) / float64(metrics.TotalTransactions)
	if failureRate > 0.05 {
		return false
	}

	if metrics.AverageDuration > time.Second {
		return false
	}

	return true
}
