// Package txutil holds small helpers shared by everything that opens
// transactions.
package txutil

import (
	"database/sql"
	"errors"

	"github.com/pingcap/log"
	"go.uber.org/zap"
)

type Rollbacker interface {
	Rollback() error
}

// TxnRollback is meant to be deferred right after a transaction is opened.
// Rolling back a committed transaction is expected and stays silent; any
// other failure is logged since the caller has already returned.
func TxnRollback(tx Rollbacker) {
	err := tx.Rollback()
	if err == nil || errors.Is(err, sql.ErrTxDone) {
		return
	}
	log.Error("transaction rollback failed", zap.Error(err))
}
