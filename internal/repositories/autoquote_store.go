package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"

	"spacesBack/internal/autoquote/hostlock"
	"spacesBack/internal/autoquote/store"
)

// dbtx is satisfied by *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// AutoQuoteStore is the MySQL implementation of store.Store. Loc is the
// engine timezone; request dates are kept as wall time in it.
type AutoQuoteStore struct {
	DB     *sql.DB
	Locker hostlock.Locker
	Loc    *time.Location
}

var _ store.Store = (*AutoQuoteStore)(nil)

func isDuplicateKeyError(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1062
}

// InHostTx serializes on the host lock and then on the host's wallet row, so
// instances without a shared locker still exclude each other.
func (s *AutoQuoteStore) InHostTx(ctx context.Context, hostID int64, fn store.TxFunc) (err error) {
	if s.Locker != nil {
		unlock, lockErr := s.Locker.Lock(ctx, hostID)
		if lockErr != nil {
			return lockErr
		}
		defer unlock()
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `INSERT IGNORE INTO host_wallets (host_id, points_balance, cash_balance, updated_at) VALUES (?, 0, 0, ?)`, hostID, time.Now()); err != nil {
		return err
	}
	var locked int64
	if err = tx.QueryRowContext(ctx, `SELECT host_id FROM host_wallets WHERE host_id = ? FOR UPDATE`, hostID).Scan(&locked); err != nil {
		return err
	}

	if err = fn(ctx, &autoQuoteTx{tx: tx, hostID: hostID}); err != nil {
		return err
	}
	if err = ctx.Err(); err != nil {
		return err
	}
	return tx.Commit()
}

type autoQuoteTx struct {
	tx     *sql.Tx
	hostID int64
}

var _ store.Tx = (*autoQuoteTx)(nil)
