package models

import "time"

// FundType identifies a wallet balance.
type FundType string

const (
	FundPoints FundType = "Points"
	FundCash   FundType = "Cash"
)

// LedgerKind is the business reason of a ledger movement.
type LedgerKind string

const (
	LedgerCharge LedgerKind = "Charge"
	LedgerRefund LedgerKind = "Refund"
	LedgerTopUp  LedgerKind = "TopUp"
	LedgerGrant  LedgerKind = "Grant"
)

// Wallet is the balance projection of a host's ledger.
type Wallet struct {
	HostID        int64     `json:"host_id"`
	PointsBalance int64     `json:"points_balance"`
	CashBalance   int64     `json:"cash_balance"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Total is the spendable sum of both balances.
func (w Wallet) Total() int64 {
	return w.PointsBalance + w.CashBalance
}

// Balance returns the balance of one fund type.
func (w Wallet) Balance(f FundType) int64 {
	if f == FundPoints {
		return w.PointsBalance
	}
	return w.CashBalance
}

// LedgerEntry is an immutable funds movement. Amount is negative for charges.
type LedgerEntry struct {
	ID           string     `json:"id"`
	HostID       int64      `json:"host_id"`
	Kind         LedgerKind `json:"kind"`
	FundType     FundType   `json:"fund_type"`
	Amount       int64      `json:"amount"`
	BalanceAfter int64      `json:"balance_after"`
	Reason       string     `json:"reason"`
	QuoteID      string     `json:"quote_id,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// DailyUsage counts one host's auto-quote activity for one local day.
type DailyUsage struct {
	HostID      int64  `json:"host_id"`
	Day         string `json:"day"`
	QuotesCount int    `json:"quotes_count"`
	Spend       int64  `json:"spend"`
}
