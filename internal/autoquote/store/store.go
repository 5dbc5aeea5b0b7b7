// Package store defines the persistence contract of the auto-quote engine.
// All mutation of a host's wallet, usage counters, quotes and chat rooms goes
// through InHostTx, which serializes per host and commits atomically.
package store

import (
	"context"
	"time"

	"spacesBack/internal/models"
)

// Tx is the view of one host's state inside a serialized transaction.
// Nothing written through a Tx is visible to readers before commit.
type Tx interface {
	// Usage returns the locked counter for day, or a zero counter if none exists.
	Usage(ctx context.Context, hostID int64, day string) (models.DailyUsage, error)
	SaveUsage(ctx context.Context, u models.DailyUsage) error

	// Wallet returns the locked wallet, or an empty one for a new host.
	Wallet(ctx context.Context, hostID int64) (models.Wallet, error)
	SaveWallet(ctx context.Context, w models.Wallet) error
	AppendLedger(ctx context.Context, e models.LedgerEntry) error
	HasRefund(ctx context.Context, quoteID string) (bool, error)

	FindQuote(ctx context.Context, hostID int64, requestID string) (models.Quote, bool, error)
	GetQuote(ctx context.Context, id string) (models.Quote, error)
	// InsertQuote fails with models.ErrAlreadyQuoted when (host, request) exists.
	InsertQuote(ctx context.Context, q models.Quote) error
	// UpdateQuote writes q only if the stored status still equals from.
	UpdateQuote(ctx context.Context, q models.Quote, from models.QuoteStatus) error

	GetOrCreateRoom(ctx context.Context, room models.ChatRoom) (models.ChatRoom, bool, error)
	AppendMessage(ctx context.Context, m models.ChatMessage) error

	AppendAudit(ctx context.Context, e models.AuditLogEntry) error
}

// TxFunc runs inside InHostTx. Returning an error rolls everything back.
type TxFunc func(ctx context.Context, tx Tx) error

// Store is implemented by the MySQL repositories and by Memory.
type Store interface {
	InHostTx(ctx context.Context, hostID int64, fn TxFunc) error

	GetConfig(ctx context.Context, hostID int64) (models.AutoQuoteConfig, error)
	SaveConfig(ctx context.Context, cfg models.AutoQuoteConfig) error
	ListEnabledConfigs(ctx context.Context) ([]models.AutoQuoteConfig, error)

	GetTemplate(ctx context.Context, hostID int64, templateID string) (models.QuoteTemplate, error)
	SaveTemplate(ctx context.Context, t models.QuoteTemplate) error

	GetQuote(ctx context.Context, id string) (models.Quote, error)
	FindQuote(ctx context.Context, hostID int64, requestID string) (models.Quote, bool, error)
	// ListUnreadBefore returns never-viewed auto-quotes still in Sent whose
	// last send is before the cutoff, oldest send first.
	ListUnreadBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Quote, error)
	GetRoomByQuote(ctx context.Context, quoteID string) (models.ChatRoom, error)
	ListMessages(ctx context.Context, roomID string) ([]models.ChatMessage, error)

	GetUsage(ctx context.Context, hostID int64, day string) (models.DailyUsage, error)
	DeleteUsageBefore(ctx context.Context, day string) (int64, error)

	GetWallet(ctx context.Context, hostID int64) (models.Wallet, error)
	ListLedger(ctx context.Context, hostID int64, limit, offset int) ([]models.LedgerEntry, error)

	AppendAudit(ctx context.Context, e models.AuditLogEntry) error
	ListAudit(ctx context.Context, f models.AuditFilter) ([]models.AuditLogEntry, error)
	DispatchVelocity(ctx context.Context, since time.Time) ([]models.HostVelocity, error)

	SaveRequest(ctx context.Context, r models.Request) error
	PendingRequests(ctx context.Context, limit int) ([]models.Request, error)
	MarkRequestProcessed(ctx context.Context, id string, at time.Time) error

	SaveDeviceToken(ctx context.Context, t models.DeviceToken) error
	DeviceTokens(ctx context.Context, userID int64) ([]string, error)
}
