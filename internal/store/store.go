package store

import (
	"context"
	"errors"
	"time"

	"koperasikasir/backend/internal/domain"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrValidation        = errors.New("validation failed")
	ErrClosedPeriod      = errors.New("closed period")
	ErrInvalidState      = errors.New("invalid state")
	ErrDataCorruption    = errors.New("data corruption")
	ErrPersistence       = errors.New("persistence failure")
)

type Repository interface {
	ListItems(ctx context.Context) ([]domain.Item, error)
	CreateItem(ctx context.Context, item domain.Item) (*domain.Item, error)
	GetItemByID(ctx context.Context, id string) (*domain.Item, error)
	UpdateItem(ctx context.Context, item domain.Item) (*domain.Item, error)
	GetItemsByIDs(ctx context.Context, ids []string) (map[string]domain.Item, error)
	SetStock(ctx context.Context, itemID string, qty int) error
	TransformStock(ctx context.Context, transformation domain.InventoryTransformation) (*domain.InventoryTransformation, error)

	FindTransactionByID(ctx context.Context, id string) (*domain.Transaction, error)
	FindTransactionByNumber(ctx context.Context, number string) (*domain.Transaction, error)
	ListTransactions(ctx context.Context, from time.Time, to time.Time, limit int) ([]domain.Transaction, error)
	ListShiftTransactions(ctx context.Context, shiftID string) ([]domain.Transaction, error)
	CreateCheckout(ctx context.Context, tx domain.Transaction, entries []domain.JournalEntry) (*domain.Transaction, error)
	ExecuteDeletion(ctx context.Context, transactionID string, entries []domain.JournalEntry, audit domain.DeletionAuditRecord) ([]string, error)
	ListDeletionAudits(ctx context.Context, transactionID string, from time.Time, to time.Time, limit int) ([]domain.DeletionAuditRecord, error)

	ListJournalEntries(ctx context.Context, from time.Time, to time.Time, limit int) ([]domain.JournalEntry, error)
	ListAccounts(ctx context.Context) ([]domain.Account, error)

	CreateShift(ctx context.Context, shift domain.Shift) (*domain.Shift, error)
	GetActiveShift(ctx context.Context, cashier string) (*domain.Shift, error)
	CloseShift(ctx context.Context, shiftID string, closedAt time.Time, report domain.ClosedShiftReport) (*domain.ClosedShiftReport, error)
	ListClosedShiftReports(ctx context.Context, limit int) ([]domain.ClosedShiftReport, error)

	GetDailyReport(ctx context.Context, from time.Time, to time.Time) (domain.DailyReport, error)
	CreateAuditLog(ctx context.Context, entry domain.AuditLog) error
	ListAuditLogs(ctx context.Context, from time.Time, to time.Time, limit int) ([]domain.AuditLog, error)

	CreateUser(ctx context.Context, user domain.UserAccount) error
	ListUsers(ctx context.Context) ([]domain.UserAccount, error)
	UpdateUserPassword(ctx context.Context, username string, password string) error
}
