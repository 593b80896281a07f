package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"koperasikasir/backend/internal/domain"
	"koperasikasir/backend/internal/store"
	"koperasikasir/backend/internal/xid"
)

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ListItems(ctx context.Context) ([]domain.Item, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, category, unit_price, unit_cost, stock, active, updated_at
		FROM items
		WHERE active = true
		ORDER BY category ASC, name ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.Item, 0, 32)
	for rows.Next() {
		var item domain.Item
		if err := rows.Scan(&item.ID, &item.Name, &item.Category, &item.UnitPrice, &item.UnitCost, &item.Stock, &item.Active, &item.UpdatedAt); err != nil {
			return nil, err
		}
		item.UpdatedAt = item.UpdatedAt.UTC()
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CreateItem(ctx context.Context, item domain.Item) (*domain.Item, error) {
	if item.Name == "" || item.Category == "" || item.UnitPrice < 1 {
		return nil, store.ErrValidation
	}
	if item.UnitCost < 0 || item.Stock < 0 {
		return nil, store.ErrValidation
	}
	if item.ID == "" {
		item.ID = xid.New("itm")
	}
	item.Active = true
	item.UpdatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO items (id, name, category, unit_price, unit_cost, stock, active, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, item.ID, item.Name, item.Category, item.UnitPrice, item.UnitCost, item.Stock, item.Active, item.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrValidation
		}
		return nil, err
	}

	created := item
	return &created, nil
}

func (s *Store) GetItemByID(ctx context.Context, id string) (*domain.Item, error) {
	var item domain.Item
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, category, unit_price, unit_cost, stock, active, updated_at
		FROM items
		WHERE id = $1
	`, id).Scan(&item.ID, &item.Name, &item.Category, &item.UnitPrice, &item.UnitCost, &item.Stock, &item.Active, &item.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	item.UpdatedAt = item.UpdatedAt.UTC()
	return &item, nil
}

func (s *Store) UpdateItem(ctx context.Context, item domain.Item) (*domain.Item, error) {
	if item.ID == "" || item.Name == "" || item.Category == "" || item.UnitPrice < 1 {
		return nil, store.ErrValidation
	}
	if item.UnitCost < 0 || item.Stock < 0 {
		return nil, store.ErrValidation
	}
	item.UpdatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		UPDATE items
		SET name = $2, category = $3, unit_price = $4, unit_cost = $5, stock = $6, active = $7, updated_at = $8
		WHERE id = $1
	`, item.ID, item.Name, item.Category, item.UnitPrice, item.UnitCost, item.Stock, item.Active, item.UpdatedAt)
	if err != nil {
		return nil, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}

	updated := item
	return &updated, nil
}

func (s *Store) GetItemsByIDs(ctx context.Context, ids []string) (map[string]domain.Item, error) {
	if len(ids) == 0 {
		return map[string]domain.Item{}, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, category, unit_price, unit_cost, stock, active, updated_at
		FROM items
		WHERE active = true AND id = ANY($1)
	`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string]domain.Item, len(ids))
	for rows.Next() {
		var item domain.Item
		if err := rows.Scan(&item.ID, &item.Name, &item.Category, &item.UnitPrice, &item.UnitCost, &item.Stock, &item.Active, &item.UpdatedAt); err != nil {
			return nil, err
		}
		item.UpdatedAt = item.UpdatedAt.UTC()
		result[item.ID] = item
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Store) SetStock(ctx context.Context, itemID string, qty int) error {
	if itemID == "" || qty < 0 {
		return store.ErrValidation
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE items
		SET stock = $2, updated_at = now()
		WHERE id = $1
	`, itemID, qty)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) TransformStock(ctx context.Context, transformation domain.InventoryTransformation) (*domain.InventoryTransformation, error) {
	if transformation.SourceItemID == "" || transformation.TargetItemID == "" {
		return nil, store.ErrValidation
	}
	if transformation.SourceItemID == transformation.TargetItemID {
		return nil, store.ErrValidation
	}
	if transformation.SourceQty < 1 || transformation.TargetQty < 1 {
		return nil, store.ErrValidation
	}

	pgTx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = pgTx.Rollback() }()

	var sourceName string
	var sourceStock int
	err = pgTx.QueryRowContext(ctx, `
		SELECT name, stock
		FROM items
		WHERE id = $1
		FOR UPDATE
	`, transformation.SourceItemID).Scan(&sourceName, &sourceStock)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}

	var targetName string
	err = pgTx.QueryRowContext(ctx, `
		SELECT name
		FROM items
		WHERE id = $1
		FOR UPDATE
	`, transformation.TargetItemID).Scan(&targetName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}

	if sourceStock < transformation.SourceQty {
		return nil, store.ErrInsufficientStock
	}

	now := time.Now().UTC()
	_, err = pgTx.ExecContext(ctx, `
		UPDATE items SET stock = stock - $2, updated_at = $3 WHERE id = $1
	`, transformation.SourceItemID, transformation.SourceQty, now)
	if err != nil {
		return nil, err
	}
	_, err = pgTx.ExecContext(ctx, `
		UPDATE items SET stock = stock + $2, updated_at = $3 WHERE id = $1
	`, transformation.TargetItemID, transformation.TargetQty, now)
	if err != nil {
		return nil, err
	}

	if transformation.ID == "" {
		transformation.ID = xid.New("tfm")
	}
	if transformation.CreatedAt.IsZero() {
		transformation.CreatedAt = now
	}
	transformation.SourceName = sourceName
	transformation.TargetName = targetName

	_, err = pgTx.ExecContext(ctx, `
		INSERT INTO inventory_transformations (
			id, source_item_id, source_name, target_item_id, target_name,
			source_qty, target_qty, note, performed_by, created_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`, transformation.ID, transformation.SourceItemID, sourceName, transformation.TargetItemID, targetName,
		transformation.SourceQty, transformation.TargetQty, nullIfEmpty(transformation.Note), transformation.PerformedBy, transformation.CreatedAt)
	if err != nil {
		return nil, err
	}

	if err := pgTx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrPersistence, err)
	}

	created := transformation
	return &created, nil
}

func (s *Store) FindTransactionByID(ctx context.Context, id string) (*domain.Transaction, error) {
	return s.findTransaction(ctx, "id", id)
}

func (s *Store) FindTransactionByNumber(ctx context.Context, number string) (*domain.Transaction, error) {
	return s.findTransaction(ctx, "number", number)
}

func (s *Store) findTransaction(ctx context.Context, column string, value string) (*domain.Transaction, error) {
	query := fmt.Sprintf(`
		SELECT id, number, shift_id, cashier, payment_method, member_id,
		       total, cash_received, change_due, created_at
		FROM transactions
		WHERE %s = $1
	`, column)

	var tx domain.Transaction
	var memberID sql.NullString
	err := s.db.QueryRowContext(ctx, query, value).Scan(
		&tx.ID,
		&tx.Number,
		&tx.ShiftID,
		&tx.Cashier,
		&tx.PaymentMethod,
		&memberID,
		&tx.Total,
		&tx.CashReceived,
		&tx.Change,
		&tx.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	if memberID.Valid {
		tx.MemberID = memberID.String
	}
	tx.CreatedAt = tx.CreatedAt.UTC()

	items, err := s.loadTransactionItems(ctx, s.db, tx.ID)
	if err != nil {
		return nil, err
	}
	tx.Items = items

	return &tx, nil
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *Store) loadTransactionItems(ctx context.Context, q queryer, transactionID string) ([]domain.TransactionLine, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT item_id, name, qty, unit_price, unit_cost
		FROM transaction_items
		WHERE transaction_id = $1
		ORDER BY id ASC
	`, transactionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.TransactionLine, 0, 8)
	for rows.Next() {
		var line domain.TransactionLine
		if err := rows.Scan(&line.ItemID, &line.Name, &line.Qty, &line.UnitPrice, &line.UnitCost); err != nil {
			return nil, err
		}
		items = append(items, line)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) ListTransactions(ctx context.Context, from time.Time, to time.Time, limit int) ([]domain.Transaction, error) {
	if limit < 1 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, number, shift_id, cashier, payment_method, member_id,
		       total, cash_received, change_due, created_at
		FROM transactions
		WHERE created_at >= $1 AND created_at < $2
		ORDER BY created_at DESC, id DESC
		LIMIT $3
	`, from, to, limit)
	if err != nil {
		return nil, err
	}
	return s.scanTransactions(ctx, rows)
}

func (s *Store) ListShiftTransactions(ctx context.Context, shiftID string) ([]domain.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, number, shift_id, cashier, payment_method, member_id,
		       total, cash_received, change_due, created_at
		FROM transactions
		WHERE shift_id = $1
		ORDER BY created_at ASC, id ASC
	`, shiftID)
	if err != nil {
		return nil, err
	}
	return s.scanTransactions(ctx, rows)
}

func (s *Store) scanTransactions(ctx context.Context, rows *sql.Rows) ([]domain.Transaction, error) {
	defer rows.Close()

	transactions := make([]domain.Transaction, 0, 16)
	for rows.Next() {
		var tx domain.Transaction
		var memberID sql.NullString
		err := rows.Scan(
			&tx.ID,
			&tx.Number,
			&tx.ShiftID,
			&tx.Cashier,
			&tx.PaymentMethod,
			&memberID,
			&tx.Total,
			&tx.CashReceived,
			&tx.Change,
			&tx.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		if memberID.Valid {
			tx.MemberID = memberID.String
		}
		tx.CreatedAt = tx.CreatedAt.UTC()
		transactions = append(transactions, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range transactions {
		items, err := s.loadTransactionItems(ctx, s.db, transactions[i].ID)
		if err != nil {
			return nil, err
		}
		transactions[i].Items = items
	}
	return transactions, nil
}

func (s *Store) CreateCheckout(ctx context.Context, tx domain.Transaction, entries []domain.JournalEntry) (*domain.Transaction, error) {
	if len(tx.Items) == 0 {
		return nil, store.ErrValidation
	}
	for _, line := range tx.Items {
		if line.Qty < 1 {
			return nil, store.ErrValidation
		}
	}

	pgTx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = pgTx.Rollback() }()

	for _, line := range tx.Items {
		var stock int
		var active bool
		err := pgTx.QueryRowContext(ctx, `
			SELECT stock, active
			FROM items
			WHERE id = $1
			FOR UPDATE
		`, line.ItemID).Scan(&stock, &active)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, fmt.Errorf("item %s unavailable", line.ItemID)
			}
			return nil, err
		}
		if !active {
			return nil, fmt.Errorf("item %s unavailable", line.ItemID)
		}
		if stock < line.Qty {
			return nil, store.ErrInsufficientStock
		}
	}

	if tx.ID == "" {
		tx.ID = xid.New("trx")
	}
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now().UTC()
	}
	if tx.Number == "" {
		number, err := s.nextTransactionNumber(ctx, pgTx, tx.CreatedAt)
		if err != nil {
			return nil, err
		}
		tx.Number = number
	}

	_, err = pgTx.ExecContext(ctx, `
		INSERT INTO transactions (
			id, number, shift_id, cashier, payment_method, member_id,
			total, cash_received, change_due, created_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`, tx.ID, tx.Number, tx.ShiftID, tx.Cashier, tx.PaymentMethod, nullIfEmpty(tx.MemberID),
		tx.Total, tx.CashReceived, tx.Change, tx.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrValidation
		}
		return nil, err
	}

	for _, line := range tx.Items {
		_, err = pgTx.ExecContext(ctx, `
			INSERT INTO transaction_items (transaction_id, item_id, name, qty, unit_price, unit_cost)
			VALUES ($1,$2,$3,$4,$5,$6)
		`, tx.ID, line.ItemID, line.Name, line.Qty, line.UnitPrice, line.UnitCost)
		if err != nil {
			return nil, err
		}
		_, err = pgTx.ExecContext(ctx, `
			UPDATE items SET stock = stock - $2, updated_at = $3 WHERE id = $1
		`, line.ItemID, line.Qty, tx.CreatedAt)
		if err != nil {
			return nil, err
		}
	}

	if err := s.applyEntriesTx(ctx, pgTx, entries, domain.JournalSourceSale, tx.ID); err != nil {
		return nil, err
	}

	if err := pgTx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrPersistence, err)
	}

	created := tx
	return &created, nil
}

func (s *Store) nextTransactionNumber(ctx context.Context, pgTx *sql.Tx, at time.Time) (string, error) {
	day := time.Date(at.UTC().Year(), at.UTC().Month(), at.UTC().Day(), 0, 0, 0, 0, time.UTC)

	var seq int64
	err := pgTx.QueryRowContext(ctx, `
		INSERT INTO transaction_counters (day, seq)
		VALUES ($1, 1)
		ON CONFLICT (day)
		DO UPDATE SET seq = transaction_counters.seq + 1
		RETURNING seq
	`, day).Scan(&seq)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("TRX-%s-%04d", at.UTC().Format("20060102"), seq), nil
}

func (s *Store) ExecuteDeletion(ctx context.Context, transactionID string, entries []domain.JournalEntry, audit domain.DeletionAuditRecord) ([]string, error) {
	pgTx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = pgTx.Rollback() }()

	var number string
	var createdAt time.Time
	err = pgTx.QueryRowContext(ctx, `
		SELECT number, created_at
		FROM transactions
		WHERE id = $1
		FOR UPDATE
	`, transactionID).Scan(&number, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}

	var covered bool
	err = pgTx.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM shift_reports
			WHERE opened_at <= $1 AND closed_at >= $1
		)
	`, createdAt).Scan(&covered)
	if err != nil {
		return nil, err
	}
	if covered {
		return nil, store.ErrClosedPeriod
	}

	items, err := s.loadTransactionItems(ctx, pgTx, transactionID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	warnings := make([]string, 0, 2)
	for _, line := range items {
		result, err := pgTx.ExecContext(ctx, `
			UPDATE items SET stock = stock + $2, updated_at = $3 WHERE id = $1
		`, line.ItemID, line.Qty, now)
		if err != nil {
			return nil, err
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return nil, err
		}
		if affected == 0 {
			warnings = append(warnings, fmt.Sprintf("%s tidak ditemukan, stok tidak dapat dikembalikan", line.Name))
		}
	}

	if err := s.applyEntriesTx(ctx, pgTx, entries, domain.JournalSourceDeletion, transactionID); err != nil {
		return nil, err
	}

	_, err = pgTx.ExecContext(ctx, `
		DELETE FROM transaction_items WHERE transaction_id = $1
	`, transactionID)
	if err != nil {
		return nil, err
	}
	_, err = pgTx.ExecContext(ctx, `
		DELETE FROM transactions WHERE id = $1
	`, transactionID)
	if err != nil {
		return nil, err
	}

	if audit.ID == "" {
		audit.ID = xid.New("del")
	}
	if audit.DeletedAt.IsZero() {
		audit.DeletedAt = now
	}
	audit.Warnings = append([]string(nil), warnings...)

	snapshot, err := json.Marshal(audit.Snapshot)
	if err != nil {
		return nil, err
	}
	warningsJSON, err := json.Marshal(audit.Warnings)
	if err != nil {
		return nil, err
	}

	_, err = pgTx.ExecContext(ctx, `
		INSERT INTO deletion_audits (
			id, transaction_id, transaction_number, snapshot, reason,
			deleted_by, warnings, deleted_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, audit.ID, audit.TransactionID, audit.TransactionNumber, snapshot, audit.Reason,
		audit.DeletedBy, warningsJSON, audit.DeletedAt)
	if err != nil {
		return nil, err
	}

	if err := pgTx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrPersistence, err)
	}

	return warnings, nil
}

func (s *Store) ListDeletionAudits(ctx context.Context, transactionID string, from time.Time, to time.Time, limit int) ([]domain.DeletionAuditRecord, error) {
	if limit < 1 {
		limit = 50
	}

	query := `
		SELECT id, transaction_id, transaction_number, snapshot, reason,
		       deleted_by, warnings, deleted_at
		FROM deletion_audits
		WHERE deleted_at >= $1 AND deleted_at < $2
	`
	args := []any{from, to}
	if transactionID != "" {
		query += ` AND (transaction_id = $3 OR transaction_number = $3)`
		args = append(args, transactionID)
	}
	query += fmt.Sprintf(` ORDER BY deleted_at DESC, id DESC LIMIT $%d`, len(args)+1)
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]domain.DeletionAuditRecord, 0, 16)
	for rows.Next() {
		var record domain.DeletionAuditRecord
		var snapshot []byte
		var warnings []byte
		err := rows.Scan(
			&record.ID,
			&record.TransactionID,
			&record.TransactionNumber,
			&snapshot,
			&record.Reason,
			&record.DeletedBy,
			&warnings,
			&record.DeletedAt,
		)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(snapshot, &record.Snapshot); err != nil {
			return nil, fmt.Errorf("%w: deletion audit %s snapshot: %v", store.ErrDataCorruption, record.ID, err)
		}
		if len(warnings) > 0 {
			if err := json.Unmarshal(warnings, &record.Warnings); err != nil {
				return nil, fmt.Errorf("%w: deletion audit %s warnings: %v", store.ErrDataCorruption, record.ID, err)
			}
		}
		record.DeletedAt = record.DeletedAt.UTC()
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// applyEntriesTx validates each journal entry against the double-entry
// invariant, persists it, and moves the affected account balances, all
// inside the caller's transaction.
func (s *Store) applyEntriesTx(ctx context.Context, pgTx *sql.Tx, entries []domain.JournalEntry, sourceType string, sourceID string) error {
	if len(entries) == 0 {
		return nil
	}

	accountRows, err := pgTx.QueryContext(ctx, `
		SELECT code, type
		FROM accounts
		FOR UPDATE
	`)
	if err != nil {
		return err
	}
	accountTypes := make(map[string]string, 8)
	for accountRows.Next() {
		var code string
		var accountType string
		if err := accountRows.Scan(&code, &accountType); err != nil {
			_ = accountRows.Close()
			return err
		}
		accountTypes[code] = accountType
	}
	if err := accountRows.Err(); err != nil {
		_ = accountRows.Close()
		return err
	}
	_ = accountRows.Close()

	deltas := make(map[string]int64, 8)
	for entryIndex := range entries {
		entry := &entries[entryIndex]
		if len(entry.Postings) == 0 {
			return store.ErrValidation
		}
		totalDebit := int64(0)
		totalKredit := int64(0)
		for _, posting := range entry.Postings {
			if posting.Debit < 0 || posting.Kredit < 0 {
				return store.ErrValidation
			}
			if posting.Debit == 0 && posting.Kredit == 0 {
				return store.ErrValidation
			}
			accountType, exists := accountTypes[posting.AccountCode]
			if !exists {
				return fmt.Errorf("%w: unknown account %s", store.ErrValidation, posting.AccountCode)
			}
			totalDebit += posting.Debit
			totalKredit += posting.Kredit

			switch accountType {
			case domain.AccountTypeAsset, domain.AccountTypeExpense:
				deltas[posting.AccountCode] += posting.Debit - posting.Kredit
			default:
				deltas[posting.AccountCode] += posting.Kredit - posting.Debit
			}
		}
		if totalDebit != totalKredit || totalDebit == 0 {
			return fmt.Errorf("%w: journal entry is not balanced", store.ErrValidation)
		}

		if entry.ID == "" {
			entry.ID = xid.New("jrn")
		}
		if entry.Date.IsZero() {
			entry.Date = time.Now().UTC()
		}
		if entry.SourceType == "" {
			entry.SourceType = sourceType
		}
		if entry.SourceID == "" {
			entry.SourceID = sourceID
		}
	}

	for _, entry := range entries {
		_, err := pgTx.ExecContext(ctx, `
			INSERT INTO journal_entries (id, entry_date, description, source_type, source_id)
			VALUES ($1,$2,$3,$4,$5)
		`, entry.ID, entry.Date, entry.Description, entry.SourceType, entry.SourceID)
		if err != nil {
			return err
		}
		for _, posting := range entry.Postings {
			_, err := pgTx.ExecContext(ctx, `
				INSERT INTO journal_postings (entry_id, account_code, debit, kredit)
				VALUES ($1,$2,$3,$4)
			`, entry.ID, posting.AccountCode, posting.Debit, posting.Kredit)
			if err != nil {
				return err
			}
		}
	}

	for code, delta := range deltas {
		if delta == 0 {
			continue
		}
		_, err := pgTx.ExecContext(ctx, `
			UPDATE accounts SET balance = balance + $2 WHERE code = $1
		`, code, delta)
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) ListJournalEntries(ctx context.Context, from time.Time, to time.Time, limit int) ([]domain.JournalEntry, error) {
	if limit < 1 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, entry_date, description, source_type, source_id
		FROM journal_entries
		WHERE entry_date >= $1 AND entry_date < $2
		ORDER BY entry_date DESC, id DESC
		LIMIT $3
	`, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]domain.JournalEntry, 0, 32)
	for rows.Next() {
		var entry domain.JournalEntry
		if err := rows.Scan(&entry.ID, &entry.Date, &entry.Description, &entry.SourceType, &entry.SourceID); err != nil {
			return nil, err
		}
		entry.Date = entry.Date.UTC()
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range entries {
		postingRows, err := s.db.QueryContext(ctx, `
			SELECT account_code, debit, kredit
			FROM journal_postings
			WHERE entry_id = $1
			ORDER BY id ASC
		`, entries[i].ID)
		if err != nil {
			return nil, err
		}
		postings := make([]domain.JournalPosting, 0, 2)
		for postingRows.Next() {
			var posting domain.JournalPosting
			if err := postingRows.Scan(&posting.AccountCode, &posting.Debit, &posting.Kredit); err != nil {
				_ = postingRows.Close()
				return nil, err
			}
			postings = append(postings, posting)
		}
		if err := postingRows.Err(); err != nil {
			_ = postingRows.Close()
			return nil, err
		}
		_ = postingRows.Close()
		entries[i].Postings = postings
	}
	return entries, nil
}

func (s *Store) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT code, name, type, balance
		FROM accounts
		ORDER BY code ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	accounts := make([]domain.Account, 0, 8)
	for rows.Next() {
		var account domain.Account
		if err := rows.Scan(&account.Code, &account.Name, &account.Type, &account.Balance); err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return accounts, nil
}

func (s *Store) CreateShift(ctx context.Context, shift domain.Shift) (*domain.Shift, error) {
	if shift.Cashier == "" {
		return nil, store.ErrValidation
	}
	if shift.OpeningFloat < 0 {
		return nil, store.ErrValidation
	}

	pgTx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = pgTx.Rollback() }()

	var existing string
	err = pgTx.QueryRowContext(ctx, `
		SELECT id
		FROM shifts
		WHERE cashier = $1 AND status = $2
		FOR UPDATE
	`, shift.Cashier, domain.ShiftStatusOpen).Scan(&existing)
	if err == nil {
		return nil, store.ErrInvalidState
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	if shift.ID == "" {
		shift.ID = xid.New("shift")
	}
	if shift.OpenedAt.IsZero() {
		shift.OpenedAt = time.Now().UTC()
	}
	shift.Status = domain.ShiftStatusOpen
	shift.ClosedAt = nil

	_, err = pgTx.ExecContext(ctx, `
		INSERT INTO shifts (id, cashier, opening_float, status, opened_at, closed_at)
		VALUES ($1,$2,$3,$4,$5,NULL)
	`, shift.ID, shift.Cashier, shift.OpeningFloat, shift.Status, shift.OpenedAt)
	if err != nil {
		return nil, err
	}

	if err := pgTx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrPersistence, err)
	}

	created := shift
	return &created, nil
}

func (s *Store) GetActiveShift(ctx context.Context, cashier string) (*domain.Shift, error) {
	var shift domain.Shift
	err := s.db.QueryRowContext(ctx, `
		SELECT id, cashier, opening_float, status, opened_at
		FROM shifts
		WHERE cashier = $1 AND status = $2
		ORDER BY opened_at DESC
		LIMIT 1
	`, cashier, domain.ShiftStatusOpen).Scan(&shift.ID, &shift.Cashier, &shift.OpeningFloat, &shift.Status, &shift.OpenedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	shift.OpenedAt = shift.OpenedAt.UTC()
	return &shift, nil
}

func (s *Store) CloseShift(ctx context.Context, shiftID string, closedAt time.Time, report domain.ClosedShiftReport) (*domain.ClosedShiftReport, error) {
	pgTx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = pgTx.Rollback() }()

	var shift domain.Shift
	err = pgTx.QueryRowContext(ctx, `
		SELECT id, cashier, opening_float, status, opened_at
		FROM shifts
		WHERE id = $1
		FOR UPDATE
	`, shiftID).Scan(&shift.ID, &shift.Cashier, &shift.OpeningFloat, &shift.Status, &shift.OpenedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	if shift.Status != domain.ShiftStatusOpen {
		return nil, store.ErrInvalidState
	}
	if closedAt.IsZero() {
		closedAt = time.Now().UTC()
	}

	_, err = pgTx.ExecContext(ctx, `
		UPDATE shifts SET status = $2, closed_at = $3 WHERE id = $1
	`, shiftID, domain.ShiftStatusClosed, closedAt)
	if err != nil {
		return nil, err
	}

	if report.ID == "" {
		report.ID = xid.New("cls")
	}
	report.ShiftID = shiftID
	report.Cashier = shift.Cashier
	report.OpenedAt = shift.OpenedAt.UTC()
	report.ClosedAt = closedAt

	_, err = pgTx.ExecContext(ctx, `
		INSERT INTO shift_reports (
			id, shift_id, cashier, opened_at, closed_at, opening_float,
			total_sales, total_cash, total_credit, transaction_count,
			expected_cash, counted_cash, difference, status, severity, explanation
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
	`, report.ID, report.ShiftID, report.Cashier, report.OpenedAt, report.ClosedAt, report.OpeningFloat,
		report.TotalSales, report.TotalCash, report.TotalCredit, report.TransactionCount,
		report.ExpectedCash, report.CountedCash, report.Difference, report.Status, report.Severity,
		nullIfEmpty(report.Explanation))
	if err != nil {
		return nil, err
	}

	if err := pgTx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrPersistence, err)
	}

	created := report
	return &created, nil
}

func (s *Store) ListClosedShiftReports(ctx context.Context, limit int) ([]domain.ClosedShiftReport, error) {
	query := `
		SELECT id, shift_id, cashier, opened_at, closed_at, opening_float,
		       total_sales, total_cash, total_credit, transaction_count,
		       expected_cash, counted_cash, difference, status, severity, explanation
		FROM shift_reports
		ORDER BY closed_at DESC, id DESC
	`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reports := make([]domain.ClosedShiftReport, 0, 16)
	for rows.Next() {
		var report domain.ClosedShiftReport
		var explanation sql.NullString
		err := rows.Scan(
			&report.ID,
			&report.ShiftID,
			&report.Cashier,
			&report.OpenedAt,
			&report.ClosedAt,
			&report.OpeningFloat,
			&report.TotalSales,
			&report.TotalCash,
			&report.TotalCredit,
			&report.TransactionCount,
			&report.ExpectedCash,
			&report.CountedCash,
			&report.Difference,
			&report.Status,
			&report.Severity,
			&explanation,
		)
		if err != nil {
			return nil, err
		}
		if explanation.Valid {
			report.Explanation = explanation.String
		}
		report.OpenedAt = report.OpenedAt.UTC()
		report.ClosedAt = report.ClosedAt.UTC()
		reports = append(reports, report)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return reports, nil
}

func (s *Store) GetDailyReport(ctx context.Context, from time.Time, to time.Time) (domain.DailyReport, error) {
	report := domain.DailyReport{
		Date:      from.UTC().Format("2006-01-02"),
		ByPayment: make([]domain.DailyReportPayment, 0, 2),
	}

	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(total), 0)
		FROM transactions
		WHERE created_at >= $1 AND created_at < $2
	`, from, to).Scan(&report.Transactions, &report.GrossSales)
	if err != nil {
		return domain.DailyReport{}, err
	}

	err = s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(ti.qty * ti.unit_cost), 0), COALESCE(SUM(ti.qty), 0)
		FROM transaction_items ti
		JOIN transactions t ON t.id = ti.transaction_id
		WHERE t.created_at >= $1 AND t.created_at < $2
	`, from, to).Scan(&report.TotalHPP, &report.ItemsSold)
	if err != nil {
		return domain.DailyReport{}, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT payment_method, COUNT(*), COALESCE(SUM(total), 0)
		FROM transactions
		WHERE created_at >= $1 AND created_at < $2
		GROUP BY payment_method
		ORDER BY payment_method ASC
	`, from, to)
	if err != nil {
		return domain.DailyReport{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var payment domain.DailyReportPayment
		if err := rows.Scan(&payment.PaymentMethod, &payment.Transactions, &payment.Total); err != nil {
			return domain.DailyReport{}, err
		}
		report.ByPayment = append(report.ByPayment, payment)
	}
	if err := rows.Err(); err != nil {
		return domain.DailyReport{}, err
	}

	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM((snapshot->>'total')::bigint), 0)
		FROM deletion_audits
		WHERE deleted_at >= $1 AND deleted_at < $2
	`, from, to).Scan(&report.Deletions, &report.DeletedAmount)
	if err != nil {
		return domain.DailyReport{}, err
	}

	report.EstimatedMargin = report.GrossSales - report.TotalHPP
	return report, nil
}

func (s *Store) CreateAuditLog(ctx context.Context, entry domain.AuditLog) error {
	if entry.ID == "" {
		entry.ID = xid.New("aud")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_logs (id, actor_username, actor_role, action, entity_type, entity_id, detail, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, entry.ID, entry.ActorUsername, entry.ActorRole, entry.Action, entry.EntityType, entry.EntityID, entry.Detail, entry.CreatedAt)
	return err
}

func (s *Store) ListAuditLogs(ctx context.Context, from time.Time, to time.Time, limit int) ([]domain.AuditLog, error) {
	if limit < 1 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, actor_username, actor_role, action, entity_type, entity_id, detail, created_at
		FROM audit_logs
		WHERE created_at >= $1 AND created_at < $2
		ORDER BY created_at DESC, id DESC
		LIMIT $3
	`, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := make([]domain.AuditLog, 0, 32)
	for rows.Next() {
		var entry domain.AuditLog
		err := rows.Scan(
			&entry.ID,
			&entry.ActorUsername,
			&entry.ActorRole,
			&entry.Action,
			&entry.EntityType,
			&entry.EntityID,
			&entry.Detail,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		entry.CreatedAt = entry.CreatedAt.UTC()
		logs = append(logs, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return logs, nil
}

func (s *Store) CreateUser(ctx context.Context, user domain.UserAccount) error {
	if user.Username == "" || user.Password == "" {
		return store.ErrValidation
	}
	if user.Role == "" {
		user.Role = "cashier"
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	user.Active = true

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (username, password, role, active, created_at)
		VALUES ($1,$2,$3,$4,$5)
	`, user.Username, user.Password, user.Role, user.Active, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrValidation
		}
		return err
	}
	return nil
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.UserAccount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT username, password, role, active, created_at
		FROM users
		ORDER BY username ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.UserAccount, 0, 8)
	for rows.Next() {
		var user domain.UserAccount
		if err := rows.Scan(&user.Username, &user.Password, &user.Role, &user.Active, &user.CreatedAt); err != nil {
			return nil, err
		}
		user.CreatedAt = user.CreatedAt.UTC()
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Store) UpdateUserPassword(ctx context.Context, username string, password string) error {
	if username == "" || password == "" {
		return store.ErrValidation
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE users SET password = $2 WHERE username = $1
	`, username, password)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func nullIfEmpty(val string) any {
	if val == "" {
		return nil
	}
	return val
}
