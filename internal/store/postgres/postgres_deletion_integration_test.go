package postgres

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"koperasikasir/backend/internal/domain"
	"koperasikasir/backend/internal/store"
)

func TestExecuteDeletionRestoresStockAndRemovesTransaction(t *testing.T) {
	databaseURL := os.Getenv("KOPERASIKASIR_TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("set KOPERASIKASIR_TEST_DATABASE_URL to run postgres integration test")
	}

	ctx := context.Background()
	s, err := New(ctx, databaseURL)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})

	stamp := time.Now().UnixNano()
	itemID := fmt.Sprintf("itm-del-it-%d", stamp)
	txID := fmt.Sprintf("trx-del-it-%d", stamp)
	txNumber := fmt.Sprintf("TRX-IT-%d", stamp)
	auditID := fmt.Sprintf("del-it-%d", stamp)

	t.Cleanup(func() {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM journal_postings WHERE entry_id IN (SELECT id FROM journal_entries WHERE source_id = $1)`, txID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM journal_entries WHERE source_id = $1`, txID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM deletion_audits WHERE id = $1`, auditID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM transaction_items WHERE transaction_id = $1`, txID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = $1`, txID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM items WHERE id = $1`, itemID)
	})

	seedAccounts := []struct {
		code string
		name string
		typ  string
	}{
		{domain.AccountKas, "Kas", domain.AccountTypeAsset},
		{domain.AccountPersediaan, "Persediaan Barang", domain.AccountTypeAsset},
		{domain.AccountPendapatan, "Pendapatan Penjualan", domain.AccountTypeRevenue},
		{domain.AccountHPP, "Beban Pokok Penjualan", domain.AccountTypeExpense},
	}
	for _, account := range seedAccounts {
		if _, err := s.db.ExecContext(ctx, `
			INSERT INTO accounts (code, name, type, balance)
			VALUES ($1, $2, $3, 0)
			ON CONFLICT (code) DO NOTHING
		`, account.code, account.name, account.typ); err != nil {
			t.Fatalf("seed account %s: %v", account.code, err)
		}
	}

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO items (id, name, category, unit_price, unit_cost, stock, active, updated_at)
		VALUES ($1, 'Beras Integrasi 5kg', 'sembako', 50000, 30000, 10, true, now())
	`, itemID); err != nil {
		t.Fatalf("insert item: %v", err)
	}

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO transactions (
			id, number, shift_id, cashier, payment_method, member_id,
			total, cash_received, change_due, created_at
		)
		VALUES ($1, $2, 'shift-it', 'kasir1', 'cash', NULL, 100000, 100000, 0, now())
	`, txID, txNumber); err != nil {
		t.Fatalf("insert transaction: %v", err)
	}

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO transaction_items (transaction_id, item_id, name, qty, unit_price, unit_cost)
		VALUES ($1, $2, 'Beras Integrasi 5kg', 2, 50000, 30000)
	`, txID, itemID); err != nil {
		t.Fatalf("insert transaction item: %v", err)
	}

	now := time.Now().UTC()
	entries := []domain.JournalEntry{
		{
			Description: "Pembatalan penjualan " + txNumber,
			Postings: []domain.JournalPosting{
				{AccountCode: domain.AccountPendapatan, Debit: 100000},
				{AccountCode: domain.AccountKas, Kredit: 100000},
			},
		},
		{
			Description: "Pembatalan beban pokok " + txNumber,
			Postings: []domain.JournalPosting{
				{AccountCode: domain.AccountPersediaan, Debit: 60000},
				{AccountCode: domain.AccountHPP, Kredit: 60000},
			},
		},
	}
	audit := domain.DeletionAuditRecord{
		ID:                auditID,
		TransactionID:     txID,
		TransactionNumber: txNumber,
		Snapshot: domain.Transaction{
			ID:            txID,
			Number:        txNumber,
			PaymentMethod: domain.PaymentCash,
			Total:         100000,
		},
		Reason:    "salah input jumlah barang",
		DeletedBy: "admin",
		DeletedAt: now,
	}

	warnings, err := s.ExecuteDeletion(ctx, txID, entries, audit)
	if err != nil {
		t.Fatalf("execute deletion: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("expected no warnings, got %v", warnings)
	}

	var stock int
	if err := s.db.QueryRowContext(ctx, `
		SELECT stock FROM items WHERE id = $1
	`, itemID).Scan(&stock); err != nil {
		t.Fatalf("query stock: %v", err)
	}
	if stock != 12 {
		t.Fatalf("expected stock 12 after deletion restock, got %d", stock)
	}

	if _, err := s.FindTransactionByID(ctx, txID); err != store.ErrNotFound {
		t.Fatalf("expected deleted transaction lookup to return not found, got %v", err)
	}

	var reason string
	if err := s.db.QueryRowContext(ctx, `
		SELECT reason FROM deletion_audits WHERE id = $1
	`, auditID).Scan(&reason); err != nil {
		t.Fatalf("query deletion audit: %v", err)
	}
	if reason != audit.Reason {
		t.Fatalf("expected audit reason %q, got %q", audit.Reason, reason)
	}

	var entryCount int
	if err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM journal_entries WHERE source_type = $1 AND source_id = $2
	`, domain.JournalSourceDeletion, txID).Scan(&entryCount); err != nil {
		t.Fatalf("query journal entries: %v", err)
	}
	if entryCount != 2 {
		t.Fatalf("expected 2 reversal journal entries, got %d", entryCount)
	}
}
