package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"koperasikasir/backend/internal/domain"
	"koperasikasir/backend/internal/store"
	"koperasikasir/backend/internal/xid"
)

const maxDeletionReasonRunes = 500

// DeleteTransaction removes a sale and compensates every side effect it
// had: sold stock is restored, the sale's journal entries are reversed
// with balanced counter entries, and an immutable audit record is
// written. A transaction inside a closed register period can never be
// deleted. Business rule failures come back as an unsuccessful
// DeletionResult, storage failures as an error.
func (s *Service) DeleteTransaction(ctx context.Context, ref string, req domain.DeleteTransactionRequest) (domain.DeletionResult, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		actor = domain.Actor{Username: "system", Role: "system"}
	}

	ref = strings.TrimSpace(ref)
	if ref == "" {
		return domain.DeletionResult{Success: false, Message: "transaksi tidak ditemukan"}, nil
	}

	tx, err := s.repo.FindTransactionByID(ctx, ref)
	if errors.Is(err, store.ErrNotFound) {
		tx, err = s.repo.FindTransactionByNumber(ctx, ref)
	}
	if errors.Is(err, store.ErrNotFound) {
		return domain.DeletionResult{Success: false, Message: "transaksi tidak ditemukan"}, nil
	}
	if err != nil {
		return domain.DeletionResult{}, err
	}

	closed, err := s.inClosedPeriod(ctx, tx.CreatedAt)
	if err != nil {
		return domain.DeletionResult{}, err
	}
	if closed {
		return domain.DeletionResult{
			Success:           false,
			Message:           fmt.Sprintf("transaksi %s berada dalam periode tutup kasir dan tidak dapat dihapus", tx.Number),
			TransactionID:     tx.ID,
			TransactionNumber: tx.Number,
		}, nil
	}

	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return domain.DeletionResult{Success: false, Message: "alasan penghapusan wajib diisi"}, nil
	}
	if utf8.RuneCountInString(reason) > maxDeletionReasonRunes {
		return domain.DeletionResult{Success: false, Message: fmt.Sprintf("alasan penghapusan maksimal %d karakter", maxDeletionReasonRunes)}, nil
	}

	now := time.Now().UTC()
	audit := domain.DeletionAuditRecord{
		ID:                xid.New("del"),
		TransactionID:     tx.ID,
		TransactionNumber: tx.Number,
		Snapshot:          *tx,
		Reason:            reason,
		DeletedBy:         actor.Username,
		DeletedAt:         now,
	}

	warnings, err := s.repo.ExecuteDeletion(ctx, tx.ID, buildReversalEntries(*tx, now), audit)
	if errors.Is(err, store.ErrNotFound) {
		return domain.DeletionResult{Success: false, Message: "transaksi tidak ditemukan"}, nil
	}
	if errors.Is(err, store.ErrClosedPeriod) {
		return domain.DeletionResult{
			Success:           false,
			Message:           fmt.Sprintf("transaksi %s berada dalam periode tutup kasir dan tidak dapat dihapus", tx.Number),
			TransactionID:     tx.ID,
			TransactionNumber: tx.Number,
		}, nil
	}
	if err != nil {
		return domain.DeletionResult{}, err
	}

	s.logAudit(ctx, "transaction_delete", "transaction", tx.ID, fmt.Sprintf("number=%s,total=%d,payment=%s,warnings=%d", tx.Number, tx.Total, tx.PaymentMethod, len(warnings)))

	return domain.DeletionResult{
		Success:           true,
		Message:           "transaksi berhasil dihapus",
		TransactionID:     tx.ID,
		TransactionNumber: tx.Number,
		Warnings:          warnings,
		DeletedAt:         now.Format(time.RFC3339),
	}, nil
}

// ListDeletions returns deletion audit records, newest first. With a
// transaction reference the date filter widens to the full history
// unless a date was given explicitly.
func (s *Service) ListDeletions(ctx context.Context, transactionID string, date string, limit int) ([]domain.DeletionAuditRecord, error) {
	if limit < 1 {
		limit = 100
	}
	transactionID = strings.TrimSpace(transactionID)

	var from, to time.Time
	if transactionID != "" && strings.TrimSpace(date) == "" {
		to = time.Now().UTC().Add(24 * time.Hour)
	} else {
		var err error
		from, to, err = dayRange(date)
		if err != nil {
			return nil, err
		}
	}
	return s.repo.ListDeletionAudits(ctx, transactionID, from, to, limit)
}

// inClosedPeriod reports whether the moment falls inside any closed
// register period, boundaries included. The store re-checks the same
// window inside ExecuteDeletion, so a shift closing between this check
// and the deletion still blocks it.
func (s *Service) inClosedPeriod(ctx context.Context, at time.Time) (bool, error) {
	reports, err := s.repo.ListClosedShiftReports(ctx, 0)
	if err != nil {
		return false, err
	}
	for _, report := range reports {
		if !at.Before(report.OpenedAt) && !at.After(report.ClosedAt) {
			return true, nil
		}
	}
	return false, nil
}

// buildReversalEntries mirrors buildSaleEntries with debit and kredit
// swapped, so posting them alongside the original sale entries leaves
// every account at its pre-sale balance.
func buildReversalEntries(tx domain.Transaction, at time.Time) []domain.JournalEntry {
	payAccount := domain.AccountKas
	if tx.PaymentMethod == domain.PaymentCredit {
		payAccount = domain.AccountPiutang
	}

	entries := []domain.JournalEntry{{
		Date:        at,
		Description: fmt.Sprintf("Pembatalan penjualan %s", tx.Number),
		SourceType:  domain.JournalSourceDeletion,
		SourceID:    tx.ID,
		Postings: []domain.JournalPosting{
			{AccountCode: domain.AccountPendapatan, Debit: tx.Total},
			{AccountCode: payAccount, Kredit: tx.Total},
		},
	}}

	cogs := transactionCOGS(tx)
	if cogs > 0 {
		entries = append(entries, domain.JournalEntry{
			Date:        at,
			Description: fmt.Sprintf("Pembatalan beban pokok %s", tx.Number),
			SourceType:  domain.JournalSourceDeletion,
			SourceID:    tx.ID,
			Postings: []domain.JournalPosting{
				{AccountCode: domain.AccountPersediaan, Debit: cogs},
				{AccountCode: domain.AccountHPP, Kredit: cogs},
			},
		})
	}

	return entries
}
