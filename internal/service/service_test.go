package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"koperasikasir/backend/internal/cache"
	"koperasikasir/backend/internal/domain"
	"koperasikasir/backend/internal/reconcile"
	"koperasikasir/backend/internal/store"
	"koperasikasir/backend/internal/store/memory"
)

func newTestService() (*Service, *memory.Store) {
	repo := memory.NewSeeded()
	svc := New(repo, reconcile.NewEngine(), cache.NoopReportCache{}, 5*time.Second)
	return svc, repo
}

func cashierCtx(username string) context.Context {
	return WithActor(context.Background(), domain.Actor{Username: username, Role: "cashier"})
}

func adminCtx() context.Context {
	return WithActor(context.Background(), domain.Actor{Username: "admin", Role: "admin"})
}

func openTestShift(t *testing.T, svc *Service, ctx context.Context, openingFloat int64) domain.Shift {
	t.Helper()
	resp, err := svc.OpenShift(ctx, domain.ShiftOpenRequest{OpeningFloat: openingFloat})
	if err != nil {
		t.Fatalf("open shift failed: %v", err)
	}
	return resp.Shift
}

func TestCheckoutRequiresActiveShift(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Checkout(cashierCtx("kasir1"), domain.CheckoutRequest{
		PaymentMethod: domain.PaymentCash,
		CashReceived:  10_000,
		CartItems:     []domain.CartLine{{ItemID: "ITM-MIE-01", Qty: 2}},
	})
	if err == nil {
		t.Fatalf("expected checkout to fail when no shift is open")
	}
}

func TestCheckoutCashComputesChangeAndJournal(t *testing.T) {
	svc, repo := newTestService()
	ctx := cashierCtx("kasir1")
	openTestShift(t, svc, ctx, 100_000)

	resp, err := svc.Checkout(ctx, domain.CheckoutRequest{
		PaymentMethod: domain.PaymentCash,
		CashReceived:  10_000,
		CartItems:     []domain.CartLine{{ItemID: "ITM-MIE-01", Qty: 2}},
	})
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	if resp.Total != 7_000 {
		t.Fatalf("expected total 7000, got %d", resp.Total)
	}
	if resp.Change != 3_000 {
		t.Fatalf("expected change 3000, got %d", resp.Change)
	}
	if resp.TransactionNumber == "" {
		t.Fatalf("expected assigned transaction number")
	}

	item, err := repo.GetItemByID(ctx, "ITM-MIE-01")
	if err != nil {
		t.Fatalf("get item: %v", err)
	}
	if item.Stock != 118 {
		t.Fatalf("expected stock 118 after sale, got %d", item.Stock)
	}

	entries, err := svc.ListJournalEntries(ctx, "", 0)
	if err != nil {
		t.Fatalf("list journal entries: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 journal entries for cash sale with cost, got %d", len(entries))
	}
	for _, entry := range entries {
		if entry.SourceID != resp.TransactionID {
			t.Fatalf("expected entry source %s, got %s", resp.TransactionID, entry.SourceID)
		}
	}
}

func TestCheckoutMergesDuplicateCartLines(t *testing.T) {
	svc, _ := newTestService()
	ctx := cashierCtx("kasir1")
	openTestShift(t, svc, ctx, 0)

	resp, err := svc.Checkout(ctx, domain.CheckoutRequest{
		PaymentMethod: domain.PaymentCash,
		CashReceived:  20_000,
		CartItems: []domain.CartLine{
			{ItemID: "ITM-MIE-01", Qty: 2},
			{ItemID: "ITM-MIE-01", Qty: 3},
		},
	})
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	if resp.ItemCount != 5 {
		t.Fatalf("expected merged item count 5, got %d", resp.ItemCount)
	}
	if resp.Total != 17_500 {
		t.Fatalf("expected total 17500, got %d", resp.Total)
	}
}

func TestCheckoutCreditRequiresMemberID(t *testing.T) {
	svc, _ := newTestService()
	ctx := cashierCtx("kasir1")
	openTestShift(t, svc, ctx, 0)

	_, err := svc.Checkout(ctx, domain.CheckoutRequest{
		PaymentMethod: domain.PaymentCredit,
		CartItems:     []domain.CartLine{{ItemID: "ITM-GULA-01", Qty: 1}},
	})
	if !errors.Is(err, store.ErrValidation) {
		t.Fatalf("expected validation error for credit sale without member, got %v", err)
	}
}

func TestCheckoutRejectsInsufficientCash(t *testing.T) {
	svc, _ := newTestService()
	ctx := cashierCtx("kasir1")
	openTestShift(t, svc, ctx, 0)

	_, err := svc.Checkout(ctx, domain.CheckoutRequest{
		PaymentMethod: domain.PaymentCash,
		CashReceived:  5_000,
		CartItems:     []domain.CartLine{{ItemID: "ITM-MIE-01", Qty: 2}},
	})
	if !errors.Is(err, store.ErrValidation) {
		t.Fatalf("expected validation error when cash received is short, got %v", err)
	}
}

func TestCheckoutRejectsInsufficientStock(t *testing.T) {
	svc, _ := newTestService()
	ctx := cashierCtx("kasir1")
	openTestShift(t, svc, ctx, 0)

	_, err := svc.Checkout(ctx, domain.CheckoutRequest{
		PaymentMethod: domain.PaymentCash,
		CashReceived:  1_000_000,
		CartItems:     []domain.CartLine{{ItemID: "ITM-MIE-01", Qty: 121}},
	})
	if !errors.Is(err, store.ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock error, got %v", err)
	}
}

func TestCloseShiftBalancedDrawer(t *testing.T) {
	svc, _ := newTestService()
	ctx := cashierCtx("kasir1")
	openTestShift(t, svc, ctx, 100_000)

	_, err := svc.Checkout(ctx, domain.CheckoutRequest{
		PaymentMethod: domain.PaymentCash,
		CashReceived:  78_000,
		CartItems:     []domain.CartLine{{ItemID: "ITM-BERAS-01", Qty: 1}},
	})
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}

	resp, err := svc.CloseShift(ctx, domain.ShiftCloseRequest{CountedCash: 178_000})
	if err != nil {
		t.Fatalf("close shift failed: %v", err)
	}
	report := resp.Report
	if report.Status != domain.ReconcileStatusBalanced {
		t.Fatalf("expected status sesuai, got %s", report.Status)
	}
	if report.Severity != domain.SeverityNormal {
		t.Fatalf("expected severity normal, got %s", report.Severity)
	}
	if report.ExpectedCash != 178_000 {
		t.Fatalf("expected expected cash 178000, got %d", report.ExpectedCash)
	}
	if report.TotalCredit != 0 {
		t.Fatalf("expected no credit sales, got %d", report.TotalCredit)
	}
}

func TestCloseShiftShortDrawerRequiresExplanation(t *testing.T) {
	svc, _ := newTestService()
	ctx := cashierCtx("kasir1")
	openTestShift(t, svc, ctx, 200_000)

	_, err := svc.CloseShift(ctx, domain.ShiftCloseRequest{CountedCash: 195_000})
	if !errors.Is(err, store.ErrValidation) {
		t.Fatalf("expected validation error without explanation, got %v", err)
	}

	resp, err := svc.CloseShift(ctx, domain.ShiftCloseRequest{
		CountedCash: 195_000,
		Explanation: "uang kembalian tercecer saat shift ramai",
	})
	if err != nil {
		t.Fatalf("close shift with explanation failed: %v", err)
	}
	report := resp.Report
	if report.Status != domain.ReconcileStatusShort {
		t.Fatalf("expected status kurang, got %s", report.Status)
	}
	if report.Severity != domain.SeverityRingan {
		t.Fatalf("expected severity ringan, got %s", report.Severity)
	}
	if report.Difference != -5_000 {
		t.Fatalf("expected difference -5000, got %d", report.Difference)
	}
}

func TestCloseShiftTwiceFails(t *testing.T) {
	svc, _ := newTestService()
	ctx := cashierCtx("kasir1")
	openTestShift(t, svc, ctx, 50_000)

	if _, err := svc.CloseShift(ctx, domain.ShiftCloseRequest{CountedCash: 50_000}); err != nil {
		t.Fatalf("first close failed: %v", err)
	}
	if _, err := svc.CloseShift(ctx, domain.ShiftCloseRequest{CountedCash: 50_000}); err == nil {
		t.Fatalf("expected second close to fail")
	}
}

func TestCreateItemRequiresAdmin(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.CreateItem(cashierCtx("kasir1"), domain.ItemCreateRequest{
		Name:      "Sarden Kaleng",
		Category:  "makanan",
		UnitPrice: 14_000,
		UnitCost:  11_500,
	})
	if err == nil {
		t.Fatalf("expected non-admin item creation to be rejected")
	}
}

func TestCreateItemAdminSuccess(t *testing.T) {
	svc, _ := newTestService()

	item, err := svc.CreateItem(adminCtx(), domain.ItemCreateRequest{
		Name:         "Sarden Kaleng",
		Category:     "makanan",
		UnitPrice:    14_000,
		UnitCost:     11_500,
		InitialStock: 40,
	})
	if err != nil {
		t.Fatalf("create item failed: %v", err)
	}
	if item.ID == "" {
		t.Fatalf("expected assigned item id")
	}
	if !item.Active {
		t.Fatalf("expected new item to be active")
	}
}

func TestTransformInventoryMovesStock(t *testing.T) {
	svc, repo := newTestService()
	ctx := adminCtx()

	created, err := svc.TransformInventory(ctx, domain.TransformRequest{
		SourceItemID: "ITM-BERAS-01",
		TargetItemID: "ITM-GULA-01",
		SourceQty:    10,
		TargetQty:    10,
		Note:         "repack karung sobek",
	})
	if err != nil {
		t.Fatalf("transform failed: %v", err)
	}
	if created.SourceName != "Beras Premium 5kg" {
		t.Fatalf("expected resolved source name, got %s", created.SourceName)
	}

	source, err := repo.GetItemByID(ctx, "ITM-BERAS-01")
	if err != nil {
		t.Fatalf("get source: %v", err)
	}
	if source.Stock != 110 {
		t.Fatalf("expected source stock 110, got %d", source.Stock)
	}
	target, err := repo.GetItemByID(ctx, "ITM-GULA-01")
	if err != nil {
		t.Fatalf("get target: %v", err)
	}
	if target.Stock != 130 {
		t.Fatalf("expected target stock 130, got %d", target.Stock)
	}
}

func TestDailyReportAggregatesSalesAndDeletions(t *testing.T) {
	svc, _ := newTestService()
	ctx := cashierCtx("kasir1")
	openTestShift(t, svc, ctx, 0)

	first, err := svc.Checkout(ctx, domain.CheckoutRequest{
		PaymentMethod: domain.PaymentCash,
		CashReceived:  78_000,
		CartItems:     []domain.CartLine{{ItemID: "ITM-BERAS-01", Qty: 1}},
	})
	if err != nil {
		t.Fatalf("first checkout failed: %v", err)
	}
	_, err = svc.Checkout(ctx, domain.CheckoutRequest{
		PaymentMethod: domain.PaymentCredit,
		MemberID:      "AGT-0042",
		CartItems:     []domain.CartLine{{ItemID: "ITM-GULA-01", Qty: 2}},
	})
	if err != nil {
		t.Fatalf("second checkout failed: %v", err)
	}

	result, err := svc.DeleteTransaction(ctx, first.TransactionID, domain.DeleteTransactionRequest{
		Reason: "salah input jumlah barang",
	})
	if err != nil {
		t.Fatalf("delete transaction failed: %v", err)
	}
	if !result.Success {
		t.Fatalf("expected deletion to succeed, got %s", result.Message)
	}

	report, err := svc.DailyReport(ctx, "")
	if err != nil {
		t.Fatalf("daily report failed: %v", err)
	}
	if report.Transactions != 1 {
		t.Fatalf("expected 1 surviving transaction, got %d", report.Transactions)
	}
	if report.GrossSales != 34_800 {
		t.Fatalf("expected gross sales 34800, got %d", report.GrossSales)
	}
	if report.Deletions != 1 {
		t.Fatalf("expected 1 deletion, got %d", report.Deletions)
	}
	if report.DeletedAmount != 78_000 {
		t.Fatalf("expected deleted amount 78000, got %d", report.DeletedAmount)
	}
	if len(report.ByPayment) != 1 || report.ByPayment[0].PaymentMethod != domain.PaymentCredit {
		t.Fatalf("expected only credit payment bucket, got %+v", report.ByPayment)
	}
}

func TestDetectOperationalAnomaliesDeletionSpike(t *testing.T) {
	svc, _ := newTestService()
	ctx := cashierCtx("kasir1")
	openTestShift(t, svc, ctx, 0)

	for i := 0; i < 3; i++ {
		resp, err := svc.Checkout(ctx, domain.CheckoutRequest{
			PaymentMethod: domain.PaymentCash,
			CashReceived:  10_000,
			CartItems:     []domain.CartLine{{ItemID: "ITM-MIE-01", Qty: 1}},
		})
		if err != nil {
			t.Fatalf("checkout %d failed: %v", i, err)
		}
		result, err := svc.DeleteTransaction(ctx, resp.TransactionID, domain.DeleteTransactionRequest{
			Reason: "latihan kasir baru",
		})
		if err != nil {
			t.Fatalf("delete %d failed: %v", i, err)
		}
		if !result.Success {
			t.Fatalf("delete %d rejected: %s", i, result.Message)
		}
	}

	alerts, err := svc.DetectOperationalAnomalies(ctx, "")
	if err != nil {
		t.Fatalf("detect anomalies failed: %v", err)
	}

	found := false
	for _, alert := range alerts.Alerts {
		if alert.Code == "deletion_spike" {
			found = true
			if alert.Severity != "high" {
				t.Fatalf("expected high severity, got %s", alert.Severity)
			}
		}
	}
	if !found {
		t.Fatalf("expected deletion_spike alert, got %+v", alerts.Alerts)
	}
}
