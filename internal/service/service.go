package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"koperasikasir/backend/internal/cache"
	"koperasikasir/backend/internal/domain"
	"koperasikasir/backend/internal/reconcile"
	"koperasikasir/backend/internal/store"
	"koperasikasir/backend/internal/xid"
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

type Service struct {
	repo        store.Repository
	engine      *reconcile.Engine
	reportCache cache.ReportCache
	reportTTL   time.Duration
}

func New(repo store.Repository, engine *reconcile.Engine, reportCache cache.ReportCache, reportTTL time.Duration) *Service {
	if engine == nil {
		engine = reconcile.NewEngine()
	}
	if reportCache == nil {
		reportCache = cache.NoopReportCache{}
	}
	if reportTTL < time.Second {
		reportTTL = 60 * time.Second
	}

	return &Service{
		repo:        repo,
		engine:      engine,
		reportCache: reportCache,
		reportTTL:   reportTTL,
	}
}

func (s *Service) ListItems(ctx context.Context) ([]domain.Item, error) {
	return s.repo.ListItems(ctx)
}

func (s *Service) CreateItem(ctx context.Context, req domain.ItemCreateRequest) (domain.Item, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return domain.Item{}, fmt.Errorf("admin role required")
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Category = strings.TrimSpace(req.Category)

	if req.Name == "" || req.Category == "" {
		return domain.Item{}, store.ErrValidation
	}
	if req.UnitPrice < 1 || req.UnitCost < 0 || req.InitialStock < 0 {
		return domain.Item{}, store.ErrValidation
	}

	item := domain.Item{
		Name:      req.Name,
		Category:  req.Category,
		UnitPrice: req.UnitPrice,
		UnitCost:  req.UnitCost,
		Stock:     req.InitialStock,
		Active:    true,
	}

	created, err := s.repo.CreateItem(ctx, item)
	if err != nil {
		return domain.Item{}, err
	}

	s.logAudit(ctx, "item_create", "item", created.ID, fmt.Sprintf("name=%s,price=%d,cost=%d,stock=%d", created.Name, created.UnitPrice, created.UnitCost, created.Stock))

	return *created, nil
}

func (s *Service) UpdateItem(ctx context.Context, id string, req domain.ItemUpdateRequest) (domain.Item, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return domain.Item{}, fmt.Errorf("admin role required")
	}

	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Item{}, store.ErrValidation
	}

	existing, err := s.repo.GetItemByID(ctx, id)
	if err != nil {
		return domain.Item{}, err
	}

	updated := *existing
	if req.Name != nil {
		updated.Name = strings.TrimSpace(*req.Name)
	}
	if req.Category != nil {
		updated.Category = strings.TrimSpace(*req.Category)
	}
	if req.UnitPrice != nil {
		updated.UnitPrice = *req.UnitPrice
	}
	if req.UnitCost != nil {
		updated.UnitCost = *req.UnitCost
	}
	if req.Active != nil {
		updated.Active = *req.Active
	}

	saved, err := s.repo.UpdateItem(ctx, updated)
	if err != nil {
		return domain.Item{}, err
	}

	s.logAudit(ctx, "item_update", "item", saved.ID, fmt.Sprintf("name=%s,price=%d,cost=%d,active=%t", saved.Name, saved.UnitPrice, saved.UnitCost, saved.Active))

	return *saved, nil
}

func (s *Service) StockOpname(ctx context.Context, req domain.StockOpnameRequest) (domain.StockOpnameResponse, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return domain.StockOpnameResponse{}, fmt.Errorf("admin role required")
	}

	if len(req.Items) == 0 {
		return domain.StockOpnameResponse{}, store.ErrValidation
	}

	adjustments := make([]domain.StockOpnameAdjustment, 0, len(req.Items))
	for _, counted := range req.Items {
		counted.ItemID = strings.TrimSpace(counted.ItemID)
		if counted.ItemID == "" || counted.CountedQty < 0 {
			return domain.StockOpnameResponse{}, store.ErrValidation
		}
		item, err := s.repo.GetItemByID(ctx, counted.ItemID)
		if err != nil {
			return domain.StockOpnameResponse{}, err
		}
		if item.Stock != counted.CountedQty {
			if err := s.repo.SetStock(ctx, counted.ItemID, counted.CountedQty); err != nil {
				return domain.StockOpnameResponse{}, err
			}
		}
		adjustments = append(adjustments, domain.StockOpnameAdjustment{
			ItemID:     item.ID,
			Name:       item.Name,
			SystemQty:  item.Stock,
			CountedQty: counted.CountedQty,
			DeltaQty:   counted.CountedQty - item.Stock,
		})
	}

	opnameID := xid.New("opname")
	s.logAudit(ctx, "stock_opname", "inventory", opnameID, fmt.Sprintf("items=%d,notes=%s", len(req.Items), req.Notes))

	return domain.StockOpnameResponse{
		OpnameID:    opnameID,
		Notes:       req.Notes,
		Adjustments: adjustments,
		CreatedAt:   time.Now().UTC().Format(time.RFC3339),
	}, nil
}

func (s *Service) TransformInventory(ctx context.Context, req domain.TransformRequest) (domain.InventoryTransformation, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return domain.InventoryTransformation{}, fmt.Errorf("admin role required")
	}

	req.SourceItemID = strings.TrimSpace(req.SourceItemID)
	req.TargetItemID = strings.TrimSpace(req.TargetItemID)
	if req.SourceItemID == "" || req.TargetItemID == "" || req.SourceItemID == req.TargetItemID {
		return domain.InventoryTransformation{}, store.ErrValidation
	}
	if req.SourceQty < 1 || req.TargetQty < 1 {
		return domain.InventoryTransformation{}, store.ErrValidation
	}

	created, err := s.repo.TransformStock(ctx, domain.InventoryTransformation{
		SourceItemID: req.SourceItemID,
		TargetItemID: req.TargetItemID,
		SourceQty:    req.SourceQty,
		TargetQty:    req.TargetQty,
		Note:         strings.TrimSpace(req.Note),
		PerformedBy:  actor.Username,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		return domain.InventoryTransformation{}, err
	}

	s.logAudit(ctx, "inventory_transform", "inventory", created.ID, fmt.Sprintf("source=%s:%d,target=%s:%d", created.SourceItemID, created.SourceQty, created.TargetItemID, created.TargetQty))

	return *created, nil
}

func (s *Service) Checkout(ctx context.Context, req domain.CheckoutRequest) (domain.CheckoutResponse, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return domain.CheckoutResponse{}, fmt.Errorf("cashier identity required")
	}

	if req.PaymentMethod == "" {
		req.PaymentMethod = domain.PaymentCash
	}
	if req.PaymentMethod != domain.PaymentCash && req.PaymentMethod != domain.PaymentCredit {
		return domain.CheckoutResponse{}, store.ErrValidation
	}
	req.MemberID = strings.TrimSpace(req.MemberID)
	if req.PaymentMethod == domain.PaymentCredit && req.MemberID == "" {
		return domain.CheckoutResponse{}, fmt.Errorf("%w: penjualan kredit membutuhkan id anggota", store.ErrValidation)
	}

	shift, err := s.repo.GetActiveShift(ctx, actor.Username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.CheckoutResponse{}, fmt.Errorf("active shift required")
		}
		return domain.CheckoutResponse{}, err
	}

	normalized := normalizeCartLines(req.CartItems)
	if len(normalized) == 0 {
		return domain.CheckoutResponse{}, store.ErrValidation
	}

	ids := make([]string, 0, len(normalized))
	for _, line := range normalized {
		ids = append(ids, line.ItemID)
	}
	catalog, err := s.repo.GetItemsByIDs(ctx, ids)
	if err != nil {
		return domain.CheckoutResponse{}, err
	}

	total := int64(0)
	lineItems := make([]domain.TransactionLine, 0, len(normalized))
	for _, line := range normalized {
		item, exists := catalog[line.ItemID]
		if !exists {
			return domain.CheckoutResponse{}, store.ErrValidation
		}
		lineItems = append(lineItems, domain.TransactionLine{
			ItemID:    item.ID,
			Name:      item.Name,
			Qty:       line.Qty,
			UnitPrice: item.UnitPrice,
			UnitCost:  item.UnitCost,
		})
		total += int64(line.Qty) * item.UnitPrice
	}

	tx := domain.Transaction{
		ID:            xid.New("trx"),
		ShiftID:       shift.ID,
		Cashier:       actor.Username,
		PaymentMethod: req.PaymentMethod,
		MemberID:      req.MemberID,
		Total:         total,
		CreatedAt:     time.Now().UTC(),
		Items:         lineItems,
	}

	if req.PaymentMethod == domain.PaymentCash {
		if req.CashReceived < total {
			return domain.CheckoutResponse{}, fmt.Errorf("%w: uang diterima kurang dari total", store.ErrValidation)
		}
		tx.CashReceived = req.CashReceived
		tx.Change = req.CashReceived - total
	}

	created, err := s.repo.CreateCheckout(ctx, tx, buildSaleEntries(tx))
	if err != nil {
		return domain.CheckoutResponse{}, err
	}

	s.logAudit(ctx, "checkout", "transaction", created.ID, fmt.Sprintf("number=%s,total=%d,payment=%s,items=%d", created.Number, created.Total, created.PaymentMethod, len(created.Items)))

	return toCheckoutResponse(created), nil
}

func (s *Service) GetTransaction(ctx context.Context, ref string) (domain.Transaction, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return domain.Transaction{}, store.ErrValidation
	}

	tx, err := s.repo.FindTransactionByID(ctx, ref)
	if errors.Is(err, store.ErrNotFound) {
		tx, err = s.repo.FindTransactionByNumber(ctx, ref)
	}
	if err != nil {
		return domain.Transaction{}, err
	}
	return *tx, nil
}

func (s *Service) ListTransactions(ctx context.Context, date string, limit int) ([]domain.Transaction, error) {
	if limit < 1 {
		limit = 100
	}
	from, to, err := dayRange(date)
	if err != nil {
		return nil, err
	}
	return s.repo.ListTransactions(ctx, from, to, limit)
}

func (s *Service) OpenShift(ctx context.Context, req domain.ShiftOpenRequest) (domain.ShiftResponse, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return domain.ShiftResponse{}, fmt.Errorf("cashier identity required")
	}
	if req.OpeningFloat < 0 {
		return domain.ShiftResponse{}, store.ErrValidation
	}

	shift := domain.Shift{
		ID:           xid.New("shift"),
		Cashier:      actor.Username,
		OpeningFloat: req.OpeningFloat,
		Status:       domain.ShiftStatusOpen,
		OpenedAt:     time.Now().UTC(),
	}
	saved, err := s.repo.CreateShift(ctx, shift)
	if err != nil {
		if errors.Is(err, store.ErrInvalidState) {
			return domain.ShiftResponse{}, fmt.Errorf("shift already open")
		}
		return domain.ShiftResponse{}, err
	}

	s.logAudit(ctx, "shift_open", "shift", saved.ID, fmt.Sprintf("opening_float=%d", req.OpeningFloat))

	return domain.ShiftResponse{Shift: *saved}, nil
}

func (s *Service) GetActiveShift(ctx context.Context) (domain.ShiftResponse, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return domain.ShiftResponse{}, fmt.Errorf("cashier identity required")
	}

	shift, err := s.repo.GetActiveShift(ctx, actor.Username)
	if err != nil {
		return domain.ShiftResponse{}, err
	}

	return domain.ShiftResponse{Shift: *shift}, nil
}

// CloseShift reconciles the counted drawer against the shift's expected
// cash position before anything is persisted. A drawer that does not
// balance can still be closed, but only with an explanation on record.
func (s *Service) CloseShift(ctx context.Context, req domain.ShiftCloseRequest) (domain.ShiftCloseResponse, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return domain.ShiftCloseResponse{}, fmt.Errorf("cashier identity required")
	}

	shift, err := s.repo.GetActiveShift(ctx, actor.Username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.ShiftCloseResponse{}, fmt.Errorf("active shift required")
		}
		return domain.ShiftCloseResponse{}, err
	}

	sales, err := s.repo.ListShiftTransactions(ctx, shift.ID)
	if err != nil {
		return domain.ShiftCloseResponse{}, err
	}

	summary, err := s.engine.ComputeExpectedCash(shift.OpeningFloat, sales)
	if err != nil {
		return domain.ShiftCloseResponse{}, err
	}
	result, err := s.engine.Reconcile(req.CountedCash, summary)
	if err != nil {
		return domain.ShiftCloseResponse{}, err
	}

	explanation := strings.TrimSpace(req.Explanation)
	if result.ExplanationRequired && explanation == "" {
		return domain.ShiftCloseResponse{}, fmt.Errorf("%w: penjelasan selisih kas wajib diisi", store.ErrValidation)
	}

	report := domain.ClosedShiftReport{
		ID:               xid.New("cls"),
		ShiftID:          shift.ID,
		Cashier:          shift.Cashier,
		OpenedAt:         shift.OpenedAt,
		OpeningFloat:     shift.OpeningFloat,
		TotalSales:       summary.TotalSales,
		TotalCash:        summary.TotalCash,
		TotalCredit:      summary.TotalCredit,
		TransactionCount: summary.TransactionCount,
		ExpectedCash:     result.ExpectedCash,
		CountedCash:      result.CountedCash,
		Difference:       result.Difference,
		Status:           result.Status,
		Severity:         result.Severity,
		Explanation:      explanation,
	}

	saved, err := s.repo.CloseShift(ctx, shift.ID, time.Now().UTC(), report)
	if err != nil {
		return domain.ShiftCloseResponse{}, err
	}

	s.logAudit(ctx, "shift_close", "shift", shift.ID, fmt.Sprintf("expected=%d,counted=%d,status=%s,severity=%s", saved.ExpectedCash, saved.CountedCash, saved.Status, saved.Severity))

	return domain.ShiftCloseResponse{Report: *saved}, nil
}

func (s *Service) ListShiftReports(ctx context.Context, limit int) ([]domain.ClosedShiftReport, error) {
	if limit < 1 {
		limit = 50
	}
	return s.repo.ListClosedShiftReports(ctx, limit)
}

func (s *Service) ListJournalEntries(ctx context.Context, date string, limit int) ([]domain.JournalEntry, error) {
	if limit < 1 {
		limit = 100
	}
	from, to, err := dayRange(date)
	if err != nil {
		return nil, err
	}
	return s.repo.ListJournalEntries(ctx, from, to, limit)
}

func (s *Service) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	return s.repo.ListAccounts(ctx)
}

func (s *Service) DailyReport(ctx context.Context, date string) (domain.DailyReport, error) {
	from, to, err := dayRange(date)
	if err != nil {
		return domain.DailyReport{}, err
	}

	key := "pos:daily-report:" + from.Format("2006-01-02")
	if cached, found, err := s.reportCache.Get(ctx, key); err != nil {
		log.Printf("[service] WARN: report cache read failed key=%s: %v", key, err)
	} else if found {
		return *cached, nil
	}

	report, err := s.repo.GetDailyReport(ctx, from, to)
	if err != nil {
		return domain.DailyReport{}, err
	}
	report.Date = from.Format("2006-01-02")

	if err := s.reportCache.Set(ctx, key, &report, s.reportTTL); err != nil {
		log.Printf("[service] WARN: report cache write failed key=%s: %v", key, err)
	}

	return report, nil
}

func (s *Service) ListAuditLogs(ctx context.Context, date string, limit int) ([]domain.AuditLog, error) {
	if limit < 1 {
		limit = 100
	}

	var from time.Time
	if strings.TrimSpace(date) == "" {
		from = time.Now().UTC().Add(-24 * time.Hour)
	} else {
		parsed, err := time.Parse("2006-01-02", date)
		if err != nil {
			return nil, store.ErrValidation
		}
		from = parsed.UTC()
	}
	to := from.Add(24 * time.Hour)

	return s.repo.ListAuditLogs(ctx, from, to, limit)
}

func (s *Service) DetectOperationalAnomalies(ctx context.Context, date string) (domain.OperationalAlertResponse, error) {
	logs, err := s.ListAuditLogs(ctx, date, 500)
	if err != nil {
		return domain.OperationalAlertResponse{}, err
	}

	deletionsByActor := map[string]int{}
	opnameBatchCount := 0
	for _, entry := range logs {
		switch entry.Action {
		case "transaction_delete":
			deletionsByActor[entry.ActorUsername]++
		case "stock_opname":
			opnameBatchCount++
		}
	}

	from, to, err := dayRange(date)
	if err != nil {
		return domain.OperationalAlertResponse{}, err
	}
	reports, err := s.repo.ListClosedShiftReports(ctx, 0)
	if err != nil {
		return domain.OperationalAlertResponse{}, err
	}

	beratByCashier := map[string]int{}
	shortStreak := 0
	for _, report := range reports {
		if report.ClosedAt.Before(from) || !report.ClosedAt.Before(to) {
			continue
		}
		if report.Severity == domain.SeverityBerat {
			beratByCashier[report.Cashier]++
		}
		if report.Status == domain.ReconcileStatusShort {
			shortStreak++
		}
	}

	alerts := make([]domain.OperationalAlert, 0, 8)
	for actor, count := range deletionsByActor {
		if count >= 3 {
			alerts = append(alerts, domain.OperationalAlert{
				ID:          xid.New("alert"),
				Code:        "deletion_spike",
				Severity:    "high",
				Title:       "Penghapusan transaksi meningkat",
				Description: fmt.Sprintf("Actor %s menghapus %d transaksi dalam 1 hari.", actor, count),
				MetricValue: float64(count),
				Threshold:   3,
				CreatedAt:   time.Now().UTC().Format(time.RFC3339),
			})
		}
	}
	for cashier, count := range beratByCashier {
		alerts = append(alerts, domain.OperationalAlert{
			ID:          xid.New("alert"),
			Code:        "cash_variance_berat",
			Severity:    "high",
			Title:       "Selisih kas berat",
			Description: fmt.Sprintf("Kasir %s menutup %d shift dengan selisih kas berat.", cashier, count),
			MetricValue: float64(count),
			Threshold:   1,
			CreatedAt:   time.Now().UTC().Format(time.RFC3339),
		})
	}
	if shortStreak >= 3 {
		alerts = append(alerts, domain.OperationalAlert{
			ID:          xid.New("alert"),
			Code:        "cash_short_streak",
			Severity:    "medium",
			Title:       "Selisih kurang berulang",
			Description: fmt.Sprintf("Terdapat %d penutupan shift dengan kas kurang hari ini.", shortStreak),
			MetricValue: float64(shortStreak),
			Threshold:   3,
			CreatedAt:   time.Now().UTC().Format(time.RFC3339),
		})
	}
	if opnameBatchCount >= 3 {
		alerts = append(alerts, domain.OperationalAlert{
			ID:          xid.New("alert"),
			Code:        "stock_opname_frequency",
			Severity:    "medium",
			Title:       "Frekuensi stock opname tinggi",
			Description: fmt.Sprintf("Stock opname dijalankan %d kali hari ini.", opnameBatchCount),
			MetricValue: float64(opnameBatchCount),
			Threshold:   3,
			CreatedAt:   time.Now().UTC().Format(time.RFC3339),
		})
	}

	sort.Slice(alerts, func(i, j int) bool {
		if alerts[i].Severity == alerts[j].Severity {
			return alerts[i].MetricValue > alerts[j].MetricValue
		}
		return severityRank(alerts[i].Severity) < severityRank(alerts[j].Severity)
	})

	reportDate := strings.TrimSpace(date)
	if reportDate == "" {
		reportDate = time.Now().UTC().Format("2006-01-02")
	}

	return domain.OperationalAlertResponse{
		Date:   reportDate,
		Alerts: alerts,
	}, nil
}

func (s *Service) logAudit(ctx context.Context, action string, entityType string, entityID string, detail string) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		actor = domain.Actor{Username: "system", Role: "system"}
	}

	if err := s.repo.CreateAuditLog(ctx, domain.AuditLog{
		ID:            xid.New("audit"),
		ActorUsername: actor.Username,
		ActorRole:     actor.Role,
		Action:        action,
		EntityType:    entityType,
		EntityID:      entityID,
		Detail:        detail,
		CreatedAt:     time.Now().UTC(),
	}); err != nil {
		log.Printf("[audit] WARN: failed to write audit log action=%s entity=%s/%s: %v", action, entityType, entityID, err)
	}
}

// buildSaleEntries produces the balanced journal entries for a sale:
// one entry recognising the revenue against the paying account, and a
// second one moving inventory value into cost of goods sold when the
// sold items carry a unit cost.
func buildSaleEntries(tx domain.Transaction) []domain.JournalEntry {
	payAccount := domain.AccountKas
	description := "Penjualan tunai"
	if tx.PaymentMethod == domain.PaymentCredit {
		payAccount = domain.AccountPiutang
		description = "Penjualan kredit"
	}

	entries := []domain.JournalEntry{{
		Date:        tx.CreatedAt,
		Description: description,
		SourceType:  domain.JournalSourceSale,
		SourceID:    tx.ID,
		Postings: []domain.JournalPosting{
			{AccountCode: payAccount, Debit: tx.Total},
			{AccountCode: domain.AccountPendapatan, Kredit: tx.Total},
		},
	}}

	cogs := transactionCOGS(tx)
	if cogs > 0 {
		entries = append(entries, domain.JournalEntry{
			Date:        tx.CreatedAt,
			Description: "Beban pokok penjualan",
			SourceType:  domain.JournalSourceSale,
			SourceID:    tx.ID,
			Postings: []domain.JournalPosting{
				{AccountCode: domain.AccountHPP, Debit: cogs},
				{AccountCode: domain.AccountPersediaan, Kredit: cogs},
			},
		})
	}

	return entries
}

func transactionCOGS(tx domain.Transaction) int64 {
	cogs := int64(0)
	for _, line := range tx.Items {
		cogs += int64(line.Qty) * line.UnitCost
	}
	return cogs
}

func toCheckoutResponse(tx *domain.Transaction) domain.CheckoutResponse {
	itemCount := 0
	for _, line := range tx.Items {
		itemCount += line.Qty
	}

	return domain.CheckoutResponse{
		TransactionID:     tx.ID,
		TransactionNumber: tx.Number,
		PaymentMethod:     tx.PaymentMethod,
		MemberID:          tx.MemberID,
		Total:             tx.Total,
		CashReceived:      tx.CashReceived,
		Change:            tx.Change,
		ItemCount:         itemCount,
		ShiftID:           tx.ShiftID,
		CreatedAt:         tx.CreatedAt.Format(time.RFC3339),
	}
}

func normalizeCartLines(lines []domain.CartLine) []domain.CartLine {
	merged := make(map[string]int, len(lines))
	order := make([]string, 0, len(lines))
	for _, line := range lines {
		id := strings.TrimSpace(line.ItemID)
		if id == "" || line.Qty < 1 {
			continue
		}
		if _, seen := merged[id]; !seen {
			order = append(order, id)
		}
		merged[id] += line.Qty
	}

	normalized := make([]domain.CartLine, 0, len(order))
	for _, id := range order {
		normalized = append(normalized, domain.CartLine{ItemID: id, Qty: merged[id]})
	}
	return normalized
}

func dayRange(date string) (time.Time, time.Time, error) {
	var day time.Time
	if strings.TrimSpace(date) == "" {
		now := time.Now().UTC()
		day = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	} else {
		parsed, err := time.Parse("2006-01-02", date)
		if err != nil {
			return time.Time{}, time.Time{}, store.ErrValidation
		}
		day = parsed.UTC()
	}
	return day, day.Add(24 * time.Hour), nil
}

func severityRank(severity string) int {
	switch severity {
	case "high":
		return 1
	case "medium":
		return 2
	default:
		return 3
	}
}
