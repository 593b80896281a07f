package memory

import (
	"context"
	"fmt"
	"log"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"koperasikasir/backend/internal/domain"
	"koperasikasir/backend/internal/store"
	"koperasikasir/backend/internal/xid"
)

type Store struct {
	mu                   sync.RWMutex
	itemsByID            map[string]domain.Item
	transactionsByID     map[string]*domain.Transaction
	transactionIDByNum   map[string]string
	txSeq                int
	journalEntries       []domain.JournalEntry
	accountsByCode       map[string]domain.Account
	shiftsByID           map[string]domain.Shift
	activeShiftByCashier map[string]string
	closedReports        []domain.ClosedShiftReport
	deletionAudits       []domain.DeletionAuditRecord
	transformations      []domain.InventoryTransformation
	auditLogs            []domain.AuditLog
	usersByUsername      map[string]domain.UserAccount
}

// seedUsers builds the initial in-memory user accounts for dev/demo mode.
// Credentials are read from SEED_ADMIN_PASSWORD and SEED_CASHIER_PASSWORD
// environment variables. If unset, hardcoded dev defaults are used with a
// warning printed to stdout. These credentials are never used in production
// (the backend uses PostgreSQL when DATABASE_URL is set).
func seedUsers() map[string]domain.UserAccount {
	adminPwd := envOr("SEED_ADMIN_PASSWORD", "admin123")
	cashierPwd := envOr("SEED_CASHIER_PASSWORD", "cashier123")
	if os.Getenv("SEED_ADMIN_PASSWORD") == "" || os.Getenv("SEED_CASHIER_PASSWORD") == "" {
		log.Println("[memory-store] WARNING: using default dev credentials. Set SEED_ADMIN_PASSWORD and SEED_CASHIER_PASSWORD to override.")
	}

	now := time.Now().UTC()
	users := map[string]domain.UserAccount{}
	for _, u := range []struct {
		username string
		password string
		role     string
	}{
		{"admin", adminPwd, "admin"},
		{"cashier", cashierPwd, "cashier"},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("[memory-store] failed to hash seed password for %s: %v", u.username, err)
		}
		users[u.username] = domain.UserAccount{
			Username:  u.username,
			Password:  string(hash),
			Role:      u.role,
			Active:    true,
			CreatedAt: now,
		}
	}
	return users
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func seedAccounts() map[string]domain.Account {
	accounts := []domain.Account{
		{Code: domain.AccountKas, Name: "Kas", Type: domain.AccountTypeAsset},
		{Code: domain.AccountPiutang, Name: "Piutang Anggota", Type: domain.AccountTypeAsset},
		{Code: domain.AccountPersediaan, Name: "Persediaan Barang", Type: domain.AccountTypeAsset},
		{Code: domain.AccountPendapatan, Name: "Pendapatan Penjualan", Type: domain.AccountTypeRevenue},
		{Code: domain.AccountHPP, Name: "Beban Pokok Penjualan", Type: domain.AccountTypeExpense},
	}
	byCode := make(map[string]domain.Account, len(accounts))
	for _, account := range accounts {
		byCode[account.Code] = account
	}
	return byCode
}

func NewSeeded() *Store {
	now := time.Now().UTC()
	items := []domain.Item{
		{ID: "ITM-BERAS-01", Name: "Beras Premium 5kg", Category: "sembako", UnitPrice: 78_000, UnitCost: 70_500, Active: true},
		{ID: "ITM-MINYAK-01", Name: "Minyak Goreng 1L", Category: "sembako", UnitPrice: 19_500, UnitCost: 17_100, Active: true},
		{ID: "ITM-GULA-01", Name: "Gula Pasir 1kg", Category: "sembako", UnitPrice: 17_400, UnitCost: 15_700, Active: true},
		{ID: "ITM-TELUR-01", Name: "Telur Ayam 1kg", Category: "sembako", UnitPrice: 28_000, UnitCost: 25_200, Active: true},
		{ID: "ITM-MIE-01", Name: "Mie Instan Goreng", Category: "makanan", UnitPrice: 3_500, UnitCost: 2_800, Active: true},
		{ID: "ITM-KOPI-01", Name: "Kopi Sachet", Category: "minuman", UnitPrice: 2_600, UnitCost: 1_900, Active: true},
		{ID: "ITM-TEH-01", Name: "Teh Celup Isi 25", Category: "minuman", UnitPrice: 9_800, UnitCost: 7_600, Active: true},
		{ID: "ITM-AIR-01", Name: "Air Mineral 600ml", Category: "minuman", UnitPrice: 3_900, UnitCost: 3_100, Active: true},
		{ID: "ITM-SABUN-01", Name: "Sabun Mandi Batang", Category: "kebersihan", UnitPrice: 7_400, UnitCost: 5_500, Active: true},
		{ID: "ITM-DETER-01", Name: "Deterjen Bubuk 800g", Category: "kebersihan", UnitPrice: 21_500, UnitCost: 17_800, Active: true},
	}

	itemMap := make(map[string]domain.Item, len(items))
	for _, item := range items {
		item.Stock = 120
		item.UpdatedAt = now
		itemMap[item.ID] = item
	}

	return &Store{
		itemsByID:            itemMap,
		transactionsByID:     make(map[string]*domain.Transaction),
		transactionIDByNum:   make(map[string]string),
		journalEntries:       make([]domain.JournalEntry, 0, 128),
		accountsByCode:       seedAccounts(),
		shiftsByID:           make(map[string]domain.Shift),
		activeShiftByCashier: make(map[string]string),
		closedReports:        make([]domain.ClosedShiftReport, 0, 32),
		deletionAudits:       make([]domain.DeletionAuditRecord, 0, 32),
		transformations:      make([]domain.InventoryTransformation, 0, 32),
		auditLogs:            make([]domain.AuditLog, 0, 128),
		usersByUsername:      seedUsers(),
	}
}

func (s *Store) ListItems(_ context.Context) ([]domain.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]domain.Item, 0, len(s.itemsByID))
	for _, item := range s.itemsByID {
		if !item.Active {
			continue
		}
		items = append(items, item)
	}

	slices.SortFunc(items, func(a, b domain.Item) int {
		if a.Category == b.Category {
			return cmpString(a.Name, b.Name)
		}
		return cmpString(a.Category, b.Category)
	})

	return items, nil
}

func (s *Store) CreateItem(_ context.Context, item domain.Item) (*domain.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if item.Name == "" || item.Category == "" || item.UnitPrice < 1 {
		return nil, store.ErrValidation
	}
	if item.UnitCost < 0 || item.Stock < 0 {
		return nil, store.ErrValidation
	}
	if item.ID == "" {
		item.ID = xid.New("itm")
	}
	if _, exists := s.itemsByID[item.ID]; exists {
		return nil, store.ErrValidation
	}

	item.Active = true
	item.UpdatedAt = time.Now().UTC()
	s.itemsByID[item.ID] = item
	created := item
	return &created, nil
}

func (s *Store) GetItemByID(_ context.Context, id string) (*domain.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, exists := s.itemsByID[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyItem := item
	return &copyItem, nil
}

func (s *Store) UpdateItem(_ context.Context, item domain.Item) (*domain.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if item.ID == "" || item.Name == "" || item.Category == "" || item.UnitPrice < 1 {
		return nil, store.ErrValidation
	}
	if item.UnitCost < 0 || item.Stock < 0 {
		return nil, store.ErrValidation
	}
	if _, exists := s.itemsByID[item.ID]; !exists {
		return nil, store.ErrNotFound
	}

	item.UpdatedAt = time.Now().UTC()
	s.itemsByID[item.ID] = item
	updated := item
	return &updated, nil
}

func (s *Store) GetItemsByIDs(_ context.Context, ids []string) (map[string]domain.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]domain.Item, len(ids))
	for _, id := range ids {
		if item, ok := s.itemsByID[id]; ok && item.Active {
			result[id] = item
		}
	}
	return result, nil
}

func (s *Store) SetStock(_ context.Context, itemID string, qty int) error {
	if itemID == "" || qty < 0 {
		return store.ErrValidation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	item, exists := s.itemsByID[itemID]
	if !exists {
		return store.ErrNotFound
	}
	item.Stock = qty
	item.UpdatedAt = time.Now().UTC()
	s.itemsByID[itemID] = item
	return nil
}

func (s *Store) TransformStock(_ context.Context, transformation domain.InventoryTransformation) (*domain.InventoryTransformation, error) {
	if transformation.SourceItemID == "" || transformation.TargetItemID == "" {
		return nil, store.ErrValidation
	}
	if transformation.SourceItemID == transformation.TargetItemID {
		return nil, store.ErrValidation
	}
	if transformation.SourceQty < 1 || transformation.TargetQty < 1 {
		return nil, store.ErrValidation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	source, exists := s.itemsByID[transformation.SourceItemID]
	if !exists {
		return nil, store.ErrNotFound
	}
	target, exists := s.itemsByID[transformation.TargetItemID]
	if !exists {
		return nil, store.ErrNotFound
	}
	if source.Stock < transformation.SourceQty {
		return nil, store.ErrInsufficientStock
	}

	now := time.Now().UTC()
	source.Stock -= transformation.SourceQty
	source.UpdatedAt = now
	target.Stock += transformation.TargetQty
	target.UpdatedAt = now
	s.itemsByID[source.ID] = source
	s.itemsByID[target.ID] = target

	if transformation.ID == "" {
		transformation.ID = xid.New("tfm")
	}
	if transformation.CreatedAt.IsZero() {
		transformation.CreatedAt = now
	}
	transformation.SourceName = source.Name
	transformation.TargetName = target.Name
	s.transformations = append(s.transformations, transformation)

	created := transformation
	return &created, nil
}

func (s *Store) FindTransactionByID(_ context.Context, id string) (*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tx, ok := s.transactionsByID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return cloneTransaction(tx), nil
}

func (s *Store) FindTransactionByNumber(_ context.Context, number string) (*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.transactionIDByNum[number]
	if !ok {
		return nil, store.ErrNotFound
	}
	tx, ok := s.transactionsByID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return cloneTransaction(tx), nil
}

func (s *Store) ListTransactions(_ context.Context, from time.Time, to time.Time, limit int) ([]domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Transaction, 0, 64)
	for _, tx := range s.transactionsByID {
		if tx.CreatedAt.Before(from) || !tx.CreatedAt.Before(to) {
			continue
		}
		result = append(result, *cloneTransaction(tx))
	}

	slices.SortFunc(result, func(a, b domain.Transaction) int {
		if a.CreatedAt.Equal(b.CreatedAt) {
			return cmpString(b.ID, a.ID)
		}
		if a.CreatedAt.After(b.CreatedAt) {
			return -1
		}
		return 1
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *Store) ListShiftTransactions(_ context.Context, shiftID string) ([]domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Transaction, 0, 32)
	for _, tx := range s.transactionsByID {
		if tx.ShiftID != shiftID {
			continue
		}
		result = append(result, *cloneTransaction(tx))
	}

	slices.SortFunc(result, func(a, b domain.Transaction) int {
		if a.CreatedAt.Equal(b.CreatedAt) {
			return cmpString(a.ID, b.ID)
		}
		if a.CreatedAt.Before(b.CreatedAt) {
			return -1
		}
		return 1
	})
	return result, nil
}

func (s *Store) CreateCheckout(_ context.Context, tx domain.Transaction, entries []domain.JournalEntry) (*domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(tx.Items) == 0 {
		return nil, store.ErrValidation
	}

	for _, line := range tx.Items {
		if line.Qty < 1 {
			return nil, store.ErrValidation
		}
		item, exists := s.itemsByID[line.ItemID]
		if !exists || !item.Active {
			return nil, fmt.Errorf("item %s unavailable", line.ItemID)
		}
		if item.Stock < line.Qty {
			return nil, store.ErrInsufficientStock
		}
	}

	for _, entry := range entries {
		if err := s.validateEntryLocked(entry); err != nil {
			return nil, err
		}
	}

	if tx.ID == "" {
		tx.ID = xid.New("trx")
	}
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now().UTC()
	}
	if tx.Number == "" {
		s.txSeq++
		tx.Number = fmt.Sprintf("TRX-%s-%04d", tx.CreatedAt.Format("20060102"), s.txSeq)
	}

	now := time.Now().UTC()
	for _, line := range tx.Items {
		item := s.itemsByID[line.ItemID]
		item.Stock -= line.Qty
		item.UpdatedAt = now
		s.itemsByID[line.ItemID] = item
	}

	for _, entry := range entries {
		s.appendEntryLocked(entry, domain.JournalSourceSale, tx.ID)
	}

	s.transactionsByID[tx.ID] = cloneTransaction(&tx)
	s.transactionIDByNum[tx.Number] = tx.ID
	return cloneTransaction(&tx), nil
}

func (s *Store) ExecuteDeletion(_ context.Context, transactionID string, entries []domain.JournalEntry, audit domain.DeletionAuditRecord) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, ok := s.transactionsByID[transactionID]
	if !ok {
		return nil, store.ErrNotFound
	}

	for _, report := range s.closedReports {
		if !tx.CreatedAt.Before(report.OpenedAt) && !tx.CreatedAt.After(report.ClosedAt) {
			return nil, store.ErrClosedPeriod
		}
	}

	for _, entry := range entries {
		if err := s.validateEntryLocked(entry); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	warnings := make([]string, 0, 2)
	for _, line := range tx.Items {
		item, exists := s.itemsByID[line.ItemID]
		if !exists {
			warnings = append(warnings, fmt.Sprintf("%s tidak ditemukan, stok tidak dapat dikembalikan", line.Name))
			continue
		}
		item.Stock += line.Qty
		item.UpdatedAt = now
		s.itemsByID[line.ItemID] = item
	}

	for _, entry := range entries {
		s.appendEntryLocked(entry, domain.JournalSourceDeletion, tx.ID)
	}

	delete(s.transactionIDByNum, tx.Number)
	delete(s.transactionsByID, tx.ID)

	if audit.ID == "" {
		audit.ID = xid.New("del")
	}
	if audit.DeletedAt.IsZero() {
		audit.DeletedAt = now
	}
	audit.Warnings = append([]string(nil), warnings...)
	s.deletionAudits = append(s.deletionAudits, audit)

	return warnings, nil
}

func (s *Store) ListDeletionAudits(_ context.Context, transactionID string, from time.Time, to time.Time, limit int) ([]domain.DeletionAuditRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.DeletionAuditRecord, 0, 16)
	for _, record := range s.deletionAudits {
		if transactionID != "" && record.TransactionID != transactionID && record.TransactionNumber != transactionID {
			continue
		}
		if record.DeletedAt.Before(from) || !record.DeletedAt.Before(to) {
			continue
		}
		result = append(result, cloneDeletionAudit(record))
	}

	slices.SortFunc(result, func(a, b domain.DeletionAuditRecord) int {
		if a.DeletedAt.Equal(b.DeletedAt) {
			return cmpString(b.ID, a.ID)
		}
		if a.DeletedAt.After(b.DeletedAt) {
			return -1
		}
		return 1
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// validateEntryLocked enforces the double-entry invariant before any
// mutation happens. Callers must hold the write lock.
func (s *Store) validateEntryLocked(entry domain.JournalEntry) error {
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
		if _, exists := s.accountsByCode[posting.AccountCode]; !exists {
			return fmt.Errorf("%w: unknown account %s", store.ErrValidation, posting.AccountCode)
		}
		totalDebit += posting.Debit
		totalKredit += posting.Kredit
	}
	if totalDebit != totalKredit || totalDebit == 0 {
		return fmt.Errorf("%w: journal entry is not balanced", store.ErrValidation)
	}
	return nil
}

func (s *Store) appendEntryLocked(entry domain.JournalEntry, sourceType string, sourceID string) {
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

	for _, posting := range entry.Postings {
		account := s.accountsByCode[posting.AccountCode]
		switch account.Type {
		case domain.AccountTypeAsset, domain.AccountTypeExpense:
			account.Balance += posting.Debit - posting.Kredit
		default:
			account.Balance += posting.Kredit - posting.Debit
		}
		s.accountsByCode[posting.AccountCode] = account
	}

	s.journalEntries = append(s.journalEntries, cloneJournalEntry(entry))
}

func (s *Store) ListJournalEntries(_ context.Context, from time.Time, to time.Time, limit int) ([]domain.JournalEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.JournalEntry, 0, 64)
	for _, entry := range s.journalEntries {
		if entry.Date.Before(from) || !entry.Date.Before(to) {
			continue
		}
		result = append(result, cloneJournalEntry(entry))
	}

	slices.SortFunc(result, func(a, b domain.JournalEntry) int {
		if a.Date.Equal(b.Date) {
			return cmpString(b.ID, a.ID)
		}
		if a.Date.After(b.Date) {
			return -1
		}
		return 1
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *Store) ListAccounts(_ context.Context) ([]domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	accounts := make([]domain.Account, 0, len(s.accountsByCode))
	for _, account := range s.accountsByCode {
		accounts = append(accounts, account)
	}
	slices.SortFunc(accounts, func(a, b domain.Account) int {
		return cmpString(a.Code, b.Code)
	})
	return accounts, nil
}

func (s *Store) CreateShift(_ context.Context, shift domain.Shift) (*domain.Shift, error) {
	if strings.TrimSpace(shift.Cashier) == "" {
		return nil, store.ErrValidation
	}
	if shift.OpeningFloat < 0 {
		return nil, store.ErrValidation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.activeShiftByCashier[shift.Cashier]; exists {
		return nil, store.ErrInvalidState
	}
	if shift.ID == "" {
		shift.ID = xid.New("shift")
	}
	if shift.OpenedAt.IsZero() {
		shift.OpenedAt = time.Now().UTC()
	}
	shift.Status = domain.ShiftStatusOpen
	shift.ClosedAt = nil

	s.shiftsByID[shift.ID] = shift
	s.activeShiftByCashier[shift.Cashier] = shift.ID
	copyShift := shift
	return &copyShift, nil
}

func (s *Store) GetActiveShift(_ context.Context, cashier string) (*domain.Shift, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	shiftID, exists := s.activeShiftByCashier[cashier]
	if !exists {
		return nil, store.ErrNotFound
	}
	shift, exists := s.shiftsByID[shiftID]
	if !exists || shift.Status != domain.ShiftStatusOpen {
		return nil, store.ErrNotFound
	}
	copyShift := shift
	return &copyShift, nil
}

func (s *Store) CloseShift(_ context.Context, shiftID string, closedAt time.Time, report domain.ClosedShiftReport) (*domain.ClosedShiftReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	shift, exists := s.shiftsByID[shiftID]
	if !exists {
		return nil, store.ErrNotFound
	}
	if shift.Status != domain.ShiftStatusOpen {
		return nil, store.ErrInvalidState
	}
	if closedAt.IsZero() {
		closedAt = time.Now().UTC()
	}

	shift.Status = domain.ShiftStatusClosed
	shift.ClosedAt = &closedAt
	s.shiftsByID[shiftID] = shift
	delete(s.activeShiftByCashier, shift.Cashier)

	if report.ID == "" {
		report.ID = xid.New("cls")
	}
	report.ShiftID = shiftID
	report.Cashier = shift.Cashier
	report.OpenedAt = shift.OpenedAt
	report.ClosedAt = closedAt
	s.closedReports = append(s.closedReports, report)

	copyReport := report
	return &copyReport, nil
}

func (s *Store) ListClosedShiftReports(_ context.Context, limit int) ([]domain.ClosedShiftReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.ClosedShiftReport, len(s.closedReports))
	copy(result, s.closedReports)
	slices.SortFunc(result, func(a, b domain.ClosedShiftReport) int {
		if a.ClosedAt.Equal(b.ClosedAt) {
			return cmpString(b.ID, a.ID)
		}
		if a.ClosedAt.After(b.ClosedAt) {
			return -1
		}
		return 1
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *Store) GetDailyReport(_ context.Context, from time.Time, to time.Time) (domain.DailyReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	report := domain.DailyReport{
		Date:      from.UTC().Format("2006-01-02"),
		ByPayment: make([]domain.DailyReportPayment, 0, 2),
	}
	byPayment := map[string]*domain.DailyReportPayment{}

	for _, tx := range s.transactionsByID {
		if tx.CreatedAt.Before(from) || !tx.CreatedAt.Before(to) {
			continue
		}

		report.Transactions++
		report.GrossSales += tx.Total
		for _, line := range tx.Items {
			report.TotalHPP += int64(line.Qty) * line.UnitCost
			report.ItemsSold += int64(line.Qty)
		}

		payment := byPayment[tx.PaymentMethod]
		if payment == nil {
			payment = &domain.DailyReportPayment{PaymentMethod: tx.PaymentMethod}
			byPayment[tx.PaymentMethod] = payment
		}
		payment.Transactions++
		payment.Total += tx.Total
	}

	for _, record := range s.deletionAudits {
		if record.DeletedAt.Before(from) || !record.DeletedAt.Before(to) {
			continue
		}
		report.Deletions++
		report.DeletedAmount += record.Snapshot.Total
	}

	report.EstimatedMargin = report.GrossSales - report.TotalHPP

	for _, entry := range byPayment {
		report.ByPayment = append(report.ByPayment, *entry)
	}
	slices.SortFunc(report.ByPayment, func(a, b domain.DailyReportPayment) int {
		return cmpString(a.PaymentMethod, b.PaymentMethod)
	})

	return report, nil
}

func (s *Store) CreateAuditLog(_ context.Context, entry domain.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.ID == "" {
		entry.ID = xid.New("audit")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	s.auditLogs = append(s.auditLogs, entry)
	return nil
}

func (s *Store) ListAuditLogs(_ context.Context, from time.Time, to time.Time, limit int) ([]domain.AuditLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.AuditLog, 0, 64)
	for _, entry := range s.auditLogs {
		if entry.CreatedAt.Before(from) || !entry.CreatedAt.Before(to) {
			continue
		}
		result = append(result, entry)
	}

	slices.SortFunc(result, func(a, b domain.AuditLog) int {
		if a.CreatedAt.Equal(b.CreatedAt) {
			return cmpString(b.ID, a.ID)
		}
		if a.CreatedAt.After(b.CreatedAt) {
			return -1
		}
		return 1
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *Store) CreateUser(_ context.Context, user domain.UserAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	username := strings.ToLower(strings.TrimSpace(user.Username))
	if username == "" || strings.TrimSpace(user.Password) == "" {
		return store.ErrValidation
	}
	if _, exists := s.usersByUsername[username]; exists {
		return store.ErrValidation
	}
	user.Username = username
	if user.Role == "" {
		user.Role = "cashier"
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	user.Active = true
	s.usersByUsername[user.Username] = user
	return nil
}

func (s *Store) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]domain.UserAccount, 0, len(s.usersByUsername))
	for _, user := range s.usersByUsername {
		users = append(users, user)
	}
	slices.SortFunc(users, func(a, b domain.UserAccount) int {
		return cmpString(a.Username, b.Username)
	})
	return users, nil
}

func (s *Store) UpdateUserPassword(_ context.Context, username string, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" || strings.TrimSpace(password) == "" {
		return store.ErrValidation
	}
	user, exists := s.usersByUsername[username]
	if !exists {
		return store.ErrNotFound
	}
	user.Password = password
	s.usersByUsername[username] = user
	return nil
}

func cmpString(a string, b string) int {
	if a == b {
		return 0
	}
	if a < b {
		return -1
	}
	return 1
}

func cloneTransaction(src *domain.Transaction) *domain.Transaction {
	if src == nil {
		return nil
	}
	dup := *src
	dupItems := make([]domain.TransactionLine, len(src.Items))
	copy(dupItems, src.Items)
	dup.Items = dupItems
	return &dup
}

func cloneJournalEntry(src domain.JournalEntry) domain.JournalEntry {
	dup := src
	dupPostings := make([]domain.JournalPosting, len(src.Postings))
	copy(dupPostings, src.Postings)
	dup.Postings = dupPostings
	return dup
}

func cloneDeletionAudit(src domain.DeletionAuditRecord) domain.DeletionAuditRecord {
	dup := src
	dup.Snapshot = *cloneTransaction(&src.Snapshot)
	dupWarnings := make([]string, len(src.Warnings))
	copy(dupWarnings, src.Warnings)
	dup.Warnings = dupWarnings
	return dup
}
