package domain

import "time"

type Item struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	UnitPrice int64     `json:"unit_price"`
	UnitCost  int64     `json:"unit_cost"`
	Stock     int       `json:"stock"`
	Active    bool      `json:"active"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ItemCreateRequest struct {
	Name         string `json:"name"`
	Category     string `json:"category"`
	UnitPrice    int64  `json:"unit_price"`
	UnitCost     int64  `json:"unit_cost"`
	InitialStock int    `json:"initial_stock"`
}

type ItemUpdateRequest struct {
	Name      *string `json:"name,omitempty"`
	Category  *string `json:"category,omitempty"`
	UnitPrice *int64  `json:"unit_price,omitempty"`
	UnitCost  *int64  `json:"unit_cost,omitempty"`
	Active    *bool   `json:"active,omitempty"`
}

type StockOpnameItem struct {
	ItemID     string `json:"item_id"`
	CountedQty int    `json:"counted_qty"`
}

type StockOpnameRequest struct {
	Notes string            `json:"notes"`
	Items []StockOpnameItem `json:"items"`
}

type StockOpnameAdjustment struct {
	ItemID     string `json:"item_id"`
	Name       string `json:"name"`
	SystemQty  int    `json:"system_qty"`
	CountedQty int    `json:"counted_qty"`
	DeltaQty   int    `json:"delta_qty"`
}

type StockOpnameResponse struct {
	OpnameID    string                  `json:"opname_id"`
	Notes       string                  `json:"notes"`
	Adjustments []StockOpnameAdjustment `json:"adjustments"`
	CreatedAt   string                  `json:"created_at"`
}

type TransformRequest struct {
	SourceItemID string `json:"source_item_id"`
	TargetItemID string `json:"target_item_id"`
	SourceQty    int    `json:"source_qty"`
	TargetQty    int    `json:"target_qty"`
	Note         string `json:"note"`
}

type InventoryTransformation struct {
	ID           string    `json:"id"`
	SourceItemID string    `json:"source_item_id"`
	SourceName   string    `json:"source_name"`
	TargetItemID string    `json:"target_item_id"`
	TargetName   string    `json:"target_name"`
	SourceQty    int       `json:"source_qty"`
	TargetQty    int       `json:"target_qty"`
	Note         string    `json:"note,omitempty"`
	PerformedBy  string    `json:"performed_by"`
	CreatedAt    time.Time `json:"created_at"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expires_at"`
}

type Actor struct {
	Username string
	Role     string
}

type CartLine struct {
	ItemID string `json:"item_id"`
	Qty    int    `json:"qty"`
}

type CheckoutRequest struct {
	PaymentMethod string     `json:"payment_method"`
	MemberID      string     `json:"member_id,omitempty"`
	CashReceived  int64      `json:"cash_received"`
	CartItems     []CartLine `json:"cart_items"`
}

type CheckoutResponse struct {
	TransactionID     string `json:"transaction_id"`
	TransactionNumber string `json:"transaction_number"`
	PaymentMethod     string `json:"payment_method"`
	MemberID          string `json:"member_id,omitempty"`
	Total             int64  `json:"total"`
	CashReceived      int64  `json:"cash_received"`
	Change            int64  `json:"change"`
	ItemCount         int    `json:"item_count"`
	ShiftID           string `json:"shift_id"`
	CreatedAt         string `json:"created_at"`
}

type TransactionLine struct {
	ItemID    string `json:"item_id"`
	Name      string `json:"name"`
	Qty       int    `json:"qty"`
	UnitPrice int64  `json:"unit_price"`
	UnitCost  int64  `json:"unit_cost"`
}

type Transaction struct {
	ID            string            `json:"id"`
	Number        string            `json:"number"`
	ShiftID       string            `json:"shift_id"`
	Cashier       string            `json:"cashier"`
	PaymentMethod string            `json:"payment_method"`
	MemberID      string            `json:"member_id,omitempty"`
	Total         int64             `json:"total"`
	CashReceived  int64             `json:"cash_received,omitempty"`
	Change        int64             `json:"change,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	Items         []TransactionLine `json:"items"`
}

type JournalPosting struct {
	AccountCode string `json:"account_code"`
	Debit       int64  `json:"debit"`
	Kredit      int64  `json:"kredit"`
}

type JournalEntry struct {
	ID          string           `json:"id"`
	Date        time.Time        `json:"date"`
	Description string           `json:"description"`
	SourceType  string           `json:"source_type"`
	SourceID    string           `json:"source_id"`
	Postings    []JournalPosting `json:"postings"`
}

type Account struct {
	Code    string `json:"code"`
	Name    string `json:"name"`
	Type    string `json:"type"`
	Balance int64  `json:"balance"`
}

type Shift struct {
	ID           string     `json:"id"`
	Cashier      string     `json:"cashier"`
	OpeningFloat int64      `json:"opening_float"`
	Status       string     `json:"status"`
	OpenedAt     time.Time  `json:"opened_at"`
	ClosedAt     *time.Time `json:"closed_at,omitempty"`
}

type ShiftOpenRequest struct {
	OpeningFloat int64 `json:"opening_float"`
}

type ShiftCloseRequest struct {
	CountedCash int64  `json:"counted_cash"`
	Explanation string `json:"explanation"`
}

type ShiftResponse struct {
	Shift Shift `json:"shift"`
}

type CashSummary struct {
	TotalSales       int64 `json:"total_sales"`
	TotalCash        int64 `json:"total_cash"`
	TotalCredit      int64 `json:"total_credit"`
	TransactionCount int   `json:"transaction_count"`
	ExpectedCash     int64 `json:"expected_cash"`
}

type ReconciliationResult struct {
	ExpectedCash        int64   `json:"expected_cash"`
	CountedCash         int64   `json:"counted_cash"`
	Difference          int64   `json:"difference"`
	AbsoluteDifference  int64   `json:"absolute_difference"`
	PercentDifference   float64 `json:"percent_difference"`
	Status              string  `json:"status"`
	Severity            string  `json:"severity"`
	ExplanationRequired bool    `json:"explanation_required"`
}

type ClosedShiftReport struct {
	ID               string    `json:"id"`
	ShiftID          string    `json:"shift_id"`
	Cashier          string    `json:"cashier"`
	OpenedAt         time.Time `json:"opened_at"`
	ClosedAt         time.Time `json:"closed_at"`
	OpeningFloat     int64     `json:"opening_float"`
	TotalSales       int64     `json:"total_sales"`
	TotalCash        int64     `json:"total_cash"`
	TotalCredit      int64     `json:"total_credit"`
	TransactionCount int       `json:"transaction_count"`
	ExpectedCash     int64     `json:"expected_cash"`
	CountedCash      int64     `json:"counted_cash"`
	Difference       int64     `json:"difference"`
	Status           string    `json:"status"`
	Severity         string    `json:"severity"`
	Explanation      string    `json:"explanation,omitempty"`
}

type ShiftCloseResponse struct {
	Report ClosedShiftReport `json:"report"`
}

type DeleteTransactionRequest struct {
	Reason     string `json:"reason"`
	ManagerPIN string `json:"manager_pin"`
}

type DeletionResult struct {
	Success           bool     `json:"success"`
	Message           string   `json:"message"`
	TransactionID     string   `json:"transaction_id,omitempty"`
	TransactionNumber string   `json:"transaction_number,omitempty"`
	Warnings          []string `json:"warnings,omitempty"`
	DeletedAt         string   `json:"deleted_at,omitempty"`
}

type DeletionAuditRecord struct {
	ID                string      `json:"id"`
	TransactionID     string      `json:"transaction_id"`
	TransactionNumber string      `json:"transaction_number"`
	Snapshot          Transaction `json:"snapshot"`
	Reason            string      `json:"reason"`
	DeletedBy         string      `json:"deleted_by"`
	Warnings          []string    `json:"warnings,omitempty"`
	DeletedAt         time.Time   `json:"deleted_at"`
}

type DailyReportPayment struct {
	PaymentMethod string `json:"payment_method"`
	Transactions  int64  `json:"transactions"`
	Total         int64  `json:"total"`
}

type DailyReport struct {
	Date            string               `json:"date"`
	Transactions    int64                `json:"transactions"`
	GrossSales      int64                `json:"gross_sales"`
	TotalHPP        int64                `json:"total_hpp"`
	EstimatedMargin int64                `json:"estimated_margin"`
	ItemsSold       int64                `json:"items_sold"`
	ByPayment       []DailyReportPayment `json:"by_payment"`
	Deletions       int64                `json:"deletions"`
	DeletedAmount   int64                `json:"deleted_amount"`
}

type OperationalAlert struct {
	ID          string  `json:"id"`
	Code        string  `json:"code"`
	Severity    string  `json:"severity"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	MetricValue float64 `json:"metric_value"`
	Threshold   float64 `json:"threshold"`
	CreatedAt   string  `json:"created_at"`
}

type OperationalAlertResponse struct {
	Date   string             `json:"date"`
	Alerts []OperationalAlert `json:"alerts"`
}

type AuditLog struct {
	ID            string    `json:"id"`
	ActorUsername string    `json:"actor_username"`
	ActorRole     string    `json:"actor_role"`
	Action        string    `json:"action"`
	EntityType    string    `json:"entity_type"`
	EntityID      string    `json:"entity_id"`
	Detail        string    `json:"detail"`
	CreatedAt     time.Time `json:"created_at"`
}

type CashierCreateRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type CashierUser struct {
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// UserAccount is an internal persistence model for auth credentials.
type UserAccount struct {
	Username  string
	Password  string
	Role      string
	Active    bool
	CreatedAt time.Time
}

const (
	PaymentCash   = "cash"
	PaymentCredit = "credit"
)

const (
	ShiftStatusOpen   = "open"
	ShiftStatusClosed = "closed"
)

const (
	ReconcileStatusBalanced = "sesuai"
	ReconcileStatusOver     = "lebih"
	ReconcileStatusShort    = "kurang"
)

const (
	SeverityNormal = "normal"
	SeverityRingan = "ringan"
	SeveritySedang = "sedang"
	SeverityBerat  = "berat"
)

const (
	AccountTypeAsset     = "asset"
	AccountTypeLiability = "liability"
	AccountTypeEquity    = "equity"
	AccountTypeRevenue   = "revenue"
	AccountTypeExpense   = "expense"
)

const (
	AccountKas        = "101"
	AccountPiutang    = "102"
	AccountPersediaan = "103"
	AccountPendapatan = "401"
	AccountHPP        = "501"
)

const (
	JournalSourceSale     = "sale"
	JournalSourceDeletion = "deletion"
)
