// Package domain defines the core business entities for the treasury
// service. These models are independent of external services and represent
// the canonical data structures used throughout the application.
package domain

import "time"

// ============================================================
// Companies
// ============================================================

// Company represents a company scope that owns accounts, credit lines
// and recurrence templates.
type Company struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Name      string    `json:"name"`
	Document  string    `json:"document,omitempty"`
	Currency  string    `json:"currency"`
	CreatedAt time.Time `json:"created_at"`
}

// ============================================================
// Bank Accounts
// ============================================================

// Account represents a company bank account.
type Account struct {
	ID            string    `json:"id"`
	CompanyID     string    `json:"company_id"`
	Name          string    `json:"name"`
	BankName      string    `json:"bank_name,omitempty"`
	BankCode      string    `json:"bank_code,omitempty"`
	AccountNumber string    `json:"account_number,omitempty"`
	Balance       float64   `json:"balance"`
	Currency      string    `json:"currency"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

// ============================================================
// Credit Lines
// ============================================================

// CreditLine represents a revolving credit facility for a company.
type CreditLine struct {
	ID           string     `json:"id"`
	CompanyID    string     `json:"company_id"`
	Name         string     `json:"name"`
	Limit        float64    `json:"limit"`
	Drawn        float64    `json:"drawn"`
	InterestRate float64    `json:"interest_rate"`
	MaturityDate *time.Time `json:"maturity_date,omitempty"`
	Status       string     `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Available returns the undrawn portion of the credit line.
func (c *CreditLine) Available() float64 {
	return c.Limit - c.Drawn
}

// ============================================================
// Transactions
// ============================================================

// Transaction direction values.
const (
	DirectionIncome  = "income"
	DirectionExpense = "expense"
)

// Transaction status values.
const (
	TransactionPending   = "pending"
	TransactionCompleted = "completed"
	TransactionCancelled = "cancelled"
)

// Transaction represents a ledger entry: either a manually created entry
// or an instance materialized from a recurrence template.
type Transaction struct {
	ID             string    `json:"id"`
	CompanyID      string    `json:"company_id"`
	OwnerID        string    `json:"owner_id"`
	AccountID      string    `json:"account_id,omitempty"`
	DueDate        time.Time `json:"due_date"`
	Amount         float64   `json:"amount"`
	Direction      string    `json:"direction"` // income, expense
	Category       string    `json:"category,omitempty"`
	Description    string    `json:"description,omitempty"`
	CounterpartyID string    `json:"counterparty_id,omitempty"`
	Status         string    `json:"status"`

	// Recurrence bookkeeping. RecurrenceID is empty for one-off entries.
	RecurrenceID        string `json:"recurrence_id,omitempty"`
	IsRecurringInstance bool   `json:"is_recurring_instance,omitempty"`
	InstanceDate        string `json:"instance_date,omitempty"` // YYYY-MM
	UserOverride        bool   `json:"user_override,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// DayKey returns the calendar-day key used for duplicate detection.
func (t *Transaction) DayKey() string {
	return t.DueDate.Format("2006-01-02")
}

// TransactionRequest is the payload to create a transaction. When
// Recurring is set, the service also creates a recurrence template and
// the transaction becomes its first materialized instance.
type TransactionRequest struct {
	AccountID      string          `json:"account_id,omitempty"`
	DueDate        string          `json:"due_date"` // YYYY-MM-DD
	Amount         float64         `json:"amount"`
	Direction      string          `json:"direction"`
	Category       string          `json:"category,omitempty"`
	Description    string          `json:"description,omitempty"`
	CounterpartyID string          `json:"counterparty_id,omitempty"`
	Recurring      *RecurrencePlan `json:"recurring,omitempty"`
}

// TransactionMatch describes the cross-template duplicate query: same
// owner, company, counterparty (or description when no counterparty),
// direction and amount.
type TransactionMatch struct {
	OwnerID        string
	CompanyID      string
	CounterpartyID string
	Description    string
	Direction      string
	Amount         float64
}

// ============================================================
// Alerts
// ============================================================

// Alert represents an operator-facing treasury alert (low balance,
// upcoming large payment, credit line near limit).
type Alert struct {
	ID             string     `json:"id"`
	CompanyID      string     `json:"company_id"`
	Kind           string     `json:"kind"`
	Severity       string     `json:"severity"` // info, warning, critical
	Message        string     `json:"message"`
	Acknowledged   bool       `json:"acknowledged"`
	AcknowledgedAt *time.Time `json:"acknowledged_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// AlertRequest is the payload to create an alert.
type AlertRequest struct {
	Kind     string `json:"kind"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

// ============================================================
// Dashboard
// ============================================================

// UpcomingOccurrence is a projected recurrence instance shown on the
// dashboard (not necessarily materialized yet).
type UpcomingOccurrence struct {
	TemplateID string  `json:"template_id"`
	Name       string  `json:"name"`
	DueDate    string  `json:"due_date"` // YYYY-MM-DD
	Amount     float64 `json:"amount"`
	Direction  string  `json:"direction"`
	Certainty  string  `json:"certainty"`
}

// ForecastBucket aggregates projected income/expense for one calendar
// month, with a running balance from the current cash position.
type ForecastBucket struct {
	Month          string  `json:"month"` // YYYY-MM
	Income         float64 `json:"income"`
	Expense        float64 `json:"expense"`
	Net            float64 `json:"net"`
	RunningBalance float64 `json:"running_balance"`
}

// Dashboard is the aggregate view returned to the treasury dashboard.
type Dashboard struct {
	CompanyID    string               `json:"company_id"`
	CashPosition float64              `json:"cash_position"`
	CreditAvail  float64              `json:"credit_available"`
	Accounts     []Account            `json:"accounts"`
	CreditLines  []CreditLine         `json:"credit_lines"`
	Upcoming     []UpcomingOccurrence `json:"upcoming"`
	Forecast     []ForecastBucket     `json:"forecast"`
	GeneratedAt  time.Time            `json:"generated_at"`
}

// SuccessResponse is a generic success message payload.
type SuccessResponse struct {
	Message string `json:"message"`
}
