// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"
	"time"

	"github.com/nordvik/treasury-go/internal/domain"
)

// Clock supplies "now" for horizon computation and past-date filtering.
// Injected so generation runs are reproducible in tests.
type Clock interface {
	Now() time.Time
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}

// TemplateStore persists recurrence templates.
type TemplateStore interface {
	// ListActiveTemplates returns active templates, optionally filtered
	// by company (empty companyID = all companies).
	ListActiveTemplates(ctx context.Context, companyID string) ([]domain.RecurrenceTemplate, error)
	ListTemplates(ctx context.Context, companyID string) ([]domain.RecurrenceTemplate, error)
	GetTemplate(ctx context.Context, companyID, templateID string) (*domain.RecurrenceTemplate, error)
	CreateTemplate(ctx context.Context, tpl *domain.RecurrenceTemplate) (*domain.RecurrenceTemplate, error)

	// UpdateTemplateBookkeeping records the informational generation
	// pointers after a pass. Future runs never rely on them.
	UpdateTemplateBookkeeping(ctx context.Context, templateID string, lastGenerated, nextOccurrence time.Time) error
	UpdateTemplateStatus(ctx context.Context, templateID, status string) error
}

// TransactionStore persists ledger transactions and answers the
// duplicate-detection queries of the generation engine.
type TransactionStore interface {
	ListTransactions(ctx context.Context, companyID string, from, to string) ([]domain.Transaction, error)
	ListByRecurrence(ctx context.Context, recurrenceID string) ([]domain.Transaction, error)
	ListMatching(ctx context.Context, match domain.TransactionMatch) ([]domain.Transaction, error)

	// BatchInsertTransactions inserts the batch atomically. The backing
	// store enforces a per-batch ceiling (500 rows); callers chunk below
	// that ceiling.
	BatchInsertTransactions(ctx context.Context, txns []domain.Transaction) error
	CreateTransaction(ctx context.Context, txn *domain.Transaction) (*domain.Transaction, error)
}

// TreasuryStore covers the CRUD surface around the recurrence engine:
// accounts, credit lines and alerts.
type TreasuryStore interface {
	ListAccounts(ctx context.Context, companyID string) ([]domain.Account, error)
	GetAccount(ctx context.Context, companyID, accountID string) (*domain.Account, error)
	ListCreditLines(ctx context.Context, companyID string) ([]domain.CreditLine, error)
	ListAlerts(ctx context.Context, companyID string, unackedOnly bool) ([]domain.Alert, error)
	CreateAlert(ctx context.Context, alert *domain.Alert) (*domain.Alert, error)
	AcknowledgeAlert(ctx context.Context, alertID string) error
}

// CredentialStore looks up stored login credentials.
type CredentialStore interface {
	GetCredentialByEmail(ctx context.Context, email string) (*domain.UserCredential, error)
	RecordLogin(ctx context.Context, userID string, at time.Time) error
}
