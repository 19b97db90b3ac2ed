package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/nordvik/treasury-go/internal/domain"
	"github.com/nordvik/treasury-go/internal/infra/observability"
	"github.com/nordvik/treasury-go/internal/service"
)

// --- Mocks ---

type mockTreasuryStore struct {
	accounts    []domain.Account
	creditLines []domain.CreditLine
	alerts      []domain.Alert
	acked       []string

	err error
}

func (m *mockTreasuryStore) ListAccounts(_ context.Context, _ string) ([]domain.Account, error) {
	return m.accounts, m.err
}

func (m *mockTreasuryStore) GetAccount(_ context.Context, _, accountID string) (*domain.Account, error) {
	for i := range m.accounts {
		if m.accounts[i].ID == accountID {
			return &m.accounts[i], nil
		}
	}
	return nil, &domain.ErrNotFound{Resource: "account", ID: accountID}
}

func (m *mockTreasuryStore) ListCreditLines(_ context.Context, _ string) ([]domain.CreditLine, error) {
	return m.creditLines, m.err
}

func (m *mockTreasuryStore) ListAlerts(_ context.Context, _ string, unackedOnly bool) ([]domain.Alert, error) {
	if unackedOnly {
		var out []domain.Alert
		for _, a := range m.alerts {
			if !a.Acknowledged {
				out = append(out, a)
			}
		}
		return out, nil
	}
	return m.alerts, nil
}

func (m *mockTreasuryStore) CreateAlert(_ context.Context, alert *domain.Alert) (*domain.Alert, error) {
	m.alerts = append(m.alerts, *alert)
	return alert, nil
}

func (m *mockTreasuryStore) AcknowledgeAlert(_ context.Context, alertID string) error {
	m.acked = append(m.acked, alertID)
	return nil
}

func newTreasuryService(treasury *mockTreasuryStore, templates *mockTemplateStore, transactions *mockTransactionStore, now time.Time) *service.TreasuryService {
	gen := service.NewGenerator(templates, transactions, fixedClock{now: now}, observability.NewMetrics(), zap.NewNop())
	return service.NewTreasuryService(treasury, transactions, templates, gen, zap.NewNop())
}

// --- Tests ---

func TestCreateTransaction_OneOff(t *testing.T) {
	transactions := &mockTransactionStore{}
	svc := newTreasuryService(&mockTreasuryStore{}, newMockTemplateStore(), transactions, day(2025, time.June, 1))

	req := &domain.TransactionRequest{
		DueDate:     "2025-06-20",
		Amount:      800,
		Direction:   domain.DirectionExpense,
		Description: "Server hosting",
	}
	txn, gen, err := svc.CreateTransaction(context.Background(), "co-1", "user-1", req)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if gen != nil {
		t.Error("expected no generation result for a one-off entry")
	}
	if txn.RecurrenceID != "" {
		t.Errorf("expected no recurrence link, got '%s'", txn.RecurrenceID)
	}
	if len(transactions.transactions) != 1 {
		t.Errorf("expected 1 transaction, got %d", len(transactions.transactions))
	}
}

func TestCreateTransaction_RecurringSkipsFirstInstanceDay(t *testing.T) {
	templates := newMockTemplateStore()
	transactions := &mockTransactionStore{}
	svc := newTreasuryService(&mockTreasuryStore{}, templates, transactions, day(2025, time.June, 1))

	req := &domain.TransactionRequest{
		DueDate:     "2025-06-10",
		Amount:      2500,
		Direction:   domain.DirectionIncome,
		Description: "Consulting retainer",
		Recurring: &domain.RecurrencePlan{
			Frequency:  domain.FrequencyMonthly,
			DayOfMonth: 10,
		},
	}
	txn, gen, err := svc.CreateTransaction(context.Background(), "co-1", "user-1", req)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if txn.RecurrenceID == "" {
		t.Fatal("expected the entry linked to the new template")
	}
	if !txn.IsRecurringInstance {
		t.Error("expected the entry flagged as a recurring instance")
	}
	if gen == nil {
		t.Fatal("expected a generation result")
	}
	// The created entry already covers June 10; generation must skip it.
	if gen.Skipped != 1 {
		t.Errorf("expected 1 skipped (the first instance), got %d", gen.Skipped)
	}
	seen := map[string]int{}
	for _, tx := range transactions.transactions {
		seen[tx.DueDate.Format("2006-01-02")]++
	}
	if seen["2025-06-10"] != 1 {
		t.Errorf("expected exactly one entry on 2025-06-10, got %d", seen["2025-06-10"])
	}
}

func TestCreateTransaction_RejectsBadInput(t *testing.T) {
	svc := newTreasuryService(&mockTreasuryStore{}, newMockTemplateStore(), &mockTransactionStore{}, day(2025, time.June, 1))

	cases := []struct {
		name string
		req  domain.TransactionRequest
	}{
		{"zero amount", domain.TransactionRequest{DueDate: "2025-06-10", Direction: domain.DirectionExpense}},
		{"bad direction", domain.TransactionRequest{DueDate: "2025-06-10", Amount: 10, Direction: "transfer"}},
		{"bad date", domain.TransactionRequest{DueDate: "10/06/2025", Amount: 10, Direction: domain.DirectionExpense}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := svc.CreateTransaction(context.Background(), "co-1", "user-1", &tc.req)
			var validation *domain.ErrValidation
			if !errors.As(err, &validation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestCreateAlert_DefaultsSeverity(t *testing.T) {
	treasury := &mockTreasuryStore{}
	svc := newTreasuryService(treasury, newMockTemplateStore(), &mockTransactionStore{}, day(2025, time.June, 1))

	alert, err := svc.CreateAlert(context.Background(), "co-1", &domain.AlertRequest{
		Kind:    "low_balance",
		Message: "Operating account below threshold",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if alert.Severity != "info" {
		t.Errorf("expected default severity 'info', got '%s'", alert.Severity)
	}
}
