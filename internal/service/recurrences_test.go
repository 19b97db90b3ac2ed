package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/nordvik/treasury-go/internal/domain"
	"github.com/nordvik/treasury-go/internal/infra/cache"
	"github.com/nordvik/treasury-go/internal/infra/observability"
	"github.com/nordvik/treasury-go/internal/service"
)

func newRecurrenceService(templates *mockTemplateStore, transactions *mockTransactionStore, throttle *cache.Throttle, now time.Time) *service.RecurrenceService {
	clock := fixedClock{now: now}
	gen := service.NewGenerator(templates, transactions, clock, observability.NewMetrics(), zap.NewNop())
	return service.NewRecurrenceService(templates, gen, throttle, clock, zap.NewNop())
}

func TestCreateTemplate_GeneratesImmediately(t *testing.T) {
	templates := newMockTemplateStore()
	transactions := &mockTransactionStore{}
	svc := newRecurrenceService(templates, transactions, cache.NewThrottle(time.Hour), day(2025, time.June, 1))

	req := &domain.TransactionRequest{
		DueDate:     "2025-06-10",
		Amount:      1500,
		Direction:   domain.DirectionIncome,
		Description: "Retainer",
		Recurring: &domain.RecurrencePlan{
			Frequency:  domain.FrequencyMonthly,
			DayOfMonth: 10,
		},
	}

	tpl, gen, err := svc.CreateTemplate(context.Background(), "co-1", "user-1", req)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if tpl.Status != domain.TemplateActive {
		t.Errorf("expected active template, got '%s'", tpl.Status)
	}
	if tpl.Name != "Retainer" {
		t.Errorf("expected name from description, got '%s'", tpl.Name)
	}
	if gen.Generated == 0 {
		t.Error("expected immediate generation to materialize instances")
	}
	if len(transactions.transactions) != gen.Generated {
		t.Errorf("expected %d transactions, got %d", gen.Generated, len(transactions.transactions))
	}
}

func TestCreateTemplate_RejectsMissingPlan(t *testing.T) {
	svc := newRecurrenceService(newMockTemplateStore(), &mockTransactionStore{}, cache.NewThrottle(time.Hour), day(2025, time.June, 1))

	req := &domain.TransactionRequest{
		DueDate:   "2025-06-10",
		Amount:    100,
		Direction: domain.DirectionExpense,
	}
	_, _, err := svc.CreateTemplate(context.Background(), "co-1", "user-1", req)
	var validation *domain.ErrValidation
	if !errors.As(err, &validation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestCreateTemplate_RejectsMalformedStartDate(t *testing.T) {
	svc := newRecurrenceService(newMockTemplateStore(), &mockTransactionStore{}, cache.NewThrottle(time.Hour), day(2025, time.June, 1))

	// A bad start date must surface, not silently anchor the series to
	// the transaction's due date.
	req := &domain.TransactionRequest{
		DueDate:     "2025-06-10",
		Amount:      1500,
		Direction:   domain.DirectionIncome,
		Description: "Retainer",
		Recurring: &domain.RecurrencePlan{
			Frequency:  domain.FrequencyMonthly,
			DayOfMonth: 10,
			StartDate:  "2025-13-40",
		},
	}
	_, _, err := svc.CreateTemplate(context.Background(), "co-1", "user-1", req)
	var validation *domain.ErrValidation
	if !errors.As(err, &validation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if validation.Field != "recurring.start_date" {
		t.Errorf("expected recurring.start_date field, got %q", validation.Field)
	}
}

func TestCreateTemplate_WeeklyDefaultsAnchorFromStartDate(t *testing.T) {
	templates := newMockTemplateStore()
	svc := newRecurrenceService(templates, &mockTransactionStore{}, cache.NewThrottle(time.Hour), day(2025, time.June, 1))

	// 2025-06-13 is a Friday.
	req := &domain.TransactionRequest{
		DueDate:     "2025-06-13",
		Amount:      300,
		Direction:   domain.DirectionExpense,
		Description: "Cleaning service",
		Recurring:   &domain.RecurrencePlan{Frequency: domain.FrequencyWeekly},
	}
	tpl, _, err := svc.CreateTemplate(context.Background(), "co-1", "user-1", req)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if tpl.DayOfWeek == nil || *tpl.DayOfWeek != int(time.Friday) {
		t.Errorf("expected weekday anchor Friday, got %v", tpl.DayOfWeek)
	}
}

func TestSetTemplateStatus_EndedIsTerminal(t *testing.T) {
	tpl := monthlyTemplate()
	tpl.Status = domain.TemplateEnded
	templates := newMockTemplateStore(tpl)
	svc := newRecurrenceService(templates, &mockTransactionStore{}, cache.NewThrottle(time.Hour), day(2025, time.June, 1))

	err := svc.SetTemplateStatus(context.Background(), "co-1", "tpl-1", domain.TemplateActive)
	var conflict *domain.ErrConflict
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestSetTemplateStatus_RejectsUnknownStatus(t *testing.T) {
	templates := newMockTemplateStore(monthlyTemplate())
	svc := newRecurrenceService(templates, &mockTransactionStore{}, cache.NewThrottle(time.Hour), day(2025, time.June, 1))

	err := svc.SetTemplateStatus(context.Background(), "co-1", "tpl-1", "archived")
	var validation *domain.ErrValidation
	if !errors.As(err, &validation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestRegenerateInteractive_ThrottledPerCompany(t *testing.T) {
	templates := newMockTemplateStore(monthlyTemplate())
	transactions := &mockTransactionStore{}
	svc := newRecurrenceService(templates, transactions, cache.NewThrottle(time.Hour), day(2025, time.June, 1))

	if _, err := svc.RegenerateInteractive(context.Background(), "co-1", 6, false); err != nil {
		t.Fatalf("first run: %v", err)
	}

	_, err := svc.RegenerateInteractive(context.Background(), "co-1", 6, false)
	var rateLimited *domain.ErrRateLimited
	if !errors.As(err, &rateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}

	// A different company is not affected by co-1's window.
	if _, err := svc.RegenerateInteractive(context.Background(), "co-2", 6, false); err != nil {
		t.Fatalf("other company run: %v", err)
	}
}

func TestRegenerateInteractive_ForceBypassesThrottle(t *testing.T) {
	templates := newMockTemplateStore(monthlyTemplate())
	transactions := &mockTransactionStore{}
	svc := newRecurrenceService(templates, transactions, cache.NewThrottle(time.Hour), day(2025, time.June, 1))

	if _, err := svc.RegenerateInteractive(context.Background(), "co-1", 6, false); err != nil {
		t.Fatalf("first run: %v", err)
	}
	summary, err := svc.RegenerateInteractive(context.Background(), "co-1", 6, true)
	if err != nil {
		t.Fatalf("forced run: %v", err)
	}
	// The forced run is still duplicate-safe.
	if summary.TotalGenerated != 0 {
		t.Errorf("expected 0 generated on forced re-run, got %d", summary.TotalGenerated)
	}
	if summary.TotalSkipped == 0 {
		t.Error("expected skips on forced re-run")
	}
}
