package supabase

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/nordvik/treasury-go/internal/domain"
	"github.com/nordvik/treasury-go/internal/infra/resilience"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := resilience.Config{MaxRetries: 1, InitialBackoff: time.Millisecond, MaxConcurrency: 4}
	cb := resilience.NewCircuitBreaker("supabase-test")
	return NewClient(srv.Client(), srv.URL, "anon", "service", cb, cfg, zap.NewNop())
}

func TestListActiveTemplates_NormalizesLegacyRows(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/v1/recurrence_templates" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("status"); got != "eq.active" {
			t.Errorf("expected status filter, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		// One canonical row, one pre-migration row using the old
		// amount/due_day/weekday columns and the fortnightly spelling.
		w.Write([]byte(`[
			{
				"id": "tpl-new",
				"company_id": "co-1",
				"owner_id": "user-1",
				"name": "Rent",
				"direction": "expense",
				"base_amount": 4200,
				"certainty": "high",
				"frequency": "monthly",
				"day_of_month": 15,
				"start_date": "2025-01-15",
				"status": "active"
			},
			{
				"id": "tpl-legacy",
				"company_id": "co-1",
				"owner_id": "user-1",
				"name": "Cleaning",
				"direction": "expense",
				"amount": 300,
				"frequency": "fortnightly",
				"weekday": 5,
				"start_date": "2025-02-07T00:00:00Z",
				"status": "active"
			}
		]`))
	})

	templates, err := client.ListActiveTemplates(context.Background(), "co-1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(templates) != 2 {
		t.Fatalf("expected 2 templates, got %d", len(templates))
	}

	legacy := templates[1]
	if legacy.BaseAmount != 300 {
		t.Errorf("expected legacy amount folded into base_amount, got %f", legacy.BaseAmount)
	}
	if legacy.Frequency != domain.FrequencyBiweekly {
		t.Errorf("expected fortnightly mapped to biweekly, got %s", legacy.Frequency)
	}
	if legacy.DayOfWeek == nil || *legacy.DayOfWeek != 5 {
		t.Errorf("expected legacy weekday folded into day_of_week, got %v", legacy.DayOfWeek)
	}
	if legacy.Certainty != domain.CertaintyMedium {
		t.Errorf("expected missing certainty defaulted to medium, got %s", legacy.Certainty)
	}
	if legacy.StartDate.Format("2006-01-02") != "2025-02-07" {
		t.Errorf("expected RFC3339 start date parsed, got %s", legacy.StartDate)
	}

	canonical := templates[0]
	if canonical.BaseAmount != 4200 || canonical.DayOfMonth != 15 {
		t.Errorf("canonical row mangled: %+v", canonical)
	}
}

func TestGetTemplate_NotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[]`))
	})

	_, err := client.GetTemplate(context.Background(), "co-1", "tpl-missing")
	if _, ok := err.(*domain.ErrNotFound); !ok {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestBatchInsertTransactions_RejectsOversizedBatch(t *testing.T) {
	called := false
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	batch := make([]domain.Transaction, BatchCeiling+1)
	err := client.BatchInsertTransactions(context.Background(), batch)
	if err == nil {
		t.Fatal("expected error for oversized batch")
	}
	if called {
		t.Error("oversized batch must be rejected before hitting the store")
	}
}

func TestBatchInsertTransactions_EmptyIsNoop(t *testing.T) {
	called := false
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	if err := client.BatchInsertTransactions(context.Background(), nil); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if called {
		t.Error("empty batch must not hit the store")
	}
}
