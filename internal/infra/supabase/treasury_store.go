package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/nordvik/treasury-go/internal/domain"
)

// ============================================================
// Accounts, credit lines and alerts
// ============================================================

type accountRow struct {
	ID            string  `json:"id"`
	CompanyID     string  `json:"company_id"`
	Name          string  `json:"name"`
	BankName      string  `json:"bank_name,omitempty"`
	BankCode      string  `json:"bank_code,omitempty"`
	AccountNumber string  `json:"account_number,omitempty"`
	Balance       float64 `json:"balance"`
	Currency      string  `json:"currency"`
	Status        string  `json:"status"`
	CreatedAt     string  `json:"created_at"`
}

func (r *accountRow) toDomain() domain.Account {
	return domain.Account{
		ID:            r.ID,
		CompanyID:     r.CompanyID,
		Name:          r.Name,
		BankName:      r.BankName,
		BankCode:      r.BankCode,
		AccountNumber: r.AccountNumber,
		Balance:       r.Balance,
		Currency:      r.Currency,
		Status:        r.Status,
		CreatedAt:     parseDate(r.CreatedAt),
	}
}

func (c *Client) ListAccounts(ctx context.Context, companyID string) ([]domain.Account, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListAccounts")
	defer span.End()
	span.SetAttributes(attribute.String("company.id", companyID))

	body, err := c.getWithRetry(ctx, fmt.Sprintf("accounts?company_id=eq.%s&order=name.asc", companyID))
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/accounts", Err: err}
	}
	if body == nil {
		return []domain.Account{}, nil
	}
	var rows []accountRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode accounts: %w", err)
	}
	accounts := make([]domain.Account, 0, len(rows))
	for i := range rows {
		accounts = append(accounts, rows[i].toDomain())
	}
	return accounts, nil
}

func (c *Client) GetAccount(ctx context.Context, companyID, accountID string) (*domain.Account, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetAccount")
	defer span.End()

	body, err := c.getWithRetry(ctx, fmt.Sprintf("accounts?company_id=eq.%s&id=eq.%s&limit=1", companyID, accountID))
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/accounts", Err: err}
	}
	var rows []accountRow
	if body != nil {
		if err := json.Unmarshal(body, &rows); err != nil {
			return nil, fmt.Errorf("decode accounts: %w", err)
		}
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "account", ID: accountID}
	}
	account := rows[0].toDomain()
	return &account, nil
}

type creditLineRow struct {
	ID           string  `json:"id"`
	CompanyID    string  `json:"company_id"`
	Name         string  `json:"name"`
	Limit        float64 `json:"credit_limit"`
	Drawn        float64 `json:"drawn"`
	InterestRate float64 `json:"interest_rate"`
	MaturityDate string  `json:"maturity_date,omitempty"`
	Status       string  `json:"status"`
	CreatedAt    string  `json:"created_at"`
}

func (c *Client) ListCreditLines(ctx context.Context, companyID string) ([]domain.CreditLine, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListCreditLines")
	defer span.End()
	span.SetAttributes(attribute.String("company.id", companyID))

	body, err := c.getWithRetry(ctx, fmt.Sprintf("credit_lines?company_id=eq.%s&order=name.asc", companyID))
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/credit_lines", Err: err}
	}
	if body == nil {
		return []domain.CreditLine{}, nil
	}
	var rows []creditLineRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode credit_lines: %w", err)
	}
	lines := make([]domain.CreditLine, 0, len(rows))
	for i := range rows {
		lines = append(lines, domain.CreditLine{
			ID:           rows[i].ID,
			CompanyID:    rows[i].CompanyID,
			Name:         rows[i].Name,
			Limit:        rows[i].Limit,
			Drawn:        rows[i].Drawn,
			InterestRate: rows[i].InterestRate,
			MaturityDate: parseDatePtr(rows[i].MaturityDate),
			Status:       rows[i].Status,
			CreatedAt:    parseDate(rows[i].CreatedAt),
		})
	}
	return lines, nil
}

type alertRow struct {
	ID             string `json:"id"`
	CompanyID      string `json:"company_id"`
	Kind           string `json:"kind"`
	Severity       string `json:"severity"`
	Message        string `json:"message"`
	Acknowledged   bool   `json:"acknowledged"`
	AcknowledgedAt string `json:"acknowledged_at,omitempty"`
	CreatedAt      string `json:"created_at,omitempty"`
}

func (r *alertRow) toDomain() domain.Alert {
	return domain.Alert{
		ID:             r.ID,
		CompanyID:      r.CompanyID,
		Kind:           r.Kind,
		Severity:       r.Severity,
		Message:        r.Message,
		Acknowledged:   r.Acknowledged,
		AcknowledgedAt: parseDatePtr(r.AcknowledgedAt),
		CreatedAt:      parseDate(r.CreatedAt),
	}
}

func (c *Client) ListAlerts(ctx context.Context, companyID string, unackedOnly bool) ([]domain.Alert, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListAlerts")
	defer span.End()

	path := fmt.Sprintf("alerts?company_id=eq.%s&order=created_at.desc", companyID)
	if unackedOnly {
		path += "&acknowledged=eq.false"
	}
	body, err := c.getWithRetry(ctx, path)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/alerts", Err: err}
	}
	if body == nil {
		return []domain.Alert{}, nil
	}
	var rows []alertRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode alerts: %w", err)
	}
	alerts := make([]domain.Alert, 0, len(rows))
	for i := range rows {
		alerts = append(alerts, rows[i].toDomain())
	}
	return alerts, nil
}

func (c *Client) CreateAlert(ctx context.Context, alert *domain.Alert) (*domain.Alert, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateAlert")
	defer span.End()

	body, err := c.doPost(ctx, "alerts", map[string]any{
		"id":         alert.ID,
		"company_id": alert.CompanyID,
		"kind":       alert.Kind,
		"severity":   alert.Severity,
		"message":    alert.Message,
	})
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/alerts", Err: err}
	}
	var rows []alertRow
	if body != nil {
		if err := json.Unmarshal(body, &rows); err != nil {
			return nil, fmt.Errorf("decode alerts: %w", err)
		}
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("no result from alerts insert")
	}
	created := rows[0].toDomain()
	return &created, nil
}

func (c *Client) AcknowledgeAlert(ctx context.Context, alertID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.AcknowledgeAlert")
	defer span.End()

	return c.doPatch(ctx, fmt.Sprintf("alerts?id=eq.%s", alertID), map[string]any{
		"acknowledged":    true,
		"acknowledged_at": time.Now().Format(time.RFC3339),
	})
}
