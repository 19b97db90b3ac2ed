package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"go.opentelemetry.io/otel/attribute"

	"github.com/nordvik/treasury-go/internal/domain"
)

// ============================================================
// Transaction store
// ============================================================

type transactionRow struct {
	ID             string  `json:"id"`
	CompanyID      string  `json:"company_id"`
	OwnerID        string  `json:"owner_id"`
	AccountID      string  `json:"account_id,omitempty"`
	DueDate        string  `json:"due_date"`
	Amount         float64 `json:"amount"`
	Direction      string  `json:"direction"`
	Category       string  `json:"category,omitempty"`
	Description    string  `json:"description,omitempty"`
	CounterpartyID string  `json:"counterparty_id,omitempty"`
	Status         string  `json:"status"`

	RecurrenceID        string `json:"recurrence_id,omitempty"`
	IsRecurringInstance bool   `json:"is_recurring_instance,omitempty"`
	InstanceDate        string `json:"instance_date,omitempty"`
	UserOverride        bool   `json:"user_override,omitempty"`

	CreatedAt string `json:"created_at,omitempty"`
}

func (r *transactionRow) toDomain() domain.Transaction {
	return domain.Transaction{
		ID:                  r.ID,
		CompanyID:           r.CompanyID,
		OwnerID:             r.OwnerID,
		AccountID:           r.AccountID,
		DueDate:             parseDate(r.DueDate),
		Amount:              r.Amount,
		Direction:           r.Direction,
		Category:            r.Category,
		Description:         r.Description,
		CounterpartyID:      r.CounterpartyID,
		Status:              r.Status,
		RecurrenceID:        r.RecurrenceID,
		IsRecurringInstance: r.IsRecurringInstance,
		InstanceDate:        r.InstanceDate,
		UserOverride:        r.UserOverride,
		CreatedAt:           parseDate(r.CreatedAt),
	}
}

func transactionToRow(t *domain.Transaction) transactionRow {
	return transactionRow{
		ID:                  t.ID,
		CompanyID:           t.CompanyID,
		OwnerID:             t.OwnerID,
		AccountID:           t.AccountID,
		DueDate:             t.DueDate.Format("2006-01-02"),
		Amount:              t.Amount,
		Direction:           t.Direction,
		Category:            t.Category,
		Description:         t.Description,
		CounterpartyID:      t.CounterpartyID,
		Status:              t.Status,
		RecurrenceID:        t.RecurrenceID,
		IsRecurringInstance: t.IsRecurringInstance,
		InstanceDate:        t.InstanceDate,
		UserOverride:        t.UserOverride,
	}
}

func decodeTransactions(body []byte) ([]domain.Transaction, error) {
	if body == nil {
		return []domain.Transaction{}, nil
	}
	var rows []transactionRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode transactions: %w", err)
	}
	txns := make([]domain.Transaction, 0, len(rows))
	for i := range rows {
		txns = append(txns, rows[i].toDomain())
	}
	return txns, nil
}

// ListTransactions returns a company's transactions, optionally bounded
// by due date (YYYY-MM-DD, inclusive).
func (c *Client) ListTransactions(ctx context.Context, companyID string, from, to string) ([]domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListTransactions")
	defer span.End()
	span.SetAttributes(attribute.String("company.id", companyID))

	path := fmt.Sprintf("transactions?company_id=eq.%s&order=due_date.asc", companyID)
	if from != "" {
		path += "&due_date=gte." + from
	}
	if to != "" {
		path += "&due_date=lte." + to
	}
	body, err := c.getWithRetry(ctx, path)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/transactions", Err: err}
	}
	return decodeTransactions(body)
}

// ListByRecurrence returns all instances materialized from one template.
func (c *Client) ListByRecurrence(ctx context.Context, recurrenceID string) ([]domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListByRecurrence")
	defer span.End()
	span.SetAttributes(attribute.String("recurrence.id", recurrenceID))

	path := fmt.Sprintf("transactions?recurrence_id=eq.%s&order=due_date.asc", recurrenceID)
	body, err := c.getWithRetry(ctx, path)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/transactions", Err: err}
	}
	return decodeTransactions(body)
}

// ListMatching answers the cross-template duplicate query: same owner,
// company, direction, amount and counterparty. When the match carries no
// counterparty the description is the discriminator instead.
func (c *Client) ListMatching(ctx context.Context, match domain.TransactionMatch) ([]domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListMatching")
	defer span.End()

	// Decimal notation only: %v would switch to scientific form at 1e6
	// and PostgREST cannot parse that as a numeric filter.
	amount := strconv.FormatFloat(match.Amount, 'f', -1, 64)
	path := fmt.Sprintf("transactions?company_id=eq.%s&owner_id=eq.%s&direction=eq.%s&amount=eq.%s",
		match.CompanyID, match.OwnerID, match.Direction, url.QueryEscape(amount))
	if match.CounterpartyID != "" {
		path += "&counterparty_id=eq." + match.CounterpartyID
	} else {
		path += "&description=eq." + url.QueryEscape(match.Description)
	}
	body, err := c.getWithRetry(ctx, path)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/transactions", Err: err}
	}
	return decodeTransactions(body)
}

// BatchInsertTransactions inserts the batch as a single PostgREST bulk
// insert, which succeeds or fails as a whole. Batches above BatchCeiling
// are rejected up front instead of tripping the store's own limit.
func (c *Client) BatchInsertTransactions(ctx context.Context, txns []domain.Transaction) error {
	ctx, span := tracer.Start(ctx, "Supabase.BatchInsertTransactions")
	defer span.End()
	span.SetAttributes(attribute.Int("batch.size", len(txns)))

	if len(txns) == 0 {
		return nil
	}
	if len(txns) > BatchCeiling {
		return fmt.Errorf("batch of %d exceeds store ceiling of %d rows", len(txns), BatchCeiling)
	}

	rows := make([]transactionRow, 0, len(txns))
	for i := range txns {
		rows = append(rows, transactionToRow(&txns[i]))
	}
	if _, err := c.doPost(ctx, "transactions", rows); err != nil {
		return &domain.ErrExternalService{Service: "supabase/transactions", Err: err}
	}
	return nil
}

func (c *Client) CreateTransaction(ctx context.Context, txn *domain.Transaction) (*domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateTransaction")
	defer span.End()

	body, err := c.doPost(ctx, "transactions", transactionToRow(txn))
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/transactions", Err: err}
	}
	txns, err := decodeTransactions(body)
	if err != nil {
		return nil, err
	}
	if len(txns) == 0 {
		return nil, fmt.Errorf("no result from transactions insert")
	}
	return &txns[0], nil
}
