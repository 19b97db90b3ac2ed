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
// Recurrence template store
// ============================================================

// templateRow maps the recurrence_templates table, including deprecated
// column names still present on old rows. normalize is the single place
// where legacy shapes are folded into the canonical domain type; nothing
// past this file ever sees them.
type templateRow struct {
	ID             string  `json:"id"`
	CompanyID      string  `json:"company_id"`
	OwnerID        string  `json:"owner_id"`
	Name           string  `json:"name"`
	Direction      string  `json:"direction"`
	BaseAmount     float64 `json:"base_amount"`
	LegacyAmount   float64 `json:"amount"` // deprecated, pre-migration rows
	Category       string  `json:"category"`
	CounterpartyID string  `json:"counterparty_id"`
	Certainty      string  `json:"certainty"`

	Frequency     string `json:"frequency"`
	DayOfMonth    int    `json:"day_of_month"`
	LegacyDueDay  int    `json:"due_day"` // deprecated
	DayOfWeek     *int   `json:"day_of_week"`
	LegacyWeekday *int   `json:"weekday"` // deprecated

	StartDate     string `json:"start_date"`
	EndDate       string `json:"end_date"`
	HorizonMonths int    `json:"horizon_months"`

	LastGeneratedDate  string `json:"last_generated_date"`
	NextOccurrenceDate string `json:"next_occurrence_date"`

	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// legacy frequency spellings from the v1 schema.
var legacyFrequencies = map[string]domain.Frequency{
	"fortnightly": domain.FrequencyBiweekly,
	"annual":      domain.FrequencyYearly,
	"annually":    domain.FrequencyYearly,
}

func (r *templateRow) normalize() domain.RecurrenceTemplate {
	amount := r.BaseAmount
	if amount == 0 {
		amount = r.LegacyAmount
	}
	dayOfMonth := r.DayOfMonth
	if dayOfMonth == 0 {
		dayOfMonth = r.LegacyDueDay
	}
	dayOfWeek := r.DayOfWeek
	if dayOfWeek == nil {
		dayOfWeek = r.LegacyWeekday
	}
	freq := domain.Frequency(r.Frequency)
	if mapped, ok := legacyFrequencies[r.Frequency]; ok {
		freq = mapped
	}
	certainty := r.Certainty
	if certainty == "" {
		certainty = domain.CertaintyMedium
	}

	return domain.RecurrenceTemplate{
		ID:                 r.ID,
		CompanyID:          r.CompanyID,
		OwnerID:            r.OwnerID,
		Name:               r.Name,
		Direction:          r.Direction,
		BaseAmount:         amount,
		Category:           r.Category,
		CounterpartyID:     r.CounterpartyID,
		Certainty:          certainty,
		Frequency:          freq,
		DayOfMonth:         dayOfMonth,
		DayOfWeek:          dayOfWeek,
		StartDate:          parseDate(r.StartDate),
		EndDate:            parseDatePtr(r.EndDate),
		HorizonMonths:      r.HorizonMonths,
		LastGeneratedDate:  parseDatePtr(r.LastGeneratedDate),
		NextOccurrenceDate: parseDatePtr(r.NextOccurrenceDate),
		Status:             r.Status,
		CreatedAt:          parseDate(r.CreatedAt),
		UpdatedAt:          parseDate(r.UpdatedAt),
	}
}

func decodeTemplates(body []byte) ([]domain.RecurrenceTemplate, error) {
	if body == nil {
		return []domain.RecurrenceTemplate{}, nil
	}
	var rows []templateRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode recurrence_templates: %w", err)
	}
	templates := make([]domain.RecurrenceTemplate, 0, len(rows))
	for i := range rows {
		templates = append(templates, rows[i].normalize())
	}
	return templates, nil
}

// ListActiveTemplates returns active templates, optionally filtered by company.
func (c *Client) ListActiveTemplates(ctx context.Context, companyID string) ([]domain.RecurrenceTemplate, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListActiveTemplates")
	defer span.End()
	span.SetAttributes(attribute.String("company.id", companyID))

	path := "recurrence_templates?status=eq.active&order=created_at.asc"
	if companyID != "" {
		path = fmt.Sprintf("recurrence_templates?status=eq.active&company_id=eq.%s&order=created_at.asc", companyID)
	}
	body, err := c.getWithRetry(ctx, path)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/templates", Err: err}
	}
	return decodeTemplates(body)
}

func (c *Client) ListTemplates(ctx context.Context, companyID string) ([]domain.RecurrenceTemplate, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListTemplates")
	defer span.End()

	path := fmt.Sprintf("recurrence_templates?company_id=eq.%s&order=created_at.asc", companyID)
	body, err := c.getWithRetry(ctx, path)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/templates", Err: err}
	}
	return decodeTemplates(body)
}

func (c *Client) GetTemplate(ctx context.Context, companyID, templateID string) (*domain.RecurrenceTemplate, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetTemplate")
	defer span.End()

	path := fmt.Sprintf("recurrence_templates?company_id=eq.%s&id=eq.%s&limit=1", companyID, templateID)
	body, err := c.getWithRetry(ctx, path)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/templates", Err: err}
	}
	templates, err := decodeTemplates(body)
	if err != nil {
		return nil, err
	}
	if len(templates) == 0 {
		return nil, &domain.ErrNotFound{Resource: "recurrence_template", ID: templateID}
	}
	return &templates[0], nil
}

func (c *Client) CreateTemplate(ctx context.Context, tpl *domain.RecurrenceTemplate) (*domain.RecurrenceTemplate, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateTemplate")
	defer span.End()

	row := map[string]any{
		"id":             tpl.ID,
		"company_id":     tpl.CompanyID,
		"owner_id":       tpl.OwnerID,
		"name":           tpl.Name,
		"direction":      tpl.Direction,
		"base_amount":    tpl.BaseAmount,
		"category":       tpl.Category,
		"certainty":      tpl.Certainty,
		"frequency":      string(tpl.Frequency),
		"start_date":     tpl.StartDate.Format("2006-01-02"),
		"horizon_months": tpl.HorizonMonths,
		"status":         tpl.Status,
	}
	if tpl.CounterpartyID != "" {
		row["counterparty_id"] = tpl.CounterpartyID
	}
	if tpl.DayOfMonth > 0 {
		row["day_of_month"] = tpl.DayOfMonth
	}
	if tpl.DayOfWeek != nil {
		row["day_of_week"] = *tpl.DayOfWeek
	}
	if tpl.EndDate != nil {
		row["end_date"] = tpl.EndDate.Format("2006-01-02")
	}

	body, err := c.doPost(ctx, "recurrence_templates", row)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/templates", Err: err}
	}
	templates, err := decodeTemplates(body)
	if err != nil {
		return nil, err
	}
	if len(templates) == 0 {
		return nil, fmt.Errorf("no result from recurrence_templates insert")
	}
	return &templates[0], nil
}

// UpdateTemplateBookkeeping records the generation pointers. These are
// informational; generation always restarts from start_date.
func (c *Client) UpdateTemplateBookkeeping(ctx context.Context, templateID string, lastGenerated, nextOccurrence time.Time) error {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateTemplateBookkeeping")
	defer span.End()

	return c.doPatch(ctx, fmt.Sprintf("recurrence_templates?id=eq.%s", templateID), map[string]any{
		"last_generated_date":  lastGenerated.Format("2006-01-02"),
		"next_occurrence_date": nextOccurrence.Format("2006-01-02"),
		"updated_at":           time.Now().Format(time.RFC3339),
	})
}

func (c *Client) UpdateTemplateStatus(ctx context.Context, templateID, status string) error {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateTemplateStatus")
	defer span.End()

	return c.doPatch(ctx, fmt.Sprintf("recurrence_templates?id=eq.%s", templateID), map[string]any{
		"status":     status,
		"updated_at": time.Now().Format(time.RFC3339),
	})
}
