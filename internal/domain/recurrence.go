package domain

import "time"

// ============================================================
// Recurrence Templates
// ============================================================

// Frequency is how often a recurrence template produces occurrences.
type Frequency string

// Supported recurrence frequencies.
const (
	FrequencyDaily     Frequency = "daily"
	FrequencyWeekly    Frequency = "weekly"
	FrequencyBiweekly  Frequency = "biweekly"
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
	FrequencyYearly    Frequency = "yearly"
)

// Valid reports whether f is one of the supported frequencies.
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyBiweekly,
		FrequencyMonthly, FrequencyQuarterly, FrequencyYearly:
		return true
	}
	return false
}

// NeedsDayOfMonth reports whether the frequency anchors on a day of the
// month (monthly and coarser).
func (f Frequency) NeedsDayOfMonth() bool {
	switch f {
	case FrequencyMonthly, FrequencyQuarterly, FrequencyYearly:
		return true
	}
	return false
}

// NeedsDayOfWeek reports whether the frequency anchors on a weekday.
func (f Frequency) NeedsDayOfWeek() bool {
	return f == FrequencyWeekly || f == FrequencyBiweekly
}

// Template lifecycle status values.
const (
	TemplateActive = "active"
	TemplatePaused = "paused"
	TemplateEnded  = "ended"
)

// Certainty tiers for recurring obligations.
const (
	CertaintyHigh   = "high"
	CertaintyMedium = "medium"
	CertaintyLow    = "low"
)

// RecurrenceTemplate represents a recurring obligation (payroll, rent,
// subscription) from which ledger transactions are generated.
type RecurrenceTemplate struct {
	ID             string  `json:"id"`
	CompanyID      string  `json:"company_id"`
	OwnerID        string  `json:"owner_id"`
	Name           string  `json:"name"`
	Direction      string  `json:"direction"` // income, expense
	BaseAmount     float64 `json:"base_amount"`
	Category       string  `json:"category,omitempty"`
	CounterpartyID string  `json:"counterparty_id,omitempty"`
	Certainty      string  `json:"certainty"`

	Frequency  Frequency `json:"frequency"`
	DayOfMonth int       `json:"day_of_month,omitempty"` // 1-31, monthly and coarser
	DayOfWeek  *int      `json:"day_of_week,omitempty"`  // 0-6 Sunday-based, weekly/biweekly

	StartDate     time.Time  `json:"start_date"`
	EndDate       *time.Time `json:"end_date,omitempty"` // nil = open-ended
	HorizonMonths int        `json:"horizon_months,omitempty"`

	LastGeneratedDate  *time.Time `json:"last_generated_date,omitempty"`
	NextOccurrenceDate *time.Time `json:"next_occurrence_date,omitempty"`

	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks the template invariants required before generation.
func (t *RecurrenceTemplate) Validate() error {
	if !t.Frequency.Valid() {
		return &ErrMalformedTemplate{TemplateID: t.ID, Reason: "unknown frequency: " + string(t.Frequency)}
	}
	if t.Frequency.NeedsDayOfMonth() && (t.DayOfMonth < 1 || t.DayOfMonth > 31) {
		return &ErrMalformedTemplate{TemplateID: t.ID, Reason: "day_of_month required for " + string(t.Frequency) + " frequency"}
	}
	if t.Frequency.NeedsDayOfWeek() && (t.DayOfWeek == nil || *t.DayOfWeek < 0 || *t.DayOfWeek > 6) {
		return &ErrMalformedTemplate{TemplateID: t.ID, Reason: "day_of_week required for " + string(t.Frequency) + " frequency"}
	}
	if t.BaseAmount <= 0 {
		return &ErrMalformedTemplate{TemplateID: t.ID, Reason: "base_amount must be positive"}
	}
	if t.Direction != DirectionIncome && t.Direction != DirectionExpense {
		return &ErrMalformedTemplate{TemplateID: t.ID, Reason: "direction must be income or expense"}
	}
	if t.StartDate.IsZero() {
		return &ErrMalformedTemplate{TemplateID: t.ID, Reason: "start_date is required"}
	}
	if t.EndDate != nil && !t.EndDate.After(t.StartDate) {
		return &ErrMalformedTemplate{TemplateID: t.ID, Reason: "end_date must be after start_date"}
	}
	return nil
}

// MatchKey returns the cross-template duplicate query for this template.
func (t *RecurrenceTemplate) MatchKey() TransactionMatch {
	return TransactionMatch{
		OwnerID:        t.OwnerID,
		CompanyID:      t.CompanyID,
		CounterpartyID: t.CounterpartyID,
		Description:    t.Name,
		Direction:      t.Direction,
		Amount:         t.BaseAmount,
	}
}

// RecurrencePlan is the recurrence block of a transaction-creation
// request or a standalone template-creation request.
type RecurrencePlan struct {
	Name          string    `json:"name,omitempty"`
	Frequency     Frequency `json:"frequency"`
	DayOfMonth    int       `json:"day_of_month,omitempty"`
	DayOfWeek     *int      `json:"day_of_week,omitempty"`
	StartDate     string    `json:"start_date,omitempty"` // YYYY-MM-DD
	EndDate       string    `json:"end_date,omitempty"`   // YYYY-MM-DD
	HorizonMonths int       `json:"horizon_months,omitempty"`
	Certainty     string    `json:"certainty,omitempty"`
}

// ============================================================
// Generation results
// ============================================================

// GenerateOptions tunes one generation pass for a template.
type GenerateOptions struct {
	// MonthsAhead is the sliding-window horizon for open-ended templates.
	// Zero means the template's own horizon (default 6 months).
	MonthsAhead int
	// SkipExisting enables the duplicate-detection pass. It is on for
	// every production caller; tests may disable it.
	SkipExisting bool
}

// GenerateResult reports one generation pass over one template.
type GenerateResult struct {
	TemplateID     string   `json:"template_id"`
	Generated      int      `json:"generated"`
	Skipped        int      `json:"skipped"`
	TransactionIDs []string `json:"transaction_ids,omitempty"`
}

// TemplateError records a per-template failure during a batch run.
// Failures never abort the run; they are surfaced for operators.
type TemplateError struct {
	TemplateID string `json:"template_id"`
	Message    string `json:"message"`
}

// RegenerateSummary aggregates a full regeneration run.
type RegenerateSummary struct {
	RecurrencesProcessed int              `json:"recurrences_processed"`
	TotalGenerated       int              `json:"total_generated"`
	TotalSkipped         int              `json:"total_skipped"`
	Details              []GenerateResult `json:"details,omitempty"`
	Errors               []TemplateError  `json:"errors,omitempty"`
}

// GenerationMetrics is the cumulative counter snapshot exposed at
// GET /v1/metrics/generation.
type GenerationMetrics struct {
	TotalRuns      int64   `json:"total_runs"`
	TotalGenerated int64   `json:"total_generated"`
	TotalSkipped   int64   `json:"total_skipped"`
	TotalErrors    int64   `json:"total_errors"`
	ErrorRate      float64 `json:"error_rate"`
	Period         string  `json:"period"`
}
