// Package service implements the business logic of the treasury
// service: recurrence generation, the CRUD surface around it, the
// dashboard aggregation and authentication.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/nordvik/treasury-go/internal/domain"
	"github.com/nordvik/treasury-go/internal/infra/observability"
	"github.com/nordvik/treasury-go/internal/port"
	"github.com/nordvik/treasury-go/internal/recurrence"
)

var tracer = otel.Tracer("service")

// batchChunkSize is the per-insert chunk for generated transactions,
// kept below the store's 500-row bulk ceiling.
const batchChunkSize = 450

// DefaultMonthsAhead is the sliding-window horizon for open-ended
// templates when neither the caller nor the template sets one.
const DefaultMonthsAhead = 6

// Generator materializes ledger transactions from recurrence templates.
// Generation is duplicate-safe: the full sequence is recomputed from the
// template's start date on every run and already-covered calendar days
// are skipped, so a crashed or repeated run never double-books.
type Generator struct {
	templates    port.TemplateStore
	transactions port.TransactionStore
	clock        port.Clock
	metrics      *observability.Metrics
	logger       *zap.Logger
}

// NewGenerator creates a recurrence generation engine.
func NewGenerator(
	templates port.TemplateStore,
	transactions port.TransactionStore,
	clock port.Clock,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *Generator {
	return &Generator{
		templates:    templates,
		transactions: transactions,
		clock:        clock,
		metrics:      metrics,
		logger:       logger,
	}
}

// GenerateForTemplate runs one duplicate-safe generation pass over a
// single template. trigger labels the metrics ("cron", "api", "create").
func (g *Generator) GenerateForTemplate(ctx context.Context, tpl *domain.RecurrenceTemplate, trigger string, opts domain.GenerateOptions) (*domain.GenerateResult, error) {
	ctx, span := tracer.Start(ctx, "Generator.GenerateForTemplate")
	defer span.End()
	span.SetAttributes(
		attribute.String("template.id", tpl.ID),
		attribute.String("template.frequency", string(tpl.Frequency)),
	)

	result := &domain.GenerateResult{TemplateID: tpl.ID}

	if err := tpl.Validate(); err != nil {
		g.metrics.IncrGenerationError("malformed_template")
		return nil, err
	}

	asOf := recurrence.Day(g.clock.Now())

	// A template whose end date has passed transitions to ended and
	// produces nothing, now or on future runs.
	if tpl.EndDate != nil && recurrence.Day(*tpl.EndDate).Before(asOf) {
		if err := g.templates.UpdateTemplateStatus(ctx, tpl.ID, domain.TemplateEnded); err != nil {
			g.metrics.IncrGenerationError("store")
			return nil, err
		}
		g.logger.Info("recurrence template ended",
			zap.String("template_id", tpl.ID),
			zap.Time("end_date", *tpl.EndDate),
		)
		return result, nil
	}

	if tpl.Status != domain.TemplateActive {
		return result, nil
	}

	horizon := g.horizonFor(tpl, asOf, opts.MonthsAhead)
	dates := recurrence.OccurrenceDates(tpl.StartDate, tpl.EndDate, tpl.Frequency, tpl.DayOfMonth, tpl.DayOfWeek, asOf, horizon)
	if len(dates) == 0 {
		return result, nil
	}

	covered := map[string]bool{}
	if opts.SkipExisting {
		var err error
		covered, err = g.coveredDays(ctx, tpl)
		if err != nil {
			g.metrics.IncrGenerationError("store")
			return nil, err
		}
	}

	batch := make([]domain.Transaction, 0, len(dates))
	for _, d := range dates {
		key := d.Format("2006-01-02")
		if covered[key] {
			result.Skipped++
			continue
		}
		txn := g.instanceFor(tpl, d)
		batch = append(batch, txn)
		result.TransactionIDs = append(result.TransactionIDs, txn.ID)
	}

	if err := g.insertInChunks(ctx, batch); err != nil {
		g.metrics.IncrGenerationError("store")
		return nil, err
	}
	result.Generated = len(batch)

	// Informational pointers only; the next run recomputes from
	// start_date regardless.
	last := dates[len(dates)-1]
	next := recurrence.NextOccurrence(last, tpl.Frequency, tpl.DayOfMonth)
	if err := g.templates.UpdateTemplateBookkeeping(ctx, tpl.ID, last, next); err != nil {
		g.logger.Warn("failed to update template bookkeeping",
			zap.String("template_id", tpl.ID),
			zap.Error(err),
		)
	}

	g.metrics.RecordGeneration(trigger, result.Generated, result.Skipped)
	g.logger.Info("generation pass complete",
		zap.String("template_id", tpl.ID),
		zap.String("trigger", trigger),
		zap.Int("generated", result.Generated),
		zap.Int("skipped", result.Skipped),
	)
	return result, nil
}

// Regenerate runs a generation pass over every active template,
// optionally scoped to one company (empty companyID = all). A failing
// template is recorded and the run continues; Regenerate itself only
// fails when the template list cannot be loaded.
func (g *Generator) Regenerate(ctx context.Context, companyID, trigger string, monthsAhead int) (*domain.RegenerateSummary, error) {
	ctx, span := tracer.Start(ctx, "Generator.Regenerate")
	defer span.End()
	span.SetAttributes(attribute.String("company.id", companyID))

	start := time.Now()
	g.metrics.IncrGenerationRun(trigger)

	templates, err := g.templates.ListActiveTemplates(ctx, companyID)
	if err != nil {
		g.metrics.IncrStoreError("templates")
		return nil, err
	}

	summary := &domain.RegenerateSummary{}
	for i := range templates {
		tpl := &templates[i]
		summary.RecurrencesProcessed++

		res, err := g.GenerateForTemplate(ctx, tpl, trigger, domain.GenerateOptions{
			MonthsAhead:  monthsAhead,
			SkipExisting: true,
		})
		if err != nil {
			g.logger.Error("template generation failed",
				zap.String("template_id", tpl.ID),
				zap.Error(err),
			)
			summary.Errors = append(summary.Errors, domain.TemplateError{
				TemplateID: tpl.ID,
				Message:    err.Error(),
			})
			continue
		}
		summary.TotalGenerated += res.Generated
		summary.TotalSkipped += res.Skipped
		summary.Details = append(summary.Details, *res)
	}

	g.metrics.RecordRequestDuration("regenerate", time.Since(start))
	g.logger.Info("regeneration run complete",
		zap.String("company_id", companyID),
		zap.String("trigger", trigger),
		zap.Int("processed", summary.RecurrencesProcessed),
		zap.Int("generated", summary.TotalGenerated),
		zap.Int("skipped", summary.TotalSkipped),
		zap.Int("errors", len(summary.Errors)),
	)
	return summary, nil
}

// horizonFor resolves the effective generation bound. Templates with an
// end date generate through it; open-ended templates use a sliding
// window of monthsAhead from today.
func (g *Generator) horizonFor(tpl *domain.RecurrenceTemplate, asOf time.Time, monthsAhead int) time.Time {
	if tpl.EndDate != nil {
		return recurrence.Day(*tpl.EndDate)
	}
	if monthsAhead <= 0 {
		monthsAhead = tpl.HorizonMonths
	}
	if monthsAhead <= 0 {
		monthsAhead = DefaultMonthsAhead
	}
	return asOf.AddDate(0, monthsAhead, 0)
}

// coveredDays builds the set of calendar days already holding an
// instance of this obligation. Two queries feed it: instances linked to
// this template, and transactions matching the template's owner,
// company, counterparty (or description), direction and amount —
// catching manual entries and instances from duplicated templates.
func (g *Generator) coveredDays(ctx context.Context, tpl *domain.RecurrenceTemplate) (map[string]bool, error) {
	covered := make(map[string]bool)

	linked, err := g.transactions.ListByRecurrence(ctx, tpl.ID)
	if err != nil {
		return nil, fmt.Errorf("list by recurrence: %w", err)
	}
	for i := range linked {
		covered[linked[i].DayKey()] = true
	}

	matching, err := g.transactions.ListMatching(ctx, tpl.MatchKey())
	if err != nil {
		return nil, fmt.Errorf("list matching: %w", err)
	}
	for i := range matching {
		covered[matching[i].DayKey()] = true
	}
	return covered, nil
}

func (g *Generator) instanceFor(tpl *domain.RecurrenceTemplate, due time.Time) domain.Transaction {
	return domain.Transaction{
		ID:                  uuid.NewString(),
		CompanyID:           tpl.CompanyID,
		OwnerID:             tpl.OwnerID,
		DueDate:             due,
		Amount:              tpl.BaseAmount,
		Direction:           tpl.Direction,
		Category:            tpl.Category,
		Description:         tpl.Name,
		CounterpartyID:      tpl.CounterpartyID,
		Status:              domain.TransactionPending,
		RecurrenceID:        tpl.ID,
		IsRecurringInstance: true,
		InstanceDate:        due.Format("2006-01"),
	}
}

// insertInChunks writes the batch in chunks below the store's bulk
// ceiling. Each chunk is atomic on the store side; a chunk failure
// stops the pass and the next run re-covers whatever did land.
func (g *Generator) insertInChunks(ctx context.Context, batch []domain.Transaction) error {
	for start := 0; start < len(batch); start += batchChunkSize {
		end := start + batchChunkSize
		if end > len(batch) {
			end = len(batch)
		}
		if err := g.transactions.BatchInsertTransactions(ctx, batch[start:end]); err != nil {
			return fmt.Errorf("insert chunk [%d:%d]: %w", start, end, err)
		}
	}
	return nil
}
