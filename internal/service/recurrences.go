package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/nordvik/treasury-go/internal/domain"
	"github.com/nordvik/treasury-go/internal/infra/cache"
	"github.com/nordvik/treasury-go/internal/port"
	"github.com/nordvik/treasury-go/internal/recurrence"
)

// RecurrenceService exposes the template CRUD surface and the
// interactive regeneration entry point.
type RecurrenceService struct {
	templates port.TemplateStore
	generator *Generator
	throttle  *cache.Throttle
	clock     port.Clock
	logger    *zap.Logger
}

// NewRecurrenceService creates the recurrence template service.
func NewRecurrenceService(
	templates port.TemplateStore,
	generator *Generator,
	throttle *cache.Throttle,
	clock port.Clock,
	logger *zap.Logger,
) *RecurrenceService {
	return &RecurrenceService{
		templates: templates,
		generator: generator,
		throttle:  throttle,
		clock:     clock,
		logger:    logger,
	}
}

func (s *RecurrenceService) ListTemplates(ctx context.Context, companyID string) ([]domain.RecurrenceTemplate, error) {
	ctx, span := tracer.Start(ctx, "RecurrenceService.ListTemplates")
	defer span.End()
	return s.templates.ListTemplates(ctx, companyID)
}

func (s *RecurrenceService) GetTemplate(ctx context.Context, companyID, templateID string) (*domain.RecurrenceTemplate, error) {
	ctx, span := tracer.Start(ctx, "RecurrenceService.GetTemplate")
	defer span.End()
	return s.templates.GetTemplate(ctx, companyID, templateID)
}

// CreateTemplate validates and persists a template from a plan, then
// runs an immediate generation pass so the ledger reflects it without
// waiting for the nightly job.
func (s *RecurrenceService) CreateTemplate(ctx context.Context, companyID, ownerID string, req *domain.TransactionRequest) (*domain.RecurrenceTemplate, *domain.GenerateResult, error) {
	ctx, span := tracer.Start(ctx, "RecurrenceService.CreateTemplate")
	defer span.End()
	span.SetAttributes(attribute.String("company.id", companyID))

	tpl, err := templateFromRequest(companyID, ownerID, req)
	if err != nil {
		return nil, nil, err
	}

	created, err := s.templates.CreateTemplate(ctx, tpl)
	if err != nil {
		return nil, nil, err
	}

	res, err := s.generator.GenerateForTemplate(ctx, created, "create", domain.GenerateOptions{SkipExisting: true})
	if err != nil {
		// The template is persisted; the nightly run will pick it up.
		s.logger.Warn("initial generation failed for new template",
			zap.String("template_id", created.ID),
			zap.Error(err),
		)
		res = &domain.GenerateResult{TemplateID: created.ID}
	}
	return created, res, nil
}

// SetTemplateStatus drives the pause/resume/end lifecycle. Ended is a
// terminal state.
func (s *RecurrenceService) SetTemplateStatus(ctx context.Context, companyID, templateID, status string) error {
	ctx, span := tracer.Start(ctx, "RecurrenceService.SetTemplateStatus")
	defer span.End()

	if status != domain.TemplateActive && status != domain.TemplatePaused && status != domain.TemplateEnded {
		return &domain.ErrValidation{Field: "status", Message: "must be active, paused or ended"}
	}

	tpl, err := s.templates.GetTemplate(ctx, companyID, templateID)
	if err != nil {
		return err
	}
	if tpl.Status == domain.TemplateEnded {
		return &domain.ErrConflict{Message: "template has ended and cannot change status"}
	}
	return s.templates.UpdateTemplateStatus(ctx, templateID, status)
}

// RegenerateInteractive is the operator-facing regeneration entry
// point. Each company gets one run per throttle window unless force is
// set; generation itself stays duplicate-safe either way.
func (s *RecurrenceService) RegenerateInteractive(ctx context.Context, companyID string, monthsAhead int, force bool) (*domain.RegenerateSummary, error) {
	ctx, span := tracer.Start(ctx, "RecurrenceService.RegenerateInteractive")
	defer span.End()
	span.SetAttributes(attribute.String("company.id", companyID), attribute.Bool("force", force))

	key := "regenerate:" + companyID
	if force {
		s.throttle.Reset(key)
	}
	if ok, retryIn := s.throttle.TryAcquire(key); !ok {
		return nil, &domain.ErrRateLimited{
			Operation: "regenerate",
			RetryIn:   retryIn.Round(time.Second).String(),
		}
	}

	return s.generator.Regenerate(ctx, companyID, "api", monthsAhead)
}

// templateFromRequest builds and validates a template from a
// transaction-creation request carrying a recurrence plan.
func templateFromRequest(companyID, ownerID string, req *domain.TransactionRequest) (*domain.RecurrenceTemplate, error) {
	plan := req.Recurring
	if plan == nil {
		return nil, &domain.ErrValidation{Field: "recurring", Message: "recurrence plan is required"}
	}

	name := plan.Name
	if name == "" {
		name = req.Description
	}
	if name == "" {
		return nil, &domain.ErrValidation{Field: "recurring.name", Message: "name or description is required"}
	}

	startDate, err := parseDay(plan.StartDate)
	if err != nil {
		return nil, &domain.ErrValidation{Field: "recurring.start_date", Message: "must be YYYY-MM-DD"}
	}
	if startDate.IsZero() {
		// Only an omitted start date falls back to the transaction's
		// own due date.
		startDate, err = parseDay(req.DueDate)
		if err != nil {
			return nil, &domain.ErrValidation{Field: "due_date", Message: "must be YYYY-MM-DD"}
		}
	}

	var endDate *time.Time
	if plan.EndDate != "" {
		e, err := parseDay(plan.EndDate)
		if err != nil {
			return nil, &domain.ErrValidation{Field: "recurring.end_date", Message: "must be YYYY-MM-DD"}
		}
		endDate = &e
	}

	certainty := plan.Certainty
	if certainty == "" {
		certainty = domain.CertaintyMedium
	}

	dayOfMonth := plan.DayOfMonth
	if dayOfMonth == 0 && plan.Frequency.NeedsDayOfMonth() {
		dayOfMonth = startDate.Day()
	}
	dayOfWeek := plan.DayOfWeek
	if dayOfWeek == nil && plan.Frequency.NeedsDayOfWeek() {
		wd := int(startDate.Weekday())
		dayOfWeek = &wd
	}

	tpl := &domain.RecurrenceTemplate{
		ID:             uuid.NewString(),
		CompanyID:      companyID,
		OwnerID:        ownerID,
		Name:           name,
		Direction:      req.Direction,
		BaseAmount:     req.Amount,
		Category:       req.Category,
		CounterpartyID: req.CounterpartyID,
		Certainty:      certainty,
		Frequency:      plan.Frequency,
		DayOfMonth:     dayOfMonth,
		DayOfWeek:      dayOfWeek,
		StartDate:      startDate,
		EndDate:        endDate,
		HorizonMonths:  plan.HorizonMonths,
		Status:         domain.TemplateActive,
	}
	if err := tpl.Validate(); err != nil {
		return nil, err
	}
	return tpl, nil
}

func parseDay(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, err
	}
	return recurrence.Day(t), nil
}
