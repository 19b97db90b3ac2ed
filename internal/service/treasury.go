package service

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/nordvik/treasury-go/internal/domain"
	"github.com/nordvik/treasury-go/internal/port"
)

// TreasuryService covers the CRUD surface around the recurrence engine:
// accounts, credit lines, alerts and the transaction ledger.
type TreasuryService struct {
	treasury     port.TreasuryStore
	transactions port.TransactionStore
	templates    port.TemplateStore
	generator    *Generator
	logger       *zap.Logger
}

// NewTreasuryService creates the treasury CRUD service.
func NewTreasuryService(
	treasury port.TreasuryStore,
	transactions port.TransactionStore,
	templates port.TemplateStore,
	generator *Generator,
	logger *zap.Logger,
) *TreasuryService {
	return &TreasuryService{
		treasury:     treasury,
		transactions: transactions,
		templates:    templates,
		generator:    generator,
		logger:       logger,
	}
}

func (s *TreasuryService) ListAccounts(ctx context.Context, companyID string) ([]domain.Account, error) {
	ctx, span := tracer.Start(ctx, "TreasuryService.ListAccounts")
	defer span.End()
	return s.treasury.ListAccounts(ctx, companyID)
}

func (s *TreasuryService) GetAccount(ctx context.Context, companyID, accountID string) (*domain.Account, error) {
	ctx, span := tracer.Start(ctx, "TreasuryService.GetAccount")
	defer span.End()
	return s.treasury.GetAccount(ctx, companyID, accountID)
}

func (s *TreasuryService) ListCreditLines(ctx context.Context, companyID string) ([]domain.CreditLine, error) {
	ctx, span := tracer.Start(ctx, "TreasuryService.ListCreditLines")
	defer span.End()
	return s.treasury.ListCreditLines(ctx, companyID)
}

func (s *TreasuryService) ListTransactions(ctx context.Context, companyID, from, to string) ([]domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "TreasuryService.ListTransactions")
	defer span.End()
	return s.transactions.ListTransactions(ctx, companyID, from, to)
}

// CreateTransaction creates a ledger entry. When the request carries a
// recurrence plan, a template is created alongside it, the entry becomes
// the template's first materialized instance, and an immediate
// generation pass fills in the rest of the horizon (skipping the day
// this entry already covers).
func (s *TreasuryService) CreateTransaction(ctx context.Context, companyID, ownerID string, req *domain.TransactionRequest) (*domain.Transaction, *domain.GenerateResult, error) {
	ctx, span := tracer.Start(ctx, "TreasuryService.CreateTransaction")
	defer span.End()
	span.SetAttributes(attribute.String("company.id", companyID))

	if err := validateTransactionRequest(req); err != nil {
		return nil, nil, err
	}
	dueDate, err := parseDay(req.DueDate)
	if err != nil || dueDate.IsZero() {
		return nil, nil, &domain.ErrValidation{Field: "due_date", Message: "must be YYYY-MM-DD"}
	}

	txn := &domain.Transaction{
		ID:             uuid.NewString(),
		CompanyID:      companyID,
		OwnerID:        ownerID,
		AccountID:      req.AccountID,
		DueDate:        dueDate,
		Amount:         req.Amount,
		Direction:      req.Direction,
		Category:       req.Category,
		Description:    req.Description,
		CounterpartyID: req.CounterpartyID,
		Status:         domain.TransactionPending,
	}

	var tpl *domain.RecurrenceTemplate
	if req.Recurring != nil {
		built, err := templateFromRequest(companyID, ownerID, req)
		if err != nil {
			return nil, nil, err
		}
		tpl, err = s.templates.CreateTemplate(ctx, built)
		if err != nil {
			return nil, nil, err
		}
		txn.RecurrenceID = tpl.ID
		txn.IsRecurringInstance = true
		txn.InstanceDate = dueDate.Format("2006-01")
	}

	saved, err := s.transactions.CreateTransaction(ctx, txn)
	if err != nil {
		return nil, nil, err
	}

	// Fill in the rest of the horizon now that the first instance is on
	// the ledger; its day is skipped by duplicate detection.
	var genResult *domain.GenerateResult
	if tpl != nil {
		res, genErr := s.generator.GenerateForTemplate(ctx, tpl, "create", domain.GenerateOptions{SkipExisting: true})
		if genErr != nil {
			// Template and first instance are persisted; the nightly
			// run picks up the remainder.
			s.logger.Warn("initial generation failed for new template",
				zap.String("template_id", tpl.ID),
				zap.Error(genErr),
			)
		} else {
			genResult = res
		}
	}
	return saved, genResult, nil
}

func (s *TreasuryService) ListAlerts(ctx context.Context, companyID string, unackedOnly bool) ([]domain.Alert, error) {
	ctx, span := tracer.Start(ctx, "TreasuryService.ListAlerts")
	defer span.End()
	return s.treasury.ListAlerts(ctx, companyID, unackedOnly)
}

func (s *TreasuryService) CreateAlert(ctx context.Context, companyID string, req *domain.AlertRequest) (*domain.Alert, error) {
	ctx, span := tracer.Start(ctx, "TreasuryService.CreateAlert")
	defer span.End()

	if req.Message == "" {
		return nil, &domain.ErrValidation{Field: "message", Message: "message is required"}
	}
	severity := req.Severity
	if severity == "" {
		severity = "info"
	}
	return s.treasury.CreateAlert(ctx, &domain.Alert{
		ID:        uuid.NewString(),
		CompanyID: companyID,
		Kind:      req.Kind,
		Severity:  severity,
		Message:   req.Message,
	})
}

func (s *TreasuryService) AcknowledgeAlert(ctx context.Context, alertID string) error {
	ctx, span := tracer.Start(ctx, "TreasuryService.AcknowledgeAlert")
	defer span.End()
	return s.treasury.AcknowledgeAlert(ctx, alertID)
}

func validateTransactionRequest(req *domain.TransactionRequest) error {
	if req.Amount <= 0 {
		return &domain.ErrValidation{Field: "amount", Message: "must be positive"}
	}
	if req.Direction != domain.DirectionIncome && req.Direction != domain.DirectionExpense {
		return &domain.ErrValidation{Field: "direction", Message: "must be income or expense"}
	}
	return nil
}
