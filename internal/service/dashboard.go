package service

import (
	"context"
	"sort"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nordvik/treasury-go/internal/domain"
	"github.com/nordvik/treasury-go/internal/infra/observability"
	"github.com/nordvik/treasury-go/internal/port"
	"github.com/nordvik/treasury-go/internal/recurrence"
)

// upcomingWindowDays bounds the dashboard's upcoming-occurrences list.
const upcomingWindowDays = 30

// forecastMonths is how many calendar months the dashboard projects.
const forecastMonths = 6

// DashboardService aggregates the treasury dashboard: cash position,
// credit availability, upcoming recurrence occurrences and a monthly
// cashflow forecast.
type DashboardService struct {
	treasury  port.TreasuryStore
	templates port.TemplateStore
	clock     port.Clock
	cache     port.Cache[*domain.Dashboard]
	metrics   *observability.Metrics
	logger    *zap.Logger
}

// NewDashboardService creates the dashboard aggregation service.
func NewDashboardService(
	treasury port.TreasuryStore,
	templates port.TemplateStore,
	clock port.Clock,
	cache port.Cache[*domain.Dashboard],
	metrics *observability.Metrics,
	logger *zap.Logger,
) *DashboardService {
	return &DashboardService{
		treasury:  treasury,
		templates: templates,
		clock:     clock,
		cache:     cache,
		metrics:   metrics,
		logger:    logger,
	}
}

// GetDashboard builds the aggregate view for one company. The three
// store reads fan out concurrently; any failure fails the whole view.
func (s *DashboardService) GetDashboard(ctx context.Context, companyID string) (*domain.Dashboard, error) {
	ctx, span := tracer.Start(ctx, "DashboardService.GetDashboard")
	defer span.End()
	span.SetAttributes(attribute.String("company.id", companyID))

	start := time.Now()
	defer func() { s.metrics.RecordRequestDuration("dashboard", time.Since(start)) }()

	if cached, ok := s.cache.Get(companyID); ok {
		s.metrics.IncrCacheHit("dashboard")
		return cached, nil
	}
	s.metrics.IncrCacheMiss("dashboard")

	var (
		accounts  []domain.Account
		lines     []domain.CreditLine
		templates []domain.RecurrenceTemplate
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		accounts, err = s.treasury.ListAccounts(gctx, companyID)
		return err
	})
	g.Go(func() error {
		var err error
		lines, err = s.treasury.ListCreditLines(gctx, companyID)
		return err
	})
	g.Go(func() error {
		var err error
		templates, err = s.templates.ListActiveTemplates(gctx, companyID)
		return err
	})
	if err := g.Wait(); err != nil {
		s.metrics.IncrStoreError("dashboard")
		return nil, err
	}

	now := recurrence.Day(s.clock.Now())

	var cash float64
	for i := range accounts {
		cash += accounts[i].Balance
	}
	var creditAvail float64
	for i := range lines {
		creditAvail += lines[i].Available()
	}

	dash := &domain.Dashboard{
		CompanyID:    companyID,
		CashPosition: cash,
		CreditAvail:  creditAvail,
		Accounts:     accounts,
		CreditLines:  lines,
		Upcoming:     s.upcoming(templates, now),
		Forecast:     s.forecast(templates, now, cash),
		GeneratedAt:  s.clock.Now(),
	}

	s.cache.Set(companyID, dash)
	return dash, nil
}

// upcoming projects each active template over the next 30 days and
// merges the occurrences into one date-ordered list.
func (s *DashboardService) upcoming(templates []domain.RecurrenceTemplate, now time.Time) []domain.UpcomingOccurrence {
	windowEnd := now.AddDate(0, 0, upcomingWindowDays)

	var out []domain.UpcomingOccurrence
	for i := range templates {
		tpl := &templates[i]
		dates := recurrence.OccurrenceDates(tpl.StartDate, tpl.EndDate, tpl.Frequency, tpl.DayOfMonth, tpl.DayOfWeek, now, windowEnd)
		for _, d := range dates {
			out = append(out, domain.UpcomingOccurrence{
				TemplateID: tpl.ID,
				Name:       tpl.Name,
				DueDate:    d.Format("2006-01-02"),
				Amount:     tpl.BaseAmount,
				Direction:  tpl.Direction,
				Certainty:  tpl.Certainty,
			})
		}
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].DueDate != out[b].DueDate {
			return out[a].DueDate < out[b].DueDate
		}
		return out[a].TemplateID < out[b].TemplateID
	})
	return out
}

// forecast buckets projected occurrences by calendar month and carries
// a running balance forward from the current cash position.
func (s *DashboardService) forecast(templates []domain.RecurrenceTemplate, now time.Time, cash float64) []domain.ForecastBucket {
	horizon := now.AddDate(0, forecastMonths, 0)

	type flows struct{ income, expense float64 }
	byMonth := make(map[string]*flows)

	for i := range templates {
		tpl := &templates[i]
		dates := recurrence.OccurrenceDates(tpl.StartDate, tpl.EndDate, tpl.Frequency, tpl.DayOfMonth, tpl.DayOfWeek, now, horizon)
		for _, d := range dates {
			month := d.Format("2006-01")
			f, ok := byMonth[month]
			if !ok {
				f = &flows{}
				byMonth[month] = f
			}
			if tpl.Direction == domain.DirectionIncome {
				f.income += tpl.BaseAmount
			} else {
				f.expense += tpl.BaseAmount
			}
		}
	}

	buckets := make([]domain.ForecastBucket, 0, forecastMonths)
	running := cash
	cursor := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	for m := 0; m < forecastMonths; m++ {
		month := cursor.Format("2006-01")
		var income, expense float64
		if f, ok := byMonth[month]; ok {
			income, expense = f.income, f.expense
		}
		net := income - expense
		running += net
		buckets = append(buckets, domain.ForecastBucket{
			Month:          month,
			Income:         income,
			Expense:        expense,
			Net:            net,
			RunningBalance: running,
		})
		cursor = cursor.AddDate(0, 1, 0)
	}
	return buckets
}
