package service

import (
	"context"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/minicrm/lead-api/internal/core/domain"
	"github.com/minicrm/lead-api/internal/core/ports"
)

// recentWindowDays is how far back a lead still counts as recent.
const recentWindowDays = 30

type AnalyticsService struct {
	repo   ports.LeadRepository
	logger zerolog.Logger
	now    func() time.Time
}

func NewAnalyticsService(repo ports.LeadRepository, logger zerolog.Logger) *AnalyticsService {
	return &AnalyticsService{repo: repo, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// Summary runs the analytics queries and derives the conversion rate.
func (s *AnalyticsService) Summary(ctx context.Context) (*domain.Analytics, error) {
	var (
		a   domain.Analytics
		err error
	)

	if a.TotalLeads, err = s.repo.Count(ctx); err != nil {
		return nil, err
	}
	if a.NewLeads, err = s.repo.CountByStatus(ctx, domain.StatusNew); err != nil {
		return nil, err
	}
	if a.ContactedLeads, err = s.repo.CountByStatus(ctx, domain.StatusContacted); err != nil {
		return nil, err
	}
	if a.ConvertedLeads, err = s.repo.CountByStatus(ctx, domain.StatusConverted); err != nil {
		return nil, err
	}
	since := s.now().AddDate(0, 0, -recentWindowDays)
	if a.RecentLeads, err = s.repo.CountCreatedSince(ctx, since); err != nil {
		return nil, err
	}
	if a.LeadsBySource, err = s.repo.GroupBySource(ctx); err != nil {
		return nil, err
	}
	if a.LeadsByStatus, err = s.repo.GroupByStatus(ctx); err != nil {
		return nil, err
	}

	a.ConversionRate = conversionRate(a.ConvertedLeads, a.TotalLeads)

	s.logger.Debug().Int64("total", a.TotalLeads).Float64("conversion_rate", a.ConversionRate).Msg("analytics computed")
	return &a, nil
}

// conversionRate returns converted/total as a percentage rounded to two decimals, or 0 when total is 0.
func conversionRate(converted, total int64) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(converted)/float64(total)*100*100) / 100
}
