package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/minicrm/lead-api/internal/core/domain"
)

func seedLead(repo *stubLeadRepo, status domain.LeadStatus, source domain.LeadSource, createdAt time.Time) {
	_ = repo.Create(context.Background(), &domain.Lead{
		Name: "x", Email: "x@y.com", Status: status, Source: source,
		CreatedAt: createdAt, UpdatedAt: createdAt,
	})
}

func TestAnalyticsService_Empty(t *testing.T) {
	svc := NewAnalyticsService(newStubLeadRepo(), discardLogger)

	a, err := svc.Summary(context.Background())
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if a.TotalLeads != 0 || a.ConversionRate != 0 {
		t.Errorf("expected zero analytics, got %+v", a)
	}
	if len(a.LeadsBySource) != 0 || len(a.LeadsByStatus) != 0 {
		t.Error("expected empty groupings")
	}
}

func TestAnalyticsService_Summary(t *testing.T) {
	now := time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC)
	repo := newStubLeadRepo()
	svc := NewAnalyticsService(repo, discardLogger)
	svc.now = func() time.Time { return now }

	seedLead(repo, domain.StatusNew, domain.SourceWebsite, now.AddDate(0, 0, -1))
	seedLead(repo, domain.StatusNew, domain.SourceWebsite, now.AddDate(0, 0, -30)) // boundary is inclusive
	seedLead(repo, domain.StatusContacted, domain.SourceReferral, now.AddDate(0, 0, -31))
	seedLead(repo, domain.StatusConverted, domain.SourceReferral, now.AddDate(0, -3, 0))
	seedLead(repo, domain.StatusConverted, domain.SourceOther, now.AddDate(0, 0, -2))
	seedLead(repo, domain.StatusLost, domain.SourceEmailCampaign, now.AddDate(0, 0, -5))

	a, err := svc.Summary(context.Background())
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}

	if a.TotalLeads != 6 || a.NewLeads != 2 || a.ContactedLeads != 1 || a.ConvertedLeads != 2 {
		t.Errorf("unexpected counts: %+v", a)
	}
	if a.RecentLeads != 4 {
		t.Errorf("expected 4 recent leads, got %d", a.RecentLeads)
	}
	if a.ConversionRate != 33.33 {
		t.Errorf("expected conversion rate 33.33, got %v", a.ConversionRate)
	}

	var sum int64
	for _, g := range a.LeadsBySource {
		sum += g.Count
	}
	if sum != a.TotalLeads {
		t.Errorf("source buckets sum to %d, want %d", sum, a.TotalLeads)
	}
	if a.LeadsBySource[0].Key != "Referral" || a.LeadsBySource[1].Key != "Website" {
		t.Errorf("sources not ordered by count then name: %+v", a.LeadsBySource)
	}
	for i := 1; i < len(a.LeadsBySource); i++ {
		if a.LeadsBySource[i].Count > a.LeadsBySource[i-1].Count {
			t.Errorf("sources not sorted by count desc: %+v", a.LeadsBySource)
		}
	}
}

func TestAnalyticsService_RepoError(t *testing.T) {
	repo := newStubLeadRepo()
	repo.err = errors.New("db down")
	svc := NewAnalyticsService(repo, discardLogger)

	if _, err := svc.Summary(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestConversionRate(t *testing.T) {
	cases := []struct {
		converted, total int64
		want             float64
	}{
		{0, 0, 0},
		{1, 3, 33.33},
		{2, 3, 66.67},
		{1, 8, 12.5},
		{5, 5, 100},
	}
	for _, tc := range cases {
		if got := conversionRate(tc.converted, tc.total); got != tc.want {
			t.Errorf("conversionRate(%d, %d) = %v, want %v", tc.converted, tc.total, got, tc.want)
		}
	}
}
