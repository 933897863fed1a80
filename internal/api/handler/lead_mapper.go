package handler

import (
	"github.com/minicrm/lead-api/internal/core/domain"
	"github.com/minicrm/lead-api/internal/core/ports"
)

func toCreateLeadInput(r createLeadRequest) ports.CreateLeadInput {
	return ports.CreateLeadInput{
		Name:              r.Name,
		Email:             r.Email,
		Phone:             r.Phone,
		Company:           r.Company,
		Source:            r.Source,
		Status:            r.Status,
		Message:           r.Message,
		Budget:            r.Budget.Value,
		ExpectedCloseDate: r.ExpectedCloseDate.Value,
	}
}

func toUpdateLeadInput(r updateLeadRequest) ports.UpdateLeadInput {
	return ports.UpdateLeadInput{
		Name:              r.Name,
		Email:             r.Email,
		Phone:             r.Phone,
		Company:           r.Company,
		Source:            r.Source,
		Status:            r.Status,
		Message:           r.Message,
		Budget:            r.Budget.Value,
		ExpectedCloseDate: r.ExpectedCloseDate.Value,

		ClearBudget:            r.Budget.cleared(),
		ClearExpectedCloseDate: r.ExpectedCloseDate.cleared(),
	}
}

func toListLeadsInput(q listLeadsQuery) ports.ListLeadsInput {
	return ports.ListLeadsInput{Status: q.Status, Source: q.Source, Search: q.Search, Sort: q.Sort}
}

func toUserRefResponse(ref domain.UserRef) *userRefResponse {
	if ref.ID == "" {
		return nil
	}
	return &userRefResponse{ID: ref.ID, Name: ref.Name, Email: ref.Email}
}

func toLeadResponse(l *domain.Lead) leadResponse {
	notes := make([]noteResponse, 0, len(l.Notes))
	for _, n := range l.Notes {
		notes = append(notes, noteResponse{
			Content:   n.Content,
			CreatedBy: toUserRefResponse(n.CreatedBy),
			CreatedAt: n.CreatedAt,
		})
	}
	return leadResponse{
		ID:                l.ID,
		Name:              l.Name,
		Email:             l.Email,
		Phone:             l.Phone,
		PhoneE164:         l.PhoneE164,
		Company:           l.Company,
		Source:            string(l.Source),
		Status:            string(l.Status),
		Message:           l.Message,
		Budget:            l.Budget,
		ExpectedCloseDate: l.ExpectedCloseDate,
		CreatedBy:         toUserRefResponse(l.CreatedBy),
		Notes:             notes,
		CreatedAt:         l.CreatedAt,
		UpdatedAt:         l.UpdatedAt,
	}
}

func toLeadResponses(leads []*domain.Lead) []leadResponse {
	out := make([]leadResponse, 0, len(leads))
	for _, l := range leads {
		out = append(out, toLeadResponse(l))
	}
	return out
}

func toGroupCounts(groups []domain.GroupCount) []groupCountResponse {
	out := make([]groupCountResponse, 0, len(groups))
	for _, g := range groups {
		out = append(out, groupCountResponse{ID: g.Key, Count: g.Count})
	}
	return out
}

func toAnalyticsResponse(a *domain.Analytics) analyticsResponse {
	return analyticsResponse{
		TotalLeads:     a.TotalLeads,
		NewLeads:       a.NewLeads,
		ContactedLeads: a.ContactedLeads,
		ConvertedLeads: a.ConvertedLeads,
		ConversionRate: a.ConversionRate,
		RecentLeads:    a.RecentLeads,
		LeadsBySource:  toGroupCounts(a.LeadsBySource),
		LeadsByStatus:  toGroupCounts(a.LeadsByStatus),
	}
}
