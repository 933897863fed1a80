package ports

import (
	"context"
	"time"

	"github.com/minicrm/lead-api/internal/core/domain"
)

// ListLeadsInput carries the raw list query. Empty strings mean "no filter".
type ListLeadsInput struct {
	Status string
	Source string
	Search string
	Sort   string // default "-createdAt"
}

// CreateLeadInput carries all data needed to create a lead.
type CreateLeadInput struct {
	Name              string
	Email             string
	Phone             string
	Company           string
	Source            string
	Status            string
	Message           string
	Budget            *float64
	ExpectedCloseDate *time.Time
}

// UpdateLeadInput carries a partial update; nil fields are left unchanged.
// The Clear flags remove the optional field instead.
type UpdateLeadInput struct {
	Name              *string
	Email             *string
	Phone             *string
	Company           *string
	Source            *string
	Status            *string
	Message           *string
	Budget            *float64
	ExpectedCloseDate *time.Time

	ClearBudget            bool
	ClearExpectedCloseDate bool
}

// LeadService defines use-case operations for leads.
type LeadService interface {
	ListLeads(ctx context.Context, input ListLeadsInput) ([]*domain.Lead, error)
	GetLead(ctx context.Context, id string) (*domain.Lead, error)
	CreateLead(ctx context.Context, input CreateLeadInput, author domain.UserRef) (*domain.Lead, error)
	UpdateLead(ctx context.Context, id string, input UpdateLeadInput) (*domain.Lead, error)
	DeleteLead(ctx context.Context, id string) error
	AddNote(ctx context.Context, id, content string, author domain.UserRef) (*domain.Lead, error)
	// ExportLeads renders the leads matching input as a spreadsheet.
	ExportLeads(ctx context.Context, input ListLeadsInput) ([]byte, error)
}

// AnalyticsService computes dashboard metrics over all leads.
type AnalyticsService interface {
	Summary(ctx context.Context) (*domain.Analytics, error)
}

// LeadExporter serialises leads into a downloadable document.
type LeadExporter interface {
	Export(leads []*domain.Lead) ([]byte, error)
}

// PhoneNormalizer returns the E.164 form of a phone number, or "" when it cannot be parsed.
type PhoneNormalizer interface {
	Normalize(phone string) string
}
