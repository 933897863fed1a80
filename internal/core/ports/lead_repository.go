package ports

import (
	"context"
	"time"

	"github.com/minicrm/lead-api/internal/core/domain"
)

// LeadSort names the field a lead listing is ordered by.
type LeadSort struct {
	Field string // one of the whitelisted sort fields, e.g. "createdAt"
	Desc  bool
}

// ListLeadsFilter carries the parsed query parameters for listing leads.
// All set criteria are combined with AND.
type ListLeadsFilter struct {
	Status *domain.LeadStatus // optional exact match
	Source *domain.LeadSource // optional exact match
	Search string             // optional case-insensitive substring on name, email or company
	Sort   LeadSort
}

// LeadRepository defines persistence operations for leads and their notes.
type LeadRepository interface {
	// Create stores l and sets its generated ID.
	Create(ctx context.Context, l *domain.Lead) error
	// FindByID returns domain.ErrLeadNotFound when id is unknown or malformed.
	FindByID(ctx context.Context, id string) (*domain.Lead, error)
	List(ctx context.Context, filter ListLeadsFilter) ([]*domain.Lead, error)
	// Update applies patch and sets updatedAt in one operation and returns the stored lead.
	Update(ctx context.Context, id string, patch *domain.LeadPatch, updatedAt time.Time) (*domain.Lead, error)
	Delete(ctx context.Context, id string) error
	// AppendNote atomically pushes note and refreshes updatedAt.
	AppendNote(ctx context.Context, id string, note domain.Note, updatedAt time.Time) (*domain.Lead, error)

	Count(ctx context.Context) (int64, error)
	CountByStatus(ctx context.Context, status domain.LeadStatus) (int64, error)
	CountCreatedSince(ctx context.Context, since time.Time) (int64, error)
	GroupBySource(ctx context.Context) ([]domain.GroupCount, error)
	GroupByStatus(ctx context.Context) ([]domain.GroupCount, error)
}
