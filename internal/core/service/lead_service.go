package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/minicrm/lead-api/internal/core/domain"
	"github.com/minicrm/lead-api/internal/core/ports"
)

const defaultLeadSort = "-createdAt"

// sortableFields whitelists the lead fields a listing may be ordered by.
var sortableFields = map[string]bool{
	"name":              true,
	"email":             true,
	"company":           true,
	"source":            true,
	"status":            true,
	"budget":            true,
	"createdAt":         true,
	"updatedAt":         true,
	"expectedCloseDate": true,
}

type LeadService struct {
	repo     ports.LeadRepository
	users    ports.AuthRepository
	phones   ports.PhoneNormalizer
	exporter ports.LeadExporter
	logger   zerolog.Logger
	now      func() time.Time
}

// NewLeadService wires the lead use cases. phones and exporter may be nil, in
// which case phone normalisation is skipped and ExportLeads fails.
func NewLeadService(repo ports.LeadRepository, users ports.AuthRepository, phones ports.PhoneNormalizer, exporter ports.LeadExporter, logger zerolog.Logger) *LeadService {
	return &LeadService{
		repo:     repo,
		users:    users,
		phones:   phones,
		exporter: exporter,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	}
}

func (s *LeadService) ListLeads(ctx context.Context, input ports.ListLeadsInput) ([]*domain.Lead, error) {
	filter, err := parseListInput(input)
	if err != nil {
		return nil, err
	}

	leads, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if err := s.resolveAuthors(ctx, leads...); err != nil {
		return nil, err
	}
	return leads, nil
}

func (s *LeadService) GetLead(ctx context.Context, id string) (*domain.Lead, error) {
	lead, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.resolveAuthors(ctx, lead); err != nil {
		return nil, err
	}
	return lead, nil
}

// CreateLead validates input, applies defaults and stores a new lead owned by author.
func (s *LeadService) CreateLead(ctx context.Context, input ports.CreateLeadInput, author domain.UserRef) (*domain.Lead, error) {
	lead, err := domain.NewLead(
		input.Name, input.Email, input.Phone, input.Company,
		input.Source, input.Status, input.Message,
		input.Budget, input.ExpectedCloseDate, author, s.now(),
	)
	if err != nil {
		return nil, err
	}
	lead.PhoneE164 = s.normalizePhone(lead.Phone)

	if err := s.repo.Create(ctx, lead); err != nil {
		s.logger.Error().Err(err).Msg("failed to create lead")
		return nil, err
	}

	s.logger.Info().Str("lead_id", lead.ID).Str("source", string(lead.Source)).Str("created_by", author.ID).Msg("lead created")
	return lead, nil
}

// UpdateLead validates and applies the supplied fields. createdAt and createdBy are never touched.
func (s *LeadService) UpdateLead(ctx context.Context, id string, input ports.UpdateLeadInput) (*domain.Lead, error) {
	patch, err := domain.NewLeadPatch(
		input.Name, input.Email, input.Phone, input.Company,
		input.Source, input.Status, input.Message,
		input.Budget, input.ExpectedCloseDate,
	)
	if err != nil {
		return nil, err
	}
	patch.Clear(input.ClearBudget, input.ClearExpectedCloseDate)
	if patch.Phone != nil {
		e164 := s.normalizePhone(*patch.Phone)
		patch.PhoneE164 = &e164
	}

	lead, err := s.repo.Update(ctx, id, patch, s.now())
	if err != nil {
		if !errors.Is(err, domain.ErrLeadNotFound) {
			s.logger.Error().Err(err).Str("lead_id", id).Msg("failed to update lead")
		}
		return nil, err
	}

	s.logger.Info().Str("lead_id", id).Str("status", string(lead.Status)).Msg("lead updated")
	return lead, nil
}

func (s *LeadService) DeleteLead(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Str("lead_id", id).Msg("lead deleted")
	return nil
}

// AddNote appends a note by author to the lead and returns the lead with authors resolved.
func (s *LeadService) AddNote(ctx context.Context, id, content string, author domain.UserRef) (*domain.Lead, error) {
	note, err := domain.NewNote(content, author, s.now())
	if err != nil {
		return nil, err
	}

	lead, err := s.repo.AppendNote(ctx, id, *note, note.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := s.resolveAuthors(ctx, lead); err != nil {
		return nil, err
	}

	s.logger.Info().Str("lead_id", id).Int("notes", len(lead.Notes)).Msg("note added")
	return lead, nil
}

func (s *LeadService) ExportLeads(ctx context.Context, input ports.ListLeadsInput) ([]byte, error) {
	if s.exporter == nil {
		return nil, errors.New("lead export is not configured")
	}
	leads, err := s.ListLeads(ctx, input)
	if err != nil {
		return nil, err
	}
	out, err := s.exporter.Export(leads)
	if err != nil {
		s.logger.Error().Err(err).Int("leads", len(leads)).Msg("failed to export leads")
		return nil, err
	}
	return out, nil
}

func (s *LeadService) normalizePhone(phone string) string {
	if s.phones == nil || phone == "" {
		return ""
	}
	return s.phones.Normalize(phone)
}

// resolveAuthors fills in name and email on every createdBy reference of the
// given leads and their notes. Unknown users keep their bare ID.
func (s *LeadService) resolveAuthors(ctx context.Context, leads ...*domain.Lead) error {
	if s.users == nil {
		return nil
	}

	seen := make(map[string]bool)
	var ids []string
	collect := func(ref domain.UserRef) {
		if ref.ID != "" && !seen[ref.ID] {
			seen[ref.ID] = true
			ids = append(ids, ref.ID)
		}
	}
	for _, l := range leads {
		collect(l.CreatedBy)
		for _, n := range l.Notes {
			collect(n.CreatedBy)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	users, err := s.users.FindByIDs(ctx, ids)
	if err != nil {
		return err
	}

	resolve := func(ref *domain.UserRef) {
		if u, ok := users[ref.ID]; ok {
			*ref = u.Ref()
		}
	}
	for _, l := range leads {
		resolve(&l.CreatedBy)
		for i := range l.Notes {
			resolve(&l.Notes[i].CreatedBy)
		}
	}
	return nil
}

// parseListInput turns raw query values into a repository filter, rejecting
// unknown enum values and sort fields.
func parseListInput(input ports.ListLeadsInput) (ports.ListLeadsFilter, error) {
	ve := &domain.ValidationError{}
	filter := ports.ListLeadsFilter{Search: strings.TrimSpace(input.Search)}

	if v := strings.TrimSpace(input.Status); v != "" {
		st, ok := domain.ParseLeadStatus(v)
		if !ok {
			ve.Add("status", "Invalid status")
		}
		filter.Status = &st
	}
	if v := strings.TrimSpace(input.Source); v != "" {
		src, ok := domain.ParseLeadSource(v)
		if !ok {
			ve.Add("source", "Invalid source")
		}
		filter.Source = &src
	}

	sort := strings.TrimSpace(input.Sort)
	if sort == "" {
		sort = defaultLeadSort
	}
	field := strings.TrimPrefix(sort, "-")
	if !sortableFields[field] {
		ve.Add("sort", "Invalid sort field")
	}
	filter.Sort = ports.LeadSort{Field: field, Desc: strings.HasPrefix(sort, "-")}

	if ve.HasErrors() {
		return ports.ListLeadsFilter{}, ve
	}
	return filter, nil
}
