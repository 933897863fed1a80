package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/minicrm/lead-api/internal/core/domain"
	"github.com/minicrm/lead-api/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory stub repositories
// ---------------------------------------------------------------------------

type stubLeadRepo struct {
	mu      sync.Mutex
	leads   map[string]*domain.Lead
	seq     int
	err     error // if set, every call returns this error
	lastFlt ports.ListLeadsFilter

	updates int // Update calls
	appends int // AppendNote calls
}

func newStubLeadRepo() *stubLeadRepo {
	return &stubLeadRepo{leads: make(map[string]*domain.Lead)}
}

func cloneLead(l *domain.Lead) *domain.Lead {
	clone := *l
	clone.Notes = append([]domain.Note{}, l.Notes...)
	return &clone
}

func (r *stubLeadRepo) Create(_ context.Context, l *domain.Lead) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.seq++
	l.ID = fmt.Sprintf("%024x", r.seq)
	r.leads[l.ID] = cloneLead(l)
	return nil
}

func (r *stubLeadRepo) FindByID(_ context.Context, id string) (*domain.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	l, ok := r.leads[id]
	if !ok {
		return nil, domain.ErrLeadNotFound
	}
	return cloneLead(l), nil
}

func (r *stubLeadRepo) List(_ context.Context, f ports.ListLeadsFilter) ([]*domain.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	r.lastFlt = f

	out := []*domain.Lead{}
	q := strings.ToLower(f.Search)
	for _, l := range r.leads {
		if f.Status != nil && l.Status != *f.Status {
			continue
		}
		if f.Source != nil && l.Source != *f.Source {
			continue
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(l.Name), q) &&
			!strings.Contains(strings.ToLower(l.Email), q) &&
			!strings.Contains(strings.ToLower(l.Company), q) {
			continue
		}
		out = append(out, cloneLead(l))
	}
	sort.Slice(out, func(i, j int) bool {
		if f.Sort.Desc {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *stubLeadRepo) Update(_ context.Context, id string, p *domain.LeadPatch, updatedAt time.Time) (*domain.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	r.updates++
	l, ok := r.leads[id]
	if !ok {
		return nil, domain.ErrLeadNotFound
	}
	if p.Name != nil {
		l.Name = *p.Name
	}
	if p.Email != nil {
		l.Email = *p.Email
	}
	if p.Phone != nil {
		l.Phone = *p.Phone
	}
	if p.PhoneE164 != nil {
		l.PhoneE164 = *p.PhoneE164
	}
	if p.Company != nil {
		l.Company = *p.Company
	}
	if p.Source != nil {
		l.Source = *p.Source
	}
	if p.Status != nil {
		l.Status = *p.Status
	}
	if p.Message != nil {
		l.Message = *p.Message
	}
	if p.Budget != nil {
		l.Budget = p.Budget
	}
	if p.ExpectedCloseDate != nil {
		l.ExpectedCloseDate = p.ExpectedCloseDate
	}
	if p.ClearBudget {
		l.Budget = nil
	}
	if p.ClearExpectedCloseDate {
		l.ExpectedCloseDate = nil
	}
	l.UpdatedAt = updatedAt
	return cloneLead(l), nil
}

func (r *stubLeadRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	if _, ok := r.leads[id]; !ok {
		return domain.ErrLeadNotFound
	}
	delete(r.leads, id)
	return nil
}

func (r *stubLeadRepo) AppendNote(_ context.Context, id string, note domain.Note, updatedAt time.Time) (*domain.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	r.appends++
	l, ok := r.leads[id]
	if !ok {
		return nil, domain.ErrLeadNotFound
	}
	l.Notes = append(l.Notes, note)
	l.UpdatedAt = updatedAt
	return cloneLead(l), nil
}

func (r *stubLeadRepo) Count(_ context.Context) (int64, error) {
	if r.err != nil {
		return 0, r.err
	}
	return int64(len(r.leads)), nil
}

func (r *stubLeadRepo) CountByStatus(_ context.Context, status domain.LeadStatus) (int64, error) {
	if r.err != nil {
		return 0, r.err
	}
	var n int64
	for _, l := range r.leads {
		if l.Status == status {
			n++
		}
	}
	return n, nil
}

func (r *stubLeadRepo) CountCreatedSince(_ context.Context, since time.Time) (int64, error) {
	if r.err != nil {
		return 0, r.err
	}
	var n int64
	for _, l := range r.leads {
		if !l.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (r *stubLeadRepo) GroupBySource(_ context.Context) ([]domain.GroupCount, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.group(func(l *domain.Lead) string { return string(l.Source) }), nil
}

func (r *stubLeadRepo) GroupByStatus(_ context.Context) ([]domain.GroupCount, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.group(func(l *domain.Lead) string { return string(l.Status) }), nil
}

func (r *stubLeadRepo) group(key func(*domain.Lead) string) []domain.GroupCount {
	counts := map[string]int64{}
	for _, l := range r.leads {
		counts[key(l)]++
	}
	out := make([]domain.GroupCount, 0, len(counts))
	for k, n := range counts {
		out = append(out, domain.GroupCount{Key: k, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key < out[j].Key
	})
	return out
}

type stubAuthRepo struct {
	users map[string]*domain.User // keyed by email
	seq   int
}

func newStubAuthRepo() *stubAuthRepo {
	return &stubAuthRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubAuthRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	if _, exists := r.users[user.Email]; exists {
		return nil, domain.ErrUserExists
	}
	r.seq++
	copy := cloneUser(user)
	if copy.ID == "" {
		copy.ID = fmt.Sprintf("user-%d", r.seq)
	}
	r.users[copy.Email] = cloneUser(copy)
	return cloneUser(copy), nil
}

func (r *stubAuthRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	u, ok := r.users[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubAuthRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	for _, u := range r.users {
		if u.ID == id {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubAuthRepo) FindByIDs(_ context.Context, ids []string) (map[string]*domain.User, error) {
	out := make(map[string]*domain.User)
	for _, id := range ids {
		for _, u := range r.users {
			if u.ID == id {
				out[id] = cloneUser(u)
			}
		}
	}
	return out, nil
}

type stubBlacklist struct {
	revoked map[string]time.Time
}

func newStubBlacklist() *stubBlacklist {
	return &stubBlacklist{revoked: make(map[string]time.Time)}
}

func (b *stubBlacklist) Revoke(_ context.Context, tokenID string, until time.Time) error {
	b.revoked[tokenID] = until
	return nil
}

func (b *stubBlacklist) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	_, ok := b.revoked[tokenID]
	return ok, nil
}

type stubPhones struct{}

func (stubPhones) Normalize(phone string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)
	if len(digits) < 10 {
		return ""
	}
	return "+" + digits
}

type stubExporter struct {
	got []*domain.Lead
}

func (e *stubExporter) Export(leads []*domain.Lead) ([]byte, error) {
	e.got = leads
	return []byte("xlsx"), nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

var discardLogger = zerolog.Nop()

func ptr[T any](v T) *T { return &v }
