package domain

import (
	"regexp"
	"strings"
	"time"
)

// LeadSource is the channel a lead arrived through.
type LeadSource string

const (
	SourceWebsite       LeadSource = "Website"
	SourceReferral      LeadSource = "Referral"
	SourceSocialMedia   LeadSource = "Social Media"
	SourceEmailCampaign LeadSource = "Email Campaign"
	SourceOther         LeadSource = "Other"
)

// LeadSources lists every valid source in display order.
var LeadSources = []LeadSource{
	SourceWebsite,
	SourceReferral,
	SourceSocialMedia,
	SourceEmailCampaign,
	SourceOther,
}

// ParseLeadSource returns the source named by s, or false when s is not one of LeadSources.
func ParseLeadSource(s string) (LeadSource, bool) {
	for _, src := range LeadSources {
		if string(src) == s {
			return src, true
		}
	}
	return "", false
}

// LeadStatus is the position of a lead in the sales pipeline.
type LeadStatus string

const (
	StatusNew       LeadStatus = "new"
	StatusContacted LeadStatus = "contacted"
	StatusQualified LeadStatus = "qualified"
	StatusProposal  LeadStatus = "proposal"
	StatusConverted LeadStatus = "converted"
	StatusLost      LeadStatus = "lost"
)

// LeadStatuses lists every valid status in pipeline order.
var LeadStatuses = []LeadStatus{
	StatusNew,
	StatusContacted,
	StatusQualified,
	StatusProposal,
	StatusConverted,
	StatusLost,
}

// ParseLeadStatus returns the status named by s, or false when s is not one of LeadStatuses.
func ParseLeadStatus(s string) (LeadStatus, bool) {
	for _, st := range LeadStatuses {
		if string(st) == s {
			return st, true
		}
	}
	return "", false
}

var emailPattern = regexp.MustCompile(`^\w+([.-]?\w+)*@\w+([.-]?\w+)*(\.\w{2,3})+$`)

// ValidEmail reports whether s is an acceptable lead email address.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// UserRef points at the user who authored a lead or note. Name and Email are
// only populated once the reference has been resolved against the user store.
type UserRef struct {
	ID    string
	Name  string
	Email string
}

// Note is a timestamped comment owned by exactly one lead.
type Note struct {
	Content   string
	CreatedBy UserRef
	CreatedAt time.Time
}

// Lead is the core aggregate root. Notes are embedded and kept in append order.
type Lead struct {
	ID                string
	Name              string
	Email             string
	Phone             string
	PhoneE164         string
	Company           string
	Source            LeadSource
	Status            LeadStatus
	Message           string
	Budget            *float64
	ExpectedCloseDate *time.Time
	CreatedBy         UserRef
	CreatedAt         time.Time
	UpdatedAt         time.Time
	Notes             []Note
}

// NewLead builds a lead from caller-supplied values, trimming text fields and
// applying the Website / new defaults for empty source and status. It returns a
// *ValidationError when a required field is missing or an enum value is unknown.
func NewLead(name, email, phone, company, source, status, message string, budget *float64, closeDate *time.Time, author UserRef, now time.Time) (*Lead, error) {
	ve := &ValidationError{}

	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)

	if name == "" {
		ve.Add("name", "Please provide a name")
	}
	switch {
	case email == "":
		ve.Add("email", "Please provide an email")
	case !ValidEmail(email):
		ve.Add("email", "Please provide a valid email")
	}

	src := SourceWebsite
	if s := strings.TrimSpace(source); s != "" {
		parsed, ok := ParseLeadSource(s)
		if !ok {
			ve.Add("source", "Invalid source")
		}
		src = parsed
	}

	st := StatusNew
	if s := strings.TrimSpace(status); s != "" {
		parsed, ok := ParseLeadStatus(s)
		if !ok {
			ve.Add("status", "Invalid status")
		}
		st = parsed
	}

	if ve.HasErrors() {
		return nil, ve
	}

	return &Lead{
		Name:              name,
		Email:             email,
		Phone:             strings.TrimSpace(phone),
		Company:           strings.TrimSpace(company),
		Source:            src,
		Status:            st,
		Message:           strings.TrimSpace(message),
		Budget:            budget,
		ExpectedCloseDate: closeDate,
		CreatedBy:         author,
		CreatedAt:         now,
		UpdatedAt:         now,
		Notes:             []Note{},
	}, nil
}

// LeadPatch holds the fields supplied to an update. Nil means "leave unchanged";
// ClearBudget and ClearExpectedCloseDate remove the field from the lead.
type LeadPatch struct {
	Name              *string
	Email             *string
	Phone             *string
	PhoneE164         *string
	Company           *string
	Source            *LeadSource
	Status            *LeadStatus
	Message           *string
	Budget            *float64
	ExpectedCloseDate *time.Time

	ClearBudget            bool
	ClearExpectedCloseDate bool
}

// NewLeadPatch validates the supplied raw values with the same rules as NewLead
// and returns a typed patch. Absent (nil) fields are not validated.
func NewLeadPatch(name, email, phone, company, source, status, message *string, budget *float64, closeDate *time.Time) (*LeadPatch, error) {
	ve := &ValidationError{}
	p := &LeadPatch{Budget: budget, ExpectedCloseDate: closeDate}

	if name != nil {
		v := strings.TrimSpace(*name)
		if v == "" {
			ve.Add("name", "Please provide a name")
		}
		p.Name = &v
	}
	if email != nil {
		v := strings.TrimSpace(*email)
		switch {
		case v == "":
			ve.Add("email", "Please provide an email")
		case !ValidEmail(v):
			ve.Add("email", "Please provide a valid email")
		}
		p.Email = &v
	}
	if source != nil {
		src, ok := ParseLeadSource(strings.TrimSpace(*source))
		if !ok {
			ve.Add("source", "Invalid source")
		}
		p.Source = &src
	}
	if status != nil {
		st, ok := ParseLeadStatus(strings.TrimSpace(*status))
		if !ok {
			ve.Add("status", "Invalid status")
		}
		p.Status = &st
	}
	p.Phone = trimmed(phone)
	p.Company = trimmed(company)
	p.Message = trimmed(message)

	if ve.HasErrors() {
		return nil, ve
	}
	return p, nil
}

// Clear marks budget and/or expectedCloseDate for removal. A field that also
// carries a new value keeps the value.
func (p *LeadPatch) Clear(budget, closeDate bool) {
	p.ClearBudget = budget && p.Budget == nil
	p.ClearExpectedCloseDate = closeDate && p.ExpectedCloseDate == nil
}

// Empty reports whether the patch carries no field changes.
func (p *LeadPatch) Empty() bool {
	return p.Name == nil && p.Email == nil && p.Phone == nil && p.Company == nil &&
		p.Source == nil && p.Status == nil && p.Message == nil &&
		p.Budget == nil && p.ExpectedCloseDate == nil &&
		!p.ClearBudget && !p.ClearExpectedCloseDate
}

// NewNote validates content and returns a note authored by author at now.
func NewNote(content string, author UserRef, now time.Time) (*Note, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		ve := &ValidationError{}
		ve.Add("content", "Note content is required")
		return nil, ve
	}
	return &Note{Content: content, CreatedBy: author, CreatedAt: now}, nil
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
