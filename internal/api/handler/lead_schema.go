package handler

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/minicrm/lead-api/internal/core/domain"
)

// ── Request bodies ───────────────────────────────────────────────────────────

type createLeadRequest struct {
	Name              string     `json:"name" validate:"required"`
	Email             string     `json:"email" validate:"required,lead_email"`
	Phone             string     `json:"phone"`
	Company           string     `json:"company"`
	Source            string     `json:"source" validate:"omitempty,lead_source"`
	Status            string     `json:"status" validate:"omitempty,lead_status"`
	Message           string     `json:"message"`
	Budget            flexNumber `json:"budget" swaggertype:"number"`
	ExpectedCloseDate flexDate   `json:"expectedCloseDate" swaggertype:"string" format:"date"`
}

// trim strips surrounding whitespace so "required" rejects blank values.
func (r *createLeadRequest) trim() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
	r.Source = strings.TrimSpace(r.Source)
	r.Status = strings.TrimSpace(r.Status)
}

// updateLeadRequest is a partial update. Absent fields are nil and left unchanged;
// budget and expectedCloseDate sent as null or "" are removed. Field rules are
// enforced by the domain when building the patch.
type updateLeadRequest struct {
	Name              *string    `json:"name"`
	Email             *string    `json:"email"`
	Phone             *string    `json:"phone"`
	Company           *string    `json:"company"`
	Source            *string    `json:"source"`
	Status            *string    `json:"status"`
	Message           *string    `json:"message"`
	Budget            flexNumber `json:"budget" swaggertype:"number"`
	ExpectedCloseDate flexDate   `json:"expectedCloseDate" swaggertype:"string" format:"date"`
}

type addNoteRequest struct {
	Content string `json:"content" validate:"required"`
}

type listLeadsQuery struct {
	Status string `query:"status"`
	Source string `query:"source"`
	Search string `query:"search"`
	Sort   string `query:"sort"`
}

// flexNumber accepts a JSON number, a numeric string, null or "" (empty).
// Set records that the key was present, so an update can tell "clear" from "absent".
type flexNumber struct {
	Value *float64
	Set   bool
}

// cleared reports whether the key was sent as null or "".
func (n flexNumber) cleared() bool { return n.Set && n.Value == nil }

func (n *flexNumber) UnmarshalJSON(b []byte) error {
	n.Set = true
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		n.Value = nil
		return nil
	}

	var f float64
	if err := json.Unmarshal(b, &f); err == nil {
		n.Value = &f
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return domain.NewValidationError("budget", "Budget must be a number")
	}
	s = strings.TrimSpace(s)
	if s == "" {
		n.Value = nil
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return domain.NewValidationError("budget", "Budget must be a number")
	}
	n.Value = &f
	return nil
}

// flexDate accepts RFC 3339, a bare YYYY-MM-DD date, null or "" (empty).
type flexDate struct {
	Value *time.Time
	Set   bool
}

func (d flexDate) cleared() bool { return d.Set && d.Value == nil }

func (d *flexDate) UnmarshalJSON(b []byte) error {
	d.Set = true
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		d.Value = nil
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return domain.NewValidationError("expectedCloseDate", "Expected close date must be a date")
	}
	s = strings.TrimSpace(s)
	if s == "" {
		d.Value = nil
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			d.Value = &t
			return nil
		}
	}
	return domain.NewValidationError("expectedCloseDate", "Expected close date must be a date")
}

// ── Response bodies ──────────────────────────────────────────────────────────

type userRefResponse struct {
	ID    string `json:"_id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

type noteResponse struct {
	Content   string           `json:"content"`
	CreatedBy *userRefResponse `json:"createdBy"`
	CreatedAt time.Time        `json:"createdAt"`
}

type leadResponse struct {
	ID                string           `json:"_id"`
	Name              string           `json:"name"`
	Email             string           `json:"email"`
	Phone             string           `json:"phone"`
	PhoneE164         string           `json:"phoneE164,omitempty"`
	Company           string           `json:"company"`
	Source            string           `json:"source"`
	Status            string           `json:"status"`
	Message           string           `json:"message"`
	Budget            *float64         `json:"budget,omitempty"`
	ExpectedCloseDate *time.Time       `json:"expectedCloseDate,omitempty"`
	CreatedBy         *userRefResponse `json:"createdBy"`
	Notes             []noteResponse   `json:"notes"`
	CreatedAt         time.Time        `json:"createdAt"`
	UpdatedAt         time.Time        `json:"updatedAt"`
}

type groupCountResponse struct {
	ID    string `json:"_id"`
	Count int64  `json:"count"`
}

type analyticsResponse struct {
	TotalLeads     int64                `json:"totalLeads"`
	NewLeads       int64                `json:"newLeads"`
	ContactedLeads int64                `json:"contactedLeads"`
	ConvertedLeads int64                `json:"convertedLeads"`
	ConversionRate float64              `json:"conversionRate"`
	RecentLeads    int64                `json:"recentLeads"`
	LeadsBySource  []groupCountResponse `json:"leadsBySource"`
	LeadsByStatus  []groupCountResponse `json:"leadsByStatus"`
}
