package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/minicrm/lead-api/internal/api/metrics"
	"github.com/minicrm/lead-api/internal/core/ports"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type LeadHandler struct {
	leads     ports.LeadService
	analytics ports.AnalyticsService
}

func NewLeadHandler(leads ports.LeadService, analytics ports.AnalyticsService) *LeadHandler {
	return &LeadHandler{leads: leads, analytics: analytics}
}

// List returns the leads matching the optional filters.
//
// @Summary      List leads
// @Tags         leads
// @Produce      json
// @Security     BearerAuth
// @Param        status  query     string  false  "Filter by status"  Enums(new, contacted, qualified, proposal, converted, lost)
// @Param        source  query     string  false  "Filter by source"  Enums(Website, Referral, Social Media, Email Campaign, Other)
// @Param        search  query     string  false  "Case-insensitive match on name, email or company"
// @Param        sort    query     string  false  "Sort field, prefix with - for descending"  default(-createdAt)
// @Success      200     {object}  Envelope{data=[]leadResponse}
// @Failure      400     {object}  Envelope
// @Failure      401     {object}  Envelope
// @Failure      500     {object}  Envelope
// @Router       /api/leads [get]
func (h *LeadHandler) List(c echo.Context) error {
	var q listLeadsQuery
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &q); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid query parameters")
	}

	leads, err := h.leads.ListLeads(c.Request().Context(), toListLeadsInput(q))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, okList(toLeadResponses(leads), len(leads)))
}

// Analytics returns dashboard metrics over all leads.
//
// @Summary      Lead analytics
// @Tags         leads
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  Envelope{data=analyticsResponse}
// @Failure      401  {object}  Envelope
// @Failure      500  {object}  Envelope
// @Router       /api/leads/analytics [get]
func (h *LeadHandler) Analytics(c echo.Context) error {
	timer := prometheus.NewTimer(metrics.AnalyticsDuration)
	a, err := h.analytics.Summary(c.Request().Context())
	timer.ObserveDuration()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ok(toAnalyticsResponse(a)))
}

// Get returns a single lead with its notes.
//
// @Summary      Get lead
// @Tags         leads
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Lead ID"
// @Success      200  {object}  Envelope{data=leadResponse}
// @Failure      401  {object}  Envelope
// @Failure      404  {object}  Envelope
// @Failure      500  {object}  Envelope
// @Router       /api/leads/{id} [get]
func (h *LeadHandler) Get(c echo.Context) error {
	lead, err := h.leads.GetLead(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ok(toLeadResponse(lead)))
}

// Create stores a new lead owned by the caller.
//
// @Summary      Create lead
// @Tags         leads
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createLeadRequest  true  "Lead"
// @Success      201   {object}  Envelope{data=leadResponse}
// @Failure      400   {object}  Envelope
// @Failure      401   {object}  Envelope
// @Failure      500   {object}  Envelope
// @Router       /api/leads [post]
func (h *LeadHandler) Create(c echo.Context) error {
	claims, err := ctxClaims(c)
	if err != nil {
		return err
	}

	var req createLeadRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	req.trim()
	if err := c.Validate(&req); err != nil {
		return err
	}

	lead, err := h.leads.CreateLead(c.Request().Context(), toCreateLeadInput(req), claims.Ref())
	if err != nil {
		return err
	}

	metrics.LeadsCreatedTotal.WithLabelValues(string(lead.Source)).Inc()
	return c.JSON(http.StatusCreated, okMessage("Lead created successfully", toLeadResponse(lead)))
}

// Update applies a partial update to a lead.
//
// @Summary      Update lead
// @Tags         leads
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true  "Lead ID"
// @Param        body  body      updateLeadRequest  true  "Fields to change"
// @Success      200   {object}  Envelope{data=leadResponse}
// @Failure      400   {object}  Envelope
// @Failure      401   {object}  Envelope
// @Failure      404   {object}  Envelope
// @Failure      500   {object}  Envelope
// @Router       /api/leads/{id} [put]
func (h *LeadHandler) Update(c echo.Context) error {
	var req updateLeadRequest
	if err := c.Bind(&req); err != nil {
		return err
	}

	lead, err := h.leads.UpdateLead(c.Request().Context(), c.Param("id"), toUpdateLeadInput(req))
	if err != nil {
		return err
	}

	metrics.LeadUpdatesTotal.WithLabelValues(string(lead.Status)).Inc()
	return c.JSON(http.StatusOK, okMessage("Lead updated successfully", toLeadResponse(lead)))
}

// Delete removes a lead and its notes.
//
// @Summary      Delete lead
// @Tags         leads
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Lead ID"
// @Success      200  {object}  Envelope
// @Failure      401  {object}  Envelope
// @Failure      404  {object}  Envelope
// @Failure      500  {object}  Envelope
// @Router       /api/leads/{id} [delete]
func (h *LeadHandler) Delete(c echo.Context) error {
	if err := h.leads.DeleteLead(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}

	metrics.LeadsDeletedTotal.Inc()
	return c.JSON(http.StatusOK, okMessage("Lead deleted successfully", nil))
}

// AddNote appends a note by the caller to a lead.
//
// @Summary      Add note
// @Tags         leads
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string          true  "Lead ID"
// @Param        body  body      addNoteRequest  true  "Note"
// @Success      200   {object}  Envelope{data=leadResponse}
// @Failure      400   {object}  Envelope
// @Failure      401   {object}  Envelope
// @Failure      404   {object}  Envelope
// @Failure      500   {object}  Envelope
// @Router       /api/leads/{id}/notes [post]
func (h *LeadHandler) AddNote(c echo.Context) error {
	claims, err := ctxClaims(c)
	if err != nil {
		return err
	}

	var req addNoteRequest
	if err := c.Bind(&req); err != nil {
		return err
	}

	lead, err := h.leads.AddNote(c.Request().Context(), c.Param("id"), req.Content, claims.Ref())
	if err != nil {
		return err
	}

	metrics.LeadNotesAddedTotal.Inc()
	return c.JSON(http.StatusOK, okMessage("Note added successfully", toLeadResponse(lead)))
}

// Export downloads the matching leads as an Excel workbook. Admin only.
//
// @Summary      Export leads
// @Tags         leads
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security     BearerAuth
// @Param        status  query     string  false  "Filter by status"
// @Param        source  query     string  false  "Filter by source"
// @Param        search  query     string  false  "Case-insensitive match on name, email or company"
// @Param        sort    query     string  false  "Sort field"  default(-createdAt)
// @Success      200     {file}    binary
// @Failure      400     {object}  Envelope
// @Failure      401     {object}  Envelope
// @Failure      403     {object}  Envelope
// @Failure      500     {object}  Envelope
// @Router       /api/leads/export [get]
func (h *LeadHandler) Export(c echo.Context) error {
	var q listLeadsQuery
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &q); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid query parameters")
	}

	out, err := h.leads.ExportLeads(c.Request().Context(), toListLeadsInput(q))
	if err != nil {
		return err
	}

	filename := fmt.Sprintf("leads-%s.xlsx", time.Now().UTC().Format("20060102"))
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Blob(http.StatusOK, xlsxContentType, out)
}
