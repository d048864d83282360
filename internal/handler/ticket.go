package handler

import (
    "errors"
    "net/http"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/ticket-reservation/internal/model"
    "github.com/iliyamo/ticket-reservation/internal/repository"
    "github.com/iliyamo/ticket-reservation/internal/service"
)

// TicketHandler exposes the ticket and ticket line surface: creation
// with line materialization, lookups, listings and generic filtered
// queries.  Reads go through the repositories' read-only pool; creation
// runs inside the ticket service's transaction.
type TicketHandler struct {
    Service *service.TicketService    // creation with atomic line materialization
    Tickets *repository.TicketRepo    // ticket reads
    Lines   *repository.TicketLineRepo // line reads
}

// NewTicketHandler constructs a TicketHandler with the provided
// dependencies.  All of them must be non-nil.
func NewTicketHandler(svc *service.TicketService, tickets *repository.TicketRepo, lines *repository.TicketLineRepo) *TicketHandler {
    if svc == nil || tickets == nil || lines == nil {
        panic("nil dependency passed to NewTicketHandler")
    }
    return &TicketHandler{Service: svc, Tickets: tickets, Lines: lines}
}

// CreateTicket handles POST /v1/tickets.  It creates a ticket and
// materializes one line per number in the inclusive [start_num,
// end_num] range within a single transaction.  Returns 201 with the
// ticket and its line count.
func (h *TicketHandler) CreateTicket(c echo.Context) error {
    var body struct {
        Name        string  `json:"name"`
        State       string  `json:"state"`
        Description *string `json:"description"`
        PriceCents  uint32  `json:"price_cents"`
        StartNum    int64   `json:"start_num"`
        EndNum      int64   `json:"end_num"`
        WinNum      *int64  `json:"win_num"`
        StartDate   string  `json:"start_date"`
        EndDate     string  `json:"end_date"`
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if body.Name == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
    }
    startDate, endDate, err := parseDateRange(body.StartDate, body.EndDate)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    }
    ticket := &model.Ticket{
        Name:        body.Name,
        State:       model.TicketState(body.State),
        Description: body.Description,
        PriceCents:  body.PriceCents,
        StartNum:    body.StartNum,
        EndNum:      body.EndNum,
        WinNum:      body.WinNum,
        StartDate:   startDate,
        EndDate:     endDate,
    }
    created, lines, err := h.Service.CreateTicket(c.Request().Context(), ticket)
    if err != nil {
        if errors.Is(err, service.ErrInvalidRange) {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create ticket"})
    }
    return c.JSON(http.StatusCreated, echo.Map{
        "ticket":     created,
        "line_count": len(lines),
    })
}

// GetTicket handles GET /v1/tickets/:id.
func (h *TicketHandler) GetTicket(c echo.Context) error {
    id, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil || id == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket id"})
    }
    ticket, err := h.Tickets.GetByID(c.Request().Context(), id)
    if err != nil {
        if errors.Is(err, repository.ErrTicketNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "ticket not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch ticket"})
    }
    return c.JSON(http.StatusOK, echo.Map{"item": ticket})
}

// ListTickets handles GET /v1/tickets.
func (h *TicketHandler) ListTickets(c echo.Context) error {
    tickets, err := h.Tickets.List(c.Request().Context())
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to list tickets"})
    }
    return c.JSON(http.StatusOK, echo.Map{"items": tickets})
}

// ListTicketLines handles GET /v1/tickets/:id/lines.  Lines are ordered
// by their sequence number.
func (h *TicketHandler) ListTicketLines(c echo.Context) error {
    id, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil || id == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket id"})
    }
    if _, err := h.Tickets.GetByID(c.Request().Context(), id); err != nil {
        if errors.Is(err, repository.ErrTicketNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "ticket not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch ticket"})
    }
    lines, err := h.Lines.ListByTicket(c.Request().Context(), id)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to list ticket lines"})
    }
    return c.JSON(http.StatusOK, echo.Map{"items": lines})
}

// MaterializeLines handles POST /v1/tickets/:id/lines.  It lazily
// creates the ticket's lines; calling it on a ticket that already has
// lines returns them unchanged.
func (h *TicketHandler) MaterializeLines(c echo.Context) error {
    id, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil || id == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket id"})
    }
    lines, err := h.Service.MaterializeLines(c.Request().Context(), id)
    if err != nil {
        if errors.Is(err, repository.ErrTicketNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "ticket not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to materialize lines"})
    }
    return c.JSON(http.StatusOK, echo.Map{"items": lines})
}

// QueryTickets handles POST /v1/tickets/query with a generic filter
// payload.  Unknown fields in the domain are skipped.
func (h *TicketHandler) QueryTickets(c echo.Context) error {
    f, err := bindFilter(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    }
    tickets, err := h.Tickets.Query(c.Request().Context(), f)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to query tickets"})
    }
    return c.JSON(http.StatusOK, echo.Map{"items": tickets})
}

// QueryTicketLines handles POST /v1/ticket-lines/query.
func (h *TicketHandler) QueryTicketLines(c echo.Context) error {
    f, err := bindFilter(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    }
    lines, err := h.Lines.Query(c.Request().Context(), f)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to query ticket lines"})
    }
    return c.JSON(http.StatusOK, echo.Map{"items": lines})
}

// parseDateRange parses the RFC3339 sales window.  start_date defaults
// to now when omitted; end_date is required.
func parseDateRange(start, end string) (time.Time, time.Time, error) {
    startDate := time.Now().UTC()
    if start != "" {
        t, err := time.Parse(time.RFC3339, start)
        if err != nil {
            return time.Time{}, time.Time{}, errors.New("start_date must be RFC3339")
        }
        startDate = t.UTC()
    }
    if end == "" {
        return time.Time{}, time.Time{}, errors.New("end_date is required")
    }
    endDate, err := time.Parse(time.RFC3339, end)
    if err != nil {
        return time.Time{}, time.Time{}, errors.New("end_date must be RFC3339")
    }
    return startDate, endDate.UTC(), nil
}
