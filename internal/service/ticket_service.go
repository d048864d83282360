package service

import (
    "context"
    "database/sql"
    "errors"

    "github.com/iliyamo/ticket-reservation/internal/model"
    "github.com/iliyamo/ticket-reservation/internal/repository"
)

// ErrInvalidRange is returned when a ticket's number range is empty or
// inverted.
var ErrInvalidRange = errors.New("end_num must be greater than or equal to start_num")

// TicketService creates tickets and materializes their lines inside a
// single transaction, so a concurrent reader sees either no ticket or a
// fully lined one.
type TicketService struct {
    db      *sql.DB
    tickets *repository.TicketRepo
    lines   *repository.TicketLineRepo
}

// NewTicketService constructs a TicketService.  All dependencies must
// be non-nil.
func NewTicketService(db *sql.DB, tickets *repository.TicketRepo, lines *repository.TicketLineRepo) *TicketService {
    if db == nil || tickets == nil || lines == nil {
        panic("nil dependency passed to NewTicketService")
    }
    return &TicketService{db: db, tickets: tickets, lines: lines}
}

// CreateTicket persists a new ticket and its lines atomically.  The
// ticket starts in DRAFT unless a state was supplied, its available
// counter is initialized to the line count and the reserved and sold
// counters to zero.  Counters are never written by callers after this
// point; only the order lifecycle moves them.
func (s *TicketService) CreateTicket(ctx context.Context, t *model.Ticket) (*model.Ticket, []model.TicketLine, error) {
    if t.EndNum < t.StartNum {
        return nil, nil, ErrInvalidRange
    }
    if t.State == "" {
        t.State = model.TicketDraft
    }
    t.AvailableCount = t.LineCount()
    t.ReservedCount = 0
    t.SoldCount = 0

    tx, err := s.db.BeginTx(ctx, nil)
    if err != nil {
        return nil, nil, err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    if err := s.tickets.CreateTx(ctx, tx, t); err != nil {
        return nil, nil, err
    }
    lines, _, err := s.lines.CreateForTicketTx(ctx, tx, t)
    if err != nil {
        return nil, nil, err
    }
    if err := tx.Commit(); err != nil {
        return nil, nil, err
    }
    committed = true
    return t, lines, nil
}

// MaterializeLines lazily creates the lines of an existing ticket.  It
// is idempotent: when the ticket already has lines they are returned
// unchanged.  The ticket row is locked for the duration of the
// transaction, so two concurrent calls serialize and exactly one of
// them inserts.  When this call is the one that materializes, the
// ticket's counters are initialized to (line count, 0, 0), which
// establishes the counter invariant for tickets imported without
// lines.
func (s *TicketService) MaterializeLines(ctx context.Context, ticketID uint64) ([]model.TicketLine, error) {
    tx, err := s.db.BeginTx(ctx, nil)
    if err != nil {
        return nil, err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()
    ticket, err := s.tickets.GetForUpdateTx(ctx, tx, ticketID)
    if err != nil {
        return nil, err
    }
    lines, created, err := s.lines.CreateForTicketTx(ctx, tx, ticket)
    if err != nil {
        return nil, err
    }
    if created {
        if err := s.tickets.SetCountersTx(ctx, tx, ticket.ID, ticket.LineCount(), 0, 0); err != nil {
            return nil, err
        }
    }
    if err := tx.Commit(); err != nil {
        return nil, err
    }
    committed = true
    return lines, nil
}
