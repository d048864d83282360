// Package service implements the order lifecycle engine: the three
// transactional operations that move ticket lines between AVAILABLE,
// RESERVED and SOLD while keeping the owning tickets' aggregate
// counters consistent.  Every public method runs as exactly one
// database transaction; on any validation failure the transaction is
// rolled back and no counter or line state is left half-updated.
//
// Lock ordering is the same in every operation: ticket line rows first
// (ascending id), then ticket aggregate rows (ascending id).  Two
// operations touching overlapping rows therefore serialize on the
// database's row locks instead of deadlocking.
package service

import (
    "context"
    "database/sql"
    "strings"

    "github.com/google/uuid"

    "github.com/iliyamo/ticket-reservation/internal/model"
    "github.com/iliyamo/ticket-reservation/internal/repository"
)

// OrderEngine coordinates reservation, confirmation and cancellation of
// ticket lines.  All dependencies are injected; the engine holds no
// mutable state of its own, so it is safe for concurrent use.
type OrderEngine struct {
    db      *sql.DB
    tickets *repository.TicketRepo
    lines   *repository.TicketLineRepo
    orders  *repository.OrderRepo
}

// NewOrderEngine constructs an OrderEngine.  All dependencies must be
// non-nil.
func NewOrderEngine(db *sql.DB, tickets *repository.TicketRepo, lines *repository.TicketLineRepo, orders *repository.OrderRepo) *OrderEngine {
    if db == nil || tickets == nil || lines == nil || orders == nil {
        panic("nil dependency passed to NewOrderEngine")
    }
    return &OrderEngine{db: db, tickets: tickets, lines: lines, orders: orders}
}

// OrderNow reserves the given ticket lines for a user and returns the
// created draft order.  The requested line rows are locked first, which
// serializes concurrent reservation attempts on the same lines: the
// loser of the race observes a non-AVAILABLE state after the winner
// commits and fails with LineNotAvailableError.  Either every requested
// line is reserved or none is.
func (e *OrderEngine) OrderNow(ctx context.Context, lineIDs []uint64, userCode string) (*model.Order, error) {
    lineIDs = dedupeIDs(lineIDs)
    if len(lineIDs) == 0 {
        return nil, repository.ErrLineNotFound
    }
    tx, err := e.db.BeginTx(ctx, nil)
    if err != nil {
        return nil, err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    locked, err := e.lines.LockByIDsTx(ctx, tx, lineIDs)
    if err != nil {
        return nil, err
    }
    if err := ensureAllAvailable(locked); err != nil {
        return nil, err
    }

    order := &model.Order{
        Name:     newOrderName(),
        State:    model.OrderDraft,
        UserCode: userCode,
    }
    if err := e.orders.CreateTx(ctx, tx, order); err != nil {
        return nil, err
    }

    if err := e.lines.MarkReservedTx(ctx, tx, lineIDs, userCode); err != nil {
        return nil, err
    }
    if err := e.orders.AddLinesTx(ctx, tx, order.ID, lineIDs); err != nil {
        return nil, err
    }

    counts := linesPerTicket(locked)
    ticketIDs := sortedTicketIDs(counts)
    if err := e.tickets.LockByIDsTx(ctx, tx, ticketIDs); err != nil {
        return nil, err
    }
    for _, tid := range ticketIDs {
        n := counts[tid]
        if err := e.tickets.ApplyDeltaTx(ctx, tx, tid, -n, +n, 0); err != nil {
            return nil, err
        }
    }

    if err := tx.Commit(); err != nil {
        return nil, err
    }
    committed = true
    return order, nil
}

// ConfirmOrder finalizes a draft order into a sale.  The order row is
// locked, checked against the calling user and required to still be in
// draft; a cancelled or already-confirmed order is rejected before any
// line is touched.  Every line must still be RESERVED and still held by
// the confirming user, otherwise the whole operation aborts with
// LineNotReservedError.  On success the updated order and its ticket
// line ids are returned so callers can publish events without a second
// read.
func (e *OrderEngine) ConfirmOrder(ctx context.Context, orderID uint64, userCode string) (*model.Order, []uint64, error) {
    tx, err := e.db.BeginTx(ctx, nil)
    if err != nil {
        return nil, nil, err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    order, err := e.orders.LockByIDTx(ctx, tx, orderID)
    if err != nil {
        return nil, nil, err
    }
    if order.UserCode != userCode {
        return nil, nil, repository.ErrForbidden
    }
    if err := confirmSource(order.State); err != nil {
        return nil, nil, err
    }
    if err := e.orders.SetStateTx(ctx, tx, order.ID, model.OrderSuccessful); err != nil {
        return nil, nil, err
    }

    lineIDs, err := e.orders.LineIDsTx(ctx, tx, order.ID)
    if err != nil {
        return nil, nil, err
    }
    locked, err := e.lines.LockByIDsTx(ctx, tx, lineIDs)
    if err != nil {
        return nil, nil, err
    }
    if err := ensureAllReserved(locked, userCode); err != nil {
        return nil, nil, err
    }
    if err := e.lines.MarkSoldTx(ctx, tx, lineIDs); err != nil {
        return nil, nil, err
    }

    counts := linesPerTicket(locked)
    ticketIDs := sortedTicketIDs(counts)
    if err := e.tickets.LockByIDsTx(ctx, tx, ticketIDs); err != nil {
        return nil, nil, err
    }
    for _, tid := range ticketIDs {
        n := counts[tid]
        if err := e.tickets.ApplyDeltaTx(ctx, tx, tid, 0, -n, +n); err != nil {
            return nil, nil, err
        }
    }

    if err := tx.Commit(); err != nil {
        return nil, nil, err
    }
    committed = true
    order.State = model.OrderSuccessful
    return order, lineIDs, nil
}

// CancelOrder releases every line held by an order back to AVAILABLE.
// Which counter bucket the lines leave depends on the order's state:
// draft orders release reserved lines, successful orders release sold
// lines.  Varified orders fail with ErrOrderAlreadyVerified and a
// second cancellation fails with ErrOrderAlreadyCancelled.  The updated
// order is returned for event publication.
func (e *OrderEngine) CancelOrder(ctx context.Context, orderID uint64, userCode string) (*model.Order, error) {
    tx, err := e.db.BeginTx(ctx, nil)
    if err != nil {
        return nil, err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    order, err := e.orders.LockByIDTx(ctx, tx, orderID)
    if err != nil {
        return nil, err
    }
    if order.UserCode != userCode {
        return nil, repository.ErrForbidden
    }
    source, err := releaseSource(order.State)
    if err != nil {
        return nil, err
    }

    lineIDs, err := e.orders.LineIDsTx(ctx, tx, order.ID)
    if err != nil {
        return nil, err
    }
    var counts map[uint64]int64
    if len(lineIDs) > 0 {
        locked, err := e.lines.LockByIDsTx(ctx, tx, lineIDs)
        if err != nil {
            return nil, err
        }
        counts = linesPerTicket(locked)
        if err := e.lines.ReleaseTx(ctx, tx, lineIDs); err != nil {
            return nil, err
        }
    }
    if err := e.orders.SetStateTx(ctx, tx, order.ID, model.OrderCancel); err != nil {
        return nil, err
    }

    ticketIDs := sortedTicketIDs(counts)
    if err := e.tickets.LockByIDsTx(ctx, tx, ticketIDs); err != nil {
        return nil, err
    }
    for _, tid := range ticketIDs {
        n := counts[tid]
        if source == model.LineSold {
            err = e.tickets.ApplyDeltaTx(ctx, tx, tid, +n, 0, -n)
        } else {
            err = e.tickets.ApplyDeltaTx(ctx, tx, tid, +n, -n, 0)
        }
        if err != nil {
            return nil, err
        }
    }

    if err := tx.Commit(); err != nil {
        return nil, err
    }
    committed = true
    order.State = model.OrderCancel
    return order, nil
}

// newOrderName generates a short human readable order reference.
func newOrderName() string {
    return "ORD-" + strings.ToUpper(uuid.NewString()[:8])
}
