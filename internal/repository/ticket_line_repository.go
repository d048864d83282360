package repository

import (
    "context"
    "database/sql"

    "github.com/iliyamo/ticket-reservation/internal/model"
)

const lineSelectList = `id, number, ticket_id, user_code, is_special_price, special_price_cents,
       state, create_date, write_date`

var lineFilterColumns = map[string]bool{
    "id": true, "number": true, "ticket_id": true, "user_code": true,
    "is_special_price": true, "special_price_cents": true, "state": true,
    "create_date": true, "write_date": true,
}

// TicketLineRepo provides persistence for individual ticket lines.
// Locking reads and state transitions always run inside a caller
// supplied transaction; plain listings use the read-only pool.
type TicketLineRepo struct {
    db *sql.DB
    ro *sql.DB
}

// NewTicketLineRepo returns a TicketLineRepo bound to the given pools.
func NewTicketLineRepo(db, ro *sql.DB) *TicketLineRepo { return &TicketLineRepo{db: db, ro: ro} }

// CreateForTicketTx materializes the lines of a ticket, one row per
// integer in the inclusive [StartNum, EndNum] range, each AVAILABLE.
// The operation is idempotent: when lines already exist for the ticket
// they are returned unchanged instead of being duplicated, and the
// returned flag reports whether this call created them.  The caller
// must hold the ticket's row lock (insert in the creating transaction,
// or GetForUpdateTx first) so two materializers cannot both observe
// zero lines.
func (r *TicketLineRepo) CreateForTicketTx(ctx context.Context, tx *sql.Tx, t *model.Ticket) ([]model.TicketLine, bool, error) {
    existing, err := r.linesByTicketTx(ctx, tx, t.ID)
    if err != nil {
        return nil, false, err
    }
    if len(existing) > 0 {
        return existing, false, nil
    }
    query := `INSERT INTO ticket_lines (number, ticket_id, state) VALUES `
    args := make([]interface{}, 0, t.LineCount()*3)
    for num := t.StartNum; num <= t.EndNum; num++ {
        if num > t.StartNum {
            query += ","
        }
        query += "(?, ?, ?)"
        args = append(args, num, t.ID, model.LineAvailable)
    }
    if _, err := tx.ExecContext(ctx, query, args...); err != nil {
        return nil, false, err
    }
    lines, err := r.linesByTicketTx(ctx, tx, t.ID)
    if err != nil {
        return nil, false, err
    }
    return lines, true, nil
}

// LockByIDsTx reads the given lines with exclusive row locks, in
// ascending id order.  This is the serialization point for concurrent
// reservation attempts on the same lines: the second caller blocks here
// until the first transaction commits, then observes the updated state.
// ErrLineNotFound is returned when any requested id has no row.
func (r *TicketLineRepo) LockByIDsTx(ctx context.Context, tx *sql.Tx, ids []uint64) ([]model.TicketLine, error) {
    if len(ids) == 0 {
        return nil, ErrLineNotFound
    }
    q := `SELECT ` + lineSelectList + ` FROM ticket_lines WHERE id IN (` +
        placeholders(len(ids)) + `) ORDER BY id FOR UPDATE`
    rows, err := tx.QueryContext(ctx, q, idArgs(ids)...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    lines, err := collectLines(rows)
    if err != nil {
        return nil, err
    }
    if len(lines) != len(ids) {
        return nil, ErrLineNotFound
    }
    return lines, nil
}

// MarkReservedTx moves the given lines to RESERVED and records the
// holding user.  The rows must already be locked by LockByIDsTx within
// the same transaction.
func (r *TicketLineRepo) MarkReservedTx(ctx context.Context, tx *sql.Tx, ids []uint64, userCode string) error {
    q := `UPDATE ticket_lines SET state = ?, user_code = ?, write_date = UTC_TIMESTAMP()
          WHERE id IN (` + placeholders(len(ids)) + `)`
    args := append([]interface{}{model.LineReserved, userCode}, idArgs(ids)...)
    _, err := tx.ExecContext(ctx, q, args...)
    return err
}

// MarkSoldTx moves the given locked lines to SOLD.
func (r *TicketLineRepo) MarkSoldTx(ctx context.Context, tx *sql.Tx, ids []uint64) error {
    q := `UPDATE ticket_lines SET state = ?, write_date = UTC_TIMESTAMP()
          WHERE id IN (` + placeholders(len(ids)) + `)`
    args := append([]interface{}{model.LineSold}, idArgs(ids)...)
    _, err := tx.ExecContext(ctx, q, args...)
    return err
}

// ReleaseTx returns the given locked lines to AVAILABLE and clears the
// holding user.
func (r *TicketLineRepo) ReleaseTx(ctx context.Context, tx *sql.Tx, ids []uint64) error {
    q := `UPDATE ticket_lines SET state = ?, user_code = NULL, write_date = UTC_TIMESTAMP()
          WHERE id IN (` + placeholders(len(ids)) + `)`
    args := append([]interface{}{model.LineAvailable}, idArgs(ids)...)
    _, err := tx.ExecContext(ctx, q, args...)
    return err
}

// ListByTicket returns all lines of a ticket ordered by number, from
// the read-only pool.
func (r *TicketLineRepo) ListByTicket(ctx context.Context, ticketID uint64) ([]model.TicketLine, error) {
    q := `SELECT ` + lineSelectList + ` FROM ticket_lines WHERE ticket_id = ? ORDER BY number`
    rows, err := r.ro.QueryContext(ctx, q, ticketID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    return collectLines(rows)
}

// Query runs a generic filter against the ticket_lines table.
func (r *TicketLineRepo) Query(ctx context.Context, f *Filter) ([]model.TicketLine, error) {
    q, args := BuildSelect(lineSelectList, "ticket_lines", lineFilterColumns, f)
    rows, err := r.ro.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    return collectLines(rows)
}

func (r *TicketLineRepo) linesByTicketTx(ctx context.Context, tx *sql.Tx, ticketID uint64) ([]model.TicketLine, error) {
    q := `SELECT ` + lineSelectList + ` FROM ticket_lines WHERE ticket_id = ? ORDER BY number`
    rows, err := tx.QueryContext(ctx, q, ticketID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    return collectLines(rows)
}

func collectLines(rows *sql.Rows) ([]model.TicketLine, error) {
    lines := make([]model.TicketLine, 0)
    for rows.Next() {
        var l model.TicketLine
        var userCode sql.NullString
        if err := rows.Scan(
            &l.ID, &l.Number, &l.TicketID, &userCode, &l.IsSpecialPrice, &l.SpecialPriceCents,
            &l.State, &l.CreateDate, &l.WriteDate,
        ); err != nil {
            return nil, err
        }
        if userCode.Valid {
            uc := userCode.String
            l.UserCode = &uc
        }
        lines = append(lines, l)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return lines, nil
}
