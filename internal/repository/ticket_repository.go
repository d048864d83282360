package repository

import (
    "context"
    "database/sql"
    "errors"
    "strings"

    "github.com/iliyamo/ticket-reservation/internal/model"
)

// ticketColumns is the projection used by every ticket SELECT and the
// whitelist consulted by the filter translator.
const ticketSelectList = `id, name, state, description, price_cents, start_num, end_num, win_num,
       start_date, end_date, available_count, reserved_count, sold_count, create_date, write_date`

var ticketFilterColumns = map[string]bool{
    "id": true, "name": true, "state": true, "price_cents": true,
    "start_num": true, "end_num": true, "win_num": true,
    "start_date": true, "end_date": true,
    "available_count": true, "reserved_count": true, "sold_count": true,
    "create_date": true, "write_date": true,
}

// TicketRepo provides persistence for tickets and their aggregate
// counters.  Reads that do not take part in a transaction go through
// the read-only pool; every mutation and locking read runs on the
// primary inside a caller-supplied transaction.
type TicketRepo struct {
    db *sql.DB // primary pool, supports FOR UPDATE and transactions
    ro *sql.DB // read-only pool for plain queries
}

// NewTicketRepo returns a TicketRepo bound to the given pools.
func NewTicketRepo(db, ro *sql.DB) *TicketRepo { return &TicketRepo{db: db, ro: ro} }

// DB exposes the primary pool so callers can open transactions that
// span multiple repositories.
func (r *TicketRepo) DB() *sql.DB { return r.db }

// CreateTx inserts a new ticket within the scope of an existing
// transaction and populates the generated ID and timestamps on the
// provided record.  The caller must commit or roll back.  Counters are
// expected to be pre-set by the service layer (available = line count,
// reserved = sold = 0).
func (r *TicketRepo) CreateTx(ctx context.Context, tx *sql.Tx, t *model.Ticket) error {
    const q = `INSERT INTO tickets
        (name, state, description, price_cents, start_num, end_num, win_num, start_date, end_date,
         available_count, reserved_count, sold_count)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
    res, err := tx.ExecContext(ctx, q,
        t.Name, t.State, t.Description, t.PriceCents, t.StartNum, t.EndNum, t.WinNum,
        t.StartDate.UTC(), t.EndDate.UTC(),
        t.AvailableCount, t.ReservedCount, t.SoldCount,
    )
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    t.ID = uint64(id)
    // Query back the row to populate DB-defaulted timestamps.
    const sel = `SELECT create_date, write_date FROM tickets WHERE id = ?`
    return tx.QueryRowContext(ctx, sel, t.ID).Scan(&t.CreateDate, &t.WriteDate)
}

// GetByID returns a single ticket from the read-only pool.  It returns
// ErrTicketNotFound when the id has no row.
func (r *TicketRepo) GetByID(ctx context.Context, id uint64) (*model.Ticket, error) {
    q := `SELECT ` + ticketSelectList + ` FROM tickets WHERE id = ?`
    t, err := scanTicket(r.ro.QueryRowContext(ctx, q, id))
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrTicketNotFound
    }
    return t, err
}

// GetForUpdateTx reads a ticket with an exclusive row lock.  It
// serializes line materialization and counter initialization against
// concurrent callers; ErrTicketNotFound is returned when the id has no
// row.
func (r *TicketRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Ticket, error) {
    q := `SELECT ` + ticketSelectList + ` FROM tickets WHERE id = ? FOR UPDATE`
    t, err := scanTicket(tx.QueryRowContext(ctx, q, id))
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrTicketNotFound
    }
    return t, err
}

// SetCountersTx overwrites a locked ticket's counters.  Used once, when
// lines are first materialized for a ticket that was created without
// them.
func (r *TicketRepo) SetCountersTx(ctx context.Context, tx *sql.Tx, id uint64, avail, reserved, sold int64) error {
    const q = `UPDATE tickets
        SET available_count = ?,
            reserved_count  = ?,
            sold_count      = ?,
            write_date      = UTC_TIMESTAMP()
        WHERE id = ?`
    _, err := tx.ExecContext(ctx, q, avail, reserved, sold, id)
    return err
}

// List returns all tickets ordered by id.
func (r *TicketRepo) List(ctx context.Context) ([]model.Ticket, error) {
    q := `SELECT ` + ticketSelectList + ` FROM tickets ORDER BY id`
    return r.queryTickets(ctx, q)
}

// Query runs a generic filter against the tickets table.  Unknown
// fields in the filter are skipped per the translator's policy.
func (r *TicketRepo) Query(ctx context.Context, f *Filter) ([]model.Ticket, error) {
    q, args := BuildSelect(ticketSelectList, "tickets", ticketFilterColumns, f)
    return r.queryTickets(ctx, q, args...)
}

// LockByIDsTx acquires exclusive row locks on the given tickets.  The
// ids are locked in ascending order to keep lock acquisition
// deterministic across concurrent transactions.  ErrTicketNotFound is
// returned when any id has no row.
func (r *TicketRepo) LockByIDsTx(ctx context.Context, tx *sql.Tx, ids []uint64) error {
    if len(ids) == 0 {
        return nil
    }
    q := `SELECT id FROM tickets WHERE id IN (` + placeholders(len(ids)) + `) ORDER BY id FOR UPDATE`
    rows, err := tx.QueryContext(ctx, q, idArgs(ids)...)
    if err != nil {
        return err
    }
    defer rows.Close()
    n := 0
    for rows.Next() {
        var id uint64
        if err := rows.Scan(&id); err != nil {
            return err
        }
        n++
    }
    if err := rows.Err(); err != nil {
        return err
    }
    if n != len(ids) {
        return ErrTicketNotFound
    }
    return nil
}

// ApplyDeltaTx shifts a locked ticket's counters.  The row must already
// be locked via LockByIDsTx within the same transaction; this method
// only issues the arithmetic UPDATE.
func (r *TicketRepo) ApplyDeltaTx(ctx context.Context, tx *sql.Tx, id uint64, dAvail, dReserved, dSold int64) error {
    const q = `UPDATE tickets
        SET available_count = available_count + ?,
            reserved_count  = reserved_count + ?,
            sold_count      = sold_count + ?,
            write_date      = UTC_TIMESTAMP()
        WHERE id = ?`
    _, err := tx.ExecContext(ctx, q, dAvail, dReserved, dSold, id)
    return err
}

func (r *TicketRepo) queryTickets(ctx context.Context, q string, args ...interface{}) ([]model.Ticket, error) {
    rows, err := r.ro.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    tickets := make([]model.Ticket, 0)
    for rows.Next() {
        t, err := scanTicket(rows)
        if err != nil {
            return nil, err
        }
        tickets = append(tickets, *t)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return tickets, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
    Scan(dest ...interface{}) error
}

func scanTicket(row rowScanner) (*model.Ticket, error) {
    var t model.Ticket
    var desc sql.NullString
    var winNum sql.NullInt64
    err := row.Scan(
        &t.ID, &t.Name, &t.State, &desc, &t.PriceCents, &t.StartNum, &t.EndNum, &winNum,
        &t.StartDate, &t.EndDate, &t.AvailableCount, &t.ReservedCount, &t.SoldCount,
        &t.CreateDate, &t.WriteDate,
    )
    if err != nil {
        return nil, err
    }
    if desc.Valid {
        d := desc.String
        t.Description = &d
    }
    if winNum.Valid {
        w := winNum.Int64
        t.WinNum = &w
    }
    return &t, nil
}

// placeholders returns n comma separated "?" marks for IN clauses.
func placeholders(n int) string {
    return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func idArgs(ids []uint64) []interface{} {
    args := make([]interface{}, len(ids))
    for i, id := range ids {
        args[i] = id
    }
    return args
}
