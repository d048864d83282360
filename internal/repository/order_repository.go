package repository

import (
    "context"
    "database/sql"
    "errors"

    "github.com/iliyamo/ticket-reservation/internal/model"
)

const orderSelectList = `id, name, state, user_code, create_date, write_date`

var orderFilterColumns = map[string]bool{
    "id": true, "name": true, "state": true, "user_code": true,
    "create_date": true, "write_date": true,
}

// OrderRepo provides persistence for orders and their order lines.
// Order lines are created exactly once, alongside the reservation, and
// are read-only afterwards.
type OrderRepo struct {
    db *sql.DB
    ro *sql.DB
}

// NewOrderRepo returns an OrderRepo bound to the given pools.
func NewOrderRepo(db, ro *sql.DB) *OrderRepo { return &OrderRepo{db: db, ro: ro} }

// CreateTx inserts a new order within the provided transaction and
// populates the generated ID and timestamps on the record.  The flush
// happens here so the id is usable for order line staging before the
// transaction commits.
func (r *OrderRepo) CreateTx(ctx context.Context, tx *sql.Tx, o *model.Order) error {
    const q = `INSERT INTO orders (name, state, user_code) VALUES (?, ?, ?)`
    res, err := tx.ExecContext(ctx, q, o.Name, o.State, o.UserCode)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    o.ID = uint64(id)
    const sel = `SELECT create_date, write_date FROM orders WHERE id = ?`
    return tx.QueryRowContext(ctx, sel, o.ID).Scan(&o.CreateDate, &o.WriteDate)
}

// LockByIDTx reads an order with an exclusive row lock.  It returns
// ErrOrderNotFound when the id has no row.  Ownership is checked by the
// caller so that a mismatch can surface as ErrForbidden rather than a
// generic miss.
func (r *OrderRepo) LockByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Order, error) {
    q := `SELECT ` + orderSelectList + ` FROM orders WHERE id = ? FOR UPDATE`
    var o model.Order
    err := tx.QueryRowContext(ctx, q, id).Scan(
        &o.ID, &o.Name, &o.State, &o.UserCode, &o.CreateDate, &o.WriteDate,
    )
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrOrderNotFound
    }
    if err != nil {
        return nil, err
    }
    return &o, nil
}

// SetStateTx updates the state of a locked order.
func (r *OrderRepo) SetStateTx(ctx context.Context, tx *sql.Tx, id uint64, state model.OrderState) error {
    const q = `UPDATE orders SET state = ?, write_date = UTC_TIMESTAMP() WHERE id = ?`
    _, err := tx.ExecContext(ctx, q, state, id)
    return err
}

// AddLinesTx inserts the order_lines rows linking an order to its
// reserved ticket lines in a single statement.
func (r *OrderRepo) AddLinesTx(ctx context.Context, tx *sql.Tx, orderID uint64, lineIDs []uint64) error {
    if len(lineIDs) == 0 {
        return nil
    }
    query := `INSERT INTO order_lines (order_id, ticket_line_id) VALUES `
    args := make([]interface{}, 0, len(lineIDs)*2)
    for i, id := range lineIDs {
        if i > 0 {
            query += ","
        }
        query += "(?, ?)"
        args = append(args, orderID, id)
    }
    _, err := tx.ExecContext(ctx, query, args...)
    return err
}

// LineIDsTx resolves the ticket line ids held by an order, inside the
// provided transaction.  No lock is taken here; callers lock the
// resolved lines afterwards through TicketLineRepo.LockByIDsTx so that
// line rows are always locked before ticket rows.
func (r *OrderRepo) LineIDsTx(ctx context.Context, tx *sql.Tx, orderID uint64) ([]uint64, error) {
    const q = `SELECT ticket_line_id FROM order_lines WHERE order_id = ? ORDER BY ticket_line_id`
    rows, err := tx.QueryContext(ctx, q, orderID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var ids []uint64
    for rows.Next() {
        var id uint64
        if err := rows.Scan(&id); err != nil {
            return nil, err
        }
        ids = append(ids, id)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return ids, nil
}

// GetByID returns a single order from the read-only pool.
func (r *OrderRepo) GetByID(ctx context.Context, id uint64) (*model.Order, error) {
    q := `SELECT ` + orderSelectList + ` FROM orders WHERE id = ?`
    var o model.Order
    err := r.ro.QueryRowContext(ctx, q, id).Scan(
        &o.ID, &o.Name, &o.State, &o.UserCode, &o.CreateDate, &o.WriteDate,
    )
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrOrderNotFound
    }
    if err != nil {
        return nil, err
    }
    return &o, nil
}

// Lines returns the order lines of an order from the read-only pool.
func (r *OrderRepo) Lines(ctx context.Context, orderID uint64) ([]model.OrderLine, error) {
    const q = `SELECT id, order_id, ticket_line_id, create_date FROM order_lines
               WHERE order_id = ? ORDER BY id`
    rows, err := r.ro.QueryContext(ctx, q, orderID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    lines := make([]model.OrderLine, 0)
    for rows.Next() {
        var l model.OrderLine
        if err := rows.Scan(&l.ID, &l.OrderID, &l.TicketLineID, &l.CreateDate); err != nil {
            return nil, err
        }
        lines = append(lines, l)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return lines, nil
}

// ListByUser returns all orders placed by the given user, newest first.
// It goes through the generic filter so the read path exercises the
// same translation as ad-hoc queries.
func (r *OrderRepo) ListByUser(ctx context.Context, userCode string) ([]model.Order, error) {
    return r.Query(ctx, &Filter{
        Domain: []Cond{{Field: "user_code", Op: OpEq, Value: userCode}},
        Order:  map[string]string{"create_date": "desc"},
    })
}

// Query runs a generic filter against the orders table.
func (r *OrderRepo) Query(ctx context.Context, f *Filter) ([]model.Order, error) {
    q, args := BuildSelect(orderSelectList, "orders", orderFilterColumns, f)
    rows, err := r.ro.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    orders := make([]model.Order, 0)
    for rows.Next() {
        var o model.Order
        if err := rows.Scan(&o.ID, &o.Name, &o.State, &o.UserCode, &o.CreateDate, &o.WriteDate); err != nil {
            return nil, err
        }
        orders = append(orders, o)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return orders, nil
}
