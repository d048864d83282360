package model

import "time"

// OrderState describes the lifecycle of a customer order.  The values
// are stored verbatim in the orders.state column; "varified" keeps the
// historical spelling used by existing rows and clients.
type OrderState string

const (
    OrderDraft      OrderState = "draft"
    OrderCancel     OrderState = "cancel"
    OrderSuccessful OrderState = "successful"
    OrderVarified   OrderState = "varified"
)

// Order is a customer's reservation transaction.  While the order is in
// draft its lines occupy the owning tickets' reserved counters; once it
// is successful they occupy the sold counters.  Cancellation is allowed
// from draft or successful but never from varified or cancel.
//
// Fields:
//  ID         – primary key identifier.
//  Name       – human readable order reference.
//  State      – draft, cancel, successful or varified.
//  UserCode   – code of the user who placed the order.
//  CreateDate – creation timestamp.
//  WriteDate  – last update timestamp.
type Order struct {
    ID         uint64     `json:"id"`         // orders.id
    Name       string     `json:"name"`       // orders.name
    State      OrderState `json:"state"`      // orders.state
    UserCode   string     `json:"user_code"`  // orders.user_code
    CreateDate time.Time  `json:"create_date"` // orders.create_date
    WriteDate  time.Time  `json:"write_date"`  // orders.write_date
}

// OrderLine links an order to a single ticket line.  Exactly one row
// exists per (order, ticket line) pair; together they are the only
// record of which lines an order holds.
//
// Fields:
//  ID           – primary key identifier.
//  OrderID      – owning order.
//  TicketLineID – reserved ticket line.
//  CreateDate   – creation timestamp.
type OrderLine struct {
    ID           uint64    `json:"id"`             // order_lines.id
    OrderID      uint64    `json:"order_id"`       // order_lines.order_id
    TicketLineID uint64    `json:"ticket_line_id"` // order_lines.ticket_line_id
    CreateDate   time.Time `json:"create_date"`    // order_lines.create_date
}
