// Package queue defines message payloads exchanged over the message
// broker plus the publisher and the background consumer.
package queue

// OrderConfirmedEvent is published when an order is successfully
// confirmed.  It carries enough information for downstream consumers to
// log, notify or trigger analytics without querying the primary
// database.
type OrderConfirmedEvent struct {
    OrderID     uint64   `json:"order_id"`
    OrderName   string   `json:"order_name"`
    UserCode    string   `json:"user_code"`
    LineIDs     []uint64 `json:"ticket_line_ids"`
    ConfirmedAt string   `json:"confirmed_at"`
}

// OrderCancelledEvent is published when an order is cancelled and its
// lines return to the available pool.
type OrderCancelledEvent struct {
    OrderID     uint64 `json:"order_id"`
    OrderName   string `json:"order_name"`
    UserCode    string `json:"user_code"`
    CancelledAt string `json:"cancelled_at"`
}
