package model

import "time"

// TicketState describes the lifecycle of a ticket batch.  A ticket is
// created as DRAFT, becomes POSTED once it is open for reservations and
// DONE when the batch is closed out.  The values match what is stored
// in the tickets.state column.
type TicketState string

const (
    TicketDraft  TicketState = "DRAFT"
    TicketPosted TicketState = "POSTED"
    TicketDone   TicketState = "DONE"
)

// LineState describes the availability of a single ticket line.  Lines
// move AVAILABLE -> RESERVED -> SOLD during the order lifecycle and back
// to AVAILABLE when an order is cancelled.
type LineState string

const (
    LineAvailable LineState = "AVAILABLE"
    LineReserved  LineState = "RESERVED"
    LineSold      LineState = "SOLD"
)

// Ticket represents a sellable batch of numbered lines, for example a
// raffle allotment.  The inclusive range [StartNum, EndNum] determines
// how many lines exist once they are materialized.  The three counters
// partition the lines by state and must always sum to LineCount();
// they are only ever mutated by the order lifecycle operations.
//
// Fields:
//  ID             – primary key identifier.
//  Name           – display name of the batch.
//  State          – lifecycle state (DRAFT, POSTED, DONE).
//  Description    – optional free text.
//  PriceCents     – default price per line in cents.
//  StartNum       – first line number (inclusive).
//  EndNum         – last line number (inclusive).
//  WinNum         – winning number, if one has been drawn.
//  StartDate      – when sales open.
//  EndDate        – when sales close.
//  AvailableCount – lines currently AVAILABLE.
//  ReservedCount  – lines currently RESERVED.
//  SoldCount      – lines currently SOLD.
//  CreateDate     – creation timestamp.
//  WriteDate      – last update timestamp.
type Ticket struct {
    ID             uint64      `json:"id"`              // tickets.id
    Name           string      `json:"name"`            // tickets.name
    State          TicketState `json:"state"`           // tickets.state
    Description    *string     `json:"description"`     // tickets.description (nullable)
    PriceCents     uint32      `json:"price_cents"`     // tickets.price_cents
    StartNum       int64       `json:"start_num"`       // tickets.start_num
    EndNum         int64       `json:"end_num"`         // tickets.end_num
    WinNum         *int64      `json:"win_num"`         // tickets.win_num (nullable)
    StartDate      time.Time   `json:"start_date"`      // tickets.start_date
    EndDate        time.Time   `json:"end_date"`        // tickets.end_date
    AvailableCount int64       `json:"available_count"` // tickets.available_count
    ReservedCount  int64       `json:"reserved_count"`  // tickets.reserved_count
    SoldCount      int64       `json:"sold_count"`      // tickets.sold_count
    CreateDate     time.Time   `json:"create_date"`     // tickets.create_date
    WriteDate      time.Time   `json:"write_date"`      // tickets.write_date
}

// LineCount returns how many lines the ticket's number range spans.
// Both ends of the range are inclusive.
func (t *Ticket) LineCount() int64 {
    return t.EndNum - t.StartNum + 1
}

// TicketLine is one individually reservable unit belonging to exactly
// one ticket.  Its state must always be reflected in exactly one of the
// parent ticket's three counters.
//
// Fields:
//  ID                – primary key identifier.
//  Number            – sequence number within the ticket's range.
//  TicketID          – owning ticket.
//  UserCode          – code of the user currently holding the line.
//  IsSpecialPrice    – true when SpecialPriceCents overrides the ticket price.
//  SpecialPriceCents – per-line price override in cents.
//  State             – AVAILABLE, RESERVED or SOLD.
//  CreateDate        – creation timestamp.
//  WriteDate         – last update timestamp.
type TicketLine struct {
    ID                uint64    `json:"id"`                  // ticket_lines.id
    Number            int64     `json:"number"`              // ticket_lines.number
    TicketID          uint64    `json:"ticket_id"`           // ticket_lines.ticket_id
    UserCode          *string   `json:"user_code"`           // ticket_lines.user_code (nullable)
    IsSpecialPrice    bool      `json:"is_special_price"`    // ticket_lines.is_special_price
    SpecialPriceCents uint32    `json:"special_price_cents"` // ticket_lines.special_price_cents
    State             LineState `json:"state"`               // ticket_lines.state
    CreateDate        time.Time `json:"create_date"`         // ticket_lines.create_date
    WriteDate         time.Time `json:"write_date"`          // ticket_lines.write_date
}
