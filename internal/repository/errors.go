package repository

import (
    "errors"
    "fmt"
)

// Sentinel errors shared by the repositories and the service layer.
// Handlers translate them into HTTP status codes.
var (
    ErrTicketNotFound        = errors.New("ticket not found")
    ErrOrderNotFound         = errors.New("order not found")
    ErrLineNotFound          = errors.New("ticket line not found")
    ErrForbidden             = errors.New("order belongs to another user")
    ErrOrderAlreadyCancelled = errors.New("order already cancelled")
    ErrOrderAlreadyConfirmed = errors.New("order already confirmed")
    ErrOrderAlreadyVerified  = errors.New("order already verified")
)

// LineNotAvailableError reports the first requested ticket line that is
// not in the AVAILABLE state.  The whole reservation is rejected, so
// the offending line id is carried for the error response.
type LineNotAvailableError struct {
    LineID uint64
}

func (e *LineNotAvailableError) Error() string {
    return fmt.Sprintf("ticket line %d is not available", e.LineID)
}

// LineNotReservedError reports the first line of a confirmed order that
// is no longer in the RESERVED state.
type LineNotReservedError struct {
    LineID uint64
}

func (e *LineNotReservedError) Error() string {
    return fmt.Sprintf("ticket line %d is not reserved", e.LineID)
}
