package service

import (
    "sort"

    "github.com/iliyamo/ticket-reservation/internal/model"
    "github.com/iliyamo/ticket-reservation/internal/repository"
)

// ensureAllAvailable validates that every line can be reserved.  The
// first line in any other state fails the whole batch; the caller rolls
// the transaction back so nothing is partially reserved.
func ensureAllAvailable(lines []model.TicketLine) error {
    for _, l := range lines {
        if l.State != model.LineAvailable {
            return &repository.LineNotAvailableError{LineID: l.ID}
        }
    }
    return nil
}

// ensureAllReserved validates that every line of an order being
// confirmed is still reserved and still held by the confirming user.
// A line that was released and re-reserved under a different order
// must not be sellable through the old one.
func ensureAllReserved(lines []model.TicketLine, userCode string) error {
    for _, l := range lines {
        if l.State != model.LineReserved || l.UserCode == nil || *l.UserCode != userCode {
            return &repository.LineNotReservedError{LineID: l.ID}
        }
    }
    return nil
}

// confirmSource validates that an order can move to successful.  Only
// draft orders confirm; any other state reports how the order already
// left draft.
func confirmSource(state model.OrderState) error {
    switch state {
    case model.OrderDraft:
        return nil
    case model.OrderSuccessful, model.OrderVarified:
        return repository.ErrOrderAlreadyConfirmed
    case model.OrderCancel:
        return repository.ErrOrderAlreadyCancelled
    }
    return repository.ErrOrderNotFound
}

// linesPerTicket accumulates how many of the given lines belong to each
// ticket.  The resulting counts drive the aggregate counter deltas.
func linesPerTicket(lines []model.TicketLine) map[uint64]int64 {
    counts := make(map[uint64]int64, len(lines))
    for _, l := range lines {
        counts[l.TicketID]++
    }
    return counts
}

// sortedTicketIDs returns the keys of a per-ticket count map in
// ascending order so that ticket rows are always locked in the same
// sequence by every operation.
func sortedTicketIDs(counts map[uint64]int64) []uint64 {
    ids := make([]uint64, 0, len(counts))
    for id := range counts {
        ids = append(ids, id)
    }
    sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
    return ids
}

// releaseSource maps an order's current state to the line state its
// lines must be released from on cancellation.  Draft orders hold
// reserved lines, successful orders hold sold lines; varified and
// already-cancelled orders cannot be cancelled at all.
func releaseSource(state model.OrderState) (model.LineState, error) {
    switch state {
    case model.OrderDraft:
        return model.LineReserved, nil
    case model.OrderSuccessful:
        return model.LineSold, nil
    case model.OrderVarified:
        return "", repository.ErrOrderAlreadyVerified
    case model.OrderCancel:
        return "", repository.ErrOrderAlreadyCancelled
    }
    return "", repository.ErrOrderNotFound
}

// dedupeIDs removes duplicate ids while preserving first-seen order.
func dedupeIDs(ids []uint64) []uint64 {
    seen := make(map[uint64]struct{}, len(ids))
    out := make([]uint64, 0, len(ids))
    for _, id := range ids {
        if id == 0 {
            continue
        }
        if _, ok := seen[id]; !ok {
            seen[id] = struct{}{}
            out = append(out, id)
        }
    }
    return out
}
