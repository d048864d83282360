package service

import (
    "context"
    "database/sql"
    "testing"
    "time"

    "github.com/DATA-DOG/go-sqlmock"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/ticket-reservation/internal/model"
    "github.com/iliyamo/ticket-reservation/internal/repository"
)

func newTicketService(t *testing.T) (*TicketService, sqlmock.Sqlmock) {
    t.Helper()
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    t.Cleanup(func() { _ = db.Close() })
    tickets := repository.NewTicketRepo(db, db)
    lines := repository.NewTicketLineRepo(db, db)
    return NewTicketService(db, tickets, lines), mock
}

func ticketRow(id uint64, startNum, endNum int64) *sqlmock.Rows {
    now := time.Now()
    return sqlmock.NewRows([]string{
        "id", "name", "state", "description", "price_cents", "start_num", "end_num",
        "win_num", "start_date", "end_date", "available_count", "reserved_count",
        "sold_count", "create_date", "write_date",
    }).AddRow(int64(id), "summer raffle", "DRAFT", nil, 500, startNum, endNum,
        nil, now, now, int64(0), int64(0), int64(0), now, now)
}

func TestCreateTicketInvalidRange(t *testing.T) {
    svc, _ := newTicketService(t)
    _, _, err := svc.CreateTicket(context.Background(), &model.Ticket{
        Name: "bad", StartNum: 10, EndNum: 1,
    })
    assert.ErrorIs(t, err, ErrInvalidRange)
}

// First materialization must lock the ticket row, insert the lines and
// initialize the counters to (line count, 0, 0), all in one
// transaction.
func TestMaterializeLinesFirstCall(t *testing.T) {
    svc, mock := newTicketService(t)
    now := time.Now()

    mock.ExpectBegin()
    mock.ExpectQuery(`FROM tickets WHERE id = \? FOR UPDATE`).
        WillReturnRows(ticketRow(7, 1, 3))
    mock.ExpectQuery(`FROM ticket_lines WHERE ticket_id = \?`).
        WillReturnRows(sqlmock.NewRows([]string{
            "id", "number", "ticket_id", "user_code", "is_special_price",
            "special_price_cents", "state", "create_date", "write_date",
        }))
    mock.ExpectExec(`INSERT INTO ticket_lines`).
        WillReturnResult(sqlmock.NewResult(0, 3))
    mock.ExpectQuery(`FROM ticket_lines WHERE ticket_id = \?`).
        WillReturnRows(sqlmock.NewRows([]string{
            "id", "number", "ticket_id", "user_code", "is_special_price",
            "special_price_cents", "state", "create_date", "write_date",
        }).
            AddRow(int64(100), int64(1), int64(7), nil, false, 0, "AVAILABLE", now, now).
            AddRow(int64(101), int64(2), int64(7), nil, false, 0, "AVAILABLE", now, now).
            AddRow(int64(102), int64(3), int64(7), nil, false, 0, "AVAILABLE", now, now))
    mock.ExpectExec(`UPDATE tickets`).
        WithArgs(int64(3), int64(0), int64(0), int64(7)).
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectCommit()

    lines, err := svc.MaterializeLines(context.Background(), 7)
    require.NoError(t, err)
    assert.Len(t, lines, 3)
    assert.Equal(t, model.LineAvailable, lines[0].State)
    assert.NoError(t, mock.ExpectationsWereMet())
}

// A second call sees the existing lines under the same ticket lock and
// must neither insert nor rewrite the counters.
func TestMaterializeLinesIdempotent(t *testing.T) {
    svc, mock := newTicketService(t)
    now := time.Now()

    mock.ExpectBegin()
    mock.ExpectQuery(`FROM tickets WHERE id = \? FOR UPDATE`).
        WillReturnRows(ticketRow(7, 1, 2))
    mock.ExpectQuery(`FROM ticket_lines WHERE ticket_id = \?`).
        WillReturnRows(sqlmock.NewRows([]string{
            "id", "number", "ticket_id", "user_code", "is_special_price",
            "special_price_cents", "state", "create_date", "write_date",
        }).
            AddRow(int64(100), int64(1), int64(7), nil, false, 0, "AVAILABLE", now, now).
            AddRow(int64(101), int64(2), int64(7), nil, false, 0, "RESERVED", now, now))
    mock.ExpectCommit()

    lines, err := svc.MaterializeLines(context.Background(), 7)
    require.NoError(t, err)
    assert.Len(t, lines, 2)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMaterializeLinesUnknownTicket(t *testing.T) {
    svc, mock := newTicketService(t)

    mock.ExpectBegin()
    mock.ExpectQuery(`FROM tickets WHERE id = \? FOR UPDATE`).
        WillReturnError(sql.ErrNoRows)
    mock.ExpectRollback()

    _, err := svc.MaterializeLines(context.Background(), 99)
    assert.ErrorIs(t, err, repository.ErrTicketNotFound)
    assert.NoError(t, mock.ExpectationsWereMet())
}
