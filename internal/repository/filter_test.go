package repository

import (
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

var testColumns = map[string]bool{
    "id": true, "name": true, "state": true, "available_count": true,
}

func TestParseOp(t *testing.T) {
    op, err := ParseOp("IN")
    require.NoError(t, err)
    assert.Equal(t, OpIn, op)

    op, err = ParseOp(" is not ")
    require.NoError(t, err)
    assert.Equal(t, OpIsNot, op)

    _, err = ParseOp("between")
    assert.Error(t, err)
}

func TestBuildSelectConditions(t *testing.T) {
    tests := []struct {
        name     string
        cond     Cond
        wantSQL  string
        wantArgs []interface{}
    }{
        {
            name:     "equality",
            cond:     Cond{Field: "state", Op: OpEq, Value: "POSTED"},
            wantSQL:  "SELECT id FROM tickets WHERE state = ?",
            wantArgs: []interface{}{"POSTED"},
        },
        {
            name:     "inequality",
            cond:     Cond{Field: "available_count", Op: OpNe, Value: 0},
            wantSQL:  "SELECT id FROM tickets WHERE available_count <> ?",
            wantArgs: []interface{}{0},
        },
        {
            name:     "greater or equal",
            cond:     Cond{Field: "available_count", Op: OpGe, Value: 5},
            wantSQL:  "SELECT id FROM tickets WHERE available_count >= ?",
            wantArgs: []interface{}{5},
        },
        {
            name:     "in list",
            cond:     Cond{Field: "id", Op: OpIn, Value: []interface{}{1, 2, 3}},
            wantSQL:  "SELECT id FROM tickets WHERE id IN (?,?,?)",
            wantArgs: []interface{}{1, 2, 3},
        },
        {
            name:    "empty in never matches",
            cond:    Cond{Field: "id", Op: OpIn, Value: []interface{}{}},
            wantSQL: "SELECT id FROM tickets WHERE 1 = 0",
        },
        {
            name:    "empty not in always matches",
            cond:    Cond{Field: "id", Op: OpNotIn, Value: []interface{}{}},
            wantSQL: "SELECT id FROM tickets WHERE 1 = 1",
        },
        {
            name:     "typed slice for in",
            cond:     Cond{Field: "id", Op: OpIn, Value: []uint64{7, 9}},
            wantSQL:  "SELECT id FROM tickets WHERE id IN (?,?)",
            wantArgs: []interface{}{uint64(7), uint64(9)},
        },
        {
            name:    "is null",
            cond:    Cond{Field: "name", Op: OpIs, Value: nil},
            wantSQL: "SELECT id FROM tickets WHERE name IS NULL",
        },
        {
            name:    "is not null",
            cond:    Cond{Field: "name", Op: OpIsNot, Value: nil},
            wantSQL: "SELECT id FROM tickets WHERE name IS NOT NULL",
        },
        {
            name:     "is with value behaves as equality",
            cond:     Cond{Field: "name", Op: OpIs, Value: "x"},
            wantSQL:  "SELECT id FROM tickets WHERE name = ?",
            wantArgs: []interface{}{"x"},
        },
        {
            name:     "like",
            cond:     Cond{Field: "name", Op: OpLike, Value: "%raffle%"},
            wantSQL:  "SELECT id FROM tickets WHERE name LIKE ?",
            wantArgs: []interface{}{"%raffle%"},
        },
        {
            name:     "ilike folds case",
            cond:     Cond{Field: "name", Op: OpILike, Value: "%Raffle%"},
            wantSQL:  "SELECT id FROM tickets WHERE LOWER(name) LIKE LOWER(?)",
            wantArgs: []interface{}{"%Raffle%"},
        },
        {
            name:     "not ilike",
            cond:     Cond{Field: "name", Op: OpNotILike, Value: "%x%"},
            wantSQL:  "SELECT id FROM tickets WHERE LOWER(name) NOT LIKE LOWER(?)",
            wantArgs: []interface{}{"%x%"},
        },
    }
    for _, tt := range tests {
        t.Run(tt.name, func(t *testing.T) {
            sql, args := BuildSelect("id", "tickets", testColumns, &Filter{Domain: []Cond{tt.cond}})
            assert.Equal(t, tt.wantSQL, sql)
            assert.Equal(t, tt.wantArgs, args)
        })
    }
}

func TestBuildSelectSkipsUnknownFields(t *testing.T) {
    f := &Filter{Domain: []Cond{
        {Field: "secret_column", Op: OpEq, Value: 1},
        {Field: "state", Op: OpEq, Value: "POSTED"},
    }}
    sql, args := BuildSelect("id", "tickets", testColumns, f)
    assert.Equal(t, "SELECT id FROM tickets WHERE state = ?", sql)
    assert.Equal(t, []interface{}{"POSTED"}, args)
}

func TestBuildSelectOrdering(t *testing.T) {
    f := &Filter{Order: map[string]string{
        "name":       "desc",
        "id":         "ASC",
        "state":      "sideways", // unknown direction is skipped
        "mysterious": "asc",      // unknown field is skipped
    }}
    sql, _ := BuildSelect("id", "tickets", testColumns, f)
    assert.Equal(t, "SELECT id FROM tickets ORDER BY id ASC, name DESC", sql)
}

func TestBuildSelectPagination(t *testing.T) {
    sql, args := BuildSelect("id", "tickets", testColumns, &Filter{Limit: 10, Offset: 20})
    assert.Equal(t, "SELECT id FROM tickets LIMIT ? OFFSET ?", sql)
    assert.Equal(t, []interface{}{int64(10), int64(20)}, args)

    // A zero limit means unbounded; the offset is only meaningful with a limit.
    sql, args = BuildSelect("id", "tickets", testColumns, &Filter{Offset: 20})
    assert.Equal(t, "SELECT id FROM tickets", sql)
    assert.Empty(t, args)
}

func TestBuildSelectNilFilter(t *testing.T) {
    sql, args := BuildSelect("id, name", "tickets", testColumns, nil)
    assert.Equal(t, "SELECT id, name FROM tickets", sql)
    assert.Empty(t, args)
}
