package model

import (
    "testing"

    "github.com/stretchr/testify/assert"
)

func TestTicketLineCount(t *testing.T) {
    tests := []struct {
        name     string
        startNum int64
        endNum   int64
        want     int64
    }{
        {name: "single number", startNum: 7, endNum: 7, want: 1},
        {name: "small range", startNum: 1, endNum: 10, want: 10},
        {name: "offset range", startNum: 500, endNum: 520, want: 21},
    }
    for _, tt := range tests {
        t.Run(tt.name, func(t *testing.T) {
            tk := &Ticket{StartNum: tt.startNum, EndNum: tt.endNum}
            assert.Equal(t, tt.want, tk.LineCount())
        })
    }
}
