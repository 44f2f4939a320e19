package access

import (
    "context"
    "database/sql/driver"
    "errors"
    "fmt"
    "net"
    "syscall"
    "testing"

    "github.com/go-sql-driver/mysql"
    "github.com/stretchr/testify/assert"
)

func TestIsConnectivityError(t *testing.T) {
    cases := []struct {
        name string
        err  error
        want bool
    }{
        {"nil", nil, false},
        {"bad conn", driver.ErrBadConn, true},
        {"wrapped bad conn", fmt.Errorf("query: %w", driver.ErrBadConn), true},
        {"invalid conn", mysql.ErrInvalidConn, true},
        {"deadline", context.DeadlineExceeded, true},
        {"op error", &net.OpError{Op: "dial", Err: errors.New("refused")}, true},
        {"conn refused errno", syscall.ECONNREFUSED, true},
        {"plain error", errors.New("duplicate entry"), false},
        {"sql syntax", errors.New("Error 1064: syntax error"), false},
    }
    for _, tc := range cases {
        t.Run(tc.name, func(t *testing.T) {
            assert.Equal(t, tc.want, isConnectivityError(tc.err))
        })
    }
}
