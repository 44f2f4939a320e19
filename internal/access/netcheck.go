package access

import (
    "context"
    "database/sql/driver"
    "errors"
    "net"
    "syscall"

    "github.com/go-sql-driver/mysql"
)

// isConnectivityError separates "the network is down" from every other
// failure.  Gate stations routinely lose connectivity, and the engine
// must defer such scans instead of reporting an error; anything not
// recognized here is treated as an unexpected backend failure and
// surfaced to the operator.
func isConnectivityError(err error) bool {
    if err == nil {
        return false
    }
    if errors.Is(err, driver.ErrBadConn) || errors.Is(err, mysql.ErrInvalidConn) {
        return true
    }
    if errors.Is(err, context.DeadlineExceeded) {
        return true
    }
    var netErr net.Error
    if errors.As(err, &netErr) && netErr.Timeout() {
        return true
    }
    var opErr *net.OpError
    if errors.As(err, &opErr) {
        return true
    }
    for _, errno := range []syscall.Errno{
        syscall.ECONNREFUSED, syscall.ECONNRESET, syscall.EHOSTUNREACH,
        syscall.ENETUNREACH, syscall.ENETDOWN, syscall.EPIPE,
    } {
        if errors.Is(err, errno) {
            return true
        }
    }
    return false
}
