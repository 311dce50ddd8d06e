package util

import (
	"net"
	"time"
)

// TimeoutConn wraps a connection with read/write timeouts refreshed lazily, trading
// deadline accuracy for fewer SetDeadline calls
// The effective timeout of a single call is anything between the configured value and
// double of it
type TimeoutConn struct {
	conn  net.Conn
	read  lazyDeadline
	write lazyDeadline
}

type lazyDeadline struct {
	min      time.Duration
	max      time.Duration
	deadline time.Time
}

// NewTimeoutConn creates a TimeoutConn with the given timeouts, zero disabling the direction
func NewTimeoutConn(conn net.Conn, readTimeout time.Duration, writeTimeout time.Duration) *TimeoutConn {
	return &TimeoutConn{
		conn:  conn,
		read:  lazyDeadline{min: readTimeout, max: readTimeout * 2},
		write: lazyDeadline{min: writeTimeout, max: writeTimeout * 2},
	}
}

func (tc *TimeoutConn) Read(p []byte) (int, error) {
	if next, renew := tc.read.nextDeadline(); renew {
		if err := tc.conn.SetReadDeadline(next); err != nil {
			return 0, err
		}
		tc.read.deadline = next
	}
	return tc.conn.Read(p)
}

func (tc *TimeoutConn) Write(p []byte) (int, error) {
	if next, renew := tc.write.nextDeadline(); renew {
		if err := tc.conn.SetWriteDeadline(next); err != nil {
			return 0, err
		}
		tc.write.deadline = next
	}
	return tc.conn.Write(p)
}

// Close closes the underlying connection
func (tc *TimeoutConn) Close() error {
	return tc.conn.Close()
}

// ReadDeadline returns the read deadline currently set on the connection
func (tc *TimeoutConn) ReadDeadline() time.Time {
	return tc.read.deadline
}

// WriteDeadline returns the write deadline currently set on the connection
func (tc *TimeoutConn) WriteDeadline() time.Time {
	return tc.write.deadline
}

// nextDeadline decides whether the deadline must be pushed forward before the next I/O call
func (dl lazyDeadline) nextDeadline() (time.Time, bool) {
	if dl.min <= 0 {
		return time.Time{}, false
	}
	now := time.Now()
	if dl.deadline.Sub(now) >= dl.min {
		return time.Time{}, false
	}
	return now.Add(dl.max), true
}
