// Package worker runs every accepted connection in an isolated unit of execution and
// reclaims the finished ones in the background, so the accept loop never waits for a
// request to complete.
package worker

import (
	"errors"
	"net"
)

var ErrPanicked = errors.New("worker panicked")

// Handle serves a single connection. It owns the connection and must close it.
type Handle func(conn net.Conn) error

type Logger interface {
	Printf(format string, v ...any)
}

// Dispatcher hands connections off to workers.
type Dispatcher interface {
	// Dispatch starts a worker for the connection and returns immediately. The caller
	// must not use the connection afterwards.
	Dispatch(conn net.Conn) error
	// Reap collects all the workers that have already finished, without blocking. It
	// returns how many were collected.
	Reap() int
	// Wait stops the background reaper and blocks until every dispatched worker is
	// collected.
	Wait()
}
