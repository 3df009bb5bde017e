//go:build !unix

package worker

import (
	"errors"
	"net"
)

var ErrNoFile = errors.New("connection can't be passed to a process")

var errUnsupported = errors.New("process workers are supported on unix systems only")

type Processes struct{}

func NewProcesses(string, int, Logger) (*Processes, error) {
	return nil, errUnsupported
}

func (*Processes) Dispatch(conn net.Conn) error {
	_ = conn.Close()
	return errUnsupported
}

func (*Processes) Reap() int {
	return 0
}

func (*Processes) Wait() {}
