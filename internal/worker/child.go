package worker

import (
	"fmt"
	"net"
	"os"
	"strconv"
)

const (
	envConnFD     = "GATEWAY_WORKER_FD"
	envServerName = "GATEWAY_SERVER_NAME"
	envServerPort = "GATEWAY_SERVER_PORT"

	connFD = 3
)

// IsChild reports whether the current process was spawned by Processes to serve a
// single connection.
func IsChild() bool {
	_, ok := os.LookupEnv(envConnFD)
	return ok
}

// ChildEndpoint returns the server name and port the parent has bound.
func ChildEndpoint() (name string, port int, err error) {
	port, err = strconv.Atoi(os.Getenv(envServerPort))
	if err != nil {
		return "", 0, fmt.Errorf("bad %s: %w", envServerPort, err)
	}

	return os.Getenv(envServerName), port, nil
}

// Child serves the inherited connection and returns the exit code, which the caller
// is expected to pass into os.Exit right away.
func Child(handle Handle, log Logger) (code int) {
	defer func() {
		if r := recover(); r != nil {
			logf(log, "worker %d: %s: %v", os.Getpid(), ErrPanicked, r)
			code = 1
		}
	}()

	conn, err := inheritedConn()
	if err != nil {
		logf(log, "worker %d: %s", os.Getpid(), err)
		return 1
	}

	if err = handle(conn); err != nil {
		logf(log, "worker %d (%s): %s", os.Getpid(), remote(conn.RemoteAddr()), err)
		return 1
	}

	return 0
}

func inheritedConn() (net.Conn, error) {
	fd, err := strconv.Atoi(os.Getenv(envConnFD))
	if err != nil {
		return nil, fmt.Errorf("bad %s: %w", envConnFD, err)
	}

	file := os.NewFile(uintptr(fd), "connection")
	defer file.Close()

	// FileConn dups the descriptor, so closing the file is fine
	return net.FileConn(file)
}

func logf(log Logger, format string, v ...any) {
	if log != nil {
		log.Printf(format, v...)
	}
}
