package config

import (
	"fmt"
	"time"

	"github.com/indigo-web/utils/strcomp"
)

// WorkerMode selects the isolation unit every accepted connection is served in.
type WorkerMode uint8

const (
	// Goroutine serves each connection in its own goroutine.
	Goroutine WorkerMode = iota
	// Process re-executes the running binary for each connection and hands the
	// connection over as an inherited file descriptor.
	Process
)

func (w WorkerMode) String() string {
	switch w {
	case Goroutine:
		return "goroutine"
	case Process:
		return "process"
	default:
		return fmt.Sprintf("WorkerMode(%d)", w)
	}
}

func ParseWorkerMode(str string) (WorkerMode, error) {
	switch {
	case strcomp.EqualFold(str, "goroutine"):
		return Goroutine, nil
	case strcomp.EqualFold(str, "process"):
		return Process, nil
	default:
		return 0, fmt.Errorf("unknown worker mode: %q", str)
	}
}

type (
	NET struct {
		// ReadBufferSize is the size of the single read a request is made of. Everything
		// beyond it is never seen by the application.
		ReadBufferSize int
		// ReadTimeout limits how long a worker waits for the request bytes. Zero disables it.
		ReadTimeout time.Duration
		// WriteTimeout limits how long a worker spends writing the response. Zero disables it.
		WriteTimeout time.Duration
		// AcceptLoopInterruptPeriod controls how often will the Accept() call be interrupted
		// in order to check whether it's time to stop. Defaults to 5 seconds.
		AcceptLoopInterruptPeriod time.Duration
	}

	Worker struct {
		Mode WorkerMode
		// Backlog is the capacity of the completion queue goroutine workers report to. Workers
		// finishing while the queue is full wait until the reaper catches up. Zero (or less)
		// means no queue: each exit is handed to the reaper directly.
		Backlog int
	}

	Server struct {
		// Software is the value of the Server header, prepended to every response.
		Software string
		// RespondMalformed makes workers answer an unparsable request line with
		// 400 Bad Request instead of just dropping the connection.
		RespondMalformed bool
	}
)

// Config holds settings used across the gateway. Always start from Default() and modify
// the fields you need.
type Config struct {
	NET    NET
	Worker Worker
	Server Server
}

// Default returns default config.
func Default() *Config {
	return &Config{
		NET: NET{
			ReadBufferSize:            1024,
			ReadTimeout:               90 * time.Second,
			WriteTimeout:              90 * time.Second,
			AcceptLoopInterruptPeriod: 5 * time.Second,
		},
		Worker: Worker{
			Mode:    Goroutine,
			Backlog: 128,
		},
		Server: Server{
			Software: "gateway 0.1",
		},
	}
}
