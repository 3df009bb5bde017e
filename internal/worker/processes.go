//go:build unix

package worker

import (
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"sync"

	"golang.org/x/sys/unix"
)

var ErrNoFile = errors.New("connection can't be passed to a process")

type filer interface {
	File() (*os.File, error)
}

// Processes runs each connection in a fresh copy of the running executable. The
// connection is inherited as file descriptor 3, everything else the process has open
// (the listener included) is closed on exec. The child side is Child.
//
// Finished workers are collected by waiting for any child of the process, so children
// spawned by other means get reaped as well.
type Processes struct {
	exe     string
	args    []string
	env     []string
	log     Logger
	signals chan os.Signal
	quit    chan struct{}
	stopped chan struct{}
	once    sync.Once
}

// NewProcesses prepares the process dispatcher. The server name and port are forwarded
// to the workers, as they aren't able to learn them on their own.
func NewProcesses(serverName string, serverPort int, log Logger) (*Processes, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("locate executable: %w", err)
	}

	p := &Processes{
		exe:  exe,
		args: os.Args,
		env: append(
			os.Environ(),
			envConnFD+"="+strconv.Itoa(connFD),
			envServerName+"="+serverName,
			envServerPort+"="+strconv.Itoa(serverPort),
		),
		log:     log,
		signals: make(chan os.Signal, 1),
		quit:    make(chan struct{}),
		stopped: make(chan struct{}),
	}

	signal.Notify(p.signals, unix.SIGCHLD)
	go p.reaper()

	return p, nil
}

func (p *Processes) Dispatch(conn net.Conn) error {
	// the worker has got its own copy, so ours is closed in any case
	defer conn.Close()

	fc, ok := conn.(filer)
	if !ok {
		return fmt.Errorf("%w: %T", ErrNoFile, conn)
	}

	file, err := fc.File()
	if err != nil {
		return err
	}

	defer file.Close()

	proc, err := os.StartProcess(p.exe, p.args, &os.ProcAttr{
		Env:   p.env,
		Files: []*os.File{os.Stdin, os.Stdout, os.Stderr, file},
	})
	if err != nil {
		return fmt.Errorf("spawn worker: %w", err)
	}

	// the process is collected by the reaper, which knows nothing about os.Process
	return proc.Release()
}

func (p *Processes) reaper() {
	defer close(p.stopped)

	for {
		select {
		case <-p.signals:
			p.Reap()
		case <-p.quit:
			return
		}
	}
}

func (p *Processes) Reap() (n int) {
	for {
		var ws unix.WaitStatus
		pid, err := unix.Wait4(-1, &ws, unix.WNOHANG, nil)
		switch {
		case err == unix.EINTR:
			continue
		case err != nil, pid <= 0:
			// ECHILD: no children at all. pid 0: none of them has terminated yet
			return n
		}

		p.report(pid, ws)
		n++
	}
}

func (p *Processes) Wait() {
	p.once.Do(func() {
		signal.Stop(p.signals)
		close(p.quit)
	})
	<-p.stopped

	for {
		var ws unix.WaitStatus
		pid, err := unix.Wait4(-1, &ws, 0, nil)
		switch {
		case err == unix.EINTR:
			continue
		case err != nil:
			return
		}

		p.report(pid, ws)
	}
}

func (p *Processes) report(pid int, ws unix.WaitStatus) {
	if p.log == nil {
		return
	}

	switch {
	case ws.Exited() && ws.ExitStatus() == 0:
	case ws.Exited():
		p.log.Printf("worker %d: exit status %d", pid, ws.ExitStatus())
	case ws.Signaled():
		p.log.Printf("worker %d: killed by %s", pid, ws.Signal())
	}
}
