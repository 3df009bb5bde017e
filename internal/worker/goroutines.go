package worker

import (
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"
)

// Exit is reported by every goroutine worker when it's done.
type Exit struct {
	ID       uint64
	Remote   net.Addr
	Err      error
	Duration time.Duration
}

// Goroutines runs each connection in a dedicated goroutine. A panic in the handler is
// recovered and reported as a failed Exit, leaving other workers intact.
type Goroutines struct {
	handle  Handle
	log     Logger
	done    chan Exit
	quit    chan struct{}
	stopped chan struct{}
	once    sync.Once
	seq     atomic.Uint64
	live    atomic.Int64
}

// NewGoroutines starts the reaper goroutine. Backlog is the capacity of the completion
// queue; a non-positive backlog makes every exit a direct hand-off to the reaper.
func NewGoroutines(backlog int, handle Handle, log Logger) *Goroutines {
	g := &Goroutines{
		handle:  handle,
		log:     log,
		done:    make(chan Exit, max(backlog, 0)),
		quit:    make(chan struct{}),
		stopped: make(chan struct{}),
	}

	go g.reaper()

	return g
}

func (g *Goroutines) Dispatch(conn net.Conn) error {
	g.live.Add(1)
	go g.work(g.seq.Add(1), conn)

	return nil
}

// Live returns the number of dispatched workers which weren't collected yet.
func (g *Goroutines) Live() int {
	return int(g.live.Load())
}

func (g *Goroutines) work(id uint64, conn net.Conn) {
	exit := Exit{
		ID:     id,
		Remote: conn.RemoteAddr(),
	}
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			_ = conn.Close()
			exit.Err = fmt.Errorf("%w: %v", ErrPanicked, r)
		}

		exit.Duration = time.Since(start)
		g.done <- exit
	}()

	exit.Err = g.handle(conn)
}

func (g *Goroutines) reaper() {
	defer close(g.stopped)

	for {
		select {
		case exit := <-g.done:
			g.collect(exit)
			g.Reap()
		case <-g.quit:
			return
		}
	}
}

func (g *Goroutines) Reap() (n int) {
	for {
		select {
		case exit := <-g.done:
			g.collect(exit)
			n++
		default:
			return n
		}
	}
}

func (g *Goroutines) Wait() {
	g.once.Do(func() {
		close(g.quit)
	})
	<-g.stopped

	for g.live.Load() > 0 {
		g.collect(<-g.done)
	}
}

func (g *Goroutines) collect(exit Exit) {
	g.live.Add(-1)

	if exit.Err != nil && g.log != nil {
		g.log.Printf("worker %d (%s): %s", exit.ID, remote(exit.Remote), exit.Err)
	}
}

func remote(addr net.Addr) string {
	if addr == nil {
		return "unknown"
	}

	return addr.String()
}
