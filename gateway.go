package gateway

import (
	"log"
	"net"
	"os"
	"sync"

	"github.com/indigo-web/gateway/app"
	"github.com/indigo-web/gateway/config"
	"github.com/indigo-web/gateway/environ"
	"github.com/indigo-web/gateway/internal/handler"
	"github.com/indigo-web/gateway/internal/worker"
	"github.com/indigo-web/gateway/transport"
)

type Logger interface {
	Printf(format string, v ...any)
}

// App binds a single listener and serves every connection it accepts in an isolated
// worker, see config.Worker.
type App struct {
	addr      string
	cfg       *config.Config
	log       Logger
	hooks     hooks
	transport transport.Transport
	// mu guards the transport against a Stop racing with Bind.
	mu      sync.Mutex
	stopped bool
}

// New returns a new App instance.
func New(addr string) *App {
	return &App{
		addr:      addr,
		cfg:       config.Default(),
		log:       log.Default(),
		transport: transport.NewTCP(),
	}
}

// Tune replaces default config.
func (a *App) Tune(cfg *config.Config) *App {
	a.cfg = cfg
	return a
}

// Logger replaces the default logger, which is log.Default().
func (a *App) Logger(l Logger) *App {
	a.log = l
	return a
}

// NotifyOnStart calls the callback as soon as the listener is bound, right before
// the first connection is accepted.
func (a *App) NotifyOnStart(cb func()) *App {
	a.hooks.OnStart = cb
	return a
}

// NotifyOnStop calls the callback when the server doesn't accept new connections anymore
// and every worker is collected.
func (a *App) NotifyOnStop(cb func()) *App {
	a.hooks.OnStop = cb
	return a
}

// Endpoint returns where the server listens. It's available after the OnStart hook fired.
func (a *App) Endpoint() transport.Endpoint {
	return a.transport.Endpoint()
}

// Serve runs the server until it's stopped or the listener fails. Inside a process
// worker, Serve handles the inherited connection and exits the process instead.
func (a *App) Serve(application app.Application) error {
	if worker.IsChild() {
		os.Exit(a.serveChild(application))
	}

	if stopped, err := a.bind(); stopped || err != nil {
		return err
	}

	defer func() {
		_ = a.transport.Close()
	}()

	endpoint := a.transport.Endpoint()
	dispatcher, err := a.newDispatcher(endpoint, application)
	if err != nil {
		return err
	}

	a.log.Printf("Serving HTTP on %s with PID %d", endpoint, os.Getpid())
	callIfNotNil(a.hooks.OnStart)

	err = a.transport.Listen(a.cfg.NET, func(conn net.Conn) {
		if err := dispatcher.Dispatch(conn); err != nil {
			a.log.Printf("dispatch %s: %s", conn.RemoteAddr(), err)
		}
	})

	dispatcher.Wait()
	callIfNotNil(a.hooks.OnStop)

	return err
}

// bind binds the transport, unless the App was already stopped.
func (a *App) bind() (stopped bool, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopped {
		return true, nil
	}

	return false, a.transport.Bind(a.addr)
}

// Stop closes the listener. Serve returns as soon as all the running workers are done.
// Stopping an App which isn't served yet makes the following Serve return nil right away.
//
// NOTE: the call isn't blocking.
func (a *App) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopped {
		return
	}

	a.stopped = true
	a.transport.Stop()
	_ = a.transport.Close()
}

func (a *App) newDispatcher(endpoint transport.Endpoint, application app.Application) (worker.Dispatcher, error) {
	switch a.cfg.Worker.Mode {
	case config.Process:
		return worker.NewProcesses(endpoint.Name, endpoint.Port, a.log)
	default:
		h := handler.New(a.cfg, application, environ.Builder{
			ServerName:   endpoint.Name,
			ServerPort:   endpoint.Port,
			Multithread:  true,
			Multiprocess: false,
		})

		return worker.NewGoroutines(a.cfg.Worker.Backlog, h.Handle, a.log), nil
	}
}

func (a *App) serveChild(application app.Application) int {
	name, port, err := worker.ChildEndpoint()
	if err != nil {
		a.log.Printf("worker %d: %s", os.Getpid(), err)
		return 1
	}

	h := handler.New(a.cfg, application, environ.Builder{
		ServerName:   name,
		ServerPort:   port,
		Multithread:  false,
		Multiprocess: true,
	})

	return worker.Child(h.Handle, a.log)
}

type hooks struct {
	OnStart, OnStop func()
}

func callIfNotNil(f func()) {
	if f != nil {
		f()
	}
}
