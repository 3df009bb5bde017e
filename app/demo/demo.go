// Package demo registers a handful of applications under the "demo" module, so the
// gateway can be tried out without writing any code: demo:hello, demo:environ,
// demo:slow and demo:crash.
package demo

import (
	"errors"
	"io"
	"iter"
	"time"

	"github.com/indigo-web/gateway/app"
	"github.com/indigo-web/gateway/environ"
	json "github.com/json-iterator/go"
)

const Module = "demo"

// SlowDelay is how long demo:slow sleeps before responding.
var SlowDelay = time.Second

func init() {
	app.Register(Module, "hello", Hello)
	app.Register(Module, "environ", Environ)
	app.Register(Module, "slow", Slow)
	app.Register(Module, "crash", Crash)
}

func Hello(_ environ.Environ, start app.StartResponse) (iter.Seq[[]byte], error) {
	start("200 OK", []app.Header{{Name: "Content-Type", Value: "text/plain"}})
	return app.String("Hello, world!\n"), nil
}

// Environ responds with the environment rendered as a JSON object. Streams are omitted.
func Environ(env environ.Environ, start app.StartResponse) (iter.Seq[[]byte], error) {
	printable := make(map[string]any, len(env))
	for key, value := range env {
		switch value.(type) {
		case io.Reader, io.Writer:
		default:
			printable[key] = value
		}
	}

	body, err := json.ConfigCompatibleWithStandardLibrary.MarshalIndent(printable, "", "  ")
	if err != nil {
		return nil, err
	}

	start("200 OK", []app.Header{{Name: "Content-Type", Value: "application/json"}})
	return app.Body(body, []byte("\n")), nil
}

// Slow waits for SlowDelay and responds with the requested path.
func Slow(env environ.Environ, start app.StartResponse) (iter.Seq[[]byte], error) {
	time.Sleep(SlowDelay)
	start("200 OK", []app.Header{{Name: "Content-Type", Value: "text/plain"}})
	return app.String(env.Path()), nil
}

var errCrash = errors.New("demo:crash always crashes")

// Crash panics, so the worker dies without responding.
func Crash(environ.Environ, app.StartResponse) (iter.Seq[[]byte], error) {
	panic(errCrash)
}
