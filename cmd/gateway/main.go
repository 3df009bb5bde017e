package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/indigo-web/gateway"
	"github.com/indigo-web/gateway/app"
	_ "github.com/indigo-web/gateway/app/demo"
	"github.com/indigo-web/gateway/config"
)

func main() {
	addr := flag.String("addr", ":8888", "address to listen on")
	mode := flag.String("mode", config.Goroutine.String(), "worker mode: goroutine or process")
	malformed := flag.Bool("respond-malformed", false, "answer malformed request lines with 400 Bad Request")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Provide a gateway application object as module:callable")
		flag.Usage()
		os.Exit(1)
	}

	application, err := app.Lookup(flag.Arg(0))
	if err != nil {
		log.Fatal(err)
	}

	workerMode, err := config.ParseWorkerMode(*mode)
	if err != nil {
		log.Fatal(err)
	}

	cfg := config.Default()
	cfg.Worker.Mode = workerMode
	cfg.Server.RespondMalformed = *malformed

	gw := gateway.New(*addr).Tune(cfg)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		log.Println("shutting down")
		gw.Stop()
	}()

	if err = gw.Serve(application); err != nil {
		log.Fatal(err)
	}
}

func usage() {
	out := flag.CommandLine.Output()
	fmt.Fprintf(out, "usage: %s [flags] module:callable\n", os.Args[0])
	flag.PrintDefaults()
	fmt.Fprintf(out, "built-in applications: %s\n", strings.Join(app.Registered(), ", "))
}
