package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/cardtable/webclient/internal/server"
	"github.com/gin-gonic/gin"
	"k8s.io/klog/v2"
)

var (
	defaults    = server.DefaultConfig()
	flagAddr    = flag.String("addr", defaults.Addr, "Address to listen on (default: auto-port on localhost)")
	flagBackend = flag.String("backend", defaults.Backend, "Base URL of the admin and game service; empty disables the proxy")
	flagWeb     = flag.String("web", defaults.WebDir, "Directory with the static files and app.wasm")
	flagDebug   = flag.Bool("debug", false, "Run gin in debug mode")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()
	if !*flagDebug {
		gin.SetMode(gin.ReleaseMode)
	}

	cfg := defaults
	cfg.Addr, cfg.Backend, cfg.WebDir = *flagAddr, *flagBackend, *flagWeb

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	started := make(chan server.Started, 1)
	go func() {
		s := <-started
		fmt.Printf("Card table listening on http://%s\n", s.Address)
	}()

	if err := server.Run(ctx, cfg, started); err != nil {
		klog.Fatal(err)
	}
}
