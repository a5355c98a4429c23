// cadbridged runs the CAD RPC bridge as a standalone daemon: a stand-in UI
// loop on the main goroutine, the pump and executor on that loop, and the
// MCP listener on its own goroutine.
//
// Usage: cadbridged -config config.yaml -host 127.0.0.1 -port 9875
package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"cadbridge/pkg/config"
	"cadbridge/pkg/lifecycle"
	"cadbridge/pkg/logx"
	"cadbridge/pkg/uiloop"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file")
	host := flag.String("host", "", "Listen host (overrides config)")
	port := flag.Int("port", -1, "Listen port (overrides config; 0 picks a free port)")
	flag.Parse()

	logger := logx.NewLogger("cadbridged")

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	if *host != "" {
		cfg.Listen.Host = *host
	}
	if *port >= 0 {
		cfg.Listen.Port = *port
	}

	loop := uiloop.New()
	manager := lifecycle.NewManager(cfg, loop)

	if cfg.MetricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			logger.Info("Metrics listening on %s", cfg.MetricsAddr)
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				logger.Warn("Metrics server exited: %v", err)
			}
		}()
	}

	status := manager.Start(cfg.Listen.Host, cfg.Listen.Port)
	logger.Info("%s", status)
	if !strings.HasPrefix(status, "RPC Server started") {
		os.Exit(1)
	}
	if srv := manager.Server(); srv != nil && !cfg.Listen.AuthDisabled {
		fmt.Printf("PORT=%d\nTOKEN=%s\n", srv.Port(), srv.Token())
	} else if srv != nil {
		fmt.Printf("PORT=%d\n", srv.Port())
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("Shutting down...")
		logger.Info("%s", manager.Stop())
		loop.Stop()
	}()

	// The main goroutine is the UI loop.
	loop.Run()
}
