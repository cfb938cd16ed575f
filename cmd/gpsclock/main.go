package main

import (
	"context"
	"flag"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gpsclock/internal/config"
	"gpsclock/internal/web"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "./dev.yaml", "Path to YAML config")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	// Mirror the log into the web ring buffer so /api/logs works without
	// shell access to the box.
	logBuf := web.NewLogBuffer(0)
	log.SetOutput(io.MultiWriter(os.Stderr, logBuf))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	status := web.NewStatus()
	status.SetStatic(cfg.GPS.Source, cfg.Web.Listen)

	rt, err := newClockRuntime(ctx, cfg, status)
	if err != nil {
		log.Fatalf("runtime init failed: %v", err)
	}
	defer rt.Close()

	log.Printf("gpsclock starting")
	log.Printf("clock tick=%s mode=%s dst_source=%s gps_source=%s",
		time.Duration(cfg.Clock.Tick), cfg.Clock.Mode, cfg.Clock.DSTSource, cfg.GPS.Source)

	if cfg.Web.Enable {
		go func() {
			err := web.Serve(ctx, cfg.Web.Listen, status, logBuf)
			if err != nil && ctx.Err() == nil {
				log.Printf("web server stopped: %v", err)
				cancel()
			}
		}()
	}

	go func() {
		err := rt.Run(ctx)
		if err != nil && ctx.Err() == nil {
			log.Printf("clock loop stopped: %v", err)
			cancel()
		}
	}()

	<-ctx.Done()
	log.Printf("gpsclock stopping")
}
