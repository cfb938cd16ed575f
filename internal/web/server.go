package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

func Handler(status *Status, logs *LogBuffer) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/status", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		snap := status.Snapshot(time.Now().UTC())
		b, err := json.MarshalIndent(snap, "", "  ")
		if err != nil {
			http.Error(w, "marshal failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		_, _ = w.Write(b)
		_, _ = w.Write([]byte("\n"))
	})

	if logs != nil {
		mux.Handle("/api/logs", logs.Handler())
	}

	mux.Handle("/api/about", AboutHandler())

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}

		snap := status.Snapshot(time.Now().UTC())
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = fmt.Fprintf(w, "<!doctype html><html><head><meta charset=\"utf-8\"><title>gpsclock</title></head><body>")
		_, _ = fmt.Fprintf(w, "<h1>gpsclock</h1>")
		_, _ = fmt.Fprintf(w, "<p><a href=\"/api/status\">/api/status</a> &middot; <a href=\"/api/logs\">/api/logs</a> &middot; <a href=\"/api/about\">/api/about</a></p>")
		_, _ = fmt.Fprintf(w, "<pre>zone=%s abbr=%s dst=%v auto=%v fix=%v\nlocal=%s display=%04d colon=%v\nsource=%s ticks=%d frames=%d</pre>",
			snap.Clock.ZoneName, snap.Clock.ZoneAbbr, snap.Clock.DSTActive, snap.Clock.AutoMode, snap.Clock.FixValid,
			snap.Clock.LocalTime, snap.Clock.DisplayValue, snap.Clock.ColonOn,
			snap.GPSSource, snap.TicksTotal, snap.FramesTotal,
		)
		_, _ = fmt.Fprintf(w, "</body></html>")
	})

	return mux
}

func Serve(ctx context.Context, listenAddr string, status *Status, logs *LogBuffer) error {
	if status == nil {
		status = NewStatus()
	}

	srv := &http.Server{
		Addr:              listenAddr,
		Handler:           Handler(status, logs),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       30 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1 MiB
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
