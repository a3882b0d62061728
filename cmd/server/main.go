package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lecture-qa/internal/bootstrap"
	httptransport "lecture-qa/internal/transport/http"
	"lecture-qa/internal/watcher"
)

func main() {
	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	app, err := bootstrap.New(ctx)
	if err != nil {
		log.Fatalf("bootstrap failed: %v", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Printf("close resources failed: %v", err)
		}
	}()

	if dir := app.Config.Lectures.WatchDir; dir != "" {
		debounce := time.Duration(app.Config.Lectures.WatchDebounceMilli) * time.Millisecond
		lectureWatcher, err := watcher.New(dir, debounce, app.LectureService)
		if err != nil {
			log.Fatalf("lecture watcher failed: %v", err)
		}
		go func() {
			log.Printf("watching %s for lecture PDFs", dir)
			if err := lectureWatcher.Run(ctx); err != nil {
				log.Printf("lecture watcher stopped: %v", err)
			}
		}()
	}

	router := httptransport.NewRouter(app)
	server := &http.Server{
		Addr:              app.Config.HTTPAddr(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("server starting on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	waitForShutdown(server, stop)
}

func waitForShutdown(server *http.Server, stop context.CancelFunc) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown failed: %v", err)
	}
}
