package main

import (
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
)

func main() {
	addr := flag.String("addr", ":8080", "HTTP listen address")
	dbPath := flag.String("db", "relay.db", "SQLite database path (empty disables analytics; invite tickets then expire on restart)")
	publicURL := flag.String("public-url", "", "Base URL used in invite QR codes (default: request host)")
	idle := flag.Duration("idle", SessionIdleTimeout, "How long an empty session lives before it is reaped")
	debug := flag.Bool("debug", false, "Development logging")
	flag.Parse()

	var log *zap.Logger
	var err error
	if *debug {
		log, err = zap.NewDevelopment()
	} else {
		log, err = zap.NewProduction()
	}
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	SessionIdleTimeout = *idle

	var db *DB
	if *dbPath != "" {
		db, err = OpenDB(*dbPath, log)
		if err != nil {
			log.Fatal("open db", zap.String("path", *dbPath), zap.Error(err))
		}
		defer db.Close()
	}
	analytics := NewAnalytics(db, log)

	hub := NewHub(db, analytics, log)
	hub.publicURL = *publicURL
	go hub.Run()

	mux := SetupRoutes(hub)

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	server := &http.Server{Addr: *addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		log.Info("relay starting", zap.String("addr", *addr), zap.String("db", *dbPath))
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatal("listen", zap.Error(err))
		}
	}()

	<-stop
	log.Info("shutting down")
	server.Close()
	analytics.Stop()
}
