/*
main.go - Development backend entry point

PURPOSE:
  Runs the reference leave backend over SQLite, seeded with a demo org chart,
  so leavectl and integration tests have something real to talk to.

COMMAND-LINE FLAGS:
  -port    HTTP server port (default: 8080)
  -db      SQLite database path (default: leave.db)
           Use ":memory:" for a throwaway database
  -secret  JWT signing secret (default: dev-secret)
  -seed    Load demo users and leave types on first start (default: true)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM the server stops accepting connections, waits up to 30s
  for in-flight requests, then closes the database.

EXAMPLES:
  # Throwaway in-memory backend with demo data
  ./leaved -db=":memory:"

  # Persistent backend on another port
  ./leaved -db=./data/leave.db -port=3000

SEE ALSO:
  - devserver/server.go: Router and route table
  - devserver/seed.go: Demo data
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/attendly/leavecore/devserver"
	"github.com/attendly/leavecore/devserver/store"
)

func main() {
	port := flag.Int("port", 8080, "HTTP server port")
	dbPath := flag.String("db", "leave.db", "SQLite database path")
	secret := flag.String("secret", "dev-secret", "JWT signing secret")
	seed := flag.Bool("seed", true, "seed demo users and leave types on first start")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	st, err := store.New(*dbPath)
	if err != nil {
		logger.Error("failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	defer st.Close()

	if *seed {
		if err := devserver.Seed(context.Background(), st); err != nil {
			logger.Error("failed to seed demo data", slog.Any("error", err))
			os.Exit(1)
		}
	}

	srv := devserver.New(st, *secret, logger)
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      srv.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("backend listening", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("forced shutdown", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("server stopped")
}
