package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"taskpulse/internal/api"
	"taskpulse/internal/config"
	"taskpulse/internal/db"
	"taskpulse/pkg/blocked"
	"taskpulse/pkg/category"
	"taskpulse/pkg/clock"
	"taskpulse/pkg/gateway"
	"taskpulse/pkg/sched"
	"taskpulse/pkg/session"
	"taskpulse/pkg/store"
	"taskpulse/pkg/task"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("connect: %v", err)
	}
	defer pool.Close()

	tasks := task.NewPgStore(pool)
	cats := category.NewPgStore(pool)
	blockedStore := blocked.NewPgStore(pool)
	for name, ensure := range map[string]func(context.Context) error{
		"tasks":             tasks.EnsureTable,
		"categories":        cats.EnsureTable,
		"blocked resources": blockedStore.EnsureTable,
	} {
		if err := ensure(ctx); err != nil {
			log.Fatalf("ensure %s table: %v", name, err)
		}
	}

	clk := clock.System
	st := store.New(clk)
	broker := session.NewBroker()

	gw := gateway.New(st, tasks, broker, tasks, cats)
	go gw.Run(ctx)
	go func() {
		for err := range gw.Errors() {
			log.Printf("sync: %v", err)
		}
	}()

	go sched.NewWithInterval(st, clk, cfg.TickInterval).Run(ctx)

	broker.Publish(session.Event{Kind: session.Started, UserID: cfg.UserID})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: api.New(st, cats, blockedStore, clk, cfg.UserID),
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
		sig := <-sigCh
		log.Printf("server: received %s, shutting down", sig)

		broker.Publish(session.Event{Kind: session.Ended, UserID: cfg.UserID})
		shutCtx, shutCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutCancel()
		if err := srv.Shutdown(shutCtx); err != nil {
			log.Printf("server: shutdown: %v", err)
		}
		cancel()
	}()

	log.Printf("server: listening on :%s (user %s)", cfg.Port, cfg.UserID)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("serve: %v", err)
	}
}
