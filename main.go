package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Thanhdhxd/logbook-app/config"
	"github.com/Thanhdhxd/logbook-app/reminder"
	"github.com/Thanhdhxd/logbook-app/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config error", "err", err)
		os.Exit(1)
	}
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(log)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	st, err := store.Open(ctx, cfg)
	cancel()
	if err != nil {
		log.Error("store connect error", "driver", cfg.StoreDriver, "err", err)
		os.Exit(1)
	}
	app := newApp(cfg, st, log, time.Now)
	defer app.close(context.Background())

	if cfg.ReminderEnabled {
		var n reminder.Notifier = reminder.LogNotifier{Log: log}
		if cfg.ReminderWebhookURL != "" {
			n = reminder.NewWebhookNotifier(cfg.ReminderWebhookURL)
		}
		job := reminder.NewJob(st, app.daily, n, reminder.WithLogger(log))
		sched, err := reminder.NewScheduler(cfg.ReminderSpec, cfg.Location, job, log)
		if err != nil {
			log.Error("bad REMINDER_SPEC", "spec", cfg.ReminderSpec, "err", err)
			os.Exit(1)
		}
		sched.Start()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			sched.Stop(ctx)
		}()
		log.Info("daily reminder scheduled", "spec", cfg.ReminderSpec, "tz", cfg.Location.String())
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           app.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	stop, release := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer release()
	go func() {
		<-stop.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}()

	log.Info("logbook API listening", "addr", srv.Addr, "store", cfg.StoreDriver)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("server error", "err", err)
	}
}
