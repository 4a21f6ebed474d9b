package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/Thanhdhxd/logbook-app/config"
	"github.com/Thanhdhxd/logbook-app/daily"
	"github.com/Thanhdhxd/logbook-app/integrity"
	"github.com/Thanhdhxd/logbook-app/logbook"
	"github.com/Thanhdhxd/logbook-app/report"
	"github.com/Thanhdhxd/logbook-app/store"
)

type App struct {
	cfg   config.Config
	log   *slog.Logger
	store store.Store
	now   func() time.Time

	logbook *logbook.Service
	daily   *daily.Service
	reports *report.Service
	stamps  *integrity.Stamper
}

// newApp wires the services over st. now is the clock of every service.
func newApp(cfg config.Config, st store.Store, log *slog.Logger, now func() time.Time) *App {
	if now == nil {
		now = time.Now
	}
	stamps := integrity.NewStamper(st, now)
	return &App{
		cfg:   cfg,
		log:   log,
		store: st,
		now:   now,
		logbook: logbook.NewService(st, cfg.Location,
			logbook.WithClock(now),
			logbook.WithLogger(log),
			logbook.WithStamper(stamps),
		),
		daily: daily.NewService(st, cfg.Location, cfg.ManualLookback,
			daily.WithClock(now),
			daily.WithLogger(log),
		),
		reports: report.NewService(st, cfg.Location),
		stamps:  stamps,
	}
}

func (a *App) close(ctx context.Context) { _ = a.store.Close(ctx) }
