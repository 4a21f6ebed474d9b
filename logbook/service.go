// Package logbook implements the write side of the farm logbook: seasons,
// log entries, the hide/confirm operations, templates and the material
// catalogue. Reads of the daily view live in package daily.
package logbook

import (
	"context"
	"log/slog"
	"time"

	"github.com/Thanhdhxd/logbook-app/models"
	"github.com/Thanhdhxd/logbook-app/store"
)

// Store is the persistence the service writes through.
type Store interface {
	store.Seasons
	store.Templates
	store.Logs
	store.HiddenTasks
	store.Materials
}

// Stamper attaches integrity stamps to new log entries.
type Stamper interface {
	Stamp(ctx context.Context, l *models.LogEntry) (models.IntegrityStamp, error)
}

type Service struct {
	st    Store
	stamp Stamper
	loc   *time.Location
	now   func() time.Time
	log   *slog.Logger
}

type Option func(*Service)

func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

func WithLogger(l *slog.Logger) Option { return func(s *Service) { s.log = l } }

// WithStamper enables integrity stamps on created logs.
func WithStamper(st Stamper) Option { return func(s *Service) { s.stamp = st } }

func NewService(st Store, loc *time.Location, opts ...Option) *Service {
	if loc == nil {
		loc = time.Local
	}
	s := &Service{
		st:  st,
		loc: loc,
		now: time.Now,
		log: slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// instant is the server clock reduced to the millisecond precision both stores keep.
func (s *Service) instant() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}
