package daily

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Thanhdhxd/logbook-app/apperr"
	"github.com/Thanhdhxd/logbook-app/models"
	"github.com/Thanhdhxd/logbook-app/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Reader is the read side of the store the view needs.
type Reader interface {
	GetSeason(ctx context.Context, owner, id primitive.ObjectID) (*models.Season, error)
	GetTemplate(ctx context.Context, id primitive.ObjectID) (*models.Template, error)
	ListHidden(ctx context.Context, season primitive.ObjectID) ([]models.HiddenTask, error)
	FindLogs(ctx context.Context, f store.LogFilter) ([]models.LogEntry, error)
}

type Service struct {
	store    Reader
	loc      *time.Location
	lookback time.Duration
	now      func() time.Time
	log      *slog.Logger
}

type Option func(*Service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

func WithLogger(l *slog.Logger) Option { return func(s *Service) { s.log = l } }

func NewService(r Reader, loc *time.Location, lookback time.Duration, opts ...Option) *Service {
	s := &Service{
		store:    r,
		loc:      loc,
		lookback: lookback,
		now:      time.Now,
		log:      slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// View builds today's task list of the season owned by user. It only reads.
func (s *Service) View(ctx context.Context, user, seasonID primitive.ObjectID) (View, error) {
	season, err := s.store.GetSeason(ctx, user, seasonID)
	if err != nil {
		return View{}, err
	}
	return s.ViewFor(ctx, season)
}

// ViewFor builds the view of an already loaded season.
func (s *Service) ViewFor(ctx context.Context, season *models.Season) (View, error) {
	now := s.now()

	var tpl *models.Template
	if season.HasTemplate() {
		t, err := s.store.GetTemplate(ctx, *season.TemplateID)
		switch {
		case err == nil:
			tpl = t
		case errors.Is(err, apperr.ErrNotFound):
			s.log.Warn("season references a missing template, showing manual logs only",
				"season", season.ID.Hex(), "template", season.TemplateID.Hex())
		default:
			return View{}, fmt.Errorf("load template: %w", err)
		}
	}

	hidden, err := s.store.ListHidden(ctx, season.ID)
	if err != nil {
		return View{}, fmt.Errorf("load hidden tasks: %w", err)
	}

	manual, err := s.store.FindLogs(ctx, store.LogFilter{
		SeasonID:      &season.ID,
		LogType:       models.LogManual,
		CompletedOnly: true,
	})
	if err != nil {
		return View{}, fmt.Errorf("load manual logs: %w", err)
	}

	var today []models.LogEntry
	if tpl != nil {
		from, to := DayBounds(now, s.loc)
		today, err = s.store.FindLogs(ctx, store.LogFilter{
			SeasonID:   &season.ID,
			LogType:    models.LogScheduled,
			LoggedFrom: from,
			LoggedTo:   to,
		})
		if err != nil {
			return View{}, fmt.Errorf("load today's logs: %w", err)
		}
	}

	v := Build(Input{
		Season:     *season,
		Template:   tpl,
		Now:        now,
		Location:   s.loc,
		Lookback:   s.lookback,
		Hidden:     hidden,
		ManualLogs: manual,
		TodayLogs:  today,
	})
	if v.FutureStart {
		s.log.Warn("season starts in the future, day clamped to 1",
			"season", season.ID.Hex(), "startDate", season.StartDate.Format(time.DateOnly))
	}
	return v, nil
}
