package report

import (
	"context"
	"errors"
	"time"

	"github.com/Thanhdhxd/logbook-app/apperr"
	"github.com/Thanhdhxd/logbook-app/models"
	"github.com/Thanhdhxd/logbook-app/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Reader is what the reports read from the store.
type Reader interface {
	FindSeason(ctx context.Context, lotCode string) (*models.Season, error)
	GetTemplate(ctx context.Context, id primitive.ObjectID) (*models.Template, error)
	FindLogs(ctx context.Context, f store.LogFilter) ([]models.LogEntry, error)
	Count(ctx context.Context, since time.Time) (store.Counts, error)
}

type Service struct {
	st  Reader
	loc *time.Location
}

func NewService(st Reader, loc *time.Location) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{st: st, loc: loc}
}

// Trace returns the traceability sheet of the season identified by lotCode,
// which is a season id or an exact season name. Lots are public: no owner check.
func (s *Service) Trace(ctx context.Context, lotCode string) (Traceability, error) {
	season, err := s.st.FindSeason(ctx, lotCode)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return Traceability{}, apperr.NotFound("no lot matches %q", lotCode)
		}
		return Traceability{}, err
	}

	var tpl *models.Template
	if season.HasTemplate() {
		tpl, err = s.st.GetTemplate(ctx, *season.TemplateID)
		if err != nil && !errors.Is(err, apperr.ErrNotFound) {
			return Traceability{}, err
		}
	}

	done, err := s.st.FindLogs(ctx, store.LogFilter{
		SeasonID:  &season.ID,
		Status:    models.StatusDone,
		Ascending: true,
	})
	if err != nil {
		return Traceability{}, err
	}
	return BuildTraceability(season, tpl, done), nil
}

type Stats struct {
	Seasons struct {
		Total    int64 `json:"total"`
		Active   int64 `json:"active"`
		Inactive int64 `json:"inactive"`
	} `json:"seasons"`
	Logs struct {
		Total     int64 `json:"total"`
		ThisMonth int64 `json:"thisMonth"`
	} `json:"logs"`
	Materials struct {
		Total int64 `json:"total"`
	} `json:"materials"`
	Templates struct {
		Total int64 `json:"total"`
	} `json:"templates"`
}

// MonthStart is midnight of the first day of the month of now in loc.
func MonthStart(now time.Time, loc *time.Location) time.Time {
	y, m, _ := now.In(loc).Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, loc)
}

// Stats counts the records of the system; logs this month are counted from
// the first of the current month in the service zone.
func (s *Service) Stats(ctx context.Context, now time.Time) (Stats, error) {
	c, err := s.st.Count(ctx, MonthStart(now, s.loc))
	if err != nil {
		return Stats{}, err
	}
	var st Stats
	st.Seasons.Total = c.Seasons
	st.Seasons.Active = c.ActiveSeasons
	st.Seasons.Inactive = c.Seasons - c.ActiveSeasons
	st.Logs.Total = c.Logs
	st.Logs.ThisMonth = c.LogsSince
	st.Materials.Total = c.Materials
	st.Templates.Total = c.Templates
	return st, nil
}
