// Package reminder runs the morning job that tells each farmer how many
// planned tasks are waiting in their active seasons.
package reminder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Thanhdhxd/logbook-app/apperr"
	"github.com/Thanhdhxd/logbook-app/daily"
	"github.com/Thanhdhxd/logbook-app/models"
	"github.com/Thanhdhxd/logbook-app/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const Title = "🔔 NHẮC VIỆC HÔM NAY!"

// Reminder is one push message for one season.
type Reminder struct {
	Token      string             `json:"token"`
	Title      string             `json:"title"`
	Body       string             `json:"body"`
	UserID     primitive.ObjectID `json:"userId"`
	SeasonID   primitive.ObjectID `json:"seasonId"`
	SeasonName string             `json:"seasonName"`
	TaskCount  int                `json:"taskCount"`
}

func newReminder(s *models.Season, u *models.User, n int) Reminder {
	return Reminder{
		Token:      u.FCMToken,
		Title:      Title,
		Body:       fmt.Sprintf("%s: Bạn có %d công việc cần thực hiện.", s.FarmArea, n),
		UserID:     u.ID,
		SeasonID:   s.ID,
		SeasonName: s.Name,
		TaskCount:  n,
	}
}

type Notifier interface {
	Notify(ctx context.Context, r Reminder) error
}

// Source is the part of the store the job reads.
type Source interface {
	ListSeasons(ctx context.Context, f store.SeasonFilter) ([]models.Season, error)
	GetUser(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

type Viewer interface {
	ViewFor(ctx context.Context, season *models.Season) (daily.View, error)
}

type Job struct {
	src     Source
	views   Viewer
	notify  Notifier
	log     *slog.Logger
	timeout time.Duration
}

type Option func(*Job)

func WithLogger(l *slog.Logger) Option { return func(j *Job) { j.log = l } }

// WithTimeout bounds one run of the job. Zero disables the bound.
func WithTimeout(d time.Duration) Option { return func(j *Job) { j.timeout = d } }

func NewJob(src Source, views Viewer, n Notifier, opts ...Option) *Job {
	j := &Job{
		src:     src,
		views:   views,
		notify:  n,
		log:     slog.Default(),
		timeout: 5 * time.Minute,
	}
	for _, o := range opts {
		o(j)
	}
	return j
}

// Result summarizes one run.
type Result struct {
	Seasons int
	Sent    int
	Idle    int // nothing to do today
	NoToken int
	Failed  int
}

// RunOnce walks every active season. A season that cannot be viewed or
// notified is logged and skipped; only failing to list seasons is an error.
func (j *Job) RunOnce(ctx context.Context) (Result, error) {
	if j.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.timeout)
		defer cancel()
	}

	var res Result
	seasons, err := j.src.ListSeasons(ctx, store.SeasonFilter{ActiveOnly: true})
	if err != nil {
		return res, fmt.Errorf("list active seasons: %w", err)
	}
	res.Seasons = len(seasons)

	users := map[primitive.ObjectID]*models.User{}
	for i := range seasons {
		s := &seasons[i]
		log := j.log.With("season", s.ID.Hex(), "user", s.OwnerID.Hex())

		v, err := j.views.ViewFor(ctx, s)
		if err != nil {
			res.Failed++
			log.Error("reminder: build daily view", "err", err)
			continue
		}
		n := v.CountVisible()
		if n == 0 {
			res.Idle++
			continue
		}

		u, ok := users[s.OwnerID]
		if !ok {
			u, err = j.src.GetUser(ctx, s.OwnerID)
			if err != nil && !errors.Is(err, apperr.ErrNotFound) {
				res.Failed++
				log.Error("reminder: load user", "err", err)
				continue
			}
			users[s.OwnerID] = u
		}
		if u == nil || u.FCMToken == "" {
			res.NoToken++
			log.Debug("reminder: no push token", "tasks", n)
			continue
		}

		if err := j.notify.Notify(ctx, newReminder(s, u, n)); err != nil {
			res.Failed++
			log.Error("reminder: notify", "err", err)
			continue
		}
		res.Sent++
		log.Info("reminder sent", "tasks", n)
	}
	return res, nil
}
