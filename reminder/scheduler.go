package reminder

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler runs a Job on a cron spec in the given zone.
type Scheduler struct {
	c   *cron.Cron
	job *Job
	log *slog.Logger
}

// NewScheduler parses spec (standard five fields, e.g. "0 7 * * *") and
// registers the job. Call Start to begin.
func NewScheduler(spec string, loc *time.Location, job *Job, log *slog.Logger) (*Scheduler, error) {
	if log == nil {
		log = slog.Default()
	}
	cl := cronLogger{log}
	s := &Scheduler{
		c: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		job: job,
		log: log,
	}
	if _, err := s.c.AddFunc(spec, s.run); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Scheduler) run() {
	start := time.Now()
	res, err := s.job.RunOnce(context.Background())
	if err != nil {
		s.log.Error("daily reminder run failed", "err", err)
		return
	}
	s.log.Info("daily reminder run finished",
		"seasons", res.Seasons, "sent", res.Sent, "idle", res.Idle,
		"noToken", res.NoToken, "failed", res.Failed, "took", time.Since(start))
}

func (s *Scheduler) Start() { s.c.Start() }

// Next is the next scheduled run, zero before Start.
func (s *Scheduler) Next() time.Time {
	for _, e := range s.c.Entries() {
		return e.Next
	}
	return time.Time{}
}

// Stop stops scheduling and waits for a running job or ctx, whichever ends first.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.c.Stop().Done():
	case <-ctx.Done():
	}
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct{ l *slog.Logger }

func (c cronLogger) Info(msg string, kv ...interface{}) { c.l.Debug("cron: "+msg, kv...) }

func (c cronLogger) Error(err error, msg string, kv ...interface{}) {
	c.l.Error("cron: "+msg, append(kv, "err", err)...)
}
