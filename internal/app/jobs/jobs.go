// Package jobs runs the periodic maintenance tasks of the API.
package jobs

import (
	"context"
	"time"

	"gallery-api/internal/api/galleries"
	"gallery-api/internal/api/orders"
	"gallery-api/internal/infra/metrics"
	"gallery-api/internal/logging"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const jobTimeout = 2 * time.Minute

// Task is one unit of scheduled work. It reports how many rows it changed.
type Task func(ctx context.Context) (int64, error)

type Job struct {
	Name     string
	Schedule string
	Run      Task
}

type Scheduler struct {
	cron *cron.Cron
	log  logrus.FieldLogger
}

// New registers jobs on a cron scheduler. Overlapping runs of the same job
// are skipped.
func New(log logrus.FieldLogger, jobs ...Job) (*Scheduler, error) {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	s := &Scheduler{cron: c, log: log}
	for _, j := range jobs {
		j := j
		if _, err := c.AddFunc(j.Schedule, func() { s.RunOnce(context.Background(), j) }); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Scheduler) Start() { s.cron.Start() }

// Stop waits for running jobs or ctx, whichever ends first.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}

// RunOnce executes j with a timeout, logging and recording the outcome.
func (s *Scheduler) RunOnce(ctx context.Context, j Job) {
	ctx, cancel := context.WithTimeout(ctx, jobTimeout)
	defer cancel()

	start := time.Now()
	n, err := j.Run(ctx)
	elapsed := time.Since(start)
	metrics.RecordJob(j.Name, elapsed, err == nil)

	fields := logrus.Fields{"job": j.Name, "duration": elapsed.String()}
	if err != nil {
		logging.Error(s.log, "job failed", err, fields)
		return
	}
	fields["changed"] = n
	if n > 0 {
		s.log.WithFields(fields).Info("job finished")
		return
	}
	s.log.WithFields(fields).Debug("job finished")
}

// PendingOrderSweep cancels checkout orders that were never paid.
func PendingOrderSweep(svc *orders.Service, schedule string) Job {
	return Job{Name: "pending_order_sweep", Schedule: schedule, Run: svc.ExpireStalePending}
}

// WebhookReplay retries payment events whose processing failed.
func WebhookReplay(svc *orders.Service, schedule string) Job {
	return Job{Name: "webhook_replay", Schedule: schedule, Run: svc.RetryFailedWebhooks}
}

// ExhibitionRefresh moves exhibitions between upcoming, ongoing and past.
func ExhibitionRefresh(svc *galleries.Service, schedule string) Job {
	return Job{
		Name:     "exhibition_status_refresh",
		Schedule: schedule,
		Run: func(ctx context.Context) (int64, error) {
			now := time.Now
			if svc.Now != nil {
				now = svc.Now
			}
			return svc.RefreshStatuses(ctx, now())
		},
	}
}
