package schedulersvc

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"

	"github.com/academia/lms/core"
)

// ReminderSender e-mails students whose assignments are due within window.
type ReminderSender interface {
	SendDeadlineReminders(ctx context.Context, window time.Duration) (int, error)
}

// Scheduler runs the periodic jobs of the application.
type Scheduler struct {
	cron    *cron.Cron
	logger  core.Logger
	sender  ReminderSender
	window  time.Duration
	timeout time.Duration
}

func New(conf *core.Config, logger core.Logger, sender ReminderSender) (*Scheduler, error) {
	s := &Scheduler{
		cron:    cron.New(cron.WithLocation(time.UTC)),
		logger:  logger,
		sender:  sender,
		window:  conf.Scheduler.ReminderWindow,
		timeout: time.Minute,
	}
	if spec := conf.Scheduler.ReminderSpec; spec != "" {
		if _, err := s.cron.AddFunc(spec, s.sendReminders); err != nil {
			return nil, errors.Wrapf(err, "scheduling deadline reminders %q", spec)
		}
	}
	return s, nil
}

func (s *Scheduler) sendReminders() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if _, err := s.RunReminders(ctx); err != nil {
		s.logger.Error(fmt.Sprintf("sending deadline reminders: %v", err), err)
	}
}

// RunReminders sends the deadline reminders once.
func (s *Scheduler) RunReminders(ctx context.Context) (int, error) {
	n, err := s.sender.SendDeadlineReminders(ctx, s.window)
	if err != nil {
		return 0, err
	}
	s.logger.Info(fmt.Sprintf("sent %d deadline reminder(s)", n))
	return n, nil
}

// Jobs returns the number of scheduled jobs.
func (s *Scheduler) Jobs() int { return len(s.cron.Entries()) }

func (s *Scheduler) Start() { s.cron.Start() }

// Stop stops scheduling new runs and waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) error {
	select {
	case <-s.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
