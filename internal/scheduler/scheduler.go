package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"BigPictureWatch/internal/assembler"
	"BigPictureWatch/internal/metrics"
	"BigPictureWatch/internal/model"
	"BigPictureWatch/internal/notifier"
	"BigPictureWatch/internal/recorder"
	"BigPictureWatch/internal/report"
)

// ErrAlreadyRunning is returned by RunNow while another assembly is in progress.
var ErrAlreadyRunning = errors.New("assembly already running")

// Assembler produces the day's dataset.
type Assembler interface {
	Assemble(ctx context.Context) (*model.Dataset, assembler.Outcome, error)
}

// Sender delivers run reports. *notifier.TelegramNotifier implements it.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Scheduler runs the assembly pipeline on a cron schedule or on demand,
// and records every run.
type Scheduler struct {
	Cron      *cron.Cron
	Assembler Assembler
	Recorder  recorder.Recorder
	Log       zerolog.Logger
	Ctx       context.Context

	// Notifier and Metrics are optional. TextfilePath receives the
	// metrics after each run when set.
	Notifier     Sender
	Metrics      *metrics.Recorder
	TextfilePath string

	now     func() time.Time
	running sync.Mutex
	mu      sync.Mutex
	last    *model.Dataset
}

// NewScheduler creates a new Scheduler. Overlapping runs are skipped,
// whichever trigger starts them.
func NewScheduler(ctx context.Context, asm Assembler, rec recorder.Recorder, log zerolog.Logger) *Scheduler {
	cl := cronLogger{log}
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds(), cron.WithLogger(cl), cron.WithChain(cron.SkipIfStillRunning(cl))),
		Assembler: asm,
		Recorder:  rec,
		Log:       log,
		Ctx:       ctx,
		now:       time.Now,
	}
}

// RegisterDaily registers the daily assembly task.
func (s *Scheduler) RegisterDaily(dailyCron string) error {
	if _, err := s.Cron.AddFunc(dailyCron, s.dailyTask); err != nil {
		return fmt.Errorf("register daily task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.Log.Info().Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.Log.Info().Msg("scheduler stopped")
}

func (s *Scheduler) dailyTask() {
	s.Log.Info().Msg("running daily assembly")
	_, err := s.RunNow(s.Ctx)
	switch {
	case errors.Is(err, ErrAlreadyRunning):
		s.Log.Info().Msg("assembly already running, daily run skipped")
	case err != nil:
		s.Log.Error().Err(err).Msg("daily assembly failed")
	}
}

// RunNow assembles the dataset once, then updates metrics, the run ledger
// and the notification channel. Failures of those side channels are logged
// and never change the returned result. At most one run is in progress at a
// time; a concurrent call returns ErrAlreadyRunning without assembling.
func (s *Scheduler) RunNow(ctx context.Context) (*model.Dataset, error) {
	if !s.running.TryLock() {
		return nil, ErrAlreadyRunning
	}
	defer s.running.Unlock()

	run := recorder.NewRun(s.now())
	ds, out, err := s.Assembler.Assemble(ctx)

	var coll *model.Collection
	if err == nil {
		coll = ds.Collection
		s.mu.Lock()
		s.last = ds
		s.mu.Unlock()
	}
	run.Finish(s.now(), out.CacheHit, coll, err)

	if s.Metrics != nil {
		s.Metrics.AssemblyDone(out.CacheHit, out.Duration, err)
		if coll != nil {
			s.Metrics.ObserveCollection(coll)
		}
		if s.TextfilePath != "" {
			if werr := s.Metrics.WriteTextfile(s.TextfilePath); werr != nil {
				s.Log.Warn().Err(werr).Str("path", s.TextfilePath).Msg("write metrics textfile")
			}
		}
	}
	if rerr := s.Recorder.RecordRun(run); rerr != nil {
		s.Log.Warn().Err(rerr).Str("run", run.ID).Msg("record run")
	}

	headline := ""
	if coll != nil {
		headline = report.Headline(coll)
	}
	s.trySend(ctx, notifier.FormatRunReport(run, headline))
	return ds, err
}

// HandleCommand processes a chat command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return ""
	}
	switch fields[0] {
	case "/run":
		// RunNow sends its own report.
		_, err := s.RunNow(ctx)
		switch {
		case errors.Is(err, ErrAlreadyRunning):
			return "Assembly already running."
		case err != nil:
			s.Log.Error().Err(err).Msg("on-demand assembly failed")
		}
		return ""
	case "/summary":
		s.mu.Lock()
		ds := s.last
		s.mu.Unlock()
		if ds == nil {
			return "No dataset assembled yet. Send /run first."
		}
		return report.Headline(ds.Collection)
	case "/history":
		runs, err := s.Recorder.Recent(5)
		if err != nil {
			return fmt.Sprintf("history unavailable: %v", err)
		}
		return notifier.FormatHistory(runs)
	case "/series":
		if len(fields) < 2 {
			return "usage: /series NAME"
		}
		return s.seriesReply(fields[1])
	default:
		return "Available commands:\n/run\n/summary\n/history\n/series NAME"
	}
}

func (s *Scheduler) seriesReply(name string) string {
	runs, err := s.Recorder.Recent(10)
	if err != nil {
		return fmt.Sprintf("history unavailable: %v", err)
	}
	for _, r := range runs {
		if r.Status != recorder.StatusOK {
			continue
		}
		for _, st := range r.Series {
			if st.Name == name {
				return notifier.FormatSeries(st)
			}
		}
		return fmt.Sprintf("unknown series %q", name)
	}
	return "No successful run recorded yet."
}

func (s *Scheduler) trySend(ctx context.Context, text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendWithRetry(ctx, text, 3); err != nil {
		s.Log.Warn().Err(err).Msg("send notification")
	}
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
