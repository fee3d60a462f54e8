// Package campaign runs a Monte Carlo dispersion campaign: one sampled
// parameter set per trial, one engine run per draw, one recorded outcome per
// trial.
package campaign

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"rocket-dispersion/internal/record"
	"rocket-dispersion/internal/sampler"
)

// errInterrupted marks a trial whose run overlapped a cancellation. Its
// outcome says nothing about the parameters and is not recorded.
var errInterrupted = errors.New("trial interrupted")

const (
	outcomeSuccess = "success"
	outcomeFailure = "failure"
)

// Options names a campaign run.
type Options struct {
	Name   string
	ID     string // generated when empty
	Trials int
}

// Progress is a point-in-time view of a running campaign.
type Progress struct {
	CampaignID string          `json:"campaign_id"`
	Name       string          `json:"name"`
	Requested  int             `json:"requested"`
	Completed  int             `json:"completed"`
	Succeeded  int             `json:"succeeded"`
	Failed     int             `json:"failed"`
	Started    time.Time       `json:"started"`
	Finished   bool            `json:"finished"`
	Summary    *record.Summary `json:"summary,omitempty"`
}

// Result describes a finished campaign.
type Result struct {
	CampaignID  string
	Requested   int
	Succeeded   int
	Failed      int
	Interrupted bool
	Summary     record.Summary
}

// Campaign owns the sampler, runner and recorder of one campaign. The
// recorder's lifetime belongs to the caller.
type Campaign struct {
	id       string
	name     string
	trials   int
	sampler  *sampler.Sampler
	runner   *Runner
	recorder record.Recorder
	logger   *slog.Logger
	cpu      Clock
	now      func() time.Time

	mu       sync.Mutex
	progress Progress
}

// New creates a Campaign. A nil logger uses slog.Default.
func New(opts Options, s *sampler.Sampler, r *Runner, rec record.Recorder, logger *slog.Logger) *Campaign {
	id := opts.ID
	if id == "" {
		id = uuid.New().String()
	}
	if logger == nil {
		logger = slog.Default()
	}
	r.campaignID = id
	c := &Campaign{
		id:       id,
		name:     opts.Name,
		trials:   opts.Trials,
		sampler:  s,
		runner:   r,
		recorder: rec,
		logger:   logger.With("campaign", id),
		cpu:      ProcessCPUTime,
		now:      time.Now,
	}
	c.progress = Progress{CampaignID: id, Name: opts.Name, Requested: opts.Trials}
	return c
}

// ID returns the campaign id.
func (c *Campaign) ID() string { return c.id }

// Progress returns a snapshot of the campaign state.
func (c *Campaign) Progress() Progress {
	c.mu.Lock()
	defer c.mu.Unlock()
	p := c.progress
	if p.Summary != nil {
		s := *p.Summary
		p.Summary = &s
	}
	return p
}

// Run executes trials sequentially until the sampler is exhausted or ctx is
// cancelled. A trial still running when ctx is cancelled gets no output or
// error record and is not counted. Recorder failures abort the campaign. The
// summary is written whenever the loop ends, including on cancellation.
func (c *Campaign) Run(ctx context.Context) (Result, error) {
	startWall := c.now()
	startCPU := c.cpu()
	c.mu.Lock()
	c.progress.Started = startWall
	c.mu.Unlock()
	TrialsRequested.WithLabelValues(c.id).Set(float64(c.trials))
	c.logger.Info("starting campaign", "name", c.name, "trials", c.trials)

	res := Result{CampaignID: c.id, Requested: c.trials}
	trial := 0
	var runErr error
	for {
		if ctx.Err() != nil {
			res.Interrupted = true
			c.logger.Warn("campaign interrupted", "completed", trial)
			break
		}
		params, ok := c.sampler.Next()
		if !ok {
			break
		}
		trial++
		runErr = c.runTrial(ctx, trial, params, &res)
		if errors.Is(runErr, errInterrupted) {
			// the input line of this trial stays in the log without an outcome
			trial--
			runErr = nil
			res.Interrupted = true
			c.logger.Warn("campaign interrupted", "completed", trial, "discarded_trial", trial+1)
			break
		}
		if runErr != nil {
			break
		}
	}

	res.Summary = record.Summary{
		Completed: trial,
		CPUTime:   c.cpu() - startCPU,
		WallTime:  c.now().Sub(startWall),
	}
	if sw, ok := c.recorder.(record.SummaryWriter); ok {
		if err := sw.WriteSummary(res.Summary); err != nil && runErr == nil {
			runErr = fmt.Errorf("write summary: %w", err)
		}
	}
	CampaignWallSeconds.WithLabelValues(c.id).Set(res.Summary.WallTime.Seconds())

	c.mu.Lock()
	c.progress.Finished = true
	s := res.Summary
	c.progress.Summary = &s
	c.mu.Unlock()

	c.logger.Info("campaign finished",
		"succeeded", res.Succeeded,
		"failed", res.Failed,
		"cpu_time", res.Summary.CPUTime,
		"wall_time", res.Summary.WallTime)
	return res, runErr
}

func (c *Campaign) runTrial(ctx context.Context, trial int, params sampler.Parameters, res *Result) error {
	if err := c.recorder.WriteInput(record.Input{Trial: trial, Parameters: params.Clone()}); err != nil {
		return fmt.Errorf("record input of trial %d: %w", trial, err)
	}

	outcome := c.runner.Run(ctx, trial, params)
	if ctx.Err() != nil {
		return errInterrupted
	}
	switch o := outcome.(type) {
	case Success:
		out := record.Output{Trial: o.Trial, Metrics: o.Metrics, ExecutionTime: o.ExecutionTime.Seconds()}
		if err := c.recorder.WriteOutput(out); err != nil {
			return fmt.Errorf("record output of trial %d: %w", trial, err)
		}
		res.Succeeded++
		TrialsTotal.WithLabelValues(c.id, outcomeSuccess).Inc()
		TrialCPUSeconds.WithLabelValues(c.id).Observe(o.ExecutionTime.Seconds())
		c.logger.Debug("trial succeeded", "trial", trial, "apogee", o.Metrics.ApogeeAltitude, "cpu", o.ExecutionTime)
	case Failure:
		if err := c.recorder.WriteError(record.ErrorRecord{Trial: o.Trial, Parameters: o.Parameters, Error: o.Error}); err != nil {
			return fmt.Errorf("record failure of trial %d: %w", trial, err)
		}
		res.Failed++
		TrialsTotal.WithLabelValues(c.id, outcomeFailure).Inc()
		c.logger.Warn("trial failed", "trial", trial, "error", o.Error)
	}

	c.mu.Lock()
	c.progress.Completed = trial
	c.progress.Succeeded = res.Succeeded
	c.progress.Failed = res.Failed
	c.mu.Unlock()
	return nil
}
