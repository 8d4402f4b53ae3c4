// Package generator drives the batch generation pipeline: windows of
// concurrent generation requests, duplicate filtering, append-only CSV
// persistence, and periodic backup snapshots.
package generator

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/leadgen-cli/internal/dedup"
	"github.com/sells-group/leadgen-cli/internal/keyring"
	"github.com/sells-group/leadgen-cli/internal/output"
	"github.com/sells-group/leadgen-cli/internal/prompt"
	"github.com/sells-group/leadgen-cli/internal/store"
)

// minAcceptedChars is the smallest filtered batch text treated as a real
// result; anything shorter counts as a failed batch for reporting even
// though the call itself succeeded.
const minAcceptedChars = 50

// Config holds the orchestration knobs for one run.
type Config struct {
	Provider       string
	NumBatches     int
	Concurrency    int
	LeadsPerBatch  int
	APIDelay       time.Duration
	BackupInterval int
	BackupFile     string
}

// Orchestrator runs the generation pipeline. Batches are grouped into
// windows of Concurrency; a window is fully joined before the next one
// starts.
type Orchestrator struct {
	cfg     Config
	client  Client
	rotator *keyring.Rotator
	state   *dedup.State
	csv     *output.CSVWriter
	backup  *output.Backup

	// history is optional; nil disables run records.
	history store.Store
	runID   string
}

// New assembles an Orchestrator. history may be nil.
func New(cfg Config, client Client, rotator *keyring.Rotator, csv *output.CSVWriter, backup *output.Backup, history store.Store) *Orchestrator {
	return &Orchestrator{
		cfg:     cfg,
		client:  client,
		rotator: rotator,
		state:   dedup.NewState(),
		csv:     csv,
		backup:  backup,
		history: history,
	}
}

// State exposes the run state, primarily for tests.
func (o *Orchestrator) State() *dedup.State {
	return o.state
}

// Run executes all batches and returns the final run statistics. Individual
// batch failures never abort the run; cancellation of ctx stops issuing new
// windows and abandons whatever is in flight.
func (o *Orchestrator) Run(ctx context.Context) dedup.Stats {
	zap.L().Info("starting lead generation",
		zap.Int("num_batches", o.cfg.NumBatches),
		zap.Int("concurrency", o.cfg.Concurrency),
		zap.Int("leads_per_batch", o.cfg.LeadsPerBatch),
		zap.Int("target_leads", o.cfg.NumBatches*o.cfg.LeadsPerBatch),
	)

	if o.history != nil {
		run, err := o.history.CreateRun(ctx, o.cfg.Provider, o.csv.Path(), o.cfg.NumBatches)
		if err != nil {
			zap.L().Warn("run history disabled: create run failed", zap.Error(err))
			o.history = nil
		} else {
			o.runID = run.ID
		}
	}

	lastBackupTick := 0
	for start := 1; start <= o.cfg.NumBatches; start += o.cfg.Concurrency {
		if ctx.Err() != nil {
			zap.L().Warn("run interrupted, abandoning remaining batches",
				zap.Int("next_batch", start),
			)
			break
		}

		end := start + o.cfg.Concurrency - 1
		if end > o.cfg.NumBatches {
			end = o.cfg.NumBatches
		}
		zap.L().Info("processing window",
			zap.Int("first_batch", start),
			zap.Int("last_batch", end),
		)

		g, gctx := errgroup.WithContext(ctx)
		for n := start; n <= end; n++ {
			g.Go(func() error {
				o.runBatch(gctx, n)
				return nil // individual failures never abort the window
			})
		}
		_ = g.Wait()

		stats := o.state.Stats()
		zap.L().Info("progress",
			zap.Int("completed_batches", stats.CompletedBatches),
			zap.Int("num_batches", o.cfg.NumBatches),
			zap.Int("total_leads", stats.TotalLeads),
			zap.Int("duplicates_prevented", stats.DuplicatesPrevented),
		)

		// Backup tick on the global success counter, not per window.
		if o.cfg.BackupInterval > 0 {
			if tick := stats.CompletedBatches / o.cfg.BackupInterval; tick > lastBackupTick {
				lastBackupTick = tick
				o.saveBackup(ctx, stats)
			}
		}
	}

	// Final backup always, then the summary.
	stats := o.state.Stats()
	o.saveBackup(ctx, stats)
	o.logSummary(stats)

	if o.history != nil {
		status := store.RunStatusComplete
		if ctx.Err() != nil {
			status = store.RunStatusInterrupted
		}
		// Finishing the record must survive a canceled run context.
		if err := o.history.FinishRun(context.WithoutCancel(ctx), o.runID, status, stats); err != nil {
			zap.L().Warn("finish run record failed", zap.Error(err))
		}
	}

	return stats
}

// runBatch drives one batch through rotate → prompt → generate → filter →
// persist, then applies the fixed pacing delay.
func (o *Orchestrator) runBatch(ctx context.Context, batchNum int) {
	defer o.pace(ctx)

	key := o.rotator.Rotate()

	emails, names := o.state.RecentKeys(prompt.MaxRecentKeys)
	p := prompt.Build(batchNum, o.cfg.LeadsPerBatch, prompt.RecentKeys{
		Emails: emails,
		Names:  names,
	})

	text, err := o.client.GenerateText(ctx, key, p)
	if err != nil {
		o.rotator.RecordError()
		o.state.RecordFailed()
		zap.L().Error("batch failed",
			zap.Int("batch", batchNum),
			zap.Error(err),
		)
		return
	}
	o.rotator.RecordUsage()

	kept, duplicates := o.state.Filter(text)
	if len(strings.TrimSpace(kept)) < minAcceptedChars {
		o.state.RecordFailed()
		zap.L().Warn("batch produced insufficient data",
			zap.Int("batch", batchNum),
			zap.Int("duplicates", duplicates),
		)
		return
	}

	if err := o.csv.Append(kept); err != nil {
		o.state.RecordFailed()
		zap.L().Error("batch write failed",
			zap.Int("batch", batchNum),
			zap.Error(err),
		)
		return
	}
	o.backup.Add(kept)

	leads := strings.Count(kept, "\n") + 1
	o.state.RecordCompleted(leads)
	zap.L().Info("batch completed",
		zap.Int("batch", batchNum),
		zap.Int("unique_leads", leads),
		zap.Int("duplicates", duplicates),
	)
}

// pace applies the fixed post-result delay unless the run is canceled.
func (o *Orchestrator) pace(ctx context.Context) {
	if o.cfg.APIDelay <= 0 {
		return
	}
	timer := time.NewTimer(o.cfg.APIDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

func (o *Orchestrator) saveBackup(ctx context.Context, stats dedup.Stats) {
	if err := o.backup.Save(o.cfg.BackupFile); err != nil {
		zap.L().Error("backup save failed", zap.Error(err))
	}
	if o.history != nil {
		if err := o.history.CheckpointRun(context.WithoutCancel(ctx), o.runID, stats); err != nil {
			zap.L().Warn("run checkpoint failed", zap.Error(err))
		}
	}
}

func (o *Orchestrator) logSummary(stats dedup.Stats) {
	successRate := 0.0
	if o.cfg.NumBatches > 0 {
		successRate = float64(stats.CompletedBatches) / float64(o.cfg.NumBatches) * 100
	}
	keys := o.rotator.Stats()
	zap.L().Info("lead generation finished",
		zap.Int("completed_batches", stats.CompletedBatches),
		zap.Int("num_batches", o.cfg.NumBatches),
		zap.Int("failed_batches", stats.FailedBatches),
		zap.Int("total_leads", stats.TotalLeads),
		zap.Int("duplicates_prevented", stats.DuplicatesPrevented),
		zap.Int("unique_emails", stats.UniqueEmails),
		zap.Float64("success_rate_pct", successRate),
		zap.Int("api_requests", keys.TotalRequests),
		zap.Int("api_errors", keys.TotalErrors),
	)
}
