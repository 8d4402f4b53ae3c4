package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/generator"
	"github.com/sells-group/leadgen-cli/internal/keyring"
	"github.com/sells-group/leadgen-cli/internal/output"
	"github.com/sells-group/leadgen-cli/internal/segment"
	"github.com/sells-group/leadgen-cli/pkg/anthropic"
	"github.com/sells-group/leadgen-cli/pkg/gemini"
)

var (
	genBatches   int
	genConc      int
	genPerBatch  int
	genOutput    string
	genBackup    string
	genOffline   bool
	genNoSegment bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Run the batch lead-generation pipeline",
	Long: `Fans out windows of concurrent generation requests, filters duplicates,
appends accepted rows to the master CSV, and snapshots a JSON backup on a
fixed interval. Unless --no-segment is given, the segmentation pass runs
over the master file afterwards.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		// Flag overrides on top of config.
		if genBatches > 0 {
			cfg.Generate.NumBatches = genBatches
		}
		if genConc > 0 {
			cfg.Generate.Concurrency = genConc
		}
		if genPerBatch > 0 {
			cfg.Generate.LeadsPerBatch = genPerBatch
		}

		client, rotator, err := buildClient()
		if err != nil {
			return err
		}

		ts := time.Now().Format("20060102_1504")
		masterPath := firstNonEmpty(genOutput, cfg.Generate.OutputFile, fmt.Sprintf("MASTER_LEADS_%s.csv", ts))
		backupPath := firstNonEmpty(genBackup, cfg.Generate.BackupFile, fmt.Sprintf("leads_backup_%s.json", ts))

		csvw, err := output.NewCSVWriter(masterPath)
		if err != nil {
			return err
		}
		defer csvw.Close() //nolint:errcheck

		history, err := initStore()
		if err != nil {
			zap.L().Warn("run history disabled: store open failed", zap.Error(err))
		} else if history != nil {
			defer history.Close() //nolint:errcheck
			if err := history.Migrate(ctx); err != nil {
				zap.L().Warn("run history disabled: migrate failed", zap.Error(err))
				history = nil
			}
		}

		orch := generator.New(generator.Config{
			Provider:       providerLabel(),
			NumBatches:     cfg.Generate.NumBatches,
			Concurrency:    cfg.Generate.Concurrency,
			LeadsPerBatch:  cfg.Generate.LeadsPerBatch,
			APIDelay:       time.Duration(cfg.Generate.APIDelayMS) * time.Millisecond,
			BackupInterval: cfg.Generate.BackupInterval,
			BackupFile:     backupPath,
		}, client, rotator, csvw, output.NewBackup(), history)

		stats := orch.Run(ctx)
		if err := csvw.Close(); err != nil {
			return err
		}

		if ctx.Err() != nil {
			zap.L().Warn("generation interrupted; skipping segmentation",
				zap.Int("completed_batches", stats.CompletedBatches),
			)
			return nil
		}

		if genNoSegment {
			return nil
		}

		seg := segment.New(segmentOptions(ts))
		if err := seg.Run(masterPath); err != nil {
			// Segmentation failure never invalidates the generation output.
			zap.L().Error("segmentation abandoned", zap.Error(err))
		}
		return nil
	},
}

func init() {
	generateCmd.Flags().IntVar(&genBatches, "batches", 0, "number of batches (overrides config)")
	generateCmd.Flags().IntVar(&genConc, "concurrency", 0, "batches issued concurrently per window (overrides config)")
	generateCmd.Flags().IntVar(&genPerBatch, "leads-per-batch", 0, "leads requested per batch (overrides config)")
	generateCmd.Flags().StringVar(&genOutput, "output", "", "master CSV path (default: MASTER_LEADS_<timestamp>.csv)")
	generateCmd.Flags().StringVar(&genBackup, "backup", "", "backup JSON path (default: leads_backup_<timestamp>.json)")
	generateCmd.Flags().BoolVar(&genOffline, "offline", false, "use the deterministic stub generator (no API keys needed)")
	generateCmd.Flags().BoolVar(&genNoSegment, "no-segment", false, "skip the segmentation pass")
	rootCmd.AddCommand(generateCmd)
}

// buildClient assembles the provider client and its credential rotator.
// Missing credentials are fatal: setup guidance is printed and the error
// propagates to a non-zero exit.
func buildClient() (generator.Client, *keyring.Rotator, error) {
	if genOffline {
		rotator, err := keyring.New([]string{"offline-placeholder-credential"}, cfg.Generate.MaxRequestsPerKey, cfg.Generate.MaxErrorsPerKey)
		if err != nil {
			return nil, nil, err
		}
		return &generator.StubClient{LeadsPerBatch: cfg.Generate.LeadsPerBatch}, rotator, nil
	}

	var src keyring.Source
	var client generator.Client

	switch cfg.Provider {
	case "gemini":
		src = keyring.Source{
			Single:   cfg.Gemini.Key,
			List:     cfg.Gemini.Keys,
			Numbered: cfg.Gemini.NumberedKeys,
			Prefix:   gemini.KeyPrefix,
		}
		client = gemini.NewClient(cfg.Gemini.Model, cfg.Gemini.RequestsPerSecond)
	case "anthropic":
		src = keyring.Source{
			Single: cfg.Anthropic.Key,
			List:   cfg.Anthropic.Keys,
			Prefix: anthropic.KeyPrefix,
		}
		client = anthropic.NewClient(cfg.Anthropic.Model, cfg.Anthropic.RequestsPerSecond)
	default:
		return nil, nil, eris.Errorf("generate: unknown provider %q", cfg.Provider)
	}

	keys := keyring.Load(src)
	rotator, err := keyring.New(keys, cfg.Generate.MaxRequestsPerKey, cfg.Generate.MaxErrorsPerKey)
	if err != nil {
		printSetupInstructions()
		return nil, nil, eris.Wrap(err, "generate: load credentials")
	}

	zap.L().Info("credentials loaded",
		zap.String("provider", cfg.Provider),
		zap.Int("keys", len(keys)),
	)
	return client, rotator, nil
}

func providerLabel() string {
	if genOffline {
		return "offline"
	}
	return cfg.Provider
}

func segmentOptions(ts string) segment.Options {
	return segment.Options{
		NonAdoptersFile:      firstNonEmpty(cfg.Segment.NonAdoptersFile, fmt.Sprintf("non_adopter_leads_%s.csv", ts)),
		ModerateAdoptersFile: firstNonEmpty(cfg.Segment.ModerateAdoptersFile, fmt.Sprintf("moderate_adopter_leads_%s.csv", ts)),
		HighVolumeFile:       firstNonEmpty(cfg.Segment.HighVolumeFile, fmt.Sprintf("high_volume_leads_%s.csv", ts)),
		XLSXFile:             cfg.Segment.XLSXFile,
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// printSetupInstructions emits operator guidance when no valid credential
// is configured.
func printSetupInstructions() {
	fmt.Fprint(os.Stderr, `
No valid API credentials found.

For the Gemini provider (default):
  1. Get an API key from https://aistudio.google.com/app/apikey
  2. Export it:              LEADGEN_GEMINI_KEY=AIzaSy...
     or a rotation pool:     LEADGEN_GEMINI_KEYS=key1,key2,key3
     or numbered entries:    LEADGEN_GEMINI_KEY_1=... LEADGEN_GEMINI_KEY_2=...

For the Anthropic provider (provider: anthropic):
  1. Get an API key from https://console.anthropic.com
  2. Export it:              LEADGEN_ANTHROPIC_KEY=sk-ant-...

Keys can also be set in config.yaml under gemini:/anthropic:. Multiple keys
are rotated automatically on usage and error caps.

To test the pipeline without credentials, run with --offline.
`)
}
