package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/sells-group/leadgen-cli/internal/segment"
)

var (
	segmentCSV  string
	segmentXLSX string
)

var segmentCmd = &cobra.Command{
	Use:   "segment",
	Short: "Segment an existing master CSV into adoption-level buckets",
	Long: `Validates and cleans the master CSV, classifies each lead into one of
three adoption-level buckets, writes one sorted CSV per bucket, and rewrites
the master file with the adoption_level column appended.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		opts := segmentOptions(time.Now().Format("20060102_1504"))
		if segmentXLSX != "" {
			opts.XLSXFile = segmentXLSX
		}

		// Name the bucket files after the input when config doesn't pin them.
		base := strings.TrimSuffix(segmentCSV, ".csv")
		if cfg.Segment.NonAdoptersFile == "" {
			opts.NonAdoptersFile = fmt.Sprintf("%s_non_adopters.csv", base)
		}
		if cfg.Segment.ModerateAdoptersFile == "" {
			opts.ModerateAdoptersFile = fmt.Sprintf("%s_moderate_adopters.csv", base)
		}
		if cfg.Segment.HighVolumeFile == "" {
			opts.HighVolumeFile = fmt.Sprintf("%s_high_volume.csv", base)
		}

		return segment.New(opts).Run(segmentCSV)
	},
}

func init() {
	segmentCmd.Flags().StringVar(&segmentCSV, "csv", "", "path to master CSV (required)")
	segmentCmd.Flags().StringVar(&segmentXLSX, "xlsx", "", "also export an XLSX workbook to this path")
	_ = segmentCmd.MarkFlagRequired("csv")
	rootCmd.AddCommand(segmentCmd)
}
