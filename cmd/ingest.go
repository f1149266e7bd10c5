package main

import (
	"github.com/spf13/cobra"

	"github.com/yungbote/competency-advisor/internal/services"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Embed catalog rows that have no embedding yet",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		opts := services.IngestOptions{
			BatchSize:   a.Cfg.Ingest.BatchSize,
			Concurrency: a.Cfg.Ingest.Concurrency,
		}
		if cmd.Flags().Changed("batch-size") {
			opts.BatchSize, _ = cmd.Flags().GetInt("batch-size")
		}
		if cmd.Flags().Changed("concurrency") {
			opts.Concurrency, _ = cmd.Flags().GetInt("concurrency")
		}
		opts.Limit, _ = cmd.Flags().GetInt("limit")

		report, err := a.Services.Ingest.Run(cmd.Context(), opts)
		if report != nil {
			a.Metrics.AddIngest(report.Embedded, report.Failed)
			if perr := printJSON(cmd, report); perr != nil && err == nil {
				err = perr
			}
		}
		return err
	},
}

func init() {
	ingestCmd.Flags().Int("batch-size", 0, "Rows fetched per batch (default from config)")
	ingestCmd.Flags().Int("concurrency", 0, "Concurrent embedding calls (default from config)")
	ingestCmd.Flags().Int("limit", 0, "Stop after this many rows (0 = all)")
}
