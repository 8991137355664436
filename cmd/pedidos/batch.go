package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/order-interpreter/constants"
	"github.com/joseph-ayodele/order-interpreter/internal/async"
	"github.com/joseph-ayodele/order-interpreter/internal/export"
	"github.com/joseph-ayodele/order-interpreter/internal/ingest"
)

func batchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lote",
		Short: "Interpret every .txt order in a directory and write an XLSX report",
		Long: `Interpret every .txt order under a directory on a bounded worker pool.
Each file yields one row on the "Pedidos" sheet with its status (OK or FAILED).

Example:
  pedidos lote --dir ./pedidos --out pedidos.xlsx --workers 8`,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")
			out, _ := cmd.Flags().GetString("out")
			workers, _ := cmd.Flags().GetInt("workers")
			channel, _ := cmd.Flags().GetString("canal")
			includeHidden, _ := cmd.Flags().GetBool("include-hidden")

			if dir == "" {
				return fmt.Errorf("--dir flag is required")
			}
			if out == "" {
				out = filepath.Join(filepath.Dir(filepath.Clean(dir)), "pedidos.xlsx")
			}

			ctx := cmd.Context()
			a, err := newApp(ctx, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.close()
			if workers <= 0 {
				workers = a.cfg.Batch.Workers
			}

			start := time.Now()
			docs, stats, err := ingest.NewFSIngestor(a.logger).IngestDirectory(ctx, dir, !includeHidden)
			if err != nil {
				return err
			}

			q := async.NewProcessorQueue(a.proc, a.logger,
				async.WithWorkers(workers),
				async.WithProcessTimeout(a.cfg.LLM.Timeout+30*time.Second),
				async.WithMetrics(a.metrics),
			)
			for _, d := range docs {
				job := async.NewJob(d.SourcePath, d.Text, channel)
				if d.Err != "" {
					q.Reject(job, fmt.Errorf("ingest: %s", d.Err))
					continue
				}
				if err := q.Enqueue(ctx, job); err != nil {
					q.Shutdown(context.Background())
					return err
				}
			}
			q.Shutdown(context.Background())
			results := q.Results()

			b, err := export.NewService(a.logger).ExportOrdersXLSX(ctx, results)
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, b, 0o644); err != nil {
				return fmt.Errorf("write report: %w", err)
			}

			ok := lo.CountBy(results, func(r async.Result) bool { return r.Status == constants.JobStatusOK })
			failed := len(results) - ok
			fmt.Fprintf(cmd.OutOrStdout(), "Processed %d files (%d OK, %d FAILED, %d duplicated) in %s\n",
				stats.Matched, ok, failed, stats.Deduplicated, time.Since(start).Round(time.Millisecond))
			fmt.Fprintf(cmd.OutOrStdout(), "Report: %s\n", out)
			return nil
		},
	}

	cmd.Flags().String("dir", "", "directory with .txt orders (required)")
	cmd.Flags().String("out", "", "output XLSX path (default: pedidos.xlsx next to --dir)")
	cmd.Flags().Int("workers", 0, "concurrent interpretations (default BATCH_WORKERS)")
	cmd.Flags().String("canal", "", "channel recorded for every order")
	cmd.Flags().Bool("include-hidden", false, "also read hidden files and directories")
	return cmd
}
