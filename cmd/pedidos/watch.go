package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/order-interpreter/constants"
	"github.com/joseph-ayodele/order-interpreter/internal/async"
	"github.com/joseph-ayodele/order-interpreter/internal/ingest"
)

func watchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vigilar",
		Short: "Interpret .txt orders as they appear in a directory",
		Long: `Watch a directory tree and interpret every .txt order created or
rewritten in it. Each final record is written as <name>.json into --out-dir.

Example:
  pedidos vigilar --dir ./entrantes --out-dir ./interpretados`,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")
			outDir, _ := cmd.Flags().GetString("out-dir")
			existing, _ := cmd.Flags().GetBool("existing")
			channel, _ := cmd.Flags().GetString("canal")
			if dir == "" {
				return fmt.Errorf("--dir flag is required")
			}
			if outDir == "" {
				outDir = dir
			}
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.close()

			q := async.NewProcessorQueue(a.proc, a.logger,
				async.WithWorkers(a.cfg.Batch.Workers),
				async.WithMetrics(a.metrics),
				async.WithResultHandler(func(r async.Result) {
					if r.Status != constants.JobStatusOK {
						return
					}
					if err := writeOrderJSON(outDir, r); err != nil {
						a.logger.Error("watch.write.failed", "path", r.Job.SourcePath, "error", err)
					}
				}),
			)
			defer q.Shutdown(context.Background())

			events, _, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
				Roots:       []string{dir},
				InitialScan: existing,
				Debounce:    300 * time.Millisecond,
				Logger:      a.logger,
			})
			if err != nil {
				return err
			}
			a.logger.Info("watch.started", "dir", dir, "out_dir", outDir)

			ing := ingest.NewFSIngestor(a.logger)
			for path := range events {
				doc, err := ing.IngestPath(ctx, path)
				job := async.NewJob(path, doc.Text, channel)
				if err != nil {
					q.Reject(job, err)
					continue
				}
				if doc.Deduplicated {
					a.logger.Info("watch.duplicate.skipped", "path", path)
					continue
				}
				if err := q.Enqueue(ctx, job); err != nil {
					break
				}
			}
			a.logger.Info("watch.stopped")
			return nil
		},
	}

	cmd.Flags().String("dir", "", "directory to watch (required)")
	cmd.Flags().String("out-dir", "", "where to write the JSON records (default: --dir)")
	cmd.Flags().Bool("existing", false, "also interpret files already present")
	cmd.Flags().String("canal", "", "channel recorded for every order")
	return cmd
}

func writeOrderJSON(outDir string, r async.Result) error {
	name := strings.TrimSuffix(filepath.Base(r.Job.SourcePath), filepath.Ext(r.Job.SourcePath)) + ".json"
	b, err := json.MarshalIndent(r.Order, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(outDir, name), b, 0o644)
}
