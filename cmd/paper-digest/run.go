// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/paper-digest/internal/cache"
	"github.com/pdiddy/paper-digest/internal/discovery"
	"github.com/pdiddy/paper-digest/internal/kvstore"
	"github.com/pdiddy/paper-digest/internal/llm"
	"github.com/pdiddy/paper-digest/internal/pipeline"
	"github.com/pdiddy/paper-digest/internal/search"
	"github.com/pdiddy/paper-digest/internal/seen"
	"github.com/pdiddy/paper-digest/internal/summarize"
	"github.com/pdiddy/paper-digest/pkg/types"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Discover, summarize, and write today's digest",
	Long: `Run performs one full pass: it pages through arXiv for papers matching the
configured query, skips papers seen on earlier runs, summarizes each new
paper's PDF, and writes digest files to the digest directory.

The command exits non-zero when every attempted summary failed.`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().Bool("skip-weekends", false, "do nothing when today is Saturday or Sunday")
	runCmd.Flags().Bool("dry-run", false, "keep state in memory and write no digest")
	runCmd.Flags().Int("max-new", 0, "override search.max_new for this run")

	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	skipWeekends, _ := cmd.Flags().GetBool("skip-weekends")
	if skipWeekends && isWeekend(time.Now()) {
		fmt.Fprintln(out, "Weekend; skipping run.")
		return nil
	}

	cfg := loadPipelineConfig(viper.GetViper(), loadedSecrets)
	if n, _ := cmd.Flags().GetInt("max-new"); n > 0 {
		cfg.Search.MaxNew = n
	}
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	rep, err := runOnce(cmd.Context(), cfg, dryRun, logger)
	if err != nil {
		return err
	}
	rep.Print(out)
	if dryRun {
		search.FormatTable(rep.Items, out)
	}
	if rep.ExitCode() != 0 {
		return fmt.Errorf("all %d summarization attempt(s) failed", rep.Failed)
	}
	return nil
}

// openStore opens the configured store, or an in-memory one for dry runs.
func openStore(ctx context.Context, cfg types.StoreConfig, dryRun bool) (kvstore.Store, error) {
	if dryRun {
		cfg.Backend = types.StoreMemory
	}
	store, err := kvstore.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("opening %s store: %w", cfg.Backend, err)
	}
	return store, nil
}

// runOnce wires one pipeline pass against freshly loaded state and closes
// the store afterwards.
func runOnce(ctx context.Context, cfg types.PipelineConfig, dryRun bool, log *zap.Logger) (pipeline.Report, error) {
	store, err := openStore(ctx, cfg.Store, dryRun)
	if err != nil {
		return pipeline.Report{}, err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Warn("closing store", zap.Error(err))
		}
	}()

	client, err := llm.New(ctx, cfg.Summarize.AIConfig)
	if err != nil {
		return pipeline.Report{}, fmt.Errorf("configuring summarizer: %w", err)
	}

	digestDir := cfg.Digest.Dir
	if dryRun {
		digestDir = ""
	}

	runner := &pipeline.Runner{
		Discoverer: &discovery.Discoverer{
			Search: search.NewArxivClient(cfg.Search.HTTPConfig),
			Seen:   seen.Load(ctx, store, log),
		},
		Summarizer: &summarize.Summarizer{
			Worker:       summarize.NewWorker(client, cfg.Summarize, log),
			Cache:        cache.Load(ctx, store, log),
			WorkerBudget: cfg.Summarize.WorkerBudget,
		},
		DigestDir: digestDir,
		Log:       log,
	}
	return runner.Run(ctx, discovery.OptionsFrom(cfg.Search))
}
