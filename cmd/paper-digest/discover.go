// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/paper-digest/internal/discovery"
	"github.com/pdiddy/paper-digest/internal/search"
	"github.com/pdiddy/paper-digest/internal/seen"
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "List new papers without summarizing them",
	Long: `Discover pages through arXiv for the configured query and prints papers
not seen on earlier runs. Listed papers are recorded as seen, so a later
run will not summarize them.`,
	RunE: runDiscover,
}

func init() {
	discoverCmd.Flags().Bool("json", false, "output results as JSON")
	discoverCmd.Flags().String("query", "", "raw arXiv search_query overriding the configured terms")
	discoverCmd.Flags().Int("max-new", 0, "override search.max_new")

	rootCmd.AddCommand(discoverCmd)
}

func runDiscover(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := loadPipelineConfig(viper.GetViper(), loadedSecrets)
	if q, _ := cmd.Flags().GetString("query"); q != "" {
		cfg.Search.Query = q
	}
	if n, _ := cmd.Flags().GetInt("max-new"); n > 0 {
		cfg.Search.MaxNew = n
	}
	store, err := openStore(ctx, cfg.Store, false)
	if err != nil {
		return err
	}
	defer store.Close()

	d := &discovery.Discoverer{
		Search: search.NewArxivClient(cfg.Search.HTTPConfig),
		Seen:   seen.Load(ctx, store, logger),
		Log:    logger,
	}
	opts := discovery.OptionsFrom(cfg.Search)
	logger.Debug("discovering", zap.String("query", opts.Query))

	res, err := d.Discover(ctx, opts)
	if err != nil {
		return err
	}
	if res.Err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: discovery stopped early: %v\n", res.Err)
	}

	out := cmd.OutOrStdout()
	if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
		return search.FormatJSON(res.Items, out)
	}
	search.FormatTable(res.Items, out)
	return nil
}
