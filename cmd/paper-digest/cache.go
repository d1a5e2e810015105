// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/paper-digest/internal/cache"
	"github.com/pdiddy/paper-digest/internal/search"
	"github.com/pdiddy/paper-digest/pkg/types"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect cached summaries",
	Long: `Cache reads the summary cache from the configured store. Use list to see
every cached paper and show to print one paper's summary.`,
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached papers",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCache(cmd, func(c *cache.Cache) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				return search.FormatJSON(c.Items(), cmd.OutOrStdout())
			}
			search.FormatTable(c.Items(), cmd.OutOrStdout())
			return nil
		})
	},
}

var cacheShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Print the cached summary for one paper",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCache(cmd, func(c *cache.Cache) error {
			it, ok := c.Get(args[0])
			if !ok {
				return fmt.Errorf("paper %s is not cached", args[0])
			}
			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(it)
			}
			printItem(cmd.OutOrStdout(), it)
			return nil
		})
	},
}

func init() {
	cacheListCmd.Flags().Bool("json", false, "output results as JSON")
	cacheShowCmd.Flags().Bool("json", false, "output the cached record as JSON")

	cacheCmd.AddCommand(cacheListCmd, cacheShowCmd)
	rootCmd.AddCommand(cacheCmd)
}

// withCache opens the configured store and hands the loaded cache to fn.
func withCache(cmd *cobra.Command, fn func(*cache.Cache) error) error {
	ctx := cmd.Context()
	cfg := loadPipelineConfig(viper.GetViper(), loadedSecrets)
	store, err := openStore(ctx, cfg.Store, false)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(cache.Load(ctx, store, logger))
}

func printItem(w io.Writer, it types.Item) {
	fmt.Fprintf(w, "%s  %s\n", it.ID, it.Title)
	if len(it.Authors) > 0 {
		fmt.Fprintf(w, "Authors:    %s\n", strings.Join(it.Authors, ", "))
	}
	if !it.Published.IsZero() {
		fmt.Fprintf(w, "Published:  %s\n", it.Published.Format("2006-01-02"))
	}
	if it.URL != "" {
		fmt.Fprintf(w, "URL:        %s\n", it.URL)
	}
	if !it.SummarizedAt.IsZero() {
		fmt.Fprintf(w, "Summarized: %s\n", it.SummarizedAt.Format("2006-01-02 15:04"))
	}
	fmt.Fprintln(w)
	if it.HasSummary() {
		fmt.Fprintln(w, it.Summary)
	} else {
		fmt.Fprintln(w, "(no summary)")
	}
}
