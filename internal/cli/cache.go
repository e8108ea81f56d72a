package cli

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

var cacheOlderThan time.Duration

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and purge persisted upstream responses",
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List persisted responses",
	Args:  cobra.NoArgs,
	RunE:  runCacheList,
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete persisted responses",
	Long: `Delete persisted responses fetched before now minus --older-than.

Examples:
  quake-explorer cache purge
  quake-explorer cache purge --older-than 24h`,
	Args: cobra.NoArgs,
	RunE: runCachePurge,
}

func init() {
	cachePurgeCmd.Flags().DurationVar(&cacheOlderThan, "older-than", 0, "only purge responses older than this (default purges everything)")

	cacheCmd.AddCommand(cacheListCmd)
	cacheCmd.AddCommand(cachePurgeCmd)
}

func runCacheList(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()
	if err := a.requireStore(); err != nil {
		return err
	}

	p, err := newPrinter(cmd.OutOrStdout())
	if err != nil {
		return err
	}

	entries, err := a.store.List(context.Background())
	if err != nil {
		return err
	}

	t := table{headers: []string{"KIND", "SOURCE", "RECORDS", "FETCHED", "KEY"}, data: entries}
	for _, e := range entries {
		t.rows = append(t.rows, []string{
			e.Kind,
			e.Source,
			strconv.Itoa(e.Records),
			e.FetchedAt.UTC().Format(time.RFC3339),
			e.Key,
		})
	}
	return p.print(t)
}

func runCachePurge(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()
	if err := a.requireStore(); err != nil {
		return err
	}

	// a zero age still has to cover rows written within the current millisecond
	cutoff := time.Now().Add(-cacheOlderThan)
	if cacheOlderThan == 0 {
		cutoff = cutoff.Add(time.Millisecond)
	}

	n, err := a.store.Purge(context.Background(), cutoff)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Purged %d cached responses\n", n)
	return nil
}
