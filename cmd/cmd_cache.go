// cmd_cache.go - Cache Commands fuer kompilierte Kernel
// Hauptfunktionen: CacheListHandler, CachePruneHandler
package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/sasview/sasmodels/buildcache"
	"github.com/sasview/sasmodels/envconfig"
)

// CacheListHandler - Listet die kompilierten Bibliotheken im Build-Cache
func CacheListHandler(cmd *cobra.Command, _ []string) error {
	cache := buildcache.Open(envconfig.CacheDir())
	defer cache.Close()

	entries, err := cache.List()
	if err != nil {
		return err
	}

	table := newTable(cmd.OutOrStdout(), "MODEL", "TARGET", "HASH", "SIZE", "HITS", "USED")
	for _, e := range entries {
		table.Append([]string{
			e.Model,
			e.Target,
			e.Hash[:min(12, len(e.Hash))],
			strconv.FormatInt(e.Size, 10),
			strconv.Itoa(e.Hits),
			e.UsedAt.Local().Format(time.DateTime),
		})
	}
	table.Render()
	return nil
}

// CachePruneHandler - Entfernt Bibliotheken, die laenger nicht benutzt wurden
func CachePruneHandler(cmd *cobra.Command, _ []string) error {
	age, _ := cmd.Flags().GetDuration("older-than")
	if age < 0 {
		return fmt.Errorf("--older-than must not be negative, got %s", age)
	}

	cache := buildcache.Open(envconfig.CacheDir())
	defer cache.Close()

	n, err := cache.Prune(time.Now().Add(-age))
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "removed %d cached libraries\n", n)
	return nil
}

// newCacheCmd - Erstellt den cache Command mit list und prune
func newCacheCmd() *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage compiled kernel libraries",
		Args:  cobra.ExactArgs(0),
	}

	listCmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List cached libraries",
		Args:    cobra.ExactArgs(0),
		RunE:    CacheListHandler,
	}

	pruneCmd := &cobra.Command{
		Use:   "prune",
		Short: "Remove cached libraries not used recently",
		Args:  cobra.ExactArgs(0),
		RunE:  CachePruneHandler,
	}
	pruneCmd.Flags().Duration("older-than", 30*24*time.Hour, "Remove libraries unused for this long")

	cacheCmd.AddCommand(listCmd, pruneCmd)
	return cacheCmd
}
