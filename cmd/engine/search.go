package main

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"vagahunter-engine/internal/search"
)

var searchDryRun bool

var searchCmd = &cobra.Command{
	Use:   "search <query...>",
	Short: "Search every board once and print the jobs as JSON",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg := currentConfig()
		query := strings.Join(args, " ")

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		if searchDryRun {
			agg, err := newAggregator(cfg)
			if err != nil {
				return err
			}
			leads, err := search.New(agg, nil, nil, nil).Preview(ctx, query)
			if err != nil {
				return err
			}
			return enc.Encode(leads)
		}

		st, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		eng, err := newEngine(ctx, cfg, st, nil)
		if err != nil {
			return err
		}
		jobs, err := eng.Search(ctx, query)
		if err != nil {
			return err
		}
		return enc.Encode(jobs)
	},
}

func init() {
	searchCmd.Flags().BoolVar(&searchDryRun, "dry-run", false, "scrape only; skip scoring and storage")
	rootCmd.AddCommand(searchCmd)
}
