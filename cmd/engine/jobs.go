package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"vagahunter-engine/internal/store"
)

var (
	jobsSkip  int
	jobsLimit int
	jobsSort  string
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List stored jobs",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd.Context(), currentConfig())
		if err != nil {
			return err
		}
		defer st.Close()

		jobs, err := st.List(cmd.Context(), store.ListOpts{Skip: jobsSkip, Limit: jobsLimit, Sort: jobsSort})
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(jobs)
	},
}

func init() {
	jobsCmd.Flags().IntVar(&jobsSkip, "skip", 0, "rows to skip")
	jobsCmd.Flags().IntVar(&jobsLimit, "limit", store.DefaultLimit, "rows to return (max 500)")
	jobsCmd.Flags().StringVar(&jobsSort, "sort", "id", "id | date | score | company | title")
	rootCmd.AddCommand(jobsCmd)
}
