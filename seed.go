package main

import (
	"cohort-tools-api/db"

	"github.com/mongodb/grip"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newSeedCmd() *cobra.Command {
	var cohortsPath, studentsPath string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load cohorts and students from JSON files when the store is empty",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cohortsPath == "" && studentsPath == "" {
				return errors.New("at least one of --cohorts or --students is required")
			}
			cfg, err := setup()
			if err != nil {
				return err
			}
			data, err := db.LoadSeedFiles(cohortsPath, studentsPath)
			if err != nil {
				return err
			}

			return withStore(cmd.Context(), cfg, func(store db.Store) error {
				seeded, err := db.Seed(cmd.Context(), store, data)
				if err != nil {
					return err
				}
				grip.InfoWhen(!seeded, "store already holds cohorts, nothing seeded")
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&cohortsPath, "cohorts", "", "JSON array of cohorts")
	cmd.Flags().StringVar(&studentsPath, "students", "", "JSON array of students")
	return cmd
}
