package main

import (
	"os"

	"cohort-tools-api/db"

	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newImportCmd() *cobra.Command {
	var cohort string

	cmd := &cobra.Command{
		Use:   "import <students.xlsx>",
		Short: "Create students in a cohort from a spreadsheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cohortID, err := primitive.ObjectIDFromHex(cohort)
			if err != nil {
				return errors.Wrapf(err, "invalid cohort id '%s'", cohort)
			}
			cfg, err := setup()
			if err != nil {
				return err
			}

			file, err := os.Open(args[0])
			if err != nil {
				return errors.Wrapf(err, "opening '%s'", args[0])
			}
			defer file.Close()

			return withStore(cmd.Context(), cfg, func(store db.Store) error {
				imported, err := db.ImportStudentsFromExcel(cmd.Context(), store, file, cohortID)
				if err != nil {
					return err
				}
				grip.Info(message.Fields{
					"message":  "import finished",
					"file":     args[0],
					"cohort":   cohortID.Hex(),
					"imported": imported,
				})
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&cohort, "cohort", "", "id of the cohort the students join")
	_ = cmd.MarkFlagRequired("cohort")
	return cmd
}
