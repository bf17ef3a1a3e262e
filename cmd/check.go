package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/ukydev/equipment-maintenance/internal/config"
	"github.com/ukydev/equipment-maintenance/internal/models"
)

func newCheckCmd(configFile *string) *cobra.Command {
	var submissionFile, historyFile string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate a submission offline and print the verdict",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configFile)
			if err != nil {
				return err
			}
			engine, err := newEngine(cfg)
			if err != nil {
				return err
			}

			var sub models.MaintenanceSubmission
			if err := readJSON(submissionFile, &sub); err != nil {
				return err
			}
			var history []models.MaintenanceRecord
			if historyFile != "" {
				if err := readJSON(historyFile, &history); err != nil {
					return err
				}
			}

			verdict := engine.Evaluate(sub, history)
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(verdict); err != nil {
				return err
			}
			if !verdict.IsValid {
				return errInvalidSubmission
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&submissionFile, "submission", "", "JSON file holding the submission")
	cmd.Flags().StringVar(&historyFile, "history", "", "JSON file holding an array of stored records")
	cmd.MarkFlagRequired("submission")
	return cmd
}

func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}
