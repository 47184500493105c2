package main

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/spf13/cobra"

	"github.com/hrygo/rundown/plugin/ai/timeout"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Scan the mailbox once and print the report",
	RunE: func(cmd *cobra.Command, _ []string) error {
		p, err := loadProfile()
		if err != nil {
			return err
		}
		a, err := newApp(cmd.Context(), p)
		if err != nil {
			return err
		}
		defer a.Close()
		if a.ingester == nil {
			return errors.New("no mailbox configured; set --mailbox-path")
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), timeout.IngestRunTimeout)
		defer cancel()
		report, err := a.ingester.RunOnce(ctx)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	},
}
