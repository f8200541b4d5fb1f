package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/edachat/backend/internal/wire"
)

func newSessionsCmd() *cobra.Command {
	var (
		userID string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List the stored sessions of a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, cleanup, err := wire.InitializeAll()
			if err != nil {
				return fmt.Errorf("initialize: %w", err)
			}
			defer cleanup()

			records, err := app.Conversation.UserSessions(userID)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(records)
			}
			if len(records) == 0 {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "no sessions for", userID)
				return err
			}

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.SetHeader([]string{"ID", "Dataset", "Created"})
			for _, r := range records {
				table.Append([]string{r.ID, r.DatasetName, r.CreatedAt.Local().Format(time.DateTime)})
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "cli", "user whose sessions are listed")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}
