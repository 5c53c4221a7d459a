package main

import (
	"fmt"

	"github.com/dvloznov/finance-ledger/internal/notionsync"
	"github.com/spf13/cobra"
)

func newNotionSyncCommand(e *env) *cobra.Command {
	var token, databaseID string
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "notion-sync",
		Short: "Mirror the user's goals into a Notion database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := e.requireUser()
			if err != nil {
				return err
			}
			if token == "" {
				token = e.cfg.Notion.Token
			}
			if databaseID == "" {
				databaseID = e.cfg.Notion.DatabaseID
			}
			if databaseID == "" {
				return fmt.Errorf("--database-id (or notion.database_id) is required")
			}

			client, err := notionsync.NewNotionClient(token)
			if err != nil {
				return err
			}

			a, err := e.open()
			if err != nil {
				return err
			}
			defer a.Close()

			syncer := &notionsync.Syncer{
				Goals:      a.Goals,
				Accounts:   a.Service,
				Notion:     client,
				DatabaseID: databaseID,
				DryRun:     dryRun,
			}
			res, err := syncer.SyncGoals(e.ctx, userID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created=%d updated=%d deleted=%d failed=%d\n",
				res.Created, res.Updated, res.Deleted, res.Failed)
			if res.Failed > 0 {
				return fmt.Errorf("%d Notion page operation(s) failed", res.Failed)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&token, "notion-token", "", "Notion API token; defaults to notion.token")
	cmd.Flags().StringVar(&databaseID, "database-id", "", "Notion database ID; defaults to notion.database_id")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "preview changes without writing to Notion")

	return cmd
}
