package main

import (
	"fmt"

	"github.com/Thanhdhxd/logbook-app/daily"
	"github.com/Thanhdhxd/logbook-app/reminder"

	"github.com/spf13/cobra"
)

var remindDryRun bool

var remindCmd = &cobra.Command{
	Use:   "remind",
	Short: "Send today's task reminders now",
	Long: `Run the daily reminder once, outside its schedule. Reminders go to
REMINDER_WEBHOOK_URL when set; with --dry-run or no webhook they are only
logged.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		e, err := setup(ctx, cmd)
		if err != nil {
			return err
		}
		defer e.close(ctx)

		var n reminder.Notifier = reminder.LogNotifier{Log: e.log}
		if e.cfg.ReminderWebhookURL != "" && !remindDryRun {
			n = reminder.NewWebhookNotifier(e.cfg.ReminderWebhookURL)
		}
		views := daily.NewService(e.st, e.cfg.Location, e.cfg.ManualLookback, daily.WithLogger(e.log))
		res, err := reminder.NewJob(e.st, views, n, reminder.WithLogger(e.log)).RunOnce(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "seasons %d, sent %d, nothing due %d, no device %d, failed %d\n",
			res.Seasons, res.Sent, res.Idle, res.NoToken, res.Failed)
		return nil
	},
}

func init() {
	remindCmd.Flags().BoolVar(&remindDryRun, "dry-run", false, "log reminders instead of sending them")
	rootCmd.AddCommand(remindCmd)
}
