package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/app"
)

var refreshCmd = &cobra.Command{
	Use:   "refresh [user_id]",
	Short: "Recompute and store a user's alerts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(cmd.Context(), func(a *app.App) error {
			set, err := a.Aggregator.Refresh(cmd.Context(), args[0])
			if set != nil {
				if perr := printJSON(set); perr != nil {
					return perr
				}
			}
			return err
		})
	},
}

var includeDismissed bool

var listCmd = &cobra.Command{
	Use:   "list [user_id]",
	Short: "List a user's current and custom alerts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(cmd.Context(), func(a *app.App) error {
			alerts, err := a.Aggregator.ListAlerts(cmd.Context(), args[0], includeDismissed)
			if err != nil {
				return err
			}
			return printJSON(alerts)
		})
	},
}

var dismissCmd = &cobra.Command{
	Use:   "dismiss [user_id] [alert_id]",
	Short: "Dismiss one of a user's alerts",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(cmd.Context(), func(a *app.App) error {
			record, err := a.Aggregator.DismissAlert(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return printJSON(record)
		})
	},
}

var notifyCmd = &cobra.Command{
	Use:   "notify [user_id] [alert_id]",
	Short: "Send one of a user's alerts through the notification transports",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(cmd.Context(), func(a *app.App) error {
			alert, state, err := a.Aggregator.FindAlert(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			if !a.Notifier.NotifyWithPreferences(cmd.Context(), args[0], *alert, state.Preferences) {
				return fmt.Errorf("failed to send alert %s", args[1])
			}
			fmt.Printf("Sent alert %s to %s via %v\n", args[1], args[0], a.Notifier.Channels())
			return nil
		})
	},
}

func init() {
	listCmd.Flags().BoolVar(&includeDismissed, "include-dismissed", false, "Include dismissed alerts")
	rootCmd.AddCommand(refreshCmd, listCmd, dismissCmd, notifyCmd)
}
