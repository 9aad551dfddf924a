package main

import (
	"context"
	"errors"
	"fmt"

	reconciliationdomain "github.com/smallbiznis/cloudstage/internal/reconciliation/domain"
	"github.com/spf13/cobra"
)

func reconcileCmd() *cobra.Command {
	var id string

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Replay pending reconciliation entries",
		Long: `Re-run fulfillment for payments whose ticket or premium write failed.

Without --id every pending entry is replayed; entries that fail again stay
pending with their attempt count bumped.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var svc reconciliationdomain.Service
			return runOneShot(cmd.Context(), func(ctx context.Context) error {
				out := cmd.OutOrStdout()
				if id != "" {
					entry, err := svc.Replay(ctx, id)
					if err != nil && !errors.Is(err, reconciliationdomain.ErrReplayFailed) {
						return err
					}
					fmt.Fprintf(out, "%s %s attempts=%d\n", entry.ID, entry.Status, entry.Attempts)
					return err
				}

				summary, err := svc.ReplayPending(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "resolved=%d failed=%d\n", summary.Resolved, summary.Failed)
				return nil
			}, &svc)
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "replay a single entry")
	return cmd
}
