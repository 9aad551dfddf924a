package main

import (
	"context"
	"fmt"

	notificationdomain "github.com/smallbiznis/cloudstage/internal/notification/domain"
	"github.com/spf13/cobra"
)

func notifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "notify <eventId>",
		Short: "Push a go-live notification to the artist's followers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var svc notificationdomain.Service
			return runOneShot(cmd.Context(), func(ctx context.Context) error {
				result, err := svc.NotifyFollowers(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "event=%s followers=%d tokens=%d success=%d failure=%d\n",
					result.EventID, result.Followers, result.Tokens, result.SuccessCount, result.FailureCount)
				return nil
			}, &svc)
		},
	}
}
