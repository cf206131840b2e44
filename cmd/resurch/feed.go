package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/csheth/resurch/internal/logger"
)

var errNoUser = errors.New("feed requires a user id")

var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "Print personalized recommendations for --user-id",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(logger.StderrTarget)
		if err != nil {
			return err
		}
		defer logger.Close()

		current := a.session.Session()
		if !current.SignedIn() {
			stderrf("feed: no user id configured; pass --user-id or set RESURCH_USER_ID\n")
			return errNoUser
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), a.cfg.RequestTimeout)
		defer cancel()
		papers, err := a.catalog.Feed(ctx, current.UserID)
		if err != nil {
			return err
		}
		asJSON, _ := cmd.Flags().GetBool("json")
		return printPapers(cmd.OutOrStdout(), papers, asJSON, "No recommendations yet. Star papers on the Calibration page of `resurch` to build your profile.")
	},
}

func init() {
	feedCmd.Flags().Bool("json", false, "output results as JSON")
	rootCmd.AddCommand(feedCmd)
}
