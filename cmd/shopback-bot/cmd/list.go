package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wdzeng/shopback-bot/internal/bot"
	domain "github.com/wdzeng/shopback-bot/pkg/types"
)

func listCmd() *cobra.Command {
	var (
		credentialFile string
		limit          int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List followed offers",
		Long:  "Lists the offers your account already follows.",
		Example: `  shopback-bot list --credential cred.json
  shopback-bot list --credential cred.json --limit 100 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runList(cmd, credentialFile, limit)
		},
	}
	cmd.Flags().StringVarP(&credentialFile, "credential", "c", "", "credential file")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "list at most N offers (0 = all)")
	cobra.CheckErr(cmd.MarkFlagRequired("credential"))

	return cmd
}

func runList(cmd *cobra.Command, credentialFile string, limit int) error {
	b, sess := newBot(credentialFile)

	if err := sess.ValidateRegion(cmd.Context()); err != nil {
		return err
	}

	var listener bot.Listener
	if !jsonOutput() {
		listener = func(page *domain.OfferList) {
			for i := range page.Offers {
				fmt.Println("* " + page.Offers[i].Title)
			}
		}
	}

	result, err := b.FollowedOffers(cmd.Context(), limit, listener)
	if err != nil {
		return err
	}

	if jsonOutput() {
		return outputJSON(result)
	}

	if len(result.Offers) == 0 && !forceOutput() {
		return errEmptyResult
	}
	return nil
}
