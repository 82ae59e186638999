package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wdzeng/shopback-bot/internal/bot"
	domain "github.com/wdzeng/shopback-bot/pkg/types"
)

func followCmd() *cobra.Command {
	var (
		credentialFile string
		limit          int
	)

	cmd := &cobra.Command{
		Use:   "follow <keyword>...",
		Short: "Follow offers matching keywords",
		Long: "Searches the offer catalog for each keyword and follows every\n" +
			"match. Offers already followed are reported but not treated as\n" +
			"failures.",
		Example: `  shopback-bot follow 全聯 --credential cred.json
  shopback-bot follow 全聯 家樂福 -c cred.json --limit 50`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFollow(cmd, args, credentialFile, limit)
		},
	}
	cmd.Flags().StringVarP(&credentialFile, "credential", "c", "", "credential file")
	cmd.Flags().IntVarP(&limit, "limit", "n", 1, "follow at most N offers per keyword")
	cobra.CheckErr(cmd.MarkFlagRequired("credential"))

	return cmd
}

func runFollow(cmd *cobra.Command, keywords []string, credentialFile string, limit int) error {
	b, sess := newBot(credentialFile)

	if err := sess.ValidateRegion(cmd.Context()); err != nil {
		return err
	}

	var listener bot.FollowListener
	if !jsonOutput() {
		listener = func(batch *domain.OfferList, newlyFollowed []bool) {
			for i := range batch.Offers {
				prefix := "[#] "
				if newlyFollowed[i] {
					prefix = "[+] "
				}
				fmt.Println(prefix + batch.Offers[i].Title)
			}
		}
	}

	result, err := b.FollowOffersByKeywords(cmd.Context(), keywords, limit, listener)
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
