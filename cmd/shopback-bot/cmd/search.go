package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wdzeng/shopback-bot/internal/bot"
	domain "github.com/wdzeng/shopback-bot/pkg/types"
)

func searchCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "search <keyword>...",
		Short: "Search offers",
		Long:  "Searches the offer catalog for each keyword and prints the matches.",
		Example: `  shopback-bot search 全聯
  shopback-bot search 全聯 家樂福 --limit 20 --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, args, limit)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "search at most N offers per keyword")

	return cmd
}

func runSearch(cmd *cobra.Command, keywords []string, limit int) error {
	b, _ := newBot("")

	var listener bot.Listener
	if !jsonOutput() {
		listener = func(page *domain.OfferList) {
			for i := range page.Offers {
				fmt.Println("* " + page.Offers[i].Title)
				fmt.Println("  " + page.Offers[i].ImageURL)
			}
		}
	}

	result, err := b.SearchOffers(cmd.Context(), keywords, limit, listener)
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
