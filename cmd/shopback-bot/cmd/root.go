// Package cmd implements the shopback-bot CLI commands.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/wdzeng/shopback-bot/internal/bot"
	"github.com/wdzeng/shopback-bot/internal/session"
	"github.com/wdzeng/shopback-bot/internal/shopback"
)

var rootCmd = &cobra.Command{
	Use:   "shopback-bot",
	Short: "A bot for ShopBack Taiwan",
	Long: "shopback-bot searches the ShopBack offer catalog, lists the offers\n" +
		"your account follows, and bulk-follows offers matching keywords.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and maps any failure to a process exit code.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().
		String("api-url", "", "override the ShopBack API base URL")
	rootCmd.PersistentFlags().
		BoolP("json", "J", false, "output JSON format")
	rootCmd.PersistentFlags().
		BoolP("force", "f", false, "suppress the error when no offer is found")

	cobra.CheckErr(viper.BindPFlag("api_url", rootCmd.PersistentFlags().Lookup("api-url")))
	cobra.CheckErr(viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json")))
	cobra.CheckErr(viper.BindPFlag("force", rootCmd.PersistentFlags().Lookup("force")))

	viper.SetEnvPrefix("SHOPBACK")
	viper.AutomaticEnv()

	rootCmd.AddCommand(searchCmd())
	rootCmd.AddCommand(listCmd())
	rootCmd.AddCommand(followCmd())
	rootCmd.AddCommand(whoamiCmd())
	rootCmd.AddCommand(watchCmd())
	rootCmd.AddCommand(versionCommand())
}

// newGateway builds the API client shared by all commands.
func newGateway() *shopback.Client {
	var opts []shopback.Option
	if u := viper.GetString("api_url"); u != "" {
		opts = append(opts, shopback.WithBaseURL(u))
	}
	return shopback.New(opts...)
}

// newBot wires a gateway, a session bound to the given credential file
// (empty means anonymous), and the bot engine.
func newBot(credentialFile string) (*bot.Bot, *session.Manager) {
	gateway := newGateway()

	var sessOpts []session.Option
	if credentialFile != "" {
		sessOpts = append(sessOpts, session.WithCredentialFile(credentialFile))
	}
	sess := session.NewManager(gateway, sessOpts...)

	return bot.New(gateway, sess), sess
}

func jsonOutput() bool {
	return viper.GetBool("json")
}

func forceOutput() bool {
	return viper.GetBool("force")
}
