package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wdzeng/shopback-bot/internal/session"
)

func whoamiCmd() *cobra.Command {
	var credentialFile string

	cmd := &cobra.Command{
		Use:     "whoami",
		Short:   "Print the logged-in account name",
		Example: "  shopback-bot whoami --credential cred.json",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			gateway := newGateway()
			sess := session.NewManager(gateway, session.WithCredentialFile(credentialFile))

			name, err := sess.Username(cmd.Context())
			if err != nil {
				return err
			}

			if jsonOutput() {
				return outputJSON(map[string]string{"name": name})
			}
			fmt.Println(name)
			return nil
		},
	}
	cmd.Flags().StringVarP(&credentialFile, "credential", "c", "", "credential file")
	cobra.CheckErr(cmd.MarkFlagRequired("credential"))

	return cmd
}
