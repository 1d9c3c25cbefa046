package cmd

import (
	"github.com/spf13/cobra"
)

func NewRootCmd(version, buildDate string) *cobra.Command {
	var serverURL string
	root := &cobra.Command{
		Use:           "laborbot",
		Short:         "Operator CLI for the freee labor bot",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080", "Server base URL")

	root.AddCommand(newVersionCmd(version, buildDate))
	root.AddCommand(newKeygenCmd())
	root.AddCommand(newTokenCmd())
	root.AddCommand(newRegisterCmd(&serverURL))
	return root
}
