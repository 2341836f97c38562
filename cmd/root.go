package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "contacts",
	Short: "Contact uniqueness microservice",
	Long:  `A contact validation microservice keeping an in-memory uniqueness index of user emails and mobile numbers, served via HTTP and gRPC.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
