package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/vibast-solutions/ms-go-contacts/app/service"

	"github.com/spf13/cobra"
)

var apiKeyCmd = &cobra.Command{
	Use:   "apikey",
	Short: "Manage the internal service API key",
}

var apiKeyGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a new internal API key and its bcrypt hash",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		key, err := service.GenerateInternalAPIKey()
		if err != nil {
			return err
		}
		hash, err := service.HashInternalAPIKey(key)
		if err != nil {
			return err
		}

		fmt.Printf("api_key: %s\n", key)
		fmt.Printf("INTERNAL_API_KEY_HASH=%s\n", hash)
		return nil
	},
}

var apiKeyHashCmd = &cobra.Command{
	Use:   "hash [api_key]",
	Short: "Print the bcrypt hash of an existing internal API key",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		var key string
		if len(args) == 1 {
			key = args[0]
		} else {
			prompted, err := promptAPIKey()
			if err != nil {
				return err
			}
			key = prompted
		}

		hash, err := service.HashInternalAPIKey(key)
		if err != nil {
			return err
		}

		fmt.Printf("INTERNAL_API_KEY_HASH=%s\n", hash)
		return nil
	},
}

func init() {
	apiKeyCmd.AddCommand(apiKeyGenerateCmd)
	apiKeyCmd.AddCommand(apiKeyHashCmd)
	rootCmd.AddCommand(apiKeyCmd)
}

func promptAPIKey() (string, error) {
	reader := bufio.NewReader(os.Stdin)
	fmt.Print("API key: ")
	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(input)
	if input == "" {
		return "", errors.New("api key is required")
	}
	return input, nil
}
