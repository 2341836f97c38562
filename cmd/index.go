package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/vibast-solutions/ms-go-contacts/app/index"
	"github.com/vibast-solutions/ms-go-contacts/app/service"
	"github.com/vibast-solutions/ms-go-contacts/config"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var indexChannel string

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Inspect the contact uniqueness index built from the profile database",
}

var indexDuplicatesCmd = &cobra.Command{
	Use:   "duplicates",
	Short: "List emails or mobiles claimed by more than one user",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ch, err := index.ParseChannel(indexChannel)
		if err != nil {
			return err
		}

		app, err := loadIndexedApplication(cmd.Context())
		if err != nil {
			return err
		}
		defer app.Close()

		conflicts := app.ingestion.Conflicts(ch)
		for _, c := range conflicts {
			fmt.Printf("%s\t%s\n", c.Value, strings.Join(c.UserIDs, ","))
		}
		fmt.Printf("%d duplicate %s value(s)\n", len(conflicts), ch)
		return nil
	},
}

var indexCheckCmd = &cobra.Command{
	Use:   "check <user_id>",
	Short: "Validate one stored profile against the full index",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := loadIndexedApplication(cmd.Context())
		if err != nil {
			return err
		}
		defer app.Close()

		userID := strings.TrimSpace(args[0])
		profile, err := app.profiles.FindByUserID(cmd.Context(), userID)
		if err != nil {
			return err
		}
		if profile == nil {
			return fmt.Errorf("user %q not found", userID)
		}

		violations := app.validation.Validate(profile)
		fmt.Printf("user_id: %s\n", profile.UserID)
		fmt.Printf("kind: %s\n", profile.Kind)
		if len(violations) == 0 {
			fmt.Println("violations: none")
			return nil
		}
		for _, v := range violations {
			fmt.Printf("violation: %s\n", v)
		}
		return nil
	},
}

func init() {
	indexDuplicatesCmd.Flags().StringVar(&indexChannel, "channel", "email", "channel to inspect (email or mobile)")
	indexCmd.AddCommand(indexDuplicatesCmd)
	indexCmd.AddCommand(indexCheckCmd)
	rootCmd.AddCommand(indexCmd)
}

func loadIndexedApplication(ctx context.Context) (*application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err = configureLogging(cfg); err != nil {
		return nil, err
	}
	if !cfg.HasMySQL() {
		return nil, errors.New("MYSQL_DSN environment variable is required")
	}

	app, err := newApplication(cfg, nil)
	if err != nil {
		return nil, err
	}

	if ctx == nil {
		ctx = context.Background()
	}
	res, err := app.ingestion.Resync(ctx, service.SourceCLI)
	if err != nil {
		app.Close()
		return nil, err
	}
	logrus.WithField("profiles", res.Profiles).Debug("Index loaded")

	return app, nil
}
