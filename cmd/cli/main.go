// Command shield manages protected webhook URLs from the terminal.
// Commands:
//   - protect: Protect one destination URL
//   - import: Protect every route of a routes manifest
//   - validate: Check a routes manifest without protecting anything
//   - inspect: Show a mapping and its destination
//   - revoke: Delete a mapping
//   - gen-secret: Print a fresh encryption key and relay signing secret
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/marcelsud/webhook-shield/config"
	"github.com/marcelsud/webhook-shield/internal/bootstrap"
	"github.com/marcelsud/webhook-shield/routes"
	"github.com/marcelsud/webhook-shield/webhook"
	"github.com/marcelsud/webhook-shield/webhook/codec"
	"github.com/marcelsud/webhook-shield/webhook/signature"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:           "shield",
		Short:         "webhook-shield CLI - Protect and manage webhook URLs",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(protectCmd())
	rootCmd.AddCommand(importCmd())
	rootCmd.AddCommand(validateCmd())
	rootCmd.AddCommand(inspectCmd())
	rootCmd.AddCommand(revokeCmd())
	rootCmd.AddCommand(genSecretCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// withService loads config, opens the configured store and runs fn with a ready service
func withService(ctx context.Context, fn func(cfg *config.Config, s *webhook.Service) error) error {
	cfg, err := config.GetConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	repo, err := bootstrap.NewRepository(ctx, cfg)
	if err != nil {
		return err
	}
	defer repo.Close(ctx)

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	s, err := bootstrap.NewService(cfg, repo, logger)
	if err != nil {
		return err
	}
	return fn(cfg, s)
}

func resolveBaseURL(flag string, cfg *config.Config) string {
	if flag != "" {
		return flag
	}
	if cfg.PublicBaseURL != "" {
		return cfg.PublicBaseURL
	}
	return "http://localhost:" + cfg.Port
}

func protectCmd() *cobra.Command {
	var baseURL string
	cmd := &cobra.Command{
		Use:   "protect <url>",
		Short: "Protect a destination URL and print its substitute URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd.Context(), func(cfg *config.Config, s *webhook.Service) error {
				reg, err := s.Register(cmd.Context(), args[0], resolveBaseURL(baseURL, cfg))
				if err != nil {
					return fmt.Errorf("protecting %s: %w", args[0], err)
				}
				fmt.Println(reg.PublicURL)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&baseURL, "base-url", "", "public base URL of the service (defaults to PUBLIC_BASE_URL)")
	return cmd
}

func importCmd() *cobra.Command {
	var baseURL string
	cmd := &cobra.Command{
		Use:   "import <routes.yaml>",
		Short: "Protect every route of a routes manifest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loader := routes.NewLoader()
			if err := loader.Load(args[0]); err != nil {
				return err
			}
			return withService(cmd.Context(), func(cfg *config.Config, s *webhook.Service) error {
				base := resolveBaseURL(baseURL, cfg)
				for _, route := range loader.List() {
					reg, err := s.Register(cmd.Context(), route.TargetURL, base)
					if err != nil {
						return fmt.Errorf("protecting route %s: %w", route.Name, err)
					}
					fmt.Printf("%-20s %s\n", route.Name, reg.PublicURL)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&baseURL, "base-url", "", "public base URL of the service (defaults to PUBLIC_BASE_URL)")
	return cmd
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [routes.yaml]",
		Short: "Validate a routes manifest",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "routes.yaml"
			if len(args) == 1 {
				path = args[0]
			}

			loader := routes.NewLoader()
			if err := loader.Load(path); err != nil {
				return fmt.Errorf("validation failed: %w", err)
			}

			loaded := loader.List()
			fmt.Printf("%s: %d route(s)\n", path, len(loaded))
			for _, route := range loaded {
				fmt.Printf("  %-20s %s\n", route.Name, route.TargetURL)
			}
			return nil
		},
	}
}

func inspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <id>",
		Short: "Show a mapping and its destination",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd.Context(), func(_ *config.Config, s *webhook.Service) error {
				rec, destination, err := s.Inspect(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Printf("id:          %s\n", rec.ID)
				fmt.Printf("destination: %s\n", destination)
				fmt.Printf("created:     %s\n", rec.CreatedAt.Format(time.RFC3339))
				fmt.Printf("usage:       %d\n", rec.UsageCount)
				if rec.LastUsed != nil {
					fmt.Printf("last used:   %s\n", rec.LastUsed.Format(time.RFC3339))
				}
				if rec.ExpiresAt != nil {
					fmt.Printf("expires:     %s\n", rec.ExpiresAt.Format(time.RFC3339))
				}
				return nil
			})
		},
	}
}

func revokeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "revoke <id>",
		Short: "Delete a mapping so its substitute URL stops resolving",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd.Context(), func(_ *config.Config, s *webhook.Service) error {
				if err := s.Revoke(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Printf("revoked %s\n", args[0])
				return nil
			})
		},
	}
}

func genSecretCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "gen-secret",
		Short: "Print a fresh ENCRYPTION_KEY and RELAY_SIGNING_SECRET",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := codec.GenerateKey()
			if err != nil {
				return err
			}
			secret, err := signature.GenerateSecret(32)
			if err != nil {
				return err
			}
			fmt.Printf("ENCRYPTION_KEY=%s\n", key)
			fmt.Printf("RELAY_SIGNING_SECRET=%s\n", secret)
			return nil
		},
	}
}
