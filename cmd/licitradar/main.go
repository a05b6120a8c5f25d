package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"licitradar/internal/app"
	"licitradar/internal/config"
	"licitradar/internal/domain"
	"licitradar/internal/logging"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logging.New("error").Error("licitradar stopped", "error", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "licitradar",
		Short:         "Discovers, extracts, and scores Mercado Publico tenders",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(runCmd(), serveCmd(), cronCmd(), profileCmd())
	return root
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Execute one discovery and analysis cycle",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, application *app.Application) error {
				return application.RunOnce(ctx)
			})
		},
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the review dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, application *app.Application) error {
				return application.Serve(ctx)
			})
		},
	}
}

func cronCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cron",
		Short: "Run cycles on the configured interval",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, application *app.Application) error {
				return application.Cron(ctx)
			})
		},
	}
}

func profileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage the strategic profile",
	}
	cmd.AddCommand(profileSetCmd(), profileShowCmd())
	return cmd
}

func profileSetCmd() *cobra.Command {
	var profile domain.Profile

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Create or overwrite the strategic profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			if profile.PositiveKeywords == "" {
				return fmt.Errorf("at least one positive keyword is required (--positive)")
			}
			return withApp(cmd.Context(), func(ctx context.Context, application *app.Application) error {
				if err := application.SaveProfile(ctx, profile); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "profile saved")
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&profile.PositiveKeywords, "positive", "", "comma-separated keywords to match")
	cmd.Flags().StringVar(&profile.NegativeKeywords, "negative", "", "comma-separated keywords to exclude")
	cmd.Flags().StringVar(&profile.Regions, "regions", "", "regions of interest")
	cmd.Flags().StringVar(&profile.Strategy, "strategy", "", "free-text value proposition for the analyst")

	return cmd
}

func profileShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the stored strategic profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, application *app.Application) error {
				profile, err := application.Profile(ctx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "positive keywords: %s\n", profile.PositiveKeywords)
				fmt.Fprintf(out, "negative keywords: %s\n", profile.NegativeKeywords)
				fmt.Fprintf(out, "regions:           %s\n", profile.Regions)
				fmt.Fprintf(out, "strategy:          %s\n", profile.Strategy)
				return nil
			})
		},
	}
}

func withApp(parent context.Context, fn func(context.Context, *app.Application) error) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level)

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer application.Close()

	return fn(ctx, application)
}
