package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/ochronus/gorecruitee/internal/app"
	"github.com/ochronus/gorecruitee/internal/config"
	"github.com/ochronus/gorecruitee/internal/sandbox"
	"github.com/ochronus/gorecruitee/internal/utils"
	"github.com/ochronus/gorecruitee/recruitee"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// cli holds the state shared by all commands.
type cli struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	// Get default config path
	defaultConfigPath, err := config.DefaultConfigPath()
	if err != nil {
		defaultConfigPath = "./config.toml"
	}

	rootCmd := &cobra.Command{
		Use:           "recruitee",
		Short:         "Recruitee API command line client",
		Long:          "Command line client for the Recruitee recruiting platform API. Results are printed as JSON.",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	rootCmd.PersistentFlags().StringVarP(&c.configPath, "config", "c", defaultConfigPath, "Path to config file")

	rootCmd.AddCommand(c.candidatesCmd())
	rootCmd.AddCommand(c.offersCmd())
	rootCmd.AddCommand(c.adminsCmd())
	rootCmd.AddCommand(c.evaluationsCmd())
	rootCmd.AddCommand(c.eventsCmd())
	rootCmd.AddCommand(c.placementsCmd())
	rootCmd.AddCommand(c.snapshotCmd())
	rootCmd.AddCommand(c.sandboxCmd())
	rootCmd.AddCommand(c.generateConfigCmd())
	rootCmd.AddCommand(versionCmd())

	return rootCmd
}

// loadConfig reads the config file. With allowMissing, a missing file yields
// the defaults instead of an error.
func (c *cli) loadConfig(allowMissing bool) (*config.Config, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		if allowMissing && errors.Is(err, fs.ErrNotExist) {
			return config.DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func (c *cli) container() (*app.Container, error) {
	cfg, err := c.loadConfig(false)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	container, err := app.NewContainer(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build container: %w", err)
	}
	return container, nil
}

// runFunc is the body of an API command. Its result is printed as JSON.
type runFunc func(ctx context.Context, container *app.Container, args []string) (any, error)

func (c *cli) withContainer(run runFunc) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		container, err := c.container()
		if err != nil {
			return err
		}

		result, err := run(ctx, container, args)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), result)
	}
}

func (c *cli) sandboxCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "sandbox",
		Short: "Serve an in-memory fake of the API",
		Long:  "Serve an in-memory fake of the Recruitee API. Point base_url at it to try commands without touching real data.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, err := c.loadConfig(true)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Sandbox.Port = port
			}
			if err := cfg.ValidateSandbox(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			logger := app.NewLogger(cfg.Loglevel)
			logger.Infof("Starting recruitee sandbox, version %s", recruitee.Version)

			server := sandbox.NewServer(cfg, logger)
			return server.StartWithContext(ctx)
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (overrides the config)")
	return cmd
}

func (c *cli) generateConfigCmd() *cobra.Command {
	var companyID, apiToken string

	cmd := &cobra.Command{
		Use:   "generate-config",
		Short: "Generate config",
		RunE: func(cmd *cobra.Command, args []string) error {
			return utils.GenerateConfig(cmd.OutOrStdout(), c.configPath, companyID, apiToken)
		},
	}
	cmd.Flags().StringVar(&companyID, "company", "", "Company identifier")
	cmd.Flags().StringVar(&apiToken, "token", "", "Personal API token")
	_ = cmd.MarkFlagRequired("company")
	_ = cmd.MarkFlagRequired("token")
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "recruitee version %s\n", recruitee.Version)
		},
	}
}
