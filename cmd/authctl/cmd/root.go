package cmd

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/progalaxyelabs/stonescript-auth-go/config"
	"github.com/progalaxyelabs/stonescript-auth-go/log"
)

var (
	cfgFile   string
	appLogger log.Logger
	app       *App
)

var rootCmd = &cobra.Command{
	Use:   config.AppName,
	Short: "authctl is a CLI for authenticating against StoneScript backends",
	Long: `A command-line client for the StoneScript auth API: log in, inspect the
current session, switch between configured servers, and make authenticated
API calls with automatic token refresh.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}

		level, parseErr := zerolog.ParseLevel(cfg.LogLevel)
		if parseErr != nil {
			level = zerolog.InfoLevel
		}
		appLogger = log.NewZerologAdapter(level, cfg.LogPretty)

		app, err = buildApp(cfg, appLogger)
		if err != nil {
			appLogger.Error(cmd.Context(), "failed to initialize client", err)
		}
		return err
	},
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		fmt.Sprintf("config file (default is $HOME/.%s/%s.yaml)", config.AppName, config.AppName))
}
