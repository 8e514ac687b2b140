package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Manage the configured auth servers",
}

var serverListCmd = &cobra.Command{
	Use:     "list",
	Short:   "Display the configured servers",
	Aliases: []string{"ls"},
	RunE: func(cmd *cobra.Command, args []string) error {
		servers := app.Registry.Servers()
		if len(servers) == 0 {
			fmt.Println("No servers configured.")
			return nil
		}
		out, err := yaml.Marshal(servers)
		if err != nil {
			return fmt.Errorf("failed to marshal servers to YAML: %w", err)
		}
		fmt.Print(string(out))
		if active := app.Registry.Active(); active != "" {
			fmt.Printf("Active server: %s\n", active)
		} else {
			fmt.Println("No active server selected; the default applies.")
		}
		return nil
	},
}

var serverUseCmd = &cobra.Command{
	Use:   "use [SERVER_NAME]",
	Short: "Switch the active server and persist the choice",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := app.Backend.SwitchServer(args[0]); err != nil {
			return err
		}
		fmt.Printf("Switched to server %q.\n", args[0])
		return nil
	},
}

func init() {
	serverCmd.AddCommand(serverListCmd, serverUseCmd)
	rootCmd.AddCommand(serverCmd)
}
