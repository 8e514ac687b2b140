package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/progalaxyelabs/stonescript-auth-go/client"
)

var apiCmd = &cobra.Command{
	Use:   "api [METHOD] [PATH] [JSON_BODY]",
	Short: "Make an authenticated API call",
	Long: `Performs one API call with the stored credentials attached. A 401 response
triggers a single token refresh and retry, exactly as embedding applications
experience it.`,
	Args: cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		method := strings.ToUpper(args[0])
		path := args[1]

		var payload any
		if len(args) == 3 {
			if err := json.Unmarshal([]byte(args[2]), &payload); err != nil {
				return fmt.Errorf("body is not valid JSON: %w", err)
			}
		}

		res, err := app.API.Do(cmd.Context(), method, path, payload)
		if err != nil {
			return err
		}

		switch res.Kind {
		case client.KindOK:
			if len(res.Data) > 0 {
				fmt.Println(string(res.Data))
			}
			return nil
		case client.KindNotOK:
			if res.AuthRequired {
				return fmt.Errorf("authentication required; run '%s login'", rootCmd.Use)
			}
			return fmt.Errorf("request failed (%d): %s", res.StatusCode, res.Message)
		default:
			return fmt.Errorf("network error: %s", res.Message)
		}
	},
}

func init() {
	rootCmd.AddCommand(apiCmd)
}
