package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/progalaxyelabs/stonescript-auth-go/backend"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in with email and password and persist the session",
	RunE: func(cmd *cobra.Command, args []string) error {
		email, _ := cmd.Flags().GetString("email")
		if email == "" {
			fmt.Print("Enter email: ")
			reader := bufio.NewReader(os.Stdin)
			line, _ := reader.ReadString('\n')
			email = strings.TrimSpace(line)
		}

		fmt.Print("Enter password: ")
		bytePassword, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}

		res := app.Session.LoginWithEmail(cmd.Context(), email, string(bytePassword))
		if !res.Success {
			return fmt.Errorf("login failed: %s", res.Message)
		}
		if res.NeedsVerification {
			fmt.Println("Login accepted, but the email address still needs verification.")
		}
		if user := app.Session.CurrentUser(); user != nil {
			fmt.Printf("Logged in as %s (%s)\n", user.DisplayName, user.Email)
		} else {
			fmt.Println("Logged in.")
		}
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Invalidate the session and clear persisted credentials",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !app.Tokens.HasValid() {
			fmt.Println("Not logged in.")
			return nil
		}
		app.Session.Signout(cmd.Context())
		fmt.Println("Logged out.")
		return nil
	},
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create a new account",
	RunE: func(cmd *cobra.Command, args []string) error {
		email, _ := cmd.Flags().GetString("email")
		name, _ := cmd.Flags().GetString("name")
		if email == "" {
			return fmt.Errorf("--email is required")
		}

		fmt.Print("Choose a password: ")
		bytePassword, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}

		res := app.Session.Register(cmd.Context(), email, string(bytePassword), name)
		if !res.Success {
			return fmt.Errorf("registration failed: %s", res.Message)
		}
		if res.NeedsVerification {
			fmt.Println("Account created. Check your inbox to verify the email address.")
			return nil
		}
		fmt.Println("Account created and signed in.")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the current session",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !app.Session.CheckSession(cmd.Context()) {
			fmt.Println("Not logged in.")
			return nil
		}
		user := app.Session.CurrentUser()
		if user == nil {
			fmt.Println("Session is live but no user snapshot is held; run login again to refresh it.")
			return nil
		}
		fmt.Printf("User:     %s\n", user.DisplayName)
		fmt.Printf("Email:    %s (verified: %t)\n", user.Email, user.EmailVerified)
		fmt.Printf("ID:       %s (#%d)\n", user.StringID, user.NumericID)
		return nil
	},
}

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Force an access-token refresh",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !app.Session.Refresh(cmd.Context()) {
			return fmt.Errorf("refresh failed; authentication required")
		}
		fmt.Println("Access token refreshed.")
		return nil
	},
}

var oauthCmd = &cobra.Command{
	Use:   "oauth [PROVIDER]",
	Short: "Log in through an OAuth provider",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res := app.Session.LoginWithProvider(cmd.Context(), args[0], backend.ProviderOptions{})
		if !res.Success {
			return fmt.Errorf("oauth login failed: %s", res.Message)
		}
		if user := app.Session.CurrentUser(); user != nil {
			fmt.Printf("Logged in as %s (%s)\n", user.DisplayName, user.Email)
		}
		return nil
	},
}

func init() {
	loginCmd.Flags().String("email", "", "email address to log in with")
	registerCmd.Flags().String("email", "", "email address for the new account")
	registerCmd.Flags().String("name", "", "display name for the new account")

	rootCmd.AddCommand(loginCmd, logoutCmd, registerCmd, whoamiCmd, refreshCmd, oauthCmd)
}
