// internal/cli/session.go
package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the session and the reachable screens",
	RunE: func(cmd *cobra.Command, args []string) error {
		printStatus(cmd)
		return nil
	},
}

var loginPassword string

var loginCmd = &cobra.Command{
	Use:   "login <email>",
	Short: "Sign in and store the session",
	Example: `  # Sign in as the sandbox client
  ebeauty login client@test.com --password password`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		user, err := client.Login(cmd.Context(), args[0], loginPassword)
		if err != nil {
			return userError(err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Welcome, %s %s (%s)\n", user.FirstName, user.LastName, user.Role)
		printStatus(cmd)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := client.Logout(cmd.Context()); err != nil {
			return userError(err)
		}
		printStatus(cmd)
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "account password")
}

func printStatus(cmd *cobra.Command) {
	out := cmd.OutOrStdout()
	view := client.Session.View()

	if view.User != nil {
		fmt.Fprintf(out, "Signed in:  %s (%s, id %s)\n", view.User.Email, view.User.Role, view.User.ID)
	} else {
		fmt.Fprintln(out, "Signed in:  no")
	}

	graph, screen, err := client.Navigator.Current()
	if err != nil {
		fmt.Fprintf(out, "Navigation: unavailable (%v)\n", err)
		return
	}

	screens := make([]string, 0, len(graph.Screens()))
	for _, s := range graph.Screens() {
		screens = append(screens, string(s))
	}
	fmt.Fprintf(out, "Navigation: %s graph at %s\n", graph, screen)
	fmt.Fprintf(out, "Screens:    %s\n", strings.Join(screens, ", "))
	for _, nested := range graph.Nested() {
		fmt.Fprintf(out, "Nested:     %s (%d screens)\n", nested, len(nested.Screens()))
	}

	if userID, ok := client.Channel.Connected(); ok {
		fmt.Fprintf(out, "Realtime:   connected for user %s\n", userID)
	} else {
		fmt.Fprintln(out, "Realtime:   offline")
	}
}
