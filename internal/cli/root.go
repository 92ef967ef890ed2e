// internal/cli/root.go
package cli

import (
	"context"

	"ebeauty-client/internal/app"
	"ebeauty-client/internal/config"
	xerrors "ebeauty-client/internal/pkg/errors"
	"ebeauty-client/internal/pkg/session"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	logger *zap.Logger
	client *app.Client
)

var rootCmd = &cobra.Command{
	Use:   "ebeauty",
	Short: "eBeauty client core",
	Long: `Drive the eBeauty client core from a terminal.

Every command restores the stored session first, exactly as the app does
on launch, then reports which screens the session can reach.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := app.NewClient(cmd.Context(), config.Load(), logger)
		if err != nil {
			return err
		}
		client = c
		client.Start(cmd.Context())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd, loginCmd, logoutCmd, artistsCmd, categoriesCmd, bookCmd, watchCmd)
}

// ExecuteContext runs the CLI with l as the shared logger
func ExecuteContext(ctx context.Context, l *zap.Logger) error {
	logger = l
	defer func() {
		if client != nil {
			client.Close()
		}
	}()
	return rootCmd.ExecuteContext(ctx)
}

// Exit codes
const (
	ExitFailure = 1
	ExitUsage   = 2
)

// ExitCode maps a command error to the process exit status. Rejected
// input exits with ExitUsage.
func ExitCode(err error) int {
	if session.IsInputError(err) {
		return ExitUsage
	}
	return ExitFailure
}

// userError prefers the message meant for display and keeps the cause
func userError(err error) error {
	if err == nil {
		return nil
	}
	return xerrors.Display(xerrors.DisplayMessage(err), err)
}
