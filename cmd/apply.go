package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/smazurov/barspacing/internal/app"
	"github.com/smazurov/barspacing/internal/logging"
	"github.com/smazurov/barspacing/internal/relaunch"
)

// Exit codes for apply.
const (
	exitOK             = 0
	exitError          = 1
	exitPartialFailure = 2
)

// CreateApplyCmd creates the apply command.
func CreateApplyCmd() *cobra.Command {
	var flags commonFlags

	cmd := &cobra.Command{
		Use:   "apply [offset]",
		Short: "Apply a spacing offset once and relaunch menu bar items",
		Long: `Writes the spacing offset (argument, or spacing.offset from the configuration file), ` +
			`then quits and relaunches every process that owns a menu bar item on the active space. ` +
			`An offset of 0 restores the system defaults.`,
		Args: cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			if code := runApply(cmd, &flags, args); code != exitOK {
				os.Exit(code)
			}
		},
	}

	flags.register(cmd)
	return cmd
}

// runApply returns the process exit code. Everything it opens is released
// before it returns.
func runApply(cmd *cobra.Command, flags *commonFlags, args []string, opts ...app.Option) int {
	settings, err := flags.settings()
	logger := logging.GetLogger("main")
	if err != nil {
		logger.Error("Failed to load configuration", "error", err, "config", flags.configFile)
		return exitError
	}

	offset := settings.Spacing.Offset
	if len(args) == 1 {
		if offset, err = strconv.Atoi(args[0]); err != nil {
			logger.Error("Invalid offset", "offset", args[0])
			return exitError
		}
		settings.Spacing.Offset = offset
	}

	a, err := app.New(settings, opts...)
	if err != nil {
		logger.Error("Failed to initialize", "error", err)
		return exitError
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = a.Apply(ctx, offset)

	var grouped *relaunch.GroupedFailure
	switch {
	case err == nil:
		fmt.Fprintf(cmd.OutOrStdout(), "Applied spacing offset %d\n", offset)
		return exitOK
	case errors.As(err, &grouped):
		fmt.Fprintf(cmd.ErrOrStderr(), "Failed to relaunch: %v\n", grouped.FailedNames)
		fmt.Fprintln(cmd.ErrOrStderr(), grouped.RecoverySuggestion)
		return exitPartialFailure
	default:
		logger.Error("Failed to apply spacing offset", "error", err)
		return exitError
	}
}
