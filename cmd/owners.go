package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/smazurov/barspacing/internal/app"
	"github.com/smazurov/barspacing/internal/logging"
	"github.com/smazurov/barspacing/internal/process"
)

type ownerRecord struct {
	PID      int    `yaml:"pid"`
	Name     string `yaml:"name"`
	BundleID string `yaml:"bundle_id,omitempty"`
	Location string `yaml:"location,omitempty"`
}

// CreateOwnersCmd creates the owners command.
func CreateOwnersCmd() *cobra.Command {
	var flags commonFlags
	var output string

	cmd := &cobra.Command{
		Use:   "owners",
		Short: "List the processes apply would relaunch",
		Long:  `Discovers menu bar item owners on the active space without touching them.`,
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			if code := runOwners(cmd, &flags, output); code != exitOK {
				os.Exit(code)
			}
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "table", "Output format (table, yaml)")
	return cmd
}

// runOwners returns the process exit code.
func runOwners(cmd *cobra.Command, flags *commonFlags, output string, opts ...app.Option) int {
	settings, err := flags.settings()
	logger := logging.GetLogger("main")
	if err != nil {
		logger.Error("Failed to load configuration", "error", err, "config", flags.configFile)
		return exitError
	}

	a, err := app.New(settings, opts...)
	if err != nil {
		logger.Error("Failed to initialize", "error", err)
		return exitError
	}
	defer a.Close()

	owners, err := a.Owners(context.Background())
	if err != nil {
		logger.Error("Failed to discover menu bar item owners", "error", err)
		return exitError
	}

	if err := writeOwners(cmd.OutOrStdout(), owners, output); err != nil {
		logger.Error("Failed to write output", "error", err)
		return exitError
	}
	return exitOK
}

func writeOwners(out io.Writer, owners []*process.Descriptor, output string) error {
	switch output {
	case "yaml":
		records := make([]ownerRecord, len(owners))
		for i, d := range owners {
			records[i] = ownerRecord{PID: d.PID, Name: d.DisplayName(), BundleID: d.BundleID, Location: d.Location}
		}
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(records); err != nil {
			return err
		}
		return enc.Close()
	case "table":
		w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "PID\tNAME\tBUNDLE ID")
		for _, d := range owners {
			fmt.Fprintf(w, "%d\t%s\t%s\n", d.PID, d.DisplayName(), d.BundleID)
		}
		return w.Flush()
	default:
		return fmt.Errorf("unknown output format %q", output)
	}
}
