package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
)

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		output, _ := rootCmd.PersistentFlags().GetString("output")
		if output == "json" {
			_ = PrintJSON(os.Stdout, map[string]interface{}{"error": err.Error()})
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	var (
		host    string
		output  string
		profile string
	)

	rootCmd := &cobra.Command{
		Use:           "tq",
		Short:         "Tiered query CLI",
		Long:          "Command-line interface for the federated tiered query API.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := LoadUserConfig()
			if err != nil {
				return err
			}
			p := cfg.ActiveProfile(profile)

			// Precedence: flag > env > profile > default.
			if !cmd.Flags().Changed("host") {
				if v := os.Getenv("TQ_HOST"); v != "" {
					host = v
				} else if p.Host != "" {
					host = p.Host
				}
			}
			if !cmd.Flags().Changed("output") && p.Output != "" {
				output = p.Output
			}
			_ = cmd.Flags().Set("host", host)
			_ = cmd.Flags().Set("output", output)
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&host, "host", "http://localhost:8080", "API server base URL")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "table", "output format: table or json")
	rootCmd.PersistentFlags().StringVar(&profile, "profile", "", "config profile to use")

	rootCmd.AddCommand(
		newQueryCmd(&host, &output),
		newMaterializeCmd(&host),
		newRouteCmd(&host),
		newTablesCmd(&host, &output),
		newStatsCmd(&host),
		newRepartitionCmd(&host),
		newMetricsCmd(&host),
		newCommandsCmd(&output),
		newProfileCmd(&output),
		newVersionCmd(),
	)

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the CLI version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "tq %s (%s)\n", version, commit)
			return nil
		},
	}
}
