package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newProfileCmd(output *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage named connection profiles",
	}
	cmd.AddCommand(newProfileListCmd(output), newProfileSetCmd(), newProfileUseCmd())
	return cmd
}

func newProfileListCmd(output *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configured profiles",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := LoadUserConfig()
			if err != nil {
				return err
			}

			if *output == "json" {
				return PrintJSON(os.Stdout, map[string]interface{}{
					"default":  cfg.DefaultProfile,
					"profiles": cfg.Profiles,
				})
			}
			tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tHOST\tOUTPUT")
			for _, name := range cfg.ProfileNames() {
				p := cfg.Profiles[name]
				marker := ""
				if name == cfg.DefaultProfile {
					marker = " *"
				}
				fmt.Fprintf(tw, "%s%s\t%s\t%s\n", name, marker, p.Host, p.Output)
			}
			return tw.Flush()
		},
	}
}

func newProfileSetCmd() *cobra.Command {
	var (
		host   string
		output string
	)

	cmd := &cobra.Command{
		Use:   "set <name>",
		Short: "Create or update a profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadUserConfig()
			if err != nil {
				return err
			}

			name := args[0]
			p := cfg.Profiles[name]
			if cmd.Flags().Changed("host") {
				p.Host = host
			}
			if cmd.Flags().Changed("output") {
				p.Output = output
			}
			cfg.Profiles[name] = p
			if cfg.DefaultProfile == "" {
				cfg.DefaultProfile = name
			}
			if err := cfg.Save(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "profile %q saved\n", name)
			return nil
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "API server base URL for this profile")
	cmd.Flags().StringVar(&output, "output", "", "default output format for this profile")
	return cmd
}

func newProfileUseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "use <name>",
		Short: "Select the default profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadUserConfig()
			if err != nil {
				return err
			}

			name := args[0]
			if _, ok := cfg.Profiles[name]; !ok {
				return fmt.Errorf("unknown profile %q", name)
			}
			cfg.DefaultProfile = name
			if err := cfg.Save(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "default profile set to %q\n", name)
			return nil
		},
	}
}
