package cli

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// commandEntry describes one CLI command for introspection output.
type commandEntry struct {
	Path  string      `json:"path"`
	Short string      `json:"short"`
	Args  string      `json:"args,omitempty"`
	Flags []flagEntry `json:"flags,omitempty"`
}

// flagEntry describes one flag of a command.
type flagEntry struct {
	Name    string `json:"name"`
	Short   string `json:"shorthand,omitempty"`
	Type    string `json:"type"`
	Default string `json:"default,omitempty"`
	Usage   string `json:"usage,omitempty"`
}

func newCommandsCmd(output *string) *cobra.Command {
	var filter string

	cmd := &cobra.Command{
		Use:   "commands",
		Short: "List available commands with their flags",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			entries := walkCommands(cmd.Root(), "")

			if filter != "" {
				needle := strings.ToLower(filter)
				var kept []commandEntry
				for _, e := range entries {
					if strings.Contains(strings.ToLower(e.Path+" "+e.Short), needle) {
						kept = append(kept, e)
					}
				}
				entries = kept
			}

			if *output == "json" {
				return PrintJSON(os.Stdout, entries)
			}
			tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			for _, e := range entries {
				fmt.Fprintf(tw, "%s\t%s\n", e.Path, e.Short)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&filter, "filter", "", "substring search across command names and descriptions")
	return cmd
}

func walkCommands(cmd *cobra.Command, parentPath string) []commandEntry {
	var entries []commandEntry
	for _, child := range cmd.Commands() {
		if child.Hidden || child.Name() == "help" || child.Name() == "completion" {
			continue
		}
		path := child.Name()
		if parentPath != "" {
			path = parentPath + " " + child.Name()
		}
		if child.HasSubCommands() {
			entries = append(entries, walkCommands(child, path)...)
			continue
		}

		args := ""
		if useParts := strings.Fields(child.Use); len(useParts) > 1 {
			args = strings.Join(useParts[1:], " ")
		}
		entries = append(entries, commandEntry{
			Path:  path,
			Short: child.Short,
			Args:  args,
			Flags: collectFlags(child),
		})
	}
	return entries
}

func collectFlags(cmd *cobra.Command) []flagEntry {
	var flags []flagEntry
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if f.Hidden || f.Name == "help" {
			return
		}
		flags = append(flags, flagEntry{
			Name:    f.Name,
			Short:   f.Shorthand,
			Type:    f.Value.Type(),
			Default: f.DefValue,
			Usage:   f.Usage,
		})
	})
	return flags
}
