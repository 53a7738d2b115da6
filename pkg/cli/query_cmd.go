package cli

import (
	"os"

	"github.com/spf13/cobra"
)

func newQueryCmd(host, output *string) *cobra.Command {
	var (
		targetDate  string
		source      string
		hints       []string
		materialize bool
	)

	cmd := &cobra.Command{
		Use:   "query <sql>",
		Short: "Execute a query against the tiered store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := QueryRequest{
				SQL:            args[0],
				PartitionHints: hints,
				Materialize:    materialize,
			}
			if targetDate != "" {
				req.TargetDate = &targetDate
			}
			if source != "" {
				req.Source = &source
			}

			result, err := NewClient(*host).Query(cmd.Context(), req)
			if err != nil {
				return err
			}
			if *output == "json" {
				return PrintJSON(os.Stdout, result)
			}
			return printResultTable(os.Stdout, result)
		},
	}

	cmd.Flags().StringVar(&targetDate, "date", "", "target date (YYYY-MM-DD) for routing")
	cmd.Flags().StringVar(&source, "source", "", "explicit source: HOT, COLD, or BOTH")
	cmd.Flags().StringSliceVar(&hints, "hint", nil, "partition column hints")
	cmd.Flags().BoolVar(&materialize, "materialize", false, "pin the result in the server cache")
	return cmd
}

func newMaterializeCmd(host *string) *cobra.Command {
	var (
		targetDate string
		source     string
	)

	cmd := &cobra.Command{
		Use:   "materialize <sql>",
		Short: "Execute a query and pin its result in the server cache",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := QueryRequest{SQL: args[0]}
			if targetDate != "" {
				req.TargetDate = &targetDate
			}
			if source != "" {
				req.Source = &source
			}

			out, err := NewClient(*host).Materialize(cmd.Context(), req)
			if err != nil {
				return err
			}
			return PrintJSON(os.Stdout, out)
		},
	}

	cmd.Flags().StringVar(&targetDate, "date", "", "target date (YYYY-MM-DD) for routing")
	cmd.Flags().StringVar(&source, "source", "", "explicit source: HOT, COLD, or BOTH")
	return cmd
}

func newRouteCmd(host *string) *cobra.Command {
	return &cobra.Command{
		Use:   "route <date>",
		Short: "Show which tier serves queries for a date",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := NewClient(*host).Route(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			cmd.Println(source)
			return nil
		},
	}
}
