package cli

import (
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func newTablesCmd(host, output *string) *cobra.Command {
	var source string

	cmd := &cobra.Command{
		Use:   "tables",
		Short: "List tables on a tier",
		RunE: func(cmd *cobra.Command, _ []string) error {
			tables, err := NewClient(*host).ListTables(cmd.Context(), strings.ToUpper(source))
			if err != nil {
				return err
			}
			if *output == "json" {
				return PrintJSON(os.Stdout, tables)
			}
			for _, t := range tables {
				cmd.Println(t)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&source, "source", "HOT", "tier to list: HOT or COLD")
	return cmd
}

func newStatsCmd(host *string) *cobra.Command {
	var source string

	cmd := &cobra.Command{
		Use:   "stats <table>",
		Short: "Show row count, schema, and numeric column statistics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := NewClient(*host).TableStats(cmd.Context(), strings.ToUpper(source), args[0])
			if err != nil {
				return err
			}
			return PrintJSON(os.Stdout, stats)
		},
	}

	cmd.Flags().StringVar(&source, "source", "COLD", "tier to inspect: HOT or COLD")
	return cmd
}

func newRepartitionCmd(host *string) *cobra.Command {
	var (
		numPartitions int
		partitionBy   []string
	)

	cmd := &cobra.Command{
		Use:   "repartition <table>",
		Short: "Rewrite a cold-tier table clustered on partition columns",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := NewClient(*host).Repartition(cmd.Context(), args[0], numPartitions, partitionBy)
			if err != nil {
				return err
			}
			return PrintJSON(os.Stdout, out)
		},
	}

	cmd.Flags().IntVar(&numPartitions, "partitions", 0, "number of partitions (0 = server default)")
	cmd.Flags().StringSliceVar(&partitionBy, "by", nil, "partition columns (omit to infer)")
	return cmd
}

func newMetricsCmd(host *string) *cobra.Command {
	var windowSeconds int

	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "Show aggregate operation statistics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := NewClient(*host).Metrics(cmd.Context(), windowSeconds)
			if err != nil {
				return err
			}
			return PrintJSON(os.Stdout, out)
		},
	}

	cmd.Flags().IntVar(&windowSeconds, "window", 0, "window in seconds (0 = full retention)")
	return cmd
}
