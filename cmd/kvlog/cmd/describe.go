package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/backbone81/durable-kv/pkg/wal"
)

// describeCmd represents the describe command.
var describeCmd = &cobra.Command{
	Use:          "describe",
	Short:        "Provides detailed information about the log.",
	Long:         `Provides detailed information about every record of the log and why reading it stopped.`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		reader, err := wal.OpenReader(cfg.LogPath)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		_, _ = fmt.Fprintf(out, "Log:          %s\n", reader.FilePath())
		_, _ = fmt.Fprintf(out, "Size:         %d\n", reader.Size())
		_, _ = fmt.Fprintln(out)

		var records int
		for reader.Next() {
			value := reader.Value()
			_, _ = fmt.Fprintf(out, "%10d %6d  %s\n", value.Offset, value.Size, value.Operation)
			records++
		}
		_, _ = fmt.Fprintln(out)
		_, _ = fmt.Fprintf(out, "Records:      %d\n", records)
		_, _ = fmt.Fprintf(out, "Valid Length: %d\n", reader.ValidLength())
		_, _ = fmt.Fprintf(out, "Stop Reason:  %s\n", reader.StopReason())
		return reader.Err()
	},
}

func init() {
	rootCmd.AddCommand(describeCmd)
}
