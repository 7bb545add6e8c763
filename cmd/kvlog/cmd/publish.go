package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/backbone81/durable-kv/pkg/atomicfile"
	"github.com/backbone81/durable-kv/pkg/wal"
)

// publishCmd represents the publish command.
var publishCmd = &cobra.Command{
	Use:   "publish TARGET [CONTENT]",
	Short: "Atomically replaces the content of a file.",
	Long: `Atomically replaces the content of a file. Readers observe either the old or the new content, even when the
command crashes half way. Without CONTENT, the content is read from standard input.`,
	Args:         cobra.RangeArgs(1, 2),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		var data []byte
		if len(args) == 2 {
			data = []byte(args[1])
		} else {
			var err error
			data, err = io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("reading content: %w", err)
			}
		}

		if err := atomicfile.Publish(
			args[0],
			data,
			atomicfile.WithObserver(wal.NewSlogObserver(logger)),
			atomicfile.WithDirectorySync(cfg.DirectorySync),
		); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Published %d bytes to %q.\n", len(data), args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(publishCmd)
}
