package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/backbone81/durable-kv/pkg/atomicfile"
	"github.com/backbone81/durable-kv/pkg/state"
	"github.com/backbone81/durable-kv/pkg/wal"
)

var recoverSnapshot bool

// recoverCmd represents the recover command.
var recoverCmd = &cobra.Command{
	Use:   "recover",
	Short: "Rebuilds the state from the log and prints it.",
	Long: `Rebuilds the state from the log and prints it. The log is only read and never modified.

With --snapshot the recovered state is published atomically to the snapshot path as well.`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		recovered, err := state.Recover(cfg.LogPath)
		if err != nil {
			return err
		}
		printState(cmd.OutOrStdout(), recovered)

		if !recoverSnapshot {
			return nil
		}
		data, err := state.EncodeSnapshot(recovered)
		if err != nil {
			return err
		}
		if err := atomicfile.Publish(
			cfg.SnapshotPath,
			data,
			atomicfile.WithObserver(wal.NewSlogObserver(logger)),
			atomicfile.WithDirectorySync(cfg.DirectorySync),
		); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Snapshot published to %q.\n", cfg.SnapshotPath)
		return nil
	},
}

func printState(writer io.Writer, recovered state.State) {
	_, _ = fmt.Fprintf(writer, "Recovered state (%d keys):\n", len(recovered))
	for _, key := range recovered.Keys() {
		_, _ = fmt.Fprintf(writer, "- %s: %q\n", key, recovered[key])
	}
}

func init() {
	rootCmd.AddCommand(recoverCmd)

	recoverCmd.Flags().BoolVarP(
		&recoverSnapshot,
		"snapshot",
		"s",
		false,
		"Publish the recovered state to the snapshot path.",
	)
}
