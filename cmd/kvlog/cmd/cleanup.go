package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/backbone81/durable-kv/pkg/atomicfile"
	"github.com/backbone81/durable-kv/pkg/wal"
)

// cleanupCmd represents the cleanup command.
var cleanupCmd = &cobra.Command{
	Use:   "cleanup [DIRECTORY]",
	Short: "Removes temporary files of interrupted publishes.",
	Long: `Removes temporary files which publishes interrupted by a crash left behind. Without DIRECTORY, the directory
of the log is cleaned up. Do not run it while another process publishes into the same directory.`,
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		directory := filepath.Dir(cfg.LogPath)
		if len(args) == 1 {
			directory = args[0]
		}

		removed, err := atomicfile.RemoveTemporaryFiles(directory, atomicfile.WithObserver(wal.NewSlogObserver(logger)))
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Removed %d temporary files from %q.\n", removed, directory)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cleanupCmd)
}
