package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/backbone81/durable-kv/pkg/atomicfile"
	"github.com/backbone81/durable-kv/pkg/state"
	"github.com/backbone81/durable-kv/pkg/wal"
)

var demoDelay time.Duration

// demoData is the content of the atomic write test.
var demoData = []byte("Testing atomic writes")

// demoOperations are appended to the log one after the other.
var demoOperations = []wal.Operation{
	wal.Set("a", []byte("1")),
	wal.Set("b", []byte("2")),
	wal.Set("c", []byte("3")),
	wal.Delete("b"),
}

// demoCmd represents the demo command.
var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Runs an atomic write and a log round trip from scratch.",
	Long: `Runs an atomic write and a log round trip from scratch.

The files of earlier runs are removed first. Then "atomic_data.txt" is published next to the log and verified.
Finally the operations set a=1, set b=2, set c=3 and delete b are appended to the log, and the state is recovered
from it. The recovered state holds a=1 and c=3.`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		directory := filepath.Dir(cfg.LogPath)
		atomicPath := filepath.Join(directory, "atomic_data.txt")

		if err := removeFiles(atomicPath, cfg.LogPath, filepath.Join(directory, "crash.log")); err != nil {
			return err
		}

		_, _ = fmt.Fprintln(out, "--- Atomic Write Test ---")
		if err := atomicfile.Publish(
			atomicPath,
			demoData,
			atomicfile.WithObserver(wal.NewSlogObserver(logger)),
			atomicfile.WithDirectorySync(cfg.DirectorySync),
		); err != nil {
			return err
		}
		written, err := os.ReadFile(atomicPath)
		if err != nil {
			return fmt.Errorf("reading back %q: %w", atomicPath, err)
		}
		if !bytes.Equal(written, demoData) {
			return fmt.Errorf("content of %q does not match the published data", atomicPath)
		}
		_, _ = fmt.Fprintln(out, "Atomic write successfully completed")

		_, _ = fmt.Fprintln(out, "--- Append-Only Log Test ---")
		if err := appendOperations(demoOperations, demoDelay); err != nil {
			return err
		}
		_, _ = fmt.Fprintln(out, "Operations processed successfully")

		recovered, err := state.Recover(cfg.LogPath)
		if err != nil {
			return err
		}
		printState(out, recovered)
		return nil
	},
}

func removeFiles(filePaths ...string) error {
	var errs []error
	for _, filePath := range filePaths {
		if err := os.Remove(filePath); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func appendOperations(operations []wal.Operation, delay time.Duration) (err error) {
	syncPolicyType, err := cfg.SyncPolicyType()
	if err != nil {
		return err
	}
	writer, err := wal.Open(
		cfg.LogPath,
		wal.WithSyncPolicy(syncPolicyType),
		wal.WithObserver(wal.NewSlogObserver(logger)),
	)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, writer.Close())
	}()

	for _, operation := range operations {
		if err := writer.Append(operation); err != nil {
			return err
		}
		time.Sleep(delay)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(demoCmd)

	demoCmd.Flags().DurationVar(
		&demoDelay,
		"delay",
		10*time.Millisecond,
		"The pause between two appends.",
	)
}
