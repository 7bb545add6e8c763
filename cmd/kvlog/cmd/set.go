package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

// setCmd represents the set command.
var setCmd = &cobra.Command{
	Use:          "set KEY VALUE",
	Short:        "Records a new value for a key.",
	Long:         `Records a new value for a key. The value is durable when the command returns successfully.`,
	Args:         cobra.ExactArgs(2),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer func() {
			err = errors.Join(err, store.Close())
		}()

		if err := store.Set(args[0], []byte(args[1])); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Set %q.\n", args[0])
		return nil
	},
}

// deleteCmd represents the delete command.
var deleteCmd = &cobra.Command{
	Use:          "delete KEY",
	Short:        "Records the removal of a key.",
	Long:         `Records the removal of a key. The removal is durable when the command returns successfully.`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer func() {
			err = errors.Join(err, store.Close())
		}()

		if err := store.Delete(args[0]); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Deleted %q.\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(deleteCmd)
}
