package main

import (
	"github.com/spf13/cobra"

	"github.com/quillfold/statekit/state"
)

func init() {
	rootCmd.AddCommand(newDeleteCmd())
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <file> <key>",
		Short: "Delete a key from a state file",
		Long: `The delete command removes a key from a state file under the
cross-process state lock. The entry is purged from the container, not just
hidden.

Example:
  statectl delete run.state trainer.scratch`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDelete(args[0], args[1])
		},
	}
}

func runDelete(path, key string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	opts := state.HandlerOptions{
		Load:             true,
		Save:             true,
		Timeout:          cfg.State.LockTimeout,
		RotateN:          cfg.State.Rotate,
		CompressionLevel: cfg.State.Compression,
	}
	err = state.With(state.New(), path, opts, func(st *state.State) error {
		return st.Delete(key)
	})
	if err != nil {
		return err
	}
	printInfo("Deleted %s\n", key)
	return nil
}
