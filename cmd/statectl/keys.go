package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quillfold/statekit/state"
)

func init() {
	rootCmd.AddCommand(newKeysCmd())
}

func newKeysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keys <file>",
		Short: "List all keys in a state file",
		Long: `The keys command lists every leaf key in a state file as a flat,
dot-separated path. Only the container's structural skeleton is read;
no value is loaded.

Example:
  statectl keys run.state`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeys(args[0])
		},
	}
}

func runKeys(path string) error {
	st := state.New()
	if err := st.Load(path, state.LoadOptions{}); err != nil {
		return fmt.Errorf("failed to load state: %w", err)
	}
	keys := st.Keys()
	if jsonOut {
		return printJSON(keys)
	}
	for _, key := range keys {
		fmt.Println(key)
	}
	printVerbose("%d key(s)\n", len(keys))
	return nil
}
