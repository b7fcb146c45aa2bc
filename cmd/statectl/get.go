package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quillfold/statekit/state"
)

func init() {
	rootCmd.AddCommand(newGetCmd())
}

func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <file> <key>",
		Short: "Get a value from a state file",
		Long: `The get command reads and prints a single value from a state file.
Only that value's payload is read from disk.

Example:
  statectl get run.state trainer.epoch
  statectl get run.state trainer.loss --json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGet(args[0], args[1])
		},
	}
}

func runGet(path, key string) error {
	printVerbose("Opening state file: %s\n", path)
	st := state.New()
	if err := st.Load(path, state.LoadOptions{}); err != nil {
		return fmt.Errorf("failed to load state: %w", err)
	}
	v, err := st.Get(key)
	if err != nil {
		return err
	}
	if sub, ok := v.(*state.Substate); ok {
		if jsonOut {
			out := make(map[string]any)
			for _, k := range sub.Keys() {
				val, err := sub.Get(k)
				if err != nil {
					return err
				}
				out[k] = val
			}
			return printJSON(out)
		}
		for _, k := range sub.Keys() {
			val, err := sub.Get(k)
			if err != nil {
				return err
			}
			fmt.Printf("%s: %v\n", k, val)
		}
		return nil
	}
	if jsonOut {
		return printJSON(v)
	}
	fmt.Printf("%v\n", v)
	return nil
}
