package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/quillfold/statekit/state"
)

func init() {
	rootCmd.AddCommand(newTreeCmd())
}

func newTreeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tree <file>",
		Short: "Pretty-print the full state tree",
		Long: `The tree command loads every value and prints the state as an
indented tree, with section names bracketed.

Example:
  statectl tree run.state`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTree(args[0])
		},
	}
}

func runTree(path string) error {
	st := state.New()
	if err := st.Load(path, state.LoadOptions{}); err != nil {
		return fmt.Errorf("failed to load state: %w", err)
	}
	return st.Show(os.Stdout)
}
