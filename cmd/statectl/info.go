package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quillfold/statekit/internal/format"
)

func init() {
	rootCmd.AddCommand(newInfoCmd())
}

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <file>",
		Short: "Show container metadata for a state file",
		Long: `The info command prints header metadata of a state container:
format version and entry count. Only the header and index are read.

Example:
  statectl info run.state`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInfo(args[0])
		},
	}
}

type containerInfo struct {
	Path    string `json:"path"`
	Version uint16 `json:"version"`
	Entries uint64 `json:"entries"`
}

func runInfo(path string) error {
	f, err := format.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open state file: %w", err)
	}
	defer f.Close()

	info := containerInfo{
		Path:    f.Path(),
		Version: f.Version(),
		Entries: f.EntryCount(),
	}
	if jsonOut {
		return printJSON(info)
	}
	fmt.Printf("Path:    %s\n", info.Path)
	fmt.Printf("Version: %d\n", info.Version)
	fmt.Printf("Entries: %d\n", info.Entries)
	return nil
}
