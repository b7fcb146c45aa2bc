package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/quillfold/statekit/state"
)

var setType string

func init() {
	cmd := newSetCmd()
	cmd.Flags().StringVar(&setType, "type", "auto",
		"Value type: auto, string, int, float, ints, floats, bytes")
	rootCmd.AddCommand(cmd)
}

func newSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <file> <key> <value>",
		Short: "Set a value in a state file",
		Long: `The set command writes a single value into a state file under the
cross-process state lock, creating the file if it does not exist.

With --type auto (the default), integers and floats are detected; anything
else is stored as a string. List types take comma-separated elements and are
stored as native arrays.

Example:
  statectl set run.state trainer.epoch 3
  statectl set run.state trainer.loss_curve 0.9,0.7,0.4 --type floats`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSet(args[0], args[1], args[2])
		},
	}
}

func runSet(path, key, raw string) error {
	value, err := parseValue(raw, setType)
	if err != nil {
		return err
	}
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
		return st.Set(key, value)
	})
	if err != nil {
		return err
	}
	printInfo("Set %s\n", key)
	return nil
}

func parseValue(raw, typ string) (any, error) {
	switch typ {
	case "auto":
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return n, nil
		}
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			return f, nil
		}
		return raw, nil
	case "string":
		return raw, nil
	case "int":
		return strconv.ParseInt(raw, 10, 64)
	case "float":
		return strconv.ParseFloat(raw, 64)
	case "ints":
		parts := splitList(raw)
		out := make([]int64, 0, len(parts))
		for _, p := range parts {
			n, err := strconv.ParseInt(p, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("bad int element %q: %w", p, err)
			}
			out = append(out, n)
		}
		return out, nil
	case "floats":
		parts := splitList(raw)
		out := make([]float64, 0, len(parts))
		for _, p := range parts {
			f, err := strconv.ParseFloat(p, 64)
			if err != nil {
				return nil, fmt.Errorf("bad float element %q: %w", p, err)
			}
			out = append(out, f)
		}
		return out, nil
	case "bytes":
		return []byte(raw), nil
	default:
		return nil, fmt.Errorf("unknown value type %q", typ)
	}
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
