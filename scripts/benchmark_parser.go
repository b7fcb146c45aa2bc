// Command benchmark_parser turns `go test -bench` output from the state
// package into a markdown report, comparing DEFLATE levels against the
// uncompressed baseline.
//
// Usage:
//
//	go test -bench . ./state | go run scripts/benchmark_parser.go
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// BenchmarkResult represents a parsed benchmark result.
type BenchmarkResult struct {
	Name        string
	Operation   string
	Variant     string // "level=5", "level=off", or "" for un-parametrized ops
	Iterations  int
	NsPerOp     float64
	BytesPerOp  int64
	AllocsPerOp int64
}

var (
	inputFile = flag.String(
		"input",
		"",
		"Input file with benchmark output (stdin if not specified)",
	)
	outputFile = flag.String("output", "", "Output markdown file (stdout if not specified)")
	quiet      = flag.Bool("quiet", false, "Suppress progress output")
)

func main() {
	flag.Parse()

	var scanner *bufio.Scanner
	var inputF *os.File
	if *inputFile != "" {
		f, err := os.Open(*inputFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening input file: %v\n", err)
			os.Exit(1)
		}
		inputF = f
		scanner = bufio.NewScanner(f)
	} else {
		scanner = bufio.NewScanner(os.Stdin)
	}

	results := parseBenchmarks(scanner)
	if !*quiet {
		fmt.Fprintf(os.Stderr, "Parsed %d benchmark results\n", len(results))
	}

	report := generateMarkdownReport(results)

	if *outputFile != "" {
		err := os.WriteFile(*outputFile, []byte(report), 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error writing output file: %v\n", err)
			if inputF != nil {
				inputF.Close()
			}
			os.Exit(1)
		}
		if !*quiet {
			fmt.Fprintf(os.Stderr, "Report written to %s\n", *outputFile)
		}
	} else {
		fmt.Fprint(os.Stdout, report)
	}

	if inputF != nil {
		inputF.Close()
	}
}

func parseBenchmarks(scanner *bufio.Scanner) []BenchmarkResult {
	var results []BenchmarkResult

	// BenchmarkSave/level=5-8    120    9873456 ns/op    524288 B/op    42 allocs/op
	benchmarkRegex := regexp.MustCompile(
		`^(Benchmark\S+)\s+(\d+)\s+([\d.]+)\s+ns/op(?:\s+([\d.]+)\s+B/op)?(?:\s+([\d.]+)\s+allocs/op)?`,
	)

	for scanner.Scan() {
		line := scanner.Text()

		// Accept test2json lines (from -json) as well as plain output.
		var testEvent map[string]any
		if err := json.Unmarshal([]byte(line), &testEvent); err == nil {
			if output, ok := testEvent["Output"].(string); ok {
				line = output
			}
		}

		matches := benchmarkRegex.FindStringSubmatch(strings.TrimSpace(line))
		if matches == nil {
			continue
		}

		name := matches[1]
		iterations, _ := strconv.Atoi(matches[2])
		nsPerOp, _ := strconv.ParseFloat(matches[3], 64)
		var bytesPerOp, allocsPerOp int64
		if matches[4] != "" {
			f, _ := strconv.ParseFloat(matches[4], 64)
			bytesPerOp = int64(f)
		}
		if matches[5] != "" {
			f, _ := strconv.ParseFloat(matches[5], 64)
			allocsPerOp = int64(f)
		}

		operation, variant := splitName(name)
		results = append(results, BenchmarkResult{
			Name:        name,
			Operation:   operation,
			Variant:     variant,
			Iterations:  iterations,
			NsPerOp:     nsPerOp,
			BytesPerOp:  bytesPerOp,
			AllocsPerOp: allocsPerOp,
		})
	}
	return results
}

// splitName decomposes "BenchmarkSave/level=5-8" into ("Save", "level=5").
func splitName(name string) (operation, variant string) {
	name = strings.TrimPrefix(name, "Benchmark")
	// Strip the trailing -GOMAXPROCS suffix.
	if i := strings.LastIndex(name, "-"); i > 0 {
		if _, err := strconv.Atoi(name[i+1:]); err == nil {
			name = name[:i]
		}
	}
	if i := strings.Index(name, "/"); i >= 0 {
		return name[:i], name[i+1:]
	}
	return name, ""
}

func generateMarkdownReport(results []BenchmarkResult) string {
	var sb strings.Builder
	sb.WriteString("# State benchmark report\n\n")

	if len(results) == 0 {
		sb.WriteString("No benchmark results found.\n")
		return sb.String()
	}

	operations := make(map[string][]BenchmarkResult)
	var order []string
	for _, r := range results {
		if _, ok := operations[r.Operation]; !ok {
			order = append(order, r.Operation)
		}
		operations[r.Operation] = append(operations[r.Operation], r)
	}
	sort.Strings(order)

	for _, op := range order {
		rs := operations[op]
		sb.WriteString(fmt.Sprintf("## %s\n\n", op))
		sb.WriteString("| Variant | ns/op | ms/op | B/op | allocs/op | vs baseline |\n")
		sb.WriteString("|---------|------:|------:|-----:|----------:|------------:|\n")

		baseline := baselineOf(rs)
		for _, r := range rs {
			variant := r.Variant
			if variant == "" {
				variant = "-"
			}
			ratio := "-"
			if baseline > 0 && r.NsPerOp > 0 {
				ratio = fmt.Sprintf("%.2fx", r.NsPerOp/baseline)
			}
			sb.WriteString(fmt.Sprintf("| %s | %.0f | %.2f | %d | %d | %s |\n",
				variant, r.NsPerOp, r.NsPerOp/1e6, r.BytesPerOp, r.AllocsPerOp, ratio))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// baselineOf picks the uncompressed variant as the comparison baseline, or
// the first result when the operation has no level variants.
func baselineOf(rs []BenchmarkResult) float64 {
	for _, r := range rs {
		if r.Variant == "level=off" {
			return r.NsPerOp
		}
	}
	if len(rs) > 0 {
		return rs[0].NsPerOp
	}
	return 0
}
