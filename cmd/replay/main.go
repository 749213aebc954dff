package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/veralis-app/salesdesk/go-engine/internal/replay"
)

// #region main

func main() {
	fixturePath := flag.String("fixture", "", "path to fixture JSON")
	verbose := flag.Bool("v", false, "print per-poll observations")
	flag.Parse()

	if *fixturePath == "" {
		fmt.Fprintln(os.Stderr, "usage: replay --fixture path/to/fixture.json [-v]")
		os.Exit(2)
	}

	f, err := replay.LoadFixture(*fixturePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load fixture: %v\n", err)
		os.Exit(2)
	}

	result, err := replay.RunFixture(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "replay: %v\n", err)
		os.Exit(2)
	}

	if f.Description != "" {
		fmt.Printf("%s\n\n", f.Description)
	}
	if *verbose {
		printObservations(result)
	}

	diffs := replay.Compare(f, result)
	os.Exit(printComparison(f, result, diffs))
}

// #endregion main

// #region output

func printObservations(result replay.Result) {
	fmt.Printf("%-8s| %-10s| %-9s| %-7s| %s\n", "Attempt", "Error", "Complete", "Stable", "Streak")
	fmt.Printf("%-8s+%-11s+%-10s+%-8s+%s\n", "--------", "-----------", "----------", "--------", "------")
	for _, o := range result.Observations {
		errKind := "-"
		if o.ErrorKind != "" {
			errKind = o.ErrorKind
		}
		fmt.Printf("%-8d| %-10s| %-9v| %-7v| %d\n", o.Attempt, errKind, o.Complete, o.Stable, o.Streak)
	}
	fmt.Println()
}

// printComparison outputs the expected-vs-replayed table and returns the
// exit code: 0 on full match, 1 on divergence.
func printComparison(f *replay.Fixture, result replay.Result, diffs []replay.Mismatch) int {
	fmt.Printf("%-12s| %-15s| %-15s| %s\n", "Check", "Expected", "Replayed", "Match")
	fmt.Printf("%-12s+%-16s+%-16s+%s\n", "------------", "----------------", "----------------", "------")

	diffFields := make(map[string]replay.Mismatch, len(diffs))
	for _, d := range diffs {
		diffFields[d.Field] = d
	}

	printRow := func(field, expected, got string) {
		match := "OK"
		if _, bad := diffFields[field]; bad {
			match = "DIFF"
		}
		fmt.Printf("%-12s| %-15s| %-15s| %s\n", field, expected, got, match)
	}

	if f.Expected.Reason != "" {
		printRow("reason", f.Expected.Reason, string(result.Reason))
	}
	if f.Expected.Attempts > 0 {
		printRow("attempts", fmt.Sprint(f.Expected.Attempts), fmt.Sprint(result.Attempts))
	}
	for i, want := range f.Expected.Streaks {
		got := "missing"
		if i < len(result.Observations) {
			got = fmt.Sprint(result.Observations[i].Streak)
		}
		printRow(fmt.Sprintf("streak[%d]", i), fmt.Sprint(want), got)
	}

	fmt.Printf("\nSummary: %d checks, %d diverge\n", countChecks(f), len(diffs))
	if len(diffs) > 0 {
		return 1
	}
	return 0
}

func countChecks(f *replay.Fixture) int {
	n := len(f.Expected.Streaks)
	if f.Expected.Reason != "" {
		n++
	}
	if f.Expected.Attempts > 0 {
		n++
	}
	return n
}

// #endregion output
