// Package main is the entry point for the fmmetrics CLI tool, which tracks a
// Football Manager career and computes player and team statistics.
package main

import "github.com/pable/go-fm-metrics/cmd"

func main() {
	cmd.Execute()
}
