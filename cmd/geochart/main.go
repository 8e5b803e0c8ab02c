// Package main provides the entry point for the geochart CLI tool.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/geochart/cmd/geochart/commands"
	"github.com/Sumatoshi-tech/geochart/pkg/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "geochart",
		Short: "Geochart - interactive charts from geospatial query services",
		Long: `Geochart turns a declarative chart configuration plus records from
Esri feature services, OGC API Features, or static GeoJSON into
renderable charts.

Commands:
  render     Run the full pipeline and write an HTML chart
  fetch      Query one datasource and inspect its records
  validate   Check a chart configuration against the inputs schema`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(commands.NewRenderCommand())
	rootCmd.AddCommand(commands.NewFetchCommand())
	rootCmd.AddCommand(commands.NewValidateCommand())
	rootCmd.AddCommand(versionCmd())

	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(os.Stdout, "geochart %s (commit: %s, built: %s)\n", version.Version, version.Commit, version.Date)
		},
	}
}
