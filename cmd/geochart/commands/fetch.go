package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/guptarohit/asciigraph"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/geochart/internal/chartconfig"
	"github.com/Sumatoshi-tech/geochart/internal/config"
	"github.com/Sumatoshi-tech/geochart/internal/record"
	"github.com/Sumatoshi-tech/geochart/internal/session"
)

const (
	previewHeight  = 10
	defaultMaxRows = 25
	unlimitedRows  = 0
)

// NewFetchCommand creates the fetch command.
func NewFetchCommand() *cobra.Command {
	var (
		appConfigPath string
		datasource    int
		asJSON        bool
		preview       bool
		maxRows       int
		verbose       bool
	)

	cmd := &cobra.Command{
		Use:   "fetch <config.json|config.yaml>",
		Short: "Query one datasource and inspect its records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFetch(cmd, args[0], appConfigPath, datasource, asJSON, preview, maxRows, verbose)
		},
	}

	cmd.Flags().StringVar(&appConfigPath, "config", "", "application config file")
	cmd.Flags().IntVar(&datasource, "datasource", 0, "datasource index to fetch")
	cmd.Flags().BoolVar(&asJSON, "json", false, "dump records as indented JSON")
	cmd.Flags().BoolVar(&preview, "preview", false, "render an ascii preview of the y-axis values")
	cmd.Flags().IntVar(&maxRows, "rows", defaultMaxRows, "max table rows to print (0 for all)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	return cmd
}

func runFetch(
	cmd *cobra.Command,
	chartPath, appConfigPath string,
	datasource int,
	asJSON, preview bool,
	maxRows int,
	verbose bool,
) error {
	logger := newLogger(verbose)

	appCfg, err := config.LoadConfig(appConfigPath)
	if err != nil {
		return err
	}

	chartCfg, err := chartconfig.Load(chartPath)
	if err != nil {
		return err
	}

	querier, registry := newQuerier(appCfg, logger)
	defer reportMetrics(logger, registry)

	sess, err := session.New(chartCfg,
		session.WithQuerier(querier),
		session.WithLogger(logger),
		session.WithLanguage(appCfg.Language),
	)
	if err != nil {
		return err
	}

	selectErr := sess.SelectDatasource(cmd.Context(), datasource)
	if selectErr != nil {
		return selectErr
	}

	records := sess.Records()

	fmt.Fprintf(os.Stdout, "Fetched %s record(s) from datasource %q\n",
		humanize.Comma(int64(len(records))), chartCfg.Datasources[datasource].Name)

	if asJSON {
		payload, marshalErr := json.MarshalIndent(records, "", "  ")
		if marshalErr != nil {
			return fmt.Errorf("serialize records: %w", marshalErr)
		}

		fmt.Fprintln(os.Stdout, string(payload))

		return nil
	}

	printTable(records, chartCfg, maxRows)

	if preview {
		printPreview(records, chartCfg)
	}

	return nil
}

// printTable renders the records with the chart's axis and category
// fields as leading columns.
func printTable(records record.Set, cfg *chartconfig.Config, maxRows int) {
	if len(records) == 0 {
		return
	}

	columns := []string{cfg.Axes.X.Property, cfg.Axes.Y.Property}
	if cfg.Categorization != nil && cfg.Categorization.Property != "" {
		columns = append(columns, cfg.Categorization.Property)
	}

	w := table.NewWriter()
	w.SetOutputMirror(os.Stdout)

	header := table.Row{}
	for _, col := range columns {
		header = append(header, col)
	}

	w.AppendHeader(header)

	for i, rec := range records {
		if maxRows != unlimitedRows && i >= maxRows {
			break
		}

		row := table.Row{}
		for _, col := range columns {
			row = append(row, record.String(rec[col]))
		}

		w.AppendRow(row)
	}

	w.Render()
}

// printPreview plots the y-axis values as an ascii graph.
func printPreview(records record.Set, cfg *chartconfig.Config) {
	values := make([]float64, 0, len(records))

	for _, rec := range records {
		v, ok := record.Number(rec[cfg.Axes.Y.Property])
		if ok {
			values = append(values, v)
		}
	}

	if len(values) == 0 {
		return
	}

	fmt.Fprintln(os.Stdout)
	fmt.Fprintln(os.Stdout, asciigraph.Plot(values,
		asciigraph.Height(previewHeight),
		asciigraph.Caption(cfg.Axes.Y.Property),
	))
}
