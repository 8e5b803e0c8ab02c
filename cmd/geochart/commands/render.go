package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/geochart/internal/chartconfig"
	"github.com/Sumatoshi-tech/geochart/internal/config"
	"github.com/Sumatoshi-tech/geochart/internal/locale"
	"github.com/Sumatoshi-tech/geochart/internal/render"
	"github.com/Sumatoshi-tech/geochart/internal/session"
)

const outputFileMode = 0o644

// NewRenderCommand creates the render command.
func NewRenderCommand() *cobra.Command {
	var (
		appConfigPath string
		datasource    int
		output        string
		download      bool
		verbose       bool
	)

	cmd := &cobra.Command{
		Use:   "render <config.json|config.yaml>",
		Short: "Run the full pipeline and write an HTML chart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, args[0], appConfigPath, datasource, output, download, verbose)
		},
	}

	cmd.Flags().StringVar(&appConfigPath, "config", "", "application config file")
	cmd.Flags().IntVar(&datasource, "datasource", 0, "datasource index to chart")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output HTML path (default from app config)")
	cmd.Flags().BoolVar(&download, "download", false, "also write the record subset as indented JSON")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	return cmd
}

func runRender(
	cmd *cobra.Command,
	chartPath, appConfigPath string,
	datasource int,
	output string,
	download, verbose bool,
) error {
	logger := newLogger(verbose)

	appCfg, err := config.LoadConfig(appConfigPath)
	if err != nil {
		return err
	}

	if output == "" {
		output = appCfg.Render.Output
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

	data, options, err := sess.Recompute()
	if err != nil {
		return err
	}

	out, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer out.Close()

	renderErr := render.HTML(out, chartCfg, data, options, locale.New(appCfg.Language), appCfg.Render.Theme)
	if renderErr != nil {
		return renderErr
	}

	fmt.Fprintf(os.Stdout, "Wrote %s\n", output)

	if download {
		payload, name, downloadErr := sess.Download(true)
		if downloadErr != nil {
			return downloadErr
		}

		target := filepath.Join(filepath.Dir(output), name)

		writeErr := os.WriteFile(target, payload, outputFileMode)
		if writeErr != nil {
			return fmt.Errorf("write download artifact: %w", writeErr)
		}

		fmt.Fprintf(os.Stdout, "Wrote %s\n", target)
	}

	return nil
}
