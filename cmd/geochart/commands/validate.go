package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/geochart/internal/chartconfig"
	"github.com/Sumatoshi-tech/geochart/internal/schema"
)

// ErrInvalidChartConfig is returned when the document fails the
// inputs-schema gate.
var ErrInvalidChartConfig = errors.New("chart configuration is invalid")

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	var nocolor bool

	cmd := &cobra.Command{
		Use:   "validate <config.json|config.yaml>",
		Short: "Check a chart configuration against the inputs schema",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runValidate(args[0], nocolor)
		},
	}

	cmd.Flags().BoolVar(&nocolor, "no-color", false, "disable colored output")

	return cmd
}

func runValidate(path string, nocolor bool) error {
	if nocolor {
		color.NoColor = true //nolint:reassign // intentional override of library global
	}

	raw, err := chartconfig.ReadDocument(path)
	if err != nil {
		return err
	}

	result, err := schema.Validate(schema.KindInputs, raw)
	if err != nil {
		return err
	}

	if result.Valid {
		color.New(color.FgGreen).Fprintf(os.Stdout, "Configuration is valid (%s)\n", path)

		return nil
	}

	color.New(color.FgRed).Fprintf(os.Stdout, "Configuration validation failed (%s)\n", path)
	fmt.Fprintf(os.Stdout, "\nErrors:\n")

	for _, violation := range result.Errors {
		color.New(color.FgRed).Fprintf(os.Stdout, "  - %s\n", violation)
	}

	return fmt.Errorf("%w: %d violation(s)", ErrInvalidChartConfig, len(result.Errors))
}
