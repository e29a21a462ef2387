package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vsinha/drumsched/pkg/infrastructure/config"
	"github.com/vsinha/drumsched/pkg/infrastructure/logging"
	"github.com/vsinha/drumsched/pkg/interfaces/cli/output"
)

// Options holds the global flags shared by every subcommand
type Options struct {
	ConfigFile  string
	ScenarioDir string
	Format      string
	OutputDir   string
	Verbose     bool
}

// app carries the state a subcommand runs with once flags are parsed
type app struct {
	opts   Options
	cfg    *config.Config
	logger *zap.Logger
}

// NewRootCommand builds the drumsched command tree
func NewRootCommand() *cobra.Command {
	a := &app{logger: zap.NewNop()}

	root := &cobra.Command{
		Use:   "drumsched",
		Short: "Weekly drum production scheduler",
		Long: `drumsched plans a week of drum filling from open job orders.

Campaigns are grouped by product and packaging, placed on days within the
plant's drum capacity, checked against stock and promised purchase orders,
and committed as material reservations once every day is ready.

Collaborators come from the ERP database, or from CSV files with --scenario.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.logger.Sync()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.opts.ConfigFile, "config", "c", "", "config file (default ./configs/config.yaml or ./config.yaml)")
	flags.StringVarP(&a.opts.ScenarioDir, "scenario", "s", "", "directory of CSV files to use instead of the ERP database")
	flags.StringVarP(&a.opts.Format, "format", "f", output.FormatText, "output format: text, json, yaml, svg")
	flags.StringVarP(&a.opts.OutputDir, "output", "o", "", "write results into this directory instead of stdout")
	flags.BoolVarP(&a.opts.Verbose, "verbose", "v", false, "debug logging and detailed output")

	root.AddCommand(
		newRegenerateCommand(a),
		newApproveCommand(a),
		newReopenCommand(a),
		newScheduleCommand(a),
		newArrivalsCommand(a),
		newServeCommand(a),
		newValidateCommand(a),
	)
	return root
}

func (a *app) init() error {
	cfg, err := config.Load(a.opts.ConfigFile)
	if err != nil {
		return err
	}
	if a.opts.Verbose {
		cfg.Log.Level = "debug"
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	a.cfg = cfg
	a.logger = logger
	return nil
}

func (a *app) printer(out io.Writer) (*output.Printer, error) {
	return output.NewPrinter(out, output.Config{
		Format:    a.opts.Format,
		OutputDir: a.opts.OutputDir,
		Verbose:   a.opts.Verbose,
	})
}
