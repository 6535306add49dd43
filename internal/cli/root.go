// Package cli provides the analyzer's commands.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/insightdelivered/bank-statement-analyzer/internal/config"
	"github.com/insightdelivered/bank-statement-analyzer/internal/logger"
	"github.com/insightdelivered/bank-statement-analyzer/internal/pipeline"
	"github.com/insightdelivered/bank-statement-analyzer/internal/profile"
)

// Version is reported by the version command and the health endpoint.
const Version = "2.0.0"

// app is the state shared by every command once the root has run.
type app struct {
	cfg    *config.Config
	engine *pipeline.Engine
	log    zerolog.Logger
}

type options struct {
	cfgFile  string
	profiles string
	debug    bool
}

// NewRootCmd builds the command tree. out receives command output.
func NewRootCmd(out io.Writer) *cobra.Command {
	var (
		opts options
		a    = &app{}
	)

	root := &cobra.Command{
		Use:   "bank-statement-analyzer",
		Short: "Extract and classify bank statement transactions",
		Long: `bank-statement-analyzer reads bank statements (PDF, CSV, XLS, XLSX or a
positioned-token dump), extracts the transactions and aggregates them into
tax concept subtotals and keyword groups.

Example:
  bank-statement-analyzer analyze --bank credicoop marzo.pdf
  bank-statement-analyzer analyze --column date=Dia --column debit=Monto export.csv
  bank-statement-analyzer serve --port 8080`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(opts)
		},
	}
	root.SetOut(out)

	root.PersistentFlags().StringVar(&opts.cfgFile, "config", "", "env file to load (default is .env)")
	root.PersistentFlags().StringVar(&opts.profiles, "profiles", "", "profiles YAML file (default is the built-in catalog)")
	root.PersistentFlags().BoolVar(&opts.debug, "debug", false, "enable debug logging")

	root.AddCommand(
		newAnalyzeCmd(a),
		newServeCmd(a),
		newProfilesCmd(a),
		newTokensCmd(),
		newVersionCmd(),
	)
	return root
}

// Execute runs the command tree against os.Args.
func Execute() error {
	return NewRootCmd(os.Stdout).Execute()
}

func (a *app) init(opts options) error {
	cfg, err := config.Load(opts.cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if opts.profiles != "" {
		cfg.ProfilesPath = opts.profiles
	}
	if opts.debug {
		cfg.Debug = true
	}

	catalog, err := loadCatalog(cfg.ProfilesPath)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.log = logger.New(cfg.Debug)
	a.engine = pipeline.New(catalog, pipeline.WithLineTolerance(cfg.LineTolerance))
	return nil
}

func (a *app) context(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return logger.WithContext(ctx, a.log)
}

func loadCatalog(path string) (*profile.Catalog, error) {
	if path == "" {
		return profile.Default()
	}
	return profile.Load(path)
}
