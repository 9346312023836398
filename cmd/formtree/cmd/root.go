package cmd

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/the-dev-tools/dev-tools/packages/formtree/internal/config"
	"github.com/the-dev-tools/dev-tools/packages/formtree/pkg/customerror"
	"github.com/the-dev-tools/dev-tools/packages/formtree/pkg/errmap"
	"github.com/the-dev-tools/dev-tools/packages/formtree/pkg/movable"
	"github.com/the-dev-tools/dev-tools/packages/formtree/pkg/service/sansweroption"
	"github.com/the-dev-tools/dev-tools/packages/formtree/pkg/service/sform"
	"github.com/the-dev-tools/dev-tools/packages/formtree/pkg/service/squestion"
	"github.com/the-dev-tools/dev-tools/packages/formtree/pkg/service/ssection"
	"github.com/the-dev-tools/dev-tools/packages/formtree/pkg/service/stree"
	"github.com/the-dev-tools/dev-tools/packages/formtree/pkg/sqlitelocal"
)

var rootCmd = &cobra.Command{
	Use:   "formtree",
	Short: "Keep form trees in order",
	Long: `formtree manages forms, sections, questions and answer options stored in a
local SQLite database. Siblings always carry ranks 1..n; create, move and delete
rewrite them in one transaction.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip initialization for help commands
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}
		loaded, err := config.Load(cfgFilePath)
		if err != nil {
			return customerror.Wrap("invalid configuration", err)
		}
		if dbPath != "" {
			loaded.DB = dbPath
		}
		cfg = loaded
		logger = cfg.NewLogger(cmd.ErrOrStderr())
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

var (
	cfgFilePath string
	dbPath      string

	cfg    = config.Default()
	logger = slog.Default()
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFilePath, "config", "", "config file (default is $HOME/.formtree.yaml)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database file (overrides config and FORMTREE_DB)")
}

// Execute runs the root command and exits with a status derived from the
// error class.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", userMessage(err))
		os.Exit(errmap.ExitCode(err))
	}
}

func userMessage(err error) string {
	var ce customerror.CustomError
	if errors.As(err, &ce) {
		return ce.User() + ": " + ce.Error()
	}
	return errmap.Friendly(err)
}

// app bundles the services one command invocation needs.
type app struct {
	db     *sql.DB
	close  func()
	engine *stree.Engine
	reader *stree.Reader

	forms     sform.FormService
	sections  ssection.SectionService
	questions squestion.QuestionService
	options   sansweroption.AnswerOptionService
}

func openApp(ctx context.Context) (*app, error) {
	db, closeFn, err := sqlitelocal.Open(ctx, cfg.DB, sqlitelocal.Options{
		BusyTimeout: cfg.BusyTimeout,
		Logger:      logger,
	})
	if err != nil {
		return nil, customerror.Wrap("could not open "+cfg.DB, err)
	}
	queries := stree.New(db)
	engine := stree.NewEngine(stree.NewStore(db),
		movable.WithLogger(logger),
		movable.WithLockTimeout(cfg.LockTimeout),
	)
	return &app{
		db:        db,
		close:     closeFn,
		engine:    engine,
		reader:    stree.NewReaderFromQueries(queries, logger),
		forms:     sform.New(queries, engine, logger),
		sections:  ssection.New(queries, engine, logger),
		questions: squestion.New(queries, engine, logger),
		options:   sansweroption.New(queries, engine, logger),
	}, nil
}

func (a *app) Close() {
	a.close()
}
