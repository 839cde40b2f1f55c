package cli

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/zefrenchwan/egonet.git/config"
	"github.com/zefrenchwan/egonet.git/logger"
	"github.com/zefrenchwan/egonet.git/versioned"
	"go.uber.org/zap"
)

// environment is shared by all commands: streams, then configuration and logger once loaded
type environment struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	configPath string
	config     *config.Config
	logger     *zap.SugaredLogger
}

// load reads the configuration and builds the logger
func (e *environment) load() error {
	loaded, err := config.Load(e.configPath)
	if err != nil {
		return err
	}

	log, err := logger.New(loaded.Log.JSON, loaded.Log.Level)
	if err != nil {
		return err
	}

	e.config = loaded
	e.logger = log
	return nil
}

// withStore opens the configured store, runs fn, and closes the store
func (e *environment) withStore(ctx context.Context, fn func(*versioned.Store) error) error {
	store, err := OpenStore(ctx, e.config, e.logger)
	if err != nil {
		return err
	}

	defer func() {
		if errClose := store.Close(); errClose != nil {
			e.logger.Warnw("failed to close store", "error", errClose)
		}
	}()

	return fn(store)
}

// NewRootCommand returns the egonet command and all its subcommands
func NewRootCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	env := &environment{stdin: stdin, stdout: stdout, stderr: stderr}

	rc := &cobra.Command{
		Use:   "egonet",
		Short: "Egonet stores the history of an ego network and its attributes.",
		Long: `Egonet stores the history of an ego network: an ego, its alters, and the dyads between them.
Attributes of each domain have values over time, with secondary values per stored datum.

Configuration comes from a file (--config) and EGONET_ environment variables,
for instance EGONET_STORAGE_BACKEND=bolt and EGONET_STORAGE_PATH=egonet.db.
`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return env.load()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if env.logger != nil {
				_ = env.logger.Sync()
			}
		},
	}

	rc.SetIn(stdin)
	rc.SetOut(stdout)
	rc.SetErr(stderr)
	rc.PersistentFlags().StringVarP(&env.configPath, "config", "c", "", "Configuration file to read from.")

	rc.AddCommand(newServeCommand(env))
	rc.AddCommand(newDeclareCommand(env))
	rc.AddCommand(newSetCommand(env))
	rc.AddCommand(newGetCommand(env))
	rc.AddCommand(newHistoryCommand(env))
	rc.AddCommand(newEntitiesCommand(env))
	rc.AddCommand(newImportCommand(env))
	rc.AddCommand(newRenameCommand(env))
	return rc
}

// Execute runs the root command with the process arguments and streams
func Execute() error {
	return NewRootCommand(os.Stdin, os.Stdout, os.Stderr).ExecuteContext(context.Background())
}
