package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/felixgeelhaar/taskgraph/pkg/observability"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	cfgFile    string
	memoryMode bool
	verbose    bool
	logger     *slog.Logger
)

type commandContext struct {
	correlationID uuid.UUID
	startedAt     time.Time
}

type commandContextKey struct{}

// Options are the global flags an Initializer needs before any command runs.
type Options struct {
	// PolicyFile is the YAML graph policy given with --config.
	PolicyFile string
	// Memory selects the in-memory store.
	Memory  bool
	Verbose bool
}

// Initializer builds the App for a command run and returns its cleanup.
type Initializer func(ctx context.Context, opts Options) (*App, func(), error)

var (
	initializer Initializer
	cleanup     func()
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "taskgraph",
	Short: "taskgraph - task hierarchy and dependency graph engine",
	Long: `taskgraph keeps two structures over the same tasks consistent:
a containment tree of subtasks and a prerequisite graph.

	Tree depth is bounded, deleting a task deactivates its subtree,
	dependency cycles are rejected and blocked tasks are reported.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if logger == nil {
			logger = slog.Default()
		}
		info := commandContext{
			correlationID: uuid.New(),
			startedAt:     time.Now(),
		}
		ctx := context.WithValue(cmd.Context(), commandContextKey{}, info)
		ctx = observability.WithCorrelationID(ctx, info.correlationID.String())
		cmd.SetContext(ctx)
		logger.Debug("command start",
			"command", cmd.CommandPath(),
			observability.CorrelationIDKey, info.correlationID.String(),
		)

		if app != nil || initializer == nil {
			return nil
		}
		a, done, err := initializer(ctx, Options{PolicyFile: cfgFile, Memory: memoryMode, Verbose: verbose})
		if err != nil {
			return err
		}
		app, cleanup = a, done
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger == nil {
			logger = slog.Default()
		}
		if app != nil && app.FlushEvents != nil {
			if err := app.FlushEvents(cmd.Context()); err != nil {
				logger.Warn("failed to relay events", "error", err)
			}
		}
		info, ok := cmd.Context().Value(commandContextKey{}).(commandContext)
		if !ok {
			return
		}
		logger.Debug("command end",
			"command", cmd.CommandPath(),
			observability.CorrelationIDKey, info.correlationID.String(),
			"duration_ms", time.Since(info.startedAt).Milliseconds(),
		)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute(ctx context.Context) {
	err := rootCmd.ExecuteContext(ctx)
	if cleanup != nil {
		cleanup()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "graph policy file (YAML)")
	rootCmd.PersistentFlags().BoolVar(&memoryMode, "memory", false, "use an in-memory store that is discarded on exit")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// AddCommand adds a command to the root command.
func AddCommand(cmd *cobra.Command) {
	rootCmd.AddCommand(cmd)
}

// SetLogger sets the CLI logger.
func SetLogger(l *slog.Logger) {
	logger = l
}

// SetInitializer sets how the App is built once flags are parsed.
func SetInitializer(fn Initializer) {
	initializer = fn
}
