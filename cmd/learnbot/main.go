package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"learnbot/internal/config"
	"learnbot/internal/domain"
	"learnbot/internal/tui"
	"learnbot/internal/watch"
)

var (
	cfgPath string
	verbose bool
	cfg     *config.AppConfig
	logger  *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "learnbot",
	Short: "A question-answering bot that learns from you",
	Long: "learnbot answers questions from a curated knowledge base and from\n" +
		"ingested documents. When it cannot answer, it asks to be taught and\n" +
		"remembers the answer for next time.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()

		var err error
		if cfgPath == "" {
			cfg, _, err = config.LoadDefault()
		} else {
			cfg, err = config.Load(cfgPath)
		}
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		// the chat surface owns the terminal, so its logs go to a file
		logger, err = buildLogger(logsToFile(cmd))
		if err != nil {
			return fmt.Errorf("initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runChat,
}

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a single question and print the answer",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

var teachCmd = &cobra.Command{
	Use:   "teach <question> <answer>",
	Short: "Add a question/answer pair to the knowledge base",
	Args:  cobra.ExactArgs(2),
	RunE:  runTeach,
}

var importCmd = &cobra.Command{
	Use:   "import <file.csv>",
	Short: "Append entries from another knowledge table",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to YAML config (default: ./config.yaml, then ~/.config/learnbot/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.AddCommand(askCmd, teachCmd, importCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// logsToFile reports whether cmd runs the interactive chat surface, which
// owns the terminal and needs its logs redirected to a file. That is the
// root command itself; subcommands log to stderr as usual.
func logsToFile(cmd *cobra.Command) bool {
	return cmd.Root() == cmd
}

func buildLogger(toFile bool) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	level := zapcore.InfoLevel
	if err := level.Set(cfg.Logging.Level); err != nil {
		level = zapcore.InfoLevel
	}
	if verbose {
		level = zapcore.DebugLevel
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	if toFile {
		zc.OutputPaths = []string{cfg.Logging.Path}
		zc.ErrorOutputPaths = []string{cfg.Logging.Path}
	}
	return zc.Build()
}

func runChat(cmd *cobra.Command, args []string) error {
	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if n, err := a.store.Load(ctx); err != nil {
		logger.Warn("knowledge index unavailable, running degraded", zap.Error(err))
	} else {
		logger.Info("knowledge base loaded", zap.Int("questions", n))
	}
	if err := a.store.CheckWritable(); err != nil {
		logger.Warn("knowledge file not writable, teaching will fail", zap.Error(err))
	}

	p := tea.NewProgram(tui.New(a.session, a, cfg.Prompts))

	if cfg.Knowledge.Watch {
		watchCtx, cancel := context.WithCancel(context.Background())
		defer cancel()
		stop, err := watch.Knowledge(watchCtx, cfg.Knowledge.Path, logger, func() {
			// our own commits also touch the file; reloading for them is
			// redundant but harmless, the watcher already debounced
			n, err := a.store.Reload(context.Background())
			if err != nil {
				logger.Warn("reload after external edit", zap.Error(err))
			}
			p.Send(tui.ReloadMsg{Count: n})
		})
		if err != nil {
			logger.Warn("knowledge watcher unavailable", zap.Error(err))
		} else {
			defer stop()
		}
	}

	_, err = p.Run()
	return err
}

func runAsk(cmd *cobra.Command, args []string) error {
	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if _, err := a.store.Load(ctx); err != nil {
		logger.Warn("knowledge index unavailable, running degraded", zap.Error(err))
	}

	query := ""
	for i, arg := range args {
		if i > 0 {
			query += " "
		}
		query += arg
	}
	ans, err := a.engine.Answer(ctx, query)
	if err != nil {
		return err
	}
	if ans.Source == domain.SourceUnknown {
		fmt.Println(cfg.Prompts.Fallback)
		return nil
	}
	fmt.Printf("[%s] %s\n", ans.Source, ans.Text)
	return nil
}

func runTeach(cmd *cobra.Command, args []string) error {
	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if _, err := a.store.Load(ctx); err != nil {
		logger.Warn("knowledge index unavailable, running degraded", zap.Error(err))
	}
	if err := a.store.Commit(ctx, args[0], args[1]); err != nil {
		return err
	}
	fmt.Printf("Learned: %q -> %q\n", args[0], args[1])
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if _, err := a.store.Load(ctx); err != nil {
		logger.Warn("knowledge index unavailable, running degraded", zap.Error(err))
	}
	n, err := a.store.Import(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Printf("Imported %d entries from %s\n", n, args[0])
	return nil
}
