// Command agenthub is the CLI entry point: it wires the built-in capability
// adapters into a hub and answers questions from the command line.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/hupe1980/agenthub"
	"github.com/hupe1980/agenthub/adapter"
	"github.com/hupe1980/agenthub/classify"
	"github.com/hupe1980/agenthub/classify/anthropic"
	"github.com/hupe1980/agenthub/classify/openai"
	"github.com/hupe1980/agenthub/config"
	"github.com/hupe1980/agenthub/core"
	"github.com/hupe1980/agenthub/executor"
	"github.com/hupe1980/agenthub/hub"
	"github.com/hupe1980/agenthub/logging"
	"github.com/hupe1980/agenthub/router"
)

var (
	flagSession    string
	flagConfig     string
	flagClassifier string
	flagTimeout    time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "agenthub",
	Short: "Agenthub - a capability dispatch engine",
	Long: `Agenthub routes natural language tasks to registered capabilities,
executes them with retry and timeout policies and synthesizes a single
answer per task.`,
}

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question and print the synthesized answer",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(flagConfig)
		if err != nil {
			return err
		}
		if flagTimeout > 0 {
			cfg.Executor.TaskBudget = config.Duration(flagTimeout)
		}

		h, err := buildHub(cfg)
		if err != nil {
			return err
		}

		resp, err := h.Ask(cmd.Context(), flagSession, strings.Join(args, " "))
		if err != nil {
			return err
		}

		fmt.Println(resp.Text)
		fmt.Printf("\n[status: %s]\n", resp.Status)
		for _, src := range resp.Sources {
			fmt.Printf("source: %s\n", src)
		}
		return nil
	},
}

var capabilitiesCmd = &cobra.Command{
	Use:   "capabilities",
	Short: "List the registered capabilities",
	RunE: func(_ *cobra.Command, _ []string) error {
		cfg, err := config.Load(flagConfig)
		if err != nil {
			return err
		}
		h, err := buildHub(cfg)
		if err != nil {
			return err
		}
		for _, cap := range h.Capabilities() {
			fmt.Printf("%-16s %-14s %s\n", cap.Name, cap.Idempotency, cap.Description)
		}
		return nil
	},
}

func buildHub(cfg config.Config) (*agenthub.AgentHub, error) {
	logger := logging.New(func(o *logging.Options) {
		o.Level = logging.ParseLevel(cfg.Logging.Level)
		o.Format = cfg.Logging.Format
		o.Output = os.Stderr
	})

	cls, err := buildClassifier()
	if err != nil {
		return nil, err
	}

	h := agenthub.New(func(o *agenthub.Options) {
		o.Logger = logger
		o.HubOptions = []func(ho *hub.Options){func(ho *hub.Options) {
			ho.Classifier = cls
			ho.TaskBudget = cfg.Executor.TaskBudget.Std()
			ho.RouterOptions = []func(ro *router.Options){func(ro *router.Options) {
				ro.Threshold = cfg.Router.Threshold
				ro.MaxSelections = cfg.Router.MaxSelections
				ro.CacheSize = cfg.Router.CacheSize
			}}
			ho.ExecutorOptions = []func(eo *executor.Options){func(eo *executor.Options) {
				eo.BaseBackoff = cfg.Executor.BaseBackoff.Std()
				eo.MaxAttempts = cfg.Executor.MaxAttempts
			}}
		}}
	})

	if err := registerAdapters(h, cfg); err != nil {
		return nil, err
	}
	return h, nil
}

// buildClassifier honors --classifier: keyword (default, offline), openai or
// anthropic (require the provider's API key in the environment).
func buildClassifier() (classify.Classifier, error) {
	switch flagClassifier {
	case "", "keyword":
		return classify.NewKeyword(), nil
	case "openai":
		return openai.New(), nil
	case "anthropic":
		return anthropic.New(), nil
	default:
		return nil, fmt.Errorf("unknown classifier %q (keyword, openai or anthropic)", flagClassifier)
	}
}

func registerAdapters(h *agenthub.AgentHub, cfg config.Config) error {
	fileStore := adapter.NewFileStore(func(o *adapter.FileStoreOptions) {
		if cfg.Adapters.FilesDir != "" {
			store, err := adapter.NewDirStore(cfg.Adapters.FilesDir)
			if err == nil {
				o.Store = store
			}
		}
	})

	registrable := []interface {
		core.Adapter
		Capability() core.Capability
	}{
		adapter.NewCalculator(),
		fileStore,
		adapter.NewWebSearch(),
		adapter.NewVideoCaptions(),
		adapter.NewArxiv(),
		adapter.NewHackerNews(),
		adapter.NewArticleReader(),
		adapter.NewCodeRunner(func(o *adapter.CodeRunnerOptions) {
			o.Interpreter = cfg.Adapters.Interpreter
		}),
		adapter.NewWikipedia(),
		adapter.NewStockQuotes(),
		adapter.NewWorkspace(func(o *adapter.WorkspaceOptions) {
			o.BaseDir = cfg.Adapters.WorkspacesDir
		}),
	}

	for _, a := range registrable {
		if err := h.Register(a.Capability(), a); err != nil {
			return err
		}
	}
	return nil
}

func main() {
	// Missing .env is fine; explicit environment wins anyway.
	_ = godotenv.Load()

	rootCmd.PersistentFlags().StringVarP(&flagSession, "session", "s", "default", "session id for conversation continuity")
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&flagClassifier, "classifier", "keyword", "classifier backend: keyword, openai or anthropic")
	rootCmd.PersistentFlags().DurationVar(&flagTimeout, "timeout", 0, "per-task execution budget, e.g. 30s (overrides config)")

	rootCmd.AddCommand(askCmd, capabilitiesCmd)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
