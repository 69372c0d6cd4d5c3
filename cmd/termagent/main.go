package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"termagent/internal/app"
	"termagent/internal/config"
	"termagent/internal/logging"
)

var (
	version    = "0.1.0"
	cfgFile    string
	debug      bool
	noConfirm  bool
	oneshot    string
	modelHeavy string
	modelLight string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "termagent",
		Short: "Terminal assistant that routes plain-language requests to shell, git and model agents",
		Long: `termagent reads commands and questions at a prompt. Shell commands run
directly, questions about the local environment are answered from the
workspace, compound instructions are broken into steps, and everything
else goes to a language model.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runApp,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/termagent/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "print routing decisions and debug logs to stderr")
	rootCmd.PersistentFlags().BoolVar(&noConfirm, "no-confirm", false, "run generated commands without asking")
	rootCmd.PersistentFlags().StringVar(&oneshot, "oneshot", "", "handle one input and exit")
	rootCmd.PersistentFlags().StringVar(&modelHeavy, "model-heavy", "", "model for complex queries")
	rootCmd.PersistentFlags().StringVar(&modelLight, "model-light", "", "model for simple queries")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("termagent version %s\n", version)
		},
	})
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newClassifyCmd())
	rootCmd.AddCommand(newConfigCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		if errors.Is(err, config.ErrMissingAuth) {
			fmt.Fprintln(os.Stderr, app.MissingKeyHelp)
		}
		os.Exit(1)
	}
}

// loadConfig reads the config file and applies flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if modelHeavy != "" {
		cfg.OpenAI.HeavyModel = modelHeavy
	}
	if modelLight != "" {
		cfg.OpenAI.LightModel = modelLight
	}
	if debug {
		cfg.Debug = true
	}
	cfg.NoConfirm = noConfirm
	cfg.Version = version

	// Missing credentials only matter once a model-backed path is used.
	if err := cfg.Validate(); err != nil && !errors.Is(err, config.ErrMissingAuth) {
		return nil, err
	}
	return cfg, nil
}

// setupLogging sends debug output to stderr with --debug, otherwise to the
// log file in the data directory when enabled.
func setupLogging(cfg *config.Config) {
	if cfg.Debug {
		logging.EnableDebug(os.Stderr)
		return
	}
	if !cfg.Logging.File {
		return
	}
	dir, err := config.DataDir()
	if err != nil {
		return
	}
	if err := logging.EnableFileLogging(dir, logging.ParseLevel(cfg.Logging.Level)); err != nil {
		fmt.Fprintf(os.Stderr, "warning: file logging disabled: %v\n", err)
	}
}

func runApp(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	setupLogging(cfg)
	defer logging.Close()

	workDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}

	ctx, stop := app.ShutdownContext(context.Background())
	defer stop()

	input := strings.TrimSpace(oneshot)
	if input == "" && len(args) > 0 {
		input = strings.Join(args, " ")
	}

	application, err := app.NewBuilder(cfg, workDir).
		WithIO(os.Stdin, os.Stdout, input == "" && isTerminal(os.Stdin)).
		WithPathWatch(input == "").
		Build(ctx)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}
	defer application.Close()

	if input != "" {
		code, err := application.RunOnce(ctx, input)
		if err != nil {
			return err
		}
		if code != 0 {
			application.Close()
			logging.Close()
			os.Exit(code)
		}
		return nil
	}
	return application.Run(ctx)
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
