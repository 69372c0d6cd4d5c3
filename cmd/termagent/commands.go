package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"termagent/internal/app"
	"termagent/internal/config"
	"termagent/internal/history"
	"termagent/internal/router"
	"termagent/internal/tools"
)

func openHistory() (*history.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	dir, err := config.DataDir()
	if err != nil {
		return nil, fmt.Errorf("data directory: %w", err)
	}
	return history.Open(history.DefaultPath(dir), cfg.History.MaxEntries, history.NewSessionID())
}

func newHistoryCmd() *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Show and manage the command history",
		RunE:  runHistoryList,
	}

	historyCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List recent entries",
		RunE:  runHistoryList,
	})
	historyCmd.AddCommand(&cobra.Command{
		Use:   "search <text>",
		Short: "Search the history",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openHistory()
			if err != nil {
				return err
			}
			fmt.Println(app.FormatEntries(store.Search(strings.Join(args, " "))))
			return nil
		},
	})
	historyCmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Show history statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openHistory()
			if err != nil {
				return err
			}
			fmt.Println(app.FormatStats(store.Stats()))
			return nil
		},
	})
	historyCmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Delete all history entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openHistory()
			if err != nil {
				return err
			}
			if err := store.Clear(); err != nil {
				return err
			}
			fmt.Println("History cleared.")
			return nil
		},
	})
	return historyCmd
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	store, err := openHistory()
	if err != nil {
		return err
	}
	fmt.Println(app.FormatEntries(store.Recent(20)))
	return nil
}

func newClassifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify <text>",
		Short: "Show how an input would be routed without running it",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			var recognizer router.CommandRecognizer
			if dir, err := config.DataDir(); err == nil {
				cache := tools.NewExecutableCache(filepath.Join(dir, "executables.json"), config.DefaultExecutableCacheTTL)
				if err := cache.Load(); err == nil {
					recognizer = tools.NewRecognizer(cache)
				}
			}
			d := router.New(cfg, recognizer).Route(strings.Join(args, " "))
			fmt.Print(d.FormatReasoning())
			return nil
		},
	}
}

func newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create the config file",
	}
	configCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the config file location",
		Run: func(cmd *cobra.Command, args []string) {
			if cfgFile != "" {
				fmt.Println(cfgFile)
				return
			}
			fmt.Println(config.GetConfigPath())
		},
	})
	configCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write the default configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := cfgFile
			if path == "" {
				path = config.GetConfigPath()
			}
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists", path)
			}
			if err := config.DefaultConfig().Save(path); err != nil {
				return err
			}
			fmt.Printf("Wrote %s\n", path)
			return nil
		},
	})
	return configCmd
}
