// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the research-assistant CLI: a
// command surface over the paper discovery and retrieval core. Each
// operation is a subcommand: search, download, projects, library.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/research-assistant/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

const (
	defaultBaseDir   = "research_projects"
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "research-assistant/0.1"
	defaultOwner     = "local"
)

// loadedSecrets holds API keys loaded from .secrets/ at startup. A
// missing key reads as the empty string.
var loadedSecrets map[string]string

// baseDir resolves the project store location: the command flag when set,
// then the config file, then the default.
func baseDir(cmd *cobra.Command) string {
	if dir, _ := cmd.Flags().GetString("base-dir"); dir != "" {
		return dir
	}
	if dir := viper.GetString("base_dir"); dir != "" {
		return dir
	}
	return defaultBaseDir
}

// rootCmd is the base command for the research-assistant CLI.
var rootCmd = &cobra.Command{
	Use:   "research-assistant",
	Short: "Search biomedical literature and collect open-access PDFs",
	Long: `research-assistant searches PubMed for papers, saves each search as a
project directory on disk, and downloads open-access PDFs for the saved
results. Projects accumulate over time and can be indexed into a local,
full-text-searchable library.

Each operation is a subcommand: search, download, projects, and library.
The chat or shell frontend drives these with parsed user input.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./research-assistant.yaml or ~/.config/research-assistant/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("research-assistant")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "research-assistant"))
		}
	}

	viper.SetEnvPrefix("RESEARCH_ASSISTANT")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
