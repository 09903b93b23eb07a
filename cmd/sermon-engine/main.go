// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the sermon-engine CLI.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/sermon-engine/internal/annotate"
	"github.com/pdiddy/sermon-engine/internal/docstore"
	"github.com/pdiddy/sermon-engine/internal/provider"
	"github.com/pdiddy/sermon-engine/internal/secrets"
	"github.com/pdiddy/sermon-engine/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// logger is the process-wide structured logger, writing to stderr.
var logger = slog.New(slog.NewTextHandler(os.Stderr, nil))

// providerSecretKeys maps provider names to their .secrets/ file names.
var providerSecretKeys = map[string]string{
	"anthropic":  "anthropic-api-key",
	"openai":     "openai-api-key",
	"openrouter": "openrouter-api-key",
}

// rootCmd is the base command for the sermon-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "sermon-engine",
	Short: "Annotate sermon manuscripts with model-generated metadata",
	Long: `sermon-engine annotates sermon manuscripts (markdown files with a YAML
frontmatter block) using interchangeable language-model providers.

The generate subcommand fills in catalog metadata (title, bolt, themes,
imagery); analyze scores each manuscript on nine radar categories and
writes the radar section into the document; compare evaluates one
manuscript with several models side by side.`,
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

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./sermon-engine.yaml or ~/.config/sermon-engine/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("sermon-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "sermon-engine"))
		}
	}

	viper.SetEnvPrefix("SERMON_ENGINE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// providerConfigs assembles per-provider connection settings from the
// config file with .secrets/ filling in missing API keys.
func providerConfigs() map[string]types.ProviderConfig {
	cfgs := make(map[string]types.ProviderConfig, len(providerSecretKeys))
	for name, secretKey := range providerSecretKeys {
		cfg := types.ProviderConfig{
			APIKey:  viper.GetString("providers." + name + ".api_key"),
			BaseURL: viper.GetString("providers." + name + ".base_url"),
			Timeout: viper.GetDuration("providers." + name + ".timeout"),
		}
		if cfg.APIKey == "" {
			cfg.APIKey = loadedSecrets[secretKey]
		}
		cfgs[name] = cfg
	}
	return cfgs
}

// buildRegistry constructs the provider registry once per command run.
func buildRegistry() (*provider.Registry, error) {
	return provider.NewRegistry(providerConfigs())
}

// annotateConfig merges config-file settings with command flags. Flags
// win when set; viper supplies file and environment values.
func annotateConfig(cmd *cobra.Command) types.AnnotateConfig {
	cfg := types.AnnotateConfig{
		AIConfig: types.AIConfig{
			Provider:      viper.GetString("annotate.provider"),
			Model:         viper.GetString("annotate.model"),
			FallbackModel: viper.GetString("annotate.fallback_model"),
			Temperature:   viper.GetFloat64("annotate.temperature"),
			MaxTokens:     viper.GetInt("annotate.max_tokens"),
		},
		SermonsDir:     viper.GetString("annotate.sermons_dir"),
		SectionHeading: viper.GetString("annotate.section_heading"),
		Retry: types.RetryConfig{
			RateLimitAttempts: viper.GetInt("annotate.retry.rate_limit_attempts"),
			OverloadAttempts:  viper.GetInt("annotate.retry.overload_attempts"),
			RetryableAttempts: viper.GetInt("annotate.retry.retryable_attempts"),
			RateLimitBaseline: viper.GetDuration("annotate.retry.rate_limit_baseline"),
			OverloadBase:      viper.GetDuration("annotate.retry.overload_base"),
			RetryableBase:     viper.GetDuration("annotate.retry.retryable_base"),
			MaxElapsed:        viper.GetDuration("annotate.retry.max_elapsed"),
		},
		Batch: types.BatchConfig{
			Concurrency:     viper.GetInt("annotate.batch.concurrency"),
			InterGroupDelay: viper.GetDuration("annotate.batch.inter_group_delay"),
		},
	}

	if v, _ := cmd.Flags().GetString("provider"); v != "" {
		cfg.Provider = v
	}
	if v, _ := cmd.Flags().GetString("model"); v != "" {
		cfg.Model = v
	}
	if v, _ := cmd.Flags().GetString("fallback-model"); v != "" {
		cfg.FallbackModel = v
	}
	if cmd.Flags().Changed("concurrency") {
		cfg.Batch.Concurrency, _ = cmd.Flags().GetInt("concurrency")
	}
	if cmd.Flags().Changed("batch-delay") {
		d, _ := cmd.Flags().GetString("batch-delay")
		if dur, err := time.ParseDuration(d); err == nil {
			cfg.Batch.InterGroupDelay = dur
		}
	}
	return cfg
}

// addModelFlags registers the model-selection flags shared by the
// annotation subcommands.
func addModelFlags(cmd *cobra.Command) {
	cmd.Flags().String("provider", "", "model provider: anthropic, openai, or openrouter")
	cmd.Flags().String("model", "", "model identifier")
	cmd.Flags().String("fallback-model", "", "model tried once per document after the primary fails")
	cmd.Flags().Int("concurrency", 3, "documents processed concurrently per group")
	cmd.Flags().String("batch-delay", "2s", "pause between document groups")
}

// resolveDocs turns a file-or-directory argument into a store plus the
// document ids to process.
func resolveDocs(path string) (*docstore.Store, []string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, nil, err
	}
	if info.IsDir() {
		store := docstore.New(path)
		ids, err := store.List()
		if err != nil {
			return nil, nil, err
		}
		if len(ids) == 0 {
			return nil, nil, fmt.Errorf("no markdown documents under %s", path)
		}
		return store, ids, nil
	}
	if !strings.HasSuffix(path, ".md") {
		return nil, nil, fmt.Errorf("%s is not a markdown document", path)
	}
	return docstore.New(filepath.Dir(path)), []string{filepath.Base(path)}, nil
}

// buildPipeline wires the store, registry, and config for one command.
func buildPipeline(cmd *cobra.Command, path string) (*annotate.Pipeline, []string, error) {
	store, ids, err := resolveDocs(path)
	if err != nil {
		return nil, nil, err
	}
	registry, err := buildRegistry()
	if err != nil {
		return nil, nil, err
	}
	pipeline := annotate.New(store, registry, annotateConfig(cmd), logger)
	return pipeline, ids, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
